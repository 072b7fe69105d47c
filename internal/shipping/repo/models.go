package repo

import (
	"database/sql"
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"

	"github.com/google/uuid"
)

type ShippingOrder struct {
	ID                   uuid.UUID    `db:"id"`
	PackageName          string       `db:"package_name"`
	PostalCode           string       `db:"postal_code"`
	StreetName           string       `db:"street_name"`
	ReceiverName         string       `db:"receiver_name"`
	PackageSize          string       `db:"package_size"`
	Status               string       `db:"status"`
	ExpectedDeliveryDate time.Time    `db:"expected_delivery_date"`
	ActualDeliveryAt     sql.NullTime `db:"actual_delivery_at"`
}

func OrderToEntity(o ShippingOrder) entities.ShippingOrder {
	var actual *time.Time
	if o.ActualDeliveryAt.Valid {
		t := o.ActualDeliveryAt.Time
		actual = &t
	}
	return entities.ShippingOrder{
		ID:                   o.ID,
		PackageName:          o.PackageName,
		PostalCode:           o.PostalCode,
		StreetName:           o.StreetName,
		ReceiverName:         o.ReceiverName,
		PackageSize:          entities.PackageSize(o.PackageSize),
		Status:               entities.OrderStatus(o.Status),
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		ActualDeliveryAt:     actual,
	}
}
