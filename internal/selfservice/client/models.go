package client

import (
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"
)

// dateFormat is the wire format of date-only fields.
const dateFormat = "2006-01-02"

// ShippingOrder is the creation payload of the shipping service API.
type ShippingOrder struct {
	PackageName  string `json:"packageName"`
	PostalCode   string `json:"postalCode"`
	StreetName   string `json:"streetName"`
	ReceiverName string `json:"receiverName"`
	PackageSize  string `json:"packageSize"`
}

// orderDetails mirrors the shipping service order representation.
type orderDetails struct {
	PackageID              string     `json:"packageId"`
	PackageName            string     `json:"packageName"`
	PackageSize            string     `json:"packageSize"`
	PostalCode             string     `json:"postalCode"`
	StreetName             string     `json:"streetName"`
	ReceiverName           string     `json:"receiverName"`
	OrderStatus            string     `json:"orderStatus"`
	ExpectedDeliveryDate   string     `json:"expectedDeliveryDate"`
	ActualDeliveryDateTime *time.Time `json:"actualDeliveryDateTime"`
}

// OrderSnapshot is the decoded state of a shipping order as reported by the
// shipping service.
type OrderSnapshot struct {
	OrderID              string
	PackageName          string
	Status               entities.OrderStatus
	ExpectedDeliveryDate time.Time
	ActualDeliveryAt     *time.Time
}

func (d orderDetails) toSnapshot() (OrderSnapshot, error) {
	expected, err := time.Parse(dateFormat, d.ExpectedDeliveryDate)
	if err != nil {
		return OrderSnapshot{}, err
	}
	return OrderSnapshot{
		OrderID:              d.PackageID,
		PackageName:          d.PackageName,
		Status:               entities.OrderStatus(d.OrderStatus),
		ExpectedDeliveryDate: expected,
		ActualDeliveryAt:     d.ActualDeliveryDateTime,
	}, nil
}
