package handler

import (
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"
)

const dateFormat = "2006-01-02"

type SubmitPackage struct {
	PackageName   string `json:"packageName" validate:"required"`
	WeightInGrams int    `json:"weightInGrams" validate:"required,gt=0"`
	SenderID      string `json:"senderId" validate:"required,uuid"`
	RecipientID   string `json:"recipientId" validate:"required,uuid,nefield=SenderID"`
}

type SubmitPackageResponse struct {
	PackageID string `json:"packageId"`
}

type Receiver struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PackageDetails struct {
	PackageID              string     `json:"packageId"`
	PackageName            string     `json:"packageName"`
	DateOfRegistration     time.Time  `json:"dateOfRegistration"`
	OrderStatus            string     `json:"orderStatus"`
	ExpectedDeliveryDate   string     `json:"expectedDeliveryDate"`
	ActualDeliveryDateTime *time.Time `json:"actualDeliveryDateTime,omitempty"`
	Receiver               Receiver   `json:"receiver"`
}

func PackageDetailsToJSON(d entities.PackageDetails) PackageDetails {
	return PackageDetails{
		PackageID:              d.PackageID.String(),
		PackageName:            d.PackageName,
		DateOfRegistration:     d.RegisteredAt,
		OrderStatus:            string(d.Status),
		ExpectedDeliveryDate:   d.ExpectedDeliveryDate.Format(dateFormat),
		ActualDeliveryDateTime: d.ActualDeliveryAt,
		Receiver: Receiver{
			ID:      d.Recipient.ID.String(),
			Name:    d.Recipient.Name,
			Address: d.Recipient.Address,
		},
	}
}
