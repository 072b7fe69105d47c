package handler

import (
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"
	"github.com/zlatkom/package-self-service/internal/shipping/service"
)

const dateFormat = "2006-01-02"

type CreateOrder struct {
	PackageName  string `json:"packageName" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
	StreetName   string `json:"streetName" validate:"required"`
	ReceiverName string `json:"receiverName" validate:"required"`
	PackageSize  string `json:"packageSize" validate:"required,oneof=S M L XL"`
}

type Order struct {
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

// StatusUpdate is a fulfillment event from the shipping-status topic.
type StatusUpdate struct {
	OrderID                string     `json:"orderId" validate:"required,uuid"`
	OrderStatus            string     `json:"orderStatus" validate:"required,oneof=IN_PROGRESS SENT DELIVERED"`
	ActualDeliveryDateTime *time.Time `json:"actualDeliveryDateTime"`
}

func CreateOrderToNewOrder(c CreateOrder) service.NewOrder {
	return service.NewOrder{
		PackageName:  c.PackageName,
		PostalCode:   c.PostalCode,
		StreetName:   c.StreetName,
		ReceiverName: c.ReceiverName,
		PackageSize:  entities.PackageSize(c.PackageSize),
	}
}

func OrderEntityToJSON(o entities.ShippingOrder) Order {
	return Order{
		PackageID:              o.ID.String(),
		PackageName:            o.PackageName,
		PackageSize:            string(o.PackageSize),
		PostalCode:             o.PostalCode,
		StreetName:             o.StreetName,
		ReceiverName:           o.ReceiverName,
		OrderStatus:            string(o.Status),
		ExpectedDeliveryDate:   o.ExpectedDeliveryDate.Format(dateFormat),
		ActualDeliveryDateTime: o.ActualDeliveryAt,
	}
}
