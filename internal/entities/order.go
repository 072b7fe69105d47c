package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a shipping order. It is owned by the
// shipping service; the self-service side only reads it.
type OrderStatus string

const (
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusSent       OrderStatus = "SENT"
	StatusDelivered  OrderStatus = "DELIVERED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusSent, StatusDelivered:
		return true
	}
	return false
}

// ShippingOrder is the shipping service's record of a package in transit.
// ExpectedDeliveryDate carries a date only, ActualDeliveryAt is set once the
// package is delivered.
type ShippingOrder struct {
	ID                   uuid.UUID
	PackageName          string
	PostalCode           string
	StreetName           string
	ReceiverName         string
	PackageSize          PackageSize
	Status               OrderStatus
	ExpectedDeliveryDate time.Time
	ActualDeliveryAt     *time.Time
}

var (
	ErrOrderNotFound       = errors.New("shipping order not found")
	ErrShippingUnavailable = errors.New("shipping service unavailable")

	// ErrDuplicatePackageName matches any DuplicatePackageNameError via errors.Is.
	ErrDuplicatePackageName = errors.New("duplicate package name")
)

// DuplicatePackageNameError is returned when an order with the same package
// name already exists downstream. It is terminal and never retried.
type DuplicatePackageNameError struct {
	PackageName string
}

func (e *DuplicatePackageNameError) Error() string {
	return fmt.Sprintf("package name %q was already taken", e.PackageName)
}

func (e *DuplicatePackageNameError) Is(target error) bool {
	return target == ErrDuplicatePackageName
}
