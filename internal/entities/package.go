package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Package is the local record of a submitted package. It is created exactly
// once per successful submission and links the submission to the downstream
// shipping order via OrderURL. Status is never cached here, it is fetched
// live from the shipping service on every read.
type Package struct {
	ID            uuid.UUID
	PackageName   string
	WeightInGrams int
	SenderID      uuid.UUID
	RecipientID   uuid.UUID
	OrderURL      string
	RegisteredAt  time.Time
}

// Submission holds the validated input of a package submission.
type Submission struct {
	PackageName   string
	WeightInGrams int
	SenderID      uuid.UUID
	RecipientID   uuid.UUID
}

// Recipient is the display view of the package receiver.
type Recipient struct {
	ID      uuid.UUID
	Name    string
	Address string
}

// PackageDetails is a package record enriched with the live state of its
// shipping order.
type PackageDetails struct {
	PackageID            uuid.UUID
	PackageName          string
	RegisteredAt         time.Time
	Status               OrderStatus
	ExpectedDeliveryDate time.Time
	ActualDeliveryAt     *time.Time
	Recipient            Recipient
}

// OrphanedOrder records a shipping order that was created downstream but
// whose local package record could not be persisted. A background job
// re-persists these out-of-band.
type OrphanedOrder struct {
	OrderURL   string
	Submission Submission
	RecordedAt time.Time
}

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrRateLimited     = errors.New("rate limit exceeded")
)
