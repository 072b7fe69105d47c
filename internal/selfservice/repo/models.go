package repo

import (
	"time"

	"github.com/zlatkom/package-self-service/internal/entities"

	"github.com/google/uuid"
)

type Employee struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Street     string    `db:"street"`
	City       string    `db:"city"`
	State      string    `db:"state"`
	PostalCode string    `db:"postal_code"`
	Country    string    `db:"country"`
}

type Package struct {
	ID            uuid.UUID `db:"id"`
	PackageName   string    `db:"package_name"`
	WeightInGrams int       `db:"weight_in_grams"`
	SenderID      uuid.UUID `db:"sender_id"`
	RecipientID   uuid.UUID `db:"recipient_id"`
	OrderURL      string    `db:"order_url"`
	RegisteredAt  time.Time `db:"registered_at"`
}

type OrphanedOrder struct {
	OrderURL      string    `db:"order_url"`
	PackageName   string    `db:"package_name"`
	WeightInGrams int       `db:"weight_in_grams"`
	SenderID      uuid.UUID `db:"sender_id"`
	RecipientID   uuid.UUID `db:"recipient_id"`
	RecordedAt    time.Time `db:"recorded_at"`
}

func EmployeeToEntity(e Employee) entities.Employee {
	return entities.Employee{
		ID:         e.ID,
		Name:       e.Name,
		Street:     e.Street,
		City:       e.City,
		State:      e.State,
		PostalCode: e.PostalCode,
		Country:    e.Country,
	}
}

func PackageToEntity(p Package) entities.Package {
	return entities.Package{
		ID:            p.ID,
		PackageName:   p.PackageName,
		WeightInGrams: p.WeightInGrams,
		SenderID:      p.SenderID,
		RecipientID:   p.RecipientID,
		OrderURL:      p.OrderURL,
		RegisteredAt:  p.RegisteredAt,
	}
}

func OrphanToEntity(o OrphanedOrder) entities.OrphanedOrder {
	return entities.OrphanedOrder{
		OrderURL: o.OrderURL,
		Submission: entities.Submission{
			PackageName:   o.PackageName,
			WeightInGrams: o.WeightInGrams,
			SenderID:      o.SenderID,
			RecipientID:   o.RecipientID,
		},
		RecordedAt: o.RecordedAt,
	}
}
