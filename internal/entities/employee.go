package entities

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Employee is a read-only record from the company directory. Employees act
// as senders and recipients of packages; this service never mutates them.
type Employee struct {
	ID         uuid.UUID
	Name       string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Address renders the postal address of the employee in display form.
func (e Employee) Address() string {
	return fmt.Sprintf("%s, %s  %s, %s - %s", e.Street, e.PostalCode, e.City, e.State, e.Country)
}

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrSenderNotFound    = errors.New("sender not found")
	ErrRecipientNotFound = errors.New("recipient not found")
)
