package models

import (
	"fmt"
	"time"
)

// CustomerAddress is a delivery address of a customer. At most one address per
// customer has IsPrimary set.
type CustomerAddress struct {
	ID          string    `json:"id" db:"id"`
	CustomerID  string    `json:"customerId" db:"customer_id"`
	AddressName string    `json:"addressName" db:"address_name"`
	City        string    `json:"city" db:"city"`
	PinCode     string    `json:"pinCode" db:"pin_code"`
	State       string    `json:"state" db:"state"`
	IsPrimary   bool      `json:"isPrimary" db:"is_primary"`
	FullAddress string    `json:"fullAddress" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// FormatFullAddress renders an address as "line, city, state - pin".
func FormatFullAddress(line, city, state, pinCode string) string {
	return fmt.Sprintf("%s, %s, %s - %s", line, city, state, pinCode)
}

// Fill sets the derived FullAddress field.
func (a *CustomerAddress) Fill() {
	a.FullAddress = FormatFullAddress(a.AddressName, a.City, a.State, a.PinCode)
}

// Snapshot copies the address into the form stored on a shipment.
func (a *CustomerAddress) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		AddressLine: a.AddressName,
		City:        a.City,
		PinCode:     a.PinCode,
		State:       a.State,
		FullAddress: FormatFullAddress(a.AddressName, a.City, a.State, a.PinCode),
	}
}

// AddAddressRequest defines the shape of the request body for creating a new address.
type AddAddressRequest struct {
	AddressName string `json:"addressName" validate:"required,min=2,max=255"`
	City        string `json:"city" validate:"required,max=100"`
	PinCode     string `json:"pinCode" validate:"required,min=3,max=12"`
	State       string `json:"state" validate:"required,max=100"`
	IsPrimary   bool   `json:"isPrimary"`
}

// UpdateAddressRequest defines the shape of the request body for updating an address.
type UpdateAddressRequest struct {
	AddressName *string `json:"addressName,omitempty" validate:"omitempty,min=2,max=255"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PinCode     *string `json:"pinCode,omitempty" validate:"omitempty,min=3,max=12"`
	State       *string `json:"state,omitempty" validate:"omitempty,max=100"`
	IsPrimary   *bool   `json:"isPrimary,omitempty"` // Pointer to handle 'false' as a valid update
}
