package models

import "time"

type Customer struct {
	ID           string            `json:"id" db:"id"`
	UserID       string            `json:"userId" db:"user_id"`
	Name         string            `json:"name" db:"name"`
	Email        string            `json:"email" db:"email"`
	Phone        string            `json:"phone" db:"phone"`
	PasswordHash string            `json:"-" db:"password_hash"`
	Addresses    []CustomerAddress `json:"addresses,omitempty" db:"-"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time         `json:"updatedAt" db:"updated_at"`
}

type CreateCustomerRequest struct {
	Name      string              `json:"name" validate:"required,min=2,max=100"`
	Email     string              `json:"email" validate:"required,email"`
	Phone     string              `json:"phone" validate:"required,min=7,max=20"`
	Password  string              `json:"password" validate:"omitempty,min=6"`
	Addresses []AddAddressRequest `json:"addresses" validate:"omitempty,dive"`
}

type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}
