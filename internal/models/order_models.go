package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ParseOrderStatus returns ErrInvalidInput for anything outside the closed set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
	}
	return st, nil
}

type Dimensions struct {
	Length float64 `json:"length" form:"length" validate:"required,min=0.1"`
	Width  float64 `json:"width" form:"width" validate:"required,min=0.1"`
	Height float64 `json:"height" form:"height" validate:"required,min=0.1"`
}

// Order represents a purchase/shipment request for a customer.
type Order struct {
	ID                  string      `json:"id"`
	CustomerID          string      `json:"customerId"`
	UserID              string      `json:"userId"`
	OrderNumber         string      `json:"orderNumber"`
	ProductInformation  string      `json:"productInformation"`
	ProductDescription  string      `json:"productDescription"`
	Quantity            int         `json:"quantity"`
	NumberOfBoxes       int         `json:"numberOfBoxes"`
	OrderDate           string      `json:"orderDate"`
	Weight              float64     `json:"weight"`
	OrderValue          float64     `json:"orderValue"`
	Dimensions          Dimensions  `json:"dimensions"`
	OrderStatus         OrderStatus `json:"orderStatus"`
	SpecialInstructions string      `json:"specialInstructions"`
	ShipmentCount       int         `json:"shipmentCount"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// OrderDetails is an order together with its shipments.
type OrderDetails struct {
	*Order
	Shipments                []Shipment       `json:"shipments"`
	ShipmentStatuses         []ShipmentStatus `json:"shipmentStatuses"`
	DistinctShipmentStatuses []ShipmentStatus `json:"distinctShipmentStatuses"`
}

type CreateOrderRequest struct {
	CustomerID          string     `json:"customerId" validate:"required,uuid"`
	ProductInformation  string     `json:"productInformation" validate:"max=500"`
	ProductDescription  string     `json:"productDescription" validate:"required,max=2000"`
	Quantity            int        `json:"quantity" validate:"required,min=1"`
	NumberOfBoxes       int        `json:"numberOfBoxes" validate:"required,min=1"`
	OrderDate           string     `json:"orderDate" validate:"required,orderdate"`
	Weight              float64    `json:"weight" validate:"required,min=0.1"`
	OrderValue          float64    `json:"orderValue" validate:"min=0"`
	Dimensions          Dimensions `json:"dimensions"`
	SpecialInstructions string     `json:"specialInstructions" validate:"max=2000"`
}

// UpdateOrderRequest is a partial update. Identity fields (id, userId, customerId,
// orderNumber, createdAt) are not part of it and cannot be changed.
type UpdateOrderRequest struct {
	ProductInformation  *string      `json:"productInformation,omitempty" validate:"omitempty,max=500"`
	ProductDescription  *string      `json:"productDescription,omitempty" validate:"omitempty,min=1,max=2000"`
	Quantity            *int         `json:"quantity,omitempty" validate:"omitempty,min=1"`
	NumberOfBoxes       *int         `json:"numberOfBoxes,omitempty" validate:"omitempty,min=1"`
	OrderDate           *string      `json:"orderDate,omitempty" validate:"omitempty,orderdate"`
	Weight              *float64     `json:"weight,omitempty" validate:"omitempty,min=0.1"`
	OrderValue          *float64     `json:"orderValue,omitempty" validate:"omitempty,min=0"`
	Dimensions          *Dimensions  `json:"dimensions,omitempty"`
	OrderStatus         *OrderStatus `json:"orderStatus,omitempty" validate:"omitempty,orderstatus"`
	SpecialInstructions *string      `json:"specialInstructions,omitempty" validate:"omitempty,max=2000"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus OrderStatus `json:"orderStatus" validate:"required,orderstatus"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	ListParams
	CustomerID string
	Status     OrderStatus
}
