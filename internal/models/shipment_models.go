package models

import (
	"fmt"
	"time"
)

type ShipmentStatus string

const (
	ShipmentStatusPending    ShipmentStatus = "Pending"
	ShipmentStatusDispatched ShipmentStatus = "Dispatched"
	ShipmentStatusInTransit  ShipmentStatus = "In Transit"
	ShipmentStatusDelivered  ShipmentStatus = "Delivered"
	ShipmentStatusCancelled  ShipmentStatus = "Cancelled"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusPending, ShipmentStatusDispatched, ShipmentStatusInTransit, ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

func ParseShipmentStatus(s string) (ShipmentStatus, error) {
	st := ShipmentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown shipment status %q", ErrInvalidInput, s)
	}
	return st, nil
}

type CourierService string

const (
	CourierFedEx     CourierService = "FedEx"
	CourierDHL       CourierService = "DHL"
	CourierUPS       CourierService = "UPS"
	CourierBlueDart  CourierService = "Blue Dart"
	CourierDelhivery CourierService = "Delhivery"
	CourierIndiaPost CourierService = "India Post"
	CourierOther     CourierService = "Other"
)

// CourierServices lists every supported courier, in display order.
var CourierServices = []CourierService{
	CourierFedEx,
	CourierDHL,
	CourierUPS,
	CourierBlueDart,
	CourierDelhivery,
	CourierIndiaPost,
	CourierOther,
}

func (c CourierService) Valid() bool {
	switch c {
	case CourierFedEx, CourierDHL, CourierUPS, CourierBlueDart, CourierDelhivery, CourierIndiaPost, CourierOther:
		return true
	}
	return false
}

func ParseCourierService(s string) (CourierService, error) {
	c := CourierService(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown courier service %q", ErrInvalidInput, s)
	}
	return c, nil
}

// AddressSnapshot is the copy of a customer address taken when a shipment is
// created or re-addressed. It survives later edits or deletion of the address.
type AddressSnapshot struct {
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	PinCode     string `json:"pinCode"`
	State       string `json:"state"`
	FullAddress string `json:"fullAddress"`
}

type Shipment struct {
	ID                     string          `json:"id"`
	OrderID                string          `json:"orderId"`
	CustomerID             string          `json:"customerId"`
	UserID                 string          `json:"userId"`
	ShippingAddressID      *string         `json:"shippingAddress"`
	ShippingAddressDetails AddressSnapshot `json:"shippingAddressDetails"`
	CourierService         CourierService  `json:"courierService"`
	ShippingCost           float64         `json:"shippingCost"`
	NumberOfBoxes          int             `json:"numberOfBoxes"`
	TrackingNumber         string          `json:"trackingNumber"`
	TrackingLink           string          `json:"trackingLink"`
	Images                 []string        `json:"images"`
	Videos                 []string        `json:"videos"`
	DispatchPersonName     string          `json:"dispatchPersonName"`
	ReceiverName           string          `json:"receiverName"`
	Notes                  string          `json:"notes"`
	Status                 ShipmentStatus  `json:"status"`
	DispatchedAt           *time.Time      `json:"dispatchedAt"`
	DeliveredAt            *time.Time      `json:"deliveredAt"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// ApplyStatus moves the shipment to status and stamps the lifecycle timestamps.
// A timestamp that is already set is never overwritten.
// It reports whether the status actually changed.
func (s *Shipment) ApplyStatus(status ShipmentStatus, now time.Time) bool {
	changed := s.Status != status
	s.Status = status

	switch status {
	case ShipmentStatusDispatched:
		if s.DispatchedAt == nil {
			s.DispatchedAt = &now
		}
	case ShipmentStatusDelivered:
		if s.DeliveredAt == nil {
			s.DeliveredAt = &now
		}
	case ShipmentStatusPending, ShipmentStatusInTransit, ShipmentStatusCancelled:
	}
	return changed
}

// ShipmentFields are the courier/handling fields shared by single and bulk creation.
type ShipmentFields struct {
	ShippingAddress    string         `json:"shippingAddress" form:"shippingAddress" validate:"required,uuid"`
	CourierService     CourierService `json:"courierService" form:"courierService" validate:"required,courier"`
	ShippingCost       float64        `json:"shippingCost" form:"shippingCost" validate:"min=0"`
	NumberOfBoxes      int            `json:"numberOfBoxes" form:"numberOfBoxes" validate:"required,min=1,max=20"`
	TrackingNumber     string         `json:"trackingNumber" form:"trackingNumber" validate:"omitempty,max=64"`
	TrackingLink       string         `json:"trackingLink" form:"trackingLink" validate:"omitempty,httpurl"`
	DispatchPersonName string         `json:"dispatchPersonName" form:"dispatchPersonName" validate:"required,max=100"`
	ReceiverName       string         `json:"receiverName" form:"receiverName" validate:"required,max=100"`
	Notes              string         `json:"notes" form:"notes" validate:"max=2000"`
	Images             []string       `json:"images" form:"-"`
	Videos             []string       `json:"videos" form:"-"`
}

type CreateShipmentRequest struct {
	OrderID    string `json:"orderId" form:"orderId" validate:"required,uuid"`
	CustomerID string `json:"customerId" form:"customerId" validate:"required,uuid"`
	ShipmentFields
}

// UpdateShipmentRequest is a partial update. Media paths listed here are appended
// to the existing ones.
type UpdateShipmentRequest struct {
	ShippingAddress    *string         `json:"shippingAddress,omitempty" form:"shippingAddress" validate:"omitempty,uuid"`
	CourierService     *CourierService `json:"courierService,omitempty" form:"courierService" validate:"omitempty,courier"`
	ShippingCost       *float64        `json:"shippingCost,omitempty" form:"shippingCost" validate:"omitempty,min=0"`
	NumberOfBoxes      *int            `json:"numberOfBoxes,omitempty" form:"numberOfBoxes" validate:"omitempty,min=1,max=20"`
	TrackingLink       *string         `json:"trackingLink,omitempty" form:"trackingLink" validate:"omitempty,httpurl"`
	DispatchPersonName *string         `json:"dispatchPersonName,omitempty" form:"dispatchPersonName" validate:"omitempty,min=1,max=100"`
	ReceiverName       *string         `json:"receiverName,omitempty" form:"receiverName" validate:"omitempty,min=1,max=100"`
	Notes              *string         `json:"notes,omitempty" form:"notes" validate:"omitempty,max=2000"`
	Status             *ShipmentStatus `json:"status,omitempty" form:"status" validate:"omitempty,shipmentstatus"`
	Images             []string        `json:"images,omitempty" form:"-"`
	Videos             []string        `json:"videos,omitempty" form:"-"`
}

type BulkShipmentRequest struct {
	OrderID    string           `json:"orderId" validate:"required,uuid"`
	CustomerID string           `json:"customerId" validate:"required,uuid"`
	Shipments  []ShipmentFields `json:"shipments" validate:"required,min=1,max=100,dive"`
}

// ShipmentFilter narrows a shipment listing.
type ShipmentFilter struct {
	ListParams
	Status         ShipmentStatus
	CourierService CourierService
}
