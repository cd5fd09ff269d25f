package models

import "time"

// ShipmentEvent records one status change of a shipment.
type ShipmentEvent struct {
	ID         string         `json:"id"`
	ShipmentID string         `json:"shipmentId"`
	Status     ShipmentStatus `json:"status"`
	Note       string         `json:"note"`
	CreatedAt  time.Time      `json:"createdAt"`
}
