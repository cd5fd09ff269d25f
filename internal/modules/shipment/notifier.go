package shipment

import (
	"context"
	"fmt"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/email"
)

// StatusNotice carries what a status email needs.
type StatusNotice struct {
	Shipment *models.Shipment
	Customer *models.Customer
	Order    *models.Order
}

// Notifier tells a customer about a shipment status change.
type Notifier interface {
	ShipmentStatusChanged(ctx context.Context, n StatusNotice) error
}

// notifyOn lists the statuses that trigger a customer email.
var notifyOn = map[models.ShipmentStatus]bool{
	models.ShipmentStatusDispatched: true,
	models.ShipmentStatusDelivered:  true,
}

// EmailNotifier renders the shipment status templates and sends them through an email sender.
type EmailNotifier struct {
	sender    email.ServiceInterface
	templates *email.TemplateManager
}

func NewEmailNotifier(sender email.ServiceInterface, templates *email.TemplateManager) *EmailNotifier {
	return &EmailNotifier{sender: sender, templates: templates}
}

func (n *EmailNotifier) ShipmentStatusChanged(ctx context.Context, notice StatusNotice) error {
	if notice.Customer == nil || notice.Customer.Email == "" {
		return nil
	}
	data := email.ShipmentStatusData{
		CustomerName:   notice.Customer.Name,
		Status:         string(notice.Shipment.Status),
		CourierService: string(notice.Shipment.CourierService),
		TrackingNumber: notice.Shipment.TrackingNumber,
		TrackingLink:   notice.Shipment.TrackingLink,
		FullAddress:    notice.Shipment.ShippingAddressDetails.FullAddress,
	}
	if notice.Order != nil {
		data.OrderNumber = notice.Order.OrderNumber
	}

	text, html, err := n.templates.GenerateShipmentStatusEmail(data)
	if err != nil {
		return fmt.Errorf("notifier.ShipmentStatusChanged: %w", err)
	}
	if err := n.sender.SendEmail(ctx, notice.Customer.Email, data.Subject(), text, html); err != nil {
		return fmt.Errorf("notifier.ShipmentStatusChanged: %w", err)
	}
	return nil
}
