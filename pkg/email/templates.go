package email

import (
	"bytes"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"github.com/labstack/gommon/log"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	ShipmentStatusTmpl     *template.Template
	ShipmentStatusTextTmpl *textTemplate.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	statusTmpl, err := template.New("shipmentStatus").Parse(shipmentStatusTemplate)
	if err != nil {
		return nil, err
	}

	statusText, err := textTemplate.New("shipmentStatusText").Parse(shipmentStatusTextTemplate)
	if err != nil {
		return nil, err
	}

	log.Debug("email templates parsed")
	return &TemplateManager{
		ShipmentStatusTmpl:     statusTmpl,
		ShipmentStatusTextTmpl: statusText,
	}, nil
}

// ShipmentStatusData holds the dynamic data for a shipment status email.
type ShipmentStatusData struct {
	CustomerName   string
	OrderNumber    string
	Status         string
	CourierService string
	TrackingNumber string
	TrackingLink   string
	FullAddress    string
}

// Subject returns the subject line for a shipment status email.
func (d ShipmentStatusData) Subject() string {
	return fmt.Sprintf("Your shipment %s is now %s", d.TrackingNumber, d.Status)
}

// GenerateShipmentStatusEmail renders the plain text and HTML bodies.
func (tm *TemplateManager) GenerateShipmentStatusEmail(data ShipmentStatusData) (string, string, error) {
	var text, html bytes.Buffer
	if err := tm.ShipmentStatusTextTmpl.Execute(&text, data); err != nil {
		return "", "", err
	}
	if err := tm.ShipmentStatusTmpl.Execute(&html, data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}

// --- Template Definitions ---

const shipmentStatusTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Shipment Update</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Hello {{.CustomerName}},</h2>
	<p>Your shipment for order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
	<p>Courier: {{.CourierService}}<br>Tracking number: {{.TrackingNumber}}</p>
	{{if .TrackingLink}}<p><a href="{{.TrackingLink}}">Track your shipment</a></p>{{end}}
	<p>Delivery address: {{.FullAddress}}</p>
</body>
</html>
`

const shipmentStatusTextTemplate = `Hello {{.CustomerName}},

Your shipment for order {{.OrderNumber}} is now {{.Status}}.
Courier: {{.CourierService}}
Tracking number: {{.TrackingNumber}}
{{if .TrackingLink}}Track it at: {{.TrackingLink}}
{{end}}Delivery address: {{.FullAddress}}
`
