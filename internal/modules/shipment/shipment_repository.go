package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/models"

	"github.com/jackc/pgx/v5"
)

// RepositoryInterface defines storage for shipments and their status events.
// Reads and writes of shipments are scoped to the owning user.
type RepositoryInterface interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	WithTx(tx pgx.Tx) RepositoryInterface

	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, userID, shipmentID string) (*models.Shipment, error)
	FindForUpdate(ctx context.Context, userID, shipmentID string) (*models.Shipment, error)
	List(ctx context.Context, userID string, filter models.ShipmentFilter) ([]models.Shipment, int, error)
	ListByOrder(ctx context.Context, userID, orderID string) ([]models.Shipment, error)
	Update(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	Delete(ctx context.Context, userID, shipmentID string) error

	AddEvent(ctx context.Context, shipmentID string, status models.ShipmentStatus, note string) (*models.ShipmentEvent, error)
	ListEvents(ctx context.Context, shipmentID string) ([]models.ShipmentEvent, error)
}

var sortColumns = map[string]string{
	"":               "created_at",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"status":         "status",
	"courierService": "courier_service",
	"shippingCost":   "shipping_cost",
	"numberOfBoxes":  "number_of_boxes",
	"trackingNumber": "tracking_number",
}

// SortColumn resolves sortBy against the allow-list.
func SortColumn(sortBy string) (string, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		return "", fmt.Errorf("%w: cannot sort shipments by %q", models.ErrInvalidInput, sortBy)
	}
	return column, nil
}

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) RepositoryInterface {
	return &Repository{db: conn}
}

func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *Repository) WithTx(tx pgx.Tx) RepositoryInterface {
	return &Repository{db: tx}
}

const shipmentColumns = `id, order_id, customer_id, user_id, shipping_address_id, shipping_address_details,
	courier_service, shipping_cost, number_of_boxes, tracking_number, tracking_link, images, videos,
	dispatch_person_name, receiver_name, notes, status, dispatched_at, delivered_at, created_at, updated_at`

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var s models.Shipment
	err := row.Scan(
		&s.ID,
		&s.OrderID,
		&s.CustomerID,
		&s.UserID,
		&s.ShippingAddressID,
		&s.ShippingAddressDetails,
		&s.CourierService,
		&s.ShippingCost,
		&s.NumberOfBoxes,
		&s.TrackingNumber,
		&s.TrackingLink,
		&s.Images,
		&s.Videos,
		&s.DispatchPersonName,
		&s.ReceiverName,
		&s.Notes,
		&s.Status,
		&s.DispatchedAt,
		&s.DeliveredAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shipment %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan shipment: %w", err)
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.Videos == nil {
		s.Videos = []string{}
	}
	return &s, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create inserts a shipment. A tracking number that is already in use yields
// ErrTrackingNumberTaken without aborting the surrounding transaction.
func (r *Repository) Create(ctx context.Context, s *models.Shipment) (*models.Shipment, error) {
	query := `
		INSERT INTO shipments (order_id, customer_id, user_id, shipping_address_id, shipping_address_details,
			courier_service, shipping_cost, number_of_boxes, tracking_number, tracking_link, images, videos,
			dispatch_person_name, receiver_name, notes, status, dispatched_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (tracking_number) DO NOTHING
		RETURNING ` + shipmentColumns

	row := r.db.QueryRow(ctx, query,
		s.OrderID, s.CustomerID, s.UserID, s.ShippingAddressID, s.ShippingAddressDetails,
		string(s.CourierService), s.ShippingCost, s.NumberOfBoxes, s.TrackingNumber, s.TrackingLink,
		nonNil(s.Images), nonNil(s.Videos), s.DispatchPersonName, s.ReceiverName, s.Notes,
		string(s.Status), s.DispatchedAt, s.DeliveredAt,
	)
	created, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTrackingNumberTaken
		}
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, userID, shipmentID string) (*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = $1 AND user_id = $2`
	s, err := scanShipment(r.db.QueryRow(ctx, query, shipmentID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return s, nil
}

// FindForUpdate reads the shipment and locks its row until the transaction ends.
func (r *Repository) FindForUpdate(ctx context.Context, userID, shipmentID string) (*models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE id = $1 AND user_id = $2 FOR UPDATE`
	s, err := scanShipment(r.db.QueryRow(ctx, query, shipmentID, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindForUpdate: %w", err)
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, userID string, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	column, err := SortColumn(filter.SortBy)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List: %w", err)
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	where := []string{"user_id = $1"}
	args := []interface{}{userID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CourierService != "" {
		args = append(args, string(filter.CourierService))
		where = append(where, fmt.Sprintf("courier_service = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+db.EscapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf(`(tracking_number ILIKE $%[1]d OR courier_service ILIKE $%[1]d
			OR receiver_name ILIKE $%[1]d OR dispatch_person_name ILIKE $%[1]d OR status ILIKE $%[1]d
			OR shipping_address_details->>'fullAddress' ILIKE $%[1]d)`, len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM shipments WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM shipments WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		shipmentColumns, whereSQL, column, direction, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	shipments, err := collect(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List: %w", err)
	}
	return shipments, total, nil
}

// ListByOrder returns every shipment of an order in creation order.
func (r *Repository) ListByOrder(ctx context.Context, userID, orderID string) ([]models.Shipment, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE order_id = $1 AND user_id = $2 ORDER BY created_at, seq`
	rows, err := r.db.Query(ctx, query, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByOrder: %w", err)
	}
	shipments, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByOrder: %w", err)
	}
	return shipments, nil
}

func collect(rows pgx.Rows) ([]models.Shipment, error) {
	defer rows.Close()
	shipments := []models.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, *s)
	}
	return shipments, rows.Err()
}

// Update writes every mutable column of s. Identity columns are never touched.
func (r *Repository) Update(ctx context.Context, s *models.Shipment) (*models.Shipment, error) {
	query := `
		UPDATE shipments SET
			shipping_address_id = $1, shipping_address_details = $2, courier_service = $3,
			shipping_cost = $4, number_of_boxes = $5, tracking_link = $6, images = $7, videos = $8,
			dispatch_person_name = $9, receiver_name = $10, notes = $11, status = $12,
			dispatched_at = $13, delivered_at = $14, updated_at = NOW()
		WHERE id = $15 AND user_id = $16
		RETURNING ` + shipmentColumns

	updated, err := scanShipment(r.db.QueryRow(ctx, query,
		s.ShippingAddressID, s.ShippingAddressDetails, string(s.CourierService),
		s.ShippingCost, s.NumberOfBoxes, s.TrackingLink, nonNil(s.Images), nonNil(s.Videos),
		s.DispatchPersonName, s.ReceiverName, s.Notes, string(s.Status),
		s.DispatchedAt, s.DeliveredAt, s.ID, s.UserID,
	))
	if err != nil {
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, userID, shipmentID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM shipments WHERE id = $1 AND user_id = $2`, shipmentID, userID)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("shipment %w", models.ErrNotFound)
	}
	return nil
}

func (r *Repository) AddEvent(ctx context.Context, shipmentID string, status models.ShipmentStatus, note string) (*models.ShipmentEvent, error) {
	query := `
		INSERT INTO shipment_events (shipment_id, status, note)
		VALUES ($1, $2, $3)
		RETURNING id, shipment_id, status, note, created_at`

	var e models.ShipmentEvent
	err := r.db.QueryRow(ctx, query, shipmentID, string(status), note).
		Scan(&e.ID, &e.ShipmentID, &e.Status, &e.Note, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository.AddEvent: %w", err)
	}
	return &e, nil
}

// ListEvents returns the status history of a shipment, oldest first.
// Ownership is checked by the caller.
func (r *Repository) ListEvents(ctx context.Context, shipmentID string) ([]models.ShipmentEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, shipment_id, status, note, created_at
		FROM shipment_events WHERE shipment_id = $1
		ORDER BY created_at, seq`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListEvents: %w", err)
	}
	defer rows.Close()

	events := []models.ShipmentEvent{}
	for rows.Next() {
		var e models.ShipmentEvent
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository.ListEvents.Scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListEvents.Rows: %w", err)
	}
	return events, nil
}
