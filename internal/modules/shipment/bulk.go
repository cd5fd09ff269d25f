package shipment

import (
	"context"
	"fmt"

	"logistics-backoffice/internal/models"
)

// BulkError reports the entry that stopped a bulk request. Persisted lists the
// shipments that were saved before it; it is empty in atomic mode.
type BulkError struct {
	Index     int
	Persisted []models.Shipment
	Err       error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("service.CreateBulk: shipment %d: %v", e.Index+1, e.Err)
}

func (e *BulkError) Unwrap() error { return e.Err }

// CreateBulk creates several shipments for one order. Order and customer are
// checked once; each entry's address is checked as it is reached and entries
// are processed in order. The first failing entry stops the batch.
//
// Without atomic, every shipment is committed on its own and earlier ones
// survive a later failure. With atomic, the batch commits all or nothing.
func (s *Service) CreateBulk(ctx context.Context, userID string, req models.BulkShipmentRequest, atomic bool) ([]models.Shipment, error) {
	if len(req.Shipments) == 0 {
		return nil, fmt.Errorf("service.CreateBulk: %w: shipments must not be empty", models.ErrInvalidInput)
	}
	order, customer, err := s.loadContext(ctx, userID, req.OrderID, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateBulk: %w", err)
	}

	if atomic {
		return s.createBulkAtomic(ctx, userID, order, customer, req.Shipments)
	}

	created := make([]models.Shipment, 0, len(req.Shipments))
	for i, fields := range req.Shipments {
		addr, err := s.customers.FindAddress(ctx, userID, customer.ID, fields.ShippingAddress)
		if err != nil {
			return nil, &BulkError{Index: i, Persisted: created, Err: err}
		}
		sh, err := s.createOne(ctx, newShipment(userID, order, addr, fields))
		if err != nil {
			return nil, &BulkError{Index: i, Persisted: created, Err: err}
		}
		created = append(created, *sh)
	}
	return created, nil
}

func (s *Service) createBulkAtomic(ctx context.Context, userID string, order *models.Order, customer *models.Customer, specs []models.ShipmentFields) ([]models.Shipment, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CreateBulk: %w", err)
	}
	defer tx.Rollback(ctx)
	txRepo := s.repo.WithTx(tx)

	created := make([]models.Shipment, 0, len(specs))
	for i, fields := range specs {
		addr, err := s.customers.FindAddress(ctx, userID, customer.ID, fields.ShippingAddress)
		if err != nil {
			return nil, &BulkError{Index: i, Persisted: []models.Shipment{}, Err: err}
		}
		sh, err := s.createWith(ctx, txRepo, newShipment(userID, order, addr, fields))
		if err != nil {
			return nil, &BulkError{Index: i, Persisted: []models.Shipment{}, Err: err}
		}
		created = append(created, *sh)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("service.CreateBulk: %w", err)
	}
	return created, nil
}
