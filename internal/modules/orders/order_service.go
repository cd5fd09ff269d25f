package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"
)

// CustomerReader is the part of the customer store the order service needs.
type CustomerReader interface {
	FindByID(ctx context.Context, userID, customerID string) (*models.Customer, error)
}

// ShipmentReader lists the shipments attached to an order.
type ShipmentReader interface {
	ListByOrder(ctx context.Context, userID, orderID string) ([]models.Shipment, error)
}

// ServiceInterface defines the contract for the order service.
type ServiceInterface interface {
	CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, userID string, filter models.OrderFilter) ([]models.Order, int, error)
	ListCustomerOrders(ctx context.Context, userID, customerID string, params models.ListParams) ([]models.Order, int, error)
	GetOrderDetails(ctx context.Context, userID, orderID string) (*models.OrderDetails, error)
	UpdateOrder(ctx context.Context, userID, orderID string, req models.UpdateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, userID, orderID string, status models.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, userID, orderID string) error
}

// Service implements the order service logic.
type Service struct {
	repo      RepositoryInterface
	customers CustomerReader
	shipments ShipmentReader
	now       func() time.Time
}

// NewService creates a new order service.
func NewService(repo RepositoryInterface, customers CustomerReader, shipments ShipmentReader) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		shipments: shipments,
		now:       time.Now,
	}
}

// CreateOrder creates a pending order for a customer of the user.
func (s *Service) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	if _, err := s.customers.FindByID(ctx, userID, req.CustomerID); err != nil {
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	order := &models.Order{
		CustomerID:          req.CustomerID,
		UserID:              userID,
		OrderNumber:         utils.GenerateOrderNumber(s.now()),
		ProductInformation:  strings.TrimSpace(req.ProductInformation),
		ProductDescription:  strings.TrimSpace(req.ProductDescription),
		Quantity:            req.Quantity,
		NumberOfBoxes:       req.NumberOfBoxes,
		OrderDate:           req.OrderDate,
		Weight:              req.Weight,
		OrderValue:          req.OrderValue,
		Dimensions:          req.Dimensions,
		OrderStatus:         models.OrderStatusPending,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}
	return created, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string, filter models.OrderFilter) ([]models.Order, int, error) {
	if _, err := SortColumn(filter.SortBy); err != nil {
		return nil, 0, fmt.Errorf("service.ListOrders: %w", err)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("service.ListOrders: %w: unknown order status %q", models.ErrInvalidInput, filter.Status)
	}

	orders, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListOrders: %w", err)
	}
	return orders, total, nil
}

// ListCustomerOrders lists the orders of one customer. An unknown customer is
// reported as not found rather than as an empty list.
func (s *Service) ListCustomerOrders(ctx context.Context, userID, customerID string, params models.ListParams) ([]models.Order, int, error) {
	if _, err := s.customers.FindByID(ctx, userID, customerID); err != nil {
		return nil, 0, fmt.Errorf("service.ListCustomerOrders: %w", err)
	}
	return s.ListOrders(ctx, userID, models.OrderFilter{ListParams: params, CustomerID: customerID})
}

// GetOrderDetails returns the order with all of its shipments, oldest first.
func (s *Service) GetOrderDetails(ctx context.Context, userID, orderID string) (*models.OrderDetails, error) {
	order, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrderDetails: %w", err)
	}

	shipments, err := s.shipments.ListByOrder(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrderDetails: %w", err)
	}

	statuses := make([]models.ShipmentStatus, 0, len(shipments))
	distinct := []models.ShipmentStatus{}
	seen := make(map[models.ShipmentStatus]bool)
	for _, sh := range shipments {
		statuses = append(statuses, sh.Status)
		if !seen[sh.Status] {
			seen[sh.Status] = true
			distinct = append(distinct, sh.Status)
		}
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	order.ShipmentCount = len(shipments)

	return &models.OrderDetails{
		Order:                    order,
		Shipments:                shipments,
		ShipmentStatuses:         statuses,
		DistinctShipmentStatuses: distinct,
	}, nil
}

func (s *Service) UpdateOrder(ctx context.Context, userID, orderID string, req models.UpdateOrderRequest) (*models.Order, error) {
	if req.OrderStatus != nil && !req.OrderStatus.Valid() {
		return nil, fmt.Errorf("service.UpdateOrder: %w: unknown order status %q", models.ErrInvalidInput, *req.OrderStatus)
	}

	order, err := s.repo.Update(ctx, userID, orderID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateOrder: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus sets the status. Any transition between known statuses is allowed.
func (s *Service) UpdateOrderStatus(ctx context.Context, userID, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("service.UpdateOrderStatus: %w: unknown order status %q", models.ErrInvalidInput, status)
	}

	order, err := s.repo.UpdateStatus(ctx, userID, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateOrderStatus: %w", err)
	}
	return order, nil
}

func (s *Service) DeleteOrder(ctx context.Context, userID, orderID string) error {
	if err := s.repo.Delete(ctx, userID, orderID); err != nil {
		return fmt.Errorf("service.DeleteOrder: %w", err)
	}
	return nil
}
