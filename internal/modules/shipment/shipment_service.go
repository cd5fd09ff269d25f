package shipment

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"logistics-backoffice/internal/models"
	"logistics-backoffice/pkg/utils"

	"github.com/labstack/gommon/log"
)

// maxTrackingAttempts bounds regeneration of a colliding tracking number.
const maxTrackingAttempts = 3

// OrderReader is the part of the order store the shipment engine needs.
type OrderReader interface {
	FindByID(ctx context.Context, userID, orderID string) (*models.Order, error)
}

// CustomerReader resolves customers and their addresses for the owning user.
type CustomerReader interface {
	FindByID(ctx context.Context, userID, customerID string) (*models.Customer, error)
	FindAddress(ctx context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error)
}

// MediaStore stores uploaded shipment images and videos.
type MediaStore interface {
	Store(ctx context.Context, kind models.MediaKind, fh *multipart.FileHeader) (*models.StoredFile, error)
	Delete(ctx context.Context, kind models.MediaKind, filename string) error
}

// Media holds the files uploaded with a create or update request.
type Media struct {
	Images []*multipart.FileHeader
	Videos []*multipart.FileHeader
}

// ServiceInterface defines the shipment engine.
type ServiceInterface interface {
	CreateShipment(ctx context.Context, userID string, req models.CreateShipmentRequest, media Media) (*models.Shipment, error)
	CreateBulk(ctx context.Context, userID string, req models.BulkShipmentRequest, atomic bool) ([]models.Shipment, error)
	GetShipment(ctx context.Context, userID, shipmentID string) (*models.Shipment, error)
	ListShipments(ctx context.Context, userID string, filter models.ShipmentFilter) ([]models.Shipment, int, error)
	ListOrderShipments(ctx context.Context, userID, orderID string) ([]models.Shipment, error)
	ListEvents(ctx context.Context, userID, shipmentID string) ([]models.ShipmentEvent, error)
	UpdateShipment(ctx context.Context, userID, orderID, shipmentID string, req models.UpdateShipmentRequest, media Media) (*models.Shipment, error)
	DeleteShipment(ctx context.Context, userID, shipmentID string) error
	CourierServices() []models.CourierService
}

type Service struct {
	repo      RepositoryInterface
	orders    OrderReader
	customers CustomerReader
	media     MediaStore
	notifier  Notifier
	now       func() time.Time
}

// NewService wires the shipment engine. notifier may be nil.
func NewService(repo RepositoryInterface, orders OrderReader, customers CustomerReader, media MediaStore, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		customers: customers,
		media:     media,
		notifier:  notifier,
		now:       time.Now,
	}
}

// loadContext checks, in order, that the order and the customer belong to the
// user and that the order was placed for that customer.
func (s *Service) loadContext(ctx context.Context, userID, orderID, customerID string) (*models.Order, *models.Customer, error) {
	order, err := s.orders.FindByID(ctx, userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	customer, err := s.customers.FindByID(ctx, userID, customerID)
	if err != nil {
		return nil, nil, err
	}
	if order.CustomerID != customer.ID {
		return nil, nil, fmt.Errorf("%w: order %s does not belong to customer %s", models.ErrInvalidInput, order.ID, customer.ID)
	}
	return order, customer, nil
}

func newShipment(userID string, order *models.Order, addr *models.CustomerAddress, f models.ShipmentFields) *models.Shipment {
	addressID := addr.ID
	return &models.Shipment{
		OrderID:                order.ID,
		CustomerID:             order.CustomerID,
		UserID:                 userID,
		ShippingAddressID:      &addressID,
		ShippingAddressDetails: addr.Snapshot(),
		CourierService:         f.CourierService,
		ShippingCost:           f.ShippingCost,
		NumberOfBoxes:          f.NumberOfBoxes,
		TrackingNumber:         strings.TrimSpace(f.TrackingNumber),
		TrackingLink:           strings.TrimSpace(f.TrackingLink),
		Images:                 append([]string{}, f.Images...),
		Videos:                 append([]string{}, f.Videos...),
		DispatchPersonName:     strings.TrimSpace(f.DispatchPersonName),
		ReceiverName:           strings.TrimSpace(f.ReceiverName),
		Notes:                  f.Notes,
		Status:                 models.ShipmentStatusPending,
	}
}

// insert saves sh, generating a tracking number when none was supplied.
// Only generated numbers are retried; a supplied duplicate is a conflict.
func (s *Service) insert(ctx context.Context, repo RepositoryInterface, sh *models.Shipment) (*models.Shipment, error) {
	if sh.TrackingNumber != "" {
		return repo.Create(ctx, sh)
	}

	for attempt := 0; attempt < maxTrackingAttempts; attempt++ {
		tn, err := utils.GenerateTrackingNumber(s.now())
		if err != nil {
			return nil, err
		}
		sh.TrackingNumber = tn
		created, err := repo.Create(ctx, sh)
		if errors.Is(err, models.ErrTrackingNumberTaken) {
			continue
		}
		return created, err
	}
	sh.TrackingNumber = ""
	return nil, fmt.Errorf("could not generate a unique tracking number after %d attempts", maxTrackingAttempts)
}

// createWith inserts the shipment and its first status event through repo.
func (s *Service) createWith(ctx context.Context, repo RepositoryInterface, sh *models.Shipment) (*models.Shipment, error) {
	created, err := s.insert(ctx, repo, sh)
	if err != nil {
		return nil, err
	}
	if _, err := repo.AddEvent(ctx, created.ID, created.Status, "Shipment created"); err != nil {
		return nil, err
	}
	return created, nil
}

// createOne runs createWith in its own transaction.
func (s *Service) createOne(ctx context.Context, sh *models.Shipment) (*models.Shipment, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := s.createWith(ctx, s.repo.WithTx(tx), sh)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) CreateShipment(ctx context.Context, userID string, req models.CreateShipmentRequest, media Media) (*models.Shipment, error) {
	order, customer, err := s.loadContext(ctx, userID, req.OrderID, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateShipment: %w", err)
	}
	addr, err := s.customers.FindAddress(ctx, userID, customer.ID, req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("service.CreateShipment: %w", err)
	}

	images, videos, discard, err := s.storeMedia(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("service.CreateShipment: %w", err)
	}

	sh := newShipment(userID, order, addr, req.ShipmentFields)
	sh.Images = append(sh.Images, images...)
	sh.Videos = append(sh.Videos, videos...)

	created, err := s.createOne(ctx, sh)
	if err != nil {
		discard()
		return nil, fmt.Errorf("service.CreateShipment: %w", err)
	}
	return created, nil
}

// UpdateShipment applies a partial update. When orderID is not empty the
// shipment must belong to that order.
func (s *Service) UpdateShipment(ctx context.Context, userID, orderID, shipmentID string, req models.UpdateShipmentRequest, media Media) (*models.Shipment, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("service.UpdateShipment: %w: unknown shipment status %q", models.ErrInvalidInput, *req.Status)
	}
	if req.CourierService != nil && !req.CourierService.Valid() {
		return nil, fmt.Errorf("service.UpdateShipment: %w: unknown courier service %q", models.ErrInvalidInput, *req.CourierService)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateShipment: %w", err)
	}
	defer tx.Rollback(ctx)
	txRepo := s.repo.WithTx(tx)

	sh, err := txRepo.FindForUpdate(ctx, userID, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateShipment: %w", err)
	}
	if orderID != "" && sh.OrderID != orderID {
		return nil, fmt.Errorf("service.UpdateShipment: shipment %w", models.ErrNotFound)
	}

	if req.ShippingAddress != nil {
		addr, err := s.customers.FindAddress(ctx, userID, sh.CustomerID, *req.ShippingAddress)
		if err != nil {
			return nil, fmt.Errorf("service.UpdateShipment: %w", err)
		}
		addressID := addr.ID
		sh.ShippingAddressID = &addressID
		sh.ShippingAddressDetails = addr.Snapshot()
	}
	if req.CourierService != nil {
		sh.CourierService = *req.CourierService
	}
	if req.ShippingCost != nil {
		sh.ShippingCost = *req.ShippingCost
	}
	if req.NumberOfBoxes != nil {
		sh.NumberOfBoxes = *req.NumberOfBoxes
	}
	if req.TrackingLink != nil {
		sh.TrackingLink = strings.TrimSpace(*req.TrackingLink)
	}
	if req.DispatchPersonName != nil {
		sh.DispatchPersonName = strings.TrimSpace(*req.DispatchPersonName)
	}
	if req.ReceiverName != nil {
		sh.ReceiverName = strings.TrimSpace(*req.ReceiverName)
	}
	if req.Notes != nil {
		sh.Notes = *req.Notes
	}

	previous := sh.Status
	changed := false
	if req.Status != nil {
		changed = sh.ApplyStatus(*req.Status, s.now())
	}

	images, videos, discard, err := s.storeMedia(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateShipment: %w", err)
	}
	sh.Images = append(append(sh.Images, req.Images...), images...)
	sh.Videos = append(append(sh.Videos, req.Videos...), videos...)

	updated, err := txRepo.Update(ctx, sh)
	if err != nil {
		discard()
		return nil, fmt.Errorf("service.UpdateShipment: %w", err)
	}
	if changed {
		note := fmt.Sprintf("Status changed from %s to %s", previous, updated.Status)
		if _, err := txRepo.AddEvent(ctx, updated.ID, updated.Status, note); err != nil {
			discard()
			return nil, fmt.Errorf("service.UpdateShipment: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		discard()
		return nil, fmt.Errorf("service.UpdateShipment: %w", err)
	}

	if changed && notifyOn[updated.Status] {
		s.notify(ctx, userID, updated)
	}
	return updated, nil
}

// notify is best effort: failures are logged and never reach the caller.
func (s *Service) notify(ctx context.Context, userID string, sh *models.Shipment) {
	if s.notifier == nil {
		return
	}
	customer, err := s.customers.FindByID(ctx, userID, sh.CustomerID)
	if err != nil {
		log.Warnf("shipment %s: status email skipped: %v", sh.ID, err)
		return
	}
	// The order number is optional in the email.
	order, _ := s.orders.FindByID(ctx, userID, sh.OrderID)
	if err := s.notifier.ShipmentStatusChanged(ctx, StatusNotice{Shipment: sh, Customer: customer, Order: order}); err != nil {
		log.Warnf("shipment %s: status email failed: %v", sh.ID, err)
	}
}

// storeMedia saves uploaded files and returns their paths. discard removes
// them again when the shipment write fails afterwards.
func (s *Service) storeMedia(ctx context.Context, media Media) ([]string, []string, func(), error) {
	type storedRef struct {
		kind models.MediaKind
		name string
	}
	var refs []storedRef
	discard := func() {
		for _, r := range refs {
			if err := s.media.Delete(context.WithoutCancel(ctx), r.kind, r.name); err != nil {
				log.Warnf("discard %s/%s: %v", r.kind, r.name, err)
			}
		}
	}
	if len(media.Images) == 0 && len(media.Videos) == 0 {
		return nil, nil, func() {}, nil
	}
	if s.media == nil {
		return nil, nil, nil, errors.New("media uploads are not configured")
	}

	var images, videos []string
	for _, group := range []struct {
		kind  models.MediaKind
		files []*multipart.FileHeader
		out   *[]string
	}{
		{models.MediaShipmentImage, media.Images, &images},
		{models.MediaShipmentVideo, media.Videos, &videos},
	} {
		for _, fh := range group.files {
			stored, err := s.media.Store(ctx, group.kind, fh)
			if err != nil {
				discard()
				return nil, nil, nil, err
			}
			refs = append(refs, storedRef{group.kind, path.Base(stored.Path)})
			*group.out = append(*group.out, stored.Path)
		}
	}
	return images, videos, discard, nil
}

func (s *Service) GetShipment(ctx context.Context, userID, shipmentID string) (*models.Shipment, error) {
	sh, err := s.repo.FindByID(ctx, userID, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("service.GetShipment: %w", err)
	}
	return sh, nil
}

func (s *Service) ListShipments(ctx context.Context, userID string, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	if _, err := SortColumn(filter.SortBy); err != nil {
		return nil, 0, fmt.Errorf("service.ListShipments: %w", err)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("service.ListShipments: %w: unknown shipment status %q", models.ErrInvalidInput, filter.Status)
	}
	if filter.CourierService != "" && !filter.CourierService.Valid() {
		return nil, 0, fmt.Errorf("service.ListShipments: %w: unknown courier service %q", models.ErrInvalidInput, filter.CourierService)
	}

	shipments, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListShipments: %w", err)
	}
	return shipments, total, nil
}

// ListOrderShipments lists the shipments of an order; an unknown order is not found.
func (s *Service) ListOrderShipments(ctx context.Context, userID, orderID string) ([]models.Shipment, error) {
	if _, err := s.orders.FindByID(ctx, userID, orderID); err != nil {
		return nil, fmt.Errorf("service.ListOrderShipments: %w", err)
	}
	shipments, err := s.repo.ListByOrder(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.ListOrderShipments: %w", err)
	}
	return shipments, nil
}

func (s *Service) ListEvents(ctx context.Context, userID, shipmentID string) ([]models.ShipmentEvent, error) {
	if _, err := s.repo.FindByID(ctx, userID, shipmentID); err != nil {
		return nil, fmt.Errorf("service.ListEvents: %w", err)
	}
	events, err := s.repo.ListEvents(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("service.ListEvents: %w", err)
	}
	return events, nil
}

func (s *Service) DeleteShipment(ctx context.Context, userID, shipmentID string) error {
	if err := s.repo.Delete(ctx, userID, shipmentID); err != nil {
		return fmt.Errorf("service.DeleteShipment: %w", err)
	}
	return nil
}

func (s *Service) CourierServices() []models.CourierService {
	return append([]models.CourierService(nil), models.CourierServices...)
}
