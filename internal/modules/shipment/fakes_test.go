package shipment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"logistics-backoffice/internal/models"

	"github.com/jackc/pgx/v5"
)

// memStore is the committed state shared by every memRepo view.
type memStore struct {
	mu        sync.Mutex
	seq       int
	shipments map[string]*models.Shipment
	events    []models.ShipmentEvent
	// collide makes the next n inserts fail as tracking number collisions.
	collide int
}

func newMemStore() *memStore {
	return &memStore{shipments: map[string]*models.Shipment{}}
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shipments)
}

func (m *memStore) eventsFor(id string) []models.ShipmentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ShipmentEvent
	for _, e := range m.events {
		if e.ShipmentID == id {
			out = append(out, e)
		}
	}
	return out
}

// fakeTx stages writes until Commit.
type fakeTx struct {
	pgx.Tx
	store     *memStore
	shipments map[string]*models.Shipment
	events    []models.ShipmentEvent
	done      bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, s := range t.shipments {
		t.store.shipments[id] = s
	}
	t.store.events = append(t.store.events, t.events...)
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.done = true
	return nil
}

type memRepo struct {
	store *memStore
	tx    *fakeTx
}

func newMemRepo(store *memStore) *memRepo { return &memRepo{store: store} }

func (r *memRepo) BeginTx(context.Context) (pgx.Tx, error) {
	return &fakeTx{store: r.store, shipments: map[string]*models.Shipment{}}, nil
}

func (r *memRepo) WithTx(tx pgx.Tx) RepositoryInterface {
	return &memRepo{store: r.store, tx: tx.(*fakeTx)}
}

// lookup finds a shipment in the transaction first, then in the store. Caller holds the lock.
func (r *memRepo) lookup(id string) (*models.Shipment, bool) {
	if r.tx != nil {
		if s, ok := r.tx.shipments[id]; ok {
			return s, true
		}
	}
	s, ok := r.store.shipments[id]
	return s, ok
}

func (r *memRepo) trackingTaken(tn string) bool {
	for _, s := range r.store.shipments {
		if s.TrackingNumber == tn {
			return true
		}
	}
	if r.tx != nil {
		for _, s := range r.tx.shipments {
			if s.TrackingNumber == tn {
				return true
			}
		}
	}
	return false
}

func (r *memRepo) write(s *models.Shipment) {
	if r.tx != nil {
		r.tx.shipments[s.ID] = s
		return
	}
	r.store.shipments[s.ID] = s
}

func clone(s *models.Shipment) *models.Shipment {
	cp := *s
	cp.Images = append([]string{}, s.Images...)
	cp.Videos = append([]string{}, s.Videos...)
	return &cp
}

func (r *memRepo) Create(_ context.Context, s *models.Shipment) (*models.Shipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.collide > 0 {
		r.store.collide--
		return nil, models.ErrTrackingNumberTaken
	}
	if r.trackingTaken(s.TrackingNumber) {
		return nil, models.ErrTrackingNumberTaken
	}
	r.store.seq++
	cp := clone(s)
	cp.ID = fmt.Sprintf("5e000000-0000-0000-0000-%012d", r.store.seq)
	cp.CreatedAt = time.Unix(int64(r.store.seq), 0)
	cp.UpdatedAt = cp.CreatedAt
	r.write(cp)
	return clone(cp), nil
}

func (r *memRepo) FindByID(_ context.Context, userID, shipmentID string) (*models.Shipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.lookup(shipmentID)
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("shipment %w", models.ErrNotFound)
	}
	return clone(s), nil
}

func (r *memRepo) FindForUpdate(ctx context.Context, userID, shipmentID string) (*models.Shipment, error) {
	return r.FindByID(ctx, userID, shipmentID)
}

func (r *memRepo) List(_ context.Context, userID string, filter models.ShipmentFilter) ([]models.Shipment, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Shipment{}
	for _, s := range r.store.shipments {
		if s.UserID != userID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.CourierService != "" && s.CourierService != filter.CourierService {
			continue
		}
		out = append(out, *clone(s))
	}
	return out, len(out), nil
}

func (r *memRepo) ListByOrder(_ context.Context, userID, orderID string) ([]models.Shipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Shipment{}
	for _, s := range r.store.shipments {
		if s.UserID == userID && s.OrderID == orderID {
			out = append(out, *clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, s *models.Shipment) (*models.Shipment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.lookup(s.ID)
	if !ok || existing.UserID != s.UserID {
		return nil, fmt.Errorf("shipment %w", models.ErrNotFound)
	}
	cp := clone(s)
	cp.OrderID, cp.CustomerID, cp.TrackingNumber, cp.CreatedAt = existing.OrderID, existing.CustomerID, existing.TrackingNumber, existing.CreatedAt
	cp.UpdatedAt = existing.UpdatedAt.Add(time.Second)
	r.write(cp)
	return clone(cp), nil
}

func (r *memRepo) Delete(_ context.Context, userID, shipmentID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.shipments[shipmentID]
	if !ok || s.UserID != userID {
		return fmt.Errorf("shipment %w", models.ErrNotFound)
	}
	delete(r.store.shipments, shipmentID)
	return nil
}

func (r *memRepo) AddEvent(_ context.Context, shipmentID string, status models.ShipmentStatus, note string) (*models.ShipmentEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.seq++
	e := models.ShipmentEvent{
		ID:         fmt.Sprintf("e0000000-0000-0000-0000-%012d", r.store.seq),
		ShipmentID: shipmentID,
		Status:     status,
		Note:       note,
		CreatedAt:  time.Unix(int64(r.store.seq), 0),
	}
	if r.tx != nil {
		r.tx.events = append(r.tx.events, e)
	} else {
		r.store.events = append(r.store.events, e)
	}
	return &e, nil
}

func (r *memRepo) ListEvents(_ context.Context, shipmentID string) ([]models.ShipmentEvent, error) {
	out := r.store.eventsFor(shipmentID)
	if out == nil {
		out = []models.ShipmentEvent{}
	}
	return out, nil
}

type fakeOrders map[string]*models.Order

func (f fakeOrders) FindByID(_ context.Context, userID, orderID string) (*models.Order, error) {
	o, ok := f[orderID]
	if !ok || o.UserID != userID {
		return nil, fmt.Errorf("order %w", models.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

type fakeCustomers struct {
	customers map[string]*models.Customer
	addresses map[string]*models.CustomerAddress
}

func (f *fakeCustomers) FindByID(_ context.Context, userID, customerID string) (*models.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("customer %w", models.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) FindAddress(_ context.Context, userID, customerID, addressID string) (*models.CustomerAddress, error) {
	c, ok := f.customers[customerID]
	a, found := f.addresses[addressID]
	if !ok || c.UserID != userID || !found || a.CustomerID != customerID {
		return nil, fmt.Errorf("address %w", models.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []StatusNotice
	err     error
}

func (n *recordingNotifier) ShipmentStatusChanged(_ context.Context, notice StatusNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

const (
	userA       = "aaaaaaaa-0000-0000-0000-000000000001"
	userB       = "bbbbbbbb-0000-0000-0000-000000000002"
	customerA   = "c0000000-0000-0000-0000-00000000000a"
	customerA2  = "c0000000-0000-0000-0000-0000000000a2"
	orderA      = "0a000000-0000-0000-0000-00000000000a"
	addressA1   = "ad000000-0000-0000-0000-0000000000a1"
	addressA2   = "ad000000-0000-0000-0000-0000000000a2"
	addressForA = "ad000000-0000-0000-0000-0000000000f2" // belongs to customerA2
)

type fixture struct {
	svc      *Service
	store    *memStore
	notifier *recordingNotifier
}

func newFixture() *fixture {
	store := newMemStore()
	customers := &fakeCustomers{
		customers: map[string]*models.Customer{
			customerA:  {ID: customerA, UserID: userA, Name: "Asha Rao", Email: "asha@example.com"},
			customerA2: {ID: customerA2, UserID: userA, Name: "Ravi", Email: "ravi@example.com"},
		},
		addresses: map[string]*models.CustomerAddress{
			addressA1:   {ID: addressA1, CustomerID: customerA, AddressName: "12 MG Road", City: "Pune", State: "Maharashtra", PinCode: "411001"},
			addressA2:   {ID: addressA2, CustomerID: customerA, AddressName: "4 FC Road", City: "Pune", State: "Maharashtra", PinCode: "411004"},
			addressForA: {ID: addressForA, CustomerID: customerA2, AddressName: "Elsewhere", City: "Mumbai", State: "Maharashtra", PinCode: "400001"},
		},
	}
	orders := fakeOrders{
		orderA: {ID: orderA, UserID: userA, CustomerID: customerA, OrderNumber: "20250815103045123"},
	}
	notifier := &recordingNotifier{}
	svc := NewService(newMemRepo(store), orders, customers, nil, notifier)
	return &fixture{svc: svc, store: store, notifier: notifier}
}

func fields(addressID string) models.ShipmentFields {
	return models.ShipmentFields{
		ShippingAddress:    addressID,
		CourierService:     models.CourierBlueDart,
		ShippingCost:       150,
		NumberOfBoxes:      2,
		DispatchPersonName: "Kiran",
		ReceiverName:       "Asha",
	}
}

func createReq(addressID string) models.CreateShipmentRequest {
	return models.CreateShipmentRequest{OrderID: orderA, CustomerID: customerA, ShipmentFields: fields(addressID)}
}
