package shipment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"logistics-backoffice/internal/models"
)

var trackingRe = regexp.MustCompile(`^TRK\d{6}[A-Z0-9]{6}$`)

func statusPtr(s models.ShipmentStatus) *models.ShipmentStatus { return &s }

func TestCreateShipment_GeneratesTrackingAndSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
		if err != nil {
			t.Fatalf("CreateShipment: %v", err)
		}
		if !trackingRe.MatchString(sh.TrackingNumber) {
			t.Fatalf("tracking number %q has the wrong format", sh.TrackingNumber)
		}
		if seen[sh.TrackingNumber] {
			t.Fatalf("duplicate tracking number %q", sh.TrackingNumber)
		}
		seen[sh.TrackingNumber] = true

		if sh.Status != models.ShipmentStatusPending {
			t.Fatalf("expected Pending, got %q", sh.Status)
		}
		if want := "12 MG Road, Pune, Maharashtra - 411001"; sh.ShippingAddressDetails.FullAddress != want {
			t.Fatalf("snapshot full address = %q, want %q", sh.ShippingAddressDetails.FullAddress, want)
		}
		if sh.CustomerID != customerA || sh.OrderID != orderA {
			t.Fatalf("shipment not linked to order and customer: %+v", sh)
		}
		if events := f.store.eventsFor(sh.ID); len(events) != 1 || events[0].Status != models.ShipmentStatusPending {
			t.Fatalf("expected one creation event, got %+v", events)
		}
	}
	if f.store.count() != 5 {
		t.Fatalf("expected 5 shipments, got %d", f.store.count())
	}
}

func TestCreateShipment_SuppliedDuplicateTrackingConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := createReq(addressA1)
	req.TrackingNumber = "AWB-1001"
	if _, err := f.svc.CreateShipment(ctx, userA, req, Media{}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.CreateShipment(ctx, userA, req, Media{})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if f.store.count() != 1 {
		t.Fatalf("expected 1 shipment after conflict, got %d", f.store.count())
	}
}

func TestCreateShipment_RetriesGeneratedTrackingNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.store.collide = maxTrackingAttempts - 1
	if _, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{}); err != nil {
		t.Fatalf("expected success on the last attempt, got %v", err)
	}

	f.store.collide = maxTrackingAttempts
	_, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if errors.Is(err, models.ErrConflict) {
		t.Fatalf("exhausted generation must not look like a client conflict: %v", err)
	}
}

func TestCreateShipment_OwnershipChecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		mutate func(*models.CreateShipmentRequest)
		want   error
	}{
		{"address of another customer", userA, func(r *models.CreateShipmentRequest) { r.ShippingAddress = addressForA }, models.ErrNotFound},
		{"order of another user", userB, func(*models.CreateShipmentRequest) {}, models.ErrNotFound},
		{"unknown customer", userA, func(r *models.CreateShipmentRequest) { r.CustomerID = "c0000000-0000-0000-0000-0000000000ff" }, models.ErrNotFound},
		{"order placed for a different customer", userA, func(r *models.CreateShipmentRequest) { r.CustomerID = customerA2 }, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createReq(addressA1)
			tt.mutate(&req)
			_, err := f.svc.CreateShipment(ctx, tt.userID, req, Media{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if f.store.count() != 0 {
		t.Fatalf("nothing should be persisted, got %d", f.store.count())
	}
}

func TestUpdateShipment_StatusTimestampsAndEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	clock := time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }

	sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}

	sh, err = f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDispatched)}, Media{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sh.DispatchedAt == nil || !sh.DispatchedAt.Equal(clock) {
		t.Fatalf("dispatchedAt = %v, want %v", sh.DispatchedAt, clock)
	}

	clock = clock.Add(2 * time.Hour)
	sh, err = f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDelivered)}, Media{})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	delivered := *sh.DeliveredAt

	clock = clock.Add(time.Hour)
	sh, err = f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDelivered)}, Media{})
	if err != nil {
		t.Fatalf("deliver again: %v", err)
	}
	if !sh.DeliveredAt.Equal(delivered) {
		t.Fatalf("deliveredAt moved from %v to %v", delivered, *sh.DeliveredAt)
	}
	if sh.DispatchedAt == nil || sh.DispatchedAt.After(*sh.DeliveredAt) {
		t.Fatalf("dispatchedAt %v should not be after deliveredAt %v", sh.DispatchedAt, sh.DeliveredAt)
	}

	events := f.store.eventsFor(sh.ID)
	if len(events) != 3 {
		t.Fatalf("expected created, dispatched and delivered events, got %d: %+v", len(events), events)
	}
	if events[2].Note != "Status changed from Dispatched to Delivered" {
		t.Fatalf("unexpected last event note %q", events[2].Note)
	}

	if len(f.notifier.notices) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(f.notifier.notices))
	}
	first := f.notifier.notices[0]
	if first.Shipment.Status != models.ShipmentStatusDispatched || first.Customer.Email != "asha@example.com" || first.Order.OrderNumber != "20250815103045123" {
		t.Fatalf("unexpected notice %+v", first)
	}
}

func TestUpdateShipment_NotifierFailureIsIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.notifier.err = errors.New("ses unavailable")

	sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if _, err := f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDispatched)}, Media{}); err != nil {
		t.Fatalf("notification failure leaked into update: %v", err)
	}
}

func TestUpdateShipment_NoNotificationForOtherStatuses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if _, err := f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusInTransit)}, Media{}); err != nil {
		t.Fatalf("UpdateShipment: %v", err)
	}
	if len(f.notifier.notices) != 0 {
		t.Fatalf("expected no notification for In Transit, got %d", len(f.notifier.notices))
	}
}

func TestUpdateShipment_ReaddressTakesNewSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	newAddr := addressA2
	notes := "leave at gate"
	sh, err = f.svc.UpdateShipment(ctx, userA, orderA, sh.ID, models.UpdateShipmentRequest{ShippingAddress: &newAddr, Notes: &notes, Images: []string{"uploads/images/a.png"}}, Media{})
	if err != nil {
		t.Fatalf("UpdateShipment: %v", err)
	}
	if sh.ShippingAddressDetails.PinCode != "411004" || *sh.ShippingAddressID != addressA2 {
		t.Fatalf("snapshot not refreshed: %+v", sh.ShippingAddressDetails)
	}
	if sh.Notes != notes || len(sh.Images) != 1 {
		t.Fatalf("partial fields not applied: %+v", sh)
	}
	if sh.Status != models.ShipmentStatusPending {
		t.Fatalf("status changed without being requested: %q", sh.Status)
	}
	if events := f.store.eventsFor(sh.ID); len(events) != 1 {
		t.Fatalf("a non-status update must not add events, got %d", len(events))
	}

	foreign := addressForA
	if _, err := f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{ShippingAddress: &foreign}, Media{}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another customer's address, got %v", err)
	}
}

func TestUpdateShipment_OrderScope(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sh, err := f.svc.CreateShipment(ctx, userA, createReq(addressA1), Media{})
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	otherOrder := "0a000000-0000-0000-0000-0000000000ff"
	_, err = f.svc.UpdateShipment(ctx, userA, otherOrder, sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDispatched)}, Media{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a shipment outside the order, got %v", err)
	}
	_, err = f.svc.UpdateShipment(ctx, userB, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr(models.ShipmentStatusDispatched)}, Media{})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	_, err = f.svc.UpdateShipment(ctx, userA, "", sh.ID, models.UpdateShipmentRequest{Status: statusPtr("Lost")}, Media{})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an unknown status, got %v", err)
	}
}

func bulkReq(addresses ...string) models.BulkShipmentRequest {
	req := models.BulkShipmentRequest{OrderID: orderA, CustomerID: customerA}
	for _, a := range addresses {
		req.Shipments = append(req.Shipments, fields(a))
	}
	return req
}

func TestCreateBulk_StopsAtFirstFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateBulk(ctx, userA, bulkReq(addressA1, addressForA, addressA2), false)
	var bulkErr *BulkError
	if !errors.As(err, &bulkErr) {
		t.Fatalf("expected BulkError, got %v", err)
	}
	if bulkErr.Index != 1 {
		t.Fatalf("failed index = %d, want 1", bulkErr.Index)
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected the address lookup error to be wrapped, got %v", err)
	}
	if len(bulkErr.Persisted) != 1 {
		t.Fatalf("expected 1 persisted shipment, got %d", len(bulkErr.Persisted))
	}
	if f.store.count() != 1 {
		t.Fatalf("expected exactly 1 stored shipment, got %d", f.store.count())
	}
}

func TestCreateBulk_Atomic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateBulk(ctx, userA, bulkReq(addressA1, addressForA, addressA2), true)
	var bulkErr *BulkError
	if !errors.As(err, &bulkErr) || bulkErr.Index != 1 || len(bulkErr.Persisted) != 0 {
		t.Fatalf("expected BulkError at index 1 with nothing persisted, got %v", err)
	}
	if f.store.count() != 0 {
		t.Fatalf("atomic batch left %d shipments behind", f.store.count())
	}

	created, err := f.svc.CreateBulk(ctx, userA, bulkReq(addressA1, addressA2), true)
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if len(created) != 2 || f.store.count() != 2 {
		t.Fatalf("expected 2 shipments, got %d returned and %d stored", len(created), f.store.count())
	}
	if created[0].TrackingNumber == created[1].TrackingNumber {
		t.Fatalf("bulk shipments share tracking number %q", created[0].TrackingNumber)
	}
}

func TestCreateBulk_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateBulk(ctx, userA, bulkReq(), false); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty batch, got %v", err)
	}
	if _, err := f.svc.CreateBulk(ctx, userB, bulkReq(addressA1), false); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's order, got %v", err)
	}
	var bulkErr *BulkError
	if _, err := f.svc.CreateBulk(ctx, userB, bulkReq(addressA1), false); errors.As(err, &bulkErr) {
		t.Fatal("order lookup failures are not per-entry errors")
	}
}

func TestListOrderShipmentsAndEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateBulk(ctx, userA, bulkReq(addressA1, addressA2), false); err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	shipments, err := f.svc.ListOrderShipments(ctx, userA, orderA)
	if err != nil {
		t.Fatalf("ListOrderShipments: %v", err)
	}
	if len(shipments) != 2 || !shipments[0].CreatedAt.Before(shipments[1].CreatedAt) {
		t.Fatalf("expected 2 shipments in creation order, got %+v", shipments)
	}
	if _, err := f.svc.ListOrderShipments(ctx, userB, orderA); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}

	events, err := f.svc.ListEvents(ctx, userA, shipments[0].ID)
	if err != nil || len(events) != 1 {
		t.Fatalf("ListEvents = %d, %v", len(events), err)
	}
	if _, err := f.svc.ListEvents(ctx, userB, shipments[0].ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's events, got %v", err)
	}
}

func TestListShipments_RejectsUnknownSort(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.ListShipments(context.Background(), userA, models.ShipmentFilter{ListParams: models.ListParams{Page: 1, Limit: 10, SortBy: "bogusField"}})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyStatus(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sh := &models.Shipment{Status: models.ShipmentStatusPending}

	if !sh.ApplyStatus(models.ShipmentStatusDelivered, now) {
		t.Fatal("Pending to Delivered should report a change")
	}
	if sh.DeliveredAt == nil || sh.DispatchedAt != nil {
		t.Fatalf("unexpected timestamps: dispatched=%v delivered=%v", sh.DispatchedAt, sh.DeliveredAt)
	}
	if sh.ApplyStatus(models.ShipmentStatusDelivered, now.Add(time.Hour)) {
		t.Fatal("Delivered to Delivered should not report a change")
	}
	if !sh.DeliveredAt.Equal(now) {
		t.Fatalf("deliveredAt overwritten: %v", sh.DeliveredAt)
	}
}
