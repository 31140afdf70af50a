package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexus-shipping/internal/pkg/httpclient"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/domain/port"
	"nexus-shipping/internal/service/shipping/infrastructure"
	"nexus-shipping/internal/service/shipping/infrastructure/adapter"
	"nexus-shipping/internal/service/shipping/infrastructure/inventory"
	"nexus-shipping/internal/service/shipping/infrastructure/lock"
	"nexus-shipping/internal/service/shipping/infrastructure/policy"
)

type adjustCall struct {
	ItemID int64
	Delta  int
}

// recordingInventory 记录扣减调用，并可让指定商品失败
type recordingInventory struct {
	port.InventoryGateway
	mu    sync.Mutex
	calls []adjustCall
	fail  map[int64]bool
}

func (r *recordingInventory) AdjustInventory(ctx context.Context, itemID int64, delta int) port.Result[domain.InventoryRecord] {
	r.mu.Lock()
	r.calls = append(r.calls, adjustCall{ItemID: itemID, Delta: delta})
	fail := r.fail[itemID]
	r.mu.Unlock()
	if fail {
		return port.Failure(domain.ZeroInventory(itemID), port.ErrUnavailable)
	}
	return r.InventoryGateway.AdjustInventory(ctx, itemID, delta)
}

func (r *recordingInventory) Calls() []adjustCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]adjustCall(nil), r.calls...)
}

type publishedEvent struct {
	Type     domain.ShipmentEventType
	Shipment *domain.Shipment
	Previous domain.Status
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishShipmentCreated(_ context.Context, s *domain.Shipment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: domain.EventShipmentCreated, Shipment: s.Clone()})
	return p.err
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, s *domain.Shipment, previous domain.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: domain.EventShipmentStatusChanged, Shipment: s.Clone(), Previous: previous})
	return p.err
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fixture struct {
	now    time.Time
	repo   *infrastructure.MemoryShipmentRepository
	orders *adapter.MockOrderGateway
	store  *inventory.MemoryStore
	inv    *recordingInventory
	events *recordingPublisher
	svc    *ShippingApplicationService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		now:    time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		repo:   infrastructure.NewMemoryShipmentRepository(),
		orders: adapter.NewMockOrderGateway(),
		store:  inventory.NewMemoryStore(),
		events: &recordingPublisher{},
	}
	f.repo.WithClock(func() time.Time { return f.now })
	f.inv = &recordingInventory{InventoryGateway: adapter.NewStoreInventoryGateway(f.store), fail: map[int64]bool{}}

	base := []Option{WithClock(func() time.Time { return f.now }), WithEventPublisher(f.events)}
	f.svc = NewShippingApplicationService(f.repo, f.orders, f.inv, noop.NewTracerProvider().Tracer("test"), append(base, opts...)...)
	return f
}

func (f *fixture) qty(t *testing.T, itemID int64) int {
	t.Helper()
	rec, err := f.store.Get(context.Background(), itemID)
	require.NoError(t, err)
	return rec.AvailableQty
}

func (f *fixture) create(t *testing.T, orderID int64, trackingNo string) *domain.Shipment {
	t.Helper()
	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: orderID, Carrier: "DHL", TrackingNo: trackingNo})
	require.NoError(t, err)
	return resp.Shipment
}

func TestCreateShipmentConfirmedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before1, before2 := f.qty(t, 1), f.qty(t, 2)

	resp, err := f.svc.CreateShipment(ctx, &CreateShipmentRequest{OrderID: 42, Carrier: "DHL", TrackingNo: "TRK-42"})
	require.NoError(t, err)

	s := resp.Shipment
	assert.Equal(t, domain.StatusShipped, s.Status)
	require.NotNil(t, s.ShippedAt)
	assert.Equal(t, f.now, *s.ShippedAt)
	assert.NoError(t, s.CheckInvariants())

	assert.Equal(t, []adjustCall{{ItemID: 1, Delta: 2}, {ItemID: 2, Delta: 1}}, f.inv.Calls())
	assert.Equal(t, before1-2, f.qty(t, 1))
	assert.Equal(t, before2-1, f.qty(t, 2))

	require.Len(t, resp.Adjustments, 2)
	assert.Empty(t, resp.FailedAdjustments())
	assert.Equal(t, []adapter.SyncCall{{OrderID: 42, Status: domain.StatusShipped}}, f.orders.SyncCalls())

	stored, err := f.svc.GetShipment(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventShipmentCreated, events[0].Type)
	assert.Equal(t, domain.StatusShipped, events[0].Shipment.Status)
}

func TestCreateShipmentOrderSyncFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orders.FailSync(42, true)

	resp, err := f.svc.CreateShipment(ctx, &CreateShipmentRequest{OrderID: 42, Carrier: "DHL", TrackingNo: "TRK-42"})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrOrderSyncFailed), "got %v", err)

	_, err = f.svc.GetShipmentByTrackingNo(ctx, "TRK-42")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, f.repo.Len())
	assert.Empty(t, f.inv.Calls())
	assert.Empty(t, f.events.Events())

	// 运单号在回滚后可以重新使用
	f.orders.FailSync(42, false)
	f.create(t, 42, "TRK-42")
}

type failingDeleteRepo struct {
	*infrastructure.MemoryShipmentRepository
}

func (failingDeleteRepo) Delete(context.Context, int64) error { return errors.New("db down") }

func TestCreateShipmentCompensationFailureStillReportsSyncFailure(t *testing.T) {
	repo := failingDeleteRepo{infrastructure.NewMemoryShipmentRepository()}
	orders := adapter.NewMockOrderGateway()
	orders.FailSync(1, true)
	svc := NewShippingApplicationService(repo, orders, adapter.NewStoreInventoryGateway(inventory.NewMemoryStore()), noop.NewTracerProvider().Tracer("test"))

	_, err := svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 1, Carrier: "DHL", TrackingNo: "TRK-1"})
	assert.True(t, errors.Is(err, domain.ErrOrderSyncFailed))
}

func TestCreateShipmentOrderNotConfirmed(t *testing.T) {
	f := newFixture(t)
	f.orders.SetOrder(&domain.OrderSnapshot{
		OrderID:     7,
		OrderStatus: domain.OrderStatusPending,
		Items:       []domain.OrderItem{domain.NewOrderItem(1, 1)},
	})

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 7, Carrier: "DHL", TrackingNo: "TRK-7"})
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrOrderNotConfirmed))

	assert.Equal(t, 0, f.repo.Len())
	assert.Empty(t, f.orders.SyncCalls())
	assert.Empty(t, f.inv.Calls())
}

func TestCreateShipmentOrderUnavailable(t *testing.T) {
	f := newFixture(t)
	f.orders.SetUnavailable(5)

	_, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 5, Carrier: "DHL", TrackingNo: "TRK-5"})
	assert.True(t, errors.Is(err, domain.ErrOrderUnavailable))
	assert.Equal(t, 0, f.repo.Len())
	assert.Empty(t, f.orders.SyncCalls())
}

func TestCreateShipmentEmptyOrderResponse(t *testing.T) {
	for _, body := range []string{`null`, `{}`} {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			tracer := noop.NewTracerProvider().Tracer("test")
			orders := adapter.NewOrderHTTPAdapter(httpclient.NewClient(tracer, time.Second), adapter.StaticResolver{adapter.OrderServiceName: srv.URL}, "")
			repo := infrastructure.NewMemoryShipmentRepository()
			svc := NewShippingApplicationService(repo, orders, adapter.NewStoreInventoryGateway(inventory.NewMemoryStore()), tracer)

			resp, err := svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 5, Carrier: "DHL", TrackingNo: "TRK-5"})
			assert.Nil(t, resp)
			assert.True(t, errors.Is(err, domain.ErrOrderUnavailable), "got %v", err)
			assert.Equal(t, 0, repo.Len())
		})
	}
}

func TestCreateShipmentValidation(t *testing.T) {
	cases := map[string]CreateShipmentRequest{
		"missing order":    {Carrier: "DHL", TrackingNo: "TRK"},
		"missing carrier":  {OrderID: 1, TrackingNo: "TRK"},
		"missing tracking": {OrderID: 1, Carrier: "DHL"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateShipment(context.Background(), &req)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Equal(t, 0, f.repo.Len())
			assert.Empty(t, f.orders.SyncCalls())
		})
	}
}

func TestCreateShipmentDuplicateTrackingNo(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1, "TRK-DUP")

	_, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 2, Carrier: "UPS", TrackingNo: "TRK-DUP"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, 1, f.repo.Len())
	assert.Len(t, f.orders.SyncCalls(), 1, "second attempt never reached the order service")

	s, err := f.svc.GetShipmentByTrackingNo(context.Background(), "TRK-DUP")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.OrderID)
}

func TestCreateShipmentNoItems(t *testing.T) {
	f := newFixture(t)
	f.orders.SetOrder(&domain.OrderSnapshot{OrderID: 9, OrderStatus: domain.OrderStatusConfirmed})

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 9, Carrier: "DHL", TrackingNo: "TRK-9"})
	assert.True(t, errors.Is(err, domain.ErrNoItemsToShip))
	require.NotNil(t, resp)
	assert.Equal(t, domain.StatusShipped, resp.Shipment.Status)

	stored, err := f.svc.GetShipmentByTrackingNo(context.Background(), "TRK-9")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)
	assert.Equal(t, []adapter.SyncCall{{OrderID: 9, Status: domain.StatusShipped}}, f.orders.SyncCalls())
	assert.Empty(t, f.inv.Calls())
}

func TestCreateShipmentInventoryFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.inv.fail[1] = true
	before2 := f.qty(t, 2)

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 42, Carrier: "DHL", TrackingNo: "TRK-42"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, resp.Shipment.Status)

	assert.Equal(t, []adjustCall{{ItemID: 1, Delta: 2}, {ItemID: 2, Delta: 1}}, f.inv.Calls())
	assert.Equal(t, before2-1, f.qty(t, 2))

	failed := resp.FailedAdjustments()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(1), failed[0].ItemID)
	assert.True(t, errors.Is(failed[0].Result.Reason, port.ErrUnavailable))
}

func TestCreateShipmentSkipsIncompleteItems(t *testing.T) {
	f := newFixture(t)
	id := int64(3)
	qty := 4
	f.orders.SetOrder(&domain.OrderSnapshot{
		OrderID:     11,
		OrderStatus: domain.OrderStatusConfirmed,
		Items: []domain.OrderItem{
			{ItemID: nil, Quantity: &qty},
			{ItemID: &id, Quantity: nil},
			domain.NewOrderItem(2, 1),
		},
	})

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 11, Carrier: "DHL", TrackingNo: "TRK-11"})
	require.NoError(t, err)
	assert.Equal(t, []adjustCall{{ItemID: 2, Delta: 1}}, f.inv.Calls())
	assert.Len(t, resp.Adjustments, 1)
}

func TestCreateShipmentEventFailureDoesNotFailSaga(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("kafka unavailable")

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{OrderID: 42, Carrier: "DHL", TrackingNo: "TRK-42"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, resp.Shipment.Status)
	assert.Len(t, f.inv.Calls(), 2)
}

func TestUpdateStatusUnknownShipment(t *testing.T) {
	f := newFixture(t)

	s, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: 404, Status: "FAILED"})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, f.orders.SyncCalls())
	assert.Empty(t, f.events.Events())
}

func TestUpdateStatusDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 42, "TRK-42")

	f.now = f.now.Add(48 * time.Hour)
	deliveredAt := f.now.Add(-time.Hour)

	_, err := f.svc.UpdateStatus(ctx, &UpdateStatusRequest{ShipmentID: created.ID, Status: "DELIVERED"})
	assert.True(t, errors.Is(err, domain.ErrMissingTimestamp))
	stored, err := f.svc.GetShipment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status, "rejected update leaves the record untouched")

	updated, err := f.svc.UpdateStatus(ctx, &UpdateStatusRequest{ShipmentID: created.ID, Status: "DELIVERED", DeliveredAt: &deliveredAt})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, updated.Status)
	assert.Equal(t, deliveredAt, *updated.DeliveredAt)
	assert.Equal(t, f.now, updated.UpdatedAt)

	calls := f.orders.SyncCalls()
	assert.Equal(t, adapter.SyncCall{OrderID: 42, Status: domain.StatusDelivered}, calls[len(calls)-1])

	events := f.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, domain.EventShipmentStatusChanged, last.Type)
	assert.Equal(t, domain.StatusShipped, last.Previous)
	assert.Equal(t, domain.StatusDelivered, last.Shipment.Status)
}

func TestUpdateStatusSyncFailureKeepsLocalChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 42, "TRK-42")
	f.orders.FailSync(42, true)

	s, err := f.svc.UpdateStatus(ctx, &UpdateStatusRequest{ShipmentID: created.ID, Status: "FAILED"})
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, domain.ErrOrderSyncFailed))

	stored, err := f.svc.GetShipment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestUpdateStatusInvalidStatus(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, 42, "TRK-42")

	for _, status := range []string{"", "shipped", "IN_TRANSIT"} {
		_, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: status})
		assert.True(t, errors.Is(err, domain.ErrInvalidStatus), "status %q", status)
	}
	assert.Len(t, f.orders.SyncCalls(), 1)
}

func TestUpdateStatusIsPermissiveByDefault(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, 42, "TRK-42")
	delivered := f.now.Add(time.Hour)

	_, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "DELIVERED", DeliveredAt: &delivered})
	require.NoError(t, err)

	s, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, s.Status)
}

func TestUpdateStatusTransitionPolicy(t *testing.T) {
	p, err := policy.NewCELPolicy(`!(current_terminal && proposed == "PENDING")`)
	require.NoError(t, err)
	f := newFixture(t, WithTransitionPolicy(p))
	created := f.create(t, 42, "TRK-42")

	_, err = f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "FAILED"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "PENDING"})
	assert.True(t, errors.Is(err, domain.ErrInvalidStatus))

	stored, err := f.svc.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() error { return nil }, nil
}

func TestUpdateStatusRunsUnderShipmentLock(t *testing.T) {
	locker := &recordingLocker{}
	f := newFixture(t, WithLocker(locker))
	created := f.create(t, 42, "TRK-42")

	_, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "FAILED"})
	require.NoError(t, err)
	assert.Equal(t, []string{lockKey(created.ID)}, locker.keys)

	locker.err = errors.New("lock service down")
	_, err = f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "UNKNOWN"})
	assert.Error(t, err)
	_, isDomain := domain.KindOf(err)
	assert.False(t, isDomain)

	stored, err := f.svc.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestUpdateStatusWithoutLocker(t *testing.T) {
	f := newFixture(t, WithLocker(nil))
	created := f.create(t, 42, "TRK-42")

	s, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: "FAILED"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, s.Status)
}

func TestConcurrentUpdatesWithLocalLock(t *testing.T) {
	f := newFixture(t, WithLocker(lock.NewLocalLocker()))
	created := f.create(t, 42, "TRK-42")

	var wg sync.WaitGroup
	statuses := []string{"FAILED", "UNKNOWN", "PENDING", "FAILED"}
	for _, st := range statuses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(context.Background(), &UpdateStatusRequest{ShipmentID: created.ID, Status: st})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.svc.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NoError(t, stored.CheckInvariants())
	assert.Len(t, f.orders.SyncCalls(), 1+len(statuses))
}

func TestGetShipmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, 42, "TRK-42")

	first, err := f.svc.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := f.svc.GetShipment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = f.svc.GetShipment(context.Background(), 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReady(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Ready(context.Background()))
}
