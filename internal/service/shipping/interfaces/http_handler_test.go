package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexus-shipping/internal/service/shipping/application"
	"nexus-shipping/internal/service/shipping/domain"
	"nexus-shipping/internal/service/shipping/infrastructure"
	"nexus-shipping/internal/service/shipping/infrastructure/adapter"
	"nexus-shipping/internal/service/shipping/infrastructure/inventory"
)

type unreadyRepo struct {
	*infrastructure.MemoryShipmentRepository
}

func (unreadyRepo) Ping(context.Context) error { return errors.New("connection refused") }

func newTestMux(t *testing.T, repo domain.ShipmentRepository, orders *adapter.MockOrderGateway) *http.ServeMux {
	t.Helper()
	inv := adapter.NewStoreInventoryGateway(inventory.NewMemoryStore())
	svc := application.NewShippingApplicationService(repo, orders, inv, noop.NewTracerProvider().Tracer("test"))
	mux := http.NewServeMux()
	NewShippingHandler(svc).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateAndFetchShipment(t *testing.T) {
	mux := newTestMux(t, infrastructure.NewMemoryShipmentRepository(), adapter.NewMockOrderGateway())

	rec := do(t, mux, http.MethodPost, "/v1/shipping/create/", map[string]any{
		"order_id": 42, "carrier": "DHL", "tracking_no": "TRK-42",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Shipment](t, rec)
	assert.Equal(t, domain.StatusShipped, created.Status)
	assert.NotNil(t, created.ShippedAt)

	rec = do(t, mux, http.MethodGet, "/v1/shipping/1/detail/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[domain.Shipment](t, rec)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "TRK-42", fetched.TrackingNo)
}

func TestCreateShipmentErrors(t *testing.T) {
	orders := adapter.NewMockOrderGateway()
	orders.SetOrder(&domain.OrderSnapshot{OrderID: 7, OrderStatus: domain.OrderStatusPending})
	orders.SetOrder(&domain.OrderSnapshot{OrderID: 9, OrderStatus: domain.OrderStatusConfirmed})
	orders.FailSync(13, true)
	mux := newTestMux(t, infrastructure.NewMemoryShipmentRepository(), orders)

	cases := []struct {
		name string
		body any
		code int
		kind domain.Kind
	}{
		{"malformed body", "{", http.StatusBadRequest, domain.KindValidation},
		{"missing carrier", map[string]any{"order_id": 1, "tracking_no": "A"}, http.StatusBadRequest, domain.KindValidation},
		{"order not confirmed", map[string]any{"order_id": 7, "carrier": "DHL", "tracking_no": "B"}, http.StatusBadRequest, domain.KindOrderNotConfirmed},
		{"order sync failed", map[string]any{"order_id": 13, "carrier": "DHL", "tracking_no": "C"}, http.StatusBadRequest, domain.KindOrderSyncFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/v1/shipping/create/", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tc.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.Nil(t, resp.Shipment)
		})
	}

	t.Run("no items keeps the shipment", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/v1/shipping/create/", map[string]any{"order_id": 9, "carrier": "DHL", "tracking_no": "D"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[errorResponse](t, rec)
		assert.Equal(t, domain.KindNoItemsToShip, resp.Error)
		require.NotNil(t, resp.Shipment)
		assert.Equal(t, domain.StatusShipped, resp.Shipment.Status)
	})
}

func TestUpdateShipmentStatus(t *testing.T) {
	mux := newTestMux(t, infrastructure.NewMemoryShipmentRepository(), adapter.NewMockOrderGateway())
	rec := do(t, mux, http.MethodPost, "/v1/shipping/create/", map[string]any{"order_id": 42, "carrier": "DHL", "tracking_no": "TRK-42"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, mux, http.MethodPatch, "/v1/shipping/1/update/", map[string]any{"status": "DELIVERED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.KindMissingTimestamp, decode[errorResponse](t, rec).Error)

	rec = do(t, mux, http.MethodPatch, "/v1/shipping/1/update/", map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.KindInvalidStatus, decode[errorResponse](t, rec).Error)

	rec = do(t, mux, http.MethodPatch, "/v1/shipping/1/update/", map[string]any{"status": "DELIVERED", "delivered_at": "2025-06-03T10:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Shipment](t, rec)
	assert.Equal(t, domain.StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
}

func TestShipmentNotFound(t *testing.T) {
	mux := newTestMux(t, infrastructure.NewMemoryShipmentRepository(), adapter.NewMockOrderGateway())

	for _, path := range []string{"/v1/shipping/99/detail/", "/v1/shipping/abc/detail/", "/v1/shipping/0/detail/"} {
		rec := do(t, mux, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, domain.KindNotFound, decode[errorResponse](t, rec).Error)
	}

	rec := do(t, mux, http.MethodPatch, "/v1/shipping/99/update/", map[string]any{"status": "FAILED"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	mux := newTestMux(t, infrastructure.NewMemoryShipmentRepository(), adapter.NewMockOrderGateway())

	rec := do(t, mux, http.MethodGet, "/v1/health/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	rec = do(t, mux, http.MethodGet, "/v1/ready/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shipping_service_health_status")
}

func TestReadyReportsStorageFailure(t *testing.T) {
	mux := newTestMux(t, unreadyRepo{infrastructure.NewMemoryShipmentRepository()}, adapter.NewMockOrderGateway())

	rec := do(t, mux, http.MethodGet, "/v1/ready/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", decode[map[string]string](t, rec)["status"])
}
