package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository/memory"
	"github.com/jafarshop/backoffice/internal/service"
	"github.com/jafarshop/backoffice/pkg/errors"
)

type stubCarrier struct {
	nextID  int
	saveErr error
	pickups [][]string
}

func (s *stubCarrier) CreateOrUpdateDelivery(ctx context.Context, payload carrier.DeliveryPayload) (*carrier.DeliveryResult, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	id := payload.ID
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("CAR-%d", s.nextID)
	}
	return &carrier.DeliveryResult{ID: id, Status: "Nouveau colis"}, nil
}

func (s *stubCarrier) RequestPickup(ctx context.Context, ids []string, pickupPointID string) error {
	s.pickups = append(s.pickups, ids)
	return nil
}

func (s *stubCarrier) ListCities(ctx context.Context) ([]carrier.City, error) {
	return []carrier.City{
		{Name: "Casablanca", Sectors: []string{"Maarif"}},
		{Name: "Fès", Sectors: []string{"Médina"}},
	}, nil
}

type testServer struct {
	router  *gin.Engine
	carrier *stubCarrier
	soap    domain.Product
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memory.NewRepositories()
	soap := domain.Product{ID: uuid.New(), Name: "Savon", SKU: "SAV", Price: decimal.NewFromInt(20)}
	repos.Product.(*memory.ProductRepository).Add(soap)

	logger := zap.NewNop()
	stub := &stubCarrier{}
	orders := service.NewOrderService(repos, time.UTC, logger)
	shipments := service.NewShipmentService(stub, repos, domain.PickupLocations{}, logger)
	bulk := service.NewBulkService(orders, shipments, repos, logger)

	router := gin.New()
	router.POST("/orders", HandleCreateOrder(orders, logger))
	router.GET("/orders", HandleListOrders(orders, logger))
	router.GET("/orders/:id", HandleGetOrder(orders, logger))
	router.POST("/orders/:id/status", HandleUpdateStatus(orders, logger))
	router.POST("/orders/:id/fulfillment", HandleUpdateFulfillment(orders, logger))
	router.POST("/orders/:id/calls", HandleLogCallAttempt(orders, logger))
	router.POST("/orders/:id/delivery-note", HandleMarkDeliveryNotePrinted(orders, logger))
	router.POST("/orders/:id/shipment", HandleSyncShipment(shipments, logger))
	router.POST("/orders/:id/shipment/cancel", HandleCancelShipment(shipments, logger))
	router.POST("/bulk/ship", HandleBulkShip(bulk, logger))
	router.POST("/bulk/pickup", HandleBulkPickup(bulk, logger))
	router.GET("/carrier/cities", HandleListCities(shipments, logger))
	router.GET("/exports/pickup-manifest", HandlePickupManifest(shipments, logger))

	return &testServer{router: router, carrier: stub, soap: soap}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) OrderResponse {
	t.Helper()
	var resp OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) createOrder(t *testing.T) OrderResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/orders", gin.H{
		"customer": gin.H{
			"name":    "Amal",
			"phone":   "0600000000",
			"city":    "Casablanca",
			"address": "12 rue X",
		},
		"items":        []gin.H{{"product_id": s.soap.ID, "quantity": 2}},
		"shipping_fee": 25,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeOrder(t, w)
}

func (s *testServer) confirmedOrder(t *testing.T) OrderResponse {
	t.Helper()
	order := s.createOrder(t)
	w := s.do(t, http.MethodPost, "/orders/"+order.ID+"/status", gin.H{"status": "sales_order"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/orders/"+order.ID+"/fulfillment", gin.H{"status": "picked"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeOrder(t, w)
}

// ============================================================================
// Orders
// ============================================================================

func TestHandleCreateOrder(t *testing.T) {
	s := newTestServer(t)

	order := s.createOrder(t)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.FulfillmentToPick, order.FulfillmentStatus)
	assert.Equal(t, domain.PhaseAwaitingExport, order.Phase)
	assert.Equal(t, "65.00", order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "20.00", order.Items[0].UnitPrice)
	assert.Equal(t, "system", order.Logs[0].Actor)

	t.Run("rejects an empty item list", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/orders", gin.H{
			"customer": gin.H{"name": "Amal", "phone": "06", "city": "Rabat", "address": "x"},
			"items":    []gin.H{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w)["code"])
	})
}

func TestHandleGetOrder(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"existing order", "/orders/" + order.ID, http.StatusOK, ""},
		{"malformed id", "/orders/not-a-uuid", http.StatusBadRequest, "validation_error"},
		{"unknown order", "/orders/" + uuid.NewString(), http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w)["code"])
			}
		})
	}
}

func TestHandleUpdateStatus_InvalidTransition(t *testing.T) {
	s := newTestServer(t)
	order := s.confirmedOrder(t)

	w := s.do(t, http.MethodPost, "/orders/"+order.ID+"/status", gin.H{"status": "pending"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, w)["code"])
}

func TestHandleLogCallAttempt(t *testing.T) {
	s := newTestServer(t)
	order := s.createOrder(t)
	path := "/orders/" + order.ID + "/calls"

	w := s.do(t, http.MethodPost, path, gin.H{"day": 1, "attempt": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeOrder(t, w).CallHistory[1])

	w = s.do(t, http.MethodPost, path, gin.H{"day": 1, "attempt": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_logged", decodeError(t, w)["code"])

	w = s.do(t, http.MethodPost, path, gin.H{"day": 1, "attempt": 3})
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "out_of_sequence", body["code"])
	assert.EqualValues(t, 2, body["expected"])

	w = s.do(t, http.MethodPost, path, gin.H{"day": 1, "attempt": 2})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = s.do(t, http.MethodPost, path, gin.H{"day": 2, "attempt": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "day_locked", decodeError(t, w)["code"])
}

func TestHandleListOrders(t *testing.T) {
	s := newTestServer(t)
	s.createOrder(t)
	confirmed := s.confirmedOrder(t)

	w := s.do(t, http.MethodGet, "/orders?status=sales_order", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Orders []OrderResponse `json:"orders"`
		Limit  int             `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, confirmed.ID, resp.Orders[0].ID)
	assert.Equal(t, 50, resp.Limit)

	w = s.do(t, http.MethodGet, "/orders?phase=somewhere", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Shipments
// ============================================================================

func TestHandleSyncShipment(t *testing.T) {
	s := newTestServer(t)
	order := s.confirmedOrder(t)

	w := s.do(t, http.MethodPost, "/orders/"+order.ID+"/shipment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	synced := decodeOrder(t, w)
	require.NotNil(t, synced.ShippingID)
	assert.Equal(t, "CAR-1", *synced.ShippingID)
	assert.Equal(t, domain.PhaseAwaitingPickup, synced.Phase)

	t.Run("carrier rejection surfaces the carrier message", func(t *testing.T) {
		other := s.confirmedOrder(t)
		s.carrier.saveErr = &errors.ErrCarrierValidation{Message: "Secteur introuvable"}
		defer func() { s.carrier.saveErr = nil }()

		w := s.do(t, http.MethodPost, "/orders/"+other.ID+"/shipment", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "Secteur introuvable", decodeError(t, w)["carrier_message"])
	})

	t.Run("pending order is refused", func(t *testing.T) {
		pending := s.createOrder(t)
		w := s.do(t, http.MethodPost, "/orders/"+pending.ID+"/shipment", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCancelShipment(t *testing.T) {
	s := newTestServer(t)
	order := s.confirmedOrder(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/orders/"+order.ID+"/shipment", nil).Code)

	w := s.do(t, http.MethodPost, "/orders/"+order.ID+"/shipment/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	canceled := decodeOrder(t, w)
	assert.Equal(t, domain.OrderStatusCanceled, canceled.Status)
	assert.Equal(t, domain.ShippingStatusCanceled, canceled.ShippingStatus)
}

func TestHandleListCities(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/carrier/cities?q=fes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Cities []carrier.City `json:"cities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Cities, 1)
	assert.Equal(t, "Fès", resp.Cities[0].Name)
}

func TestHandlePickupManifest(t *testing.T) {
	s := newTestServer(t)
	order := s.confirmedOrder(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/orders/"+order.ID+"/shipment", nil).Code)

	w := s.do(t, http.MethodGet, "/exports/pickup-manifest?ids="+order.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ramassage_")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Ramassage")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header, one parcel, summary")

	w = s.do(t, http.MethodGet, "/exports/pickup-manifest?ids=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Bulk
// ============================================================================

func TestHandleBulkShip(t *testing.T) {
	s := newTestServer(t)
	pending := s.createOrder(t)
	confirmed := s.confirmedOrder(t)

	w := s.do(t, http.MethodPost, "/bulk/ship", gin.H{"ids": []string{pending.ID, confirmed.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, pending.ID, result.Skipped[0].String())

	w = s.do(t, http.MethodPost, "/bulk/ship", gin.H{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBulkPickup(t *testing.T) {
	s := newTestServer(t)
	unshipped := s.confirmedOrder(t)

	w := s.do(t, http.MethodPost, "/bulk/pickup", gin.H{"order_ids": []string{unshipped.ID}, "pickup_point_id": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "no_eligible_orders"))
	assert.Empty(t, s.carrier.pickups)
}
