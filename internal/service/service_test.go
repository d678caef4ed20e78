package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/internal/repository/memory"
)

// fakeCarrier records every call and answers with scripted results
type fakeCarrier struct {
	saved     []carrier.DeliveryPayload
	pickups   [][]string
	points    []string
	status    string
	saveErr   error
	pickupErr error
	nextID    int
}

func (f *fakeCarrier) CreateOrUpdateDelivery(ctx context.Context, payload carrier.DeliveryPayload) (*carrier.DeliveryResult, error) {
	f.saved = append(f.saved, payload)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	id := payload.ID
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("CAR-%d", f.nextID)
	}
	status := f.status
	if status == "" {
		status = "Nouveau colis"
	}
	return &carrier.DeliveryResult{ID: id, Status: status}, nil
}

func (f *fakeCarrier) RequestPickup(ctx context.Context, ids []string, pickupPointID string) error {
	if f.pickupErr != nil {
		return f.pickupErr
	}
	f.pickups = append(f.pickups, ids)
	f.points = append(f.points, pickupPointID)
	return nil
}

func (f *fakeCarrier) ListCities(ctx context.Context) ([]carrier.City, error) {
	return []carrier.City{{Name: "Casablanca", Sectors: []string{"Maarif"}}}, nil
}

// creates counts carrier saves without an identifier
func (f *fakeCarrier) creates() int {
	n := 0
	for _, p := range f.saved {
		if p.ID == "" {
			n++
		}
	}
	return n
}

// failingOrders wraps an order repository whose saves can be made to fail
type failingOrders struct {
	repository.OrderRepository
	err error
}

func (r *failingOrders) Save(ctx context.Context, order *domain.Order) error {
	if r.err != nil {
		return r.err
	}
	return r.OrderRepository.Save(ctx, order)
}

type testEnv struct {
	ctx       context.Context
	now       time.Time
	repos     *repository.Repositories
	orderRepo *failingOrders
	products  *memory.ProductRepository
	kits      *memory.KitRepository
	pos       *memory.PurchaseOrderRepository
	carrier   *fakeCarrier
	orders    *orderService
	shipments *shipmentService
	bulk      *bulkService
	soap      domain.Product
	towel     domain.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ctx:       context.Background(),
		now:       time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		orderRepo: &failingOrders{OrderRepository: memory.NewOrderRepository()},
		products:  memory.NewProductRepository(),
		kits:      memory.NewKitRepository(),
		pos:       memory.NewPurchaseOrderRepository(),
		carrier:   &fakeCarrier{},
		soap:      domain.Product{ID: uuid.New(), Name: "Savon", SKU: "SAV", Price: decimal.NewFromInt(20)},
		towel:     domain.Product{ID: uuid.New(), Name: "Serviette", SKU: "SER", Price: decimal.NewFromInt(45)},
	}
	env.products.Add(env.soap)
	env.products.Add(env.towel)

	env.repos = &repository.Repositories{
		Order:         env.orderRepo,
		Kit:           env.kits,
		Product:       env.products,
		PurchaseOrder: env.pos,
		Operator:      memory.NewOperatorRepository(),
	}

	clock := func() time.Time { return env.now }
	logger := zap.NewNop()

	env.orders = NewOrderService(env.repos, time.UTC, logger)
	env.orders.now = clock
	env.shipments = NewShipmentService(env.carrier, env.repos, domain.PickupLocations{"12": "Casa Maarif"}, logger)
	env.shipments.now = clock
	env.bulk = NewBulkService(env.orders, env.shipments, env.repos, logger)

	return env
}

func (env *testEnv) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := env.orders.CreateOrder(env.ctx, CreateOrderRequest{
		Customer: CustomerInfo{Name: "Amal", Phone: "0600000000", City: "Casablanca", Address: "12 rue X"},
		Items: []OrderItemRequest{
			{ProductID: env.soap.ID, Quantity: decimal.NewFromInt(2)},
		},
		ShippingFee: decimal.NewFromInt(25),
	}, "agent")
	require.NoError(t, err)
	return order
}

// confirmedOrder returns a picked sales order without a shipment
func (env *testEnv) confirmedOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := env.createOrder(t)
	_, err := env.orders.UpdateStatus(env.ctx, order.ID, UpdateStatusRequest{Status: domain.OrderStatusSalesOrder}, "agent")
	require.NoError(t, err)
	order, err = env.orders.UpdateFulfillment(env.ctx, order.ID, UpdateFulfillmentRequest{Status: domain.FulfillmentPicked}, "agent")
	require.NoError(t, err)
	return order
}

// shippedOrder returns a sales order carrying a carrier identifier
func (env *testEnv) shippedOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := env.confirmedOrder(t)
	order, err := env.shipments.SyncShipment(env.ctx, order.ID, "agent")
	require.NoError(t, err)
	return order
}
