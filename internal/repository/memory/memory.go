// Package memory holds process-local repositories used by the memory storage
// driver and by service tests. Every read returns a copy; saves follow the
// same version compare-and-swap as the postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/pkg/errors"
)

// NewRepositories returns empty in-memory repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Order:         NewOrderRepository(),
		Kit:           NewKitRepository(),
		Product:       NewProductRepository(),
		PurchaseOrder: NewPurchaseOrderRepository(),
		Operator:      NewOperatorRepository(),
	}
}

// OrderRepository stores orders in a map
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.FulfillmentStatus != "" && order.FulfillmentStatus != filter.FulfillmentStatus {
			continue
		}
		if filter.Shipped != nil && order.HasShipment() != *filter.Shipped {
			continue
		}
		orders = append(orders, cloneOrder(order))
	}

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.String() < orders[j].ID.String()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return paginate(orders, filter.Limit, filter.Offset), nil
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.orders[order.ID]
	switch {
	case order.Version == 0 && exists:
		return &errors.ErrConcurrencyConflict{Resource: "order", ID: order.ID.String()}
	case order.Version != 0 && (!exists || current.Version != order.Version):
		return &errors.ErrConcurrencyConflict{Resource: "order", ID: order.ID.String()}
	}

	order.Version++
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func paginate(orders []*domain.Order, limit, offset int) []*domain.Order {
	if offset > 0 {
		if offset >= len(orders) {
			return []*domain.Order{}
		}
		orders = orders[offset:]
	}
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders
}

func cloneOrder(order *domain.Order) *domain.Order {
	c := *order
	c.Items = append([]domain.OrderItem(nil), order.Items...)
	c.Logs = append([]domain.LogEntry(nil), order.Logs...)
	c.CallHistory = make(map[int]int, len(order.CallHistory))
	for day, count := range order.CallHistory {
		c.CallHistory[day] = count
	}
	if order.ShippingID != nil {
		id := *order.ShippingID
		c.ShippingID = &id
	}
	return &c
}

// KitRepository stores kit definitions
type KitRepository struct {
	mu   sync.RWMutex
	kits []domain.Kit
}

func NewKitRepository() *KitRepository {
	return &KitRepository{}
}

// Add registers a kit definition
func (r *KitRepository) Add(kit domain.Kit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kit.Components = append([]domain.KitComponent(nil), kit.Components...)
	r.kits = append(r.kits, kit)
}

func (r *KitRepository) ListActive(ctx context.Context) ([]domain.Kit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kits := make([]domain.Kit, 0, len(r.kits))
	for _, kit := range r.kits {
		if !kit.IsActive {
			continue
		}
		kit.Components = append([]domain.KitComponent(nil), kit.Components...)
		kits = append(kits, kit)
	}
	return kits, nil
}

// ProductRepository is a static catalog
type ProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[uuid.UUID]domain.Product)}
}

// Add registers or replaces a catalog product
func (r *ProductRepository) Add(product domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make(map[uuid.UUID]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			products[id] = product
		}
	}
	return products, nil
}

// PurchaseOrderRepository stores supplier purchase orders
type PurchaseOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.PurchaseOrder
}

func NewPurchaseOrderRepository() *PurchaseOrderRepository {
	return &PurchaseOrderRepository{orders: make(map[uuid.UUID]*domain.PurchaseOrder)}
}

// Add stores po as-is, bypassing the version check
func (r *PurchaseOrderRepository) Add(po *domain.PurchaseOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[po.ID] = clonePurchaseOrder(po)
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	po, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "purchase order", ID: id.String()}
	}
	return clonePurchaseOrder(po), nil
}

func (r *PurchaseOrderRepository) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[po.ID]
	if !ok || current.Version != po.Version {
		return &errors.ErrConcurrencyConflict{Resource: "purchase order", ID: po.ID.String()}
	}

	po.Version++
	r.orders[po.ID] = clonePurchaseOrder(po)
	return nil
}

func clonePurchaseOrder(po *domain.PurchaseOrder) *domain.PurchaseOrder {
	c := *po
	c.Logs = append([]domain.LogEntry(nil), po.Logs...)
	if po.ReceivedAt != nil {
		at := *po.ReceivedAt
		c.ReceivedAt = &at
	}
	return &c
}

// OperatorRepository stores operators and checks their bcrypt API keys
type OperatorRepository struct {
	mu        sync.RWMutex
	operators []domain.Operator
}

func NewOperatorRepository() *OperatorRepository {
	return &OperatorRepository{}
}

func (r *OperatorRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, operator := range r.operators {
		if !operator.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(operator.APIKeyHash), []byte(apiKey)) == nil {
			op := operator
			return &op, nil
		}
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *OperatorRepository) Create(ctx context.Context, operator *domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if operator.ID == uuid.Nil {
		operator.ID = uuid.New()
	}
	if operator.CreatedAt.IsZero() {
		operator.CreatedAt = now
	}
	if operator.UpdatedAt.IsZero() {
		operator.UpdatedAt = now
	}
	r.operators = append(r.operators, *operator)
	return nil
}
