package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/backoffice/internal/domain"
)

// OrderFilter narrows an order listing. Zero values match everything.
type OrderFilter struct {
	Status            domain.OrderStatus
	FulfillmentStatus domain.FulfillmentStatus
	// Shipped, when set, keeps only orders with (true) or without (false)
	// a carrier identifier
	Shipped           *bool
	Limit             int
	Offset            int
}

// OrderRepository persists orders. Save is a full upsert (items replaced,
// new log entries appended) guarded by the order version: a stale version
// fails with errors.ErrConcurrencyConflict and a successful save increments it.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) error
}

// KitRepository reads kit definitions
type KitRepository interface {
	ListActive(ctx context.Context) ([]domain.Kit, error)
}

// ProductRepository is the read-only catalog lookup
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
}

// PurchaseOrderRepository persists supplier purchase orders
type PurchaseOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	Save(ctx context.Context, po *domain.PurchaseOrder) error
}

// OperatorRepository stores back-office operators
type OperatorRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Operator, error)
	Create(ctx context.Context, operator *domain.Operator) error
}

// Repositories groups every repository used by the services
type Repositories struct {
	Order         OrderRepository
	Kit           KitRepository
	Product       ProductRepository
	PurchaseOrder PurchaseOrderRepository
	Operator      OperatorRepository
}
