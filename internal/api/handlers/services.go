package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/service"
)

// OrderService is the order workflow used by the handlers
type OrderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest, actor string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req service.UpdateStatusRequest, actor string) (*domain.Order, error)
	UpdateFulfillment(ctx context.Context, orderID uuid.UUID, req service.UpdateFulfillmentRequest, actor string) (*domain.Order, error)
	LogCallAttempt(ctx context.Context, orderID uuid.UUID, req service.LogCallRequest, actor string) (*domain.Order, error)
	MarkDeliveryNotePrinted(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error)
}

// ShipmentService is the carrier-facing lifecycle used by the handlers
type ShipmentService interface {
	SyncShipment(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error)
	CancelShipment(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error)
	ListCities(ctx context.Context) ([]carrier.City, error)
	PickupManifest(ctx context.Context, ids []uuid.UUID) ([]service.ManifestRow, error)
}

// BulkService runs operations over lists of ids
type BulkService interface {
	Ship(ctx context.Context, ids []uuid.UUID, actor string) *service.BulkResult
	RequestPickup(ctx context.Context, ids []uuid.UUID, pickupPointID, actor string) (*service.BulkResult, error)
	MarkPrinted(ctx context.Context, ids []uuid.UUID, actor string) *service.BulkResult
	ReceivePurchaseOrders(ctx context.Context, ids []uuid.UUID, actor string) *service.BulkResult
}
