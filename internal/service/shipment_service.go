package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/pkg/errors"
)

// CarrierClient is the part of the carrier API the shipment lifecycle uses
type CarrierClient interface {
	CreateOrUpdateDelivery(ctx context.Context, payload carrier.DeliveryPayload) (*carrier.DeliveryResult, error)
	RequestPickup(ctx context.Context, ids []string, pickupPointID string) error
	ListCities(ctx context.Context) ([]carrier.City, error)
}

type shipmentService struct {
	client    CarrierClient
	repos     *repository.Repositories
	locations domain.PickupLocations
	now       func() time.Time
	logger    *zap.Logger
}

// NewShipmentService creates a new shipment lifecycle service
func NewShipmentService(client CarrierClient, repos *repository.Repositories, locations domain.PickupLocations, logger *zap.Logger) *shipmentService {
	return &shipmentService{
		client:    client,
		repos:     repos,
		locations: locations,
		now:       time.Now,
		logger:    logger,
	}
}

// SyncShipment creates the carrier delivery of an order, or updates it when
// the order already carries a carrier identifier. The order is persisted as
// soon as the carrier answers; a store failure after a successful carrier
// call is reported as ErrPersistence.
func (s *shipmentService) SyncShipment(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.syncOrder(ctx, order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *shipmentService) syncOrder(ctx context.Context, order *domain.Order, actor string) error {
	if err := order.CanShip(); err != nil {
		return err
	}

	payload, err := s.buildPayload(ctx, order)
	if err != nil {
		return err
	}

	result, err := s.client.CreateOrUpdateDelivery(ctx, payload)
	if err != nil {
		s.logger.Warn("Carrier delivery sync failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return err
	}

	order.ApplyShipmentSync(result.ID, result.Status, actor, s.now())

	if err := s.repos.Order.Save(ctx, order); err != nil {
		s.logger.Error("Failed to save order after carrier sync",
			zap.String("order_id", order.ID.String()),
			zap.String("shipping_id", result.ID),
			zap.Error(err),
		)
		return &errors.ErrPersistence{Op: "shipment sync", Err: err}
	}

	s.logger.Info("Shipment synced",
		zap.String("order_id", order.ID.String()),
		zap.String("shipping_id", *order.ShippingID),
		zap.String("phase", string(order.Phase())),
	)
	return nil
}

func (s *shipmentService) buildPayload(ctx context.Context, order *domain.Order) (carrier.DeliveryPayload, error) {
	catalog, err := s.repos.Product.GetByIDs(ctx, productIDs(order.Items))
	if err != nil {
		return carrier.DeliveryPayload{}, &errors.ErrPersistence{Op: "load products", Err: err}
	}

	payload := carrier.DeliveryPayload{
		Reference:    order.ID.String(),
		CustomerName: order.Customer.Name,
		Phone:        order.Customer.Phone,
		City:         order.Customer.City,
		Sector:       order.Customer.Sector,
		Address:      order.Customer.Address,
		Merchandise:  MerchandiseSummary(order.Items, catalog),
		Amount:       order.Total(),
		Note:         order.Note,
	}
	if order.HasShipment() {
		payload.ID = *order.ShippingID
	}
	return payload, nil
}

// MerchandiseSummary renders items as "2 x Name, 1.5 x Name". Products
// missing from the catalog are named by id.
func MerchandiseSummary(items []domain.OrderItem, catalog map[uuid.UUID]domain.Product) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := item.ProductID.String()
		if product, ok := catalog[item.ProductID]; ok && product.Name != "" {
			name = product.Name
		}
		parts = append(parts, fmt.Sprintf("%s x %s", item.Quantity.String(), name))
	}
	return strings.Join(parts, ", ")
}

func productIDs(items []domain.OrderItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// RequestPickup asks the carrier to collect the given orders in one batch.
// Orders without a carrier identifier are skipped; if none remain the call
// fails with ErrNoEligibleOrders and the carrier is not contacted.
func (s *shipmentService) RequestPickup(ctx context.Context, orderIDs []uuid.UUID, pickupPointID, actor string) (*BulkResult, error) {
	label := s.locations.Label(pickupPointID)
	result := newBulkResult()

	eligible := make([]*domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := s.repos.Order.GetByID(ctx, id)
		if err != nil {
			result.TotalCount++
			result.fail(id, err)
			continue
		}
		if !order.HasShipment() {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		eligible = append(eligible, order)
	}
	if len(eligible) == 0 {
		return nil, &errors.ErrNoEligibleOrders{Operation: "pickup request"}
	}

	shippingIDs := make([]string, 0, len(eligible))
	for _, order := range eligible {
		shippingIDs = append(shippingIDs, *order.ShippingID)
	}
	if err := s.client.RequestPickup(ctx, shippingIDs, pickupPointID); err != nil {
		s.logger.Warn("Carrier pickup request failed",
			zap.String("pickup_point_id", pickupPointID),
			zap.Error(err),
		)
		return nil, err
	}

	now := s.now()
	for _, order := range eligible {
		result.TotalCount++
		order.StampPickup(label, actor, now)
		if err := saveOrder(ctx, s.repos.Order, order, "pickup request", s.logger); err != nil {
			result.fail(order.ID, err)
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("Pickup requested",
		zap.String("pickup_point_id", pickupPointID),
		zap.String("label", label),
		zap.Int("orders", result.SuccessCount),
	)
	return result, nil
}

// CancelShipment cancels an order and its shipment locally. The carrier is
// not notified.
func (s *shipmentService) CancelShipment(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := order.CancelShipment(actor, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := saveOrder(ctx, s.repos.Order, order, "cancel shipment", s.logger); err != nil {
		return nil, err
	}
	return order, nil
}

// ListCities returns the carrier's destinations
func (s *shipmentService) ListCities(ctx context.Context) ([]carrier.City, error) {
	return s.client.ListCities(ctx)
}

// ManifestRow is one line of the pickup manifest
type ManifestRow struct {
	Order       *domain.Order
	Merchandise string
}

// PickupManifest lists the given orders for the driver, or every order
// awaiting pickup when ids is empty
func (s *shipmentService) PickupManifest(ctx context.Context, ids []uuid.UUID) ([]ManifestRow, error) {
	var orders []*domain.Order
	if len(ids) == 0 {
		all, err := s.repos.Order.List(ctx, repository.OrderFilter{Status: domain.OrderStatusSalesOrder})
		if err != nil {
			return nil, err
		}
		for _, order := range all {
			if order.Phase() == domain.PhaseAwaitingPickup {
				orders = append(orders, order)
			}
		}
	} else {
		for _, id := range ids {
			order, err := s.repos.Order.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
	}

	var items []domain.OrderItem
	for _, order := range orders {
		items = append(items, order.Items...)
	}
	catalog, err := s.repos.Product.GetByIDs(ctx, productIDs(items))
	if err != nil {
		return nil, err
	}

	rows := make([]ManifestRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, ManifestRow{
			Order:       order,
			Merchandise: MerchandiseSummary(order.Items, catalog),
		})
	}
	return rows, nil
}
