package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/pkg/errors"
)

type orderService struct {
	repos    *repository.Repositories
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewOrderService creates a new order service. Call-day arithmetic uses
// location.
func NewOrderService(repos *repository.Repositories, location *time.Location, logger *zap.Logger) *orderService {
	if location == nil {
		location = time.UTC
	}
	return &orderService{
		repos:    repos,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// CreateOrder expands kits in the requested lines and stores a pending order
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest, actor string) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, &errors.ErrValidation{Field: "items", Message: "at least one item is required"}
	}
	if req.ShippingFee.IsNegative() {
		return nil, &errors.ErrValidation{Field: "shipping_fee", Message: "must not be negative"}
	}

	requested := make([]domain.RequestedItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return nil, &errors.ErrValidation{Field: fmt.Sprintf("items[%d].product_id", i), Message: "is required"}
		}
		if !item.Quantity.IsPositive() {
			return nil, &errors.ErrValidation{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be positive"}
		}
		if item.UnitPrice.IsNegative() {
			return nil, &errors.ErrValidation{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "must not be negative"}
		}
		requested = append(requested, domain.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	kits, err := s.repos.Kit.ListActive(ctx)
	if err != nil {
		return nil, &errors.ErrPersistence{Op: "list kits", Err: err}
	}

	catalog, err := s.repos.Product.GetByIDs(ctx, catalogIDs(requested, kits))
	if err != nil {
		return nil, &errors.ErrPersistence{Op: "load products", Err: err}
	}

	items := domain.ExpandKits(requested, kits, catalog)
	customer := domain.Customer{
		Name:    req.Customer.Name,
		Phone:   req.Customer.Phone,
		City:    req.Customer.City,
		Sector:  req.Customer.Sector,
		Address: req.Customer.Address,
	}
	order := domain.NewOrder(customer, items, req.ShippingFee, req.Note, actor, s.now())

	if err := s.save(ctx, order, "create order"); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("requested_lines", len(requested)),
		zap.Int("expanded_lines", len(items)),
	)

	return order, nil
}

// catalogIDs lists every product that expansion may need to price
func catalogIDs(requested []domain.RequestedItem, kits []domain.Kit) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(requested))
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	targets := make(map[uuid.UUID]domain.Kit, len(kits))
	for _, kit := range kits {
		if _, ok := targets[kit.TargetProductID]; !ok {
			targets[kit.TargetProductID] = kit
		}
	}
	for _, item := range requested {
		add(item.ProductID)
		if kit, ok := targets[item.ProductID]; ok {
			for _, component := range kit.Components {
				add(component.ProductID)
			}
		}
	}
	return ids
}

// GetOrder returns one order
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repos.Order.GetByID(ctx, orderID)
}

// ListOrders lists orders, newest first
func (s *orderService) ListOrders(ctx context.Context, req ListOrdersRequest) ([]*domain.Order, error) {
	if req.Status != "" && !req.Status.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", req.Status)}
	}
	if req.FulfillmentStatus != "" && !req.FulfillmentStatus.IsValid() {
		return nil, &errors.ErrValidation{Field: "fulfillment_status", Message: fmt.Sprintf("unknown fulfillment status %q", req.FulfillmentStatus)}
	}
	if req.Phase != "" && !req.Phase.IsValid() {
		return nil, &errors.ErrValidation{Field: "phase", Message: fmt.Sprintf("unknown phase %q", req.Phase)}
	}

	filter := repository.OrderFilter{
		Status:            req.Status,
		FulfillmentStatus: req.FulfillmentStatus,
	}
	// Phase is derived from the carrier status text, so only the shipped
	// predicate reaches the store; the remaining rows are loaded in full and
	// filtered and paginated here.
	if req.Phase == "" {
		filter.Limit = req.Limit
		filter.Offset = req.Offset
	} else {
		shipped := req.Phase != domain.PhaseAwaitingExport
		filter.Shipped = &shipped
	}

	orders, err := s.repos.Order.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if req.Phase == "" {
		return orders, nil
	}

	matching := make([]*domain.Order, 0, len(orders))
	for _, order := range orders {
		if order.Phase() == req.Phase {
			matching = append(matching, order)
		}
	}
	if req.Offset > 0 {
		if req.Offset >= len(matching) {
			return []*domain.Order{}, nil
		}
		matching = matching[req.Offset:]
	}
	if req.Limit > 0 && req.Limit < len(matching) {
		matching = matching[:req.Limit]
	}
	return matching, nil
}

// UpdateStatus applies a call-center status transition
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := order.ApplyTransition(req.Status, domain.TransitionContext{
		CallResult:        req.CallResult,
		CancellationMotif: req.CancellationMotif,
	}, actor, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := s.save(ctx, order, "update status"); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor", actor),
	)
	return order, nil
}

// UpdateFulfillment applies a warehouse transition
func (s *orderService) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, req UpdateFulfillmentRequest, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := order.ApplyFulfillment(req.Status, actor, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := s.save(ctx, order, "update fulfillment"); err != nil {
		return nil, err
	}
	return order, nil
}

// LogCallAttempt records one call attempt and persists it on its own. Two
// operators logging the same attempt race on the order version; the stale
// writer gets ErrConcurrencyConflict.
func (s *orderService) LogCallAttempt(ctx context.Context, orderID uuid.UUID, req LogCallRequest, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.LogCallAttempt(req.Day, req.Attempt, actor, s.now(), s.location); err != nil {
		return nil, err
	}

	if err := s.save(ctx, order, "log call attempt"); err != nil {
		return nil, err
	}
	return order, nil
}

// MarkDeliveryNotePrinted flags the delivery note of a shipped order
func (s *orderService) MarkDeliveryNotePrinted(ctx context.Context, orderID uuid.UUID, actor string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.markPrinted(ctx, order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) markPrinted(ctx context.Context, order *domain.Order, actor string) error {
	if err := order.MarkDeliveryNotePrinted(actor, s.now()); err != nil {
		return err
	}
	return s.save(ctx, order, "mark delivery note printed")
}

func (s *orderService) save(ctx context.Context, order *domain.Order, op string) error {
	return saveOrder(ctx, s.repos.Order, order, op, s.logger)
}

// saveOrder persists order. Version conflicts are returned as-is; any other
// store failure becomes ErrPersistence.
func saveOrder(ctx context.Context, orders repository.OrderRepository, order *domain.Order, op string, logger *zap.Logger) error {
	err := orders.Save(ctx, order)
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.ErrConcurrencyConflict); ok {
		return err
	}
	logger.Error("Failed to save order",
		zap.String("order_id", order.ID.String()),
		zap.String("op", op),
		zap.Error(err),
	)
	return &errors.ErrPersistence{Op: op, Err: err}
}
