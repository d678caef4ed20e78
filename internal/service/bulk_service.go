package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/pkg/errors"
)

// bulkService runs single-item operations over a list of ids, one at a time
// and in input order. One item's failure never stops the rest.
type bulkService struct {
	orders    *orderService
	shipments *shipmentService
	repos     *repository.Repositories
	logger    *zap.Logger
}

// NewBulkService creates a new bulk operation executor
func NewBulkService(orders *orderService, shipments *shipmentService, repos *repository.Repositories, logger *zap.Logger) *bulkService {
	return &bulkService{
		orders:    orders,
		shipments: shipments,
		repos:     repos,
		logger:    logger,
	}
}

// Ship syncs every eligible order with the carrier. Orders that are not
// sales orders, are returned, or already carry a carrier id are skipped.
func (s *bulkService) Ship(ctx context.Context, ids []uuid.UUID, actor string) *BulkResult {
	result := newBulkResult()

	for _, id := range ids {
		order, err := s.repos.Order.GetByID(ctx, id)
		if err != nil {
			result.TotalCount++
			result.fail(id, err)
			continue
		}
		if order.Status != domain.OrderStatusSalesOrder ||
			order.FulfillmentStatus == domain.FulfillmentReturned ||
			order.HasShipment() {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		result.TotalCount++
		if err := s.shipments.syncOrder(ctx, order, actor); err != nil {
			result.fail(id, err)
			continue
		}
		result.SuccessCount++
	}

	s.logResult("ship", result)
	return result
}

// RequestPickup batches a pickup request for the given orders
func (s *bulkService) RequestPickup(ctx context.Context, ids []uuid.UUID, pickupPointID, actor string) (*BulkResult, error) {
	result, err := s.shipments.RequestPickup(ctx, ids, pickupPointID, actor)
	if err != nil {
		return nil, err
	}
	s.logResult("pickup", result)
	return result, nil
}

// MarkPrinted flags the delivery notes of orders carrying a carrier id
func (s *bulkService) MarkPrinted(ctx context.Context, ids []uuid.UUID, actor string) *BulkResult {
	result := newBulkResult()

	for _, id := range ids {
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

		result.TotalCount++
		if err := s.orders.markPrinted(ctx, order, actor); err != nil {
			result.fail(id, err)
			continue
		}
		result.SuccessCount++
	}

	s.logResult("mark printed", result)
	return result
}

// ReceivePurchaseOrders receives every in-progress purchase order
func (s *bulkService) ReceivePurchaseOrders(ctx context.Context, ids []uuid.UUID, actor string) *BulkResult {
	result := newBulkResult()
	now := s.orders.now()

	for _, id := range ids {
		po, err := s.repos.PurchaseOrder.GetByID(ctx, id)
		if err != nil {
			result.TotalCount++
			result.fail(id, err)
			continue
		}
		if po.Status != domain.PurchaseOrderInProgress {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		result.TotalCount++
		if err := po.Receive(actor, now); err != nil {
			result.fail(id, err)
			continue
		}
		if err := s.repos.PurchaseOrder.Save(ctx, po); err != nil {
			if _, ok := err.(*errors.ErrConcurrencyConflict); !ok {
				s.logger.Error("Failed to save purchase order", zap.String("purchase_order_id", id.String()), zap.Error(err))
				err = &errors.ErrPersistence{Op: "receive purchase order", Err: err}
			}
			result.fail(id, err)
			continue
		}
		result.SuccessCount++
	}

	s.logResult("receive purchase orders", result)
	return result
}

func (s *bulkService) logResult(operation string, result *BulkResult) {
	s.logger.Info("Bulk operation finished",
		zap.String("operation", operation),
		zap.Int("success", result.SuccessCount),
		zap.Int("total", result.TotalCount),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("errors", len(result.Errors)),
	)
}
