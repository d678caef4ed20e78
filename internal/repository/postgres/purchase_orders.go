package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/pkg/errors"
)

type purchaseOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sql.DB, logger *zap.Logger) *purchaseOrderRepository {
	return &purchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *purchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	query := `
		SELECT id, supplier_name, status, received_at, version, created_at, updated_at
		FROM purchase_orders
		WHERE id = $1
	`

	var po domain.PurchaseOrder
	var status string
	var receivedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&po.ID,
		&po.SupplierName,
		&status,
		&receivedAt,
		&po.Version,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "purchase order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order by ID", zap.Error(err))
		return nil, err
	}

	po.Status = domain.PurchaseOrderStatus(status)
	if receivedAt.Valid {
		po.ReceivedAt = &receivedAt.Time
	}

	return &po, nil
}

// Save updates the purchase order and appends its new log entries
func (r *purchaseOrderRepository) Save(ctx context.Context, po *domain.PurchaseOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE purchase_orders
		SET supplier_name = $3, status = $4, received_at = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
	`, po.ID, po.Version, po.SupplierName, string(po.Status), po.ReceivedAt, po.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update purchase order", zap.Error(err))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrConcurrencyConflict{Resource: "purchase order", ID: po.ID.String()}
	}

	for _, entry := range po.Logs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_order_logs (id, purchase_order_id, type, message, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, entry.ID, po.ID, string(entry.Type), entry.Message, entry.Actor, entry.Timestamp)
		if err != nil {
			r.logger.Error("Failed to insert purchase order log", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	po.Version++
	return nil
}
