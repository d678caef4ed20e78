package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/pkg/errors"
)

const orderColumns = `
	id, customer_name, customer_phone, city, sector, address, note, shipping_fee,
	status, fulfillment_status, call_result, cancellation_motif, call_history,
	shipping_id, shipping_status, delivery_note_printed, version, created_at, updated_at`

const uniqueViolation = "23505"

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var callHistory []byte
	var shippingID sql.NullString
	var status, fulfillment, callResult, motif string

	err := row.Scan(
		&order.ID,
		&order.Customer.Name,
		&order.Customer.Phone,
		&order.Customer.City,
		&order.Customer.Sector,
		&order.Customer.Address,
		&order.Note,
		&order.ShippingFee,
		&status,
		&fulfillment,
		&callResult,
		&motif,
		&callHistory,
		&shippingID,
		&order.ShippingStatus,
		&order.DeliveryNotePrinted,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	order.FulfillmentStatus = domain.FulfillmentStatus(fulfillment)
	order.CallResult = domain.CallResult(callResult)
	order.CancellationMotif = domain.CancellationMotif(motif)
	if shippingID.Valid {
		order.ShippingID = &shippingID.String
	}

	order.CallHistory = map[int]int{}
	if len(callHistory) > 0 {
		if err := json.Unmarshal(callHistory, &order.CallHistory); err != nil {
			return nil, fmt.Errorf("failed to decode call history: %w", err)
		}
	}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	if err := r.loadDetails(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.FulfillmentStatus != "" {
		args = append(args, string(filter.FulfillmentStatus))
		conditions = append(conditions, fmt.Sprintf("fulfillment_status = $%d", len(args)))
	}
	if filter.Shipped != nil {
		if *filter.Shipped {
			conditions = append(conditions, "COALESCE(shipping_id, '') <> ''")
		} else {
			conditions = append(conditions, "COALESCE(shipping_id, '') = ''")
		}
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadDetails(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// loadDetails fills items and logs of orders with one query each
func (r *orderRepository) loadDetails(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID.String())
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		r.logger.Error("Failed to load order items", zap.Error(err))
		return err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	logRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, type, message, actor, created_at
		FROM order_logs
		WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		r.logger.Error("Failed to load order logs", zap.Error(err))
		return err
	}
	defer logRows.Close()

	for logRows.Next() {
		var orderID uuid.UUID
		var entry domain.LogEntry
		var logType string
		if err := logRows.Scan(&entry.ID, &orderID, &logType, &entry.Message, &entry.Actor, &entry.Timestamp); err != nil {
			return err
		}
		entry.Type = domain.LogType(logType)
		if order, ok := byID[orderID]; ok {
			order.Logs = append(order.Logs, entry)
		}
	}

	return logRows.Err()
}

// encodeCallHistory renders the history as a JSON string; lib/pq would send
// a []byte as bytea, which jsonb rejects
func encodeCallHistory(history map[int]int) (string, error) {
	if history == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode call history: %w", err)
	}
	return string(raw), nil
}

func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	callHistory, err := encodeCallHistory(order.CallHistory)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if order.Version == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, $17, $18)
		`,
			order.ID,
			order.Customer.Name,
			order.Customer.Phone,
			order.Customer.City,
			order.Customer.Sector,
			order.Customer.Address,
			order.Note,
			order.ShippingFee,
			string(order.Status),
			string(order.FulfillmentStatus),
			string(order.CallResult),
			string(order.CancellationMotif),
			callHistory,
			order.ShippingID,
			order.ShippingStatus,
			order.DeliveryNotePrinted,
			order.CreatedAt,
			order.UpdatedAt,
		)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return &errors.ErrConcurrencyConflict{Resource: "order", ID: order.ID.String()}
		}
		if err != nil {
			r.logger.Error("Failed to insert order", zap.Error(err))
			return err
		}
	} else {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET
				customer_name = $3, customer_phone = $4, city = $5, sector = $6, address = $7,
				note = $8, shipping_fee = $9, status = $10, fulfillment_status = $11,
				call_result = $12, cancellation_motif = $13, call_history = $14,
				shipping_id = $15, shipping_status = $16, delivery_note_printed = $17,
				updated_at = $18, version = version + 1
			WHERE id = $1 AND version = $2
		`,
			order.ID,
			order.Version,
			order.Customer.Name,
			order.Customer.Phone,
			order.Customer.City,
			order.Customer.Sector,
			order.Customer.Address,
			order.Note,
			order.ShippingFee,
			string(order.Status),
			string(order.FulfillmentStatus),
			string(order.CallResult),
			string(order.CancellationMotif),
			callHistory,
			order.ShippingID,
			order.ShippingStatus,
			order.DeliveryNotePrinted,
			order.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to update order", zap.Error(err))
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &errors.ErrConcurrencyConflict{Resource: "order", ID: order.ID.String()}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		r.logger.Error("Failed to clear order items", zap.Error(err))
		return err
	}
	for position, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, position, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			r.logger.Error("Failed to insert order item", zap.Error(err))
			return err
		}
	}

	// logs are append-only; entries already stored are skipped
	for _, entry := range order.Logs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_logs (id, order_id, type, message, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, entry.ID, order.ID, string(entry.Type), entry.Message, entry.Actor, entry.Timestamp)
		if err != nil {
			r.logger.Error("Failed to insert order log", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit order", zap.Error(err))
		return err
	}

	order.Version++
	return nil
}
