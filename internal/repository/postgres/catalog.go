package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/domain"
)

type kitRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewKitRepository creates a new kit repository
func NewKitRepository(db *sql.DB, logger *zap.Logger) *kitRepository {
	return &kitRepository{
		db:     db,
		logger: logger,
	}
}

func (r *kitRepository) ListActive(ctx context.Context) ([]domain.Kit, error) {
	query := `
		SELECT k.id, k.target_product_id, k.output_quantity, c.product_id, c.quantity
		FROM kits k
		JOIN kit_components c ON c.kit_id = k.id
		WHERE k.is_active = true
		ORDER BY k.id, c.position
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list kits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	kits := make([]domain.Kit, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var kit domain.Kit
		var component domain.KitComponent
		if err := rows.Scan(&kit.ID, &kit.TargetProductID, &kit.OutputQuantity, &component.ProductID, &component.Quantity); err != nil {
			return nil, err
		}
		pos, ok := index[kit.ID]
		if !ok {
			kit.IsActive = true
			pos = len(kits)
			index[kit.ID] = pos
			kits = append(kits, kit)
		}
		kits[pos].Components = append(kits[pos].Components, component)
	}

	return kits, rows.Err()
}

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	products := make(map[uuid.UUID]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sku, price
		FROM products
		WHERE id = ANY($1::uuid[])
	`, pq.Array(keys))
	if err != nil {
		r.logger.Error("Failed to get products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.SKU, &product.Price); err != nil {
			return nil, err
		}
		products[product.ID] = product
	}

	return products, rows.Err()
}
