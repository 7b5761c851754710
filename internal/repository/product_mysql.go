package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-api/internal/model"
)

// MySQLProductRepository implements ProductRepository using MySQL. The
// *sql.DB handle is injected so the pool can be shared and replaced
// with sqlmock in tests.
type MySQLProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository creates a new MySQL product repository.
func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

// ListProducts returns up to q.Limit rows ordered by (q.SortColumn, id).
func (r *MySQLProductRepository) ListProducts(ctx context.Context, q ListQuery) ([]model.Product, error) {
	query, args := buildListSQL(q, questionPlaceholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return collectProducts(rows)
}

// GetProductByID retrieves a single product. Returns (nil, nil) when absent.
func (r *MySQLProductRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// GetStats returns statistics about the product database.
func (r *MySQLProductRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_products"] = count

	var lastUpdate sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM products").Scan(&lastUpdate); err == nil && lastUpdate.Valid {
		stats["last_update"] = lastUpdate.Time
	}

	return stats, nil
}

// Close closes the database connection.
func (r *MySQLProductRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLProductRepository implements ProductRepository
var _ ProductRepository = (*MySQLProductRepository)(nil)
