package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"storefront-api/internal/model"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db *sql.DB
}

// NewPostgresProductRepository creates a new PostgreSQL product repository.
func NewPostgresProductRepository(dsn string) (*PostgresProductRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	log.Printf("[PostgresProductRepository] Initialized")
	return &PostgresProductRepository{db: db}, nil
}

// ListProducts returns up to q.Limit rows ordered by (q.SortColumn, id).
func (r *PostgresProductRepository) ListProducts(ctx context.Context, q ListQuery) ([]model.Product, error) {
	query, args := buildListSQL(q, dollarPlaceholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return collectProducts(rows)
}

// GetProductByID retrieves a single product. Returns (nil, nil) when absent.
func (r *PostgresProductRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

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
func (r *PostgresProductRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
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

	var dbSize int64
	if err := r.db.QueryRowContext(ctx, "SELECT pg_database_size(current_database())").Scan(&dbSize); err == nil {
		stats["db_size_bytes"] = dbSize
	}

	return stats, nil
}

// Close closes the database connection.
func (r *PostgresProductRepository) Close() error {
	return r.db.Close()
}

// Ensure PostgresProductRepository implements ProductRepository
var _ ProductRepository = (*PostgresProductRepository)(nil)
