package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront-api/internal/model"
	"storefront-api/pkg/uid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteProductRepository implements ProductRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteProductRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteProductRepository creates a new SQLite product repository.
// dbPath is the path to the SQLite database file (e.g., "./data/products.db")
func NewSQLiteProductRepository(dbPath string) (*SQLiteProductRepository, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := seedSampleData(db); err != nil {
		return nil, fmt.Errorf("failed to seed sample data: %w", err)
	}

	log.Printf("[SQLiteProductRepository] Initialized with database: %s", dbPath)
	return &SQLiteProductRepository{db: db}, nil
}

// createTables creates the products table and the composite indexes the
// cursor scan relies on.
func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
		category TEXT,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_created_id ON products(created_at, id);
	CREATE INDEX IF NOT EXISTS idx_products_category_created_id ON products(category, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_products_price_id ON products(price_cents, id);
	`
	_, err := db.Exec(query)
	return err
}

// seedSampleData inserts a small starter catalog so a fresh development
// database has rows to serve. No-op when the table already has data.
func seedSampleData(db *sql.DB) error {
	var count int64
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeds := []struct {
		name        string
		description string
		category    string
		priceCents  int64
		stock       int
	}{
		{"Wireless Keyboard", "Low-profile wireless keyboard", "accessories", 4999, 120},
		{"USB-C Cable 2m", "Braided charging cable", "accessories", 1299, 500},
		{"Mechanical Keyboard", "Hot-swappable mechanical keyboard", "accessories", 12999, 45},
		{"27in Monitor", "1440p IPS display", "displays", 32999, 30},
		{"Laptop Stand", "Adjustable aluminium stand", "accessories", 3499, 80},
		{"Webcam 1080p", "Autofocus webcam with privacy shutter", "peripherals", 6999, 60},
		{"Noise-Cancelling Headset", "Over-ear headset with boom mic", "audio", 18999, 25},
		{"Desk Mat", "900x400mm desk mat", "accessories", 1999, 200},
	}

	const insert = `INSERT INTO products
		(id, name, description, price_cents, category, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	for i, s := range seeds {
		created := now.Add(-time.Duration(len(seeds)-i) * time.Minute)
		if _, err := db.Exec(insert,
			uid.New(), s.name, s.description, s.priceCents, s.category, s.stock, created, created,
		); err != nil {
			return err
		}
	}

	log.Printf("[SQLiteProductRepository] Seeded %d sample products", len(seeds))
	return nil
}

// ListProducts returns up to q.Limit rows ordered by (q.SortColumn, id).
func (r *SQLiteProductRepository) ListProducts(ctx context.Context, q ListQuery) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query, args := buildListSQL(q, questionPlaceholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return collectProducts(rows)
}

// GetProductByID retrieves a single product. Returns (nil, nil) when absent.
func (r *SQLiteProductRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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
func (r *SQLiteProductRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

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

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteProductRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteProductRepository implements ProductRepository
var _ ProductRepository = (*SQLiteProductRepository)(nil)
