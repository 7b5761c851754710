package repository

import (
	"context"

	"storefront-api/internal/model"
)

// ListQuery is a fully validated listing request. The service layer
// owns normalization: SortColumn is already whitelisted and CursorValue
// is already parsed into the column's native type, so repositories can
// interpolate the column name and bind the value directly.
type ListQuery struct {
	SortColumn string
	Descending bool

	// Limit is the number of rows to fetch. The service passes page
	// size + 1 to probe for a further page.
	Limit int

	// CursorValue/CursorID anchor the page strictly after the last row
	// of the previous page. CursorValue is nil when listing from the top.
	CursorValue interface{}
	CursorID    string

	Category *string
	Search   *string
	MinPrice *int64
	MaxPrice *int64
}

// HasCursor reports whether the query resumes from a cursor position.
func (q *ListQuery) HasCursor() bool {
	return q.CursorValue != nil
}

// ProductRepository defines product data access methods.
type ProductRepository interface {
	// ListProducts returns up to q.Limit rows ordered by
	// (q.SortColumn, id) in the requested direction.
	ListProducts(ctx context.Context, q ListQuery) ([]model.Product, error)

	// GetProductByID retrieves a single product. Returns (nil, nil)
	// when the product does not exist.
	GetProductByID(ctx context.Context, id string) (*model.Product, error)

	// GetStats returns statistics about the product database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
