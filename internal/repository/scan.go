package repository

import (
	"database/sql"
	"fmt"

	"storefront-api/internal/model"
)

// scanProduct reads one product row. Category is nullable.
func scanProduct(row interface {
	Scan(dest ...interface{}) error
}) (*model.Product, error) {
	var p model.Product
	var category sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.PriceCents,
		&category,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		p.Category = &category.String
	}
	return &p, nil
}

// collectProducts drains a result set into a slice.
func collectProducts(rows *sql.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}
