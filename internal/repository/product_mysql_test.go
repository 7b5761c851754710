package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "name", "description", "price_cents", "category", "stock", "created_at", "updated_at",
}

func TestMySQLListProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLProductRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(productRowColumns).
		AddRow("prod-02", "Product 02", "desc", int64(2000), "widgets", 2, now, now).
		AddRow("prod-01", "Product 01", "desc", int64(1000), nil, 1, now, now)

	expected := "SELECT id, name, description, price_cents, category, stock, created_at, updated_at " +
		"FROM products ORDER BY created_at DESC, id DESC LIMIT ?"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(3).
		WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background(), ListQuery{
		SortColumn: "created_at",
		Descending: true,
		Limit:      3,
	})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "prod-02", products[0].ID)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, "widgets", *products[0].Category)
	assert.Nil(t, products[1].Category, "NULL category maps to nil")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLListProductsWithCursorAndFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLProductRepository(db)

	anchor := time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)
	category := "widgets"

	expected := "SELECT id, name, description, price_cents, category, stock, created_at, updated_at " +
		"FROM products WHERE category = ? AND (created_at < ? OR (created_at = ? AND id < ?)) " +
		"ORDER BY created_at DESC, id DESC LIMIT ?"
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(category, anchor, anchor, "prod-04", 3).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	products, err := repo.ListProducts(context.Background(), ListQuery{
		SortColumn:  "created_at",
		Descending:  true,
		Limit:       3,
		Category:    &category,
		CursorValue: anchor,
		CursorID:    "prod-04",
	})
	require.NoError(t, err)
	assert.Empty(t, products)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetProductByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLProductRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(productRowColumns).
		AddRow("prod-01", "Product 01", "desc", int64(1000), "gadgets", 5, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, price_cents, category, stock, created_at, updated_at FROM products WHERE id = ?")).
		WithArgs("prod-01").
		WillReturnRows(rows)

	p, err := repo.GetProductByID(context.Background(), "prod-01")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Product 01", p.Name)
	assert.Equal(t, int64(1000), p.PriceCents)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLGetProductByIDAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, price_cents, category, stock, created_at, updated_at FROM products WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	p, err := repo.GetProductByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p, "absence is (nil, nil), not an error")

	assert.NoError(t, mock.ExpectationsWereMet())
}
