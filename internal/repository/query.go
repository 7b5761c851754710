package repository

import (
	"fmt"
	"strings"
)

// placeholderStyle abstracts over `?` (mysql, sqlite) and `$n` (postgres)
// bind parameter syntax so the three backends share one query builder.
type placeholderStyle int

const (
	questionPlaceholders placeholderStyle = iota
	dollarPlaceholders
)

const productColumns = "id, name, description, price_cents, category, stock, created_at, updated_at"

// queryBuilder accumulates WHERE predicates and their bind arguments.
type queryBuilder struct {
	style      placeholderStyle
	conditions []string
	args       []interface{}
}

// bind appends an argument and returns its placeholder.
func (b *queryBuilder) bind(arg interface{}) string {
	b.args = append(b.args, arg)
	if b.style == dollarPlaceholders {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

func (b *queryBuilder) where(condition string) {
	b.conditions = append(b.conditions, condition)
}

// buildListSQL renders a ListQuery into a parameterized SELECT. The sort
// column is interpolated directly: the service layer guarantees it comes
// from the whitelist, never from raw client input.
func buildListSQL(q ListQuery, style placeholderStyle) (string, []interface{}) {
	b := &queryBuilder{style: style}

	if q.Category != nil {
		b.where("category = " + b.bind(*q.Category))
	}
	if q.Search != nil {
		b.where("LOWER(name) LIKE " + b.bind("%"+strings.ToLower(*q.Search)+"%"))
	}
	if q.MinPrice != nil {
		b.where("price_cents >= " + b.bind(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		b.where("price_cents <= " + b.bind(*q.MaxPrice))
	}

	// Anchor strictly past the cursor row. Descending order means rows
	// with smaller sort values; ties on the sort value fall back to the
	// id tie-breaker so non-unique sort columns cannot skip or repeat
	// rows across pages.
	if q.HasCursor() {
		op := ">"
		if q.Descending {
			op = "<"
		}
		b.where(fmt.Sprintf("(%s %s %s OR (%s = %s AND id %s %s))",
			q.SortColumn, op, b.bind(q.CursorValue),
			q.SortColumn, b.bind(q.CursorValue),
			op, b.bind(q.CursorID),
		))
	}

	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " FROM products")
	if len(b.conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.conditions, " AND "))
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s, id %s", q.SortColumn, direction, direction))
	sb.WriteString(" LIMIT " + b.bind(q.Limit))

	return sb.String(), b.args
}
