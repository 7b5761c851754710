package model

import "time"

// Product is an immutable-after-creation catalog record. Prices are
// fixed-point, stored as cents to avoid float drift in filters and sorts.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Category    *string   `json:"category,omitempty"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter carries the raw listing inputs as received from the
// caller. Normalization (limit clamping, sort whitelisting) happens in
// the service layer so equivalent requests share a cache key.
type ProductFilter struct {
	Cursor    string
	Limit     int
	SortBy    string
	SortOrder string
	Category  string
	Search    string
	MinPrice  *int64
	MaxPrice  *int64
}

// ProductPage is the full listing response, including pagination
// metadata. This is the unit that gets cached verbatim.
type ProductPage struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes how to fetch the next page.
type Pagination struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
	Limit      int     `json:"limit"`
}
