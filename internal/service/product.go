package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront-api/internal/cache"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
	"storefront-api/pkg/apierror"
	"storefront-api/pkg/cursor"
)

const (
	// DefaultLimit is applied when the caller omits or zeroes the limit.
	DefaultLimit = 20

	// MaxLimit is the page-size ceiling; larger requests are clamped.
	MaxLimit = 100

	listCachePrefix    = "products:list:"
	productCachePrefix = "products:id:"
)

// sortColumns whitelists the caller-facing sort names and maps them to
// real column names. Nothing outside this map is ever interpolated into
// a query.
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price_cents",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ProductServiceConfig holds cache TTLs for the listing path.
type ProductServiceConfig struct {
	ListTTL    time.Duration
	ProductTTL time.Duration
}

// ProductService handles product listing business logic: filter
// normalization, cache-aside reads and cursor pagination.
type ProductService struct {
	repo       repository.ProductRepository
	cache      cache.Cache
	listTTL    time.Duration
	productTTL time.Duration
}

// NewProductService creates a new product service.
// Returns nil if repo is nil (required dependency). The cache is
// optional: without it every read goes to the database.
func NewProductService(repo repository.ProductRepository, c cache.Cache, cfg ProductServiceConfig) *ProductService {
	if repo == nil {
		return nil
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 60 * time.Second
	}
	if cfg.ProductTTL <= 0 {
		cfg.ProductTTL = 5 * time.Minute
	}
	return &ProductService{
		repo:       repo,
		cache:      c,
		listTTL:    cfg.ListTTL,
		productTTL: cfg.ProductTTL,
	}
}

// normalizedFilter is a ProductFilter after defaulting, clamping and
// whitelist validation. Equivalent requests normalize identically, so
// they collapse to the same cache key.
type normalizedFilter struct {
	Cursor     string
	Limit      int
	SortBy     string // caller-facing name, key of sortColumns
	SortColumn string
	Descending bool
	Category   *string
	Search     *string
	MinPrice   *int64
	MaxPrice   *int64
}

func normalizeFilter(f model.ProductFilter) (normalizedFilter, error) {
	n := normalizedFilter{
		Cursor: strings.TrimSpace(f.Cursor),
		Limit:  f.Limit,
	}

	if n.Limit <= 0 {
		n.Limit = DefaultLimit
	}
	if n.Limit > MaxLimit {
		n.Limit = MaxLimit
	}

	// Unknown sort fields fall back to the default rather than erroring.
	n.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if _, ok := sortColumns[n.SortBy]; !ok {
		n.SortBy = "created_at"
	}
	n.SortColumn = sortColumns[n.SortBy]

	n.Descending = strings.ToLower(strings.TrimSpace(f.SortOrder)) != "asc"

	if c := strings.TrimSpace(f.Category); c != "" {
		n.Category = &c
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		n.Search = &s
	}

	if f.MinPrice != nil {
		if *f.MinPrice < 0 {
			return n, apierror.BadRequest("min_price must be non-negative")
		}
		n.MinPrice = f.MinPrice
	}
	if f.MaxPrice != nil {
		if *f.MaxPrice < 0 {
			return n, apierror.BadRequest("max_price must be non-negative")
		}
		n.MaxPrice = f.MaxPrice
	}
	if n.MinPrice != nil && n.MaxPrice != nil && *n.MinPrice > *n.MaxPrice {
		return n, apierror.BadRequest("min_price must not exceed max_price")
	}

	return n, nil
}

// cacheKey derives a deterministic key from the full normalized filter,
// defaults included, so equivalent requests share one cache entry.
func (n *normalizedFilter) cacheKey() string {
	var sb strings.Builder
	sb.WriteString("sort=" + n.SortBy)
	if n.Descending {
		sb.WriteString(":desc")
	} else {
		sb.WriteString(":asc")
	}
	sb.WriteString(":limit=" + strconv.Itoa(n.Limit))
	if n.Category != nil {
		sb.WriteString(":cat=" + *n.Category)
	}
	if n.Search != nil {
		sb.WriteString(":q=" + strings.ToLower(*n.Search))
	}
	if n.MinPrice != nil {
		sb.WriteString(":min=" + strconv.FormatInt(*n.MinPrice, 10))
	}
	if n.MaxPrice != nil {
		sb.WriteString(":max=" + strconv.FormatInt(*n.MaxPrice, 10))
	}
	if n.Cursor != "" {
		sb.WriteString(":cursor=" + n.Cursor)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return listCachePrefix + hex.EncodeToString(sum[:16])
}

// ListProducts returns one page of products with pagination metadata.
// The full response is cached verbatim under the normalized filter key.
func (s *ProductService) ListProducts(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error) {
	n, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	key := n.cacheKey()
	if page := s.cachedPage(ctx, key); page != nil {
		return page, nil
	}

	query := repository.ListQuery{
		SortColumn: n.SortColumn,
		Descending: n.Descending,
		Limit:      n.Limit + 1, // probe row detects a further page
		Category:   n.Category,
		Search:     n.Search,
		MinPrice:   n.MinPrice,
		MaxPrice:   n.MaxPrice,
	}

	if n.Cursor != "" {
		// A supplied-but-malformed cursor is a client error, never a
		// silent fall-through to page one.
		sortValue, id, err := cursor.Decode(n.Cursor)
		if err != nil {
			return nil, apierror.BadRequest("invalid cursor")
		}
		value, err := parseSortValue(n.SortBy, sortValue)
		if err != nil {
			return nil, apierror.BadRequest("invalid cursor")
		}
		query.CursorValue = value
		query.CursorID = id
	}

	rows, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page := &model.ProductPage{
		Data: rows,
		Pagination: model.Pagination{
			Limit: n.Limit,
		},
	}

	if len(rows) > n.Limit {
		// Discard the probe row; the next cursor anchors on the last
		// row actually returned.
		page.Data = rows[:n.Limit]
		last := page.Data[len(page.Data)-1]
		next := cursor.Encode(formatSortValue(n.SortBy, last), last.ID)
		page.Pagination.HasMore = true
		page.Pagination.NextCursor = &next
	}

	s.storePage(ctx, key, page, s.listTTL)

	return page, nil
}

// GetProductByID is a cache-aside single-item read with a medium TTL.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apierror.BadRequest("product id is required")
	}

	key := productCachePrefix + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var p model.Product
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
			// Corrupt entry: drop it and recompute.
			_ = s.cache.Delete(ctx, key)
		}
	}

	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, apierror.NotFound("product not found")
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, key, data, s.productTTL); err != nil {
				log.Printf("[ProductService] cache set failed for %s: %v", key, err)
			}
		}
	}

	return p, nil
}

// GetStats exposes repository statistics for the admin surface.
func (s *ProductService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return s.repo.GetStats(ctx)
}

// cachedPage returns the cached page for key, or nil on miss. Cache
// read errors degrade to a miss.
func (s *ProductService) cachedPage(ctx context.Context, key string) *model.ProductPage {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			log.Printf("[ProductService] cache get failed for %s: %v", key, err)
		}
		return nil
	}

	var page model.ProductPage
	if err := json.Unmarshal(data, &page); err != nil {
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	return &page
}

// storePage writes the page to cache. Write failures are logged and
// swallowed: cache population never fails the primary operation.
func (s *ProductService) storePage(ctx context.Context, key string, page *model.ProductPage, ttl time.Duration) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		log.Printf("[ProductService] cache set failed for %s: %v", key, err)
	}
}

// formatSortValue renders a product's sort-column value for embedding
// in a cursor.
func formatSortValue(sortBy string, p model.Product) string {
	switch sortBy {
	case "name":
		return p.Name
	case "price":
		return strconv.FormatInt(p.PriceCents, 10)
	case "updated_at":
		return p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	default: // created_at
		return p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// parseSortValue parses a cursor's sort component into the column's
// native type so the repository can bind it directly.
func parseSortValue(sortBy, raw string) (interface{}, error) {
	switch sortBy {
	case "name":
		return raw, nil
	case "price":
		return strconv.ParseInt(raw, 10, 64)
	default: // created_at, updated_at
		return time.Parse(time.RFC3339Nano, raw)
	}
}
