package handler

import (
	"net/http"
	"strconv"

	"storefront-api/internal/model"
	"storefront-api/internal/service"
	"storefront-api/pkg/apierror"
	"storefront-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	page, err := h.productService.ListProducts(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, page.Data, &response.Meta{
		NextCursor: page.Pagination.NextCursor,
		HasMore:    page.Pagination.HasMore,
		Limit:      page.Pagination.Limit,
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("product id is required"))
		return
	}

	product, err := h.productService.GetProductByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, product)
}

// parseFilter reads listing query parameters. Numeric parse failures
// are client errors; everything else is validated by the service.
func parseFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()

	filter := model.ProductFilter{
		Cursor:    q.Get("cursor"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Category:  q.Get("category"),
		Search:    q.Get("search"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apierror.BadRequest("limit must be an integer")
		}
		filter.Limit = limit
	}

	if raw := q.Get("min_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apierror.BadRequest("min_price must be an integer (cents)")
		}
		filter.MinPrice = &v
	}

	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, apierror.BadRequest("max_price must be an integer (cents)")
		}
		filter.MaxPrice = &v
	}

	return filter, nil
}
