package handler

import (
	"net/http"

	"storefront-api/internal/resilience"
	"storefront-api/internal/service"
	"storefront-api/pkg/apierror"
	"storefront-api/pkg/response"
)

// AdminHandler exposes operational statistics.
type AdminHandler struct {
	productService *service.ProductService
	breaker        *resilience.CircuitBreaker
	dbType         string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(productService *service.ProductService, breaker *resilience.CircuitBreaker, dbType string) *AdminHandler {
	return &AdminHandler{
		productService: productService,
		breaker:        breaker,
		dbType:         dbType,
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.productService.GetStats(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to collect stats"))
		return
	}

	stats["db_type"] = h.dbType
	if h.breaker != nil {
		stats["issuer_circuit"] = h.breaker.State().String()
	}

	response.OK(w, stats)
}
