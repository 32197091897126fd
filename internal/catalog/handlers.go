package catalog

import (
	"net/http"

	"github.com/noah-isme/basket-pricing/internal/common"
)

// Handler exposes the configured catalog over HTTP.
type Handler struct {
	Catalog *Catalog
}

// Products lists every product in configuration order.
func (h Handler) Products(w http.ResponseWriter, _ *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.List(w, h.Catalog.Products())
}
