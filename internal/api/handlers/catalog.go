package handlers

import (
	"net/http"

	service "github.com/lncproducciones/eshops-cart/internal/services"
	"github.com/lncproducciones/eshops-cart/internal/utils/response"
)

type CatalogHandler struct {
	cartService service.CartService
}

func NewCatalogHandler(cartService service.CartService) *CatalogHandler {
	return &CatalogHandler{cartService: cartService}
}

// Status reports whether the remote catalog is reachable and its version.
func (h *CatalogHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.cartService.CatalogStatus())
	}
}
