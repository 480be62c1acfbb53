package handlers

import (
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	appErrors "github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/lncproducciones/eshops-cart/internal/models"
	service "github.com/lncproducciones/eshops-cart/internal/services"
	"github.com/lncproducciones/eshops-cart/internal/utils"
	"github.com/lncproducciones/eshops-cart/internal/utils/response"
	"github.com/microcosm-cc/bluemonday"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), sessionID)
		if err != nil {
			writeServiceError(w, r, "Failed to load cart", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		var req models.LineItem
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		req.Title = h.clean(req.Title)

		cart, err := h.cartService.AddItem(r.Context(), sessionID, req)
		if err != nil {
			writeServiceError(w, r, "Failed to add item", err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Item added to cart", slog.Int64("productId", req.ProductID), slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItemByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		catalogID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		cart, err := h.cartService.AddItemByID(r.Context(), sessionID, catalogID)
		if err != nil {
			writeServiceError(w, r, "Failed to add catalog product", err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Catalog product added to cart", slog.Int64("catalogId", catalogID))
		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		productID, ok := pathID(w, r, "productId")
		if !ok {
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.UpdateQuantity(r.Context(), sessionID, productID, *req.Quantity)
		if err != nil {
			writeServiceError(w, r, "Failed to update quantity", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		productID, ok := pathID(w, r, "productId")
		if !ok {
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), sessionID, productID)
		if err != nil {
			writeServiceError(w, r, "Failed to remove item", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.ClearCart(r.Context(), sessionID)
		if err != nil {
			writeServiceError(w, r, "Failed to clear cart", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) SetDiscount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		var req models.SetDiscountRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.SetDiscount(r.Context(), sessionID, req.Amount, h.clean(req.Reason))
		if err != nil {
			writeServiceError(w, r, "Failed to set discount", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) SetCustomer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		var req models.Customer
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		req.DocumentNumber = h.clean(req.DocumentNumber)
		req.FirstName = h.clean(req.FirstName)
		req.LastName = h.clean(req.LastName)
		req.Email = strings.TrimSpace(req.Email)
		req.Phone = h.clean(req.Phone)
		req.AddressLine1 = h.clean(req.AddressLine1)
		req.AddressLine2 = h.clean(req.AddressLine2)
		req.Reference = h.clean(req.Reference)

		cart, err := h.cartService.SetCustomer(r.Context(), sessionID, req)
		if err != nil {
			writeServiceError(w, r, "Failed to save customer data", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) ClearCustomer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.ClearCustomer(r.Context(), sessionID)
		if err != nil {
			writeServiceError(w, r, "Failed to clear customer data", err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := requireSession(w, r)
		if !ok {
			return
		}

		result, err := h.cartService.Checkout(r.Context(), sessionID)
		if err != nil {
			writeServiceError(w, r, "Checkout failed", err)
			return
		}

		logger := middleware.LoggerFromContext(r.Context())
		if !result.CartCleared {
			logger.Warn("Order submitted, submitted lines still stored")
		} else {
			logger.Info("Order submitted")
		}
		response.Success(w, http.StatusCreated, result)
	}
}

// maxCleanPasses bounds how many layers of entity encoding clean unwraps.
const maxCleanPasses = 5

// clean strips markup from free text and trims it. Sanitizing and unescaping
// repeat until the text no longer changes, so entity-encoded or split tags
// cannot come back out as markup. Text that does not settle keeps its
// escaped form.
func (h *CartHandler) clean(s string) string {
	for range maxCleanPasses {
		sanitized := h.sanitizer.Sanitize(s)
		plain := html.UnescapeString(sanitized)
		if plain == s {
			return strings.TrimSpace(plain)
		}
		s = plain
	}

	return strings.TrimSpace(h.sanitizer.Sanitize(s))
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		middleware.LoggerFromContext(r.Context()).Warn("Request without session")
		response.Error(w, appErrors.UnauthorizedError("Session required"))
		return "", false
	}

	return sessionID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, appErrors.BadRequestError("Invalid "+name).WithDetail(r.PathValue(name)))
		return 0, false
	}

	return id, true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := middleware.LoggerFromContext(r.Context())

	if appErr, ok := appErrors.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		logger.Warn(msg, slog.String("code", appErr.Code), slog.String("error", err.Error()))
	} else {
		logger.Error(msg, slog.Any("error", err))
	}

	response.Error(w, err)
}
