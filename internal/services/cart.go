package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	appErrors "github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/lncproducciones/eshops-cart/internal/metrics"
	"github.com/lncproducciones/eshops-cart/internal/models"
	"github.com/lncproducciones/eshops-cart/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CatalogClient is the remote catalog as seen by the cart service.
type CatalogClient interface {
	Catalog
	SubmitOrder(ctx context.Context, order *models.Order) (*models.OrderReceipt, error)
	Status() models.CatalogStatus
}

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*models.CartView, error)
	AddItem(ctx context.Context, sessionID string, item models.LineItem) (*models.CartView, error)
	AddItemByID(ctx context.Context, sessionID string, catalogID int64) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*models.CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*models.CartView, error)
	ClearCart(ctx context.Context, sessionID string) (*models.CartView, error)
	SetDiscount(ctx context.Context, sessionID string, amount float64, reason string) (*models.CartView, error)
	SetCustomer(ctx context.Context, sessionID string, customer models.Customer) (*models.CartView, error)
	ClearCustomer(ctx context.Context, sessionID string) (*models.CartView, error)
	Checkout(ctx context.Context, sessionID string) (*models.CheckoutResult, error)
	CatalogStatus() models.CatalogStatus
}

type cartService struct {
	store      storage.Storage
	catalog    CatalogClient
	sessionTTL time.Duration
	locks      *sessionLocks
	tracer     trace.Tracer
}

func NewCartService(store storage.Storage, catalog CatalogClient, sessionTTL time.Duration) CartService {
	return &cartService{
		store:      store,
		catalog:    catalog,
		sessionTTL: sessionTTL,
		locks:      newSessionLocks(),
		tracer:     otel.Tracer("github.com/lncproducciones/eshops-cart/internal/services"),
	}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return s.run(ctx, sessionID, "get_cart", nil)
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, item models.LineItem) (*models.CartView, error) {
	return s.run(ctx, sessionID, "add_item", func(ctx context.Context, orders *OrderStore) error {
		return orders.AddItem(ctx, item)
	})
}

func (s *cartService) AddItemByID(ctx context.Context, sessionID string, catalogID int64) (*models.CartView, error) {
	return s.run(ctx, sessionID, "add_item_by_id", func(ctx context.Context, orders *OrderStore) error {
		return orders.AddItemByID(ctx, catalogID)
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*models.CartView, error) {
	return s.run(ctx, sessionID, "update_quantity", func(ctx context.Context, orders *OrderStore) error {
		return orders.UpdateQuantity(ctx, productID, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*models.CartView, error) {
	return s.run(ctx, sessionID, "remove_item", func(ctx context.Context, orders *OrderStore) error {
		return orders.RemoveItem(ctx, productID)
	})
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return s.run(ctx, sessionID, "clear_cart", func(ctx context.Context, orders *OrderStore) error {
		return orders.ClearCart(ctx)
	})
}

func (s *cartService) SetDiscount(ctx context.Context, sessionID string, amount float64, reason string) (*models.CartView, error) {
	return s.run(ctx, sessionID, "set_discount", func(ctx context.Context, orders *OrderStore) error {
		return orders.SetDiscount(ctx, amount, reason)
	})
}

func (s *cartService) SetCustomer(ctx context.Context, sessionID string, customer models.Customer) (*models.CartView, error) {
	return s.run(ctx, sessionID, "set_customer", func(ctx context.Context, orders *OrderStore) error {
		return orders.SetCustomer(ctx, customer)
	})
}

func (s *cartService) ClearCustomer(ctx context.Context, sessionID string) (*models.CartView, error) {
	return s.run(ctx, sessionID, "clear_customer", func(ctx context.Context, orders *OrderStore) error {
		return orders.ClearCustomer(ctx)
	})
}

// Checkout submits a ready order to the remote backend and empties the cart
// lines. Customer data and discount are kept for the next order.
//
// Once the backend has accepted the order the call never fails: if the
// emptied cart cannot be saved the session slot is dropped instead, and the
// receipt is returned with CartCleared reporting whether either worked.
func (s *cartService) Checkout(ctx context.Context, sessionID string) (*models.CheckoutResult, error) {
	result := &models.CheckoutResult{}

	view, err := s.run(ctx, sessionID, "checkout", func(ctx context.Context, orders *OrderStore) error {
		if !orders.CanCheckout() {
			detail := "customer data is incomplete"
			if !orders.HasItems() {
				detail = "the cart is empty"
			}
			return appErrors.ValidationError("Order is not ready for checkout").WithDetail(detail)
		}

		order := orders.Order()

		receipt, err := s.catalog.SubmitOrder(ctx, &order)
		if err != nil {
			return appErrors.CatalogLookupError("Failed to submit the order").WithError(err)
		}

		result.Receipt = receipt
		result.CartCleared = s.clearAfterCheckout(ctx, sessionID, orders)

		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Cart = view

	return result, nil
}

// clearAfterCheckout empties the submitted lines. When the emptied order
// cannot be saved the whole session slot is deleted so a retry cannot submit
// the same lines twice.
func (s *cartService) clearAfterCheckout(ctx context.Context, sessionID string, orders *OrderStore) bool {
	logger := middleware.LoggerFromContext(ctx)

	err := orders.ClearCart(ctx)
	if err == nil {
		return true
	}

	logger.Error("Order submitted but the cart could not be cleared", slog.String("sessionId", sessionID), slog.Any("error", err))

	if err := s.store.Delete(ctx, storage.SessionKey(sessionID)); err != nil {
		logger.Error("Failed to drop the submitted order", slog.String("sessionId", sessionID), slog.Any("error", err))
		return false
	}

	orders.reset()

	return true
}

func (s *cartService) CatalogStatus() models.CatalogStatus {
	return s.catalog.Status()
}

func (s *cartService) run(ctx context.Context, sessionID, operation string, fn func(context.Context, *OrderStore) error) (view *models.CartView, err error) {
	ctx, span := s.tracer.Start(ctx, "cart."+operation, trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.ObserveCartOperation(operation, "error")
			return
		}
		metrics.ObserveCartOperation(operation, "success")
	}()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	orders, err := OpenOrderStore(ctx, s.store, storage.SessionKey(sessionID), s.catalog, WithTTL(s.sessionTTL))
	if err != nil {
		return nil, err
	}

	if fn != nil {
		if err := fn(ctx, orders); err != nil {
			return nil, err
		}
	}

	return models.NewCartView(orders.Order()), nil
}
