package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	appErrors "github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/lncproducciones/eshops-cart/internal/models"
	"github.com/lncproducciones/eshops-cart/internal/storage"
	"github.com/lncproducciones/eshops-cart/pkg/eshops"
)

// Catalog is the part of the remote catalog the order store depends on.
type Catalog interface {
	Connectivity() eshops.Connectivity
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// OrderStore owns one order and keeps it in sync with its storage slot.
// Every mutating call recomputes the summary and writes the whole order
// before returning; if the write fails the in-memory order is rolled back.
type OrderStore struct {
	mu      sync.Mutex
	store   storage.Storage
	key     string
	ttl     time.Duration
	catalog Catalog
	order   models.Order
}

type OrderStoreOption func(*OrderStore)

// WithTTL sets the expiry written with every save. Zero uses the storage default.
func WithTTL(ttl time.Duration) OrderStoreOption {
	return func(s *OrderStore) {
		s.ttl = ttl
	}
}

// OpenOrderStore loads the order saved under key. A missing or unreadable
// slot starts a new empty order, which is saved right away.
func OpenOrderStore(ctx context.Context, store storage.Storage, key string, catalog Catalog, opts ...OrderStoreOption) (*OrderStore, error) {
	logger := middleware.LoggerFromContext(ctx)

	s := &OrderStore{
		store:   store,
		key:     key,
		catalog: catalog,
	}

	for _, opt := range opts {
		opt(s)
	}

	var order models.Order

	found, err := store.Get(ctx, key, &order)
	if err != nil {
		logger.Warn("Stored order is unreadable, starting a new one", slog.String("key", key), slog.Any("error", err))
		found = false
	}

	if found {
		if order.Items == nil {
			order.Items = []models.LineItem{}
		}
		s.order = order
		return s, nil
	}

	s.order = models.NewOrder()

	if err := store.Set(ctx, key, s.order, s.ttl); err != nil {
		logger.Error("Failed to save new order", slog.String("key", key), slog.Any("error", err))
		return nil, appErrors.PersistenceError("Failed to save the order").WithError(err)
	}

	logger.Debug("Created new order", slog.String("key", key))
	return s, nil
}

// Order returns a copy of the current order.
func (s *OrderStore) Order() models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order.Clone()
}

// AddItem adds a line to the cart. When the product is already present the
// quantities are merged and the existing price snapshot is kept. LineTotal
// is always recomputed.
func (s *OrderStore) AddItem(ctx context.Context, item models.LineItem) error {
	if item.Quantity <= 0 {
		return appErrors.AddValidationError("cantidad", "must be greater than 0")
	}

	if item.UnitPrice < 0 {
		return appErrors.AddValidationError("unitario", "must not be negative")
	}

	return s.mutate(ctx, true, func(o *models.Order) {
		if idx := o.FindItem(item.ProductID); idx >= 0 {
			o.Items[idx].Quantity += item.Quantity
			return
		}

		o.Items = append(o.Items, item)
	})
}

// AddItemByID fetches the product from the catalog and adds one unit of it.
// Nothing changes when the catalog is offline or the lookup fails.
func (s *OrderStore) AddItemByID(ctx context.Context, catalogID int64) error {
	if s.catalog == nil || s.catalog.Connectivity() != eshops.Online {
		return appErrors.CatalogLookupError("Catalog is offline").WithError(eshops.ErrOffline)
	}

	product, err := s.catalog.GetProduct(ctx, catalogID)
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Catalog lookup failed", slog.Int64("catalogId", catalogID), slog.Any("error", err))
		return appErrors.CatalogLookupError("Failed to fetch product from catalog").WithError(err)
	}

	return s.AddItem(ctx, product.LineItem(1))
}

// UpdateQuantity sets the quantity of a line. A quantity <= 0 removes it;
// an unknown product is a no-op.
func (s *OrderStore) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	return s.mutate(ctx, true, func(o *models.Order) {
		if idx := o.FindItem(productID); idx >= 0 {
			o.Items[idx].Quantity = quantity
		}
	})
}

func (s *OrderStore) RemoveItem(ctx context.Context, productID int64) error {
	return s.mutate(ctx, true, func(o *models.Order) {
		o.Items = slices.DeleteFunc(o.Items, func(it models.LineItem) bool {
			return it.ProductID == productID
		})
	})
}

// ClearCart drops every line. Discount and customer are kept.
func (s *OrderStore) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, true, func(o *models.Order) {
		o.Items = []models.LineItem{}
	})
}

// SetDiscount stores the discount as given. It is not checked against the
// subtotal, so the total may become negative.
func (s *OrderStore) SetDiscount(ctx context.Context, amount float64, reason string) error {
	if amount < 0 {
		return appErrors.AddValidationError("monto", "must not be negative")
	}

	return s.mutate(ctx, true, func(o *models.Order) {
		o.Summary.Discount = amount
		o.Summary.DiscountReason = reason
	})
}

func (s *OrderStore) SetCustomer(ctx context.Context, customer models.Customer) error {
	return s.mutate(ctx, false, func(o *models.Order) {
		o.Customer = customer
	})
}

func (s *OrderStore) ClearCustomer(ctx context.Context) error {
	return s.mutate(ctx, false, func(o *models.Order) {
		o.Customer = models.Customer{}
	})
}

func (s *OrderStore) HasCompleteCustomer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order.Customer.IsComplete()
}

func (s *OrderStore) HasItems() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.order.Items) > 0
}

func (s *OrderStore) CanCheckout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.order.Items) > 0 && s.order.Customer.IsComplete()
}

// reset replaces the in-memory order with an empty one without saving it.
// It follows a Delete of the slot.
func (s *OrderStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = models.NewOrder()
}

func (s *OrderStore) recompute() {
	s.order.Recompute()
}

func (s *OrderStore) mutate(ctx context.Context, recompute bool, apply func(o *models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.order.Clone()

	apply(&s.order)

	if recompute {
		s.recompute()
	}

	if err := s.store.Set(ctx, s.key, s.order, s.ttl); err != nil {
		s.order = previous
		middleware.LoggerFromContext(ctx).Error("Failed to save order, change discarded", slog.String("key", s.key), slog.Any("error", err))
		return appErrors.PersistenceError("Failed to save the order").WithError(err)
	}

	return nil
}
