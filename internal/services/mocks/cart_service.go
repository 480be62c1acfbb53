package mocks

import (
	"context"

	"github.com/lncproducciones/eshops-cart/internal/models"
	"github.com/stretchr/testify/mock"
)

type CartService struct {
	mock.Mock
}

func cartView(args mock.Arguments) (*models.CartView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CartView), args.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID))
}

func (m *CartService) AddItem(ctx context.Context, sessionID string, item models.LineItem) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, item))
}

func (m *CartService) AddItemByID(ctx context.Context, sessionID string, catalogID int64) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, catalogID))
}

func (m *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, productID, quantity))
}

func (m *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, productID))
}

func (m *CartService) ClearCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID))
}

func (m *CartService) SetDiscount(ctx context.Context, sessionID string, amount float64, reason string) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, amount, reason))
}

func (m *CartService) SetCustomer(ctx context.Context, sessionID string, customer models.Customer) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID, customer))
}

func (m *CartService) ClearCustomer(ctx context.Context, sessionID string) (*models.CartView, error) {
	return cartView(m.Called(ctx, sessionID))
}

func (m *CartService) Checkout(ctx context.Context, sessionID string) (*models.CheckoutResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutResult), args.Error(1)
}

func (m *CartService) CatalogStatus() models.CatalogStatus {
	args := m.Called()
	return args.Get(0).(models.CatalogStatus)
}
