package mocks

import (
	"context"

	"github.com/lncproducciones/eshops-cart/internal/models"
	"github.com/lncproducciones/eshops-cart/pkg/eshops"
	"github.com/stretchr/testify/mock"
)

type CatalogClient struct {
	mock.Mock
}

func (m *CatalogClient) Connectivity() eshops.Connectivity {
	args := m.Called()
	return args.Get(0).(eshops.Connectivity)
}

func (m *CatalogClient) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *CatalogClient) SubmitOrder(ctx context.Context, order *models.Order) (*models.OrderReceipt, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderReceipt), args.Error(1)
}

func (m *CatalogClient) Status() models.CatalogStatus {
	args := m.Called()
	return args.Get(0).(models.CatalogStatus)
}
