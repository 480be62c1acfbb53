package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRecompute(t *testing.T) {
	order := NewOrder()
	order.Items = []LineItem{
		{ProductID: 1, UnitPrice: 10, Quantity: 2, LineTotal: 999},
		{ProductID: 2, UnitPrice: 1.15, Quantity: 3},
	}
	order.Summary.Discount = 4.45

	order.Recompute()

	assert.Equal(t, 20.0, order.Items[0].LineTotal)
	assert.Equal(t, 3.45, order.Items[1].LineTotal)
	assert.Equal(t, 2, order.Summary.ItemCount)
	assert.Equal(t, 23.45, order.Summary.Subtotal)
	assert.Equal(t, 19.0, order.Summary.Total)
}

func TestOrderClone(t *testing.T) {
	order := NewOrder()
	order.Items = append(order.Items, LineItem{ProductID: 1, Quantity: 1})

	clone := order.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, order.Items[0].Quantity)

	empty := Order{}
	assert.NotNil(t, empty.Clone().Items)
}

func TestOrderFindItem(t *testing.T) {
	order := NewOrder()
	order.Items = []LineItem{{ProductID: 4}, {ProductID: 8}}

	assert.Equal(t, 1, order.FindItem(8))
	assert.Equal(t, -1, order.FindItem(5))
}

func TestCustomerIsComplete(t *testing.T) {
	complete := Customer{
		DocumentType:   1,
		DocumentNumber: "12345678",
		FirstName:      "Ana",
		LastName:       "Pérez",
		Email:          "ana@example.com",
		Phone:          "555-0100",
		AddressLine1:   "Calle 1",
		CityID:         1,
		MunicipalityID: 2,
		RegionID:       3,
		CountryID:      4,
	}
	assert.True(t, complete.IsComplete())

	tests := []struct {
		name  string
		clear func(c *Customer)
	}{
		{"document type", func(c *Customer) { c.DocumentType = 0 }},
		{"document number", func(c *Customer) { c.DocumentNumber = "" }},
		{"first name", func(c *Customer) { c.FirstName = "" }},
		{"last name", func(c *Customer) { c.LastName = "" }},
		{"email", func(c *Customer) { c.Email = "" }},
		{"phone", func(c *Customer) { c.Phone = "" }},
		{"address", func(c *Customer) { c.AddressLine1 = "" }},
		{"city", func(c *Customer) { c.CityID = 0 }},
		{"municipality", func(c *Customer) { c.MunicipalityID = 0 }},
		{"region", func(c *Customer) { c.RegionID = 0 }},
		{"country", func(c *Customer) { c.CountryID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := complete
			tt.clear(&c)
			assert.False(t, c.IsComplete())
		})
	}

	optional := complete
	optional.AddressLine2 = ""
	optional.Reference = ""
	assert.True(t, optional.IsComplete())
}

func TestOrderJSONFieldNames(t *testing.T) {
	order := NewOrder()
	order.Items = append(order.Items, LineItem{ProductID: 1, Title: "Widget", UnitPrice: 10, Quantity: 2})
	order.Recompute()

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "cliente")
	assert.Contains(t, raw, "items")
	assert.Contains(t, raw, "resumen")

	var summary map[string]any
	require.NoError(t, json.Unmarshal(raw["resumen"], &summary))
	for _, key := range []string{"observaciones", "items", "subtotal", "descuento", "descuentoMotivo", "total"} {
		assert.Contains(t, summary, key)
	}

	var items []map[string]any
	require.NoError(t, json.Unmarshal(raw["items"], &items))
	require.Len(t, items, 1)
	for _, key := range []string{"productoId", "titulo", "imageUrl", "unitario", "cantidad", "monto"} {
		assert.Contains(t, items[0], key)
	}
}

func TestNewCartView(t *testing.T) {
	order := NewOrder()
	view := NewCartView(order)
	assert.False(t, view.HasItems)
	assert.False(t, view.CanCheckout)

	order.Items = append(order.Items, LineItem{ProductID: 1, Quantity: 1})
	view = NewCartView(order)
	assert.True(t, view.HasItems)
	assert.False(t, view.HasCompleteCustomer)
	assert.False(t, view.CanCheckout)
}
