package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// LineItem is one product-and-quantity entry of the cart. Display metadata
// and unit price are a snapshot taken when the item was added.
type LineItem struct {
	ProductID int64   `json:"productoId" validate:"required,gt=0"`
	Title     string  `json:"titulo"`
	ImageURL  string  `json:"imageUrl"`
	UnitPrice float64 `json:"unitario"   validate:"gte=0"`
	Quantity  int     `json:"cantidad"   validate:"required,gt=0"`
	LineTotal float64 `json:"monto"`
}

// Customer holds the buyer identity and shipping address. Numeric ids are 0
// when unset.
type Customer struct {
	DocumentType   int64  `json:"tipoDocumento" validate:"gte=0"`
	DocumentNumber string `json:"identidad"`
	FirstName      string `json:"nombres"`
	LastName       string `json:"apellidos"`
	Email          string `json:"correo"        validate:"omitempty,email"`
	Phone          string `json:"telefono"`
	AddressLine1   string `json:"direccion1"`
	AddressLine2   string `json:"direccion2"`
	Reference      string `json:"referencia"`
	CityID         int64  `json:"ciudad"        validate:"gte=0"`
	MunicipalityID int64  `json:"municipio"     validate:"gte=0"`
	RegionID       int64  `json:"estado"        validate:"gte=0"`
	CountryID      int64  `json:"pais"          validate:"gte=0"`
}

// IsComplete reports whether the customer carries everything needed to place
// an order. AddressLine2 and Reference are optional.
func (c Customer) IsComplete() bool {
	return c.DocumentType > 0 &&
		c.DocumentNumber != "" &&
		c.FirstName != "" &&
		c.LastName != "" &&
		c.Email != "" &&
		c.Phone != "" &&
		c.AddressLine1 != "" &&
		c.CityID > 0 &&
		c.MunicipalityID > 0 &&
		c.RegionID > 0 &&
		c.CountryID > 0
}

// OrderSummary is derived from the line items and the discount fields.
// Only Discount, DiscountReason and Notes are ever written directly.
type OrderSummary struct {
	Notes          string  `json:"observaciones"`
	ItemCount      int     `json:"items"`
	Subtotal       float64 `json:"subtotal"`
	Discount       float64 `json:"descuento"`
	DiscountReason string  `json:"descuentoMotivo"`
	Total          float64 `json:"total"`
}

// Order is the cart aggregate persisted as a single unit.
type Order struct {
	Customer Customer     `json:"cliente"`
	Items    []LineItem   `json:"items"`
	Summary  OrderSummary `json:"resumen"`
}

// NewOrder returns the empty-cart default.
func NewOrder() Order {
	return Order{
		Customer: Customer{},
		Items:    []LineItem{},
		Summary:  OrderSummary{},
	}
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	if c.Items == nil {
		c.Items = []LineItem{}
	}

	return c
}

// FindItem returns the index of the line for productID, or -1.
func (o *Order) FindItem(productID int64) int {
	return slices.IndexFunc(o.Items, func(it LineItem) bool {
		return it.ProductID == productID
	})
}

// Recompute refreshes every derived field from the line items and the
// discount. Nothing is updated incrementally.
func (o *Order) Recompute() {
	subtotal := decimal.Zero

	for i := range o.Items {
		line := decimal.NewFromFloat(o.Items[i].UnitPrice).Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		o.Items[i].LineTotal = line.InexactFloat64()
		subtotal = subtotal.Add(line)
	}

	o.Summary.ItemCount = len(o.Items)
	o.Summary.Subtotal = subtotal.InexactFloat64()
	o.Summary.Total = subtotal.Sub(decimal.NewFromFloat(o.Summary.Discount)).InexactFloat64()
}

// CartView is the order as returned to clients, along with its checkout
// readiness flags.
type CartView struct {
	Order               Order `json:"pedido"`
	HasItems            bool  `json:"hasItems"`
	HasCompleteCustomer bool  `json:"hasCompleteCustomer"`
	CanCheckout         bool  `json:"canCheckout"`
}

func NewCartView(order Order) *CartView {
	hasItems := len(order.Items) > 0
	complete := order.Customer.IsComplete()

	return &CartView{
		Order:               order,
		HasItems:            hasItems,
		HasCompleteCustomer: complete,
		CanCheckout:         hasItems && complete,
	}
}
