package models

import "encoding/json"

// Product is the subset of a remote catalog item the cart needs.
type Product struct {
	ProductID int64   `json:"productoId"`
	Title     string  `json:"titulo"`
	ImageURL  string  `json:"imageUrl"`
	UnitPrice float64 `json:"unitario"`
}

// LineItem snapshots the product into a cart line of the given quantity.
func (p *Product) LineItem(quantity int) LineItem {
	return LineItem{
		ProductID: p.ProductID,
		Title:     p.Title,
		ImageURL:  p.ImageURL,
		UnitPrice: p.UnitPrice,
		Quantity:  quantity,
		LineTotal: p.UnitPrice * float64(quantity),
	}
}

// OrderReceipt is what the remote backend answers to an order submission.
type OrderReceipt struct {
	Result json.RawMessage `json:"resultado"`
}

// CheckoutResult bundles the remote receipt and the cart after checkout.
// CartCleared is false when the backend accepted the order but the stored
// cart still holds the submitted lines.
type CheckoutResult struct {
	Receipt     *OrderReceipt `json:"receipt"`
	Cart        *CartView     `json:"cart"`
	CartCleared bool          `json:"cartCleared"`
}

// CatalogStatus describes the connectivity of the remote catalog.
type CatalogStatus struct {
	Online  bool   `json:"online"`
	Version string `json:"version"`
}
