package models

type UpdateQuantityRequest struct {
	Quantity *int `json:"cantidad" validate:"required"`
}

type SetDiscountRequest struct {
	Amount float64 `json:"monto"  validate:"gte=0"`
	Reason string  `json:"motivo" validate:"max=200"`
}
