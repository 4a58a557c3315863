package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const PaymentMethodCOD PaymentMethod = "COD"

func (p PaymentMethod) Valid() bool {
	return p == PaymentMethodCOD
}

// OrderDraft is everything an order carries before the store assigns it an id.
type OrderDraft struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	DeliveryAddress string
	Items           []CartItem
	Total           decimal.Decimal
	PaymentMethod   PaymentMethod
	OrderDate       time.Time
	Shipped         bool
	UserID          string
}

type Order struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	OrderDate       time.Time       `json:"order_date"`
	Shipped         bool            `json:"shipped"`
	UserID          string          `json:"user_id,omitempty"`
}

// NewOrder binds a stored id to a draft. Items are copied so the order never
// aliases the cart it was taken from.
func NewOrder(id string, draft OrderDraft) Order {
	return Order{
		ID:              id,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		DeliveryAddress: draft.DeliveryAddress,
		Items:           CloneItems(draft.Items),
		Total:           draft.Total,
		PaymentMethod:   draft.PaymentMethod,
		OrderDate:       draft.OrderDate,
		Shipped:         draft.Shipped,
		UserID:          draft.UserID,
	}
}
