package notify

import "context"

// OrderContext is what the seller is told about a new order.
type OrderContext struct {
	Reference       string `json:"order_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	DeliveryAddress string `json:"delivery_address"`
	Summary         string `json:"order_summary"`
}

type Result struct {
	EmailSent    bool `json:"email_sent"`
	WhatsAppSent bool `json:"whatsapp_sent"`
}

// Delivered reports whether at least one channel got through.
func (r Result) Delivered() bool {
	return r.EmailSent || r.WhatsAppSent
}

type Notifier interface {
	Notify(ctx context.Context, order OrderContext) (Result, error)
}
