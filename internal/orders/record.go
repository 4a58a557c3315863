package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	Collection     = "orders"
	orderDateField = "orderDate"
	shippedField   = "shipped"
)

type indexer interface {
	CreateIndexes(ctx context.Context, collection, field string) error
}

// EnsureIndexes creates the descending date index used by Refresh.
func EnsureIndexes(ctx context.Context, store indexer) error {
	return store.CreateIndexes(ctx, Collection, orderDateField)
}

// orderRecord is the stored shape of an order. Money is kept as decimal
// strings so every backend round-trips it exactly.
type orderRecord struct {
	ID              string       `bson:"_id,omitempty" json:"_id,omitempty"`
	CustomerName    string       `bson:"customerName" json:"customerName"`
	CustomerEmail   string       `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone   string       `bson:"customerPhone" json:"customerPhone"`
	DeliveryAddress string       `bson:"deliveryAddress" json:"deliveryAddress"`
	Items           []itemRecord `bson:"items" json:"items"`
	Total           string       `bson:"total" json:"total"`
	PaymentMethod   string       `bson:"paymentMethod" json:"paymentMethod"`
	OrderDate       time.Time    `bson:"orderDate" json:"orderDate"`
	Shipped         bool         `bson:"shipped" json:"shipped"`
	UserID          string       `bson:"userId,omitempty" json:"userId,omitempty"`
}

type itemRecord struct {
	ProductID   string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Image       string `bson:"image" json:"image"`
	Price       string `bson:"price" json:"price"`
	Description string `bson:"description" json:"description"`
	Category    string `bson:"category" json:"category"`
	Quantity    int    `bson:"quantity" json:"quantity"`
}

func toRecord(d domain.OrderDraft) orderRecord {
	items := make([]itemRecord, len(d.Items))
	for i, item := range d.Items {
		items[i] = itemRecord{
			ProductID:   item.ID,
			Name:        item.Name,
			Image:       item.Image,
			Price:       item.Price.String(),
			Description: item.Description,
			Category:    string(item.Category),
			Quantity:    item.Quantity,
		}
	}
	return orderRecord{
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		CustomerPhone:   d.CustomerPhone,
		DeliveryAddress: d.DeliveryAddress,
		Items:           items,
		Total:           d.Total.String(),
		PaymentMethod:   string(d.PaymentMethod),
		OrderDate:       d.OrderDate.UTC(),
		Shipped:         d.Shipped,
		UserID:          d.UserID,
	}
}

func fromRecord(r orderRecord) (domain.Order, error) {
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: total %q: %w", r.ID, r.Total, err)
	}

	items := make([]domain.CartItem, len(r.Items))
	for i, item := range r.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: price %q: %w", r.ID, item.Price, err)
		}
		items[i] = domain.CartItem{
			Product: domain.Product{
				ID:          item.ProductID,
				Name:        item.Name,
				Image:       item.Image,
				Price:       price,
				Description: item.Description,
				Category:    domain.Category(item.Category),
			},
			Quantity: item.Quantity,
		}
	}

	return domain.NewOrder(r.ID, domain.OrderDraft{
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		DeliveryAddress: r.DeliveryAddress,
		Items:           items,
		Total:           total,
		PaymentMethod:   domain.PaymentMethod(r.PaymentMethod),
		OrderDate:       r.OrderDate,
		Shipped:         r.Shipped,
		UserID:          r.UserID,
	}), nil
}
