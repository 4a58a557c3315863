package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartTotal_Empty(t *testing.T) {
	assert.True(t, CartTotal(nil).IsZero())
}

func TestCartTotal_SumsLines(t *testing.T) {
	items := []CartItem{
		{Product: Product{ID: "p1", Price: decimal.RequireFromString("10.10")}, Quantity: 3},
		{Product: Product{ID: "p2", Price: decimal.RequireFromString("0.20")}, Quantity: 1},
	}
	assert.Equal(t, "30.5", CartTotal(items).String())
}

func TestNewOrder_CopiesItems(t *testing.T) {
	items := []CartItem{{Product: Product{ID: "p1", Price: decimal.NewFromInt(5)}, Quantity: 1}}
	order := NewOrder("o1", OrderDraft{Items: items, Total: CartTotal(items), OrderDate: time.Now()})

	items[0].Quantity = 99

	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, "5", order.Total.String())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryMobiles.Valid())
	assert.False(t, Category("Toys").Valid())
}
