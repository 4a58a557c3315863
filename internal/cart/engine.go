package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/kv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMalformedCart = errors.New("malformed persisted cart")

// Engine holds one visitor's line items. Every change is written to the KV
// store before it becomes visible in memory, so a reload restores exactly the
// state the engine last reported.
type Engine struct {
	mu     sync.Mutex
	store  kv.Store
	key    string
	items  []domain.CartItem
	logger *zap.Logger
}

func Key(visitorID string) string {
	return fmt.Sprintf("cart:%s", visitorID)
}

// Load builds an engine for key and restores whatever was persisted there.
func Load(ctx context.Context, store kv.Store, key string, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		store:  store,
		key:    key,
		items:  []domain.CartItem{},
		logger: logger,
	}
	if err := e.Restore(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Restore replaces the in-memory cart with the persisted one. Malformed data
// is dropped and the cart starts empty; only store failures are returned.
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := e.store.Get(ctx, e.key)
	if errors.Is(err, kv.ErrNotFound) {
		e.items = []domain.CartItem{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	items, err := decode(data)
	if err != nil {
		e.logger.Warn("discarding persisted cart", zap.String("key", e.key), zap.Error(err))
		if errRemove := e.store.Remove(ctx, e.key); errRemove != nil {
			e.logger.Warn("remove malformed cart failed", zap.String("key", e.key), zap.Error(errRemove))
		}
		e.items = []domain.CartItem{}
		return nil
	}

	e.items = items
	return nil
}

// AddToCart increments the line for product.ID or appends a new one.
// Quantities below one are treated as one.
func (e *Engine) AddToCart(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := domain.CloneItems(e.items)
	found := false
	for i := range next {
		if next[i].ID == product.ID {
			next[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		next = append(next, domain.CartItem{Product: product, Quantity: quantity})
	}

	if err := e.persist(ctx, next); err != nil {
		return err
	}
	e.items = next
	return nil
}

// RemoveFromCart drops the line for productID. Unknown ids are a no-op.
func (e *Engine) RemoveFromCart(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]domain.CartItem, 0, len(e.items))
	for _, item := range e.items {
		if item.ID != productID {
			next = append(next, item)
		}
	}
	if len(next) == len(e.items) {
		return nil
	}

	if err := e.persist(ctx, next); err != nil {
		return err
	}
	e.items = next
	return nil
}

// ClearCart empties the cart and deletes its persisted copy.
func (e *Engine) ClearCart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Remove(ctx, e.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	e.items = []domain.CartItem{}
	return nil
}

// RemoveOrdered takes the ordered quantities out of the cart. Lines added or
// topped up after the order snapshot was taken keep the difference. An
// emptied cart is deleted from the store like ClearCart.
func (e *Engine) RemoveOrdered(ctx context.Context, ordered []domain.CartItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	taken := make(map[string]int, len(ordered))
	for _, item := range ordered {
		taken[item.ID] += item.Quantity
	}

	next := make([]domain.CartItem, 0, len(e.items))
	for _, item := range e.items {
		item.Quantity -= taken[item.ID]
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}

	if len(next) == 0 {
		if err := e.store.Remove(ctx, e.key); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		e.items = []domain.CartItem{}
		return nil
	}
	if err := e.persist(ctx, next); err != nil {
		return err
	}
	e.items = next
	return nil
}

func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CartTotal(e.items)
}

// Items returns a copy of the current lines in insertion order.
func (e *Engine) Items() []domain.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneItems(e.items)
}

// Count is the total quantity across all lines.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, item := range e.items {
		n += item.Quantity
	}
	return n
}

func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items) == 0
}

func (e *Engine) persist(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := e.store.Set(ctx, e.key, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func decode(data []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("%w: line without product id", ErrMalformedCart)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %q", ErrMalformedCart, item.ID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d for product %q", ErrMalformedCart, item.Quantity, item.ID)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price for product %q", ErrMalformedCart, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}
