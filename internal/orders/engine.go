package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fjod/storefront/internal/docstore"
	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("an authenticated session is required")

// PrincipalSource reports who is signed in, or nil.
type PrincipalSource interface {
	Principal() *domain.Principal
}

// Engine mirrors the remote order collection. Writes go to the store first
// and are reflected locally only after they succeed. The mirror does not see
// other clients' writes until Refresh.
type Engine struct {
	store   docstore.Store
	session PrincipalSource
	logger  *zap.Logger

	mu     sync.Mutex
	all    []domain.Order
	mine   []domain.Order
	mineOf string
}

func NewEngine(store docstore.Store, session PrincipalSource, logger *zap.Logger) *Engine {
	return &Engine{
		store:   store,
		session: session,
		logger:  logger,
	}
}

// Refresh reloads every order from the store, newest first.
func (e *Engine) Refresh(ctx context.Context) error {
	var records []orderRecord
	err := e.store.ListAll(ctx, Collection, docstore.SortSpec{Field: orderDateField, Descending: true}, &records)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	loaded := make([]domain.Order, 0, len(records))
	for _, r := range records {
		order, err := fromRecord(r)
		if err != nil {
			e.logger.Warn("skipping unreadable order", zap.String("order_id", r.ID), zap.Error(err))
			continue
		}
		loaded = append(loaded, order)
	}
	sortByDateDesc(loaded)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = loaded
	e.mineOf = ""
	e.mine = nil
	if p := e.session.Principal(); p != nil {
		e.mineOf = p.ID
		e.mine = filterByUser(loaded, p.ID)
	}
	return nil
}

// AddOrder stores draft and reflects the resulting order locally.
func (e *Engine) AddOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	principal := e.session.Principal()
	if principal == nil {
		return domain.Order{}, ErrUnauthenticated
	}

	id, err := e.store.Insert(ctx, Collection, toRecord(draft))
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	order := domain.NewOrder(id, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = prepend(e.all, order)
	if order.UserID != "" && order.UserID == principal.ID {
		if e.mineOf == principal.ID {
			e.mine = prepend(e.mine, order)
		} else {
			e.mineOf = principal.ID
			e.mine = filterByUser(e.all, principal.ID)
		}
	}

	e.logger.Info("order recorded",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Stringer("total", order.Total))
	return cloneOrder(order), nil
}

// ToggleOrderShipped flips the shipped flag of orderID. Unknown ids are
// ignored. The store is written first; on failure nothing changes locally.
func (e *Engine) ToggleOrderShipped(ctx context.Context, orderID string) error {
	e.mu.Lock()
	current, found := e.findLocked(orderID)
	e.mu.Unlock()
	if !found {
		return nil
	}

	next := !current.Shipped
	if err := e.store.Update(ctx, Collection, orderID, map[string]any{shippedField: next}); err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	setShipped(e.all, orderID, next)
	setShipped(e.mine, orderID, next)
	return nil
}

// ListOrders returns every mirrored order, newest first.
func (e *Engine) ListOrders() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneOrders(e.all)
}

// ListOrdersForPrincipal filters the mirror on UserID.
func (e *Engine) ListOrdersForPrincipal(principalID string) []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	if principalID != "" && principalID == e.mineOf {
		return cloneOrders(e.mine)
	}
	return cloneOrders(filterByUser(e.all, principalID))
}

func (e *Engine) findLocked(orderID string) (domain.Order, bool) {
	for _, o := range e.all {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}

func setShipped(list []domain.Order, orderID string, shipped bool) {
	for i := range list {
		if list[i].ID == orderID {
			list[i].Shipped = shipped
		}
	}
}

func filterByUser(list []domain.Order, userID string) []domain.Order {
	out := []domain.Order{}
	if userID == "" {
		return out
	}
	for _, o := range list {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

func prepend(list []domain.Order, order domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(list)+1)
	out = append(out, order)
	out = append(out, list...)
	sortByDateDesc(out)
	return out
}

func sortByDateDesc(list []domain.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OrderDate.After(list[j].OrderDate)
	})
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = domain.CloneItems(o.Items)
	return o
}

func cloneOrders(list []domain.Order) []domain.Order {
	out := make([]domain.Order, len(list))
	for i, o := range list {
		out[i] = cloneOrder(o)
	}
	return out
}
