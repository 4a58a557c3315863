package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/docstore"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	principal *domain.Principal
}

func (f *fakeSession) Principal() *domain.Principal {
	return f.principal
}

// failingStore wraps a MemoryStore and fails the configured operations.
type failingStore struct {
	*docstore.MemoryStore
	insertErr error
	updateErr error
	listErr   error
	updates   int
}

func (f *failingStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	return f.MemoryStore.Insert(ctx, collection, doc)
}

func (f *failingStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.MemoryStore.Update(ctx, collection, id, fields)
}

func (f *failingStore) ListAll(ctx context.Context, collection string, sort docstore.SortSpec, out any) error {
	if f.listErr != nil {
		return f.listErr
	}
	return f.MemoryStore.ListAll(ctx, collection, sort, out)
}

var ann = &domain.Principal{ID: "u-ann", Email: "ann@example.com"}

func draft(userID string, at time.Time, price string, qty int) domain.OrderDraft {
	items := []domain.CartItem{{
		Product:  domain.Product{ID: "p1", Name: "Phone", Price: decimal.RequireFromString(price), Category: domain.CategoryMobiles},
		Quantity: qty,
	}}
	return domain.OrderDraft{
		CustomerName:    "Ann",
		CustomerEmail:   "ann@example.com",
		CustomerPhone:   "0123456789",
		DeliveryAddress: "1 Long Street, Town",
		Items:           items,
		Total:           domain.CartTotal(items),
		PaymentMethod:   domain.PaymentMethodCOD,
		OrderDate:       at,
		UserID:          userID,
	}
}

func newTestEngine(store docstore.Store, p *domain.Principal) *Engine {
	return NewEngine(store, &fakeSession{principal: p}, zap.NewNop())
}

func TestAddOrder_RecordsAndMirrors(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	e := newTestEngine(store, ann)
	now := time.Now()

	order, err := e.AddOrder(context.Background(), draft(ann.ID, now, "25.50", 4))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "102", order.Total.String())
	assert.Len(t, e.ListOrders(), 1)
	mine := e.ListOrdersForPrincipal(ann.ID)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
}

func TestAddOrder_OtherUserNotInPrincipalList(t *testing.T) {
	e := newTestEngine(docstore.NewMemoryStore(), ann)

	_, err := e.AddOrder(context.Background(), draft("u-someone-else", time.Now(), "1", 1))
	require.NoError(t, err)

	assert.Len(t, e.ListOrders(), 1)
	assert.Empty(t, e.ListOrdersForPrincipal(ann.ID))
}

func TestAddOrder_RequiresSession(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	e := newTestEngine(store, nil)

	_, err := e.AddOrder(context.Background(), draft("", time.Now(), "1", 1))

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, e.ListOrders())
}

func TestAddOrder_StoreFailure(t *testing.T) {
	storeErr := errors.New("write rejected")
	store := &failingStore{MemoryStore: docstore.NewMemoryStore(), insertErr: storeErr}
	e := newTestEngine(store, ann)

	_, err := e.AddOrder(context.Background(), draft(ann.ID, time.Now(), "1", 1))

	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, e.ListOrders())
	assert.Empty(t, e.ListOrdersForPrincipal(ann.ID))
}

func TestAddOrder_SnapshotIndependentOfInput(t *testing.T) {
	e := newTestEngine(docstore.NewMemoryStore(), ann)
	d := draft(ann.ID, time.Now(), "10", 2)

	order, err := e.AddOrder(context.Background(), d)
	require.NoError(t, err)
	d.Items[0].Quantity = 50

	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 2, e.ListOrders()[0].Items[0].Quantity)
	assert.Equal(t, "20", e.ListOrders()[0].Total.String())
}

func TestToggleOrderShipped(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	e := newTestEngine(store, ann)
	ctx := context.Background()
	order, err := e.AddOrder(ctx, draft(ann.ID, time.Now(), "1", 1))
	require.NoError(t, err)

	require.NoError(t, e.ToggleOrderShipped(ctx, order.ID))
	assert.True(t, e.ListOrders()[0].Shipped)
	assert.True(t, e.ListOrdersForPrincipal(ann.ID)[0].Shipped)

	require.NoError(t, e.ToggleOrderShipped(ctx, order.ID))
	assert.False(t, e.ListOrders()[0].Shipped)

	// the store saw the same value
	require.NoError(t, e.Refresh(ctx))
	assert.False(t, e.ListOrders()[0].Shipped)
}

func TestToggleOrderShipped_UnknownIDIsNoop(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	e := newTestEngine(store, ann)
	ctx := context.Background()
	_, err := e.AddOrder(ctx, draft(ann.ID, time.Now(), "1", 1))
	require.NoError(t, err)
	before := e.ListOrders()

	require.NoError(t, e.ToggleOrderShipped(ctx, "missing-id"))

	assert.Equal(t, before, e.ListOrders())
	assert.Zero(t, store.updates)
}

func TestToggleOrderShipped_StoreFailureLeavesStateUnchanged(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore()}
	e := newTestEngine(store, ann)
	ctx := context.Background()
	order, err := e.AddOrder(ctx, draft(ann.ID, time.Now(), "1", 1))
	require.NoError(t, err)

	store.updateErr = errors.New("unavailable")
	err = e.ToggleOrderShipped(ctx, order.ID)

	assert.Error(t, err)
	assert.False(t, e.ListOrders()[0].Shipped)
	assert.Equal(t, 1, store.updates)
}

func TestRefresh_LoadsNewestFirst(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	writer := newTestEngine(store, ann)
	_, err := writer.AddOrder(ctx, draft(ann.ID, base, "1", 1))
	require.NoError(t, err)
	_, err = writer.AddOrder(ctx, draft("u-bob", base.Add(2*time.Hour), "2", 1))
	require.NoError(t, err)
	_, err = writer.AddOrder(ctx, draft(ann.ID, base.Add(time.Hour), "3", 1))
	require.NoError(t, err)

	reader := newTestEngine(store, ann)
	require.NoError(t, reader.Refresh(ctx))

	all := reader.ListOrders()
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].Total.String())
	assert.Equal(t, "3", all[1].Total.String())
	assert.Equal(t, "1", all[2].Total.String())

	mine := reader.ListOrdersForPrincipal(ann.ID)
	require.Len(t, mine, 2)
	assert.Equal(t, "3", mine[0].Total.String())
	assert.Empty(t, reader.ListOrdersForPrincipal(""))
}

func TestRefresh_StoreError(t *testing.T) {
	store := &failingStore{MemoryStore: docstore.NewMemoryStore(), listErr: errors.New("boom")}
	e := newTestEngine(store, ann)

	assert.Error(t, e.Refresh(context.Background()))
}

func TestRecordRoundTripKeepsExactMoney(t *testing.T) {
	d := draft(ann.ID, time.Now(), "0.10", 3)
	r := toRecord(d)
	r.ID = "o1"

	order, err := fromRecord(r)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("0.3")))
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("0.10")))
}

func TestFromRecord_BadTotal(t *testing.T) {
	_, err := fromRecord(orderRecord{ID: "o1", Total: "abc"})
	assert.Error(t, err)
}
