package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/docstore"
	"github.com/fjod/storefront/internal/identity"
	"github.com/fjod/storefront/internal/kv"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/session"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by every visitor.
type Deps struct {
	KV        kv.Store
	Docs      docstore.Store
	Identity  *identity.Service
	Catalog   *catalog.Service
	Describer catalog.DescriptionWriter
	Notifier  notify.Notifier
	Logger    *zap.Logger
}

// App is one visitor's application state. Views receive it explicitly; the
// Registry owns its lifecycle.
type App struct {
	VisitorID string
	Catalog   *catalog.Service
	Describer catalog.DescriptionWriter
	Cart      *cart.Engine
	Session   *session.Manager
	Orders    *orders.Engine
	Checkout  *checkout.Service

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

func newApp(ctx context.Context, visitorID string, deps Deps) (*App, error) {
	logger := deps.Logger.With(zap.String("visitor_id", visitorID))

	c, err := cart.Load(ctx, deps.KV, cart.Key(visitorID), logger)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	provider := deps.Identity.NewClient(deps.KV, identity.SessionKey(visitorID))
	sess := session.NewManager(provider, logger)
	o := orders.NewEngine(deps.Docs, sess, logger)

	return &App{
		VisitorID: visitorID,
		Catalog:   deps.Catalog,
		Describer: deps.Describer,
		Cart:      c,
		Session:   sess,
		Orders:    o,
		Checkout:  checkout.NewService(c, o, sess, deps.Notifier, logger),
		lastSeen:  time.Now(),
	}, nil
}

func (a *App) touch(now time.Time) {
	a.mu.Lock()
	a.lastSeen = now
	a.mu.Unlock()
}

func (a *App) idleSince(now time.Time) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.Sub(a.lastSeen)
}

// Close releases the session subscription. Persisted state stays in the KV
// store and comes back with the next visit.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()
	a.Session.Close()
}
