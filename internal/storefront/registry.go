package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrRegistryClosed = errors.New("storefront registry is closed")

// Registry hands out one App per visitor, building it on first use.
type Registry struct {
	deps  Deps
	group singleflight.Group
	now   func() time.Time

	mu     sync.Mutex
	apps   map[string]*App
	closed bool
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps: deps,
		apps: make(map[string]*App),
		now:  time.Now,
	}
}

// Get returns the visitor's App. Concurrent first requests for the same
// visitor share one construction.
func (r *Registry) Get(ctx context.Context, visitorID string) (*App, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if app, ok := r.apps[visitorID]; ok {
		r.mu.Unlock()
		app.touch(r.now())
		return app, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(visitorID, func() (any, error) {
		r.mu.Lock()
		if app, ok := r.apps[visitorID]; ok {
			r.mu.Unlock()
			return app, nil
		}
		r.mu.Unlock()

		app, err := newApp(context.WithoutCancel(ctx), visitorID, r.deps)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			app.Close()
			return nil, ErrRegistryClosed
		}
		r.apps[visitorID] = app
		return app, nil
	})
	if err != nil {
		return nil, err
	}
	app := v.(*App)
	app.touch(r.now())
	return app, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Evict closes Apps idle for longer than maxIdle and returns how many went.
// An App with a checkout still running is kept until it finishes.
func (r *Registry) Evict(maxIdle time.Duration) int {
	now := r.now()

	r.mu.Lock()
	var idle []*App
	for id, app := range r.apps {
		if app.idleSince(now) > maxIdle && !app.Checkout.InProgress() {
			idle = append(idle, app)
			delete(r.apps, id)
		}
	}
	r.mu.Unlock()

	for _, app := range idle {
		app.Close()
	}
	return len(idle)
}

// Run evicts idle Apps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				r.deps.Logger.Debug("evicted idle visitors", zap.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close tears down every App. Later Gets fail with ErrRegistryClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	apps := r.apps
	r.apps = make(map[string]*App)
	r.mu.Unlock()

	for _, app := range apps {
		app.Close()
	}
}
