package session

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"go.uber.org/zap"
)

// DefaultView is where logout sends the visitor.
const DefaultView = "/"

// IdentityProvider is the external identity service as seen by the session.
type IdentityProvider interface {
	Subscribe(onChange func(*domain.Principal)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) (*domain.Principal, error)
	SignUp(ctx context.Context, email, password string) (*domain.Principal, error)
	SignOut(ctx context.Context) error
}

type Snapshot struct {
	Status    domain.SessionStatus `json:"status"`
	Principal *domain.Principal    `json:"principal,omitempty"`
}

// Manager tracks one visitor's authentication state. It starts in
// AUTHENTICATING and only leaves it when the provider reports.
type Manager struct {
	provider IdentityProvider
	logger   *zap.Logger

	mu          sync.Mutex
	status      domain.SessionStatus
	principal   *domain.Principal
	listeners   map[int]func(Snapshot)
	nextID      int
	ready       chan struct{}
	readyOnce   sync.Once
	unsubscribe func()
}

func NewManager(provider IdentityProvider, logger *zap.Logger) *Manager {
	m := &Manager{
		provider:  provider,
		logger:    logger,
		status:    domain.SessionAuthenticating,
		listeners: make(map[int]func(Snapshot)),
		ready:     make(chan struct{}),
	}
	unsubscribe := provider.Subscribe(m.onChange)

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	return m
}

func (m *Manager) Login(ctx context.Context, creds domain.Credentials) error {
	_, err := m.provider.SignIn(ctx, creds.Email, creds.Password)
	return err
}

func (m *Manager) Signup(ctx context.Context, creds domain.Credentials) error {
	_, err := m.provider.SignUp(ctx, creds.Email, creds.Password)
	return err
}

// Logout signs out and forces ANONYMOUS without waiting for the provider
// callback. It returns the view the visitor should land on.
func (m *Manager) Logout(ctx context.Context) (string, error) {
	if err := m.provider.SignOut(ctx); err != nil {
		return "", err
	}
	m.onChange(nil)
	return DefaultView, nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Principal returns the authenticated principal, or nil in any other state.
func (m *Manager) Principal() *domain.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != domain.SessionAuthenticated {
		return nil
	}
	p := *m.principal
	return &p
}

// Ready is closed once the provider has resolved the session for the first
// time.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Subscribe registers fn for every subsequent state change.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) onChange(p *domain.Principal) {
	m.mu.Lock()
	if p == nil {
		m.status = domain.SessionAnonymous
		m.principal = nil
	} else {
		copied := *p
		m.status = domain.SessionAuthenticated
		m.principal = &copied
	}
	snap := m.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })
	m.logger.Debug("session state changed", zap.Stringer("status", snap.Status))

	for _, l := range listeners {
		l(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{Status: m.status}
	if m.principal != nil {
		p := *m.principal
		snap.Principal = &p
	}
	return snap
}
