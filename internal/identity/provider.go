package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/kv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service holds what every visitor's identity client shares: the account
// store, the token signer and the hashing cost.
type Service struct {
	users          UserStore
	signer         *TokenSigner
	cost           int
	restoreTimeout time.Duration
	logger         *zap.Logger
}

func NewService(users UserStore, signer *TokenSigner, cost int, logger *zap.Logger) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:          users,
		signer:         signer,
		cost:           cost,
		restoreTimeout: 5 * time.Second,
		logger:         logger,
	}
}

func SessionKey(visitorID string) string {
	return fmt.Sprintf("session:%s", visitorID)
}

// NewClient returns the identity provider for one visitor. Resolution of a
// previously persisted token runs in the background; subscribers hear about
// it once it completes.
func (s *Service) NewClient(store kv.Store, key string) *Client {
	c := &Client{
		svc:       s,
		store:     store,
		key:       key,
		listeners: make(map[int]func(*domain.Principal)),
	}
	go c.restore()
	return c
}

// Client implements the identity provider contract for a single visitor.
// Explicit sign-in, sign-up and sign-out notify subscribers before returning.
type Client struct {
	svc   *Service
	store kv.Store
	key   string

	mu        sync.Mutex
	resolved  bool
	principal *domain.Principal
	changes   int
	listeners map[int]func(*domain.Principal)
	nextID    int
}

// Subscribe registers onChange. If the session is already resolved onChange
// runs immediately with the current principal (nil when anonymous).
func (c *Client) Subscribe(onChange func(*domain.Principal)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = onChange
	resolved := c.resolved
	current := clonePrincipal(c.principal)
	c.mu.Unlock()

	if resolved {
		onChange(current)
	}

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	user, err := c.svc.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return c.establish(ctx, user)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.svc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := c.svc.users.Create(ctx, normalizeEmail(email), string(hash))
	if err != nil {
		return nil, err
	}

	return c.establish(ctx, user)
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.store.Remove(ctx, c.key); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	c.set(nil, true)
	return nil
}

func (c *Client) establish(ctx context.Context, user *User) (*domain.Principal, error) {
	token, err := c.svc.signer.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, c.key, []byte(token)); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	p := &domain.Principal{ID: user.ID, Email: user.Email}
	c.set(p, true)
	return clonePrincipal(p), nil
}

func (c *Client) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), c.svc.restoreTimeout)
	defer cancel()

	p, err := c.lookup(ctx)
	if err != nil {
		c.svc.logger.Warn("session restore failed", zap.String("key", c.key), zap.Error(err))
	}
	c.set(p, false)
}

func (c *Client) lookup(ctx context.Context) (*domain.Principal, error) {
	token, err := c.store.Get(ctx, c.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	userID, err := c.svc.signer.Verify(string(token))
	if err != nil {
		_ = c.store.Remove(ctx, c.key)
		return nil, err
	}

	user, err := c.svc.users.GetByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		_ = c.store.Remove(ctx, c.key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}

// set publishes p. A background restore never overrides an explicit change
// that landed while it was in flight.
func (c *Client) set(p *domain.Principal, explicit bool) {
	c.mu.Lock()
	if !explicit && c.changes > 0 {
		c.mu.Unlock()
		return
	}
	if explicit {
		c.changes++
	}
	c.resolved = true
	c.principal = clonePrincipal(p)
	listeners := make([]func(*domain.Principal), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(clonePrincipal(p))
	}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
