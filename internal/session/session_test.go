package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider resolves only when the test calls emit.
type fakeProvider struct {
	mu         sync.Mutex
	listener   func(*domain.Principal)
	signInErr  error
	signOutErr error
	principal  *domain.Principal
	unsubbed   bool
}

func (f *fakeProvider) Subscribe(onChange func(*domain.Principal)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = onChange
	return func() {
		f.mu.Lock()
		f.unsubbed = true
		f.listener = nil
		f.mu.Unlock()
	}
}

func (f *fakeProvider) emit(p *domain.Principal) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l(p)
	}
}

func (f *fakeProvider) SignIn(_ context.Context, email, _ string) (*domain.Principal, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	p := &domain.Principal{ID: "u1", Email: email}
	f.emit(p)
	return p, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*domain.Principal, error) {
	return f.SignIn(ctx, email, password)
}

func (f *fakeProvider) SignOut(context.Context) error {
	return f.signOutErr
}

func TestManager_StartsAuthenticating(t *testing.T) {
	m := NewManager(&fakeProvider{}, zap.NewNop())

	snap := m.Snapshot()
	assert.Equal(t, domain.SessionAuthenticating, snap.Status)
	assert.Nil(t, m.Principal())
	assert.Equal(t, Wait, Gate(snap.Status))

	select {
	case <-m.Ready():
		t.Fatal("ready before provider resolved")
	default:
	}
}

func TestManager_ResolvesFromProvider(t *testing.T) {
	fp := &fakeProvider{}
	m := NewManager(fp, zap.NewNop())

	fp.emit(&domain.Principal{ID: "u1", Email: "ann@example.com"})

	<-m.Ready()
	assert.Equal(t, domain.SessionAuthenticated, m.Snapshot().Status)
	require.NotNil(t, m.Principal())
	assert.Equal(t, "u1", m.Principal().ID)
	assert.Equal(t, Allow, Gate(m.Snapshot().Status))
}

func TestManager_ResolvesAnonymous(t *testing.T) {
	fp := &fakeProvider{}
	m := NewManager(fp, zap.NewNop())

	fp.emit(nil)

	<-m.Ready()
	assert.Equal(t, domain.SessionAnonymous, m.Snapshot().Status)
	assert.Equal(t, RedirectToLogin, Gate(m.Snapshot().Status))
}

func TestManager_LoginFailurePropagates(t *testing.T) {
	fp := &fakeProvider{signInErr: errors.New("invalid credentials")}
	m := NewManager(fp, zap.NewNop())
	fp.emit(nil)

	err := m.Login(context.Background(), domain.Credentials{Email: "a@b.c", Password: "x"})

	assert.EqualError(t, err, "invalid credentials")
	assert.Equal(t, domain.SessionAnonymous, m.Snapshot().Status)
}

func TestManager_LoginAndSignup(t *testing.T) {
	fp := &fakeProvider{}
	m := NewManager(fp, zap.NewNop())

	require.NoError(t, m.Signup(context.Background(), domain.Credentials{Email: "ann@example.com", Password: "pw"}))
	assert.Equal(t, domain.SessionAuthenticated, m.Snapshot().Status)

	require.NoError(t, m.Login(context.Background(), domain.Credentials{Email: "bob@example.com", Password: "pw"}))
	assert.Equal(t, "bob@example.com", m.Principal().Email)
}

func TestManager_LogoutForcesAnonymous(t *testing.T) {
	fp := &fakeProvider{}
	m := NewManager(fp, zap.NewNop())
	fp.emit(&domain.Principal{ID: "u1"})

	view, err := m.Logout(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DefaultView, view)
	assert.Equal(t, domain.SessionAnonymous, m.Snapshot().Status)
}

func TestManager_LogoutFailureKeepsSession(t *testing.T) {
	fp := &fakeProvider{signOutErr: errors.New("network down")}
	m := NewManager(fp, zap.NewNop())
	fp.emit(&domain.Principal{ID: "u1"})

	_, err := m.Logout(context.Background())

	assert.Error(t, err)
	assert.Equal(t, domain.SessionAuthenticated, m.Snapshot().Status)
}

func TestManager_SubscribeAndClose(t *testing.T) {
	fp := &fakeProvider{}
	m := NewManager(fp, zap.NewNop())

	var got []domain.SessionStatus
	unsubscribe := m.Subscribe(func(s Snapshot) { got = append(got, s.Status) })

	fp.emit(nil)
	fp.emit(&domain.Principal{ID: "u1"})
	unsubscribe()
	fp.emit(nil)

	assert.Equal(t, []domain.SessionStatus{domain.SessionAnonymous, domain.SessionAuthenticated}, got)

	m.Close()
	assert.True(t, fp.unsubbed)
	m.Close()
}

func TestGate(t *testing.T) {
	assert.Equal(t, Wait, Gate(domain.SessionAuthenticating))
	assert.Equal(t, RedirectToLogin, Gate(domain.SessionAnonymous))
	assert.Equal(t, Allow, Gate(domain.SessionAuthenticated))
	assert.Equal(t, "WAIT", Wait.String())
}
