// Package session owns the persisted login. A successful login or
// registration is stored locally with a 365 day expiry so the client stays
// signed in across restarts; an expired or unreadable record is cleared on
// restore and the client starts signed out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"onepocket/internal/api"
	"onepocket/internal/core"
	"onepocket/internal/storage"
)

// TTL is how long a stored session stays valid.
const TTL = 365 * 24 * time.Hour

// StateStore is the slice of local storage the manager needs.
type StateStore interface {
	GetJSON(ctx context.Context, key string, out any) error
	PutJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// TokenSink receives the bearer token for outgoing requests.
type TokenSink interface {
	SetToken(token string)
}

type record struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager tracks the signed-in user and keeps the stored session, the API
// client's token and the registered listeners in agreement.
type Manager struct {
	auth  api.AuthAPI
	state StateStore
	sink  TokenSink
	now   func() time.Time

	mu        sync.Mutex
	current   *record
	listeners []func(*core.User)
}

func NewManager(auth api.AuthAPI, state StateStore, sink TokenSink) *Manager {
	return &Manager{
		auth:  auth,
		state: state,
		sink:  sink,
		now:   time.Now,
	}
}

// OnUserChange registers a listener invoked with the new user after login,
// registration, restore and logout (nil on logout). Listeners registered
// before Restore see the restored user.
func (m *Manager) OnUserChange(fn func(*core.User)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *core.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	u := m.current.User
	return &u
}

// Restore loads the stored session. Absent, malformed or expired records
// leave the client signed out; expiry is checked here, not on every request.
func (m *Manager) Restore(ctx context.Context) (*core.User, error) {
	var rec record
	err := m.state.GetJSON(ctx, storage.KeyAuth, &rec)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if rec.Token == "" || !m.now().Before(rec.ExpiresAt) {
		slog.InfoContext(ctx, "Stored session expired, clearing", "user", rec.User.Username)
		if err := m.state.Delete(ctx, storage.KeyAuth); err != nil {
			slog.WarnContext(ctx, "Failed to clear expired session", "error", err)
		}
		return nil, nil
	}

	m.install(ctx, rec)
	return m.User(), nil
}

// Login authenticates and persists the session.
func (m *Manager) Login(ctx context.Context, username, password string) (core.User, error) {
	user, token, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return core.User{}, err
	}
	m.install(ctx, record{User: user, Token: token, ExpiresAt: m.now().Add(TTL)})
	return user, nil
}

// Register creates the account and signs it in.
func (m *Manager) Register(ctx context.Context, username, password string) (core.User, error) {
	user, token, err := m.auth.Register(ctx, username, password)
	if err != nil {
		return core.User{}, err
	}
	m.install(ctx, record{User: user, Token: token, ExpiresAt: m.now().Add(TTL)})
	return user, nil
}

// Logout clears the stored session and the client token. Logging out while
// signed out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	wasSignedIn := m.current != nil
	m.current = nil
	listeners := append(([]func(*core.User))(nil), m.listeners...)
	m.mu.Unlock()

	m.sink.SetToken("")
	if err := m.state.Delete(ctx, storage.KeyAuth); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if wasSignedIn {
		for _, fn := range listeners {
			fn(nil)
		}
	}
	return nil
}

func (m *Manager) install(ctx context.Context, rec record) {
	m.mu.Lock()
	m.current = &rec
	listeners := append(([]func(*core.User))(nil), m.listeners...)
	m.mu.Unlock()

	m.sink.SetToken(rec.Token)

	// A write failure only costs the next restart a login; the in-memory
	// session stays usable.
	if err := m.state.PutJSON(ctx, storage.KeyAuth, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to persist session", "error", err)
	}

	u := rec.User
	for _, fn := range listeners {
		fn(&u)
	}
}
