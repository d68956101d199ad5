package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nexusforge/console/pkg/common/models"
	"golang.org/x/oauth2"
)

// Reader is the read side handed to the chrome and other consumers.
type Reader interface {
	Get() (Session, bool)
}

// Manager owns the current session. The auth flow is its only writer; the
// API client reads it through Token on every request.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current Session
}

var _ oauth2.TokenSource = (*Manager)(nil)

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Restore loads the persisted session. A missing record is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Set(ctx context.Context, token, tokenType string, user models.User) error {
	s := Session{Token: token, TokenType: tokenType, User: user}
	if !s.Active() {
		return errors.New("session token must not be empty")
	}
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Get() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Active()
}

// Clear drops the in-memory session even when the store fails, so a
// logout never leaves the console authenticated.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) Token() (*oauth2.Token, error) {
	s, ok := m.Get()
	if !ok {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: s.TokenType}, nil
}
