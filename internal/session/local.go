package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
)

// LocalManager is the offline session variant: identities, credentials and
// preferences all live in the local embedded store and nothing ever touches
// the network.  Passwords are stored as bcrypt hashes, never in the clear.
type LocalManager struct {
	store domain.UserStore

	mu      sync.RWMutex
	current *domain.User

	feed changeFeed
}

var _ domain.SessionManager = (*LocalManager)(nil)

func NewLocalManager(store domain.UserStore) *LocalManager {
	return &LocalManager{
		store: store,
		feed:  newChangeFeed(),
	}
}

// Restore rehydrates the current user persisted by the previous session
func (m *LocalManager) Restore(_ context.Context) error {
	rec, err := m.store.CurrentUser()
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("unable to restore session: %w", err)
	}

	m.mu.Lock()
	m.current = rec.User.Clone()
	m.mu.Unlock()

	log.Info("Restored local session", "user_id", rec.User.ID, "username", rec.User.Username)
	return nil
}

// Register creates a new local user with empty preference sets and marks it current
func (m *LocalManager) Register(_ context.Context, username, email, password string) (*domain.User, error) {
	if _, err := m.store.UserByEmail(email); !errors.Is(err, domain.ErrUserNotFound) {
		if err != nil {
			return nil, fmt.Errorf("unable to check for existing email: %w", err)
		}
		return nil, domain.ErrDuplicateIdentity
	}
	if _, err := m.store.UserByUsername(username); !errors.Is(err, domain.ErrUserNotFound) {
		if err != nil {
			return nil, fmt.Errorf("unable to check for existing username: %w", err)
		}
		return nil, domain.ErrDuplicateIdentity
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("unable to hash password: %w", err)
	}

	rec := &domain.UserRecord{
		User: domain.User{
			ID:       uuid.NewString(),
			Username: username,
			Email:    email,
			Preferences: domain.Preferences{
				FavoriteGenres: []string{},
				WatchedAnime:   []int{},
				FavoriteAnime:  []int{},
			},
		},
		PasswordHash: hash,
	}

	if err := m.store.SaveUser(rec); err != nil {
		return nil, fmt.Errorf("unable to persist new user: %w", err)
	}
	if err := m.store.SetCurrentUser(rec); err != nil {
		return nil, fmt.Errorf("unable to persist current user: %w", err)
	}

	m.mu.Lock()
	m.current = rec.User.Clone()
	m.mu.Unlock()

	log.Info("Registered new local user", "user_id", rec.User.ID, "username", username)
	m.feed.publish(&rec.User)
	return rec.User.Clone(), nil
}

// Login hydrates an existing user from the store and marks it current
func (m *LocalManager) Login(_ context.Context, email, password string) (*domain.User, error) {
	rec, err := m.store.UserByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("unable to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := m.store.SetCurrentUser(rec); err != nil {
		return nil, fmt.Errorf("unable to persist current user: %w", err)
	}

	m.mu.Lock()
	m.current = rec.User.Clone()
	m.mu.Unlock()

	log.Info("Local login succeeded", "user_id", rec.User.ID, "username", rec.User.Username)
	m.feed.publish(&rec.User)
	return rec.User.Clone(), nil
}

// Logout clears the current user.  Logging out while already logged out is a no-op.
func (m *LocalManager) Logout(_ context.Context) error {
	m.mu.Lock()
	wasLoggedIn := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if err := m.store.ClearCurrentUser(); err != nil {
		return fmt.Errorf("unable to clear current user: %w", err)
	}

	if wasLoggedIn {
		log.Info("Logged out local user")
		m.feed.publish(nil)
	}
	return nil
}

// UpdatePreferences merges the partial update into the current user's
// preferences and persists the result
func (m *LocalManager) UpdatePreferences(_ context.Context, update domain.PreferencesUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, domain.ErrNotAuthenticated
	}

	rec, err := m.store.UserByEmail(m.current.Email)
	if err != nil {
		return nil, fmt.Errorf("unable to load user for update: %w", err)
	}

	rec.User.Preferences = rec.User.Preferences.Merge(update)

	if err := m.store.SaveUser(rec); err != nil {
		return nil, fmt.Errorf("unable to persist preferences: %w", err)
	}
	if err := m.store.SetCurrentUser(rec); err != nil {
		return nil, fmt.Errorf("unable to persist current user: %w", err)
	}

	m.current = rec.User.Clone()

	log.Debug("Updated local user preferences",
		"user_id", rec.User.ID,
		"favorite_genres", len(rec.User.Preferences.FavoriteGenres),
		"watched", len(rec.User.Preferences.WatchedAnime),
		"favorites", len(rec.User.Preferences.FavoriteAnime))
	m.feed.publish(&rec.User)
	return rec.User.Clone(), nil
}

// CurrentUser returns a copy of the current user snapshot, or nil when logged out
func (m *LocalManager) CurrentUser() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// IsAuthenticated reports whether a user is currently logged in
func (m *LocalManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// Changes streams fresh user snapshots after every successful mutation
func (m *LocalManager) Changes() <-chan domain.User {
	return m.feed.Changes()
}

// Close releases the underlying store
func (m *LocalManager) Close() error {
	return m.store.Close()
}
