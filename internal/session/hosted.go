package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/repository/supabase"
)

const defaultPollInterval = 5 * time.Second

// HostedManager is the session variant backed by the remote identity and
// preferences provider.  The provider owns all state; the local store only
// caches the current-user snapshot so CurrentUser stays a synchronous read.
//
// A background freshness poll re-reads the authoritative state on a fixed
// interval and publishes a new snapshot when it changed.  This stands in for
// a push notification channel, so remote changes can be stale by up to one
// interval.
type HostedManager struct {
	client *supabase.Client
	store  domain.UserStore
	tokens TokenCache

	mu          sync.RWMutex
	current     *domain.User
	accessToken string

	feed   changeFeed
	cancel context.CancelFunc
	done   chan struct{}
}

var _ domain.SessionManager = (*HostedManager)(nil)

func NewHostedManager(client *supabase.Client, store domain.UserStore, tokens TokenCache, pollInterval time.Duration) *HostedManager {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &HostedManager{
		client: client,
		store:  store,
		tokens: tokens,
		feed:   newChangeFeed(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go m.pollLoop(ctx, pollInterval)
	return m
}

// Restore rehydrates the session from the cached token.  When the provider
// is unreachable the cached snapshot from the store is used so the app still
// starts with last-known state.
func (m *HostedManager) Restore(ctx context.Context) error {
	token := m.tokens.Token()
	if token == "" || !tokenLive(token) {
		log.Debug("No live cached session token, starting logged out")
		return nil
	}

	user, err := m.hydrate(ctx, token)
	if err != nil {
		// Best effort: fall back to the cached snapshot rather than dropping
		// the session because the provider was briefly unreachable
		rec, cacheErr := m.store.CurrentUser()
		if cacheErr != nil {
			if errors.Is(cacheErr, domain.ErrUserNotFound) {
				return nil
			}
			return fmt.Errorf("unable to restore session: %w", cacheErr)
		}
		log.Warn("Session restore used cached snapshot, provider unreachable", "error", err)
		user = rec.User.Clone()
	}

	m.mu.Lock()
	m.accessToken = token
	m.current = user
	m.mu.Unlock()

	log.Info("Restored hosted session", "user_id", user.ID, "username", user.Username)
	return nil
}

// Register signs a new identity up with the provider, persists its default
// preferences row and marks the user current
func (m *HostedManager) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	session, err := m.client.SignUp(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		// Projects configured to require email confirmation hand back no
		// session until the address is verified
		return nil, &domain.ProviderError{Message: "registration requires email confirmation before signing in"}
	}

	row := &supabase.PreferencesRow{
		UserID:         session.User.ID,
		FavoriteGenres: []string{},
		WatchedAnime:   []int{},
		FavoriteAnime:  []int{},
	}
	if err := m.client.UpsertPreferences(ctx, session.AccessToken, row); err != nil {
		return nil, fmt.Errorf("unable to create default preferences: %w", err)
	}

	user := &domain.User{
		ID:       session.User.ID,
		Username: session.User.Username(),
		Email:    session.User.Email,
		Preferences: domain.Preferences{
			FavoriteGenres: []string{},
			WatchedAnime:   []int{},
			FavoriteAnime:  []int{},
		},
	}

	m.setSession(session.AccessToken, user)
	log.Info("Registered new hosted user", "user_id", user.ID, "username", username)
	return user.Clone(), nil
}

// Login exchanges credentials for a provider session and hydrates the full user
func (m *HostedManager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	session, err := m.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	prefs, err := m.fetchPreferences(ctx, session.AccessToken, session.User.ID)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:          session.User.ID,
		Username:    session.User.Username(),
		Email:       session.User.Email,
		Preferences: prefs,
	}

	m.setSession(session.AccessToken, user)
	log.Info("Hosted login succeeded", "user_id", user.ID, "username", user.Username)
	return user.Clone(), nil
}

// Logout revokes the provider session and clears all local session state.
// Logging out while already logged out is a no-op.
func (m *HostedManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.accessToken
	wasLoggedIn := m.current != nil
	m.accessToken = ""
	m.current = nil
	m.mu.Unlock()

	if token != "" {
		if err := m.client.SignOut(ctx, token); err != nil {
			// The local session is gone either way; a failed revocation only
			// means the token dies by expiry instead
			log.Warn("Provider sign-out failed", "error", err)
		}
	}

	if err := m.tokens.SetToken(""); err != nil {
		log.Warn("Unable to clear cached session token", "error", err)
	}
	if err := m.store.ClearCurrentUser(); err != nil {
		return fmt.Errorf("unable to clear cached user: %w", err)
	}

	if wasLoggedIn {
		log.Info("Logged out hosted user")
		m.feed.publish(nil)
	}
	return nil
}

// UpdatePreferences pushes the partial update to the provider (snake_case
// columns) and merges it into the local snapshot.  Overlapping updates are
// last-write-wins, the provider keeps no version.
func (m *HostedManager) UpdatePreferences(ctx context.Context, update domain.PreferencesUpdate) (*domain.User, error) {
	m.mu.RLock()
	current := m.current.Clone()
	token := m.accessToken
	m.mu.RUnlock()

	if current == nil || token == "" {
		return nil, domain.ErrNotAuthenticated
	}

	columns := map[string]interface{}{}
	if update.FavoriteGenres != nil {
		columns["favorite_genres"] = *update.FavoriteGenres
	}
	if update.WatchedAnime != nil {
		columns["watched_anime"] = *update.WatchedAnime
	}
	if update.FavoriteAnime != nil {
		columns["favorite_anime"] = *update.FavoriteAnime
	}

	if len(columns) > 0 {
		if err := m.client.UpdatePreferences(ctx, token, current.ID, columns); err != nil {
			return nil, err
		}
	}

	current.Preferences = current.Preferences.Merge(update)

	m.mu.Lock()
	m.current = current.Clone()
	m.mu.Unlock()
	m.cacheSnapshot(current)

	log.Debug("Updated hosted user preferences", "user_id", current.ID)
	m.feed.publish(current)
	return current, nil
}

// CurrentUser returns a copy of the last-known user snapshot without
// touching the network
func (m *HostedManager) CurrentUser() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// IsAuthenticated reports whether a current user exists and the session
// token has not expired
func (m *HostedManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && tokenLive(m.accessToken)
}

// Changes streams fresh user snapshots from mutations and the freshness poll
func (m *HostedManager) Changes() <-chan domain.User {
	return m.feed.Changes()
}

// Close stops the freshness poll and releases the snapshot store
func (m *HostedManager) Close() error {
	m.cancel()
	<-m.done
	return m.store.Close()
}

// setSession installs a fresh session, caching the token in config and the
// snapshot in the store
func (m *HostedManager) setSession(token string, user *domain.User) {
	m.mu.Lock()
	m.accessToken = token
	m.current = user.Clone()
	m.mu.Unlock()

	if err := m.tokens.SetToken(token); err != nil {
		log.Warn("Unable to cache session token", "error", err)
	}
	m.cacheSnapshot(user)
	m.feed.publish(user)
}

func (m *HostedManager) cacheSnapshot(user *domain.User) {
	if err := m.store.SetCurrentUser(&domain.UserRecord{User: *user.Clone()}); err != nil {
		log.Warn("Unable to cache user snapshot", "error", err)
	}
}

// hydrate builds the full domain user behind an access token: identity from
// the auth endpoint, preferences from the preferences row
func (m *HostedManager) hydrate(ctx context.Context, token string) (*domain.User, error) {
	authUser, err := m.client.SessionUser(ctx, token)
	if err != nil {
		return nil, err
	}

	prefs, err := m.fetchPreferences(ctx, token, authUser.ID)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:          authUser.ID,
		Username:    authUser.Username(),
		Email:       authUser.Email,
		Preferences: prefs,
	}, nil
}

// fetchPreferences maps the provider's snake_case preferences row onto the
// domain shape.  A missing row (e.g. freshly confirmed account) is treated
// as empty preferences rather than an error.
func (m *HostedManager) fetchPreferences(ctx context.Context, token, userID string) (domain.Preferences, error) {
	row, err := m.client.Preferences(ctx, token, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Preferences{
				FavoriteGenres: []string{},
				WatchedAnime:   []int{},
				FavoriteAnime:  []int{},
			}, nil
		}
		return domain.Preferences{}, err
	}

	return domain.Preferences{
		FavoriteGenres: row.FavoriteGenres,
		WatchedAnime:   row.WatchedAnime,
		FavoriteAnime:  row.FavoriteAnime,
	}, nil
}

// pollLoop is the background freshness poll.  Failures are logged and the
// last-known snapshot retained; the loop exits when the manager is closed.
func (m *HostedManager) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

func (m *HostedManager) refresh(ctx context.Context) {
	m.mu.RLock()
	token := m.accessToken
	last := m.current.Clone()
	m.mu.RUnlock()

	if token == "" {
		return
	}

	fresh, err := m.hydrate(ctx, token)
	if err != nil {
		log.Warn("Session freshness poll failed, keeping last-known snapshot", "error", err)
		return
	}

	if last != nil && reflect.DeepEqual(*last, *fresh) {
		return
	}

	m.mu.Lock()
	m.current = fresh.Clone()
	m.mu.Unlock()
	m.cacheSnapshot(fresh)

	log.Debug("Freshness poll observed remote change", "user_id", fresh.ID)
	m.feed.publish(fresh)
}

// tokenLive reports whether the access token's exp claim is still in the
// future.  The signature is deliberately not verified here, the provider is
// the one enforcing it; this only gates optimistic local reuse.
func tokenLive(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.After(time.Now())
}
