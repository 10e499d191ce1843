package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/repository/supabase"
	"github.com/PizzaHomicide/kasumi/internal/store"
)

// memoryTokenCache keeps the session token in memory so tests never touch the
// real config file
type memoryTokenCache struct {
	mu    sync.Mutex
	token string
}

func (c *memoryTokenCache) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *memoryTokenCache) SetToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	return nil
}

// fakeProvider is an in-memory stand-in for the hosted identity/preferences
// provider, serving just enough of its HTTP surface for the manager
type fakeProvider struct {
	mu sync.Mutex

	email    string
	password string
	token    string

	prefs *supabase.PreferencesRow
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "uid-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return &fakeProvider{
		email:    "miko@example.com",
		password: "hunter22",
		token:    token,
	}
}

func (p *fakeProvider) setPreferences(row supabase.PreferencesRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs = &row
}

func (p *fakeProvider) sessionBody() map[string]interface{} {
	return map[string]interface{}{
		"access_token": p.token,
		"token_type":   "bearer",
		"expires_in":   3600,
		"user": map[string]interface{}{
			"id":            "uid-1",
			"email":         p.email,
			"user_metadata": map[string]string{"username": "miko"},
		},
	}
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/signup":
		_ = json.NewEncoder(w).Encode(p.sessionBody())

	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/token":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != p.email || body.Password != p.password {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid login credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(p.sessionBody())

	case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && r.URL.Path == "/auth/v1/user":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "uid-1",
			"email":         p.email,
			"user_metadata": map[string]string{"username": "miko"},
		})

	case r.URL.Path == "/rest/v1/user_preferences":
		switch r.Method {
		case http.MethodGet:
			rows := []supabase.PreferencesRow{}
			if p.prefs != nil {
				rows = append(rows, *p.prefs)
			}
			_ = json.NewEncoder(w).Encode(rows)
		case http.MethodPost:
			var row supabase.PreferencesRow
			_ = json.NewDecoder(r.Body).Decode(&row)
			p.prefs = &row
			w.WriteHeader(http.StatusCreated)
		case http.MethodPatch:
			var columns map[string]json.RawMessage
			_ = json.NewDecoder(r.Body).Decode(&columns)
			if p.prefs == nil {
				p.prefs = &supabase.PreferencesRow{UserID: "uid-1"}
			}
			if raw, ok := columns["favorite_genres"]; ok {
				_ = json.Unmarshal(raw, &p.prefs.FavoriteGenres)
			}
			if raw, ok := columns["watched_anime"]; ok {
				_ = json.Unmarshal(raw, &p.prefs.WatchedAnime)
			}
			if raw, ok := columns["favorite_anime"]; ok {
				_ = json.Unmarshal(raw, &p.prefs.FavoriteAnime)
			}
			w.WriteHeader(http.StatusNoContent)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "not found"}`))
	}
}

func newHostedTestManager(t *testing.T, provider *fakeProvider, pollInterval time.Duration) (*HostedManager, *memoryTokenCache) {
	t.Helper()

	server := httptest.NewServer(provider)
	t.Cleanup(server.Close)

	st, err := store.Open(t.TempDir())
	require.NoError(t, err, "Should open test store")

	tokens := &memoryTokenCache{}
	m := NewHostedManager(supabase.NewClient(server.URL, "anon-key"), st, tokens, pollInterval)
	t.Cleanup(func() {
		_ = m.Close()
	})
	return m, tokens
}

func TestHostedRegister(t *testing.T) {
	provider := newFakeProvider(t)
	m, tokens := newHostedTestManager(t, provider, time.Hour)

	user, err := m.Register(context.Background(), "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, "uid-1", user.ID)
	assert.Equal(t, "miko", user.Username)
	assert.Equal(t, "miko@example.com", user.Email)
	assert.Empty(t, user.Preferences.FavoriteGenres)

	assert.True(t, m.IsAuthenticated())
	assert.NotEmpty(t, tokens.Token(), "Register should cache the session token")

	provider.mu.Lock()
	defer provider.mu.Unlock()
	require.NotNil(t, provider.prefs, "Register should create the default preferences row")
	assert.Equal(t, "uid-1", provider.prefs.UserID)
}

func TestHostedLoginAndPreferences(t *testing.T) {
	provider := newFakeProvider(t)
	provider.setPreferences(supabase.PreferencesRow{
		UserID:         "uid-1",
		FavoriteGenres: []string{"Comedy"},
		WatchedAnime:   []int{7},
		FavoriteAnime:  []int{},
	})
	m, _ := newHostedTestManager(t, provider, time.Hour)

	user, err := m.Login(context.Background(), "miko@example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, []string{"Comedy"}, user.Preferences.FavoriteGenres)
	assert.Equal(t, []int{7}, user.Preferences.WatchedAnime)
	assert.True(t, m.IsAuthenticated())
}

func TestHostedLoginInvalidCredentials(t *testing.T) {
	provider := newFakeProvider(t)
	m, _ := newHostedTestManager(t, provider, time.Hour)

	_, err := m.Login(context.Background(), "miko@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, m.IsAuthenticated())
}

func TestHostedUpdatePreferencesPartialMerge(t *testing.T) {
	provider := newFakeProvider(t)
	provider.setPreferences(supabase.PreferencesRow{
		UserID:         "uid-1",
		FavoriteGenres: []string{"Comedy", "Drama"},
		WatchedAnime:   []int{},
		FavoriteAnime:  []int{},
	})
	m, _ := newHostedTestManager(t, provider, time.Hour)

	_, err := m.Login(context.Background(), "miko@example.com", "hunter22")
	require.NoError(t, err)

	watched := []int{101}
	user, err := m.UpdatePreferences(context.Background(), domain.PreferencesUpdate{WatchedAnime: &watched})
	require.NoError(t, err)

	assert.Equal(t, []string{"Comedy", "Drama"}, user.Preferences.FavoriteGenres,
		"Fields absent from the update must keep their values")
	assert.Equal(t, []int{101}, user.Preferences.WatchedAnime)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, []int{101}, provider.prefs.WatchedAnime, "The partial update must reach the provider")
	assert.Equal(t, []string{"Comedy", "Drama"}, provider.prefs.FavoriteGenres,
		"Columns absent from the update must be untouched on the provider")
}

func TestHostedUpdatePreferencesRequiresLogin(t *testing.T) {
	provider := newFakeProvider(t)
	m, _ := newHostedTestManager(t, provider, time.Hour)

	genres := []string{"Action"}
	_, err := m.UpdatePreferences(context.Background(), domain.PreferencesUpdate{FavoriteGenres: &genres})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestHostedLogout(t *testing.T) {
	provider := newFakeProvider(t)
	m, tokens := newHostedTestManager(t, provider, time.Hour)

	_, err := m.Login(context.Background(), "miko@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Nil(t, m.CurrentUser())
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, tokens.Token(), "Logout should clear the cached token")

	// Logging out again is a no-op
	assert.NoError(t, m.Logout(context.Background()))
}

func TestHostedRestoreFromCachedToken(t *testing.T) {
	provider := newFakeProvider(t)
	provider.setPreferences(supabase.PreferencesRow{
		UserID:         "uid-1",
		FavoriteGenres: []string{"Comedy"},
		WatchedAnime:   []int{},
		FavoriteAnime:  []int{},
	})
	m, tokens := newHostedTestManager(t, provider, time.Hour)

	require.NoError(t, tokens.SetToken(provider.token))
	require.NoError(t, m.Restore(context.Background()))

	assert.True(t, m.IsAuthenticated())
	user := m.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "uid-1", user.ID)
	assert.Equal(t, []string{"Comedy"}, user.Preferences.FavoriteGenres)
}

func TestHostedRestoreExpiredToken(t *testing.T) {
	provider := newFakeProvider(t)
	m, tokens := newHostedTestManager(t, provider, time.Hour)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "uid-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	require.NoError(t, tokens.SetToken(expired))
	require.NoError(t, m.Restore(context.Background()))

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.CurrentUser())
}

func TestHostedFreshnessPollPicksUpRemoteChange(t *testing.T) {
	provider := newFakeProvider(t)
	provider.setPreferences(supabase.PreferencesRow{
		UserID:         "uid-1",
		FavoriteGenres: []string{"Comedy"},
		WatchedAnime:   []int{},
		FavoriteAnime:  []int{},
	})
	m, _ := newHostedTestManager(t, provider, 25*time.Millisecond)

	_, err := m.Login(context.Background(), "miko@example.com", "hunter22")
	require.NoError(t, err)

	// Simulate another device changing the preferences on the provider
	provider.setPreferences(supabase.PreferencesRow{
		UserID:         "uid-1",
		FavoriteGenres: []string{"Comedy", "Horror"},
		WatchedAnime:   []int{42},
		FavoriteAnime:  []int{},
	})

	assert.Eventually(t, func() bool {
		user := m.CurrentUser()
		return user != nil && len(user.Preferences.FavoriteGenres) == 2
	}, 2*time.Second, 10*time.Millisecond, "The freshness poll should surface the remote change")

	user := m.CurrentUser()
	assert.Equal(t, []string{"Comedy", "Horror"}, user.Preferences.FavoriteGenres)
	assert.Equal(t, []int{42}, user.Preferences.WatchedAnime)
}

func TestHostedCloseStopsPoll(t *testing.T) {
	provider := newFakeProvider(t)

	server := httptest.NewServer(provider)
	defer server.Close()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	m := NewHostedManager(supabase.NewClient(server.URL, "anon-key"), st, &memoryTokenCache{}, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- m.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err, "Close should stop the poll and release the store")
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return, the poll goroutine is stuck")
	}
}
