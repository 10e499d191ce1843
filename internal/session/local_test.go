package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/store"
)

func newLocalTestManager(t *testing.T) *LocalManager {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err, "Should open test store")

	m := NewLocalManager(st)
	t.Cleanup(func() {
		_ = m.Close()
	})
	return m
}

func TestLocalRegisterAndCurrentUser(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "miko", user.Username)
	assert.Equal(t, "miko@example.com", user.Email)
	assert.Empty(t, user.Preferences.FavoriteGenres)
	assert.Empty(t, user.Preferences.WatchedAnime)
	assert.Empty(t, user.Preferences.FavoriteAnime)

	assert.True(t, m.IsAuthenticated())
	current := m.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestLocalRegisterDuplicateEmail(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	first, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	_, err = m.Register(ctx, "other", "miko@example.com", "different")
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	// The duplicate attempt must not have replaced the original record
	require.NoError(t, m.Logout(ctx))
	user, err := m.Login(ctx, "miko@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)
	assert.Equal(t, "miko", user.Username)
}

func TestLocalRegisterDuplicateUsername(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	_, err = m.Register(ctx, "miko", "other@example.com", "different")
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)
}

func TestLocalLoginWrongPassword(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	_, err = m.Login(ctx, "miko@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, m.IsAuthenticated())
}

func TestLocalLoginUnknownEmail(t *testing.T) {
	m := newLocalTestManager(t)

	_, err := m.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLocalLogoutClearsSession(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	assert.Nil(t, m.CurrentUser())
	assert.False(t, m.IsAuthenticated())

	// Logging out again is a no-op
	assert.NoError(t, m.Logout(ctx))
}

func TestLocalUpdatePreferencesPartialMerge(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	genres := []string{"Comedy", "Drama"}
	user, err := m.UpdatePreferences(ctx, domain.PreferencesUpdate{FavoriteGenres: &genres})
	require.NoError(t, err)
	assert.Equal(t, []string{"Comedy", "Drama"}, user.Preferences.FavoriteGenres)

	// A later update touching only the watched list must leave genres alone
	watched := []int{101, 202}
	user, err = m.UpdatePreferences(ctx, domain.PreferencesUpdate{WatchedAnime: &watched})
	require.NoError(t, err)
	assert.Equal(t, []string{"Comedy", "Drama"}, user.Preferences.FavoriteGenres)
	assert.Equal(t, []int{101, 202}, user.Preferences.WatchedAnime)
	assert.Empty(t, user.Preferences.FavoriteAnime)
}

func TestLocalUpdatePreferencesRequiresLogin(t *testing.T) {
	m := newLocalTestManager(t)

	genres := []string{"Action"}
	_, err := m.UpdatePreferences(context.Background(), domain.PreferencesUpdate{FavoriteGenres: &genres})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestLocalPreferencesSurviveLogoutLogin(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	genres := []string{"Comedy", "Drama"}
	_, err = m.UpdatePreferences(ctx, domain.PreferencesUpdate{FavoriteGenres: &genres})
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))

	user, err := m.Login(ctx, "miko@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, []string{"Comedy", "Drama"}, user.Preferences.FavoriteGenres)
}

func TestLocalCurrentUserSnapshotIsIsolated(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	genres := []string{"Comedy"}
	_, err = m.UpdatePreferences(ctx, domain.PreferencesUpdate{FavoriteGenres: &genres})
	require.NoError(t, err)

	snapshot := m.CurrentUser()
	snapshot.Preferences.FavoriteGenres[0] = "mutated"

	assert.Equal(t, []string{"Comedy"}, m.CurrentUser().Preferences.FavoriteGenres,
		"Mutating a returned snapshot must not affect the manager's state")
}

func TestLocalChangesFeed(t *testing.T) {
	m := newLocalTestManager(t)
	ctx := context.Background()

	changes := m.Changes()

	registered, err := m.Register(ctx, "miko", "miko@example.com", "hunter22")
	require.NoError(t, err)

	update := <-changes
	assert.Equal(t, registered.ID, update.ID)

	require.NoError(t, m.Logout(ctx))
	update = <-changes
	assert.Empty(t, update.ID, "Logout should publish a zero-ID snapshot")
}
