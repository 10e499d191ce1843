package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/kasumi/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	return s
}

func testRecord() *domain.UserRecord {
	return &domain.UserRecord{
		User: domain.User{
			ID:       "id-1",
			Username: "miko",
			Email:    "miko@example.com",
			Preferences: domain.Preferences{
				FavoriteGenres: []string{"Action"},
				WatchedAnime:   []int{101},
			},
		},
		PasswordHash: []byte("not-a-real-hash"),
	}
}

func TestSaveAndLookupUser(t *testing.T) {
	s := openTestStore(t)
	rec := testRecord()

	require.NoError(t, s.SaveUser(rec))

	byEmail, err := s.UserByEmail("miko@example.com")
	require.NoError(t, err)
	assert.Equal(t, rec, byEmail)

	byUsername, err := s.UserByUsername("miko")
	require.NoError(t, err)
	assert.Equal(t, rec, byUsername)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveUser(testRecord()))

	byEmail, err := s.UserByEmail("MIKO@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byEmail.User.ID)

	byUsername, err := s.UserByUsername("Miko")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byUsername.User.ID)
}

func TestLookupUnknownUser(t *testing.T) {
	s := openTestStore(t)

	_, err := s.UserByEmail("ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.UserByUsername("ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCurrentUserLifecycle(t *testing.T) {
	s := openTestStore(t)

	// Nothing stored yet
	_, err := s.CurrentUser()
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	rec := testRecord()
	require.NoError(t, s.SetCurrentUser(rec))

	current, err := s.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, rec, current)

	require.NoError(t, s.ClearCurrentUser())
	_, err = s.CurrentUser()
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// Clearing again must stay a no-op
	assert.NoError(t, s.ClearCurrentUser())
}

func TestSaveUserOverwrites(t *testing.T) {
	s := openTestStore(t)
	rec := testRecord()
	require.NoError(t, s.SaveUser(rec))

	rec.User.Preferences.FavoriteGenres = []string{"Drama", "Comedy"}
	require.NoError(t, s.SaveUser(rec))

	loaded, err := s.UserByEmail("miko@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "Comedy"}, loaded.User.Preferences.FavoriteGenres)
}
