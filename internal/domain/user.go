package domain

// User is the authenticated-user record: identity plus preference aggregate.
// The ID is assigned by the identity provider (or generated locally in the
// local variant) at creation and is immutable thereafter.
type User struct {
	ID          string
	Username    string
	Email       string
	Preferences Preferences
}

// Preferences holds the user's catalog preferences.  A user with no favorite
// genres is valid, it just means the preference-setup step hasn't run yet.
type Preferences struct {
	FavoriteGenres []string
	WatchedAnime   []int
	FavoriteAnime  []int
}

// PreferencesUpdate is a partial preferences change.  Nil fields are left
// untouched by a merge; a non-nil field replaces the whole list, it is not a
// deep merge of the list contents.
type PreferencesUpdate struct {
	FavoriteGenres *[]string
	WatchedAnime   *[]int
	FavoriteAnime  *[]int
}

// Merge applies the update field-by-field and returns the resulting
// preferences.  The receiver is not modified.
func (p Preferences) Merge(update PreferencesUpdate) Preferences {
	merged := p.clone()
	if update.FavoriteGenres != nil {
		merged.FavoriteGenres = copySlice(*update.FavoriteGenres)
	}
	if update.WatchedAnime != nil {
		merged.WatchedAnime = copySlice(*update.WatchedAnime)
	}
	if update.FavoriteAnime != nil {
		merged.FavoriteAnime = copySlice(*update.FavoriteAnime)
	}
	return merged
}

// HasWatched reports whether the anime id is in the watched list
func (p Preferences) HasWatched(animeID int) bool {
	for _, id := range p.WatchedAnime {
		if id == animeID {
			return true
		}
	}
	return false
}

// HasFavorite reports whether the anime id is in the favorites list
func (p Preferences) HasFavorite(animeID int) bool {
	for _, id := range p.FavoriteAnime {
		if id == animeID {
			return true
		}
	}
	return false
}

func (p Preferences) clone() Preferences {
	return Preferences{
		FavoriteGenres: copySlice(p.FavoriteGenres),
		WatchedAnime:   copySlice(p.WatchedAnime),
		FavoriteAnime:  copySlice(p.FavoriteAnime),
	}
}

// copySlice copies a slice preserving nil-ness, so copies of a snapshot stay
// comparable to the original
func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy of the user.  Session managers hand out copies so
// UI code can never mutate the canonical snapshot through a shared slice.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Preferences = u.Preferences.clone()
	return &clone
}
