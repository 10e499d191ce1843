package domain

import "context"

// AnimeRepository defines the interface for catalog data access.  Every call
// is a fresh round trip to the remote catalog; there is no retry and no
// caching at this layer.
type AnimeRepository interface {
	// Search runs a paginated catalog search sorted by popularity descending
	Search(ctx context.Context, filters SearchFilters, page, perPage int) (*AnimePage, error)

	// Trending returns the paginated trending listing sorted by trending
	// score descending
	Trending(ctx context.Context, page, perPage int) (*AnimePage, error)

	// GetByID fetches a single anime including its recommended entries
	GetByID(ctx context.Context, id int) (*AnimeDetail, error)
}

// UserRecord is a user as persisted by a UserStore.  The password hash is
// only populated for users registered with the local variant; the hosted
// variant never sees a password after the provider call.
type UserRecord struct {
	User         User   `json:"user"`
	PasswordHash []byte `json:"password_hash,omitempty"`
}

// UserStore is the durable key-value persistence used by the local session
// variant for all state, and by the hosted variant as a cache of the current
// user snapshot for synchronous reads.
type UserStore interface {
	// SaveUser persists a registered user record and its uniqueness indexes
	SaveUser(rec *UserRecord) error

	// UserByEmail looks up a registered user by email.  Returns
	// ErrUserNotFound when no record exists.
	UserByEmail(email string) (*UserRecord, error)

	// UserByUsername looks up a registered user by username.  Returns
	// ErrUserNotFound when no record exists.
	UserByUsername(username string) (*UserRecord, error)

	// SetCurrentUser persists the current-user snapshot
	SetCurrentUser(rec *UserRecord) error

	// CurrentUser returns the persisted current-user snapshot.  Returns
	// ErrUserNotFound when nobody is logged in.
	CurrentUser() (*UserRecord, error)

	// ClearCurrentUser removes the current-user snapshot.  Clearing an
	// already-absent snapshot is a no-op.
	ClearCurrentUser() error

	// Close releases the store
	Close() error
}
