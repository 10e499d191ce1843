package domain

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateIdentity is returned by Register when the email or username
	// is already claimed by an existing user.
	ErrDuplicateIdentity = errors.New("a user already exists with this email or username")

	// ErrInvalidCredentials is returned by Login when no user matches the
	// supplied email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotAuthenticated is returned by mutating operations that require a
	// current user when none is logged in.
	ErrNotAuthenticated = errors.New("no user logged in")

	// ErrUserNotFound is returned by user stores when no record exists for
	// the requested key.
	ErrUserNotFound = errors.New("user not found")
)

// ProviderError is an error reported by the hosted identity provider.  The
// message is passed through verbatim so the UI can show exactly what the
// provider said (weak password, invalid email format, and so on).
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// SessionManager owns the authenticated-user record and is the single source
// of truth the rest of the application reads from.  At most one user is
// current at any time.  Two interchangeable implementations exist: a local
// variant persisting everything in an embedded store, and a hosted variant
// where state is owned by a remote identity provider.  Callers must not be
// able to tell them apart through this interface.
type SessionManager interface {
	// Restore rehydrates the current user from the previous session, if any.
	// Not finding one is not an error.
	Restore(ctx context.Context) error

	// Register creates a new user with empty preference sets and marks it
	// current.  Fails with ErrDuplicateIdentity when the email or username is
	// already claimed, or with a *ProviderError for hosted-provider
	// rejections.
	Register(ctx context.Context, username, email, password string) (*User, error)

	// Login hydrates the full user (identity plus preferences) and marks it
	// current.  Fails with ErrInvalidCredentials when no match exists.
	Login(ctx context.Context, email, password string) (*User, error)

	// Logout clears the current user and any cached session token.  Calling
	// it when already logged out is a no-op, not an error.
	Logout(ctx context.Context) error

	// UpdatePreferences merges the partial update into the current user's
	// preferences (field-level overwrite), persists the result and returns
	// the updated user.  Fails with ErrNotAuthenticated when no user is
	// current.  Overlapping calls are last-write-wins; there is no version
	// check.
	UpdatePreferences(ctx context.Context, update PreferencesUpdate) (*User, error)

	// CurrentUser returns a copy of the last-known current user snapshot, or
	// nil when logged out.  It never triggers a network call.
	CurrentUser() *User

	// IsAuthenticated reports whether a current user exists and, for the
	// hosted variant, whether the session token is still live.
	IsAuthenticated() bool

	// Changes streams fresh user snapshots: after every successful mutation,
	// and, for the hosted variant, whenever the background freshness poll
	// observes a change.  A nil-user change is delivered as a zero-ID User.
	Changes() <-chan User

	// Close stops any background polling and releases the underlying store.
	Close() error
}
