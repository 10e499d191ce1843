package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
)

// Client talks to the hosted identity/preferences provider.  The provider
// exposes password auth endpoints under /auth/v1 and a REST interface over
// the preferences tables under /rest/v1.  Kasumi consumes it, it does not own
// it: every operation is a plain request/response round trip.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a provider client for the project at baseURL using the
// project's public API key
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Session is an authenticated provider session
type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        AuthUser `json:"user"`
}

// AuthUser is the provider's view of an identity
type AuthUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// Username returns the username stored in the identity's metadata at sign-up,
// or empty when none was recorded
func (u AuthUser) Username() string {
	if name, ok := u.UserMetadata["username"].(string); ok {
		return name
	}
	return ""
}

// PreferencesRow is the provider-side preferences record.  Column names are
// snake_case; mapping to the domain shape happens in the session manager.
type PreferencesRow struct {
	UserID         string   `json:"user_id"`
	FavoriteGenres []string `json:"favorite_genres"`
	WatchedAnime   []int    `json:"watched_anime"`
	FavoriteAnime  []int    `json:"favorite_anime"`
}

// SignUp registers a new identity, recording the username in its metadata.
// Duplicate identities map to domain.ErrDuplicateIdentity; other provider
// rejections (weak password, invalid email, ...) come back verbatim as a
// *domain.ProviderError.
func (c *Client) SignUp(ctx context.Context, username, email, password string) (*Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"username": username,
		},
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &session); err != nil {
		return nil, err
	}

	log.Info("Provider sign-up succeeded", "user_id", session.User.ID)
	return &session, nil
}

// SignInWithPassword exchanges credentials for a session.  A credentials
// mismatch maps to domain.ErrInvalidCredentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}

	log.Info("Provider sign-in succeeded", "user_id", session.User.ID)
	return &session, nil
}

// SignOut revokes the session token
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

// SessionUser fetches the identity behind an access token.  This is what the
// freshness poll re-reads on every interval.
func (c *Client) SessionUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	var user AuthUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Preferences fetches the preferences row for a user.  A missing row maps to
// domain.ErrUserNotFound.
func (c *Client) Preferences(ctx context.Context, accessToken, userID string) (*PreferencesRow, error) {
	var rows []PreferencesRow
	path := "/rest/v1/user_preferences?select=*&user_id=eq." + userID
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &rows); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &rows[0], nil
}

// UpsertPreferences writes a full preferences row, creating it if absent.
// Used right after sign-up to persist the default empty row.
func (c *Client) UpsertPreferences(ctx context.Context, accessToken string, row *PreferencesRow) error {
	return c.doWithPrefer(ctx, http.MethodPost, "/rest/v1/user_preferences", accessToken, row, nil,
		"resolution=merge-duplicates,return=minimal")
}

// UpdatePreferences applies a partial column update to a user's preferences
// row.  Only the supplied columns change; this is last-write-wins with no
// version check.
func (c *Client) UpdatePreferences(ctx context.Context, accessToken, userID string, columns map[string]interface{}) error {
	path := "/rest/v1/user_preferences?user_id=eq." + userID
	return c.doWithPrefer(ctx, http.MethodPatch, path, accessToken, columns, nil, "return=minimal")
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	return c.doWithPrefer(ctx, method, path, accessToken, body, result, "")
}

func (c *Client) doWithPrefer(ctx context.Context, method, path, accessToken string, body, result interface{}, prefer string) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode provider request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("unable to build provider request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("unable to decode provider response: %w", err)
	}
	return nil
}

// apiError is the provider's error body.  Field names vary by endpoint
// generation, so all known spellings are collected.
type apiError struct {
	Code             string `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error_           string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) message() string {
	for _, msg := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error_} {
		if msg != "" {
			return msg
		}
	}
	return "provider rejected the request"
}

func (e apiError) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if e.Error_ != "" {
		return e.Error_
	}
	return e.Code
}

func (c *Client) mapError(resp *http.Response) error {
	var body apiError
	// A decode failure just means an empty/opaque error body; the status code
	// based fallbacks below still apply
	_ = json.NewDecoder(resp.Body).Decode(&body)

	code := body.code()
	log.Warn("Provider rejected request", "status", resp.StatusCode, "code", code, "message", body.message())

	switch code {
	case "user_already_exists", "email_exists":
		return domain.ErrDuplicateIdentity
	case "invalid_credentials", "invalid_grant":
		return domain.ErrInvalidCredentials
	}

	return &domain.ProviderError{Code: code, Message: body.message()}
}
