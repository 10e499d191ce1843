package models

import "github.com/PizzaHomicide/kasumi/internal/domain"

// AuthSuccessMsg is sent when a login or registration completed successfully
type AuthSuccessMsg struct {
	User *domain.User
}

// AuthErrorMsg is sent when a login or registration failed.  The message is
// already user-presentable.
type AuthErrorMsg struct {
	Message string
}

// LoggedOutMsg is sent after the session manager cleared the current user
type LoggedOutMsg struct{}

// SessionChangedMsg carries a fresh user snapshot from the session manager's
// change feed.  A zero-ID user means logged out.
type SessionChangedMsg struct {
	User domain.User
}

// TrendingLoadedMsg is sent when a page of the trending listing is loaded
type TrendingLoadedMsg struct {
	Page *domain.AnimePage
}

// SearchResultsMsg is sent when a catalog search completes
type SearchResultsMsg struct {
	Query string
	Page  *domain.AnimePage
}

// DetailsLoadedMsg is sent when the full details of an anime are loaded
type DetailsLoadedMsg struct {
	Detail *domain.AnimeDetail
}

// DetailsLoadFailedMsg is sent when the full details of an anime could not be
// loaded from the catalog.  The details view renders it as a not-found state.
type DetailsLoadFailedMsg struct {
	ID  int
	Err error
}

// RecommendationsLoadedMsg is sent when a recommendation listing is built
type RecommendationsLoadedMsg struct {
	Anime []*domain.Anime
}

// PreferencesSavedMsg is sent when a preferences update was persisted
type PreferencesSavedMsg struct {
	User *domain.User
}

// CatalogErrorMsg is sent when a catalog query fails
type CatalogErrorMsg struct {
	Error error
}

// PreferencesErrorMsg is sent when a preferences update fails
type PreferencesErrorMsg struct {
	Message string
}
