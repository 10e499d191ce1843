package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
)

// ErrNoFavoriteGenres is returned by Recommendations when the current user
// has not picked any favorite genres yet
var ErrNoFavoriteGenres = errors.New("no favorite genres selected")

// maxRecommendationGenres caps how many favorite genres a single
// recommendation query mixes together
const maxRecommendationGenres = 3

// DiscoveryService sits between the UI and the catalog: plain pass-throughs
// for browsing and searching, plus the preference-driven recommendation
// query built from the current user's favorite genres.
type DiscoveryService struct {
	repo     domain.AnimeRepository
	sessions domain.SessionManager

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewDiscoveryService(repo domain.AnimeRepository, sessions domain.SessionManager) *DiscoveryService {
	return &DiscoveryService{
		repo:     repo,
		sessions: sessions,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Trending returns a page of the catalog's trending listing
func (s *DiscoveryService) Trending(ctx context.Context, page, perPage int) (*domain.AnimePage, error) {
	result, err := s.repo.Trending(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("unable to load trending anime: %w", err)
	}
	return result, nil
}

// Search runs a popularity-sorted catalog search
func (s *DiscoveryService) Search(ctx context.Context, filters domain.SearchFilters, page, perPage int) (*domain.AnimePage, error) {
	result, err := s.repo.Search(ctx, filters, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return result, nil
}

// Details fetches a single anime with its recommended entries
func (s *DiscoveryService) Details(ctx context.Context, id int) (*domain.AnimeDetail, error) {
	detail, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to load anime %d: %w", id, err)
	}
	return detail, nil
}

// Recommendations builds a personalised listing for the current user: a
// random sample of up to three favorite genres is queried popularity-first,
// and anything already marked watched is dropped from the page.  Each call
// re-samples the genres, so repeated visits surface different corners of the
// user's taste.
func (s *DiscoveryService) Recommendations(ctx context.Context, perPage int) ([]*domain.Anime, error) {
	user := s.sessions.CurrentUser()
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if len(user.Preferences.FavoriteGenres) == 0 {
		return nil, ErrNoFavoriteGenres
	}

	genres := s.sampleGenres(user.Preferences.FavoriteGenres)
	log.Debug("Building recommendations", "genres", genres, "watched", len(user.Preferences.WatchedAnime))

	page, err := s.repo.Search(ctx, domain.SearchFilters{Genres: genres}, 1, perPage)
	if err != nil {
		return nil, fmt.Errorf("recommendation query failed: %w", err)
	}

	result := make([]*domain.Anime, 0, len(page.Media))
	for _, anime := range page.Media {
		if user.Preferences.HasWatched(anime.ID) {
			continue
		}
		result = append(result, anime)
	}

	return result, nil
}

// sampleGenres picks up to maxRecommendationGenres favorites at random
// without modifying the input
func (s *DiscoveryService) sampleGenres(favorites []string) []string {
	shuffled := make([]string, len(favorites))
	copy(shuffled, favorites)

	s.rngMu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.rngMu.Unlock()

	if len(shuffled) > maxRecommendationGenres {
		shuffled = shuffled[:maxRecommendationGenres]
	}
	return shuffled
}
