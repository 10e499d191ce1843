package anilist

import (
	"context"
	"fmt"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
)

// mediaFields is the selection set shared by every listing query
const mediaFields = `
            id
            title {
                romaji
                english
                native
            }
            description
            genres
            averageScore
            popularity
            episodes
            status
            season
            seasonYear
            coverImage {
                large
                medium
            }
            bannerImage
            format
            studios {
                nodes {
                    name
                }
            }`

type AnimeRepository struct {
	client *Client
}

func NewAnimeRepository(client *Client) domain.AnimeRepository {
	return &AnimeRepository{
		client: client,
	}
}

// media mirrors the catalog's media object shape for unmarshalling
type media struct {
	ID    int
	Title struct {
		Romaji  string
		English string
		Native  string
	}
	Description  string
	Genres       []string
	AverageScore int
	Popularity   int
	Episodes     int
	Status       string
	Season       string
	SeasonYear   int
	CoverImage   struct {
		Large  string
		Medium string
	}
	BannerImage string
	Format      string
	Studios     struct {
		Nodes []struct {
			Name string
		}
	}
}

func (m media) toDomain() *domain.Anime {
	anime := &domain.Anime{
		ID: m.ID,
		Title: domain.AnimeTitle{
			Romaji:  m.Title.Romaji,
			English: m.Title.English,
			Native:  m.Title.Native,
		},
		Description:  m.Description,
		Genres:       m.Genres,
		AverageScore: m.AverageScore,
		Popularity:   m.Popularity,
		Episodes:     m.Episodes,
		Status:       m.Status,
		Season:       m.Season,
		SeasonYear:   m.SeasonYear,
		CoverImage: domain.CoverImage{
			Large:  m.CoverImage.Large,
			Medium: m.CoverImage.Medium,
		},
		BannerImage: m.BannerImage,
		Format:      m.Format,
	}

	for _, studio := range m.Studios.Nodes {
		anime.Studios = append(anime.Studios, studio.Name)
	}

	return anime
}

type pageResponse struct {
	Page struct {
		PageInfo struct {
			Total       int
			CurrentPage int
			LastPage    int
			HasNextPage bool
		}
		Media []media
	}
}

func (p pageResponse) toDomain() *domain.AnimePage {
	page := &domain.AnimePage{
		PageInfo: domain.PageInfo{
			Total:       p.Page.PageInfo.Total,
			CurrentPage: p.Page.PageInfo.CurrentPage,
			LastPage:    p.Page.PageInfo.LastPage,
			HasNextPage: p.Page.PageInfo.HasNextPage,
		},
	}

	for _, m := range p.Page.Media {
		page.Media = append(page.Media, m.toDomain())
	}

	return page
}

// Search runs a paginated free-text/filtered catalog search sorted by popularity descending
func (r *AnimeRepository) Search(ctx context.Context, filters domain.SearchFilters, page, perPage int) (*domain.AnimePage, error) {
	query := `
        query ($search: String, $genre_in: [String], $status: MediaStatus, $format: MediaFormat, $season: MediaSeason, $seasonYear: Int, $page: Int, $perPage: Int) {
            Page(page: $page, perPage: $perPage) {
                pageInfo {
                    total
                    currentPage
                    lastPage
                    hasNextPage
                }
                media(search: $search, genre_in: $genre_in, status: $status, format: $format, season: $season, seasonYear: $seasonYear, type: ANIME, sort: POPULARITY_DESC) {` + mediaFields + `
                }
            }
        }
    `

	variables := map[string]interface{}{
		"page":    page,
		"perPage": perPage,
	}

	// Only include filters that are actually set so the catalog treats the
	// rest as absent rather than matching against empty values
	if filters.Query != "" {
		variables["search"] = filters.Query
	}
	if len(filters.Genres) > 0 {
		variables["genre_in"] = filters.Genres
	}
	if filters.Status != "" {
		variables["status"] = filters.Status
	}
	if filters.Format != "" {
		variables["format"] = filters.Format
	}
	if filters.Season != "" {
		variables["season"] = filters.Season
	}
	if filters.Year > 0 {
		variables["seasonYear"] = filters.Year
	}

	var response pageResponse
	if err := r.client.Query(ctx, query, variables, &response); err != nil {
		return nil, fmt.Errorf("failed to search anime: %w", err)
	}

	result := response.toDomain()
	log.Debug("Searched anime catalog", "query", filters.Query, "genres", filters.Genres, "count", len(result.Media))
	return result, nil
}

// Trending returns the paginated trending listing sorted by trending score descending
func (r *AnimeRepository) Trending(ctx context.Context, page, perPage int) (*domain.AnimePage, error) {
	query := `
        query ($page: Int, $perPage: Int) {
            Page(page: $page, perPage: $perPage) {
                pageInfo {
                    total
                    currentPage
                    lastPage
                    hasNextPage
                }
                media(type: ANIME, sort: TRENDING_DESC) {` + mediaFields + `
                }
            }
        }
    `

	variables := map[string]interface{}{
		"page":    page,
		"perPage": perPage,
	}

	var response pageResponse
	if err := r.client.Query(ctx, query, variables, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch trending anime: %w", err)
	}

	result := response.toDomain()
	log.Debug("Fetched trending anime", "page", page, "count", len(result.Media))
	return result, nil
}

// GetByID fetches a single anime, including the catalog's recommended entries for it
func (r *AnimeRepository) GetByID(ctx context.Context, id int) (*domain.AnimeDetail, error) {
	query := `
        query ($id: Int) {
            Media(id: $id, type: ANIME) {` + mediaFields + `
                recommendations {
                    nodes {
                        mediaRecommendation {
                            id
                            title {
                                romaji
                                english
                            }
                            coverImage {
                                medium
                            }
                            genres
                            averageScore
                        }
                    }
                }
            }
        }
    `

	variables := map[string]interface{}{
		"id": id,
	}

	var response struct {
		Media struct {
			media
			Recommendations struct {
				Nodes []struct {
					MediaRecommendation *media `json:"mediaRecommendation"`
				}
			}
		}
	}

	if err := r.client.Query(ctx, query, variables, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch anime %d: %w", id, err)
	}

	detail := &domain.AnimeDetail{
		Anime: *response.Media.media.toDomain(),
	}

	for _, node := range response.Media.Recommendations.Nodes {
		// The catalog returns null entries for recommendations it can no longer resolve
		if node.MediaRecommendation == nil {
			continue
		}
		detail.Recommendations = append(detail.Recommendations, node.MediaRecommendation.toDomain())
	}

	log.Debug("Fetched anime detail", "id", id, "recommendations", len(detail.Recommendations))
	return detail, nil
}
