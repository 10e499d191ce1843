package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PizzaHomicide/kasumi/internal/domain"
)

// catalogRequest is the wire shape of a catalog query
type catalogRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// newTestCatalog starts a catalog stub that captures the last request and
// replies with the given JSON body
func newTestCatalog(t *testing.T, responseBody string) (*httptest.Server, *catalogRequest) {
	t.Helper()

	lastRequest := &catalogRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(lastRequest); err != nil {
			t.Errorf("Failed to decode catalog request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	return server, lastRequest
}

const searchResponse = `{
    "data": {
        "Page": {
            "pageInfo": {"total": 2, "currentPage": 1, "lastPage": 1, "hasNextPage": false},
            "media": [
                {
                    "id": 101,
                    "title": {"romaji": "Shingeki no Kyojin", "english": "Attack on Titan", "native": "進撃の巨人"},
                    "description": "Humanity<br>fights.",
                    "genres": ["Action", "Drama"],
                    "averageScore": 84,
                    "popularity": 770000,
                    "episodes": 25,
                    "status": "FINISHED",
                    "season": "SPRING",
                    "seasonYear": 2013,
                    "coverImage": {"large": "https://img.example/large.png", "medium": "https://img.example/medium.png"},
                    "bannerImage": "https://img.example/banner.png",
                    "format": "TV",
                    "studios": {"nodes": [{"name": "Wit Studio"}]}
                },
                {
                    "id": 102,
                    "title": {"romaji": "Kimetsu no Yaiba", "native": "鬼滅の刃"},
                    "genres": ["Action"],
                    "averageScore": 83,
                    "status": "FINISHED",
                    "coverImage": {"large": "", "medium": ""},
                    "format": "TV",
                    "studios": {"nodes": []}
                }
            ]
        }
    }
}`

func TestSearchMapsCatalogResponse(t *testing.T) {
	server, lastRequest := newTestCatalog(t, searchResponse)
	repo := NewAnimeRepository(NewClient(server.URL))

	filters := domain.SearchFilters{
		Query:  "titan",
		Genres: []string{"Action"},
		Status: "FINISHED",
	}
	page, err := repo.Search(context.Background(), filters, 1, 24)
	require.NoError(t, err)

	assert.True(t, strings.Contains(lastRequest.Query, "POPULARITY_DESC"))
	assert.Equal(t, "titan", lastRequest.Variables["search"])
	assert.Equal(t, []interface{}{"Action"}, lastRequest.Variables["genre_in"])
	assert.Equal(t, "FINISHED", lastRequest.Variables["status"])
	assert.Equal(t, float64(1), lastRequest.Variables["page"])
	assert.Equal(t, float64(24), lastRequest.Variables["perPage"])
	// Unset filters must not be sent at all
	assert.NotContains(t, lastRequest.Variables, "format")
	assert.NotContains(t, lastRequest.Variables, "season")
	assert.NotContains(t, lastRequest.Variables, "seasonYear")

	assert.Equal(t, domain.PageInfo{Total: 2, CurrentPage: 1, LastPage: 1, HasNextPage: false}, page.PageInfo)
	require.Len(t, page.Media, 2)

	titan := page.Media[0]
	assert.Equal(t, 101, titan.ID)
	assert.Equal(t, "Attack on Titan", titan.Title.English)
	assert.Equal(t, "Humanity<br>fights.", titan.Description)
	assert.Equal(t, []string{"Action", "Drama"}, titan.Genres)
	assert.Equal(t, 84, titan.AverageScore)
	assert.Equal(t, 770000, titan.Popularity)
	assert.Equal(t, 25, titan.Episodes)
	assert.Equal(t, "SPRING", titan.Season)
	assert.Equal(t, 2013, titan.SeasonYear)
	assert.Equal(t, "https://img.example/large.png", titan.CoverImage.Large)
	assert.Equal(t, "https://img.example/banner.png", titan.BannerImage)
	assert.Equal(t, []string{"Wit Studio"}, titan.Studios)
}

func TestTrendingUsesTrendingSort(t *testing.T) {
	server, lastRequest := newTestCatalog(t, searchResponse)
	repo := NewAnimeRepository(NewClient(server.URL))

	page, err := repo.Trending(context.Background(), 1, 12)
	require.NoError(t, err)

	assert.True(t, strings.Contains(lastRequest.Query, "TRENDING_DESC"))
	assert.Equal(t, float64(12), lastRequest.Variables["perPage"])
	assert.Len(t, page.Media, 2)
}

func TestGetByIDMapsRecommendations(t *testing.T) {
	response := `{
        "data": {
            "Media": {
                "id": 101,
                "title": {"romaji": "Shingeki no Kyojin", "english": "Attack on Titan"},
                "genres": ["Action"],
                "averageScore": 84,
                "status": "FINISHED",
                "coverImage": {"large": "l", "medium": "m"},
                "format": "TV",
                "studios": {"nodes": [{"name": "Wit Studio"}]},
                "recommendations": {
                    "nodes": [
                        {"mediaRecommendation": {"id": 201, "title": {"romaji": "Vinland Saga"}, "coverImage": {"medium": "vm"}, "genres": ["Action"], "averageScore": 86}},
                        {"mediaRecommendation": null}
                    ]
                }
            }
        }
    }`
	server, lastRequest := newTestCatalog(t, response)
	repo := NewAnimeRepository(NewClient(server.URL))

	detail, err := repo.GetByID(context.Background(), 101)
	require.NoError(t, err)

	assert.Equal(t, float64(101), lastRequest.Variables["id"])
	assert.Equal(t, 101, detail.ID)
	assert.Equal(t, "Attack on Titan", detail.Title.English)

	// Unresolvable (null) recommendation entries are skipped
	require.Len(t, detail.Recommendations, 1)
	assert.Equal(t, 201, detail.Recommendations[0].ID)
	assert.Equal(t, "Vinland Saga", detail.Recommendations[0].Title.Romaji)
}

func TestStructuredErrorSurfacesFirstMessage(t *testing.T) {
	response := `{
        "data": null,
        "errors": [
            {"message": "Too Many Requests.", "status": 429},
            {"message": "secondary error"}
        ]
    }`
	server, _ := newTestCatalog(t, response)
	repo := NewAnimeRepository(NewClient(server.URL))

	page, err := repo.Trending(context.Background(), 1, 12)
	require.Error(t, err)
	assert.Nil(t, page, "no partial data on a structured error")

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "Too Many Requests.", queryErr.Message)
}

func TestTransportFailureSurfacesAsQueryError(t *testing.T) {
	server, _ := newTestCatalog(t, "{}")
	endpoint := server.URL
	server.Close()

	repo := NewAnimeRepository(NewClient(endpoint))

	_, err := repo.Search(context.Background(), domain.SearchFilters{}, 1, 24)
	require.Error(t, err)

	var queryErr *QueryError
	assert.ErrorAs(t, err, &queryErr)
}
