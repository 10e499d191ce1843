package domain

// Anime represents a single catalog media entry.  Anime data is read-only from
// Kasumi's point of view: it is fetched per view from the remote catalog and
// never mutated or cached beyond the lifetime of the view showing it.
type Anime struct {
	ID           int
	Title        AnimeTitle
	Description  string // Raw description as returned by the catalog, may contain HTML tags
	Genres       []string
	AverageScore int // 0-100 scale.  Divide by 10 for display
	Popularity   int
	Episodes     int
	Status       string
	Season       string
	SeasonYear   int
	CoverImage   CoverImage
	BannerImage  string
	Format       string
	Studios      []string
}

// AnimeTitle contains various versions of the anime title
type AnimeTitle struct {
	Romaji  string
	English string
	Native  string
}

// Preferred returns the title in the requested language, falling back to
// romaji and then native when the preferred version is not available.
func (t AnimeTitle) Preferred(language string) string {
	if language == "english" && t.English != "" {
		return t.English
	}
	if t.Romaji != "" {
		return t.Romaji
	}
	if t.English != "" {
		return t.English
	}
	return t.Native
}

// CoverImage holds the cover art URLs at the sizes the catalog serves
type CoverImage struct {
	Large  string
	Medium string
}

// PageInfo describes the pagination state of a catalog listing
type PageInfo struct {
	Total       int
	CurrentPage int
	LastPage    int
	HasNextPage bool
}

// AnimePage is one page of catalog results
type AnimePage struct {
	PageInfo PageInfo
	Media    []*Anime
}

// AnimeDetail is the full view of a single anime, including the catalog's
// related/recommended entries for it.
type AnimeDetail struct {
	Anime
	Recommendations []*Anime
}

// SearchFilters are the optional filters accepted by a catalog search.
// Zero values mean the filter is not applied.
type SearchFilters struct {
	Query  string
	Genres []string
	Status string
	Format string
	Season string
	Year   int
}
