package models

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/service"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// BrowseModel shows the paginated trending listing.  It is the landing view
// after login.
type BrowseModel struct {
	config        *config.Config
	discovery     *service.DiscoveryService
	width, height int

	loading   bool
	loadError error
	spinner   spinner.Model

	listing  animeListing
	page     int
	pageInfo domain.PageInfo
}

func NewBrowseModel(cfg *config.Config, discovery *service.DiscoveryService) *BrowseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &BrowseModel{
		config:    cfg,
		discovery: discovery,
		loading:   true,
		spinner:   s,
		listing:   newAnimeListing(cfg.UI.TitleLanguage),
		page:      1,
	}
}

// loadTrending fetches a page of the trending listing from the catalog
func loadTrending(discovery *service.DiscoveryService, page, perPage int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := discovery.Trending(ctx, page, perPage)
		if err != nil {
			log.Error("Failed to load trending listing", "error", err, "page", page)
			return CatalogErrorMsg{Error: err}
		}
		return TrendingLoadedMsg{Page: result}
	}
}

// loadDetails fetches the full details of a single anime
func loadDetails(discovery *service.DiscoveryService, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		detail, err := discovery.Details(ctx, id)
		if err != nil {
			log.Error("Failed to load anime details", "error", err, "id", id)
			return DetailsLoadFailedMsg{ID: id, Err: err}
		}
		return DetailsLoadedMsg{Detail: detail}
	}
}

func (m *BrowseModel) Init() tea.Cmd {
	m.loading = true
	m.loadError = nil
	return tea.Batch(
		m.spinner.Tick,
		loadTrending(m.discovery, m.page, m.config.Catalog.BrowsePageSize),
	)
}

func (m *BrowseModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch kb.GetActionByKey(msg, kb.ContextBrowse) {
		case kb.ActionMoveUp:
			m.listing.MoveUp()
		case kb.ActionMoveDown:
			m.listing.MoveDown()
		case kb.ActionPageUp:
			m.listing.Page(-10)
		case kb.ActionPageDown:
			m.listing.Page(10)
		case kb.ActionMoveTop:
			m.listing.MoveTop()
		case kb.ActionMoveBottom:
			m.listing.MoveBottom()
		case kb.ActionViewDetails:
			if anime := m.listing.Selected(); anime != nil {
				log.Debug("Opening anime details", "id", anime.ID, "title", anime.Title.Preferred(m.config.UI.TitleLanguage))
				return m, loadDetails(m.discovery, anime.ID)
			}
		case kb.ActionRefresh:
			return m, m.Init()
		case kb.ActionNextPage:
			if m.pageInfo.HasNextPage {
				m.page++
				return m, m.Init()
			}
		case kb.ActionPrevPage:
			if m.page > 1 {
				m.page--
				return m, m.Init()
			}
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case TrendingLoadedMsg:
		m.loading = false
		m.pageInfo = msg.Page.PageInfo
		m.listing.SetItems(msg.Page.Media)

	case CatalogErrorMsg:
		m.loading = false
		m.loadError = msg.Error
	}

	return m, nil
}

func (m *BrowseModel) View() string {
	if m.loading {
		return styles.CenteredView(m.width, m.height,
			fmt.Sprintf("%s Loading trending anime...", m.spinner.View()))
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error loading trending anime: %v\n\nPress 'r' to retry.", m.loadError)
		return styles.CenteredView(m.width, m.height,
			styles.ContentBox(min(m.width-20, 80), errorMsg, 1))
	}

	header := styles.Header(m.width, fmt.Sprintf("Kasumi - Trending (page %d/%d)", m.page, max(m.pageInfo.LastPage, 1)))
	content := m.listing.Render(m.width, m.height-8, "Nothing trending right now")
	footer := components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextBrowse,
		kb.ActionViewDetails, kb.ActionEnableSearch, kb.ActionViewRecommendations, kb.ActionEditGenres, kb.ActionNextPage))

	return fmt.Sprintf("%s\n\n%s\n%s", header, content, footer)
}
