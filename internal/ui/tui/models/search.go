package models

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
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

// SearchModel is the catalog search view: a query input plus a paginated,
// popularity-sorted result listing
type SearchModel struct {
	config        *config.Config
	discovery     *service.DiscoveryService
	width, height int

	input      textinput.Model
	inputFocus bool

	searching bool
	loadError error
	spinner   spinner.Model

	query    string
	listing  animeListing
	page     int
	pageInfo domain.PageInfo
}

func NewSearchModel(cfg *config.Config, discovery *service.DiscoveryService) *SearchModel {
	input := textinput.New()
	input.Placeholder = "Search anime..."
	input.CharLimit = 100

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &SearchModel{
		config:    cfg,
		discovery: discovery,
		input:     input,
		spinner:   s,
		listing:   newAnimeListing(cfg.UI.TitleLanguage),
		page:      1,
	}
}

// runSearch fires a popularity-sorted catalog search
func runSearch(discovery *service.DiscoveryService, query string, page, perPage int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := discovery.Search(ctx, domain.SearchFilters{Query: query}, page, perPage)
		if err != nil {
			log.Error("Search failed", "error", err, "query", query)
			return CatalogErrorMsg{Error: err}
		}
		return SearchResultsMsg{Query: query, Page: result}
	}
}

func (m *SearchModel) Init() tea.Cmd {
	m.Focus()
	return textinput.Blink
}

// Focus puts the view into query-editing mode
func (m *SearchModel) Focus() {
	m.inputFocus = true
	m.input.Focus()
}

func (m *SearchModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = min(width-10, 60)
}

func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputFocus {
			return m.updateSearchMode(msg)
		}
		return m.updateResultsMode(msg)

	case spinner.TickMsg:
		if m.searching {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case SearchResultsMsg:
		m.searching = false
		m.loadError = nil
		m.query = msg.Query
		m.pageInfo = msg.Page.PageInfo
		m.listing.SetItems(msg.Page.Media)

	case CatalogErrorMsg:
		m.searching = false
		m.loadError = msg.Error
	}

	return m, nil
}

// updateSearchMode handles keys while the query input is focused
func (m *SearchModel) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionSearchComplete:
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		m.inputFocus = false
		m.input.Blur()
		m.searching = true
		m.loadError = nil
		m.page = 1
		return m, tea.Batch(m.spinner.Tick, runSearch(m.discovery, query, m.page, m.config.Catalog.SearchPageSize))

	case kb.ActionBack:
		m.inputFocus = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateResultsMode handles keys while browsing the result listing
func (m *SearchModel) updateResultsMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kb.GetActionByKey(msg, kb.ContextSearch) {
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
			return m, loadDetails(m.discovery, anime.ID)
		}
	case kb.ActionEnableSearch:
		m.Focus()
		return m, textinput.Blink
	case kb.ActionNextPage:
		if m.pageInfo.HasNextPage && m.query != "" {
			m.page++
			m.searching = true
			return m, tea.Batch(m.spinner.Tick, runSearch(m.discovery, m.query, m.page, m.config.Catalog.SearchPageSize))
		}
	case kb.ActionPrevPage:
		if m.page > 1 && m.query != "" {
			m.page--
			m.searching = true
			return m, tea.Batch(m.spinner.Tick, runSearch(m.discovery, m.query, m.page, m.config.Catalog.SearchPageSize))
		}
	}

	return m, nil
}

func (m *SearchModel) View() string {
	header := styles.Header(m.width, "Kasumi - Search")

	inputLine := "Search: " + m.input.View()
	if m.searching {
		inputLine = fmt.Sprintf("%s Searching for %q...", m.spinner.View(), m.input.Value())
	}

	var content string
	switch {
	case m.loadError != nil:
		content = styles.ContentBox(m.width-2,
			styles.Error.Render(fmt.Sprintf("Search failed: %v", m.loadError)), 1)
	case m.query == "":
		content = styles.ContentBox(m.width-2,
			styles.CenteredText(m.width-6, styles.Subtle.Render("Type a query and press enter")), 1)
	default:
		content = m.listing.Render(m.width, m.height-10, fmt.Sprintf("No results for %q", m.query))
	}

	footer := components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextSearch,
		kb.ActionViewDetails, kb.ActionEnableSearch, kb.ActionNextPage, kb.ActionPrevPage))

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", header, styles.StatusBar.Render(inputLine), content, footer)
}
