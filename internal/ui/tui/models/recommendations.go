package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/service"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// RecommendationsModel shows the "for you" listing: popular anime from a
// random sample of the user's favorite genres, minus everything already
// watched.  Refreshing re-rolls the genre sample.
type RecommendationsModel struct {
	config        *config.Config
	discovery     *service.DiscoveryService
	width, height int

	loading   bool
	loadError error
	noGenres  bool
	spinner   spinner.Model

	listing animeListing
}

func NewRecommendationsModel(cfg *config.Config, discovery *service.DiscoveryService) *RecommendationsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return &RecommendationsModel{
		config:    cfg,
		discovery: discovery,
		spinner:   s,
		listing:   newAnimeListing(cfg.UI.TitleLanguage),
	}
}

// loadRecommendations builds a fresh recommendation listing
func loadRecommendations(discovery *service.DiscoveryService, perPage int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		anime, err := discovery.Recommendations(ctx, perPage)
		if err != nil {
			log.Error("Failed to build recommendations", "error", err)
			return CatalogErrorMsg{Error: err}
		}
		return RecommendationsLoadedMsg{Anime: anime}
	}
}

func (m *RecommendationsModel) Init() tea.Cmd {
	m.loading = true
	m.loadError = nil
	m.noGenres = false
	return tea.Batch(
		m.spinner.Tick,
		loadRecommendations(m.discovery, m.config.Catalog.BrowsePageSize),
	)
}

func (m *RecommendationsModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *RecommendationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch kb.GetActionByKey(msg, kb.ContextRecommendations) {
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
		case kb.ActionRefresh:
			return m, m.Init()
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case RecommendationsLoadedMsg:
		m.loading = false
		m.listing.SetItems(msg.Anime)

	case CatalogErrorMsg:
		m.loading = false
		if errors.Is(msg.Error, service.ErrNoFavoriteGenres) {
			m.noGenres = true
		} else {
			m.loadError = msg.Error
		}
	}

	return m, nil
}

func (m *RecommendationsModel) View() string {
	if m.loading {
		return styles.CenteredView(m.width, m.height,
			fmt.Sprintf("%s Picking anime for you...", m.spinner.View()))
	}

	if m.noGenres {
		msg := "No favorite genres selected yet.\n\nPress 'esc' to go back and 'g' to pick some genres first."
		return styles.CenteredView(m.width, m.height,
			styles.ContentBox(min(m.width-20, 70), msg, 1))
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error building recommendations: %v\n\nPress 'r' to retry.", m.loadError)
		return styles.CenteredView(m.width, m.height,
			styles.ContentBox(min(m.width-20, 80), errorMsg, 1))
	}

	header := styles.Header(m.width, "Kasumi - For You")
	content := m.listing.Render(m.width, m.height-8,
		"Nothing new here.  Looks like you've watched it all - press 'r' to re-roll.")
	footer := components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextRecommendations,
		kb.ActionViewDetails, kb.ActionRefresh))

	return fmt.Sprintf("%s\n\n%s\n%s", header, content, footer)
}
