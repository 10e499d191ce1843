package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/util"
)

// DetailsModel shows a single anime in full: metadata, description and the
// catalog's recommended entries.  From here the user can mark the anime
// watched or favorite, which flows through the session manager.
type DetailsModel struct {
	config        *config.Config
	sessions      domain.SessionManager
	width, height int

	detail   *domain.AnimeDetail
	viewport viewport.Model

	// failedID is the id of an anime whose details could not be loaded.
	// Non-zero means the view shows its not-found state instead of a detail.
	failedID  int
	statusMsg string
}

func NewDetailsModel(cfg *config.Config, sessions domain.SessionManager) *DetailsModel {
	return &DetailsModel{
		config:   cfg,
		sessions: sessions,
		viewport: viewport.New(0, 0),
	}
}

// SetDetail loads a fresh anime into the view
func (m *DetailsModel) SetDetail(detail *domain.AnimeDetail) {
	m.detail = detail
	m.failedID = 0
	m.statusMsg = ""
	m.updateContent()
	m.viewport.GotoTop()
}

// SetLoadFailed puts the view into its not-found state for the given anime
func (m *DetailsModel) SetLoadFailed(id int) {
	m.detail = nil
	m.failedID = id
	m.statusMsg = ""
	m.updateContent()
}

func (m *DetailsModel) Init() tea.Cmd {
	return nil
}

func (m *DetailsModel) Resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width - 6
	contentHeight := height - 9
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight
	m.updateContent()
}

func (m *DetailsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextDetails) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
		case kb.ActionToggleWatched:
			return m, m.toggleWatched()
		case kb.ActionToggleFavorite:
			return m, m.toggleFavorite()
		}

	case PreferencesSavedMsg:
		m.statusMsg = ""
		m.updateContent()

	case PreferencesErrorMsg:
		m.statusMsg = msg.Message
	}

	return m, nil
}

// toggleWatched adds or removes the anime from the watched list
func (m *DetailsModel) toggleWatched() tea.Cmd {
	if m.detail == nil {
		return nil
	}

	id := m.detail.ID
	sessions := m.sessions
	return func() tea.Msg {
		user := sessions.CurrentUser()
		if user == nil {
			return PreferencesErrorMsg{Message: "Log in to track watched anime"}
		}

		watched := toggleID(user.Preferences.WatchedAnime, id)
		return applyPreferenceUpdate(sessions, domain.PreferencesUpdate{WatchedAnime: &watched})
	}
}

// toggleFavorite adds or removes the anime from the favorites list
func (m *DetailsModel) toggleFavorite() tea.Cmd {
	if m.detail == nil {
		return nil
	}

	id := m.detail.ID
	sessions := m.sessions
	return func() tea.Msg {
		user := sessions.CurrentUser()
		if user == nil {
			return PreferencesErrorMsg{Message: "Log in to track favorite anime"}
		}

		favorites := toggleID(user.Preferences.FavoriteAnime, id)
		return applyPreferenceUpdate(sessions, domain.PreferencesUpdate{FavoriteAnime: &favorites})
	}
}

// toggleID returns the list with the id added, or removed when already present
func toggleID(ids []int, id int) []int {
	for i, existing := range ids {
		if existing == id {
			return append(append([]int{}, ids[:i]...), ids[i+1:]...)
		}
	}
	return append(append([]int{}, ids...), id)
}

// applyPreferenceUpdate runs the partial update and maps the outcome to a message
func applyPreferenceUpdate(sessions domain.SessionManager, update domain.PreferencesUpdate) tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := sessions.UpdatePreferences(ctx, update)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return PreferencesErrorMsg{Message: "Log in to save preferences"}
		}
		log.Error("Failed to update preferences", "error", err)
		return PreferencesErrorMsg{Message: fmt.Sprintf("Unable to save: %v", err)}
	}
	return PreferencesSavedMsg{User: user}
}

// updateContent rebuilds the viewport content from the current detail
func (m *DetailsModel) updateContent() {
	if m.detail == nil {
		m.viewport.SetContent("")
		return
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	var b strings.Builder

	b.WriteString(m.renderMetadata())
	b.WriteString("\n")

	if len(m.detail.Genres) > 0 {
		b.WriteString(styles.Genre.Render(strings.Join(m.detail.Genres, " · ")))
		b.WriteString("\n\n")
	}

	if m.detail.Description != "" {
		// The cleaned description is a single line; wrap it to the viewport
		b.WriteString(lipgloss.NewStyle().Width(m.viewport.Width).Render(util.CleanDescription(m.detail.Description)))
		b.WriteString("\n\n")
	}

	if len(m.detail.Studios) > 0 {
		b.WriteString(styles.Subtle.Render("Studios: " + strings.Join(m.detail.Studios, ", ")))
		b.WriteString("\n\n")
	}

	if len(m.detail.Recommendations) > 0 {
		b.WriteString(titleStyle.Render("If you liked this, the catalog also recommends"))
		b.WriteString("\n\n")
		for _, rec := range m.detail.Recommendations {
			b.WriteString(fmt.Sprintf("• %s (%s)\n",
				rec.Title.Preferred(m.config.UI.TitleLanguage),
				util.FormatScore(rec.AverageScore)))
		}
	}

	m.viewport.SetContent(b.String())
}

// renderMetadata formats the score/format/episodes/season line and the user's
// watched/favorite markers
func (m *DetailsModel) renderMetadata() string {
	parts := []string{
		"Score: " + util.FormatScore(m.detail.AverageScore),
		"Format: " + valueOrUnknown(m.detail.Format),
		"Status: " + valueOrUnknown(m.detail.Status),
	}
	if m.detail.Episodes > 0 {
		parts = append(parts, fmt.Sprintf("Episodes: %d", m.detail.Episodes))
	}
	if m.detail.Season != "" && m.detail.SeasonYear > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", m.detail.Season, m.detail.SeasonYear))
	}

	line := styles.Info.Render(strings.Join(parts, "  |  "))

	if user := m.sessions.CurrentUser(); user != nil {
		var markers []string
		if user.Preferences.HasWatched(m.detail.ID) {
			markers = append(markers, styles.Success.Render("✓ watched"))
		}
		if user.Preferences.HasFavorite(m.detail.ID) {
			markers = append(markers, styles.Genre.Render("★ favorite"))
		}
		if len(markers) > 0 {
			line += "\n" + strings.Join(markers, "  ")
		}
	}

	return line + "\n"
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func (m *DetailsModel) View() string {
	if m.failedID != 0 {
		msg := fmt.Sprintf("Anime %d not found.\n\nThe catalog could not provide details for this entry.\nPress 'esc' to go back.", m.failedID)
		return styles.CenteredView(m.width, m.height,
			styles.ContentBox(min(max(m.width-20, 1), 70), msg, 1))
	}

	if m.detail == nil {
		return styles.CenteredView(m.width, m.height, "No anime selected")
	}

	title := util.TruncateString(m.detail.Title.Preferred(m.config.UI.TitleLanguage), m.width-4)
	header := styles.Header(m.width, title)

	var status string
	if m.statusMsg != "" {
		status = styles.CenteredText(m.width, styles.Error.Render(m.statusMsg))
	}

	footer := components.KeyBindingsBar(m.width, components.BindingsFor(kb.ContextDetails,
		kb.ActionToggleWatched, kb.ActionToggleFavorite))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		status,
		footer,
	)
}
