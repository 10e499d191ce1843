package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// genreVocabulary is the set of genres the catalog tags anime with
var genreVocabulary = []string{
	"Action",
	"Adventure",
	"Comedy",
	"Drama",
	"Ecchi",
	"Fantasy",
	"Horror",
	"Mahou Shoujo",
	"Mecha",
	"Music",
	"Mystery",
	"Psychological",
	"Romance",
	"Sci-Fi",
	"Slice of Life",
	"Sports",
	"Supernatural",
	"Thriller",
}

// PreferencesModel is the favorite-genre picker.  Typing narrows the genre
// list with fuzzy matching, space toggles, enter saves.
type PreferencesModel struct {
	sessions      domain.SessionManager
	width, height int

	filter   textinput.Model
	visible  []string
	selected map[string]bool
	cursor   int

	errMsg string
}

func NewPreferencesModel(sessions domain.SessionManager) *PreferencesModel {
	filter := textinput.New()
	filter.Placeholder = "Type to filter genres..."
	filter.CharLimit = 30

	return &PreferencesModel{
		sessions: sessions,
		filter:   filter,
		visible:  genreVocabulary,
		selected: map[string]bool{},
	}
}

// Init seeds the selection from the current user's favorites
func (m *PreferencesModel) Init() tea.Cmd {
	m.selected = map[string]bool{}
	if user := m.sessions.CurrentUser(); user != nil {
		for _, genre := range user.Preferences.FavoriteGenres {
			m.selected[genre] = true
		}
	}
	m.filter.SetValue("")
	m.filter.Focus()
	m.applyFilter()
	m.cursor = 0
	m.errMsg = ""
	return textinput.Blink
}

func (m *PreferencesModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *PreferencesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextPreferences) {
		case kb.ActionMoveUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case kb.ActionMoveDown:
			if len(m.visible) > 0 && m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil
		case kb.ActionToggleGenre:
			if m.cursor < len(m.visible) {
				genre := m.visible[m.cursor]
				m.selected[genre] = !m.selected[genre]
			}
			return m, nil
		case kb.ActionSavePreferences:
			return m, m.save()
		}

		// Everything else edits the filter
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd

	case PreferencesErrorMsg:
		m.errMsg = msg.Message
	}

	return m, nil
}

// applyFilter narrows the visible genres with fuzzy matching
func (m *PreferencesModel) applyFilter() {
	query := m.filter.Value()
	if query == "" {
		m.visible = genreVocabulary
	} else {
		m.visible = fuzzy.FindFold(query, genreVocabulary)
	}

	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

// save persists the selection as the user's favorite genres
func (m *PreferencesModel) save() tea.Cmd {
	// Keep vocabulary order so the stored list is stable
	genres := make([]string, 0, len(m.selected))
	for _, genre := range genreVocabulary {
		if m.selected[genre] {
			genres = append(genres, genre)
		}
	}

	if len(genres) == 0 {
		return func() tea.Msg {
			return PreferencesErrorMsg{Message: "Pick at least one genre before saving"}
		}
	}

	sessions := m.sessions
	return func() tea.Msg {
		return applyPreferenceUpdate(sessions, domain.PreferencesUpdate{FavoriteGenres: &genres})
	}
}

func (m *PreferencesModel) View() string {
	contentWidth := min(m.width, 70)

	header := styles.Header(contentWidth, "Kasumi - Favorite Genres")

	var b strings.Builder
	b.WriteString("Filter: " + m.filter.View() + "\n\n")

	if len(m.visible) == 0 {
		b.WriteString(styles.Subtle.Render("No genres match the filter"))
		b.WriteString("\n")
	}

	for i, genre := range m.visible {
		marker := "[ ]"
		if m.selected[genre] {
			marker = "[x]"
		}

		line := fmt.Sprintf("%s %s", marker, genre)
		if i == m.cursor {
			line = styles.Selected.Render(line)
		} else if m.selected[genre] {
			line = styles.Success.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(styles.Error.Render(m.errMsg) + "\n")
	}
	b.WriteString(styles.Subtle.Render("space: toggle • enter: save • esc: cancel"))

	mainContent := styles.ContentBox(contentWidth, b.String(), 1)
	combined := lipgloss.JoinVertical(lipgloss.Center, header, mainContent)

	return styles.CenteredView(m.width, m.height, combined)
}
