package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

func NewHelpModel() *HelpModel {
	return &HelpModel{
		viewport: viewport.New(0, 0),
	}
}

// SetContext points the help screen at the view it was opened from
func (m *HelpModel) SetContext(context View) {
	m.context = context
	m.updateContent()
}

func (m *HelpModel) Init() tea.Cmd {
	return nil
}

func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}
	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

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

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help: "+m.getContextTitle())

	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"", // Spacing
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"", // Spacing
		footer,
	)
}

// getContextTitle returns a user-friendly title for the context
func (m *HelpModel) getContextTitle() string {
	switch m.context {
	case ViewAuth:
		return "Login & Registration"
	case ViewBrowse:
		return "Trending"
	case ViewSearch:
		return "Search"
	case ViewDetails:
		return "Anime Details"
	case ViewPreferences:
		return "Favorite Genres"
	case ViewRecommendations:
		return "For You"
	default:
		return "General"
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding, skipActions map[kb.Action]bool) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	// First pass: determine the maximum key width for alignment
	maxKeyWidth := 0
	for _, binding := range bindings {
		if skipActions != nil && skipActions[binding.Action] {
			continue
		}

		keyText := binding.KeyMap.Primary
		if binding.KeyMap.Secondary != "" {
			keyText += " or " + binding.KeyMap.Secondary
		}

		if width := utf8.RuneCountInString(keyText); width > maxKeyWidth {
			maxKeyWidth = width
		}
	}

	// Second pass: format each binding with aligned colons
	for _, binding := range bindings {
		if skipActions != nil && skipActions[binding.Action] {
			continue
		}

		keyText := binding.KeyMap.Primary
		if binding.KeyMap.Secondary != "" {
			keyText += " or " + binding.KeyMap.Secondary
		}

		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(keyText))

		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(keyText),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	b.WriteString(titleStyle.Render(m.getContextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.getContextDescription())
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")

	globalBindings := m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal], nil)
	b.WriteString(globalBindings)

	// Build a map of global actions to avoid duplicating them in context-specific bindings
	globalActions := make(map[kb.Action]bool)
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		globalActions[binding.Action] = true
	}

	var contextName kb.ContextName
	switch m.context {
	case ViewAuth:
		contextName = kb.ContextAuth
	case ViewBrowse:
		contextName = kb.ContextBrowse
	case ViewSearch:
		contextName = kb.ContextSearch
	case ViewDetails:
		contextName = kb.ContextDetails
	case ViewPreferences:
		contextName = kb.ContextPreferences
	case ViewRecommendations:
		contextName = kb.ContextRecommendations
	}

	if contextName != "" {
		if globalBindings != "" {
			b.WriteString("\n")
		}

		sectionTitle := fmt.Sprintf("%s commands:", m.getContextTitle())
		b.WriteString(m.formatKeybindingSection(sectionTitle, kb.ContextBindings[contextName], globalActions))
	}

	if m.context == ViewSearch {
		b.WriteString("\n")
		b.WriteString(m.formatKeybindingSection("When the search input is focused:", kb.ContextBindings[kb.ContextSearchMode], nil))
	}

	return b.String()
}

// getContextDescription returns help text for the current context
func (m *HelpModel) getContextDescription() string {
	switch m.context {
	case ViewAuth:
		return "Log in with your email and password, or switch to registration to create a new account.\n\n" +
			"Depending on configuration your account lives either in a local store on this machine " +
			"or with the hosted identity provider.  The app behaves identically either way."

	case ViewBrowse:
		return "The trending screen shows what is popular on the catalog right now.\n\n" +
			"Move through the listing and open any entry for full details.  From here you can also " +
			"jump to search, your recommendations, or the favorite genre picker."

	case ViewSearch:
		return "Search the catalog by title.  Results are sorted by popularity.\n\n" +
			"Press the search key again to change the query, and use the paging keys to move " +
			"through larger result sets."

	case ViewDetails:
		return "The details screen shows everything the catalog knows about an anime, including " +
			"entries recommended for fans of it.\n\n" +
			"Mark anime as watched to keep them out of your recommendations, or favorite the ones " +
			"you love."

	case ViewPreferences:
		return "Pick the genres you enjoy.  They drive the 'For You' recommendations.\n\n" +
			"Type to narrow the list, toggle with space, and save with enter."

	case ViewRecommendations:
		return "A listing picked for you: popular anime from a random sample of your favorite " +
			"genres, with everything you've already watched filtered out.\n\n" +
			"Refresh to re-roll the genre sample and get a different slice of your taste."

	default:
		return "Welcome to Kasumi, a terminal UI for discovering anime."
	}
}
