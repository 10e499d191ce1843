package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/util"
)

// animeListing is the shared cursor-driven anime table used by the browse,
// search and recommendations views
type animeListing struct {
	titleLanguage string
	cursor        int
	items         []*domain.Anime
}

func newAnimeListing(titleLanguage string) animeListing {
	return animeListing{titleLanguage: titleLanguage}
}

func (l *animeListing) SetItems(items []*domain.Anime) {
	l.items = items
	if l.cursor >= len(items) {
		l.cursor = 0
	}
}

func (l *animeListing) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *animeListing) MoveDown() {
	if len(l.items) > 0 && l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

func (l *animeListing) MoveTop() {
	l.cursor = 0
}

func (l *animeListing) MoveBottom() {
	if len(l.items) > 0 {
		l.cursor = len(l.items) - 1
	}
}

func (l *animeListing) Page(delta int) {
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor >= len(l.items) {
		l.cursor = len(l.items) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Selected returns the anime under the cursor, or nil when the listing is empty
func (l *animeListing) Selected() *domain.Anime {
	if len(l.items) == 0 || l.cursor >= len(l.items) {
		return nil
	}
	return l.items[l.cursor]
}

// Render draws the listing as a table inside a content box
func (l *animeListing) Render(width, height int, emptyText string) string {
	if len(l.items) == 0 {
		return styles.ContentBox(width-2, styles.CenteredText(width-6, emptyText), 1)
	}

	availableHeight := height
	if availableHeight < 3 {
		availableHeight = 3
	}

	visibleCount := min(len(l.items), availableHeight-2) // Reserve space for header row and separator

	// Adjust starting index to keep cursor in view
	startIdx := 0
	if l.cursor >= visibleCount {
		startIdx = l.cursor - visibleCount + 1
	}
	endIdx := min(startIdx+visibleCount, len(l.items))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Width(width - 4).
		Padding(0, 1)

	selectedStyle := styles.Selected.
		Width(width - 4).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Width(width - 4).
		Padding(0, 1)

	var listContent string

	headerText := fmt.Sprintf("%s %8s %8s %5s", util.PadToWidth("Title", 50), "Score", "Format", "Eps")
	listContent += headerStyle.Render(headerText) + "\n"
	listContent += strings.Repeat("─", max(width-6, 1)) + "\n"

	for i := startIdx; i < endIdx; i++ {
		itemText := l.formatItem(l.items[i])
		if i == l.cursor {
			listContent += selectedStyle.Render(itemText) + "\n"
		} else {
			listContent += normalStyle.Render(itemText) + "\n"
		}
	}

	if len(l.items) > visibleCount {
		pagination := fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(l.items))
		listContent += styles.CenteredText(width-4, styles.Subtle.Render(pagination))
	}

	return styles.ContentBox(width-2, listContent, 1)
}

// formatItem formats a single listing row
func (l *animeListing) formatItem(anime *domain.Anime) string {
	title := util.PadToWidth(util.TruncateString(anime.Title.Preferred(l.titleLanguage), 50), 50)

	episodes := "?"
	if anime.Episodes > 0 {
		episodes = fmt.Sprintf("%d", anime.Episodes)
	}

	return fmt.Sprintf("%s %8s %8s %5s", title, util.FormatScore(anime.AverageScore), anime.Format, episodes)
}
