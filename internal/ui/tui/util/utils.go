package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		// Check if adding this rune would exceed maxWidth
		if width+charWidth > maxWidth-3 { // Reserve space for "..."
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s // Return as is if it fits
}

// PadToWidth pads a string with spaces up to the given visual width
func PadToWidth(s string, width int) string {
	visual := 0
	for _, r := range s {
		visual += runewidth.RuneWidth(r)
	}
	if visual >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visual)
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// htmlEntities covers the entities the catalog actually emits in descriptions
var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#039;", "'",
	"&nbsp;", " ",
)

// CleanDescription flattens the catalog's HTML-tagged description into a
// single line of plain text: tags stripped, entities decoded, newlines
// collapsed to spaces.  The caller decides how to wrap it for display.
func CleanDescription(description string) string {
	text := strings.ReplaceAll(description, "<br>", " ")
	text = strings.ReplaceAll(text, "<br/>", " ")
	text = strings.ReplaceAll(text, "<br />", " ")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = htmlEntities.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FormatScore renders the catalog's 0-100 average score as x.y/10, or "N/A"
// when the catalog has no score yet
func FormatScore(score int) string {
	if score <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f/10", float64(score)/10)
}
