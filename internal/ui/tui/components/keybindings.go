package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// KeyBinding represents a single key and its description for the keybinding bar
type KeyBinding struct {
	Key  string
	Desc string
}

// keyStyle is used to highlight keyboard shortcuts in UI
var keyStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4")).
	Bold(true)

// KeyBindingsBar creates a styled footer showing a set of keybindings
// width: The width of the screen to center the bar
// bindings: The list of keybindings to display
func KeyBindingsBar(width int, bindings []KeyBinding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s: %s",
			keyStyle.Render(b.Key),
			b.Desc))
	}

	keyBar := styles.Info.Render(strings.Join(parts, " • "))
	return styles.CenteredText(width, keyBar)
}

// BindingsFor builds a keybinding bar entry list from a keybinding context,
// so footers stay in sync with the actual bindings
func BindingsFor(context kb.ContextName, actions ...kb.Action) []KeyBinding {
	bindings := kb.ContextBindings[context]

	var result []KeyBinding
	for _, action := range actions {
		for _, binding := range bindings {
			if binding.Action == action {
				result = append(result, KeyBinding{
					Key:  binding.KeyMap.Primary,
					Desc: binding.KeyMap.Help,
				})
				break
			}
		}
	}
	return result
}
