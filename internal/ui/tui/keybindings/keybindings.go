package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionLogout     Action = "logout"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Auth view actions
	ActionSubmit         Action = "submit"
	ActionNextField      Action = "next_field"
	ActionToggleAuthMode Action = "toggle_auth_mode"

	// Browse/search/recommendation actions
	ActionViewDetails         Action = "view_details"
	ActionRefresh             Action = "refresh"
	ActionEnableSearch        Action = "enable_search"
	ActionEditGenres          Action = "edit_genres"
	ActionViewRecommendations Action = "view_recommendations"
	ActionNextPage            Action = "next_page"
	ActionPrevPage            Action = "prev_page"

	// Details view actions
	ActionToggleWatched  Action = "toggle_watched"
	ActionToggleFavorite Action = "toggle_favorite"

	// Preferences view actions
	ActionToggleGenre     Action = "toggle_genre"
	ActionSavePreferences Action = "save_preferences"

	// Search mode actions
	ActionSearchComplete Action = "search_complete"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal          ContextName = "global"
	ContextAuth            ContextName = "auth"
	ContextBrowse          ContextName = "browse"
	ContextSearch          ContextName = "search"
	ContextDetails         ContextName = "details"
	ContextPreferences     ContextName = "preferences"
	ContextRecommendations ContextName = "recommendations"
	ContextSearchMode      ContextName = "search_mode"
	ContextHelp            ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:          globalBindings,
	ContextAuth:            authBindings,
	ContextBrowse:          browseBindings,
	ContextSearch:          searchBindings,
	ContextDetails:         detailsBindings,
	ContextPreferences:     preferencesBindings,
	ContextRecommendations: recommendationBindings,
	ContextSearchMode:      searchModeBindings,
	ContextHelp:            helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for consistent navigation across the app
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionLogout,
		KeyMap: KeyMap{
			Primary: "ctrl+l",
			Help:    "Logout",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Go back/cancel current action",
		},
	},
}

// authBindings contains key bindings specific to the login/register form
var authBindings = []Binding{
	{
		Action: ActionSubmit,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Submit the form",
		},
	},
	{
		Action: ActionNextField,
		KeyMap: KeyMap{
			Primary:   "tab",
			Secondary: "down",
			Help:      "Move to the next field",
		},
	},
	{
		Action: ActionToggleAuthMode,
		KeyMap: KeyMap{
			Primary: "ctrl+t",
			Help:    "Switch between login and register",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// browseBindings contains key bindings specific to the trending/browse view
var browseBindings = withNavigation([]Binding{
	{
		Action: ActionViewDetails,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "View details of selected anime",
		},
	},
	{
		Action: ActionRefresh,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Refresh the listing",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary:   "/",
			Secondary: "ctrl+f",
			Help:      "Search the catalog",
		},
	},
	{
		Action: ActionEditGenres,
		KeyMap: KeyMap{
			Primary: "g",
			Help:    "Edit favorite genres",
		},
	},
	{
		Action: ActionViewRecommendations,
		KeyMap: KeyMap{
			Primary: "f",
			Help:    "Show recommendations for you",
		},
	},
	{
		Action: ActionNextPage,
		KeyMap: KeyMap{
			Primary:   "right",
			Secondary: "n",
			Help:      "Next page",
		},
	},
	{
		Action: ActionPrevPage,
		KeyMap: KeyMap{
			Primary:   "left",
			Secondary: "b",
			Help:      "Previous page",
		},
	},
})

// searchBindings contains key bindings specific to the search results view
var searchBindings = withNavigation([]Binding{
	{
		Action: ActionViewDetails,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "View details of selected anime",
		},
	},
	{
		Action: ActionEnableSearch,
		KeyMap: KeyMap{
			Primary:   "/",
			Secondary: "ctrl+f",
			Help:      "Edit the search query",
		},
	},
	{
		Action: ActionNextPage,
		KeyMap: KeyMap{
			Primary:   "right",
			Secondary: "n",
			Help:      "Next page",
		},
	},
	{
		Action: ActionPrevPage,
		KeyMap: KeyMap{
			Primary:   "left",
			Secondary: "b",
			Help:      "Previous page",
		},
	},
})

// detailsBindings contains key bindings specific to the anime details view
var detailsBindings = withNavigation([]Binding{
	{
		Action: ActionToggleWatched,
		KeyMap: KeyMap{
			Primary: "w",
			Help:    "Mark/unmark as watched",
		},
	},
	{
		Action: ActionToggleFavorite,
		KeyMap: KeyMap{
			Primary: "f",
			Help:    "Add/remove from favorites",
		},
	},
})

// preferencesBindings contains key bindings specific to the genre picker
var preferencesBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary: "up",
			Help:    "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary: "down",
			Help:    "Move cursor down",
		},
	},
	{
		Action: ActionToggleGenre,
		KeyMap: KeyMap{
			Primary: "space",
			Help:    "Toggle the selected genre",
		},
	},
	{
		Action: ActionSavePreferences,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Save favorite genres",
		},
	},
}

// recommendationBindings contains key bindings specific to the recommendations view
var recommendationBindings = withNavigation([]Binding{
	{
		Action: ActionViewDetails,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "View details of selected anime",
		},
	},
	{
		Action: ActionRefresh,
		KeyMap: KeyMap{
			Primary: "r",
			Help:    "Re-roll recommendations",
		},
	},
})

// searchModeBindings contains key bindings specific for when the search input is focused
var searchModeBindings = []Binding{
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary:   "esc",
			Secondary: "ctrl+f",
			Help:      "Exit search mode without applying",
		},
	},
	{
		Action: ActionSearchComplete,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Run the search",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionSecondaryKey returns the secondary key for an action if it exists
func GetActionSecondaryKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Secondary
		}
	}
	return ""
}

// GetBindingByKey returns the action and help text for a given key
func GetBindingByKey(key string, bindings []Binding) (Action, string) {
	for _, binding := range bindings {
		if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
			return binding.Action, binding.KeyMap.Help
		}
	}
	return "", ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return binding.KeyMap.Primary + "/" + binding.KeyMap.Secondary + ": " + binding.KeyMap.Help
	}
	return binding.KeyMap.Primary + ": " + binding.KeyMap.Help
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
