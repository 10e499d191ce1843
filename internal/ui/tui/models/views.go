package models

// View represents a specific UI view in the application
type View string

// Available views in the application
const (
	ViewAuth            View = "auth"
	ViewBrowse          View = "browse"
	ViewSearch          View = "search"
	ViewDetails         View = "details"
	ViewPreferences     View = "preferences"
	ViewRecommendations View = "recommendations"
)

// Modal represents a UI intended to be temporarily shown to the user before returning to the original view
type Modal string

// Available modals in the application
const (
	ModalNone Modal = "none"
	ModalHelp Modal = "help"
)
