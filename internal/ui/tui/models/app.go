package models

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	"github.com/PizzaHomicide/kasumi/internal/service"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	sessions      domain.SessionManager
	discovery     *service.DiscoveryService
	activeView    View  // Track the current active 'main view'
	previousView  View  // Where esc returns to from the details view
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	authModel            *AuthModel
	browseModel          *BrowseModel
	searchModel          *SearchModel
	detailsModel         *DetailsModel
	preferencesModel     *PreferencesModel
	recommendationsModel *RecommendationsModel
	helpModel            *HelpModel
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(cfg *config.Config, sessions domain.SessionManager, discovery *service.DiscoveryService) AppModel {
	initialView := ViewAuth
	if sessions.IsAuthenticated() {
		log.Info("Existing session found, skipping login screen")
		initialView = ViewBrowse
	}

	return AppModel{
		config:               cfg,
		sessions:             sessions,
		discovery:            discovery,
		activeView:           initialView,
		previousView:         ViewBrowse,
		activeModal:          ModalNone,
		authModel:            NewAuthModel(sessions),
		browseModel:          NewBrowseModel(cfg, discovery),
		searchModel:          NewSearchModel(cfg, discovery),
		detailsModel:         NewDetailsModel(cfg, sessions),
		preferencesModel:     NewPreferencesModel(sessions),
		recommendationsModel: NewRecommendationsModel(cfg, discovery),
		helpModel:            NewHelpModel(),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising Kasumi TUI")

	cmds := []tea.Cmd{waitForSessionChange(m.sessions.Changes())}

	if m.activeView == ViewBrowse {
		log.Debug("Existing session detected.  Loading trending listing immediately")
		cmds = append(cmds, m.browseModel.Init())
	} else {
		cmds = append(cmds, m.authModel.Init())
	}

	return tea.Batch(cmds...)
}

// waitForSessionChange blocks on the session manager's change feed and turns
// each snapshot into a message.  The command is re-issued after every receipt.
func waitForSessionChange(changes <-chan domain.User) tea.Cmd {
	return func() tea.Msg {
		user, ok := <-changes
		if !ok {
			return nil
		}
		return SessionChangedMsg{User: user}
	}
}

// logout clears the session in the background
func logout(sessions domain.SessionManager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := sessions.Logout(ctx); err != nil {
			log.Error("Logout failed", "error", err)
		}
		return LoggedOutMsg{}
	}
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case "ctrl+l":
			if m.activeView == ViewAuth {
				return m, nil
			}
			log.Info("Logging out...")
			return m, logout(m.sessions)
		case "ctrl+h":
			log.Debug("Help requested", "active_view", m.activeView)
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.helpModel.SetContext(m.activeView)
				m.activeModal = ModalHelp
			}
			return m, nil

		case "esc":
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
			return m.navigateBack()
		}

		// View switches available from the listing views
		if m.activeModal == ModalNone && (m.activeView == ViewBrowse || m.activeView == ViewRecommendations) {
			switch kb.GetActionByKey(msg, kb.ContextBrowse) {
			case kb.ActionEnableSearch:
				m.activeView = ViewSearch
				return m, m.searchModel.Init()
			case kb.ActionEditGenres:
				if m.activeView == ViewBrowse {
					m.activeView = ViewPreferences
					return m, m.preferencesModel.Init()
				}
			case kb.ActionViewRecommendations:
				if m.activeView == ViewBrowse {
					m.activeView = ViewRecommendations
					return m, m.recommendationsModel.Init()
				}
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.authModel.Resize(msg.Width, msg.Height)
		m.browseModel.Resize(msg.Width, msg.Height)
		m.searchModel.Resize(msg.Width, msg.Height)
		m.detailsModel.Resize(msg.Width, msg.Height)
		m.preferencesModel.Resize(msg.Width, msg.Height)
		m.recommendationsModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)

	case AuthSuccessMsg:
		log.Info("Authentication successful", "user_id", msg.User.ID, "username", msg.User.Username)
		m.authModel.Reset()
		m.activeView = ViewBrowse
		return m, m.browseModel.Init()

	case LoggedOutMsg:
		m.authModel.Reset()
		m.activeView = ViewAuth
		m.activeModal = ModalNone
		return m, m.authModel.Init()

	case SessionChangedMsg:
		// Always re-arm the listener; the snapshot itself only matters when it
		// signals a remote logout or fresh preferences for the details view
		cmds := []tea.Cmd{waitForSessionChange(m.sessions.Changes())}
		if msg.User.ID == "" && m.activeView != ViewAuth && !m.sessions.IsAuthenticated() {
			log.Info("Session ended remotely, returning to login")
			m.authModel.Reset()
			m.activeView = ViewAuth
			cmds = append(cmds, m.authModel.Init())
		}
		return m, tea.Batch(cmds...)

	case DetailsLoadedMsg:
		log.Debug("Anime details loaded", "id", msg.Detail.ID)
		m.detailsModel.SetDetail(msg.Detail)
		if m.activeView != ViewDetails {
			m.previousView = m.activeView
		}
		m.activeView = ViewDetails
		return m, nil

	case DetailsLoadFailedMsg:
		log.Warn("Anime details unavailable", "id", msg.ID, "error", msg.Err)
		m.detailsModel.SetLoadFailed(msg.ID)
		if m.activeView != ViewDetails {
			m.previousView = m.activeView
		}
		m.activeView = ViewDetails
		return m, nil

	case PreferencesSavedMsg:
		if m.activeView == ViewPreferences {
			log.Info("Favorite genres saved", "count", len(msg.User.Preferences.FavoriteGenres))
			m.activeView = ViewBrowse
			return m, nil
		}
		// Watched/favorite toggles land here from the details view
		return m.updateActiveView(msg)
	}

	// Prioritise delegating messages to a modal if one is active
	if m.activeModal == ModalHelp {
		helpModel, cmd := m.helpModel.Update(msg)
		m.helpModel = helpModel.(*HelpModel)
		return m, cmd
	}

	return m.updateActiveView(msg)
}

// navigateBack handles esc from the current view
func (m AppModel) navigateBack() (tea.Model, tea.Cmd) {
	switch m.activeView {
	case ViewDetails:
		m.activeView = m.previousView
	case ViewSearch, ViewPreferences, ViewRecommendations:
		m.activeView = ViewBrowse
	default:
		return m, nil
	}
	return m, nil
}

func (m AppModel) View() string {
	// If there is an active modal it takes precedence
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewAuth:
		return m.authModel.View()
	case ViewBrowse:
		return m.browseModel.View()
	case ViewSearch:
		return m.searchModel.View()
	case ViewDetails:
		return m.detailsModel.View()
	case ViewPreferences:
		return m.preferencesModel.View()
	case ViewRecommendations:
		return m.recommendationsModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

// updateActiveView delegates message processing to the active view's model
func (m AppModel) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.activeView {
	case ViewAuth:
		model, cmd := m.authModel.Update(msg)
		m.authModel = model.(*AuthModel)
		return m, cmd
	case ViewBrowse:
		model, cmd := m.browseModel.Update(msg)
		m.browseModel = model.(*BrowseModel)
		return m, cmd
	case ViewSearch:
		model, cmd := m.searchModel.Update(msg)
		m.searchModel = model.(*SearchModel)
		return m, cmd
	case ViewDetails:
		model, cmd := m.detailsModel.Update(msg)
		m.detailsModel = model.(*DetailsModel)
		return m, cmd
	case ViewPreferences:
		model, cmd := m.preferencesModel.Update(msg)
		m.preferencesModel = model.(*PreferencesModel)
		return m, cmd
	case ViewRecommendations:
		model, cmd := m.recommendationsModel.Update(msg)
		m.recommendationsModel = model.(*RecommendationsModel)
		return m, cmd
	}

	return m, nil
}
