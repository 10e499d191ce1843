package models

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
	kb "github.com/PizzaHomicide/kasumi/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/styles"
)

// authMode selects which form the auth view shows
type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

// Field order in register mode.  Login mode skips the username field.
const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
)

// AuthModel is the login/register form.  It talks to the session manager
// directly and reports the outcome with AuthSuccessMsg / AuthErrorMsg.
type AuthModel struct {
	sessions      domain.SessionManager
	width, height int

	mode       authMode
	inputs     []textinput.Model
	focusIndex int

	submitting bool
	errMsg     string
}

func NewAuthModel(sessions domain.SessionManager) *AuthModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 32

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	m := &AuthModel{
		sessions: sessions,
		mode:     modeLogin,
		inputs:   []textinput.Model{username, email, password},
	}
	m.setFocus(fieldEmail)
	return m
}

func (m *AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Reset clears the form so it is ready for a fresh login
func (m *AuthModel) Reset() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.mode = modeLogin
	m.submitting = false
	m.errMsg = ""
	m.setFocus(fieldEmail)
}

func (m *AuthModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			// Ignore input while a login/register call is in flight
			return m, nil
		}

		switch kb.GetActionByKey(msg, kb.ContextAuth) {
		case kb.ActionToggleAuthMode:
			m.toggleMode()
			return m, nil

		case kb.ActionNextField:
			m.cycleFocus(1)
			return m, nil

		case kb.ActionSubmit:
			return m, m.submit()
		}

		if msg.String() == "shift+tab" || msg.String() == "up" {
			m.cycleFocus(-1)
			return m, nil
		}

	case AuthErrorMsg:
		m.submitting = false
		m.errMsg = msg.Message
		return m, nil
	}

	// Delegate everything else to the focused input
	var cmd tea.Cmd
	for i := range m.inputs {
		if m.inputs[i].Focused() {
			m.inputs[i], cmd = m.inputs[i].Update(msg)
		}
	}
	return m, cmd
}

func (m *AuthModel) toggleMode() {
	if m.mode == modeLogin {
		m.mode = modeRegister
		m.setFocus(fieldUsername)
	} else {
		m.mode = modeLogin
		m.setFocus(fieldEmail)
	}
	m.errMsg = ""
}

// visibleFields returns the indexes of the fields active in the current mode
func (m *AuthModel) visibleFields() []int {
	if m.mode == modeRegister {
		return []int{fieldUsername, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (m *AuthModel) cycleFocus(direction int) {
	fields := m.visibleFields()

	current := 0
	for i, f := range fields {
		if f == m.focusIndex {
			current = i
			break
		}
	}

	next := (current + direction + len(fields)) % len(fields)
	m.setFocus(fields[next])
}

func (m *AuthModel) setFocus(field int) {
	m.focusIndex = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// submit validates the form and runs the login or register call
func (m *AuthModel) submit() tea.Cmd {
	username := m.inputs[fieldUsername].Value()
	email := m.inputs[fieldEmail].Value()
	password := m.inputs[fieldPassword].Value()

	if email == "" || password == "" || (m.mode == modeRegister && username == "") {
		m.errMsg = "All fields are required"
		return nil
	}

	m.submitting = true
	m.errMsg = ""

	mode := m.mode
	sessions := m.sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var user *domain.User
		var err error
		if mode == modeRegister {
			log.Info("Submitting registration", "username", username)
			user, err = sessions.Register(ctx, username, email, password)
		} else {
			log.Info("Submitting login")
			user, err = sessions.Login(ctx, email, password)
		}

		if err != nil {
			return AuthErrorMsg{Message: presentableAuthError(err)}
		}
		return AuthSuccessMsg{User: user}
	}
}

// presentableAuthError maps session errors onto messages fit for the form.
// Provider rejections are shown word for word.
func presentableAuthError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return "A user already exists with this email or username"
	}

	var providerErr *domain.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Message
	}

	log.Error("Unexpected auth error", "error", err)
	return "Something went wrong.  Please try again."
}

func (m *AuthModel) View() string {
	contentWidth := min(m.width, 80)

	title := "Kasumi - Login"
	if m.mode == modeRegister {
		title = "Kasumi - Register"
	}
	header := styles.Header(contentWidth, title)

	var content string
	if m.submitting {
		content = styles.CenteredText(contentWidth-4, styles.Info.Render("Signing in..."))
	} else {
		content = m.formContent(contentWidth)
	}

	mainContent := styles.ContentBox(contentWidth, content, 1)
	combined := lipgloss.JoinVertical(lipgloss.Center, header, mainContent)

	return styles.CenteredView(m.width, m.height, combined)
}

func (m *AuthModel) formContent(contentWidth int) string {
	labelStyle := lipgloss.NewStyle().Bold(true).Width(10)

	var content string
	if m.mode == modeRegister {
		content += labelStyle.Render("Username") + " " + m.inputs[fieldUsername].View() + "\n"
	}
	content += labelStyle.Render("Email") + " " + m.inputs[fieldEmail].View() + "\n"
	content += labelStyle.Render("Password") + " " + m.inputs[fieldPassword].View() + "\n\n"

	if m.errMsg != "" {
		content += styles.Error.Render(m.errMsg) + "\n\n"
	}

	hint := "enter: submit • tab: next field • ctrl+t: switch to register • ctrl+c: quit"
	if m.mode == modeRegister {
		hint = "enter: submit • tab: next field • ctrl+t: switch to login • ctrl+c: quit"
	}
	content += styles.CenteredText(contentWidth-4, styles.Subtle.Render(hint))

	return content
}
