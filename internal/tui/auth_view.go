package tui

import (
	"errors"
	"sort"
	"strings"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *appModel) setAuthFocus(i int) {
	m.authFocus = i
	for j := range m.authInputs {
		if j == i {
			m.authInputs[j].Focus()
		} else {
			m.authInputs[j].Blur()
		}
	}
}

func (m appModel) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+t":
		m.app = state.Reduce(m.app, state.ToggleMode{})
		m.app = state.Reduce(m.app, state.DismissError{})
		m.flash = ""
		return m, nil
	case "tab", "down":
		m.setAuthFocus((m.authFocus + 1) % authFieldCount)
		return m, nil
	case "shift+tab", "up":
		m.setAuthFocus((m.authFocus + authFieldCount - 1) % authFieldCount)
		return m, nil
	case "enter":
		if m.authBusy {
			return m, nil
		}
		creds := model.Credentials{
			Username: strings.TrimSpace(m.authInputs[authFieldUsername].Value()),
			Password: m.authInputs[authFieldPassword].Value(),
		}
		if creds.Username == "" || creds.Password == "" {
			m.flash = "Username and password are required"
			return m, nil
		}
		m.flash = ""
		m.authBusy = true
		m.app = state.Reduce(m.app, state.DismissError{})
		if m.app.Auth.IsLoginView {
			return m, m.loginCmd(creds)
		}
		return m, m.registerCmd(creds)
	}

	var cmd tea.Cmd
	m.authInputs[m.authFocus], cmd = m.authInputs[m.authFocus].Update(msg)
	return m, cmd
}

func (m appModel) viewAuth() string {
	title := "Login"
	toggle := "ctrl+t: create an account"
	if !m.app.Auth.IsLoginView {
		title = "Register"
		toggle = "ctrl+t: back to login"
	}

	labels := [authFieldCount]string{"Username", "Password"}
	lines := []string{styleTitle().Render("Taskboard · " + title), ""}
	for i := range m.authInputs {
		marker := "  "
		if i == m.authFocus {
			marker = lipgloss.NewStyle().Foreground(colorAccent).Render("› ")
		}
		lines = append(lines, marker+styleLabel().Width(10).Render(labels[i])+" "+m.authInputs[i].View())
	}
	lines = append(lines, "")
	switch {
	case m.authBusy:
		lines = append(lines, styleMuted().Render("Working…"))
	case m.flash != "":
		lines = append(lines, styleError().Render(m.flash))
	case m.app.LastError != nil:
		lines = append(lines, styleError().Render(failureMessage(*m.app.LastError)))
	}
	lines = append(lines, "", styleMuted().Render("enter: submit · tab: next field · "+toggle+" · esc: quit"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 3).
		Render(strings.Join(lines, "\n"))
	return m.placeCentered(box)
}

// failureMessage is the user-facing text for a failed request.
func failureMessage(f state.Failure) string {
	switch api.Kind(f.Err) {
	case api.KindAuth:
		if f.Op == state.OpLogin {
			return "Invalid username or password"
		}
		return "Your session is not authorized; please log in again"
	case api.KindValidation:
		if msg := validationSummary(f.Err); msg != "" {
			return string(f.Op) + ": " + msg
		}
		return string(f.Op) + ": rejected by the server"
	case api.KindServer:
		return string(f.Op) + ": server error, try again later"
	default:
		return string(f.Op) + ": " + f.Err.Error()
	}
}

func validationSummary(err error) string {
	var ve *api.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(ve.Fields[k], " ")
		if k == "non_field_errors" || k == "detail" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, "; ")
}
