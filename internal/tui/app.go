package tui

import (
	"context"
	"strings"

	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/state"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	m := appModel{
		ctx:    ctx,
		runner: opts.Runner,
		log:    log,
		app:    state.New(),
		help:   help.New(),
		copyFn: copyToClipboard,
	}
	m.authInputs[authFieldUsername] = newTextInput("username", 150)
	m.authInputs[authFieldPassword] = newTextInput("password", 128)
	m.authInputs[authFieldPassword].EchoMode = textinput.EchoPassword
	m.authInputs[authFieldPassword].EchoCharacter = '•'
	m.authInputs[authFieldUsername].SetValue(strings.TrimSpace(opts.Username))
	if opts.Username != "" {
		m.setAuthFocus(authFieldPassword)
	} else {
		m.setAuthFocus(authFieldUsername)
	}

	m.filterInput = newTextInput("filter tasks", 100)
	m.filterInput.Prompt = "/ "

	if opts.SignedIn {
		m.app = state.Reduce(m.app, state.LoggedIn{})
	}
	m.table = state.NewTableView(m.app.Tasks)
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.app.Route == state.RouteBoard {
		return tea.Batch(textinput.Blink, m.bootstrapCmd())
	}
	return textinput.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case actionsMsg:
		return m.apply(msg.actions)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.app.Route == state.RouteAuth {
			return m.updateAuth(msg)
		}
		return m.updateBoard(msg)
	}

	// The avatar picker reads directories asynchronously.
	if m.modal == modalPickAvatar {
		return m.updateAvatarPicker(msg)
	}
	return m, nil
}

// apply reduces completion actions and schedules follow-up work.
func (m appModel) apply(acts []state.Action) (appModel, tea.Cmd) {
	var cmds []tea.Cmd
	for _, act := range acts {
		m.app = state.Reduce(m.app, act)
		switch act := act.(type) {
		case state.LoggedIn:
			m.authBusy = false
			m.authInputs[authFieldPassword].SetValue("")
			m.flash = ""
			cmds = append(cmds, m.bootstrapCmd())
		case state.LoggedOut:
			m.modal = modalNone
			m.cursor = 0
			m.flash = ""
			m.filterInput.SetValue("")
			m.table = state.NewTableView(m.app.Tasks)
			m.setAuthFocus(authFieldPassword)
		case state.RequestFailed:
			m.authBusy = false
			m.log.Info("request failed", "op", string(act.Op), "error", act.Err)
		case state.ProfileUpdated:
			m.flash = "Avatar updated"
		}
	}
	if m.table.Sync(m.app.Tasks) {
		m.clampCursor()
	}
	if m.app.Route == state.RouteAuth {
		m.modal = modalNone
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) View() string {
	if m.width == 0 {
		return "loading…"
	}
	if m.app.Route == state.RouteAuth {
		return m.viewAuth()
	}
	return m.viewBoard()
}

func (m appModel) placeCentered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}
