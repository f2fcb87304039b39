package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var avatarImageTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

func avatarPickerHeight(termH int) int {
	h := termH - 12
	if h < 5 {
		h = 5
	}
	if h > 20 {
		h = 20
	}
	return h
}

func (m appModel) openAvatarPicker() (tea.Model, tea.Cmd) {
	p, ok := m.app.Auth.ProfileFor(m.loginUserID())
	if !ok || p.ID == 0 {
		m.flash = "No profile for this account yet"
		return m, nil
	}

	fp := filepicker.New()
	fp.AllowedTypes = avatarImageTypes
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Height = avatarPickerHeight(m.height)
	fp.Cursor = "›"
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "up"),
	)

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.DisabledFile = styleMuted()
	fp.Styles.DisabledSelected = styleMuted()
	fp.Styles.FileSize = styleMuted().Width(fp.Styles.FileSize.GetWidth()).Align(lipgloss.Right)

	// Start in the last used directory, else the user's home.
	startDir := strings.TrimSpace(m.avatarLastDir)
	if startDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			startDir = home
		}
	}
	if startDir == "" {
		startDir = "."
	}
	fp.CurrentDirectory = startDir

	m.avatarPicker = fp
	m.modal = modalPickAvatar
	return m, fp.Init()
}

func (m appModel) updateAvatarPicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && (km.String() == "esc" || km.String() == "q") {
		m.modal = modalNone
		return m, nil
	}

	var cmd tea.Cmd
	m.avatarPicker, cmd = m.avatarPicker.Update(msg)
	if ok, path := m.avatarPicker.DidSelectFile(msg); ok {
		m.modal = modalNone
		m.avatarLastDir = filepath.Dir(path)
		p, _ := m.app.Auth.ProfileFor(m.loginUserID())
		m.flash = "Uploading " + filepath.Base(path) + "…"
		return m, m.updateProfileCmd(p.ID, path)
	}
	if ok, path := m.avatarPicker.DidSelectDisabledFile(msg); ok {
		m.flash = filepath.Base(path) + " is not an image"
	}
	return m, cmd
}

func (m appModel) viewAvatarPicker() string {
	body := strings.Join([]string{
		styleMuted().Render(m.avatarPicker.CurrentDirectory),
		"",
		m.avatarPicker.View(),
		"",
		styleMuted().Render("enter: choose · h: up · esc: cancel"),
	}, "\n")
	return renderModalBox(m.width, "Avatar image", body)
}
