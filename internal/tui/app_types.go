package tui

import (
	"context"
	"log/slog"

	"taskboard-cli/internal/effects"
	"taskboard-cli/internal/state"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirmDelete
	modalPickAvatar
	modalFilter
)

const (
	authFieldUsername = iota
	authFieldPassword
	authFieldCount
)

// actionsMsg carries the completion actions of one effect.
type actionsMsg struct {
	actions []state.Action
}

type appModel struct {
	ctx    context.Context
	runner *effects.Runner
	log    *slog.Logger

	app   state.App
	table state.TableView

	width  int
	height int

	// Auth view.
	authInputs [authFieldCount]textinput.Model
	authFocus  int
	authBusy   bool

	// Board view.
	cursor       int
	form         editForm
	modal        modalKind
	confirmFocus confirmModalFocus
	deleteID     int
	filterInput  textinput.Model

	avatarPicker  filepicker.Model
	avatarLastDir string

	help  help.Model
	flash string

	copyFn func(string) error
}
