// Package state holds the client's view-model: the auth and task slices,
// the right-hand pane and the sortable table view. All changes go through
// Reduce; the owner of an App value is the only writer.
package state

import (
	"taskboard-cli/internal/model"
)

type Route int

const (
	// RouteAuth is the login/registration view (the root path).
	RouteAuth Route = iota
	// RouteBoard is the task board.
	RouteBoard
)

func (r Route) String() string {
	if r == RouteBoard {
		return "board"
	}
	return "auth"
}

type PaneKind int

const (
	PaneEmpty PaneKind = iota
	PaneEditing
	PaneViewing
)

func (k PaneKind) String() string {
	switch k {
	case PaneEditing:
		return "editing"
	case PaneViewing:
		return "viewing"
	default:
		return "empty"
	}
}

// Pane is the right-hand region: empty, an edit form for a draft, or the
// detail of a selected task. Only one can be active.
type Pane struct {
	kind  PaneKind
	draft model.TaskDraft
	task  model.Task
}

func EmptyPane() Pane { return Pane{} }

func EditingPane(d model.TaskDraft) Pane { return Pane{kind: PaneEditing, draft: d} }

func ViewingPane(t model.Task) Pane { return Pane{kind: PaneViewing, task: t} }

func (p Pane) Kind() PaneKind { return p.kind }

// EditedTask is the draft being edited, or the empty draft.
func (p Pane) EditedTask() model.TaskDraft {
	if p.kind != PaneEditing {
		return model.TaskDraft{}
	}
	return p.draft
}

// SelectedTask is the task on display, or the empty task.
func (p Pane) SelectedTask() model.Task {
	if p.kind != PaneViewing {
		return model.Task{}
	}
	return p.task
}

type AuthState struct {
	IsLoginView bool
	LoginUser   model.User
	Profiles    []model.Profile
}

// ProfileFor returns the profile whose user_profile is userID.
func (a AuthState) ProfileFor(userID int) (model.Profile, bool) {
	for _, p := range a.Profiles {
		if p.UserProfile == userID {
			return p, true
		}
	}
	return model.Profile{}, false
}

// AvatarURL is the avatar of userID, or "" when there is none.
func (a AuthState) AvatarURL(userID int) string {
	p, ok := a.ProfileFor(userID)
	if !ok || p.Img == nil {
		return ""
	}
	return *p.Img
}

type TaskState struct {
	Tasks      []model.Task
	Pane       Pane
	Users      []model.User
	Categories []model.Category

	// Version changes whenever Tasks is replaced or edited.
	Version uint64

	// applied is the last request sequence applied per task id.
	applied map[int]uint64
}

func (t TaskState) FindTask(id int) (model.Task, bool) {
	for _, x := range t.Tasks {
		if x.ID == id {
			return x, true
		}
	}
	return model.Task{}, false
}

func (t TaskState) Username(id int) string {
	for _, u := range t.Users {
		if u.ID == id {
			return u.Username
		}
	}
	return ""
}

func (t TaskState) CategoryLabel(id int) string {
	for _, c := range t.Categories {
		if c.ID == id {
			return c.Item
		}
	}
	return ""
}

// Failure is the last request that did not succeed.
type Failure struct {
	Op  Op
	Err error
}

type App struct {
	Route Route
	Auth  AuthState
	Tasks TaskState

	LastError *Failure

	seq uint64
}

func New() App {
	return App{
		Route: RouteAuth,
		Auth:  AuthState{IsLoginView: true},
	}
}

// NextSeq hands out the sequence number for a mutating request.
func (a *App) NextSeq() uint64 {
	a.seq++
	return a.seq
}
