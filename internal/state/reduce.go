package state

import (
	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
)

// Reduce returns the state after act. It never mutates slices or maps
// reachable from a; changed collections are copied.
func Reduce(a App, act Action) App {
	switch act := act.(type) {
	case ToggleMode:
		a.Auth.IsLoginView = !a.Auth.IsLoginView

	case LoggedIn:
		a.Route = RouteBoard
		a.LastError = nil

	case LoggedOut:
		seq := a.seq
		a = New()
		a.seq = seq

	case CurrentUserFetched:
		a.Auth.LoginUser = act.User

	case ProfilesFetched:
		a.Auth.Profiles = cloneSlice(act.Profiles)

	case ProfileCreated:
		for _, p := range a.Auth.Profiles {
			if p.ID == act.Profile.ID {
				return a
			}
		}
		a.Auth.Profiles = append(cloneSlice(a.Auth.Profiles), act.Profile)

	case ProfileUpdated:
		out := make([]model.Profile, len(a.Auth.Profiles))
		for i, p := range a.Auth.Profiles {
			if p.ID == act.Profile.ID {
				p = act.Profile
			}
			out[i] = p
		}
		a.Auth.Profiles = out

	case TasksFetched:
		a.Tasks.Tasks = cloneSlice(act.Tasks)
		a.Tasks.Version++

	case UsersFetched:
		a.Tasks.Users = cloneSlice(act.Users)

	case CategoriesFetched:
		a.Tasks.Categories = cloneSlice(act.Categories)

	case CategoryCreated:
		a.Tasks.Categories = append(cloneSlice(a.Tasks.Categories), act.Category)
		a.LastError = nil

	case TaskCreated:
		out := make([]model.Task, 0, len(a.Tasks.Tasks)+1)
		out = append(out, act.Task)
		out = append(out, a.Tasks.Tasks...)
		a.Tasks.Tasks = out
		a.Tasks = a.Tasks.markApplied(act.Task.ID, act.Seq)
		a.Tasks.Pane = EmptyPane()
		a.Tasks.Version++
		a.LastError = nil

	case TaskUpdated:
		if a.Tasks.stale(act.Task.ID, act.Seq) {
			return a
		}
		out := make([]model.Task, len(a.Tasks.Tasks))
		for i, t := range a.Tasks.Tasks {
			if t.ID == act.Task.ID {
				t = act.Task
			}
			out[i] = t
		}
		a.Tasks.Tasks = out
		a.Tasks = a.Tasks.markApplied(act.Task.ID, act.Seq)
		a.Tasks.Pane = EmptyPane()
		a.Tasks.Version++
		a.LastError = nil

	case TaskDeleted:
		if a.Tasks.stale(act.ID, act.Seq) {
			return a
		}
		out := make([]model.Task, 0, len(a.Tasks.Tasks))
		for _, t := range a.Tasks.Tasks {
			if t.ID != act.ID {
				out = append(out, t)
			}
		}
		a.Tasks.Tasks = out
		a.Tasks = a.Tasks.markApplied(act.ID, act.Seq)
		a.Tasks.Pane = EmptyPane()
		a.Tasks.Version++
		a.LastError = nil

	case EditTask:
		switch {
		case !act.Draft.IsZero():
			a.Tasks.Pane = EditingPane(act.Draft)
		case a.Tasks.Pane.Kind() == PaneEditing:
			a.Tasks.Pane = EmptyPane()
		}

	case SelectTask:
		switch {
		case !act.Task.IsZero():
			a.Tasks.Pane = ViewingPane(act.Task)
		case a.Tasks.Pane.Kind() == PaneViewing:
			a.Tasks.Pane = EmptyPane()
		}

	case CancelEdit:
		a.Tasks.Pane = EmptyPane()

	case RequestFailed:
		a.LastError = &Failure{Op: act.Op, Err: act.Err}
		// Only a rejected credential sends the user back to login; other
		// failures keep the board (and any open form) as it was.
		if api.Kind(act.Err) == api.KindAuth {
			a.Route = RouteAuth
		}

	case DismissError:
		a.LastError = nil
	}
	return a
}

// stale reports whether a response with seq is older than one already
// applied to task id. Seq 0 is unsequenced and always applies.
func (t TaskState) stale(id int, seq uint64) bool {
	return seq != 0 && seq < t.applied[id]
}

func (t TaskState) markApplied(id int, seq uint64) TaskState {
	if seq == 0 {
		return t
	}
	m := make(map[int]uint64, len(t.applied)+1)
	for k, v := range t.applied {
		m[k] = v
	}
	m[id] = seq
	t.applied = m
	return t
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
