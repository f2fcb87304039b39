package state

import (
	"errors"
	"testing"

	"taskboard-cli/internal/api"
	"taskboard-cli/internal/model"
)

func boardWith(tasks ...model.Task) App {
	a := New()
	a = Reduce(a, LoggedIn{Username: "alice"})
	return Reduce(a, TasksFetched{Tasks: tasks})
}

func TestReduce_ToggleMode(t *testing.T) {
	t.Parallel()

	a := New()
	if !a.Auth.IsLoginView || a.Route != RouteAuth {
		t.Fatalf("unexpected initial state: %#v", a)
	}
	a = Reduce(a, ToggleMode{})
	if a.Auth.IsLoginView {
		t.Fatalf("expected register view after toggle")
	}
	a = Reduce(a, ToggleMode{})
	if !a.Auth.IsLoginView {
		t.Fatalf("expected login view after second toggle")
	}
}

func TestReduce_TaskMutationsClearPane(t *testing.T) {
	t.Parallel()

	t1 := model.Task{ID: 1, Task: "a", Owner: 7}
	t2 := model.Task{ID: 2, Task: "b", Owner: 7}

	a := boardWith(t1, t2)
	a = Reduce(a, EditTask{Draft: t1.Draft()})
	a = Reduce(a, TaskCreated{Task: model.Task{ID: 3, Task: "c"}})
	if a.Tasks.Pane.Kind() != PaneEmpty {
		t.Fatalf("create must clear pane; got %v", a.Tasks.Pane.Kind())
	}
	if len(a.Tasks.Tasks) != 3 || a.Tasks.Tasks[0].ID != 3 {
		t.Fatalf("create must prepend; got %#v", a.Tasks.Tasks)
	}

	a = Reduce(a, SelectTask{Task: t2})
	upd := t2
	upd.Task = "b2"
	a = Reduce(a, TaskUpdated{Task: upd})
	if a.Tasks.Pane.Kind() != PaneEmpty {
		t.Fatalf("update must clear pane; got %v", a.Tasks.Pane.Kind())
	}
	if got, _ := a.Tasks.FindTask(2); got.Task != "b2" {
		t.Fatalf("update must replace by id; got %#v", got)
	}

	a = Reduce(a, EditTask{Draft: t1.Draft()})
	a = Reduce(a, TaskDeleted{ID: 1})
	if a.Tasks.Pane.Kind() != PaneEmpty {
		t.Fatalf("delete must clear pane; got %v", a.Tasks.Pane.Kind())
	}
	if _, ok := a.Tasks.FindTask(1); ok {
		t.Fatalf("task 1 should be gone")
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	before := boardWith(model.Task{ID: 1, Task: "a"}, model.Task{ID: 2, Task: "b"})
	_ = Reduce(before, TaskUpdated{Task: model.Task{ID: 1, Task: "changed"}})
	_ = Reduce(before, TaskDeleted{ID: 2})
	if before.Tasks.Tasks[0].Task != "a" || len(before.Tasks.Tasks) != 2 {
		t.Fatalf("input state was mutated: %#v", before.Tasks.Tasks)
	}
}

func TestReduce_EditWinsOverSelection(t *testing.T) {
	t.Parallel()

	t1 := model.Task{ID: 1, Task: "a"}
	a := boardWith(t1)
	a = Reduce(a, SelectTask{Task: t1})
	a = Reduce(a, EditTask{Draft: t1.Draft()})
	if a.Tasks.Pane.Kind() != PaneEditing {
		t.Fatalf("expected editing pane; got %v", a.Tasks.Pane.Kind())
	}
	if !a.Tasks.Pane.SelectedTask().IsZero() {
		t.Fatalf("selection must not be visible while editing")
	}

	// Clearing the selection leaves the edit form open.
	a = Reduce(a, SelectTask{})
	if a.Tasks.Pane.Kind() != PaneEditing {
		t.Fatalf("empty selection must not close the edit form")
	}

	a = Reduce(a, EditTask{})
	if a.Tasks.Pane.Kind() != PaneEmpty {
		t.Fatalf("empty draft must close the edit form")
	}
}

func TestReduce_NewTaskDraftOpensForm(t *testing.T) {
	t.Parallel()

	a := boardWith()
	a = Reduce(a, EditTask{Draft: model.NewTaskDraft(7)})
	d := a.Tasks.Pane.EditedTask()
	if a.Tasks.Pane.Kind() != PaneEditing || !d.IsNew() || d.Responsible != 7 || d.Estimate != 1 {
		t.Fatalf("unexpected new-task pane: %v %#v", a.Tasks.Pane.Kind(), d)
	}

	a = Reduce(a, CancelEdit{})
	if a.Tasks.Pane.Kind() != PaneEmpty {
		t.Fatalf("cancel must clear pane")
	}
}

func TestReduce_StaleResponsesAreDiscarded(t *testing.T) {
	t.Parallel()

	a := boardWith(model.Task{ID: 1, Task: "a"})
	first := a.NextSeq()
	second := a.NextSeq()

	// The later request completes first.
	a = Reduce(a, TaskUpdated{Seq: second, Task: model.Task{ID: 1, Task: "second"}})
	a = Reduce(a, TaskUpdated{Seq: first, Task: model.Task{ID: 1, Task: "first"}})
	if got, _ := a.Tasks.FindTask(1); got.Task != "second" {
		t.Fatalf("older response overwrote newer one: %#v", got)
	}

	a = Reduce(a, TaskDeleted{Seq: first, ID: 1})
	if _, ok := a.Tasks.FindTask(1); !ok {
		t.Fatalf("stale delete must be ignored")
	}
	a = Reduce(a, TaskDeleted{Seq: a.NextSeq(), ID: 1})
	if _, ok := a.Tasks.FindTask(1); ok {
		t.Fatalf("fresh delete must apply")
	}
}

func TestReduce_RequestFailedRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantRoute Route
	}{
		{name: "auth", err: &api.AuthError{Status: 401}, wantRoute: RouteAuth},
		{name: "forbidden", err: &api.AuthError{Status: 403}, wantRoute: RouteAuth},
		{name: "validation", err: &api.ValidationError{Status: 400}, wantRoute: RouteBoard},
		{name: "server", err: &api.StatusError{Status: 500}, wantRoute: RouteBoard},
		{name: "transport", err: &api.TransportError{Op: "GET /api/tasks/", Err: errors.New("refused")}, wantRoute: RouteBoard},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := model.TaskDraft{ID: 1, Task: "a"}
			a := boardWith(model.Task{ID: 1, Task: "a"})
			a = Reduce(a, EditTask{Draft: d})
			a = Reduce(a, RequestFailed{Op: OpUpdateTask, Err: tt.err})
			if a.Route != tt.wantRoute {
				t.Fatalf("route: got %v want %v", a.Route, tt.wantRoute)
			}
			if a.LastError == nil || a.LastError.Op != OpUpdateTask {
				t.Fatalf("expected LastError to record the failure; got %#v", a.LastError)
			}
			if tt.wantRoute == RouteBoard && a.Tasks.Pane.EditedTask() != d {
				t.Fatalf("non-auth failure must keep the edit form")
			}

			a = Reduce(a, DismissError{})
			if a.LastError != nil {
				t.Fatalf("dismiss must clear LastError")
			}
		})
	}
}

func TestReduce_LoggedOutResets(t *testing.T) {
	t.Parallel()

	a := boardWith(model.Task{ID: 1})
	a = Reduce(a, CurrentUserFetched{User: model.User{ID: 7, Username: "alice"}})
	a = Reduce(a, ToggleMode{})
	seq := a.NextSeq()

	a = Reduce(a, LoggedOut{})
	if a.Route != RouteAuth || !a.Auth.IsLoginView || a.Auth.LoginUser.ID != 0 || len(a.Tasks.Tasks) != 0 {
		t.Fatalf("logout must reset state; got %#v", a)
	}
	if next := a.NextSeq(); next <= seq {
		t.Fatalf("sequence must keep increasing across logout: %d <= %d", next, seq)
	}
}

func TestReduce_Profiles(t *testing.T) {
	t.Parallel()

	img := "http://x/media/a.png"
	a := New()
	a = Reduce(a, ProfilesFetched{Profiles: []model.Profile{{ID: 1, UserProfile: 7}}})
	a = Reduce(a, ProfileCreated{Profile: model.Profile{ID: 1, UserProfile: 7}})
	a = Reduce(a, ProfileCreated{Profile: model.Profile{ID: 2, UserProfile: 8}})
	if len(a.Auth.Profiles) != 2 {
		t.Fatalf("expected 2 profiles; got %#v", a.Auth.Profiles)
	}
	a = Reduce(a, ProfileUpdated{Profile: model.Profile{ID: 1, UserProfile: 7, Img: &img}})
	if got := a.Auth.AvatarURL(7); got != img {
		t.Fatalf("AvatarURL: got %q", got)
	}
	if got := a.Auth.AvatarURL(8); got != "" {
		t.Fatalf("expected no avatar for user 8; got %q", got)
	}
}

func TestReduce_ReferenceData(t *testing.T) {
	t.Parallel()

	a := New()
	a = Reduce(a, UsersFetched{Users: []model.User{{ID: 7, Username: "alice"}}})
	a = Reduce(a, CategoriesFetched{Categories: []model.Category{{ID: 1, Item: "Backend"}}})
	a = Reduce(a, CategoryCreated{Category: model.Category{ID: 2, Item: "Ops"}})
	if a.Tasks.Username(7) != "alice" || a.Tasks.Username(9) != "" {
		t.Fatalf("Username lookup failed")
	}
	if a.Tasks.CategoryLabel(2) != "Ops" || len(a.Tasks.Categories) != 2 {
		t.Fatalf("category append failed: %#v", a.Tasks.Categories)
	}
}
