package state

import "taskboard-cli/internal/model"

// Op names a remote operation for failure reporting.
type Op string

const (
	OpLogin          Op = "login"
	OpRegister       Op = "register"
	OpFetchUser      Op = "fetchCurrentUser"
	OpFetchProfiles  Op = "fetchProfiles"
	OpCreateProfile  Op = "createProfile"
	OpUpdateProfile  Op = "updateProfile"
	OpFetchTasks     Op = "fetchTasks"
	OpFetchUsers     Op = "fetchUsers"
	OpFetchCategory  Op = "fetchCategories"
	OpCreateCategory Op = "createCategory"
	OpCreateTask     Op = "createTask"
	OpUpdateTask     Op = "updateTask"
	OpDeleteTask     Op = "deleteTask"
	OpLogout         Op = "logout"
)

// Action is anything Reduce understands.
type Action interface {
	isAction()
}

type (
	ToggleMode struct{}
	LoggedIn   struct{ Username string }
	LoggedOut  struct{}

	CurrentUserFetched struct{ User model.User }
	ProfilesFetched    struct{ Profiles []model.Profile }
	ProfileCreated     struct{ Profile model.Profile }
	ProfileUpdated     struct{ Profile model.Profile }

	TasksFetched      struct{ Tasks []model.Task }
	UsersFetched      struct{ Users []model.User }
	CategoriesFetched struct{ Categories []model.Category }
	CategoryCreated   struct{ Category model.Category }

	TaskCreated struct {
		Seq  uint64
		Task model.Task
	}
	TaskUpdated struct {
		Seq  uint64
		Task model.Task
	}
	TaskDeleted struct {
		Seq uint64
		ID  int
	}

	// EditTask opens the edit pane for Draft. The empty draft closes an
	// open edit pane and leaves a detail pane alone.
	EditTask struct{ Draft model.TaskDraft }
	// SelectTask opens the detail pane for Task. The empty task closes an
	// open detail pane and leaves an edit pane alone.
	SelectTask struct{ Task model.Task }
	CancelEdit struct{}

	RequestFailed struct {
		Op  Op
		Err error
	}
	DismissError struct{}
)

func (ToggleMode) isAction()         {}
func (LoggedIn) isAction()           {}
func (LoggedOut) isAction()          {}
func (CurrentUserFetched) isAction() {}
func (ProfilesFetched) isAction()    {}
func (ProfileCreated) isAction()     {}
func (ProfileUpdated) isAction()     {}
func (TasksFetched) isAction()       {}
func (UsersFetched) isAction()       {}
func (CategoriesFetched) isAction()  {}
func (CategoryCreated) isAction()    {}
func (TaskCreated) isAction()        {}
func (TaskUpdated) isAction()        {}
func (TaskDeleted) isAction()        {}
func (EditTask) isAction()           {}
func (SelectTask) isAction()         {}
func (CancelEdit) isAction()         {}
func (RequestFailed) isAction()      {}
func (DismissError) isAction()       {}
