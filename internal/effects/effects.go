// Package effects performs the remote operations behind each user action and
// turns their outcome into a state.Action for the reducer.
package effects

import (
	"context"
	"log/slog"
	"strings"

	"taskboard-cli/internal/logging"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"
)

// API is the subset of *api.Client the effects need.
type API interface {
	Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, creds model.Credentials) (model.User, error)
	CurrentUser(ctx context.Context) (model.User, error)
	Profiles(ctx context.Context) ([]model.Profile, error)
	CreateProfile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, id int, imagePath string) (model.Profile, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, d model.TaskDraft) (model.Task, error)
	UpdateTask(ctx context.Context, d model.TaskDraft) (model.Task, error)
	DeleteTask(ctx context.Context, id int) error
	Users(ctx context.Context) ([]model.User, error)
	Categories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, item string) (model.Category, error)
}

// TokenStore persists the session (implemented by store.Store).
type TokenStore interface {
	SaveTokens(ctx context.Context, tp model.TokenPair) error
	ClearTokens(ctx context.Context) error
	SaveLastUsername(ctx context.Context, name string) error
}

type Runner struct {
	api    API
	tokens TokenStore
	log    *slog.Logger
}

func NewRunner(a API, tokens TokenStore, log *slog.Logger) *Runner {
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{api: a, tokens: tokens, log: log}
}

func (r *Runner) failed(op state.Op, err error) state.Action {
	r.log.Warn("request failed", "op", string(op), "error", err)
	return state.RequestFailed{Op: op, Err: err}
}

// ---- Auth

// Login exchanges credentials for a token pair and persists it. Nothing is
// stored when the exchange fails.
func (r *Runner) Login(ctx context.Context, creds model.Credentials) state.Action {
	creds.Username = strings.TrimSpace(creds.Username)
	tp, err := r.api.Login(ctx, creds)
	if err != nil {
		return r.failed(state.OpLogin, err)
	}
	if err := r.tokens.SaveTokens(ctx, tp); err != nil {
		return r.failed(state.OpLogin, err)
	}
	if err := r.tokens.SaveLastUsername(ctx, creds.Username); err != nil {
		// The session is usable without the prefill value.
		r.log.Warn("save last username", "error", err)
	}
	r.log.Info("logged in", "username", creds.Username)
	return state.LoggedIn{Username: creds.Username}
}

// Register creates the account, logs in and creates an empty profile. It
// stops at the first failure; the returned actions are in completion order.
func (r *Runner) Register(ctx context.Context, creds model.Credentials) []state.Action {
	creds.Username = strings.TrimSpace(creds.Username)
	if _, err := r.api.Register(ctx, creds); err != nil {
		return []state.Action{r.failed(state.OpRegister, err)}
	}
	login := r.Login(ctx, creds)
	out := []state.Action{login}
	if _, ok := login.(state.LoggedIn); !ok {
		return out
	}
	return append(out, r.CreateProfile(ctx))
}

func (r *Runner) Logout(ctx context.Context) state.Action {
	if err := r.tokens.ClearTokens(ctx); err != nil {
		return r.failed(state.OpLogout, err)
	}
	return state.LoggedOut{}
}

// ---- Fetches

func (r *Runner) FetchTasks(ctx context.Context) state.Action {
	ts, err := r.api.Tasks(ctx)
	if err != nil {
		return r.failed(state.OpFetchTasks, err)
	}
	return state.TasksFetched{Tasks: ts}
}

func (r *Runner) FetchCurrentUser(ctx context.Context) state.Action {
	u, err := r.api.CurrentUser(ctx)
	if err != nil {
		return r.failed(state.OpFetchUser, err)
	}
	return state.CurrentUserFetched{User: u}
}

func (r *Runner) FetchUsers(ctx context.Context) state.Action {
	us, err := r.api.Users(ctx)
	if err != nil {
		return r.failed(state.OpFetchUsers, err)
	}
	return state.UsersFetched{Users: us}
}

func (r *Runner) FetchCategories(ctx context.Context) state.Action {
	cs, err := r.api.Categories(ctx)
	if err != nil {
		return r.failed(state.OpFetchCategory, err)
	}
	return state.CategoriesFetched{Categories: cs}
}

func (r *Runner) FetchProfiles(ctx context.Context) state.Action {
	ps, err := r.api.Profiles(ctx)
	if err != nil {
		return r.failed(state.OpFetchProfiles, err)
	}
	return state.ProfilesFetched{Profiles: ps}
}

// Bootstrap loads the board: tasks, current user, users, categories and
// profiles, each awaited before the next. A failure does not stop the
// sequence; every outcome is returned in order.
func (r *Runner) Bootstrap(ctx context.Context) []state.Action {
	steps := []func(context.Context) state.Action{
		r.FetchTasks,
		r.FetchCurrentUser,
		r.FetchUsers,
		r.FetchCategories,
		r.FetchProfiles,
	}
	out := make([]state.Action, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			out = append(out, r.failed(state.OpFetchTasks, err))
			break
		}
		out = append(out, step(ctx))
	}
	return out
}

// ---- Mutations

func (r *Runner) CreateCategory(ctx context.Context, item string) state.Action {
	c, err := r.api.CreateCategory(ctx, strings.TrimSpace(item))
	if err != nil {
		return r.failed(state.OpCreateCategory, err)
	}
	return state.CategoryCreated{Category: c}
}

func (r *Runner) CreateProfile(ctx context.Context) state.Action {
	p, err := r.api.CreateProfile(ctx)
	if err != nil {
		return r.failed(state.OpCreateProfile, err)
	}
	return state.ProfileCreated{Profile: p}
}

func (r *Runner) UpdateProfile(ctx context.Context, id int, imagePath string) state.Action {
	p, err := r.api.UpdateProfile(ctx, id, imagePath)
	if err != nil {
		return r.failed(state.OpUpdateProfile, err)
	}
	return state.ProfileUpdated{Profile: p}
}

func (r *Runner) CreateTask(ctx context.Context, seq uint64, d model.TaskDraft) state.Action {
	t, err := r.api.CreateTask(ctx, d)
	if err != nil {
		return r.failed(state.OpCreateTask, err)
	}
	return state.TaskCreated{Seq: seq, Task: t}
}

func (r *Runner) UpdateTask(ctx context.Context, seq uint64, d model.TaskDraft) state.Action {
	t, err := r.api.UpdateTask(ctx, d)
	if err != nil {
		return r.failed(state.OpUpdateTask, err)
	}
	return state.TaskUpdated{Seq: seq, Task: t}
}

func (r *Runner) DeleteTask(ctx context.Context, seq uint64, id int) state.Action {
	if err := r.api.DeleteTask(ctx, id); err != nil {
		return r.failed(state.OpDeleteTask, err)
	}
	return state.TaskDeleted{Seq: seq, ID: id}
}

// SaveTask creates d when it has no id yet and updates it otherwise.
func (r *Runner) SaveTask(ctx context.Context, seq uint64, d model.TaskDraft) state.Action {
	if d.IsNew() {
		return r.CreateTask(ctx, seq, d)
	}
	return r.UpdateTask(ctx, seq, d)
}
