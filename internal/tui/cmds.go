package tui

import (
	"context"

	"taskboard-cli/internal/model"
	"taskboard-cli/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) one(f func(context.Context) state.Action) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionsMsg{actions: []state.Action{f(ctx)}}
	}
}

func (m appModel) many(f func(context.Context) []state.Action) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionsMsg{actions: f(ctx)}
	}
}

func (m appModel) bootstrapCmd() tea.Cmd {
	return m.many(m.runner.Bootstrap)
}

func (m appModel) loginCmd(creds model.Credentials) tea.Cmd {
	r := m.runner
	return m.one(func(ctx context.Context) state.Action { return r.Login(ctx, creds) })
}

func (m appModel) registerCmd(creds model.Credentials) tea.Cmd {
	r := m.runner
	return m.many(func(ctx context.Context) []state.Action { return r.Register(ctx, creds) })
}

func (m appModel) saveTaskCmd(seq uint64, d model.TaskDraft) tea.Cmd {
	r := m.runner
	return m.one(func(ctx context.Context) state.Action { return r.SaveTask(ctx, seq, d) })
}

func (m appModel) deleteTaskCmd(seq uint64, id int) tea.Cmd {
	r := m.runner
	return m.one(func(ctx context.Context) state.Action { return r.DeleteTask(ctx, seq, id) })
}

func (m appModel) createCategoryCmd(item string) tea.Cmd {
	r := m.runner
	return m.one(func(ctx context.Context) state.Action { return r.CreateCategory(ctx, item) })
}

func (m appModel) updateProfileCmd(id int, path string) tea.Cmd {
	r := m.runner
	return m.one(func(ctx context.Context) state.Action { return r.UpdateProfile(ctx, id, path) })
}
