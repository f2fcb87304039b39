package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskboard-cli/internal/effects"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/perm"
	"taskboard-cli/internal/state"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func fetchTasks(ctx context.Context, r *effects.Runner) ([]model.Task, error) {
	act := r.FetchTasks(ctx)
	if err := actionErr(act); err != nil {
		return nil, err
	}
	return act.(state.TasksFetched).Tasks, nil
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id: %q", s)
	}
	return id, nil
}

func findTask(ctx context.Context, r *effects.Runner, arg string) (model.Task, error) {
	id, err := parseTaskID(arg)
	if err != nil {
		return model.Task{}, err
	}
	ts, err := fetchTasks(ctx, r)
	if err != nil {
		return model.Task{}, err
	}
	t, ok := state.TaskState{Tasks: ts}.FindTask(id)
	if !ok {
		return model.Task{}, errNotFound("task", strconv.Itoa(id))
	}
	return t, nil
}

func newTasksListCmd(app *App) *cobra.Command {
	var sortBy string
	var asc bool
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (server order unless --sort is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := fetchTasks(cmd.Context(), app.runner())
			if err != nil {
				return writeErr(cmd, err)
			}
			view := state.NewTableView(state.TaskState{Tasks: ts})
			view.Filter = filter
			if strings.TrimSpace(sortBy) != "" {
				col, ok := state.ParseColumn(sortBy)
				if !ok {
					return writeErr(cmd, fmt.Errorf("unknown sort column %q (want one of %s)", sortBy, columnNames()))
				}
				order := state.Desc
				if asc {
					order = state.Asc
				}
				view.Rows = state.SortRows(view.Rows, col, order)
			}
			rows := view.Visible()
			if rows == nil {
				rows = []model.Task{}
			}
			return writeOut(cmd, app, rows)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column: "+columnNames())
	cmd.Flags().BoolVar(&asc, "asc", false, "Sort ascending (default descending)")
	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive text filter")
	return cmd
}

func columnNames() string {
	names := make([]string, len(state.Columns))
	for i, c := range state.Columns {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := findTask(cmd.Context(), app.runner(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, t)
		},
	}
}

// draftFlags are the editable task fields. Only flags the user set are applied.
type draftFlags struct {
	task        string
	description string
	criteria    string
	status      string
	category    int
	estimate    int
	responsible int
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.task, "task", "", "Task name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&f.criteria, "criteria", "", "Acceptance criteria")
	cmd.Flags().StringVar(&f.status, "status", "", "Status code: 1 (not started), 2 (in progress), 3 (done)")
	cmd.Flags().IntVar(&f.category, "category", 0, "Category id")
	cmd.Flags().IntVar(&f.estimate, "estimate", 0, "Estimate in days (>= 1)")
	cmd.Flags().IntVar(&f.responsible, "responsible", 0, "Responsible user id")
}

func (f draftFlags) apply(cmd *cobra.Command, d model.TaskDraft) (model.TaskDraft, error) {
	changed := cmd.Flags().Changed
	if changed("task") {
		d.Task = strings.TrimSpace(f.task)
	}
	if changed("description") {
		d.Description = strings.TrimSpace(f.description)
	}
	if changed("criteria") {
		d.Criteria = strings.TrimSpace(f.criteria)
	}
	if changed("status") {
		s := strings.TrimSpace(f.status)
		valid := false
		for _, c := range model.StatusCodes {
			valid = valid || c == s
		}
		if !valid {
			return d, fmt.Errorf("invalid --status %q (want 1, 2 or 3)", f.status)
		}
		d.Status = s
	}
	if changed("category") {
		d.Category = f.category
	}
	if changed("estimate") {
		if f.estimate < 1 {
			return d, errors.New("--estimate must be at least 1")
		}
		d.Estimate = f.estimate
	}
	if changed("responsible") {
		d.Responsible = f.responsible
	}
	if d.Task == "" || d.Description == "" || d.Criteria == "" {
		return d, errors.New("task, description and criteria are required")
	}
	return d, nil
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task owned by the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := app.runner()
			me, err := app.currentUser(ctx, r)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := flags.apply(cmd, model.NewTaskDraft(me.ID))
			if err != nil {
				return writeErr(cmd, err)
			}
			act := r.SaveTask(ctx, 0, d)
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, act.(state.TaskCreated).Task)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change a task you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := app.runner()
			t, err := ownedTask(ctx, app, r, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := flags.apply(cmd, t.Draft())
			if err != nil {
				return writeErr(cmd, err)
			}
			act := r.SaveTask(ctx, 0, d)
			if err := actionErr(act); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, act.(state.TaskUpdated).Task)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := app.runner()
			t, err := ownedTask(ctx, app, r, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := actionErr(r.DeleteTask(ctx, 0, t.ID)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": t.ID, "deleted": true})
		},
	}
}

// ownedTask loads the task and checks that the signed-in user may modify it.
func ownedTask(ctx context.Context, app *App, r *effects.Runner, arg string) (model.Task, error) {
	t, err := findTask(ctx, r, arg)
	if err != nil {
		return model.Task{}, err
	}
	me, err := app.currentUser(ctx, r)
	if err != nil {
		return model.Task{}, err
	}
	if err := perm.CheckModifyTask(me.ID, t); err != nil {
		return model.Task{}, fmt.Errorf("permission denied: %w", err)
	}
	return t, nil
}
