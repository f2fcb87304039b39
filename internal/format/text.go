package format

import (
	"fmt"
	"io"
	"strconv"

	"taskboard-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
)

// Tabular values render themselves as a text table.
type Tabular interface {
	Table() (headers []string, rows [][]string)
}

const maxCellWidth = 48

// WriteText renders v as a table when its shape is known and falls back to
// indented JSON.
func WriteText(w io.Writer, v any) error {
	headers, rows, ok := tableFor(v)
	if !ok {
		return WriteJSON(w, v, true)
	}
	for i, r := range rows {
		for j, c := range r {
			rows[i][j] = ansi.Truncate(c, maxCellWidth, "…")
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func tableFor(v any) ([]string, [][]string, bool) {
	switch x := v.(type) {
	case Tabular:
		h, r := x.Table()
		return h, r, true
	case []model.Task:
		h := []string{"ID", "Task", "Status", "Category", "Days", "Responsible", "Owner"}
		rows := make([][]string, 0, len(x))
		for _, t := range x {
			rows = append(rows, taskRow(t))
		}
		return h, rows, true
	case model.Task:
		return []string{"ID", "Task", "Status", "Category", "Days", "Responsible", "Owner"}, [][]string{taskRow(x)}, true
	case []model.User:
		rows := make([][]string, 0, len(x))
		for _, u := range x {
			rows = append(rows, []string{strconv.Itoa(u.ID), u.Username})
		}
		return []string{"ID", "Username"}, rows, true
	case model.User:
		return []string{"ID", "Username"}, [][]string{{strconv.Itoa(x.ID), x.Username}}, true
	case []model.Category:
		rows := make([][]string, 0, len(x))
		for _, c := range x {
			rows = append(rows, []string{strconv.Itoa(c.ID), c.Item})
		}
		return []string{"ID", "Category"}, rows, true
	case model.Category:
		return []string{"ID", "Category"}, [][]string{{strconv.Itoa(x.ID), x.Item}}, true
	case []model.Profile:
		rows := make([][]string, 0, len(x))
		for _, p := range x {
			rows = append(rows, profileRow(p))
		}
		return []string{"ID", "User", "Avatar"}, rows, true
	case model.Profile:
		return []string{"ID", "User", "Avatar"}, [][]string{profileRow(x)}, true
	default:
		return nil, nil, false
	}
}

func taskRow(t model.Task) []string {
	status := t.StatusName
	if status == "" {
		status = model.StatusLabel(t.Status)
	}
	return []string{
		strconv.Itoa(t.ID),
		t.Task,
		status,
		t.CategoryItem,
		strconv.Itoa(t.Estimate),
		t.ResponsibleUsername,
		t.OwnerUsername,
	}
}

func profileRow(p model.Profile) []string {
	img := "-"
	if p.Img != nil {
		img = *p.Img
	}
	return []string{strconv.Itoa(p.ID), strconv.Itoa(p.UserProfile), img}
}
