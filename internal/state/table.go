package state

import (
	"sort"
	"strings"

	"taskboard-cli/internal/model"
)

type Column string

const (
	ColTask        Column = "task"
	ColStatus      Column = "status"
	ColCategory    Column = "category"
	ColEstimate    Column = "estimate"
	ColResponsible Column = "responsible"
	ColOwner       Column = "owner"
)

// Columns are the sortable columns in header order.
var Columns = []Column{ColTask, ColStatus, ColCategory, ColEstimate, ColResponsible, ColOwner}

func ParseColumn(s string) (Column, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Columns {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func HeaderLabel(c Column) string {
	switch c {
	case ColTask:
		return "Task"
	case ColStatus:
		return "Status"
	case ColCategory:
		return "Category"
	case ColEstimate:
		return "Days"
	case ColResponsible:
		return "Responsible"
	case ColOwner:
		return "Owner"
	default:
		return string(c)
	}
}

type SortOrder string

const (
	Desc SortOrder = "desc"
	Asc  SortOrder = "asc"
)

// TableView is the board's local copy of the task collection. It may be
// sorted and filtered; it is reset to server order whenever the
// authoritative collection changes.
type TableView struct {
	Rows      []model.Task
	Order     SortOrder
	ActiveKey Column
	Filter    string

	version uint64
}

func NewTableView(ts TaskState) TableView {
	return TableView{
		Rows:    cloneSlice(ts.Tasks),
		Order:   Desc,
		version: ts.Version,
	}
}

// Sync resets Rows when ts carries a different collection version and
// reports whether it did. The active sort is kept for the header display
// but not reapplied: a refetch shows server order until the next Sort.
func (v *TableView) Sync(ts TaskState) bool {
	if v.version == ts.Version {
		return false
	}
	v.Rows = cloneSlice(ts.Tasks)
	v.version = ts.Version
	return true
}

// Sort orders Rows by col. Repeating the active column flips desc to asc;
// anything else sorts descending.
func (v *TableView) Sort(col Column) {
	order := Desc
	if col == v.ActiveKey && v.Order == Desc {
		order = Asc
	}
	v.Rows = SortRows(v.Rows, col, order)
	v.Order = order
	v.ActiveKey = col
}

// Visible applies Filter to Rows (case-insensitive substring match on the
// task's text fields and labels).
func (v TableView) Visible() []model.Task {
	q := strings.ToLower(strings.TrimSpace(v.Filter))
	if q == "" {
		return v.Rows
	}
	var out []model.Task
	for _, t := range v.Rows {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t model.Task, q string) bool {
	for _, s := range []string{t.Task, t.Description, t.Criteria, t.CategoryItem, t.StatusName, t.ResponsibleUsername, t.OwnerUsername} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// SortRows returns a sorted copy of rows. Equal keys keep their relative order.
func SortRows(rows []model.Task, col Column, order SortOrder) []model.Task {
	out := cloneSlice(rows)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], col)
		if order == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compare(a, b model.Task, col Column) int {
	switch col {
	case ColTask:
		return strings.Compare(a.Task, b.Task)
	case ColStatus:
		return strings.Compare(a.Status, b.Status)
	case ColCategory:
		return cmpInt(a.Category, b.Category)
	case ColEstimate:
		return cmpInt(a.Estimate, b.Estimate)
	case ColResponsible:
		return cmpInt(a.Responsible, b.Responsible)
	case ColOwner:
		return cmpInt(a.Owner, b.Owner)
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
