package tui

import (
	"fmt"
	"strconv"
	"strings"

	"taskboard-cli/internal/model"
	"taskboard-cli/internal/perm"
	"taskboard-cli/internal/state"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const flashNotOwner = "Only the owner can modify this task"

func (m *appModel) clampCursor() {
	n := len(m.table.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) currentRow() (model.Task, bool) {
	rows := m.table.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return model.Task{}, false
	}
	return rows[m.cursor], true
}

func (m appModel) loginUserID() int { return m.app.Auth.LoginUser.ID }

func (m appModel) openEditor(d model.TaskDraft) appModel {
	m.form = newEditForm(d)
	m.app = state.Reduce(m.app, state.EditTask{Draft: d})
	return m
}

func (m appModel) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalConfirmDelete:
		return m.updateConfirmDelete(msg)
	case modalFilter:
		return m.updateFilter(msg)
	case modalPickAvatar:
		return m.updateAvatarPicker(msg)
	}
	if m.app.Tasks.Pane.Kind() == state.PaneEditing {
		return m.updateForm(msg)
	}

	m.flash = ""
	switch {
	case key.Matches(msg, boardKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, boardKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, boardKeys.Down):
		if m.cursor < len(m.table.Visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, boardKeys.SortKeys):
		i, _ := strconv.Atoi(msg.String())
		m.table.Sort(state.Columns[i-1])
		m.clampCursor()
	case key.Matches(msg, boardKeys.Select):
		if row, ok := m.currentRow(); ok {
			m.app = state.Reduce(m.app, state.SelectTask{Task: row})
		}
	case key.Matches(msg, boardKeys.Edit):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		if !perm.CanModifyTask(m.loginUserID(), row) {
			m.flash = flashNotOwner
			return m, nil
		}
		return m.openEditor(row.Draft()), nil
	case key.Matches(msg, boardKeys.Delete):
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		if !perm.CanModifyTask(m.loginUserID(), row) {
			m.flash = flashNotOwner
			return m, nil
		}
		m.modal = modalConfirmDelete
		m.deleteID = row.ID
		m.confirmFocus = confirmFocusCancel
	case key.Matches(msg, boardKeys.New):
		return m.openEditor(model.NewTaskDraft(m.loginUserID())), nil
	case key.Matches(msg, boardKeys.Filter):
		m.modal = modalFilter
		m.filterInput.SetValue(m.table.Filter)
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
	case key.Matches(msg, boardKeys.Refresh):
		return m, m.one(m.runner.FetchTasks)
	case key.Matches(msg, boardKeys.Copy):
		return m.copySelection(), nil
	case key.Matches(msg, boardKeys.Avatar):
		return m.openAvatarPicker()
	case key.Matches(msg, boardKeys.Logout):
		return m, m.one(m.runner.Logout)
	case key.Matches(msg, boardKeys.Close):
		switch {
		case m.app.Tasks.Pane.Kind() != state.PaneEmpty:
			m.app = state.Reduce(m.app, state.CancelEdit{})
		case m.app.LastError != nil:
			m.app = state.Reduce(m.app, state.DismissError{})
		case m.table.Filter != "":
			m.table.Filter = ""
			m.clampCursor()
		}
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form, res, cmd := m.form.update(msg, m.app.Tasks.Users, m.app.Tasks.Categories)
	m.form = form
	switch res {
	case formCancel:
		m.app = state.Reduce(m.app, state.CancelEdit{})
		return m, nil
	case formSave:
		d, err := m.form.draft()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.app = state.Reduce(m.app, state.EditTask{Draft: d})
		seq := m.app.NextSeq()
		return m, m.saveTaskCmd(seq, d)
	case formSaveCategory:
		return m, m.createCategoryCmd(strings.TrimSpace(m.form.categoryInput.Value()))
	}
	return m, cmd
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	confirm := false
	switch msg.String() {
	case "y":
		confirm = true
	case "n", "esc":
		m.modal = modalNone
		return m, nil
	case "tab", "shift+tab", "left", "right":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "enter":
		confirm = m.confirmFocus == confirmFocusConfirm
		if !confirm {
			m.modal = modalNone
			return m, nil
		}
	}
	if !confirm {
		return m, nil
	}
	m.modal = modalNone
	id := m.deleteID
	m.deleteID = 0
	seq := m.app.NextSeq()
	return m, m.deleteTaskCmd(seq, id)
}

func (m appModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.modal = modalNone
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.modal = modalNone
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.table.Filter = ""
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.table.Filter = m.filterInput.Value()
	m.cursor = 0
	return m, cmd
}

func (m appModel) copySelection() appModel {
	t := m.app.Tasks.Pane.SelectedTask()
	if t.IsZero() {
		row, ok := m.currentRow()
		if !ok {
			return m
		}
		t = row
	}
	if err := m.copyFn(detailText(t)); err != nil {
		m.flash = "Copy failed: " + err.Error()
		return m
	}
	m.flash = fmt.Sprintf("Copied task #%d", t.ID)
	return m
}

// ---- View

func (m appModel) viewBoard() string {
	header := m.viewHeader()
	status := m.viewStatusLine()
	helpLine := styleMuted().Render(m.help.ShortHelpView(boardKeys.ShortHelp()))
	if m.app.Tasks.Pane.Kind() == state.PaneEditing {
		helpLine = styleMuted().Render(m.help.ShortHelpView(formKeys.ShortHelp()))
	}

	bodyH := m.height - 4
	if bodyH < 3 {
		bodyH = 3
	}
	leftW, rightW := splitWidths(m.width)

	var body string
	switch m.modal {
	case modalConfirmDelete:
		t, _ := m.app.Tasks.FindTask(m.deleteID)
		modal := renderConfirmModal(m.width, "Delete task", fmt.Sprintf("Delete %q? This cannot be undone.", t.Task), "Delete", "Cancel", m.confirmFocus)
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, modal)
	case modalPickAvatar:
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.viewAvatarPicker())
	default:
		left := normalizePane(m.renderTable(leftW, bodyH), leftW, bodyH)
		if rightW == 0 {
			body = left
			break
		}
		right := normalizePane(m.renderPane(rightW), rightW, bodyH)
		sep := normalizePane(strings.Repeat("│\n", bodyH), 1, bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, styleMuted().Render(sep), right)
	}

	return strings.Join([]string{header, body, status, helpLine}, "\n")
}

func (m appModel) viewHeader() string {
	user := m.app.Auth.LoginUser
	parts := []string{styleTitle().Render("Taskboard")}
	if user.Username != "" {
		parts = append(parts, user.Username)
	}
	if url := m.app.Auth.AvatarURL(user.ID); url != "" {
		parts = append(parts, styleMuted().Render("avatar "+url))
	}
	parts = append(parts, styleMuted().Render(fmt.Sprintf("%d tasks", len(m.app.Tasks.Tasks))))
	return fitWidth(strings.Join(parts, "  ·  "), m.width)
}

func (m appModel) viewStatusLine() string {
	switch {
	case m.modal == modalFilter:
		return m.filterInput.View()
	case m.flash != "":
		return styleFlash().Render(m.flash)
	case m.app.LastError != nil:
		return styleError().Render(failureMessage(*m.app.LastError))
	case m.table.Filter != "":
		return styleMuted().Render("filter: " + m.table.Filter + " (esc clears)")
	}
	return ""
}

func (m appModel) renderPane(width int) string {
	switch m.app.Tasks.Pane.Kind() {
	case state.PaneEditing:
		return m.form.view(width, m.app.Tasks.Users, m.app.Tasks.Categories)
	case state.PaneViewing:
		return renderDetail(m.app.Tasks.Pane.SelectedTask(), width)
	default:
		return styleMuted().Render("enter: view a task · n: new task")
	}
}

type tableCol struct {
	col   state.Column
	width int
}

func tableLayout(width int) []tableCol {
	fixed := []tableCol{
		{state.ColStatus, 12},
		{state.ColCategory, 13},
		{state.ColEstimate, 9},
		{state.ColResponsible, 16},
		{state.ColOwner, 12},
	}
	used := 2 // gutter
	for _, c := range fixed {
		used += c.width + 1
	}
	taskW := width - used
	if taskW < 12 {
		// Narrow terminal: keep task, status and days.
		return []tableCol{{state.ColTask, max(width-2-24, 8)}, {state.ColStatus, 12}, {state.ColEstimate, 9}}
	}
	return append([]tableCol{{state.ColTask, taskW}}, fixed...)
}

func (m appModel) renderTable(width, height int) string {
	cols := tableLayout(width)
	var hdr strings.Builder
	hdr.WriteString("  ")
	for _, c := range cols {
		label := fmt.Sprintf("%d %s", columnIndex(c.col)+1, state.HeaderLabel(c.col))
		if c.col == m.table.ActiveKey {
			if m.table.Order == state.Asc {
				label += " ▲"
			} else {
				label += " ▼"
			}
		}
		hdr.WriteString(fitWidth(label, c.width) + " ")
	}
	lines := []string{styleHeader().Render(hdr.String())}

	rows := m.table.Visible()
	if len(rows) == 0 {
		msg := "No tasks yet. Press n to create one."
		if m.table.Filter != "" {
			msg = "No tasks match the filter."
		}
		return strings.Join(append(lines, "", styleMuted().Render(msg)), "\n")
	}

	// Keep the cursor visible.
	visible := height - 1
	start := 0
	if visible > 0 && m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	uid := m.loginUserID()
	for i := start; i < len(rows) && (visible <= 0 || i < start+visible); i++ {
		t := rows[i]
		gutter := "  "
		if perm.CanModifyTask(uid, t) {
			gutter = "✎ "
		}
		var b strings.Builder
		b.WriteString(gutter)
		for _, c := range cols {
			b.WriteString(fitWidth(cellValue(t, c.col), c.width) + " ")
		}
		line := b.String()
		if i == m.cursor {
			line = styleSelectedRow().Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func columnIndex(c state.Column) int {
	for i, x := range state.Columns {
		if x == c {
			return i
		}
	}
	return 0
}

func cellValue(t model.Task, c state.Column) string {
	switch c {
	case state.ColTask:
		return t.Task
	case state.ColStatus:
		if t.StatusName != "" {
			return t.StatusName
		}
		return model.StatusLabel(t.Status)
	case state.ColCategory:
		return t.CategoryItem
	case state.ColEstimate:
		return strconv.Itoa(t.Estimate)
	case state.ColResponsible:
		return t.ResponsibleUsername
	case state.ColOwner:
		return t.OwnerUsername
	}
	return ""
}
