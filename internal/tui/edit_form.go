package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskboard-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField int

const (
	fieldTask formField = iota
	fieldDescription
	fieldCriteria
	fieldEstimate
	fieldResponsible
	fieldStatus
	fieldCategory
	formFieldCount
)

func (f formField) label() string {
	switch f {
	case fieldTask:
		return "Task"
	case fieldDescription:
		return "Description"
	case fieldCriteria:
		return "Criteria"
	case fieldEstimate:
		return "Days"
	case fieldResponsible:
		return "Responsible"
	case fieldStatus:
		return "Status"
	case fieldCategory:
		return "Category"
	default:
		return ""
	}
}

func (f formField) isSelector() bool {
	return f == fieldResponsible || f == fieldStatus || f == fieldCategory
}

// editForm is the right-hand pane while a draft is open. Text fields are
// textinputs; responsible, status and category cycle through their options.
type editForm struct {
	id     int
	inputs [fieldEstimate + 1]textinput.Model
	focus  formField

	responsible int
	status      string
	category    int

	// Category mini-dialog.
	categoryOpen  bool
	categoryInput textinput.Model

	err string
}

func newTextInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	in.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)
	return in
}

func newEditForm(d model.TaskDraft) editForm {
	f := editForm{
		id:            d.ID,
		responsible:   d.Responsible,
		status:        d.Status,
		category:      d.Category,
		categoryInput: newTextInput("New category", 100),
	}
	f.inputs[fieldTask] = newTextInput("Task name", 100)
	f.inputs[fieldDescription] = newTextInput("Description", 256)
	f.inputs[fieldCriteria] = newTextInput("Acceptance criteria", 256)
	f.inputs[fieldEstimate] = newTextInput("1", 4)

	f.inputs[fieldTask].SetValue(d.Task)
	f.inputs[fieldDescription].SetValue(d.Description)
	f.inputs[fieldCriteria].SetValue(d.Criteria)
	if d.Estimate > 0 {
		f.inputs[fieldEstimate].SetValue(strconv.Itoa(d.Estimate))
	}
	if f.status == "" {
		f.status = model.StatusNotStarted
	}
	f.setFocus(fieldTask)
	return f
}

func (f *editForm) setFocus(field formField) {
	f.focus = field
	for i := range f.inputs {
		if formField(i) == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

func (f editForm) value(field formField) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// canSubmit mirrors the save button: task, description and criteria must be set.
func (f editForm) canSubmit() bool {
	return f.value(fieldTask) != "" && f.value(fieldDescription) != "" && f.value(fieldCriteria) != ""
}

var errEstimate = errors.New("days must be a positive whole number")

// draft builds the write form from the inputs.
func (f editForm) draft() (model.TaskDraft, error) {
	if !f.canSubmit() {
		return model.TaskDraft{}, errors.New("task, description and criteria are required")
	}
	est, err := strconv.Atoi(f.value(fieldEstimate))
	if err != nil || est < 1 {
		return model.TaskDraft{}, errEstimate
	}
	return model.TaskDraft{
		ID:          f.id,
		Task:        f.value(fieldTask),
		Description: f.value(fieldDescription),
		Criteria:    f.value(fieldCriteria),
		Status:      f.status,
		Category:    f.category,
		Estimate:    est,
		Responsible: f.responsible,
	}, nil
}

// formResult tells the board what the form wants after a key.
type formResult int

const (
	formContinue formResult = iota
	formSave
	formCancel
	formSaveCategory
)

func (f editForm) update(msg tea.KeyMsg, users []model.User, cats []model.Category) (editForm, formResult, tea.Cmd) {
	if f.categoryOpen {
		return f.updateCategoryDialog(msg)
	}

	switch {
	case key.Matches(msg, formKeys.Cancel):
		return f, formCancel, nil
	case key.Matches(msg, formKeys.Save):
		if _, err := f.draft(); err != nil {
			f.err = err.Error()
			return f, formContinue, nil
		}
		f.err = ""
		return f, formSave, nil
	case key.Matches(msg, formKeys.NewCategory):
		f.categoryOpen = true
		f.categoryInput.SetValue("")
		f.categoryInput.Focus()
		for i := range f.inputs {
			f.inputs[i].Blur()
		}
		return f, formContinue, textinput.Blink
	case key.Matches(msg, formKeys.Next):
		f.setFocus((f.focus + 1) % formFieldCount)
		return f, formContinue, nil
	case key.Matches(msg, formKeys.Prev):
		f.setFocus((f.focus + formFieldCount - 1) % formFieldCount)
		return f, formContinue, nil
	}

	if f.focus.isSelector() {
		step := 0
		switch {
		case key.Matches(msg, formKeys.Left):
			step = -1
		case key.Matches(msg, formKeys.Right), msg.String() == " ":
			step = 1
		}
		if step != 0 {
			f.cycle(step, users, cats)
		}
		return f, formContinue, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.focus == fieldEstimate {
		f.inputs[fieldEstimate].SetValue(digitsOnly(f.inputs[fieldEstimate].Value()))
	}
	f.err = ""
	return f, formContinue, cmd
}

func (f editForm) updateCategoryDialog(msg tea.KeyMsg) (editForm, formResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		f.categoryOpen = false
		f.categoryInput.Blur()
		f.setFocus(f.focus)
		return f, formContinue, nil
	case "enter":
		// Save stays disabled while the input is empty.
		if strings.TrimSpace(f.categoryInput.Value()) == "" {
			return f, formContinue, nil
		}
		f.categoryOpen = false
		f.categoryInput.Blur()
		f.setFocus(f.focus)
		return f, formSaveCategory, nil
	}
	var cmd tea.Cmd
	f.categoryInput, cmd = f.categoryInput.Update(msg)
	return f, formContinue, cmd
}

func (f *editForm) cycle(step int, users []model.User, cats []model.Category) {
	switch f.focus {
	case fieldResponsible:
		ids := make([]int, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		f.responsible = cycleInt(ids, f.responsible, step)
	case fieldCategory:
		ids := make([]int, len(cats))
		for i, c := range cats {
			ids[i] = c.ID
		}
		f.category = cycleInt(ids, f.category, step)
	case fieldStatus:
		idx := 0
		for i, c := range model.StatusCodes {
			if c == f.status {
				idx = i
			}
		}
		n := len(model.StatusCodes)
		f.status = model.StatusCodes[(idx+step+n)%n]
	}
}

// cycleInt moves from cur to the neighbouring option. An unknown current
// value lands on the first option.
func cycleInt(opts []int, cur, step int) int {
	if len(opts) == 0 {
		return cur
	}
	for i, v := range opts {
		if v == cur {
			return opts[(i+step+len(opts))%len(opts)]
		}
	}
	return opts[0]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (f editForm) view(width int, users []model.User, cats []model.Category) string {
	title := "New task"
	if f.id != 0 {
		title = fmt.Sprintf("Edit task #%d", f.id)
	}
	lines := []string{styleTitle().Render(title), ""}

	for field := fieldTask; field < formFieldCount; field++ {
		label := field.label()
		marker := "  "
		if field == f.focus && !f.categoryOpen {
			marker = lipgloss.NewStyle().Foreground(colorAccent).Render("› ")
		}
		var val string
		switch field {
		case fieldResponsible:
			val = selectorValue(usernameOf(users, f.responsible))
		case fieldStatus:
			val = selectorValue(model.StatusLabel(f.status))
		case fieldCategory:
			val = selectorValue(categoryOf(cats, f.category))
		default:
			in := f.inputs[field]
			in.Width = width - 16
			val = in.View()
		}
		lines = append(lines, marker+styleLabel().Width(12).Render(label)+" "+val)
	}

	lines = append(lines, "")
	save := "[ save ]"
	if f.canSubmit() {
		save = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(save)
	} else {
		save = styleMuted().Render(save)
	}
	lines = append(lines, save+"  "+styleMuted().Render("ctrl+s save · ctrl+n category · esc cancel"))

	if f.err != "" {
		lines = append(lines, "", styleError().Render(f.err))
	}
	if f.categoryOpen {
		lines = append(lines, "", renderCategoryDialog(width, f.categoryInput))
	}
	return strings.Join(lines, "\n")
}

func renderCategoryDialog(width int, in textinput.Model) string {
	save := "[ save ]"
	if strings.TrimSpace(in.Value()) == "" {
		save = styleMuted().Render(save)
	} else {
		save = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(save)
	}
	body := in.View() + "\n\n" + save + "  " + styleMuted().Render("enter save · esc close")
	return renderModalBox(width, "New category", body)
}

func selectorValue(s string) string {
	if s == "" {
		s = "—"
	}
	return "‹ " + s + " ›"
}

func usernameOf(users []model.User, id int) string {
	for _, u := range users {
		if u.ID == id {
			return u.Username
		}
	}
	if id == 0 {
		return ""
	}
	return "#" + strconv.Itoa(id)
}

func categoryOf(cats []model.Category, id int) string {
	for _, c := range cats {
		if c.ID == id {
			return c.Item
		}
	}
	if id == 0 {
		return ""
	}
	return "#" + strconv.Itoa(id)
}
