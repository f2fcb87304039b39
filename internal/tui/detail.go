package tui

import (
	"strconv"
	"strings"

	"taskboard-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type detailRow struct {
	label string
	value string
}

// detailRows are the fields shown for a selected task, in display order.
func detailRows(t model.Task) []detailRow {
	status := t.StatusName
	if status == "" {
		status = model.StatusLabel(t.Status)
	}
	return []detailRow{
		{"Task", t.Task},
		{"Description", t.Description},
		{"Criteria", t.Criteria},
		{"Owner", t.OwnerUsername},
		{"Responsible", t.ResponsibleUsername},
		{"Days", strconv.Itoa(t.Estimate)},
		{"Category", t.CategoryItem},
		{"Status", status},
		{"Created", t.CreatedAt},
		{"Updated", t.UpdatedAt},
	}
}

func renderDetail(t model.Task, width int) string {
	if t.Task == "" {
		return ""
	}
	labelW := 12
	valueW := width - labelW - 1
	if valueW < 10 {
		valueW = 10
	}
	lines := []string{styleTitle().Render("Task detail"), ""}
	for _, r := range detailRows(t) {
		val := r.value
		if r.label == "Description" {
			val = renderMarkdown(val, valueW)
		}
		val = lipgloss.NewStyle().Width(valueW).Render(val)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, styleLabel().Width(labelW).Render(r.label), " ", val))
	}
	return strings.Join(lines, "\n")
}

// detailText is the plain-text form copied to the clipboard.
func detailText(t model.Task) string {
	var b strings.Builder
	for _, r := range detailRows(t) {
		b.WriteString(r.label)
		b.WriteString(": ")
		b.WriteString(r.value)
		b.WriteByte('\n')
	}
	return b.String()
}
