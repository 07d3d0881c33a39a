package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/workflow"
)

func (m Model) renderDetailView() string {
	var s strings.Builder
	f := m.detail

	s.WriteString(titleStyle.Render(strings.ToUpper(orDash(f.Title))))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("State:"), renderState(f.State)))
	if f.IsFinal {
		s.WriteString(fmt.Sprintf("%s yes\n", labelStyle.Render("Final:")))
	}
	if f.Location != nil {
		s.WriteString(fmt.Sprintf("%s %.2f, %.2f, %.2f\n", labelStyle.Render("Location:"), f.Location.X, f.Location.Y, f.Location.Z))
	}
	if ts := f.ModifiedOn.Timestamp; !ts.IsZero() {
		s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Modified:"), ts.Local().Format("2006-01-02 15:04")))
	}

	s.WriteString("\n")
	for _, field := range f.Fields {
		marker := " "
		if field.Required && field.Type != models.FieldLabel {
			marker = "*"
		}
		check := "·"
		if workflow.IsFilled(field) {
			check = "✓"
		}
		s.WriteString(fmt.Sprintf(" %s %s %s %s\n", check, marker, labelStyle.Render(orDash(field.Label)+":"), fieldValue(field)))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back • q: quit"))
	return s.String()
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.viewMode = ViewForms
	}
	return m, nil
}

func fieldValue(f models.FormField) string {
	switch f.Type {
	case models.FieldNumber:
		if f.Number != nil {
			return strconv.FormatFloat(*f.Number, 'f', -1, 64)
		}
	case models.FieldCheckbox:
		if f.Checked != nil {
			if *f.Checked {
				return "yes"
			}
			return "no"
		}
	case models.FieldSelect:
		if len(f.Selected) > 0 {
			return strings.Join(f.Selected, ", ")
		}
	case models.FieldFile:
		if len(f.Files) > 0 {
			return fmt.Sprintf("%d file(s)", len(f.Files))
		}
	default:
		if f.Text != nil && *f.Text != "" {
			return *f.Text
		}
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
