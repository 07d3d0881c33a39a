package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/formsync/models"
)

func (m Model) visibleTemplates() []models.Template {
	return m.forms.FilterTemplates(m.forms.Templates())
}

func (m Model) visibleForms() []models.Form {
	return m.forms.FilterForms(m.forms.CurrentForms())
}

func (m Model) renderTemplatesView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FORMS"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	templates := m.visibleTemplates()
	rows := make([]table.Row, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, table.Row{
			t.Title,
			string(t.State.Overall()),
			fmt.Sprintf("%d/%d/%d", t.State.New, t.State.Ongoing, t.State.Finished),
		})
	}
	s.WriteString(m.renderTable([]table.Column{
		{Title: "Template", Width: 40},
		{Title: "State", Width: 10},
		{Title: "N/O/F", Width: 12},
	}, rows))
	s.WriteString("\n\n")

	s.WriteString(m.renderFilterLine(m.forms.TemplatesFilters().Name))
	s.WriteString(helpStyle.Render("tab: switch kind • ↑/↓: navigate • enter: open • /: filter • q: quit"))
	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []struct {
		kind  models.TemplateType
		title string
	}{
		{models.TemplateLocation, "Location"},
		{models.TemplateSearch, "Search"},
	}

	var rendered []string
	for _, tab := range tabs {
		if tab.kind == m.kind {
			rendered = append(rendered, tabActiveStyle.Render(tab.title))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFormsView() string {
	var s strings.Builder

	title := "FORMS"
	if t, ok := m.forms.Template(m.forms.CurrentFormsList()); ok {
		title = strings.ToUpper(t.Title)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(m.renderToggles())
	s.WriteString("\n\n")

	visible := m.visibleForms()
	rows := make([]table.Row, 0, len(visible))
	for _, f := range visible {
		placed := ""
		if f.HasTransform() {
			placed = "placed"
		}
		rows = append(rows, table.Row{f.Title, string(f.State), placed})
	}
	s.WriteString(m.renderTable([]table.Column{
		{Title: "Form", Width: 40},
		{Title: "State", Width: 10},
		{Title: "", Width: 8},
	}, rows))
	s.WriteString("\n\n")

	s.WriteString(m.renderFilterLine(m.forms.Filters().Name))
	s.WriteString(helpStyle.Render("n/o/f: toggle states • enter: details • /: filter • esc: back • q: quit"))
	return s.String()
}

func (m Model) renderToggles() string {
	f := m.forms.Filters()
	toggles := []struct {
		on    bool
		title string
	}{
		{f.New, "[n] new"},
		{f.Ongoing, "[o] ongoing"},
		{f.Finished, "[f] finished"},
	}

	var rendered []string
	for _, t := range toggles {
		if t.on {
			rendered = append(rendered, tabActiveStyle.Render(t.title))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFilterLine(name string) string {
	if m.filtering {
		return m.filter.View() + "\n"
	}
	if name != "" {
		return helpStyle.Render("filter: "+name) + "\n"
	}
	return ""
}

func (m Model) renderTable(columns []table.Column, rows []table.Row) string {
	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) handleTemplatesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	templates := m.visibleTemplates()

	switch msg.String() {
	case "tab":
		if m.kind == models.TemplateLocation {
			m.kind = models.TemplateSearch
		} else {
			m.kind = models.TemplateLocation
		}
		m.applyKind()
		m.selectedRow = 0

	case "up", "k":
		m.moveCursor(-1, len(templates))

	case "down", "j":
		m.moveCursor(1, len(templates))

	case "/":
		m.filter.SetValue(m.forms.TemplatesFilters().Name)
		return m, m.startFilter()

	case "enter":
		if m.selectedRow < len(templates) {
			m.forms.SelectTemplate(templates[m.selectedRow].ID)
			m.viewMode = ViewForms
			m.selectedRow = 0
		}
	}
	return m, nil
}

func (m Model) handleFormsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleForms()

	key := msg.String()
	f := m.forms.Filters()
	if toggleState(&f, key) {
		m.forms.SetFilters(f)
		m.selectedRow = 0
		return m, nil
	}

	switch key {
	case "esc":
		m.viewMode = ViewTemplates
		m.selectedRow = 0

	case "up", "k":
		m.moveCursor(-1, len(visible))

	case "down", "j":
		m.moveCursor(1, len(visible))

	case "/":
		m.filter.SetValue(f.Name)
		return m, m.startFilter()

	case "enter":
		if m.selectedRow < len(visible) {
			m.detail = visible[m.selectedRow]
			m.viewMode = ViewDetail
		}
	}
	return m, nil
}
