// ABOUTME: Terminal user interface using the bubbletea framework
// ABOUTME: Browses templates and their forms with name, state and kind filters
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/formsync/forms"
	"github.com/harperreed/formsync/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewTemplates ViewMode = iota
	ViewForms
	ViewDetail
)

// Model is the main bubbletea model
type Model struct {
	forms    *forms.Model
	viewMode ViewMode

	// Template kind tab of the templates view.
	kind models.TemplateType

	selectedRow int
	filter      textinput.Model
	filtering   bool

	// Form shown in the detail view.
	detail models.Form

	width  int
	height int
}

// NewModel creates a TUI over a loaded forms model
func NewModel(fm *forms.Model) Model {
	filter := textinput.New()
	filter.Placeholder = "filter by name"
	filter.Prompt = "/ "

	m := Model{
		forms:    fm,
		viewMode: ViewTemplates,
		kind:     models.TemplateLocation,
		filter:   filter,
		width:    80,
		height:   24,
	}
	m.applyKind()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewTemplates:
		return m.renderTemplatesView()
	case ViewForms:
		return m.renderFormsView()
	case ViewDetail:
		return m.renderDetailView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewTemplates:
		return m.handleTemplatesKeys(msg)
	case ViewForms:
		return m.handleFormsKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	}
	return m, nil
}

// handleFilterKeys edits the name filter of the current list.
func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.setName(m.filter.Value())
	m.selectedRow = 0
	return m, cmd
}

func (m *Model) startFilter() tea.Cmd {
	m.filtering = true
	return m.filter.Focus()
}

func (m *Model) setName(name string) {
	if m.viewMode == ViewTemplates {
		f := m.forms.TemplatesFilters()
		f.Name = name
		m.forms.SetTemplatesFilters(f)
		return
	}
	f := m.forms.Filters()
	f.Name = name
	m.forms.SetFilters(f)
}

// applyKind shows only templates of the selected tab.
func (m *Model) applyKind() {
	f := m.forms.TemplatesFilters()
	f.Search = m.kind == models.TemplateSearch
	f.Location = m.kind == models.TemplateLocation
	m.forms.SetTemplatesFilters(f)
}

func (m *Model) moveCursor(delta, n int) {
	m.selectedRow += delta
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func toggleState(f *forms.Filters, key string) bool {
	switch key {
	case "n":
		f.Toggle(models.StateNew)
	case "o":
		f.Toggle(models.StateOngoing)
	case "f":
		f.Toggle(models.StateFinished)
	default:
		return false
	}
	return true
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	stateStyles = map[models.WorkflowState]lipgloss.Style{
		models.StateNew:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.StateOngoing:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StateFinished: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func renderState(s models.WorkflowState) string {
	if style, ok := stateStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}
