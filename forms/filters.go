// ABOUTME: Name and toggle filters applied to form and template lists
// ABOUTME: Filtering never mutates the stored forms
package forms

import (
	"strings"

	"github.com/harperreed/formsync/models"
)

// Filters is a free text name filter plus one toggle per workflow state and
// per template kind.
type Filters struct {
	Name     string `json:"name"`
	New      bool   `json:"new"`
	Ongoing  bool   `json:"ongoing"`
	Finished bool   `json:"finished"`
	Search   bool   `json:"search"`
	Location bool   `json:"location"`
}

// DefaultFilters shows everything.
func DefaultFilters() Filters {
	return Filters{New: true, Ongoing: true, Finished: true, Search: true, Location: true}
}

// StateEnabled reports whether forms in state s are shown.
func (f Filters) StateEnabled(s models.WorkflowState) bool {
	switch s {
	case models.StateNew:
		return f.New
	case models.StateOngoing:
		return f.Ongoing
	case models.StateFinished:
		return f.Finished
	default:
		return false
	}
}

// KindEnabled reports whether templates of kind t are shown.
func (f Filters) KindEnabled(t models.TemplateType) bool {
	switch t {
	case models.TemplateSearch:
		return f.Search
	case models.TemplateLocation:
		return f.Location
	default:
		return false
	}
}

// Toggle flips the state toggle for s.
func (f *Filters) Toggle(s models.WorkflowState) {
	switch s {
	case models.StateNew:
		f.New = !f.New
	case models.StateOngoing:
		f.Ongoing = !f.Ongoing
	case models.StateFinished:
		f.Finished = !f.Finished
	}
}

func (f Filters) nameMatches(title string) bool {
	if f.Name == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(f.Name))
}

// FormPasses applies f to a single form.
func (f Filters) FormPasses(form models.Form) bool {
	return f.StateEnabled(form.State) && f.nameMatches(form.Title)
}

// TemplatePasses applies f to a template using its aggregate state.
func (f Filters) TemplatePasses(t models.Template) bool {
	return f.KindEnabled(t.Type) && f.StateEnabled(t.State.Overall()) && f.nameMatches(t.Title)
}

// ApplyForms returns the forms passing f, in order.
func (f Filters) ApplyForms(forms []models.Form) []models.Form {
	out := make([]models.Form, 0, len(forms))
	for _, form := range forms {
		if f.FormPasses(form) {
			out = append(out, form)
		}
	}
	return out
}

// ApplyTemplates returns the templates passing f, in order.
func (f Filters) ApplyTemplates(templates []models.Template) []models.Template {
	out := make([]models.Template, 0, len(templates))
	for _, t := range templates {
		if f.TemplatePasses(t) {
			out = append(out, t)
		}
	}
	return out
}
