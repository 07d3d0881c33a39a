// ABOUTME: Aggregate client state for templates, location forms, selection and filters
// ABOUTME: Every mutation goes through the Model so list views and markers stay consistent
package forms

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/codec"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/workflow"
)

var (
	ErrUnknownTemplate     = errors.New("unknown template")
	ErrUnknownForm         = errors.New("unknown form")
	ErrNoTemplateSelected  = errors.New("no template selected")
	ErrNotLocationTemplate = errors.New("template is not a location template")
	ErrNoDraftStore        = errors.New("moving a selected form needs a draft store")
)

// FormRef identifies a form. ObjectGUID is set for forms attached to a
// scene object by a search template.
type FormRef struct {
	TemplateID string `json:"templateId"`
	FormID     string `json:"formId"`
	ObjectGUID string `json:"objectGuid,omitempty"`
}

// LocationForm is a placed form together with its template. Tentative forms
// were created locally and have not been confirmed by the server.
type LocationForm struct {
	TemplateID string      `json:"templateId"`
	Form       models.Form `json:"form"`
	Tentative  bool        `json:"tentative,omitempty"`
}

// Model is the client side aggregate of templates and forms.
type Model struct {
	mu sync.RWMutex

	currentFormsList string
	selected         *FormRef
	filters          Filters
	templatesFilters Filters

	templates     map[string]*models.Template
	locationForms []LocationForm

	// objectForms[templateID][guid] holds forms of search templates.
	objectForms map[string]map[string]*models.Form

	logger *log.Logger
}

func NewModel() *Model {
	return &Model{
		filters:          DefaultFilters(),
		templatesFilters: DefaultFilters(),
		templates:        make(map[string]*models.Template),
		objectForms:      make(map[string]map[string]*models.Form),
		logger:           log.WithPrefix("forms"),
	}
}

// CurrentFormsList returns the template being browsed, or "".
func (m *Model) CurrentFormsList() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentFormsList
}

// SelectTemplate browses a template and resets the form filters so that
// toggles from another template do not carry over.
func (m *Model) SelectTemplate(templateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentFormsList = templateID
	m.filters = DefaultFilters()
}

func (m *Model) Filters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters
}

func (m *Model) SetFilters(f Filters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = f
}

func (m *Model) ResetFilters() {
	m.SetFilters(DefaultFilters())
}

func (m *Model) TemplatesFilters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templatesFilters
}

func (m *Model) SetTemplatesFilters(f Filters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templatesFilters = f
}

// Selected returns the form open for detail editing.
func (m *Model) Selected() (FormRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selected == nil {
		return FormRef{}, false
	}
	return *m.selected, true
}

// Select opens a location form. It must already be loaded.
func (m *Model) Select(ref FormRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locationIndex(ref.TemplateID, ref.FormID) < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownForm, ref.TemplateID, ref.FormID)
	}
	r := ref
	m.selected = &r
	return nil
}

func (m *Model) Deselect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
}

// PutTemplate stores or replaces a template. Forms of a location template
// are merged into the location forms.
func (m *Model) PutTemplate(t models.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putTemplate(t)
}

func (m *Model) putTemplate(t models.Template) {
	stored := t
	m.templates[t.ID] = &stored
	if t.Type == models.TemplateLocation {
		m.mergeLocationForms(t.ID, t.Forms)
	}
}

// mergeLocationForms adds or replaces forms by template and form id. Forms
// already held that are not in forms are kept.
func (m *Model) mergeLocationForms(templateID string, forms []models.Form) {
	for _, form := range forms {
		if i := m.locationIndex(templateID, form.ID); i >= 0 {
			m.locationForms[i].Form = form
			m.locationForms[i].Tentative = false
			continue
		}
		m.locationForms = append(m.locationForms, LocationForm{TemplateID: templateID, Form: form})
	}
}

func (m *Model) locationIndex(templateID, formID string) int {
	for i, lf := range m.locationForms {
		if lf.TemplateID == templateID && lf.Form.ID == formID {
			return i
		}
	}
	return -1
}

// Template returns a copy of a stored template.
func (m *Model) Template(id string) (models.Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return models.Template{}, false
	}
	return *t, true
}

// Templates returns all stored templates ordered by title.
func (m *Model) Templates() []models.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// FilterTemplates applies the template list filters.
func (m *Model) FilterTemplates(templates []models.Template) []models.Template {
	return m.TemplatesFilters().ApplyTemplates(templates)
}

// FilterForms applies the form list filters.
func (m *Model) FilterForms(forms []models.Form) []models.Form {
	return m.Filters().ApplyForms(forms)
}

// FormPasses applies the form list filters to one form.
func (m *Model) FormPasses(form models.Form) bool {
	return m.Filters().FormPasses(form)
}

// LocationForms returns a copy of all placed forms.
func (m *Model) LocationForms() []LocationForm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]LocationForm(nil), m.locationForms...)
}

// TemplateLocationForms returns the placed forms of one template in load order.
func (m *Model) TemplateLocationForms(templateID string) []models.Form {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.templateLocationForms(templateID)
}

func (m *Model) templateLocationForms(templateID string) []models.Form {
	var out []models.Form
	for _, lf := range m.locationForms {
		if lf.TemplateID == templateID {
			out = append(out, lf.Form)
		}
	}
	return out
}

// SetObjectForm stores the form a search template keeps for an object.
func (m *Model) SetObjectForm(templateID, guid string, form models.Form) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byGUID, ok := m.objectForms[templateID]
	if !ok {
		byGUID = make(map[string]*models.Form)
		m.objectForms[templateID] = byGUID
	}
	f := form
	byGUID[guid] = &f
}

// ObjectForm returns the form of templateID attached to guid.
func (m *Model) ObjectForm(templateID, guid string) (models.Form, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.objectForms[templateID][guid]
	if !ok {
		return models.Form{}, false
	}
	return *f, true
}

// CurrentForms returns the forms of the template being browsed.
func (m *Model) CurrentForms() []models.Form {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id := m.currentFormsList
	t, ok := m.templates[id]
	if !ok {
		return nil
	}
	if t.Type == models.TemplateLocation {
		return m.templateLocationForms(id)
	}
	guids := make([]string, 0, len(m.objectForms[id]))
	for guid := range m.objectForms[id] {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	out := make([]models.Form, 0, len(guids))
	for _, guid := range guids {
		out = append(out, *m.objectForms[id][guid])
	}
	return out
}

// CompletionCounts counts the loaded forms of a template per state. When no
// forms are loaded the server provided counts are returned.
func (m *Model) CompletionCounts(templateID string) (models.TemplateState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[templateID]
	if !ok {
		return models.TemplateState{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}

	var forms []models.Form
	if t.Type == models.TemplateLocation {
		forms = m.templateLocationForms(templateID)
	} else {
		for _, f := range m.objectForms[templateID] {
			forms = append(forms, *f)
		}
	}
	if len(forms) == 0 {
		return t.State, nil
	}
	return workflow.Summarize(forms), nil
}

// UpdateFormFields applies edited items to a form and recomputes its state
// locally. The updated form is returned for saving.
func (m *Model) UpdateFormFields(ref FormRef, items []models.FormItem) (models.Form, error) {
	fields, err := codec.ToFormFields(items)
	if err != nil {
		return models.Form{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	form, err := m.lookupForm(ref)
	if err != nil {
		return models.Form{}, err
	}
	if err := workflow.SetFields(form, fields); err != nil {
		return models.Form{}, err
	}
	return *form, nil
}

func (m *Model) lookupForm(ref FormRef) (*models.Form, error) {
	if ref.ObjectGUID != "" {
		if f, ok := m.objectForms[ref.TemplateID][ref.ObjectGUID]; ok && (ref.FormID == "" || f.ID == ref.FormID) {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownForm, ref.TemplateID, ref.ObjectGUID)
	}
	if i := m.locationIndex(ref.TemplateID, ref.FormID); i >= 0 {
		return &m.locationForms[i].Form, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownForm, ref.TemplateID, ref.FormID)
}

// DeleteTemplate drops a template and every local form belonging to it.
func (m *Model) DeleteTemplate(templateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, templateID)
	delete(m.objectForms, templateID)
	m.dropLocationForms(templateID)
	if m.currentFormsList == templateID {
		m.currentFormsList = ""
	}
}

// DeleteAllLocationForms drops the placed forms of a template and keeps the
// template itself.
func (m *Model) DeleteAllLocationForms(templateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.templates[templateID]; ok {
		t.Forms = nil
	}
	m.dropLocationForms(templateID)
}

func (m *Model) dropLocationForms(templateID string) {
	kept := m.locationForms[:0]
	for _, lf := range m.locationForms {
		if lf.TemplateID != templateID {
			kept = append(kept, lf)
		}
	}
	m.locationForms = kept
	if m.selected != nil && m.selected.TemplateID == templateID {
		m.selected = nil
	}
}
