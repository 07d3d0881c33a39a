// ABOUTME: The place gesture: move the selected form or create a new one
// ABOUTME: Locally created forms carry a tentative id until the server confirms them
package forms

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/transform"
)

// PlaceResult reports what a Place call did.
type PlaceResult struct {
	Created bool
	Ref     FormRef
	Form    models.Form
}

// Place handles a picked point. With a form selected, its draft is moved to
// point and no form is created. Otherwise a new form is inserted into the
// template being browsed with state new and selected.
func (m *Model) Place(point models.Vec3, drafts *transform.Store) (PlaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected != nil {
		ref := *m.selected
		i := m.locationIndex(ref.TemplateID, ref.FormID)
		if i < 0 {
			return PlaceResult{}, fmt.Errorf("%w: %s/%s", ErrUnknownForm, ref.TemplateID, ref.FormID)
		}
		if drafts == nil {
			return PlaceResult{}, ErrNoDraftStore
		}
		if !drafts.IsEditing(ref.FormID) {
			drafts.Open(ref.TemplateID, m.locationForms[i].Form)
		}
		if err := drafts.SetLocation(point); err != nil {
			return PlaceResult{}, err
		}
		return PlaceResult{Ref: ref, Form: m.locationForms[i].Form}, nil
	}

	templateID := m.currentFormsList
	if templateID == "" {
		return PlaceResult{}, ErrNoTemplateSelected
	}
	t, ok := m.templates[templateID]
	if !ok {
		return PlaceResult{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	if t.Type != models.TemplateLocation {
		return PlaceResult{}, ErrNotLocationTemplate
	}

	now := models.Stamp{Timestamp: time.Now().UTC()}
	loc := point
	form := models.Form{
		ID:         ulid.Make().String(),
		Title:      fmt.Sprintf("%s %d", t.Title, len(m.templateLocationForms(templateID))+1),
		Fields:     append([]models.FormField(nil), t.Fields...),
		State:      models.StateNew,
		Location:   &loc,
		CreatedOn:  now,
		ModifiedOn: now,
	}
	m.locationForms = append(m.locationForms, LocationForm{TemplateID: templateID, Form: form, Tentative: true})

	ref := FormRef{TemplateID: templateID, FormID: form.ID}
	m.selected = &ref
	return PlaceResult{Created: true, Ref: ref, Form: form}, nil
}

// ConfirmCreated replaces a tentative id with the id assigned by the server.
func (m *Model) ConfirmCreated(templateID, tentativeID, serverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.locationIndex(templateID, tentativeID)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownForm, templateID, tentativeID)
	}
	// The server copy may already have been merged in by a refetch.
	if j := m.locationIndex(templateID, serverID); j >= 0 && j != i {
		m.locationForms = append(m.locationForms[:i], m.locationForms[i+1:]...)
	} else {
		m.locationForms[i].Form.ID = serverID
		m.locationForms[i].Tentative = false
	}
	if m.selected != nil && m.selected.TemplateID == templateID && m.selected.FormID == tentativeID {
		m.selected.FormID = serverID
	}
	return nil
}

// RejectCreated removes a tentative form whose creation failed.
func (m *Model) RejectCreated(templateID, tentativeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.locationIndex(templateID, tentativeID); i >= 0 && m.locationForms[i].Tentative {
		m.locationForms = append(m.locationForms[:i], m.locationForms[i+1:]...)
	}
	if m.selected != nil && m.selected.TemplateID == templateID && m.selected.FormID == tentativeID {
		m.selected = nil
	}
}
