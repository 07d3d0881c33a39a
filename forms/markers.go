// ABOUTME: Render objects and highlight groups for placed location forms
// ABOUTME: Marker object ids are allocated per asset and reverse-mapped on pick
package forms

import (
	"github.com/harperreed/formsync/assets"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/scene"
	"github.com/harperreed/formsync/transform"
)

type marker struct {
	ref      FormRef
	form     models.Form
	asset    assets.Asset
	objectID uint32
}

// markers walks placed forms in order, numbering them per asset. Forms of
// templates whose asset is not in the catalog are skipped. Caller holds mu.
func (m *Model) markers(catalog *assets.Catalog) []marker {
	perAsset := make(map[string]int)
	var out []marker
	for _, lf := range m.locationForms {
		t, ok := m.templates[lf.TemplateID]
		if !ok || t.Marker == "" {
			continue
		}
		asset, _, err := catalog.Lookup(t.Marker)
		if err != nil {
			continue
		}
		idx := perAsset[asset.Name]
		perAsset[asset.Name]++

		ref := FormRef{TemplateID: lf.TemplateID, FormID: lf.Form.ID}
		selected := m.selected != nil && *m.selected == ref
		out = append(out, marker{
			ref:      ref,
			form:     lf.Form,
			asset:    asset,
			objectID: asset.ObjectID(idx, selected),
		})
	}
	return out
}

// MarkerObjects builds the dynamic render objects of every placed form. The
// form being edited is drawn at its draft transform.
func (m *Model) MarkerObjects(catalog *assets.Catalog, drafts *transform.Store) []scene.DynamicObject {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var draft transform.Draft
	editing := false
	if drafts != nil {
		draft, editing = drafts.Current()
	}

	var out []scene.DynamicObject
	for _, mk := range m.markers(catalog) {
		isDraft := editing && draft.TemplateID == mk.ref.TemplateID && draft.FormID == mk.ref.FormID
		if !isDraft && !mk.form.HasTransform() {
			continue
		}
		obj := scene.DynamicObject{
			ObjectID: mk.objectID,
			Mesh:     mk.asset.Name,
			Rotation: models.IdentityQuat(),
			Scale:    1,
		}
		if isDraft {
			obj.Position, obj.Rotation, obj.Scale = draft.Location, draft.Rotation, draft.Scale
		} else {
			obj.Position = *mk.form.Location
			if mk.form.Rotation != nil {
				obj.Rotation = *mk.form.Rotation
			}
			if mk.form.Scale != nil {
				obj.Scale = *mk.form.Scale
			}
		}
		out = append(out, obj)
	}
	return out
}

// FormForObjectID maps a picked marker object id back to its form.
func (m *Model) FormForObjectID(catalog *assets.Catalog, objectID uint32) (FormRef, bool) {
	assetIdx, formIdx, _, ok := catalog.Decode(objectID)
	if !ok {
		return FormRef{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mk := range m.markers(catalog) {
		a, f, _, _ := assets.DecodeObjectID(mk.objectID)
		if a == assetIdx && f == formIdx {
			return mk.ref, true
		}
	}
	return FormRef{}, false
}

// Highlights groups the marker ids of forms passing the current filters by
// workflow state. The selected form is reported in its own group.
func (m *Model) Highlights(catalog *assets.Catalog) map[scene.ColorSet][]uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[scene.ColorSet][]uint32)
	for _, mk := range m.markers(catalog) {
		if m.selected != nil && *m.selected == mk.ref {
			out[scene.HighlightSelected] = append(out[scene.HighlightSelected], mk.objectID)
			continue
		}
		if !m.filters.FormPasses(mk.form) {
			continue
		}
		set := scene.ColorSetFor(mk.form.State)
		out[set] = append(out[set], mk.objectID)
	}
	return out
}
