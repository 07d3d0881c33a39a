// ABOUTME: Tests for the forms aggregate model
// ABOUTME: Covers filtering, template loading, the place gesture and marker ids
package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/formsync/assets"
	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/scene"
	"github.com/harperreed/formsync/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationTemplate(id string, forms ...models.Form) models.Template {
	return models.Template{
		ID:     id,
		Title:  "Hazard " + id,
		Type:   models.TemplateLocation,
		Marker: "pin.glb",
		Fields: []models.FormField{{ID: "f", Type: models.FieldText, Label: "Note", Required: true}},
		Forms:  forms,
	}
}

func placed(id string, state models.WorkflowState) models.Form {
	return models.Form{ID: id, Title: "Form " + id, State: state, Location: &models.Vec3{X: 1}}
}

func TestSelectTemplateResetsFilters(t *testing.T) {
	m := NewModel()
	f := m.Filters()
	f.Name = "crack"
	f.Toggle(models.StateFinished)
	m.SetFilters(f)

	m.SelectTemplate("t2")
	assert.Equal(t, "t2", m.CurrentFormsList())
	assert.Equal(t, DefaultFilters(), m.Filters())
}

func TestFilterForms(t *testing.T) {
	forms := []models.Form{
		{ID: "1", Title: "Crack in wall", State: models.StateNew},
		{ID: "2", Title: "Broken window", State: models.StateOngoing},
		{ID: "3", Title: "CRACK in floor", State: models.StateFinished},
	}
	m := NewModel()

	assert.Len(t, m.FilterForms(forms), 3)

	m.SetFilters(Filters{Name: "crack", New: true, Ongoing: true, Finished: true})
	got := m.FilterForms(forms)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	m.SetFilters(Filters{Name: "crack", Finished: true})
	got = m.FilterForms(forms)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
	assert.Len(t, forms, 3, "filtering does not mutate input")
}

func TestFilterTemplates(t *testing.T) {
	templates := []models.Template{
		{ID: "a", Title: "Search", Type: models.TemplateSearch},
		{ID: "b", Title: "Location", Type: models.TemplateLocation, State: models.TemplateState{Finished: 2}},
	}
	m := NewModel()
	f := DefaultFilters()
	f.Location = false
	m.SetTemplatesFilters(f)

	got := m.FilterTemplates(templates)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	m.SetTemplatesFilters(Filters{Search: true, Location: true, Finished: true})
	got = m.FilterTemplates(templates)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

type fakeSource struct {
	mu        sync.Mutex
	templates map[string]models.Template
	fail      map[string]bool
	block     bool
	started   chan struct{}
}

func (s *fakeSource) TemplateIDs(context.Context, string) ([]string, error) {
	var ids []string
	for id := range s.templates {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeSource) Template(ctx context.Context, _ string, id string) (*models.Template, error) {
	if s.block {
		s.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[id] {
		return nil, errors.New("503")
	}
	t := s.templates[id]
	return &t, nil
}

func TestLoadAllTemplates(t *testing.T) {
	src := &fakeSource{
		templates: map[string]models.Template{
			"a": locationTemplate("a", placed("1", models.StateNew), placed("2", models.StateFinished)),
			"b": locationTemplate("b", placed("3", models.StateOngoing)),
			"c": {ID: "c", Title: "Search", Type: models.TemplateSearch},
			"d": locationTemplate("d", placed("4", models.StateNew)),
		},
		fail: map[string]bool{"d": true},
	}
	m := NewModel()

	res, err := m.LoadAllTemplates(context.Background(), src, "p1")
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Loaded: 3, Failed: 1}, res)
	assert.Len(t, m.Templates(), 3)
	assert.Len(t, m.LocationForms(), 3)
}

func TestLoadAllTemplates_MergesAdditively(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew), placed("2", models.StateNew)))

	m.PutTemplate(locationTemplate("a", placed("2", models.StateFinished)))

	forms := m.TemplateLocationForms("a")
	require.Len(t, forms, 2, "forms missing from a later page are kept")
	assert.Equal(t, models.StateFinished, forms[1].State, "newer copy replaces the same form")
}

func TestLoadAllTemplates_Cancelled(t *testing.T) {
	src := &fakeSource{
		templates: map[string]models.Template{"a": {}, "b": {}},
		block:     true,
		started:   make(chan struct{}, 2),
	}
	m := NewModel()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := m.LoadAllTemplates(ctx, src, "p1")
		done <- err
	}()
	<-src.started
	<-src.started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not abort on cancellation")
	}
}

func TestPlace_CreatesWhenNothingSelected(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateOngoing)))
	m.SelectTemplate("a")
	drafts := transform.NewStore()

	res, err := m.Place(models.Vec3{X: 4, Y: 5}, drafts)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, models.StateNew, res.Form.State)
	assert.Equal(t, "Hazard a 2", res.Form.Title)
	assert.Len(t, m.LocationForms(), 2)
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, res.Ref, sel)
	assert.True(t, m.LocationForms()[1].Tentative)
}

func TestPlace_MovesSelected(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateOngoing)))
	m.SelectTemplate("a")
	require.NoError(t, m.Select(FormRef{TemplateID: "a", FormID: "1"}))
	drafts := transform.NewStore()

	res, err := m.Place(models.Vec3{X: 9, Y: 8, Z: 7}, drafts)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Len(t, m.LocationForms(), 1, "no form is created")
	d, ok := drafts.Current()
	require.True(t, ok)
	assert.Equal(t, models.Vec3{X: 9, Y: 8, Z: 7}, d.Location)
	assert.Equal(t, models.Vec3{X: 1}, *m.LocationForms()[0].Form.Location, "stored form is untouched until commit")
}

func TestPlace_Errors(t *testing.T) {
	m := NewModel()
	_, err := m.Place(models.Vec3{}, transform.NewStore())
	assert.ErrorIs(t, err, ErrNoTemplateSelected)

	m.PutTemplate(models.Template{ID: "s", Title: "S", Type: models.TemplateSearch})
	m.SelectTemplate("s")
	_, err = m.Place(models.Vec3{}, transform.NewStore())
	assert.ErrorIs(t, err, ErrNotLocationTemplate)
}

func TestPlace_SelectedWithoutDraftStore(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew)))
	m.SelectTemplate("a")
	require.NoError(t, m.Select(FormRef{TemplateID: "a", FormID: "1"}))

	_, err := m.Place(models.Vec3{X: 1}, nil)
	assert.ErrorIs(t, err, ErrNoDraftStore)
}

func TestConfirmAndRejectCreated(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a"))
	m.SelectTemplate("a")

	res, err := m.Place(models.Vec3{}, transform.NewStore())
	require.NoError(t, err)
	require.NoError(t, m.ConfirmCreated("a", res.Form.ID, "srv-1"))

	sel, _ := m.Selected()
	assert.Equal(t, "srv-1", sel.FormID)
	lf := m.LocationForms()
	require.Len(t, lf, 1)
	assert.Equal(t, "srv-1", lf[0].Form.ID)
	assert.False(t, lf[0].Tentative)

	m.Deselect()
	res, err = m.Place(models.Vec3{}, transform.NewStore())
	require.NoError(t, err)
	m.RejectCreated("a", res.Form.ID)
	assert.Len(t, m.LocationForms(), 1)
	_, ok := m.Selected()
	assert.False(t, ok)

	assert.ErrorIs(t, m.ConfirmCreated("a", "missing", "x"), ErrUnknownForm)
}

func TestDeleteTemplateClearsLocalState(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew)))
	m.PutTemplate(locationTemplate("b", placed("2", models.StateNew)))
	m.SelectTemplate("a")
	require.NoError(t, m.Select(FormRef{TemplateID: "a", FormID: "1"}))

	m.DeleteTemplate("a")

	_, ok := m.Template("a")
	assert.False(t, ok)
	assert.Len(t, m.LocationForms(), 1)
	assert.Empty(t, m.CurrentFormsList())
	_, ok = m.Selected()
	assert.False(t, ok)
}

func TestDeleteAllLocationForms(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew), placed("2", models.StateNew)))

	m.DeleteAllLocationForms("a")

	tpl, ok := m.Template("a")
	require.True(t, ok)
	assert.Empty(t, tpl.Forms)
	assert.Empty(t, m.LocationForms())
}

func TestUpdateFormFields(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew)))

	items := []models.FormItem{
		{ID: "f", Type: models.ItemInput, Title: "Note", Required: true, Value: []string{"done"}},
		{ID: "c", Type: models.ItemCheckbox, Title: "Options", Value: nil, Options: []string{"x"}},
	}
	form, err := m.UpdateFormFields(FormRef{TemplateID: "a", FormID: "1"}, items)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, form.State)
	assert.Equal(t, models.StateFinished, m.TemplateLocationForms("a")[0].State)

	_, err = m.UpdateFormFields(FormRef{TemplateID: "a", FormID: "nope"}, items)
	assert.ErrorIs(t, err, ErrUnknownForm)
}

func TestUpdateFormFields_ObjectForm(t *testing.T) {
	m := NewModel()
	m.PutTemplate(models.Template{ID: "s", Title: "S", Type: models.TemplateSearch})
	m.SetObjectForm("s", "guid-1", models.Form{ID: "o1", State: models.StateNew})

	form, err := m.UpdateFormFields(FormRef{TemplateID: "s", ObjectGUID: "guid-1"}, []models.FormItem{
		{ID: "q", Type: models.ItemInput, Title: "Q", Required: true, Value: []string{"yes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, form.State)

	stored, ok := m.ObjectForm("s", "guid-1")
	require.True(t, ok)
	assert.Equal(t, models.StateFinished, stored.State)
}

func TestCompletionCounts(t *testing.T) {
	m := NewModel()
	m.PutTemplate(locationTemplate("a",
		placed("1", models.StateNew),
		placed("2", models.StateFinished),
		placed("3", models.StateFinished),
	))
	m.PutTemplate(models.Template{ID: "s", Type: models.TemplateSearch, State: models.TemplateState{Ongoing: 4}})

	got, err := m.CompletionCounts("a")
	require.NoError(t, err)
	assert.Equal(t, models.TemplateState{New: 1, Finished: 2}, got)

	got, err = m.CompletionCounts("s")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Ongoing, "server counts when nothing is loaded")

	_, err = m.CompletionCounts("zzz")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

type assetIndex []string

func (a assetIndex) FetchAssetIndex(context.Context) ([]string, error) { return a, nil }

func TestMarkerObjectsAndReverseMapping(t *testing.T) {
	catalog := assets.NewCatalog(assetIndex{"cone.glb", "pin.glb"})
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew), placed("2", models.StateFinished)))
	require.NoError(t, m.Select(FormRef{TemplateID: "a", FormID: "2"}))

	pin, _, err := catalog.Lookup("pin.glb")
	require.NoError(t, err)

	objs := m.MarkerObjects(catalog, nil)
	require.Len(t, objs, 2)
	assert.Equal(t, pin.ObjectID(0, false), objs[0].ObjectID)
	assert.Equal(t, pin.ObjectID(1, true), objs[1].ObjectID)

	ref, ok := m.FormForObjectID(catalog, objs[1].ObjectID)
	require.True(t, ok)
	assert.Equal(t, "2", ref.FormID)

	_, ok = m.FormForObjectID(catalog, 42)
	assert.False(t, ok)

	hl := m.Highlights(catalog)
	assert.Equal(t, []uint32{pin.ObjectID(0, false)}, hl[scene.HighlightNew])
	assert.Equal(t, []uint32{pin.ObjectID(1, true)}, hl[scene.HighlightSelected])
}

func TestMarkerObjectsUseDraft(t *testing.T) {
	catalog := assets.NewCatalog(assetIndex{"pin.glb"})
	_, err := catalog.Load(context.Background())
	require.NoError(t, err)

	m := NewModel()
	m.PutTemplate(locationTemplate("a", placed("1", models.StateNew)))
	drafts := transform.NewStore()
	drafts.Open("a", m.TemplateLocationForms("a")[0])
	require.NoError(t, drafts.SetScale(3))

	objs := m.MarkerObjects(catalog, drafts)
	require.Len(t, objs, 1)
	assert.Equal(t, 3.0, objs[0].Scale)
	assert.Equal(t, models.Vec3{X: 1}, objs[0].Position)
}

func ExampleFilters_FormPasses() {
	f := DefaultFilters()
	f.Name = "wall"
	fmt.Println(f.FormPasses(models.Form{Title: "Crack in WALL", State: models.StateNew}))
	// Output: true
}
