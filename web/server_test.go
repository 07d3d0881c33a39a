// ABOUTME: Tests for the in-memory forms API server
// ABOUTME: Drives the chi router through httptest with the demo seed
package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/formsync/models"
)

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func demoServer() (*Server, http.Handler) {
	s := NewServer()
	s.Load("p1", DemoSeed())
	return s, s.Handler()
}

func TestTemplateIDsAndCounting(t *testing.T) {
	s, h := demoServer()

	rec := do(t, h, http.MethodGet, "/projects/p1/templates/ids", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, []string{"hazards", "pump-audit"}, ids)

	do(t, h, http.MethodGet, "/projects/p1/templates/ids", nil)
	assert.Equal(t, 2, s.Requests("GET /projects/{projectId}/templates/ids"))
}

func TestGetTemplateSummarisesState(t *testing.T) {
	_, h := demoServer()

	rec := do(t, h, http.MethodGet, "/projects/p1/templates/hazards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tpl models.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tpl))
	assert.Equal(t, models.TemplateState{New: 1, Ongoing: 1}, tpl.State)

	rec = do(t, h, http.MethodGet, "/projects/p1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchTemplateTypeIsImmutable(t *testing.T) {
	_, h := demoServer()
	update := models.Template{Title: "Renamed", Type: models.TemplateSearch, Fields: []models.FormField{{ID: "a", Type: models.FieldText}}}

	rec := do(t, h, http.MethodPatch, "/projects/p1/templates/hazards", update)
	assert.Equal(t, http.StatusConflict, rec.Code)

	update.Type = ""
	rec = do(t, h, http.MethodPatch, "/projects/p1/templates/hazards", update)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Renamed")
}

func TestLocationFormLifecycle(t *testing.T) {
	_, h := demoServer()

	desc := "new hazard"
	rec := do(t, h, http.MethodPost, "/projects/p1/location", createLocationRequest{
		TemplateID: "hazards",
		Form:       models.Form{Title: "Spill", Fields: []models.FormField{{ID: "desc", Type: models.FieldText, Required: true, Text: &desc}}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var id string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &id))
	require.NotEmpty(t, id)

	rec = do(t, h, http.MethodGet, "/projects/p1/location/hazards/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var form models.Form
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
	assert.Equal(t, models.StateFinished, form.State)
	assert.Equal(t, 1, form.Version)

	title := "Oil spill"
	rec = do(t, h, http.MethodPatch, "/projects/p1/location/hazards/"+id, models.FormPatch{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &form))
	assert.Equal(t, "Oil spill", form.Title)
	assert.Equal(t, 2, form.Version)

	rec = do(t, h, http.MethodDelete, "/projects/p1/location/hazards/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/projects/p1/location/hazards/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/projects/p1/location", createLocationRequest{TemplateID: "pump-audit"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObjectQuery(t *testing.T) {
	_, h := demoServer()

	rec := do(t, h, http.MethodPost, "/projects/p1/objects/query", ObjectQuery{IDs: []uint32{101, 999}})
	require.Equal(t, http.StatusOK, rec.Code)
	var objects []models.FormObject
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, "pump-1", objects[0].GUID)

	rec = do(t, h, http.MethodPost, "/projects/p1/objects/query", ObjectQuery{GUIDs: []string{"pump-2", "ghost"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var ids map[string]uint32
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	assert.Equal(t, map[string]uint32{"pump-2": 102}, ids)
}

func TestObjectFormsAndFinal(t *testing.T) {
	_, h := demoServer()

	rec := do(t, h, http.MethodGet, "/projects/p1/objects/pump-1/forms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Form
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	final := true
	rec = do(t, h, http.MethodPatch, "/projects/p1/objects/pump-1/forms/audit-1", models.FormPatch{IsFinal: &final})
	require.Equal(t, http.StatusOK, rec.Code)

	fields := []models.FormField{}
	rec = do(t, h, http.MethodPatch, "/projects/p1/objects/pump-1/forms/audit-1", models.FormPatch{Fields: &fields})
	assert.Equal(t, http.StatusConflict, rec.Code, "final forms reject field edits")
}

func TestFailPathAndAssets(t *testing.T) {
	s, h := demoServer()

	rec := do(t, h, http.MethodGet, AssetIndexPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warning-sign.glb")

	s.FailPath("/projects/p1/templates/hazards", http.StatusServiceUnavailable)
	rec = do(t, h, http.MethodGet, "/projects/p1/templates/hazards", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	data, err := json.Marshal(DemoSeed())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	seed, err := ReadSeed(path)
	require.NoError(t, err)
	assert.Len(t, seed.Templates, 2)
	assert.Len(t, seed.ObjectForms["pump-1"], 1)

	_, err = ReadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
