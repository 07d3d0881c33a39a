// ABOUTME: In-memory forms API server for local development and client tests
// ABOUTME: Serves the template, form, object query and asset index endpoints over chi
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/workflow"
)

// AssetIndexPath is where the marker asset index is served.
const AssetIndexPath = "/assets/index.json"

type project struct {
	templates map[string]*models.Template
	order     []string
	objects   map[uint32]models.FormObject

	// objectForms[guid][formID]
	objectForms map[string]map[string]*models.Form
}

func newProject() *project {
	return &project{
		templates:   make(map[string]*models.Template),
		objects:     make(map[uint32]models.FormObject),
		objectForms: make(map[string]map[string]*models.Form),
	}
}

// Server holds every project in memory.
type Server struct {
	mu       sync.Mutex
	projects map[string]*project
	assets   []string
	failures map[string]int
	requests map[string]int
	logger   *log.Logger
}

func NewServer() *Server {
	return &Server{
		projects: make(map[string]*project),
		failures: make(map[string]int),
		requests: make(map[string]int),
		logger:   log.WithPrefix("web"),
	}
}

func (s *Server) project(id string) *project {
	p, ok := s.projects[id]
	if !ok {
		p = newProject()
		s.projects[id] = p
	}
	return p
}

// AddTemplate seeds a template. An empty id is assigned.
func (s *Server) AddTemplate(projectID string, t models.Template) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	p := s.project(projectID)
	if _, ok := p.templates[t.ID]; !ok {
		p.order = append(p.order, t.ID)
	}
	stored := t
	p.templates[t.ID] = &stored
	return t.ID
}

// AddObjects seeds scene objects for the object query endpoint.
func (s *Server) AddObjects(projectID string, objects ...models.FormObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(projectID)
	for _, o := range objects {
		p.objects[o.ID] = o
	}
}

// AddObjectForm attaches a form to a scene object.
func (s *Server) AddObjectForm(projectID, guid string, form models.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(projectID)
	if p.objectForms[guid] == nil {
		p.objectForms[guid] = make(map[string]*models.Form)
	}
	f := form
	p.objectForms[guid][form.ID] = &f
}

func (s *Server) SetAssets(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = append([]string(nil), names...)
}

// FailPath makes every request to path answer with status.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns how often a route was hit, e.g.
// "GET /projects/{projectId}/templates/ids".
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.injectFailures)

	r.Get(AssetIndexPath, s.handleAssetIndex)

	r.Route("/projects/{projectId}", func(r chi.Router) {
		r.Use(s.countRequests)

		r.Get("/templates/ids", s.handleTemplateIDs)
		r.Get("/templates/{templateId}", s.handleGetTemplate)
		r.Patch("/templates/{templateId}", s.handlePatchTemplate)
		r.Delete("/templates/{templateId}", s.handleDeleteTemplate)

		r.Post("/forms", s.handleCreateSearchTemplate)
		r.Post("/location", s.handleCreateLocationForm)
		r.Get("/location/{templateId}/{formId}", s.handleGetLocationForm)
		r.Patch("/location/{templateId}/{formId}", s.handlePatchLocationForm)
		r.Delete("/location/{templateId}/{formId}", s.handleDeleteLocationForm)

		r.Get("/objects/{objectGuid}/forms", s.handleObjectForms)
		r.Get("/objects/{objectGuid}/forms/{formId}", s.handleGetObjectForm)
		r.Patch("/objects/{objectGuid}/forms/{formId}", s.handlePatchObjectForm)
		r.Post("/objects/query", s.handleObjectQuery)
	})
	return r
}

// Start serves the API on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting forms API", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, fail := s.failures[r.URL.Path]
		s.mu.Unlock()
		if fail {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		s.mu.Lock()
		s.requests[r.Method+" "+pattern]++
		s.mu.Unlock()
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithPrefix("web").Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleAssetIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := append([]string{}, s.assets...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleTemplateIDs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(chi.URLParam(r, "projectId"))
	writeJSON(w, http.StatusOK, append([]string{}, p.order...))
}

func (s *Server) templateFor(w http.ResponseWriter, r *http.Request) (*project, *models.Template, bool) {
	p := s.project(chi.URLParam(r, "projectId"))
	t, ok := p.templates[chi.URLParam(r, "templateId")]
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return nil, nil, false
	}
	return p, t, true
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, t, ok := s.templateFor(w, r); ok {
		writeJSON(w, http.StatusOK, withState(*t))
	}
}

func (s *Server) handlePatchTemplate(w http.ResponseWriter, r *http.Request) {
	var update models.Template
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, ok := s.templateFor(w, r)
	if !ok {
		return
	}
	if err := t.ApplyUpdate(&update); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, models.ErrTemplateTypeImmutable) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, withState(*t))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, t, ok := s.templateFor(w, r)
	if !ok {
		return
	}
	delete(p.templates, t.ID)
	for i, id := range p.order {
		if id == t.ID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSearchTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if t.Type == "" {
		t.Type = models.TemplateSearch
	}
	now := models.Stamp{Timestamp: time.Now().UTC()}
	t.ID = ""
	t.CreatedOn, t.ModifiedOn = now, now

	// AddTemplate takes the lock.
	id := s.AddTemplate(chi.URLParam(r, "projectId"), t)
	writeJSON(w, http.StatusCreated, id)
}

type createLocationRequest struct {
	TemplateID string      `json:"templateId"`
	Form       models.Form `json:"form"`
}

func (s *Server) handleCreateLocationForm(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(chi.URLParam(r, "projectId"))
	t, ok := p.templates[req.TemplateID]
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	if t.Type != models.TemplateLocation {
		writeError(w, http.StatusBadRequest, "template is not a location template")
		return
	}

	form := req.Form
	form.ID = uuid.NewString()
	now := models.Stamp{Timestamp: time.Now().UTC()}
	form.CreatedOn, form.ModifiedOn = now, now
	form.Version = 1
	workflow.Recalculate(&form)
	t.Forms = append(t.Forms, form)
	writeJSON(w, http.StatusCreated, form.ID)
}

func (s *Server) locationFormFor(w http.ResponseWriter, r *http.Request) (*models.Template, int, bool) {
	_, t, ok := s.templateFor(w, r)
	if !ok {
		return nil, 0, false
	}
	formID := chi.URLParam(r, "formId")
	for i := range t.Forms {
		if t.Forms[i].ID == formID {
			return t, i, true
		}
	}
	writeError(w, http.StatusNotFound, "form not found")
	return nil, 0, false
}

func (s *Server) handleGetLocationForm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, i, ok := s.locationFormFor(w, r); ok {
		writeJSON(w, http.StatusOK, t.Forms[i])
	}
}

func (s *Server) handlePatchLocationForm(w http.ResponseWriter, r *http.Request) {
	var patch models.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, i, ok := s.locationFormFor(w, r)
	if !ok {
		return
	}
	if err := applyPatch(patch, &t.Forms[i]); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t.Forms[i])
}

func (s *Server) handleDeleteLocationForm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, i, ok := s.locationFormFor(w, r)
	if !ok {
		return
	}
	t.Forms = append(t.Forms[:i], t.Forms[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleObjectForms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(chi.URLParam(r, "projectId"))
	byID := p.objectForms[chi.URLParam(r, "objectGuid")]
	out := make([]models.Form, 0, len(byID))
	for _, f := range byID {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) objectFormFor(w http.ResponseWriter, r *http.Request) (*models.Form, bool) {
	p := s.project(chi.URLParam(r, "projectId"))
	f, ok := p.objectForms[chi.URLParam(r, "objectGuid")][chi.URLParam(r, "formId")]
	if !ok {
		writeError(w, http.StatusNotFound, "form not found")
		return nil, false
	}
	return f, true
}

func (s *Server) handleGetObjectForm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.objectFormFor(w, r); ok {
		writeJSON(w, http.StatusOK, f)
	}
}

func (s *Server) handlePatchObjectForm(w http.ResponseWriter, r *http.Request) {
	var patch models.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.objectFormFor(w, r)
	if !ok {
		return
	}
	if err := applyPatch(patch, f); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ObjectQuery is the body of the object query endpoint. Exactly one of the
// members is set.
type ObjectQuery struct {
	IDs   []uint32 `json:"ids,omitempty"`
	GUIDs []string `json:"guids,omitempty"`
}

func (s *Server) handleObjectQuery(w http.ResponseWriter, r *http.Request) {
	var q ObjectQuery
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.project(chi.URLParam(r, "projectId"))

	if len(q.GUIDs) > 0 {
		out := make(map[string]uint32)
		want := make(map[string]bool, len(q.GUIDs))
		for _, g := range q.GUIDs {
			want[g] = true
		}
		for id, o := range p.objects {
			if want[o.GUID] {
				out[o.GUID] = id
			}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out := make([]models.FormObject, 0, len(q.IDs))
	for _, id := range q.IDs {
		if o, ok := p.objects[id]; ok {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// applyPatch updates f in place. Field edits recompute the workflow state.
func applyPatch(p models.FormPatch, f *models.Form) error {
	if p.Fields != nil {
		if err := workflow.SetFields(f, *p.Fields); err != nil {
			return err
		}
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Location != nil {
		f.Location = p.Location
	}
	if p.Rotation != nil {
		f.Rotation = p.Rotation
	}
	if p.Scale != nil {
		f.Scale = p.Scale
	}
	if p.IsFinal != nil {
		f.IsFinal = *p.IsFinal
	}
	f.ModifiedOn = models.Stamp{Timestamp: time.Now().UTC()}
	f.Version++
	return nil
}

// withState fills in the per-state counts of a template.
func withState(t models.Template) models.Template {
	if t.Type == models.TemplateLocation {
		t.State = workflow.Summarize(t.Forms)
	}
	return t
}

