// ABOUTME: Data models for form templates, forms and the objects they attach to
// ABOUTME: Defines Template, Form, FormObject, history snapshots and workflow states
package models

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTemplateTypeImmutable = errors.New("template type cannot be changed after creation")
	ErrEmptyFields           = errors.New("template must define at least one field")
	ErrMissingTitle          = errors.New("template title is required")
	ErrFormFinal             = errors.New("form is final and cannot be edited")
)

// TemplateType tells how forms of a template are attached to the scene.
type TemplateType string

const (
	// TemplateSearch forms attach to queried objects identified by GUID.
	TemplateSearch TemplateType = "search"
	// TemplateLocation forms attach to a placed 3D point.
	TemplateLocation TemplateType = "location"
)

// WorkflowState is the completion state of a single form.
type WorkflowState string

const (
	StateNew      WorkflowState = "new"
	StateOngoing  WorkflowState = "ongoing"
	StateFinished WorkflowState = "finished"
)

// Valid reports whether s is one of the known workflow states.
func (s WorkflowState) Valid() bool {
	switch s {
	case StateNew, StateOngoing, StateFinished:
		return true
	}
	return false
}

// TemplateState aggregates the workflow states of every form of a template.
type TemplateState struct {
	New      int `json:"new"`
	Ongoing  int `json:"ongoing"`
	Finished int `json:"finished"`
}

// Add counts one form in the given state.
func (s *TemplateState) Add(state WorkflowState) {
	switch state {
	case StateOngoing:
		s.Ongoing++
	case StateFinished:
		s.Finished++
	default:
		s.New++
	}
}

// Total returns the number of counted forms.
func (s TemplateState) Total() int {
	return s.New + s.Ongoing + s.Finished
}

// Overall collapses the counts into a single state: new when nothing has been
// started, finished when every form is finished, ongoing otherwise.
func (s TemplateState) Overall() WorkflowState {
	switch {
	case s.Ongoing == 0 && s.Finished == 0:
		return StateNew
	case s.New == 0 && s.Ongoing == 0:
		return StateFinished
	default:
		return StateOngoing
	}
}

// Stamp records who touched an entity and when.
type Stamp struct {
	User      string    `json:"user,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PredicateOp joins predicates of a structured object query.
type PredicateOp string

const (
	OpAnd PredicateOp = "and"
	OpOr  PredicateOp = "or"
)

type Predicate struct {
	Field string      `json:"field"`
	Value string      `json:"value"`
	Op    PredicateOp `json:"op,omitempty"`
}

// ObjectQuery selects the objects of a search template. Either SearchPattern
// or Predicates is set.
type ObjectQuery struct {
	SearchPattern string      `json:"searchPattern,omitempty"`
	Predicates    []Predicate `json:"predicates,omitempty"`
}

// IsEmpty reports whether the query selects nothing.
func (q *ObjectQuery) IsEmpty() bool {
	return q == nil || (strings.TrimSpace(q.SearchPattern) == "" && len(q.Predicates) == 0)
}

// FormObject is a scene object a search form can be attached to.
type FormObject struct {
	ID       uint32 `json:"id"`
	GUID     string `json:"guid"`
	Position Vec3   `json:"position"`
	Name     string `json:"name"`
}

type Template struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Type       TemplateType  `json:"type"`
	Fields     []FormField   `json:"fields"`
	Readonly   bool          `json:"readonly,omitempty"`
	State      TemplateState `json:"state"`
	CreatedOn  Stamp         `json:"createdOn"`
	ModifiedOn Stamp         `json:"modifiedOn"`

	// Search templates only.
	Query   *ObjectQuery `json:"query,omitempty"`
	Objects []FormObject `json:"objects,omitempty"`

	// Location templates only.
	Marker string `json:"marker,omitempty"`
	Forms  []Form `json:"forms,omitempty"`
}

// Validate checks the template is complete enough to be saved.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrMissingTitle
	}
	if len(t.Fields) == 0 {
		return ErrEmptyFields
	}
	return nil
}

// ApplyUpdate copies the editable attributes of update onto t. The template
// type is fixed at creation.
func (t *Template) ApplyUpdate(update *Template) error {
	if update.Type != "" && update.Type != t.Type {
		return ErrTemplateTypeImmutable
	}
	if err := update.Validate(); err != nil {
		return err
	}
	t.Title = update.Title
	t.Fields = update.Fields
	t.Readonly = update.Readonly
	if t.Type == TemplateSearch && update.Query != nil {
		t.Query = update.Query
	}
	if t.Type == TemplateLocation && update.Marker != "" {
		t.Marker = update.Marker
	}
	t.ModifiedOn = Stamp{Timestamp: time.Now().UTC()}
	return nil
}

// Signature is a sign-off recorded on a form.
type Signature struct {
	Name     string    `json:"name"`
	SignedAt time.Time `json:"signedAt"`
}

type Form struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Fields     []FormField   `json:"fields"`
	State      WorkflowState `json:"state"`
	Location   *Vec3         `json:"location,omitempty"`
	Rotation   *Quat         `json:"rotation,omitempty"`
	Scale      *float64      `json:"scale,omitempty"`
	Signatures []Signature   `json:"signatures,omitempty"`
	IsFinal    bool          `json:"isFinal,omitempty"`
	CreatedOn  Stamp         `json:"createdOn"`
	ModifiedOn Stamp         `json:"modifiedOn"`
	Version    int           `json:"version,omitempty"`
}

// EditFields replaces the field values of the form unless it is final.
func (f *Form) EditFields(fields []FormField) error {
	if f.IsFinal {
		return ErrFormFinal
	}
	f.Fields = fields
	f.ModifiedOn = Stamp{Timestamp: time.Now().UTC()}
	return nil
}

// HasTransform reports whether the form carries a placed transform.
func (f *Form) HasTransform() bool {
	return f.Location != nil
}

// HistoryEntry is an immutable snapshot of a form keyed by server timestamp.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Form      Form      `json:"form"`
}
