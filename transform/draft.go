// ABOUTME: Ephemeral transform draft for the location form being edited
// ABOUTME: Edits stay local until Commit sends the final value to the server
package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harperreed/formsync/models"
)

var (
	ErrNoDraft     = errors.New("no transform draft is open")
	ErrUnknownAxis = errors.New("unknown axis")
)

// Display precision.
const (
	LocationPlaces = 2
	ScalePlaces    = 3
	AnglePlaces    = 3
)

// Draft is the transform being edited for one location form.
type Draft struct {
	TemplateID string      `json:"templateId"`
	FormID     string      `json:"formId"`
	Location   models.Vec3 `json:"location"`
	Rotation   models.Quat `json:"rotation"`
	Scale      float64     `json:"scale"`
	Updated    bool        `json:"updated"`
}

// Apply writes the draft transform onto form.
func (d Draft) Apply(form *models.Form) {
	loc, rot, scale := d.Location, d.Rotation, d.Scale
	form.Location = &loc
	form.Rotation = &rot
	form.Scale = &scale
}

// View is the rounded representation shown in the editor.
type View struct {
	Location models.Vec3 `json:"location"`
	Rotation Euler       `json:"rotation"`
	Scale    float64     `json:"scale"`
}

// State is the lifecycle position of a Store.
type State int

const (
	Absent State = iota
	Initialized
	Dirty
	Committed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Dirty:
		return "dirty"
	case Committed:
		return "committed"
	default:
		return "absent"
	}
}

// Axis selects a position component.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Angle selects a rotation component.
type Angle string

const (
	Roll  Angle = "roll"
	Pitch Angle = "pitch"
	Yaw   Angle = "yaw"
)

// Committer persists a finished draft.
type Committer interface {
	CommitTransform(ctx context.Context, draft Draft) error
}

// Store holds at most one draft. It is kept apart from the synced forms
// model so that per keystroke edits do not touch it.
type Store struct {
	mu       sync.Mutex
	state    State
	draft    Draft
	original Draft
}

func NewStore() *Store {
	return &Store{}
}

// Open starts editing form, replacing any previous draft and its unsaved
// changes. A form without a transform starts at the origin with no
// rotation and unit scale.
func (s *Store) Open(templateID string, form models.Form) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Dirty {
		log.WithPrefix("transform").Debug("discarding unsaved draft", "form", s.draft.FormID)
	}

	d := Draft{
		TemplateID: templateID,
		FormID:     form.ID,
		Rotation:   models.IdentityQuat(),
		Scale:      1,
	}
	if form.Location != nil {
		d.Location = *form.Location
	}
	if form.Rotation != nil {
		d.Rotation = *form.Rotation
	}
	if form.Scale != nil {
		d.Scale = *form.Scale
	}

	s.draft = d
	s.original = d
	s.state = Initialized
	return d
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the open draft.
func (s *Store) Current() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Absent {
		return Draft{}, false
	}
	return s.draft, true
}

// IsEditing reports whether formID is the form with the open draft.
func (s *Store) IsEditing(formID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Absent && s.draft.FormID == formID
}

func (s *Store) edit(fn func(d *Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Absent {
		return ErrNoDraft
	}
	if err := fn(&s.draft); err != nil {
		return err
	}
	s.draft.Updated = true
	s.state = Dirty
	return nil
}

// SetAxis replaces one position component.
func (s *Store) SetAxis(axis Axis, value float64) error {
	return s.edit(func(d *Draft) error {
		switch axis {
		case AxisX:
			d.Location.X = value
		case AxisY:
			d.Location.Y = value
		case AxisZ:
			d.Location.Z = value
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
		}
		return nil
	})
}

// SetAngle replaces one rotation angle. The quaternion is rebuilt from all
// three angles rather than composed with the previous rotation.
func (s *Store) SetAngle(angle Angle, deg float64) error {
	deg = ClampAngle(deg)
	return s.edit(func(d *Draft) error {
		e := QuatToEuler(d.Rotation)
		switch angle {
		case Roll:
			e.Roll = deg
		case Pitch:
			e.Pitch = deg
		case Yaw:
			e.Yaw = deg
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAxis, angle)
		}
		d.Rotation = EulerToQuat(e)
		return nil
	})
}

// SetRotation replaces all three angles at once, composing the quaternion a
// single time.
func (s *Store) SetRotation(e Euler) error {
	e = Euler{Roll: ClampAngle(e.Roll), Pitch: ClampAngle(e.Pitch), Yaw: ClampAngle(e.Yaw)}
	return s.edit(func(d *Draft) error {
		d.Rotation = EulerToQuat(e)
		return nil
	})
}

func (s *Store) SetScale(v float64) error {
	return s.edit(func(d *Draft) error {
		d.Scale = v
		return nil
	})
}

// SetLocation moves the draft to a picked point.
func (s *Store) SetLocation(p models.Vec3) error {
	return s.edit(func(d *Draft) error {
		d.Location = p
		return nil
	})
}

// Reset restores the value captured when the draft was opened.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Absent {
		return ErrNoDraft
	}
	s.draft = s.original
	s.state = Initialized
	return nil
}

// Display derives the rounded editor values. The draft itself keeps full
// precision.
func (s *Store) Display() (View, error) {
	d, ok := s.Current()
	if !ok {
		return View{}, ErrNoDraft
	}
	e := QuatToEuler(d.Rotation)
	return View{
		Location: models.Vec3{
			X: Round(d.Location.X, LocationPlaces),
			Y: Round(d.Location.Y, LocationPlaces),
			Z: Round(d.Location.Z, LocationPlaces),
		},
		Rotation: Euler{
			Roll:  Round(e.Roll, AnglePlaces),
			Pitch: Round(e.Pitch, AnglePlaces),
			Yaw:   Round(e.Yaw, AnglePlaces),
		},
		Scale: Round(d.Scale, ScalePlaces),
	}, nil
}

// Commit sends the draft when it has changes. It reports whether a request
// was made. On failure the draft stays dirty.
func (s *Store) Commit(ctx context.Context, c Committer) (bool, error) {
	s.mu.Lock()
	if s.state != Dirty {
		s.mu.Unlock()
		return false, nil
	}
	d := s.draft
	s.mu.Unlock()

	if err := c.CommitTransform(ctx, d); err != nil {
		return true, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A draft opened or edited while the request was in flight wins.
	if s.state == Dirty && s.draft == d {
		s.draft.Updated = false
		s.original = s.draft
		s.state = Committed
	}
	return true, nil
}

// Close ends editing: the picker is stopped, pending changes are committed
// and the draft is dropped. The picker is stopped even when the commit fails.
func (s *Store) Close(ctx context.Context, c Committer, picker *Picker) error {
	var stopErr error
	if picker != nil {
		stopErr = picker.Stop(ctx)
	}
	_, err := s.Commit(ctx, c)
	if err == nil {
		s.Discard()
	}
	return errors.Join(err, stopErr)
}

// Discard drops the draft without saving.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Absent
	s.draft = Draft{}
	s.original = Draft{}
}
