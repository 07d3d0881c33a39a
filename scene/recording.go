// ABOUTME: In-memory Engine that records every call
// ABOUTME: Used by tests and by the CLI when no renderer is attached
package scene

import (
	"context"
	"sync"

	"github.com/harperreed/formsync/models"
)

// RecordingEngine implements Engine without rendering anything.
type RecordingEngine struct {
	mu sync.Mutex

	// Picks are returned in order by Pick; a miss is returned once exhausted.
	Picks []PickResult

	PickMode   bool
	Restores   int
	Flights    []models.Vec3
	Highlights map[ColorSet][]uint32
	Dynamic    []DynamicObject
}

func NewRecordingEngine() *RecordingEngine {
	return &RecordingEngine{Highlights: make(map[ColorSet][]uint32)}
}

func (e *RecordingEngine) Pick(_ context.Context, _, _ float64) (PickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Picks) == 0 {
		return PickResult{}, nil
	}
	res := e.Picks[0]
	e.Picks = e.Picks[1:]
	return res, nil
}

func (e *RecordingEngine) FlyToPoint(_ context.Context, point models.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Flights = append(e.Flights, point)
	return nil
}

func (e *RecordingEngine) FlyToSphere(_ context.Context, sphere Sphere) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Flights = append(e.Flights, sphere.Center)
	return nil
}

func (e *RecordingEngine) SetHighlight(_ context.Context, set ColorSet, ids []uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Highlights[set] = append([]uint32(nil), ids...)
	return nil
}

func (e *RecordingEngine) SetPickMode(_ context.Context, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PickMode = enabled
	return nil
}

func (e *RecordingEngine) RestoreVisibility(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Restores++
	return nil
}

func (e *RecordingEngine) ModifyRenderState(_ context.Context, objects []DynamicObject) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Dynamic = append([]DynamicObject(nil), objects...)
	return nil
}

// ToMarkerPoints projects straight down onto the XY plane.
func (e *RecordingEngine) ToMarkerPoints(world []models.Vec3) []ScreenPoint {
	out := make([]ScreenPoint, len(world))
	for i, p := range world {
		out[i] = ScreenPoint{X: p.X, Y: p.Y, Visible: true}
	}
	return out
}

// InPickMode reports whether the scene is currently in pick mode.
func (e *RecordingEngine) InPickMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.PickMode
}
