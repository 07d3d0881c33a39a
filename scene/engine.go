// ABOUTME: Interface of the rendering engine consumed by the forms core
// ABOUTME: Picking, camera flights, highlights, pick mode and dynamic marker objects
package scene

import (
	"context"

	"github.com/harperreed/formsync/models"
)

// PickResult is what the engine reports for a screen point.
type PickResult struct {
	Hit      bool
	ObjectID uint32
	Position models.Vec3
	Normal   models.Vec3
}

// Sphere is a bounding sphere the camera can be framed on.
type Sphere struct {
	Center models.Vec3
	Radius float64
}

// ScreenPoint is a 2D overlay position; Visible is false behind the camera.
type ScreenPoint struct {
	X, Y    float64
	Visible bool
}

// DynamicObject is one marker instance injected into the render state.
type DynamicObject struct {
	ObjectID uint32
	Mesh     string
	Position models.Vec3
	Rotation models.Quat
	Scale    float64
}

// ColorSet names a highlight group.
type ColorSet string

const (
	HighlightNew      ColorSet = "new"
	HighlightOngoing  ColorSet = "ongoing"
	HighlightFinished ColorSet = "finished"
	HighlightSelected ColorSet = "selected"
)

// ColorSetFor returns the highlight group of a workflow state.
func ColorSetFor(state models.WorkflowState) ColorSet {
	switch state {
	case models.StateOngoing:
		return HighlightOngoing
	case models.StateFinished:
		return HighlightFinished
	default:
		return HighlightNew
	}
}

// Engine is the rendering engine as seen by the forms core.
type Engine interface {
	Pick(ctx context.Context, x, y float64) (PickResult, error)
	FlyToPoint(ctx context.Context, point models.Vec3) error
	FlyToSphere(ctx context.Context, sphere Sphere) error
	SetHighlight(ctx context.Context, set ColorSet, ids []uint32) error
	SetPickMode(ctx context.Context, enabled bool) error
	RestoreVisibility(ctx context.Context) error
	ModifyRenderState(ctx context.Context, objects []DynamicObject) error
	ToMarkerPoints(world []models.Vec3) []ScreenPoint
}
