// ABOUTME: Tests for the transform draft lifecycle
// ABOUTME: Covers defaults, precision, angle stability, commit and the picker
package transform

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/harperreed/formsync/models"
	"github.com/harperreed/formsync/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommitter struct {
	drafts []Draft
	err    error
}

func (c *recordingCommitter) CommitTransform(_ context.Context, d Draft) error {
	c.drafts = append(c.drafts, d)
	return c.err
}

func TestOpen_Defaults(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Absent, s.State())

	d := s.Open("tpl", models.Form{ID: "f1"})
	assert.Equal(t, Initialized, s.State())
	assert.Equal(t, models.Vec3{}, d.Location)
	assert.Equal(t, models.IdentityQuat(), d.Rotation)
	assert.Equal(t, 1.0, d.Scale)
	assert.False(t, d.Updated)
}

func TestOpen_SeedsFromForm(t *testing.T) {
	scale := 2.5
	form := models.Form{
		ID:       "f1",
		Location: &models.Vec3{X: 1, Y: 2, Z: 3},
		Rotation: &models.Quat{Z: math.Sin(math.Pi / 4), W: math.Cos(math.Pi / 4)},
		Scale:    &scale,
	}
	d := NewStore().Open("tpl", form)
	assert.Equal(t, *form.Location, d.Location)
	assert.Equal(t, *form.Rotation, d.Rotation)
	assert.Equal(t, 2.5, d.Scale)
}

func TestOpen_SupersedesPrevious(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, s.SetAxis(AxisX, 10))

	s.Open("tpl", models.Form{ID: "f2"})
	d, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "f2", d.FormID)
	assert.Zero(t, d.Location.X)
	assert.Equal(t, Initialized, s.State())
}

func TestEditsWithoutDraft(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.SetAxis(AxisX, 1), ErrNoDraft)
	assert.ErrorIs(t, s.SetAngle(Roll, 1), ErrNoDraft)
	assert.ErrorIs(t, s.Reset(), ErrNoDraft)
	_, err := s.Display()
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestSetAxis_UnknownAxis(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	assert.ErrorIs(t, s.SetAxis("w", 1), ErrUnknownAxis)
	assert.Equal(t, Initialized, s.State(), "failed edit does not dirty the draft")
}

func TestEulerRoundTrip(t *testing.T) {
	cases := []Euler{
		{},
		{Roll: 45},
		{Pitch: -30},
		{Yaw: 170},
		{Roll: 10, Pitch: 20, Yaw: 30},
		{Roll: -120, Pitch: 45, Yaw: -60},
	}
	for _, want := range cases {
		got := QuatToEuler(EulerToQuat(want))
		assert.InDelta(t, want.Roll, got.Roll, 1e-9)
		assert.InDelta(t, want.Pitch, got.Pitch, 1e-9)
		assert.InDelta(t, want.Yaw, got.Yaw, 1e-9)
	}
}

func TestRollStableOverRepeatedEdits(t *testing.T) {
	half := math.Pi / 8
	rot := models.Quat{X: math.Sin(half), W: math.Cos(half)}
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1", Location: &models.Vec3{}, Rotation: &rot})

	view, err := s.Display()
	require.NoError(t, err)
	require.Equal(t, 45.0, view.Rotation.Roll)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SetAngle(Roll, view.Rotation.Roll))
		view, err = s.Display()
		require.NoError(t, err)
	}
	assert.Equal(t, 45.0, view.Rotation.Roll)
	assert.Equal(t, 0.0, view.Rotation.Pitch)
	assert.Equal(t, 0.0, view.Rotation.Yaw)
}

func TestSetAngle_Clamped(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, s.SetAngle(Pitch, 400))

	assert.Equal(t, 180.0, ClampAngle(400))
	assert.Equal(t, -180.0, ClampAngle(-181))
	assert.Equal(t, 0.0, ClampAngle(math.NaN()))
}

func TestSetRotation_ComposesOnce(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, s.SetRotation(Euler{Roll: 30, Pitch: 120, Yaw: 400}))

	d, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, EulerToQuat(Euler{Roll: 30, Pitch: 120, Yaw: 180}), d.Rotation, "yaw is clamped before composing")
	assert.Equal(t, Dirty, s.State())

	s.Discard()
	assert.ErrorIs(t, s.SetRotation(Euler{}), ErrNoDraft)
}

func TestDisplay_RoundsWithoutLosingPrecision(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1", Location: &models.Vec3{X: 1.23456, Y: 2.34567, Z: 3.45678}})
	require.NoError(t, s.SetScale(1.23456))

	view, err := s.Display()
	require.NoError(t, err)
	assert.Equal(t, models.Vec3{X: 1.23, Y: 2.35, Z: 3.46}, view.Location)
	assert.Equal(t, 1.235, view.Scale)

	require.NoError(t, s.SetAxis(AxisX, 9))
	d, _ := s.Current()
	assert.Equal(t, 9.0, d.Location.X)
	assert.Equal(t, 2.34567, d.Location.Y, "untouched axes keep full precision")
	assert.Equal(t, 3.45678, d.Location.Z)
}

func TestReset_RestoresOriginal(t *testing.T) {
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1", Location: &models.Vec3{X: 1}})
	require.NoError(t, s.SetAxis(AxisX, 5))
	require.NoError(t, s.SetScale(3))

	require.NoError(t, s.Reset())
	d, _ := s.Current()
	assert.Equal(t, 1.0, d.Location.X)
	assert.Equal(t, 1.0, d.Scale)
	assert.False(t, d.Updated)
	assert.Equal(t, Initialized, s.State())
}

func TestCommit_OnlyWhenDirty(t *testing.T) {
	c := &recordingCommitter{}
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})

	sent, err := s.Commit(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, c.drafts)

	require.NoError(t, s.SetAxis(AxisZ, 4))
	sent, err = s.Commit(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, c.drafts, 1)
	assert.Equal(t, 4.0, c.drafts[0].Location.Z)
	assert.True(t, c.drafts[0].Updated)
	assert.Equal(t, Committed, s.State())

	sent, err = s.Commit(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, sent, "nothing changed since the last commit")
}

func TestCommit_FailureKeepsDraftDirty(t *testing.T) {
	c := &recordingCommitter{err: errors.New("server said no")}
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, s.SetScale(2))

	_, err := s.Commit(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, Dirty, s.State())
}

func TestClose_StopsPickerAndCommits(t *testing.T) {
	engine := scene.NewRecordingEngine()
	picker := NewPicker(engine)
	c := &recordingCommitter{}
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, picker.Start(context.Background()))
	require.True(t, engine.InPickMode())
	require.NoError(t, s.SetAxis(AxisY, 1))

	require.NoError(t, s.Close(context.Background(), c, picker))

	assert.False(t, engine.InPickMode())
	assert.Equal(t, 1, engine.Restores)
	assert.Len(t, c.drafts, 1)
	assert.Equal(t, Absent, s.State())
}

func TestClose_StopsPickerWhenCommitFails(t *testing.T) {
	engine := scene.NewRecordingEngine()
	picker := NewPicker(engine)
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, picker.Start(context.Background()))
	require.NoError(t, s.SetAxis(AxisY, 1))

	err := s.Close(context.Background(), &recordingCommitter{err: errors.New("boom")}, picker)
	require.Error(t, err)
	assert.False(t, engine.InPickMode())
	assert.Equal(t, Dirty, s.State())
}

type brokenEngine struct {
	*scene.RecordingEngine
}

func (e brokenEngine) SetPickMode(_ context.Context, enabled bool) error {
	if !enabled {
		return errors.New("pick mode stuck")
	}
	return nil
}

func (e brokenEngine) RestoreVisibility(context.Context) error {
	return errors.New("visibility lost")
}

func TestPickerStop_ReportsBothFailures(t *testing.T) {
	picker := NewPicker(brokenEngine{scene.NewRecordingEngine()})
	require.NoError(t, picker.Start(context.Background()))

	err := picker.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pick mode stuck")
	assert.Contains(t, err.Error(), "visibility lost")
	assert.False(t, picker.Active())
}

func TestPickLocation(t *testing.T) {
	engine := scene.NewRecordingEngine()
	engine.Picks = []scene.PickResult{
		{},
		{Hit: true, Position: models.Vec3{X: 3, Y: 4, Z: 5}},
	}
	picker := NewPicker(engine)
	s := NewStore()
	s.Open("tpl", models.Form{ID: "f1"})
	require.NoError(t, picker.Start(context.Background()))

	hit, err := picker.PickLocation(context.Background(), s, 1, 1)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, picker.Active(), "a miss keeps picking")

	hit, err = picker.PickLocation(context.Background(), s, 1, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.False(t, picker.Active())
	assert.Equal(t, 1, engine.Restores)

	d, _ := s.Current()
	assert.Equal(t, models.Vec3{X: 3, Y: 4, Z: 5}, d.Location)
	assert.Equal(t, Dirty, s.State())
}

func TestDraftApply(t *testing.T) {
	form := models.Form{ID: "f1"}
	d := Draft{Location: models.Vec3{X: 1}, Rotation: models.IdentityQuat(), Scale: 2}
	d.Apply(&form)
	require.True(t, form.HasTransform())
	assert.Equal(t, 2.0, *form.Scale)
}
