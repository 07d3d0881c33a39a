// ABOUTME: Tests for the scene session context
// ABOUTME: Verifies scene switches drop identifier caches
package scene

import (
	"context"
	"testing"

	"github.com/harperreed/formsync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticQuerier struct{}

func (staticQuerier) ObjectsByIDs(_ context.Context, ids []uint32) ([]models.FormObject, error) {
	out := make([]models.FormObject, len(ids))
	for i, id := range ids {
		out[i] = models.FormObject{ID: id, GUID: "g"}
	}
	return out, nil
}

func (staticQuerier) IDsByGUIDs(_ context.Context, guids []string) (map[string]uint32, error) {
	out := make(map[string]uint32)
	for i, g := range guids {
		out[g] = uint32(i + 1)
	}
	return out, nil
}

type noAssets struct{}

func (noAssets) FetchAssetIndex(context.Context) ([]string, error) { return []string{"pin.glb"}, nil }

func TestSessionSwitchResetsCache(t *testing.T) {
	s := NewSession("scene-a", NewRecordingEngine(), staticQuerier{}, noAssets{}, 0)

	_, err := s.Resolver.MapGUIDsToIDs(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = s.Catalog.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, s.Cache.IDsLen())

	s.Switch("scene-a")
	assert.Equal(t, 2, s.Cache.IDsLen(), "same scene keeps the cache")

	s.Switch("scene-b")
	assert.Equal(t, "scene-b", s.SceneID())
	assert.Zero(t, s.Cache.IDsLen())
	assert.Len(t, s.Catalog.Assets(), 1)
}

func TestColorSetFor(t *testing.T) {
	assert.Equal(t, HighlightNew, ColorSetFor(models.StateNew))
	assert.Equal(t, HighlightOngoing, ColorSetFor(models.StateOngoing))
	assert.Equal(t, HighlightFinished, ColorSetFor(models.StateFinished))
}

func TestRecordingEnginePicksInOrder(t *testing.T) {
	e := NewRecordingEngine()
	e.Picks = []PickResult{{Hit: true, ObjectID: 4}}

	res, err := e.Pick(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.True(t, res.Hit)

	res, err = e.Pick(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.False(t, res.Hit)
}
