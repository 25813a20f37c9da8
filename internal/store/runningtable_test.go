package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrev/compactcoord/internal/model"
)

func newTestRC(port int) *model.RunningCompaction {
	return model.NewRunningCompaction(
		model.Job{ExternalCompactionID: "id", Queue: "small", Priority: 1},
		"compactor:9997",
		tsi(port),
	)
}

func TestRunningTable_InsertAndGet(t *testing.T) {
	rt := NewRunningTable()
	rc := newTestRC(1)

	require.NoError(t, rt.Insert("ecid-1", rc))

	got, ok := rt.Get("ecid-1")
	require.True(t, ok)
	assert.Same(t, rc, got)
}

func TestRunningTable_InsertDuplicateFails(t *testing.T) {
	rt := NewRunningTable()
	require.NoError(t, rt.Insert("ecid-1", newTestRC(1)))

	err := rt.Insert("ecid-1", newTestRC(2))
	assert.Error(t, err)
}

func TestRunningTable_RemoveIf(t *testing.T) {
	rt := NewRunningTable()
	rc := newTestRC(1)
	require.NoError(t, rt.Insert("ecid-1", rc))

	other := newTestRC(2)
	assert.False(t, rt.RemoveIf("ecid-1", other))

	assert.True(t, rt.RemoveIf("ecid-1", rc))
	_, ok := rt.Get("ecid-1")
	assert.False(t, ok)
}

func TestRunningTable_ByTserver(t *testing.T) {
	rt := NewRunningTable()
	require.NoError(t, rt.Insert("ecid-1", newTestRC(1)))
	require.NoError(t, rt.Insert("ecid-2", newTestRC(1)))
	require.NoError(t, rt.Insert("ecid-3", newTestRC(2)))

	ids := rt.ByTserver(tsi(1))
	assert.ElementsMatch(t, []string{"ecid-1", "ecid-2"}, ids)
}
