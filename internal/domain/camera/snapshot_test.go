package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewSnapshot_LaterDuplicateWins(t *testing.T) {
	snap := NewSnapshot([]CameraStatus{
		{CameraID: "CAM-1", Status: "offline"},
		{CameraID: "CAM-2", Status: "online"},
		{CameraID: "CAM-1", Status: "online"},
	})
	require.Len(t, snap, 2)
	c, ok := snap.Get("CAM-1")
	require.True(t, ok)
	assert.Equal(t, "online", c.Status)

	_, ok = snap.Get("CAM-9")
	assert.False(t, ok)
}

func TestSnapshotEqual(t *testing.T) {
	base := []CameraStatus{
		{CameraID: "CAM-1", Location: "Gate", Status: "online", Event: ptr("crash"), Confidence: ptr(0.9)},
		{CameraID: "CAM-2", Location: "Dock", Status: "offline"},
	}
	a := NewSnapshot(base)

	same := NewSnapshot([]CameraStatus{base[1], base[0].Clone()})
	assert.True(t, a.Equal(same), "order and pointer identity do not matter")

	changed := a.Clone()
	c := changed["CAM-1"]
	c.Confidence = ptr(0.8)
	changed["CAM-1"] = c
	assert.False(t, a.Equal(changed))

	cleared := a.Clone()
	c = cleared["CAM-1"]
	c.Event = nil
	cleared["CAM-1"] = c
	assert.False(t, a.Equal(cleared))

	assert.False(t, a.Equal(NewSnapshot(base[:1])))
	assert.True(t, Snapshot{}.Equal(nil))
}

func TestSnapshotClone_SharesNothing(t *testing.T) {
	a := NewSnapshot([]CameraStatus{{CameraID: "CAM-1", Video: ptr("videos/a.mp4")}})
	b := a.Clone()

	*b["CAM-1"].Video = "videos/b.mp4"
	delete(b, "CAM-1")

	require.Contains(t, a, "CAM-1")
	assert.Equal(t, "videos/a.mp4", *a["CAM-1"].Video)
}

func TestIsAlertEvent(t *testing.T) {
	assert.True(t, IsAlertEvent(ptr(EventViolence)))
	assert.True(t, IsAlertEvent(ptr(EventCrash)))
	assert.False(t, IsAlertEvent(ptr("motion")))
	assert.False(t, IsAlertEvent(nil))
}
