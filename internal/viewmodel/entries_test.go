package viewmodel

import (
	"testing"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string   { return &s }
func f64p(v float64) *float64 { return &v }

func TestBuildViewEntries_RosterOverSnapshot(t *testing.T) {
	snap := camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Location: "Main St", Status: "online", Event: strp("violence"), Video: strp("clip.mp4"), Confidence: f64p(0.92)},
		{CameraID: "CAM-9", Location: "Dock", Status: "online"},
	})

	got := BuildViewEntries([]string{"CAM-1", "CAM-2"}, snap)
	require.Len(t, got, 2)

	assert.Equal(t, camera.ViewEntry{
		ID:         "CAM-1",
		Name:       "Main St",
		Location:   "Main St",
		Status:     "online",
		HasAlert:   true,
		AlertType:  strp("violence"),
		VideoURL:   "/videos/clip.mp4",
		Confidence: f64p(0.92),
	}, got[0])

	assert.Equal(t, camera.ViewEntry{
		ID:       "CAM-2",
		Name:     "CAM-2",
		Location: "Unknown",
		Status:   "offline",
	}, got[1])
}

func TestBuildViewEntries_OrderAndExtras(t *testing.T) {
	snap := camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-604", Status: "online"},
		{CameraID: "CAM-042", Status: "maintenance"},
		{CameraID: "CAM-999", Status: "online"},
	})

	got := BuildViewEntries(DefaultRoster, snap)
	require.Len(t, got, len(DefaultRoster))
	for i, id := range DefaultRoster {
		assert.Equal(t, id, got[i].ID)
	}
	assert.Equal(t, "maintenance", got[0].Status)
	assert.Equal(t, "online", got[len(got)-1].Status)
}

func TestBuildViewEntries_EmptySnapshot(t *testing.T) {
	got := BuildViewEntries(DefaultRoster, camera.Snapshot{})
	require.Len(t, got, 12)
	for _, e := range got {
		assert.Equal(t, "offline", e.Status)
		assert.False(t, e.HasAlert)
		assert.Empty(t, e.VideoURL)
	}
}

func TestEntry_NonAlertEventKeepsType(t *testing.T) {
	snap := camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Status: "online", Event: strp("loitering")},
	})
	e := Builder{}.Entry("CAM-1", snap)
	assert.False(t, e.HasAlert)
	require.NotNil(t, e.AlertType)
	assert.Equal(t, "loitering", *e.AlertType)
	assert.Equal(t, "Unknown", e.Location)
	assert.Equal(t, "CAM-1", e.Name)
}

func TestEntry_DoesNotAliasSnapshot(t *testing.T) {
	snap := camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Status: "online", Event: strp("crash")},
	})
	e := Builder{}.Entry("CAM-1", snap)
	*e.AlertType = "changed"
	assert.Equal(t, "crash", *snap["CAM-1"].Event)
}

func TestBuilder_VideoBase(t *testing.T) {
	snap := camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Status: "online", Video: strp(`\videos\CAM-1_sample.mp4`)},
	})
	b := Builder{VideoBase: "http://127.0.0.1:5000/"}
	assert.Equal(t, "http://127.0.0.1:5000/videos/CAM-1_sample.mp4", b.Entry("CAM-1", snap).VideoURL)
}
