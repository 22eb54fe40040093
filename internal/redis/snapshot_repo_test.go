package redis

import (
	"fmt"
	"testing"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stringify mimics what HGETALL hands back for fields written by HSET.
func stringify(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestStatusFieldsRoundTrip(t *testing.T) {
	in := livestatus.State{
		SystemStatus: camera.SystemOperational,
		LastUpdate:   time.UnixMilli(1_700_000_000_123),
		IsPolling:    true,
		OfflineMode:  true,
		Version:      42,
		SnapshotGen:  7,
	}

	got, err := parseStatus(stringify(statusFields(in)))
	require.NoError(t, err)
	assert.Equal(t, in.SystemStatus, got.SystemStatus)
	assert.True(t, in.LastUpdate.Equal(got.LastUpdate))
	assert.Equal(t, in.IsPolling, got.IsPolling)
	assert.Equal(t, in.OfflineMode, got.OfflineMode)
	assert.False(t, got.Stale)
	assert.Equal(t, uint64(42), got.Version)
	assert.Equal(t, uint64(7), got.SnapshotGen)
}

func TestStatusFields_NeverUpdated(t *testing.T) {
	got, err := parseStatus(stringify(statusFields(livestatus.State{SystemStatus: camera.SystemOffline})))
	require.NoError(t, err)
	assert.True(t, got.LastUpdate.IsZero())
	assert.Equal(t, camera.SystemOffline, got.SystemStatus)
}

func TestParseStatus_BadField(t *testing.T) {
	f := stringify(statusFields(livestatus.State{}))
	f["version"] = "-1"
	_, err := parseStatus(f)
	assert.ErrorContains(t, err, "field version")
}

func TestEncodeCameras(t *testing.T) {
	ev := "crash"
	out, err := encodeCameras(camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Location: "Main St", Status: "online", Event: &ev},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"camera_id":"CAM-1","location":"Main St","status":"online","event":"crash"}`, out["CAM-1"].(string))
}

func TestNewKeys(t *testing.T) {
	assert.Equal(t, keys{"vigil:cameras", "vigil:status", "vigil:events"}, newKeys(""))
	assert.Equal(t, "site-a:events", newKeys("site-a").events)
}
