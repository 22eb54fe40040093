package service

import (
	"sync"
	"testing"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	mu sync.Mutex
	st livestatus.State
}

func (s *stubSource) State() livestatus.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.st
	st.Snapshot = s.st.Snapshot.Clone()
	return st
}

func (s *stubSource) set(st livestatus.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
}

func strp(v string) *string { return &v }

func newDashboard(t *testing.T, st livestatus.State, roster ...string) (*DashboardService, *stubSource, *Roster) {
	t.Helper()
	src := &stubSource{st: st}
	r := NewRoster(roster)
	return NewDashboardService(zap.NewNop(), src, r, viewmodel.Builder{}), src, r
}

func TestDashboard_Cameras(t *testing.T) {
	st := livestatus.State{
		SystemStatus: camera.SystemOperational,
		SnapshotGen:  3,
		Snapshot: camera.NewSnapshot([]camera.CameraStatus{
			{CameraID: "CAM-1", Location: "Main St", Status: "online", Event: strp("violence")},
		}),
	}
	svc, _, _ := newDashboard(t, st, "CAM-1", "CAM-2", "CAM-3", "CAM-4", "CAM-5")

	v := svc.Cameras(viewmodel.Layout2x2)
	require.Len(t, v.Entries, 4)
	assert.Equal(t, 5, v.Total)
	assert.Equal(t, "3.1", v.Version)
	assert.True(t, v.Entries[0].HasAlert)
	assert.Equal(t, "offline", v.Entries[1].Status)
}

func TestDashboard_ProjectionCachedUntilInputsChange(t *testing.T) {
	st := livestatus.State{SnapshotGen: 1, Snapshot: camera.Snapshot{}}
	svc, src, roster := newDashboard(t, st, "CAM-1")

	p1, hit := svc.project(src.State())
	require.False(t, hit)

	// Version bumps without a snapshot change (e.g. polling toggled) reuse the projection.
	st.Version = 9
	src.set(st)
	p2, hit := svc.project(src.State())
	assert.True(t, hit)
	assert.Same(t, p1, p2)

	roster.Set([]string{"CAM-1", "CAM-2"})
	p3, hit := svc.project(src.State())
	assert.False(t, hit)
	assert.Len(t, p3.entries, 2)

	st.SnapshotGen = 2
	st.Snapshot = camera.NewSnapshot([]camera.CameraStatus{{CameraID: "CAM-2", Status: "online"}})
	src.set(st)
	p4, hit := svc.project(src.State())
	assert.False(t, hit)
	assert.Equal(t, 1, p4.summary.Online)
}

func TestDashboard_Camera(t *testing.T) {
	st := livestatus.State{Snapshot: camera.NewSnapshot([]camera.CameraStatus{
		{CameraID: "CAM-1", Location: "Gate", Status: "online"},
		{CameraID: "CAM-9", Location: "Dock", Status: "online"},
	})}
	svc, _, _ := newDashboard(t, st, "CAM-1", "CAM-2")

	e, err := svc.Camera("CAM-1")
	require.NoError(t, err)
	assert.Equal(t, "Gate", e.Name)

	e, err = svc.Camera("CAM-2")
	require.NoError(t, err)
	assert.Equal(t, "offline", e.Status)

	_, err = svc.Camera("CAM-9")
	assert.ErrorIs(t, err, ErrCameraNotOnRoster)
}

func TestDashboard_Status(t *testing.T) {
	svc, src, _ := newDashboard(t, livestatus.State{SystemStatus: camera.SystemOffline, Snapshot: camera.Snapshot{}}, "CAM-1", "CAM-2")

	v := svc.Status()
	assert.Equal(t, camera.SystemOffline, v.SystemStatus)
	assert.Nil(t, v.LastUpdate)
	assert.Equal(t, viewmodel.Summary{Total: 2, Offline: 2}, v.Summary)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	src.set(livestatus.State{
		SystemStatus: camera.SystemOperational,
		LastUpdate:   now,
		IsPolling:    true,
		OfflineMode:  true,
		Version:      4,
		SnapshotGen:  1,
		Snapshot:     camera.NewSnapshot([]camera.CameraStatus{{CameraID: "CAM-2", Status: "online", Event: strp("crash")}}),
	})
	v = svc.Status()
	require.NotNil(t, v.LastUpdate)
	assert.Equal(t, now, *v.LastUpdate)
	assert.True(t, v.IsPolling)
	assert.True(t, v.OfflineMode)
	assert.Equal(t, uint64(4), v.Version)
	assert.Equal(t, viewmodel.Summary{Total: 2, Online: 1, Offline: 1, Alerts: 1}, v.Summary)
}

func TestRoster(t *testing.T) {
	r := NewRoster([]string{"A", "B"})
	assert.Equal(t, uint64(1), r.Gen())
	assert.False(t, r.Set([]string{"A", "B"}))
	assert.True(t, r.Set([]string{"B", "A"}))
	assert.Equal(t, uint64(2), r.Gen())

	ids := r.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"B", "A"}, r.IDs())
	assert.True(t, r.Contains("A"))
	assert.False(t, r.Contains("C"))
}

// advancingSource moves to the next state on every read.
type advancingSource struct {
	mu     sync.Mutex
	states []livestatus.State
	reads  int
}

func (s *advancingSource) State() livestatus.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[min(s.reads, len(s.states)-1)]
	s.reads++
	return st
}

func TestDashboard_ViewReadsStateOnce(t *testing.T) {
	src := &advancingSource{states: []livestatus.State{
		{
			SystemStatus: camera.SystemOperational,
			SnapshotGen:  1,
			Version:      1,
			Snapshot:     camera.NewSnapshot([]camera.CameraStatus{{CameraID: "CAM-1", Status: "online"}}),
		},
		{SystemStatus: camera.SystemOffline, SnapshotGen: 2, Version: 2, Snapshot: camera.Snapshot{}},
	}}
	svc := NewDashboardService(zap.NewNop(), src, NewRoster([]string{"CAM-1"}), viewmodel.Builder{})

	cams, status := svc.View(viewmodel.LayoutAll)
	assert.Equal(t, 1, src.reads)
	assert.Equal(t, "1.1", cams.Version)
	assert.Equal(t, "online", cams.Entries[0].Status)
	assert.Equal(t, camera.SystemOperational, status.SystemStatus)
	assert.Equal(t, uint64(1), status.Version)
	assert.Equal(t, 1, status.Summary.Online)
}
