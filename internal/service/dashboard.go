package service

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrCameraNotOnRoster = errors.New("camera not on roster")

// StateSource is the read side of the live-status poller.
type StateSource interface {
	State() livestatus.State
}

// CamerasView is the grid payload plus the versions it was built from.
type CamerasView struct {
	Entries []camera.ViewEntry
	Total   int    // entries before the layout cut
	Version string // "<snapshot_gen>.<roster_gen>"; changes iff Entries may differ
}

// StatusView is the header/status-bar payload.
type StatusView struct {
	SystemStatus camera.SystemStatus `json:"system_status"`
	LastUpdate   *time.Time          `json:"last_update"` // nil until the first successful fetch
	IsPolling    bool                `json:"is_polling"`
	OfflineMode  bool                `json:"offline_mode"`
	Stale        bool                `json:"stale"`
	Version      uint64              `json:"version"`
	Summary      viewmodel.Summary   `json:"summary"`
}

type projection struct {
	snapshotGen uint64
	rosterGen   uint64
	entries     []camera.ViewEntry
	summary     viewmodel.Summary
}

// DashboardService projects poller state onto the roster.
//
// Contract
//   - Projections are cached per (snapshot generation, roster generation);
//     identical inputs never rebuild.
//   - Concurrent rebuilds for the same inputs are coalesced.
//   - Returned slices are shared; callers must not mutate them.
type DashboardService struct {
	log     *zap.Logger
	src     StateSource
	roster  *Roster
	builder viewmodel.Builder

	mu    sync.RWMutex
	cache *projection
	sg    singleflight.Group
}

func NewDashboardService(log *zap.Logger, src StateSource, roster *Roster, builder viewmodel.Builder) *DashboardService {
	return &DashboardService{
		log:     log.Named("dashboard"),
		src:     src,
		roster:  roster,
		builder: builder,
	}
}

// State passes through the poller state.
func (s *DashboardService) State() livestatus.State { return s.src.State() }

// Roster returns the current roster IDs.
func (s *DashboardService) Roster() []string { return s.roster.IDs() }

// Entries returns the full projected grid.
func (s *DashboardService) Entries() []camera.ViewEntry {
	p, _ := s.project(s.src.State())
	return p.entries
}

// Cameras returns the grid cut to layout.
func (s *DashboardService) Cameras(layout viewmodel.Layout) CamerasView {
	return s.camerasOf(s.src.State(), layout)
}

// Camera returns one roster entry.
func (s *DashboardService) Camera(id string) (camera.ViewEntry, error) {
	if !s.roster.Contains(id) {
		return camera.ViewEntry{}, ErrCameraNotOnRoster
	}
	st := s.src.State()
	return s.builder.Entry(id, st.Snapshot), nil
}

// Status summarizes the system for the status bar.
func (s *DashboardService) Status() StatusView {
	return s.statusOf(s.src.State())
}

// View returns the grid and the status bar built from one state read, so
// both halves describe the same poll.
func (s *DashboardService) View(layout viewmodel.Layout) (CamerasView, StatusView) {
	st := s.src.State()
	return s.camerasOf(st, layout), s.statusOf(st)
}

func (s *DashboardService) camerasOf(st livestatus.State, layout viewmodel.Layout) CamerasView {
	p, _ := s.project(st)
	return CamerasView{
		Entries: layout.Apply(p.entries),
		Total:   len(p.entries),
		Version: strconv.FormatUint(p.snapshotGen, 10) + "." + strconv.FormatUint(p.rosterGen, 10),
	}
}

func (s *DashboardService) statusOf(st livestatus.State) StatusView {
	p, _ := s.project(st)

	v := StatusView{
		SystemStatus: st.SystemStatus,
		IsPolling:    st.IsPolling,
		OfflineMode:  st.OfflineMode,
		Stale:        st.Stale,
		Version:      st.Version,
		Summary:      p.summary,
	}
	if !st.LastUpdate.IsZero() {
		t := st.LastUpdate
		v.LastUpdate = &t
	}
	return v
}

// project returns the cached projection for st, rebuilding it on a miss.
// The bool reports a cache hit.
func (s *DashboardService) project(st livestatus.State) (*projection, bool) {
	ids, rosterGen := s.roster.Load()

	s.mu.RLock()
	if c := s.cache; c != nil && c.snapshotGen == st.SnapshotGen && c.rosterGen == rosterGen {
		s.mu.RUnlock()
		return c, true
	}
	s.mu.RUnlock()

	key := strconv.FormatUint(st.SnapshotGen, 10) + "." + strconv.FormatUint(rosterGen, 10)
	v, _, _ := s.sg.Do(key, func() (any, error) {
		entries := s.builder.BuildViewEntries(ids, st.Snapshot)
		p := &projection{
			snapshotGen: st.SnapshotGen,
			rosterGen:   rosterGen,
			entries:     entries,
			summary:     viewmodel.Summarize(entries),
		}

		s.mu.Lock()
		s.cache = p
		s.mu.Unlock()

		s.log.Debug("projection rebuilt",
			zap.Uint64("snapshot_gen", p.snapshotGen),
			zap.Uint64("roster_gen", p.rosterGen),
			zap.Int("entries", len(entries)),
		)
		return p, nil
	})
	return v.(*projection), false
}
