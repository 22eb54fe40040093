package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key layout (prefix defaults to "vigil"):
//
//	<prefix>:cameras  HASH  camera_id -> CameraStatus JSON
//	<prefix>:status   HASH  system_status, last_update, is_polling, offline_mode, stale, version, snapshot_gen
//	<prefix>:events   PUBSUB channel, one Event per saved state
type keys struct{ cameras, status, events string }

func newKeys(prefix string) keys {
	if prefix == "" {
		prefix = "vigil"
	}
	return keys{
		cameras: prefix + ":cameras",
		status:  prefix + ":status",
		events:  prefix + ":events",
	}
}

var ErrNoSnapshot = errors.New("no snapshot stored")

// Event is published on every saved state change.
type Event struct {
	Version      uint64              `json:"version"`
	SnapshotGen  uint64              `json:"snapshot_gen"`
	SystemStatus camera.SystemStatus `json:"system_status"`
	Cameras      int                 `json:"cameras"`
}

// SnapshotRepository mirrors poller state into Redis so other processes
// (vigilctl, sibling dashboards) can read it without hitting the backend.
type SnapshotRepository struct {
	client *Client
	log    *zap.Logger
	keys   keys

	mu      sync.Mutex
	lastGen uint64
	wrote   bool
}

func newSnapshotRepository(log *zap.Logger, client *Client, prefix string) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		log:    log.Named("snapshots"),
		keys:   newKeys(prefix),
	}
}

// Save writes st atomically. The cameras hash is only rewritten when the
// snapshot generation moved since the last save.
func (r *SnapshotRepository) Save(ctx context.Context, st livestatus.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rewrite := !r.wrote || st.SnapshotGen != r.lastGen

	var cams map[string]any
	if rewrite {
		var err error
		if cams, err = encodeCameras(st.Snapshot); err != nil {
			return err
		}
	}
	ev, err := json.Marshal(Event{
		Version:      st.Version,
		SnapshotGen:  st.SnapshotGen,
		SystemStatus: st.SystemStatus,
		Cameras:      len(st.Snapshot),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if rewrite {
			p.Del(ctx, r.keys.cameras)
			if len(cams) > 0 {
				p.HSet(ctx, r.keys.cameras, cams)
			}
		}
		p.HSet(ctx, r.keys.status, statusFields(st))
		p.Publish(ctx, r.keys.events, ev)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	r.lastGen, r.wrote = st.SnapshotGen, true
	return nil
}

// Load reads the mirrored state back. IsPolling reflects the writer's poller.
func (r *SnapshotRepository) Load(ctx context.Context) (livestatus.State, error) {
	var (
		statusCmd  *redis.MapStringStringCmd
		camerasCmd *redis.MapStringStringCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		statusCmd = p.HGetAll(ctx, r.keys.status)
		camerasCmd = p.HGetAll(ctx, r.keys.cameras)
		return nil
	})
	if err != nil {
		return livestatus.State{}, fmt.Errorf("load snapshot: %w", err)
	}

	fields := statusCmd.Val()
	if len(fields) == 0 {
		return livestatus.State{}, ErrNoSnapshot
	}
	st, err := parseStatus(fields)
	if err != nil {
		return livestatus.State{}, err
	}

	st.Snapshot = make(camera.Snapshot, len(camerasCmd.Val()))
	for id, raw := range camerasCmd.Val() {
		var cs camera.CameraStatus
		if err := json.Unmarshal([]byte(raw), &cs); err != nil {
			r.log.Warn("bad camera json", zap.String("camera_id", id), zap.Error(err))
			continue
		}
		st.Snapshot[id] = cs
	}
	return st, nil
}

// Events subscribes to state-change events until ctx is done.
func (r *SnapshotRepository) Events(ctx context.Context) (<-chan Event, error) {
	sub := r.client.Subscribe(ctx, r.keys.events)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.keys.events, err)
	}

	out := make(chan Event, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					r.log.Warn("bad event payload", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// --- encoding ----------------------------------------------------------------

func encodeCameras(s camera.Snapshot) (map[string]any, error) {
	out := make(map[string]any, len(s))
	for id, cs := range s {
		b, err := json.Marshal(cs)
		if err != nil {
			return nil, fmt.Errorf("marshal camera %s: %w", id, err)
		}
		out[id] = string(b)
	}
	return out, nil
}

func statusFields(st livestatus.State) map[string]any {
	var lastUpdate int64
	if !st.LastUpdate.IsZero() {
		lastUpdate = st.LastUpdate.UnixMilli()
	}
	return map[string]any{
		"system_status": st.SystemStatus.String(),
		"last_update":   lastUpdate,
		"is_polling":    strconv.FormatBool(st.IsPolling),
		"offline_mode":  strconv.FormatBool(st.OfflineMode),
		"stale":         strconv.FormatBool(st.Stale),
		"version":       st.Version,
		"snapshot_gen":  st.SnapshotGen,
	}
}

func parseStatus(f map[string]string) (livestatus.State, error) {
	var (
		st  livestatus.State
		err error
	)
	parseBool := func(k string) bool {
		if err != nil {
			return false
		}
		var v bool
		if v, err = strconv.ParseBool(f[k]); err != nil {
			err = fmt.Errorf("field %s: %w", k, err)
		}
		return v
	}
	parseUint := func(k string) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		if v, err = strconv.ParseUint(f[k], 10, 64); err != nil {
			err = fmt.Errorf("field %s: %w", k, err)
		}
		return v
	}

	st.SystemStatus = camera.SystemStatus(f["system_status"])
	st.IsPolling = parseBool("is_polling")
	st.OfflineMode = parseBool("offline_mode")
	st.Stale = parseBool("stale")
	st.Version = parseUint("version")
	st.SnapshotGen = parseUint("snapshot_gen")
	if ms := parseUint("last_update"); ms > 0 {
		st.LastUpdate = time.UnixMilli(int64(ms))
	}
	if err != nil {
		return livestatus.State{}, fmt.Errorf("parse status: %w", err)
	}
	return st, nil
}
