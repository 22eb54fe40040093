package livestatus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// -----------------------------------------------------------------------------
// Poller
// -----------------------------------------------------------------------------
//
// Runtime model
//   • One poll loop goroutine per enabled poller, driven by one ticker.
//   • A cycle fetches live status, then offline mode, sequentially.
//   • Manual calls (RefreshStatus, ToggleOfflineMode) may run from any goroutine.
//
// Contract
//   • Enabling performs one immediate cycle, then one cycle per interval.
//   • Disabling cancels the ticker; nothing is fetched while disabled.
//   • At most one live-status request is in flight. A tick that lands while one
//     is running is skipped; a manual refresh joins the running request.
//   • A result is applied only if the poller was neither stopped nor closed
//     since the request started, and only if no newer result was applied.
//   • Success → snapshot replaced iff content differs; status "operational".
//   • Failure → status "offline"; snapshot cleared (or kept and marked stale
//     with RetainOnFailure).
//   • Failures are not retried; the next tick is the retry.
//
// States
//   • Stopped ⇄ Polling via SetPolling; Close is final.

var ErrClosed = errors.New("poller closed")

const (
	DefaultInterval     = 6 * time.Second
	DefaultFetchTimeout = 5 * time.Second

	liveStatusKey  = "live-status"
	offlineModeKey = "offline-mode"
)

// Backend is the REST surface the poller consumes.
type Backend interface {
	LiveStatus(ctx context.Context) ([]camera.CameraStatus, error)
	OfflineMode(ctx context.Context) (bool, error)
	SetOfflineMode(ctx context.Context, offline bool) (bool, error)
}

type Options struct {
	// Interval between poll cycles; default 6s.
	Interval time.Duration
	// FetchTimeout bounds a single backend request; default 5s.
	FetchTimeout time.Duration
	// RetainOnFailure keeps the last accepted snapshot on fetch failure and
	// flags the state as stale instead of clearing it.
	RetainOnFailure bool

	Clock    Clock
	Recorder Recorder
}

func (o *Options) setDefaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
}

// State is a read-only copy of everything the poller publishes.
type State struct {
	Snapshot     camera.Snapshot
	SystemStatus camera.SystemStatus
	LastUpdate   time.Time // zero until the first successful fetch
	IsPolling    bool
	OfflineMode  bool
	Stale        bool // snapshot kept from before the last failure (RetainOnFailure only)

	// Version increments whenever a field above other than LastUpdate changes.
	Version uint64
	// SnapshotGen increments only when the snapshot is replaced.
	SnapshotGen uint64
}

// Poller keeps a near-real-time view of backend camera state.
type Poller struct {
	log     *zap.Logger
	backend Backend
	opts    Options

	lifetime       context.Context
	cancelLifetime context.CancelFunc
	wg             sync.WaitGroup

	mu           sync.RWMutex
	snapshot     camera.Snapshot
	systemStatus camera.SystemStatus
	lastUpdate   time.Time
	offlineMode  bool
	stale        bool
	version      uint64
	snapshotGen  uint64
	polling      bool
	closed       bool
	epoch        uint64 // bumped on every stop/close
	cancelLoop   context.CancelFunc
	liveApplied  uint64 // seq of the last applied live-status result
	offApplied   uint64 // seq of the last applied offline-mode result

	liveSeq  atomic.Uint64
	offSeq   atomic.Uint64
	inflight atomic.Int32
	sg       singleflight.Group

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New constructs a stopped poller with an empty snapshot and "offline" status.
func New(log *zap.Logger, backend Backend, opts Options) *Poller {
	opts.setDefaults()
	lifetime, cancel := context.WithCancel(context.Background())

	return &Poller{
		log:            log.Named("live_status"),
		backend:        backend,
		opts:           opts,
		lifetime:       lifetime,
		cancelLifetime: cancel,
		snapshot:       camera.Snapshot{},
		systemStatus:   camera.SystemOffline,
		subs:           make(map[int]chan State),
	}
}

// Start enables polling and ties the poller's lifetime to ctx: when ctx is
// done the poller is closed.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.SetPolling(true); err != nil {
		return err
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.lifetime.Done():
		}
	}()
	return nil
}

// Stop disables polling. The poller can be re-enabled.
func (p *Poller) Stop() { _ = p.SetPolling(false) }

// TogglePolling flips the polling flag and returns the new value.
func (p *Poller) TogglePolling() (bool, error) {
	enabled := !p.IsPolling()
	return enabled, p.SetPolling(enabled)
}

// IsPolling reports whether the poll loop is enabled.
func (p *Poller) IsPolling() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.polling
}

// SetPolling enables or disables the poll loop. Enabling an already enabled
// poller (or disabling a stopped one) is a no-op.
func (p *Poller) SetPolling(enabled bool) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.polling == enabled {
		p.mu.Unlock()
		return nil
	}

	p.polling = enabled
	p.version++

	if !enabled {
		p.epoch++ // in-flight results from before the stop are discarded
		cancel := p.cancelLoop
		p.cancelLoop = nil
		p.mu.Unlock()

		cancel()
		p.log.Info("polling disabled")
		p.publish()
		return nil
	}

	loopCtx, cancel := context.WithCancel(p.lifetime)
	p.cancelLoop = cancel
	epoch := p.epoch
	p.wg.Add(1)
	p.mu.Unlock()

	p.log.Info("polling enabled", zap.Duration("interval", p.opts.Interval))
	p.publish()

	go p.run(loopCtx, epoch)
	return nil
}

// Close disposes the poller: stops the loop, aborts in-flight requests,
// discards their results, and closes every subscription. Idempotent.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.polling = false
	p.epoch++
	cancel := p.cancelLoop
	p.cancelLoop = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.cancelLifetime()
	p.wg.Wait()

	p.subsMu.Lock()
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
	p.subsMu.Unlock()

	p.log.Info("poller closed")
}

// run is the poll loop for one enable period.
func (p *Poller) run(ctx context.Context, epoch uint64) {
	defer p.wg.Done()

	ticker := p.opts.Clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.cycle(ctx, epoch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if p.inflight.Load() > 0 {
				p.opts.Recorder.TickSkipped()
				p.log.Debug("tick skipped; live status fetch still in flight")
				continue
			}
			p.cycle(ctx, epoch)
		}
	}
}

func (p *Poller) cycle(ctx context.Context, epoch uint64) {
	if ctx.Err() != nil {
		return
	}
	_ = p.fetchLive(ctx, epoch)
	if ctx.Err() != nil {
		return
	}
	p.fetchOffline(ctx, epoch)
}

// --- live status -------------------------------------------------------------

type liveResult struct {
	seq   uint64
	epoch uint64 // enable period the request started in
	cams  []camera.CameraStatus
	err   error
}

// flightKey scopes request coalescing to one enable period, so a request
// started before a stop is never joined after the restart.
func flightKey(name string, epoch uint64) string {
	return name + ":" + strconv.FormatUint(epoch, 10)
}

// FetchLiveStatus performs one out-of-cycle live-status fetch and applies its
// result. The returned error is the fetch error (already reflected in State)
// or ctx's error if the caller gave up waiting.
func (p *Poller) FetchLiveStatus(ctx context.Context) error {
	p.mu.RLock()
	closed, epoch := p.closed, p.epoch
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return p.fetchLive(ctx, epoch)
}

// RefreshStatus is the manual "force refresh" action.
func (p *Poller) RefreshStatus(ctx context.Context) error { return p.FetchLiveStatus(ctx) }

func (p *Poller) fetchLive(ctx context.Context, epoch uint64) error {
	ch := p.sg.DoChan(flightKey(liveStatusKey, epoch), func() (any, error) {
		p.inflight.Add(1)
		defer p.inflight.Add(-1)

		res := liveResult{seq: p.liveSeq.Add(1), epoch: epoch}
		fctx, cancel := context.WithTimeout(p.lifetime, p.opts.FetchTimeout)
		defer cancel()

		start := p.opts.Clock.Now()
		res.cams, res.err = p.backend.LiveStatus(fctx)
		p.opts.Recorder.FetchCompleted(EndpointLiveStatus, p.opts.Clock.Now().Sub(start), res.err)

		p.applyLive(res, epoch)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		res := r.Val.(liveResult)
		if r.Shared && res.epoch == epoch {
			// joined a request from the same enable period; seq dedups
			p.applyLive(res, epoch)
		}
		return res.err
	}
}

func (p *Poller) applyLive(res liveResult, epoch uint64) {
	p.mu.Lock()
	if p.closed || epoch != p.epoch {
		p.mu.Unlock()
		p.opts.Recorder.ResultDiscarded(EndpointLiveStatus)
		p.log.Debug("live status result discarded; poller stopped since request start")
		return
	}
	if res.seq <= p.liveApplied {
		p.mu.Unlock()
		return
	}
	p.liveApplied = res.seq

	if res.err != nil {
		wasOperational := p.systemStatus == camera.SystemOperational
		changed := wasOperational
		p.systemStatus = camera.SystemOffline
		if p.opts.RetainOnFailure {
			if len(p.snapshot) > 0 && !p.stale {
				p.stale = true
				changed = true
			}
		} else if len(p.snapshot) > 0 {
			p.snapshot = camera.Snapshot{}
			p.snapshotGen++
			changed = true
		}
		if changed {
			p.version++
		}
		p.mu.Unlock()

		if wasOperational {
			p.log.Warn("live status fetch failed; backend considered offline", zap.Error(res.err))
		} else {
			p.log.Debug("live status fetch failed", zap.Error(res.err))
		}
		if changed {
			p.publish()
		}
		return
	}

	next := camera.NewSnapshot(res.cams)
	changed := false
	replaced := false
	if !next.Equal(p.snapshot) {
		p.snapshot = next
		p.snapshotGen++
		replaced = true
		changed = true
	}
	if p.systemStatus != camera.SystemOperational {
		p.systemStatus = camera.SystemOperational
		changed = true
	}
	if p.stale {
		p.stale = false
		changed = true
	}
	p.lastUpdate = p.opts.Clock.Now()
	if changed {
		p.version++
	}
	size := len(next)
	p.mu.Unlock()

	if replaced {
		p.opts.Recorder.SnapshotReplaced(size)
		p.log.Debug("snapshot replaced", zap.Int("cameras", size))
	}
	if changed {
		p.publish()
	}
}

// --- offline mode ------------------------------------------------------------

type offlineResult struct {
	seq   uint64
	epoch uint64
	on    bool
}

// FetchOfflineMode refreshes the offline-mode flag. Failures fail open to false.
func (p *Poller) FetchOfflineMode(ctx context.Context) error {
	p.mu.RLock()
	closed, epoch := p.closed, p.epoch
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	p.fetchOffline(ctx, epoch)
	return ctx.Err()
}

func (p *Poller) fetchOffline(ctx context.Context, epoch uint64) {
	ch := p.sg.DoChan(flightKey(offlineModeKey, epoch), func() (any, error) {
		res := offlineResult{seq: p.offSeq.Add(1), epoch: epoch}
		fctx, cancel := context.WithTimeout(p.lifetime, p.opts.FetchTimeout)
		defer cancel()

		start := p.opts.Clock.Now()
		on, err := p.backend.OfflineMode(fctx)
		p.opts.Recorder.FetchCompleted(EndpointOfflineMode, p.opts.Clock.Now().Sub(start), err)
		if err != nil {
			p.log.Debug("offline mode fetch failed; assuming online", zap.Error(err))
			on = false
		}
		res.on = on

		p.applyOffline(res, epoch)
		return res, nil
	})

	select {
	case <-ctx.Done():
	case r := <-ch:
		if res := r.Val.(offlineResult); r.Shared && res.epoch == epoch {
			p.applyOffline(res, epoch)
		}
	}
}

func (p *Poller) applyOffline(res offlineResult, epoch uint64) {
	p.mu.Lock()
	if p.closed || epoch != p.epoch {
		p.mu.Unlock()
		p.opts.Recorder.ResultDiscarded(EndpointOfflineMode)
		return
	}
	if res.seq <= p.offApplied {
		p.mu.Unlock()
		return
	}
	p.offApplied = res.seq
	changed := p.offlineMode != res.on
	if changed {
		p.offlineMode = res.on
		p.version++
	}
	p.mu.Unlock()

	if changed {
		p.log.Info("offline mode changed", zap.Bool("offline_mode", res.on))
		p.publish()
	}
}

// ToggleOfflineMode asks the backend to invert the offline-mode flag, then
// re-fetches offline mode and live status. Backend errors are returned to the
// caller, never swallowed.
func (p *Poller) ToggleOfflineMode(ctx context.Context) error {
	p.mu.RLock()
	closed, want := p.closed, !p.offlineMode
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	start := p.opts.Clock.Now()
	got, err := p.backend.SetOfflineMode(fctx, want)
	p.opts.Recorder.FetchCompleted(EndpointToggle, p.opts.Clock.Now().Sub(start), err)
	if err != nil {
		return fmt.Errorf("set offline mode %t: %w", want, err)
	}

	// A user action outranks any read that started before it.
	p.mu.RLock()
	epoch := p.epoch
	p.mu.RUnlock()
	p.applyOffline(offlineResult{seq: p.offSeq.Add(1), epoch: epoch, on: got}, epoch)

	if err := p.FetchOfflineMode(ctx); err != nil {
		return err
	}
	if err := p.FetchLiveStatus(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// --- read side ---------------------------------------------------------------

// State returns a copy of the published state.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{
		Snapshot:     p.snapshot.Clone(),
		SystemStatus: p.systemStatus,
		LastUpdate:   p.lastUpdate,
		IsPolling:    p.polling,
		OfflineMode:  p.offlineMode,
		Stale:        p.stale,
		Version:      p.version,
		SnapshotGen:  p.snapshotGen,
	}
}

// CameraStatus looks up one camera in the current snapshot.
func (p *Poller) CameraStatus(id string) (camera.CameraStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.snapshot[id]
	if !ok {
		return camera.CameraStatus{}, false
	}
	return c.Clone(), true
}

// Subscribe returns a channel receiving the latest State after every change,
// and a func to unsubscribe. Slow readers only ever see the newest state.
// The channel is closed on unsubscribe or when the poller closes.
func (p *Poller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	p.subsMu.Lock()
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		p.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subsMu.Lock()
			defer p.subsMu.Unlock()
			if c, ok := p.subs[id]; ok {
				close(c)
				delete(p.subs, id)
			}
		})
	}
}

// publish fans the current state out to subscribers. The state is read inside
// the subscriber lock so the last publisher always delivers the newest state.
func (p *Poller) publish() {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	if len(p.subs) == 0 {
		return
	}

	st := p.State()
	for _, ch := range p.subs {
		select {
		case ch <- st:
		default:
			// drop the stale pending value, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
