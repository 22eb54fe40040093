package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RosterSync loads the roster file on boot and live-reloads it on change.
type RosterSync struct {
	log    *zap.Logger
	roster *Roster

	path     string
	debounce time.Duration
}

// StartRosterSync applies the roster file once, then watches it with a
// debounced fsnotify watcher until ctx is done. An empty path keeps the
// roster as is and starts no watcher. A broken file at boot is an error;
// a broken file later is logged and the previous roster kept.
func StartRosterSync(ctx context.Context, log *zap.Logger, roster *Roster, path string, debounce time.Duration) error {
	if path == "" {
		return nil
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	s := &RosterSync{
		log:      log.Named("roster_sync"),
		roster:   roster,
		path:     abs,
		debounce: debounce,
	}
	if err := s.applyOnce(); err != nil {
		return fmt.Errorf("initial roster load: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("roster watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go s.watch(ctx, w)
	return nil
}

func (s *RosterSync) applyOnce() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	ids, err := viewmodel.ParseRoster(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	if s.roster.Set(ids) {
		s.log.Info("roster applied", zap.Int("cameras", len(ids)), zap.String("path", s.path))
	}
	return nil
}

func (s *RosterSync) watch(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()

	var t *time.Timer
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()
	reset := func() {
		if t != nil {
			t.Stop()
		}
		t = time.AfterFunc(s.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			if err := s.applyOnce(); err != nil {
				s.log.Warn("roster reload failed; keeping previous roster", zap.Error(err))
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name != s.path {
				continue
			}
			// Remove means the file is gone; wait for it to reappear.
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				reset()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("watch error", zap.Error(err))
		}
	}
}
