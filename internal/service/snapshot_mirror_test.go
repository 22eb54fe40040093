package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chanPublisher struct {
	st livestatus.State
	ch chan livestatus.State

	mu           sync.Mutex
	unsubscribed bool
}

func (p *chanPublisher) State() livestatus.State { return p.st }
func (p *chanPublisher) Subscribe() (<-chan livestatus.State, func()) {
	return p.ch, func() {
		p.mu.Lock()
		p.unsubscribed = true
		p.mu.Unlock()
	}
}

type recordingStore struct {
	mu       sync.Mutex
	versions []uint64
	err      error
}

func (s *recordingStore) Save(_ context.Context, st livestatus.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, st.Version)
	return s.err
}

func (s *recordingStore) saved() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.versions...)
}

func TestSnapshotMirror_SavesInitialAndUpdates(t *testing.T) {
	pub := &chanPublisher{st: livestatus.State{Version: 1}, ch: make(chan livestatus.State)}
	store := &recordingStore{}

	ctx, cancel := context.WithCancel(context.Background())
	StartSnapshotMirror(ctx, zap.NewNop(), pub, store, time.Second)

	pub.ch <- livestatus.State{Version: 2}
	pub.ch <- livestatus.State{Version: 3}
	require.Eventually(t, func() bool { return len(store.saved()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1, 2, 3}, store.saved())

	cancel()
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.unsubscribed
	}, time.Second, 5*time.Millisecond)
}

func TestSnapshotMirror_KeepsGoingOnErrors(t *testing.T) {
	pub := &chanPublisher{ch: make(chan livestatus.State)}
	store := &recordingStore{err: errors.New("redis down")}

	StartSnapshotMirror(context.Background(), zap.NewNop(), pub, store, time.Second)
	pub.ch <- livestatus.State{Version: 5}
	close(pub.ch)

	require.Eventually(t, func() bool { return len(store.saved()) == 2 }, time.Second, 5*time.Millisecond)
}
