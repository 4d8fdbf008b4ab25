package roster

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/stats"
)

// Loader reads roster entries from persistent storage.
type Loader interface {
	LoadRoster(ctx context.Context) (*database.RosterLoad, error)
}

// Store publishes the current snapshot. Reads are lock-free; reloads are
// serialized so snapshots are published in the order they were loaded.
type Store struct {
	loader   Loader
	opts     Options
	log      *logger.Logger
	counters *stats.Counters

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewStore creates a store holding an empty snapshot until the first Reload.
func NewStore(loader Loader, opts Options, log *logger.Logger, counters *stats.Counters) *Store {
	if counters == nil {
		counters = &stats.Counters{}
	}
	s := &Store{loader: loader, opts: opts, log: log, counters: counters}
	s.current.Store(Empty())
	return s
}

// Current returns the latest published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload rebuilds the snapshot from storage and publishes it. On error the
// previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	load, err := s.loader.LoadRoster(ctx)
	if err != nil {
		return nil, database.NewStorageError("load roster", err)
	}

	for _, skipped := range load.Skipped {
		s.counters.RosterRowsSkipped.Add(1)
		s.log.Warn("skipping roster row", "student_id", skipped.StudentID, "error", skipped.Err)
	}

	snap := NewSnapshot(load.Entries, s.opts)
	s.current.Store(snap)
	s.counters.RosterReloads.Add(1)
	s.log.Info("roster loaded", "students", snap.Len(), "skipped", len(load.Skipped), "indexed", snap.Indexed())
	return snap, nil
}

// Follow reloads the roster for every roster-changed event received on ch
// until ctx ends or ch closes. A failed reload keeps the current snapshot.
func (s *Store) Follow(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if e.Type != events.TypeRosterChanged {
				continue
			}
			if _, err := s.Reload(ctx); err != nil {
				s.log.Warn("roster reload after change notice failed", "error", err)
			}
		}
	}
}
