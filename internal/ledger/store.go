// Package ledger owns the in-memory movement collection for a running
// session and keeps durable storage in step with it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"minibudget/internal/core"
	applog "minibudget/internal/log"
)

// State is the lifecycle of a Store. Loading is only left once, for Ready.
type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

var (
	ErrNotReady     = errors.New("ledger not ready")
	ErrStorageWrite = errors.New("could not save data locally")
	ErrDuplicateID  = errors.New("duplicate movement id")
)

// Persister loads and saves the complete collection.
type Persister interface {
	Load(ctx context.Context) ([]core.Movement, error)
	Save(ctx context.Context, movements []core.Movement) error
}

// Store is the authoritative movement collection.
//
// Mutations change memory first and then persist. Writes are serialized:
// a writer always saves the newest snapshot, and a writer whose change was
// already covered by a completed save returns without writing again.
type Store struct {
	persister Persister
	logger    *applog.Logger

	mu    sync.RWMutex
	state State
	items []core.Movement
	rev   uint64

	writeMu  sync.Mutex
	savedRev uint64
}

func New(p Persister, logger *applog.Logger) *Store {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Store{
		persister: p,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Load hydrates the store and moves it to Ready. A persister failure is
// logged and returned, but the store still becomes Ready with an empty
// ledger. Calling Load on a Ready store does nothing.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	ready := s.state == Ready
	s.mu.RUnlock()
	if ready {
		return nil
	}

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load ledger, starting empty",
			applog.FieldOperation, applog.OpLoad,
			applog.FieldErrorType, applog.ErrorTypeStorage,
			applog.FieldError, err)
		loaded = nil
	}
	if loaded == nil {
		loaded = []core.Movement{}
	}
	SortNewestFirst(loaded)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready {
		return nil
	}
	s.items = loaded
	// hydration is a revision of its own, so nothing derived from the
	// empty Loading snapshot is reused afterwards
	s.rev++
	s.state = Ready
	s.logger.InfoContext(ctx, "Ledger ready", applog.FieldCount, len(loaded))
	return err
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Items returns a copy of the collection in its current order.
func (s *Store) Items() []core.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Snapshot returns a copy of the collection together with the revision
// it corresponds to.
func (s *Store) Snapshot() ([]core.Movement, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.rev
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision is 1 after Load and increases by one with every applied mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) Get(id string) (core.Movement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Movement{}, false
}

// Add prepends m and persists the collection.
func (s *Store) Add(ctx context.Context, m core.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := s.mutate(ctx, func() (bool, error) {
		if s.indexOf(m.ID) >= 0 {
			return false, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		next := make([]core.Movement, 0, len(s.items)+1)
		next = append(next, m)
		s.items = append(next, s.items...)
		return true, nil
	})
	return err
}

// Update replaces the movement with m's id. It reports false, without
// writing, when no movement has that id.
func (s *Store) Update(ctx context.Context, m core.Movement) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, err
	}
	return s.mutate(ctx, func() (bool, error) {
		i := s.indexOf(m.ID)
		if i < 0 {
			return false, nil
		}
		s.items[i] = m
		return true, nil
	})
}

// Remove deletes the movement with id. It reports false, without writing,
// when no movement has that id.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, func() (bool, error) {
		i := s.indexOf(id)
		if i < 0 {
			return false, nil
		}
		s.items = slices.Delete(s.items, i, i+1)
		return true, nil
	})
}

// mutate applies change under the write lock and persists when it reports
// a change. The in-memory change is kept even if persisting fails.
func (s *Store) mutate(ctx context.Context, change func() (bool, error)) (bool, error) {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return false, ErrNotReady
	}
	changed, err := change()
	if err != nil || !changed {
		s.mu.Unlock()
		return false, err
	}
	s.rev++
	rev := s.rev
	s.mu.Unlock()

	return true, s.persist(ctx, rev)
}

func (s *Store) persist(ctx context.Context, rev uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.savedRev >= rev {
		return nil
	}

	s.mu.RLock()
	snapshot := slices.Clone(s.items)
	snapRev := s.rev
	s.mu.RUnlock()

	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger",
			applog.FieldOperation, applog.OpSave,
			applog.FieldErrorType, applog.ErrorTypeStorage,
			applog.FieldRevision, snapRev,
			applog.FieldError, err)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	s.savedRev = snapRev
	s.logger.DebugContext(ctx, "Ledger persisted", applog.FieldRevision, snapRev, applog.FieldCount, len(snapshot))
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(m core.Movement) bool { return m.ID == id })
}

// SortNewestFirst orders movements by date descending. Equal dates keep
// their relative order.
func SortNewestFirst(items []core.Movement) {
	slices.SortStableFunc(items, func(a, b core.Movement) int {
		return b.Date.Compare(a.Date.Time)
	})
}
