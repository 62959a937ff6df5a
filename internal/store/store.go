// Package store implements the State Store: the durable/shared mapping
// from body id to rigid-body record plus a per-body monotonic version,
// with CAS updates (spec §4.1).
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/azrael-sim/azrael/internal/body"
)

// CommitResult reports the outcome of a CommitBatch call.
type CommitResult struct {
	Committed []body.ID
	Conflicted []body.ID
}

// VersionEvent is delivered to Subscribe callers on every committed write,
// the "stream of (id, newVersion)" change feed spec §4.1 describes as
// optional and used by the API façade.
type VersionEvent struct {
	ID      body.ID
	Version uint64
	Removed bool
}

// Store is the contract the orchestrator depends on. Implementations must
// return defensive copies from Get/GetAll (spec §9: "returned object is a
// snapshot") and guarantee single-writer-wins CAS semantics.
type Store interface {
	Get(ctx context.Context, ids []body.ID) (map[body.ID]body.Body, error)
	GetAll(ctx context.Context) (map[body.ID]body.Body, error)
	CommitBatch(ctx context.Context, writes map[body.ID]body.Body, expectedVersions map[body.ID]uint64) (CommitResult, error)
	Add(ctx context.Context, b body.Body) (body.ID, error)
	Remove(ctx context.Context, ids []body.ID) error
	Subscribe() (ch <-chan VersionEvent, cancel func())
	Close() error
}

// memStore holds the hot-path snapshot map in memory, guarded by a
// RWMutex the way the teacher's world struct guards world.entities in
// examples/.../physics/engine.go; persistence is delegated to a
// backend (see buntdb.go) so the map can be rebuilt on restart via
// loadAll, satisfying "must survive orchestrator restarts".
type memStore struct {
	mu      sync.RWMutex
	bodies  map[body.ID]body.Body
	nextID  atomic.Uint64
	backend backend
	subsMu  sync.Mutex
	subs    map[chan VersionEvent]struct{}
}

// backend is the persistence seam memStore writes through. buntdbBackend
// (buntdb.go) is the concrete implementation; a nil backend is valid for
// tests that don't need durability.
type backend interface {
	loadAll() (map[body.ID]body.Body, uint64, error)
	put(b body.Body) error
	delete(ids []body.ID) error
	close() error
}

func newMemStore(be backend) (*memStore, error) {
	s := &memStore{
		bodies:  make(map[body.ID]body.Body),
		backend: be,
		subs:    make(map[chan VersionEvent]struct{}),
	}
	if be != nil {
		loaded, maxID, err := be.loadAll()
		if err != nil {
			return nil, fmt.Errorf("store: load from backend: %w", err)
		}
		s.bodies = loaded
		s.nextID.Store(maxID)
	}
	return s, nil
}

func (s *memStore) Get(_ context.Context, ids []body.ID) (map[body.ID]body.Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[body.ID]body.Body, len(ids))
	for _, id := range ids {
		if b, ok := s.bodies[id]; ok {
			out[id] = b.Clone()
		}
	}
	return out, nil
}

func (s *memStore) GetAll(_ context.Context) (map[body.ID]body.Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[body.ID]body.Body, len(s.bodies))
	for id, b := range s.bodies {
		out[id] = b.Clone()
	}
	return out, nil
}

// CommitBatch applies each write iff the store's current version for that
// id equals expectedVersions[id]. Processes ids in sorted order so
// CommitBatch's effect is deterministic across calls, matching the
// teacher's repeated sort.Strings-for-determinism idiom.
func (s *memStore) CommitBatch(_ context.Context, writes map[body.ID]body.Body, expectedVersions map[body.ID]uint64) (CommitResult, error) {
	ids := make([]body.ID, 0, len(writes))
	for id := range writes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var res CommitResult
	var events []VersionEvent

	s.mu.Lock()
	for _, id := range ids {
		cur, ok := s.bodies[id]
		if !ok {
			res.Conflicted = append(res.Conflicted, id)
			continue
		}
		want, ok := expectedVersions[id]
		if !ok || cur.Version != want {
			res.Conflicted = append(res.Conflicted, id)
			continue
		}
		next := writes[id]
		next.ID = id
		next.Version = want + 1
		s.bodies[id] = next
		res.Committed = append(res.Committed, id)
		events = append(events, VersionEvent{ID: id, Version: next.Version})
		if s.backend != nil {
			if err := s.backend.put(next); err != nil {
				s.mu.Unlock()
				return CommitResult{}, fmt.Errorf("store: persist commit for %d: %w", id, err)
			}
		}
	}
	s.mu.Unlock()

	s.publish(events)
	return res, nil
}

func (s *memStore) Add(_ context.Context, b body.Body) (body.ID, error) {
	id := body.ID(s.nextID.Add(1))
	b.ID = id
	b.Version = 1

	s.mu.Lock()
	s.bodies[id] = b
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.put(b); err != nil {
			return 0, fmt.Errorf("store: persist add %d: %w", id, err)
		}
	}
	s.publish([]VersionEvent{{ID: id, Version: b.Version}})
	return id, nil
}

func (s *memStore) Remove(_ context.Context, ids []body.ID) error {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.bodies, id)
	}
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.delete(ids); err != nil {
			return fmt.Errorf("store: persist remove: %w", err)
		}
	}
	events := make([]VersionEvent, len(ids))
	for i, id := range ids {
		events[i] = VersionEvent{ID: id, Removed: true}
	}
	s.publish(events)
	return nil
}

// Subscribe registers a new change-feed listener. The returned channel is
// buffered; a slow subscriber that falls behind has events dropped for it
// rather than blocking CommitBatch, since spec §5 treats the store as the
// only shared mutable resource and commits must not stall on a reader.
func (s *memStore) Subscribe() (<-chan VersionEvent, func()) {
	ch := make(chan VersionEvent, 256)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subsMu.Unlock()
	}
	return ch, cancel
}

func (s *memStore) publish(events []VersionEvent) {
	if len(events) == 0 {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (s *memStore) Close() error {
	s.subsMu.Lock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.subsMu.Unlock()
	if s.backend != nil {
		return s.backend.close()
	}
	return nil
}
