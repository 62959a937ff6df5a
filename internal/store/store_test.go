package store

import (
	"context"
	"testing"

	"github.com/azrael-sim/azrael/internal/body"
)

func TestAddThenGet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id, err := s.Add(ctx, body.Body{Position: body.Vec3{X: 1}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, []body.ID{id})
	if err != nil {
		t.Fatal(err)
	}
	b, ok := got[id]
	if !ok {
		t.Fatal("expected body present")
	}
	if b.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", b.Version)
	}
}

func TestCommitBatchCASConflict(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	id, _ := s.Add(ctx, body.Body{})

	res, err := s.CommitBatch(ctx,
		map[body.ID]body.Body{id: {Position: body.Vec3{X: 5}}},
		map[body.ID]uint64{id: 99}, // wrong expected version
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Committed) != 0 || len(res.Conflicted) != 1 {
		t.Fatalf("expected conflict, got %+v", res)
	}
}

func TestCommitBatchSuccessBumpsVersion(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	id, _ := s.Add(ctx, body.Body{})

	res, err := s.CommitBatch(ctx,
		map[body.ID]body.Body{id: {Position: body.Vec3{X: 5}}},
		map[body.ID]uint64{id: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Committed) != 1 {
		t.Fatalf("expected 1 committed, got %+v", res)
	}
	got, _ := s.Get(ctx, []body.ID{id})
	if got[id].Version != 2 {
		t.Fatalf("expected version 2 after commit, got %d", got[id].Version)
	}
}

func TestGetReturnsIndependentSnapshot(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	id, _ := s.Add(ctx, body.Body{Boosters: []body.Booster{{Force: 1}}})

	got, _ := s.Get(ctx, []body.ID{id})
	b := got[id]
	b.Boosters[0].Force = 42

	got2, _ := s.Get(ctx, []body.ID{id})
	if got2[id].Boosters[0].Force != 1 {
		t.Fatal("mutating a Get() snapshot must not affect stored state")
	}
}

func TestSubscribeReceivesCommitEvents(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	ch, cancel := s.Subscribe()
	defer cancel()

	id, _ := s.Add(ctx, body.Body{})
	ev := <-ch
	if ev.ID != id || ev.Version != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRemoveDeletesBody(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	id, _ := s.Add(ctx, body.Body{})
	if err := s.Remove(ctx, []body.ID{id}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, []body.ID{id})
	if _, ok := got[id]; ok {
		t.Fatal("expected body removed")
	}
}
