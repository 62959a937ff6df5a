package queue

import (
	"errors"
	"testing"
)

func TestEnqueueBackpressure(t *testing.T) {
	q := New(2)
	if err := q.Enqueue(Command{Kind: KindRemove}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(Command{Kind: KindRemove}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(Command{Kind: KindRemove}); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
}

func TestDrainAllPreservesOrderAndEmpties(t *testing.T) {
	q := New(4)
	for i := 0; i < 3; i++ {
		_ = q.Enqueue(Command{Kind: KindSetForce, BoosterIndex: i})
	}
	got := q.DrainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(got))
	}
	for i, c := range got {
		if c.BoosterIndex != i {
			t.Fatalf("order broken at %d: %+v", i, c)
		}
	}
	if q.Len() != 0 {
		t.Fatal("expected queue empty after drain")
	}
}

func TestCloseRejectsFurtherEnqueue(t *testing.T) {
	q := New(4)
	_ = q.Enqueue(Command{Kind: KindRemove})
	pending := q.Close()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending command returned from Close, got %d", len(pending))
	}
	if err := q.Enqueue(Command{Kind: KindRemove}); !errors.Is(err, ErrShutdown) {
		t.Fatalf("expected ErrShutdown after Close, got %v", err)
	}
}
