package forcegrid

import (
	"testing"

	"github.com/azrael-sim/azrael/internal/body"
)

func TestSampleOutOfRegionIsZero(t *testing.T) {
	g := New(1)
	if got := g.Sample(body.Vec3{X: 100}); !got.IsZero() {
		t.Fatalf("expected zero vector, got %+v", got)
	}
}

func TestSetThenSampleSameCell(t *testing.T) {
	g := New(1)
	g.Set(CellIndex{0, 0, 0}, body.Vec3{X: 10})
	if got := g.Sample(body.Vec3{X: 0.5, Y: 0.5, Z: 0.5}); got != (body.Vec3{X: 10}) {
		t.Fatalf("expected {10 0 0}, got %+v", got)
	}
	// Locality: a neighboring cell is unaffected.
	if got := g.Sample(body.Vec3{X: 1.5}); !got.IsZero() {
		t.Fatalf("expected zero vector outside the set cell, got %+v", got)
	}
}

func TestSetRegionCoversAllCells(t *testing.T) {
	g := New(1)
	g.SetRegion(body.Vec3{X: 0, Y: 0, Z: 0}, body.Vec3{X: 1, Y: 0, Z: 0}, body.Vec3{Y: 5})
	if got := g.Sample(body.Vec3{X: 0.5}); got != (body.Vec3{Y: 5}) {
		t.Fatalf("expected {0 5 0}, got %+v", got)
	}
	if got := g.Sample(body.Vec3{X: 1.5}); got != (body.Vec3{Y: 5}) {
		t.Fatalf("expected {0 5 0}, got %+v", got)
	}
}
