package broadphase

import (
	"testing"

	"github.com/azrael-sim/azrael/internal/body"
)

func box(id body.ID, minX, maxX float64, static, active bool) Candidate {
	return Candidate{
		ID:     id,
		AABB:   body.AABB{Min: body.Vec3{X: minX}, Max: body.Vec3{X: maxX, Y: 1, Z: 1}},
		Static: static,
		Active: active,
	}
}

func TestOverlappingActiveBodiesShareIsland(t *testing.T) {
	islands := Build([]Candidate{
		box(1, 0, 1, false, true),
		box(2, 0.5, 1.5, false, true),
	})
	if len(islands) != 1 {
		t.Fatalf("expected 1 island, got %d: %+v", len(islands), islands)
	}
	if len(islands[0].Members) != 2 {
		t.Fatalf("expected 2 members, got %+v", islands[0].Members)
	}
}

func TestNonOverlappingActiveBodiesFormSingletons(t *testing.T) {
	islands := Build([]Candidate{
		box(1, 0, 1, false, true),
		box(2, 10, 11, false, true),
	})
	if len(islands) != 2 {
		t.Fatalf("expected 2 singleton islands, got %d: %+v", len(islands), islands)
	}
}

func TestStaticWithNoOverlapIsSkipped(t *testing.T) {
	islands := Build([]Candidate{
		box(1, 100, 101, true, false),
	})
	if len(islands) != 0 {
		t.Fatalf("expected 0 islands, got %+v", islands)
	}
}

func TestStaticBridgesTwoActivesIntoSeparateIslandsNotOne(t *testing.T) {
	// Two active bodies each overlap a shared static plane but not each
	// other: the static body must attach to both islands read-only
	// without merging them into a single island.
	islands := Build([]Candidate{
		box(1, 0, 2, false, true),
		box(2, 10, 12, false, true),
		box(3, 0, 12, true, false),
	})
	if len(islands) != 2 {
		t.Fatalf("expected 2 islands (static must not bridge), got %d: %+v", len(islands), islands)
	}
	for _, isl := range islands {
		found := false
		for _, id := range isl.StaticMembers {
			if id == 3 {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected static body 3 attached to island %+v", isl)
		}
	}
}
