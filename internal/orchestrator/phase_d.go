package orchestrator

import (
	"github.com/azrael-sim/azrael/internal/broadphase"
)

// halfExtentForInfinite bounds the otherwise-infinite AABB of a
// StaticPlane to a large-but-finite box for broadphase purposes.
const halfExtentForInfinite = 1e4

// phaseD recomputes AABBs and builds collision islands from pairwise
// overlaps (spec §4.5 Phase D). Sleeping bodies are included read-only as
// static colliders ("must still participate in broadphase as static
// colliders"); oversized islands are not split (M_island is a dispatch
// size note, not a hard cap — "oversized components are not split").
func (o *Orchestrator) phaseD(ts *tickState) {
	candidates := make([]broadphase.Candidate, 0, len(ts.working))
	for id, b := range ts.working {
		aabb := b.WorldAABB(halfExtentForInfinite)
		b.AABB = aabb
		ts.working[id] = b

		static := b.IsStatic() || b.Sleeping
		candidates = append(candidates, broadphase.Candidate{
			ID:     id,
			AABB:   aabb,
			Static: static,
			Active: !static,
		})
	}
	ts.islands = broadphase.Build(candidates)
}
