package orchestrator

import (
	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// phaseC computes, for every active body, the aggregated {force, torque}
// attached to the worker request (spec §4.5 Phase C). Boosters and the
// force grid are folded into this single aggregate — "boosters and grid
// are not seen by the worker" — which is why ApplyImpulse instead goes
// through the CAS path in Phase A rather than through this aggregate.
func (o *Orchestrator) phaseC(ts *tickState) {
	ts.externalForces = make(map[body.ID]wireproto.ExternalForce, len(ts.working))
	for id, b := range ts.working {
		if b.Sleeping || b.IsStatic() {
			continue
		}
		var total body.Vec3
		var torque body.Vec3

		ambient := o.grid.Sample(b.Position)
		total = total.Add(ambient)

		for _, booster := range b.Boosters {
			force, point := booster.WorldForceAndPoint(b.Position, b.Orientation)
			total = total.Add(force)
			arm := point.Sub(b.Position)
			torque = torque.Add(arm.Cross(force))
		}

		ts.externalForces[id] = wireproto.ExternalForce{Force: total, Torque: torque}
	}
}
