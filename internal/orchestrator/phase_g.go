package orchestrator

import (
	"context"

	"github.com/azrael-sim/azrael/internal/body"
)

// phaseG marks bodies sleeping once their linear and angular speed stay
// under the configured thresholds for NTicks consecutive ticks; any
// command or successful contact clears the flag (spec §4.5 Phase G). It
// commits the updated Sleeping/SleepTicks bookkeeping directly — these
// fields aren't part of the physics CAS baseline, so conflicts here are
// not cas_conflicts in the §8 sense and are simply skipped for the body
// this tick (it will be picked up again next tick from the winning
// writer's record).
func (o *Orchestrator) phaseG(ctx context.Context, ts *tickState) {
	contactedBodies := make(map[body.ID]struct{}, len(ts.contacts)*2)
	for _, c := range ts.contacts {
		contactedBodies[c.A] = struct{}{}
		contactedBodies[c.B] = struct{}{}
	}

	vThresh := o.cfg.SleepThresholds.VLinear
	wThresh := o.cfg.SleepThresholds.VAngular
	nSleep := o.cfg.SleepThresholds.NTicks
	if nSleep <= 0 {
		nSleep = 30
	}

	writes := make(map[body.ID]body.Body)
	baselines := make(map[body.ID]uint64)
	sleeping := 0

	for id, b := range ts.working {
		if b.IsStatic() {
			continue
		}
		cur, err := o.store.Get(ctx, []body.ID{id})
		if err != nil {
			continue
		}
		latest, ok := cur[id]
		if !ok {
			continue
		}
		if latest.Version != b.Version {
			// Position/velocity already superseded this tick by a later
			// write; base sleep bookkeeping on the latest record instead
			// of phaseF's possibly-stale working copy.
			b = latest
		}

		_, contacted := contactedBodies[id]
		underThreshold := b.VLin.Len() < vThresh && b.VAng.Len() < wThresh

		if b.Sleeping && underThreshold && !contacted {
			// Already settled and nothing disturbed it: no bookkeeping
			// change, so no CAS write (spec §8 "no-op tick" law — a
			// resting body's version must not rise without bound).
			sleeping++
			continue
		}

		next := b
		if contacted {
			next.SleepTicks = 0
			next.Sleeping = false
		} else if underThreshold {
			next.SleepTicks++
			if next.SleepTicks >= nSleep {
				next.Sleeping = true
			}
		} else {
			next.SleepTicks = 0
			next.Sleeping = false
		}

		if next.Sleeping == b.Sleeping && next.SleepTicks == b.SleepTicks {
			if b.Sleeping {
				sleeping++
			}
			continue
		}

		writes[id] = next
		baselines[id] = b.Version
		if next.Sleeping {
			sleeping++
		}
	}

	if len(writes) > 0 {
		_, _ = o.store.CommitBatch(ctx, writes, baselines)
	}
	bodiesSleepingGauge.Set(float64(sleeping))
}
