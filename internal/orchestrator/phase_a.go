package orchestrator

import (
	"context"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/queue"
)

// phaseA drains the command queue non-blocking and applies each command,
// per spec §4.5 Phase A. Spawn/Remove mutate the store unconditionally;
// SetBody/SetForce/ApplyImpulse mutate via CAS, retrying up to
// CommandRetries times before replying Conflict.
func (o *Orchestrator) phaseA(ctx context.Context, ts *tickState) error {
	o.expireTombstones()

	cmds := o.queue.DrainAll()

	for _, cmd := range cmds {
		var result queue.Result
		switch cmd.Kind {
		case queue.KindSpawn:
			result = o.applySpawn(ctx, cmd)
		case queue.KindRemove:
			result = o.applyRemove(ctx, cmd)
		case queue.KindSetBody:
			result = o.applyWithRetry(ctx, cmd.BodyID, func(b body.Body) body.Body {
				return applyPartial(b, cmd.Partial)
			})
		case queue.KindSetForce:
			result = o.applyWithRetry(ctx, cmd.BodyID, func(b body.Body) body.Body {
				if cmd.BoosterIndex >= 0 && cmd.BoosterIndex < len(b.Boosters) {
					boosters := append([]body.Booster(nil), b.Boosters...)
					boosters[cmd.BoosterIndex].Force = cmd.Force
					b.Boosters = boosters
				}
				return b
			})
		case queue.KindApplyImpulse:
			result = o.applyWithRetry(ctx, cmd.BodyID, func(b body.Body) body.Body {
				return b.ApplyImpulse(cmd.Linear, cmd.Angular)
			})
		}
		if cmd.Reply != nil {
			cmd.Reply <- result
		}
		commandsProcessedTotal.WithLabelValues(outcomeLabel(result.Err)).Inc()
	}
	return nil
}

func outcomeLabel(err error) string {
	switch err {
	case nil:
		return "ok"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	default:
		return "error"
	}
}

func (o *Orchestrator) applySpawn(ctx context.Context, cmd queue.Command) queue.Result {
	b := cmd.InitialBody
	if b.Scale <= 0 {
		b.Scale = 1
	}
	id, err := o.store.Add(ctx, b)
	if err != nil {
		return queue.Result{Err: err}
	}
	return queue.Result{BodyID: id}
}

// applyRemove tombstones then removes the body unconditionally (spec §3:
// spawns/removes "mutate the store unconditionally"), after confirming
// the body still exists — a command targeting a nonexistent body replies
// NotFound and is dropped, same as the CAS paths below (spec §4.2/§7).
// The tombstone marker is kept for one further tick so Phase F can
// silently discard a worker reply that was already in flight for this
// body.
func (o *Orchestrator) applyRemove(ctx context.Context, cmd queue.Command) queue.Result {
	snap, err := o.store.Get(ctx, []body.ID{cmd.BodyID})
	if err != nil {
		return queue.Result{Err: err}
	}
	if _, ok := snap[cmd.BodyID]; !ok {
		return queue.Result{Err: ErrNotFound}
	}

	if o.tombstoned == nil {
		o.tombstoned = make(map[body.ID]uint64)
	}
	o.tombstoned[cmd.BodyID] = o.tick
	if err := o.store.Remove(ctx, []body.ID{cmd.BodyID}); err != nil {
		return queue.Result{Err: err}
	}
	return queue.Result{}
}

// applyWithRetry reads the current body, applies mutate, and CASes the
// result back with the read's version as baseline, retrying on conflict
// up to CommandRetries times before replying Conflict (spec §4.5 Phase
// A). ApplyImpulse uses this same path per the Open Question #2 decision
// recorded in DESIGN.md: it's folded in as ordinary CAS-retried state,
// not a special blind-write path.
func (o *Orchestrator) applyWithRetry(ctx context.Context, id body.ID, mutate func(body.Body) body.Body) queue.Result {
	retries := o.cfg.CommandRetries
	if retries <= 0 {
		retries = 3
	}
	for attempt := 0; attempt <= retries; attempt++ {
		snap, err := o.store.Get(ctx, []body.ID{id})
		if err != nil {
			return queue.Result{Err: err}
		}
		cur, ok := snap[id]
		if !ok {
			return queue.Result{Err: ErrNotFound}
		}
		next := mutate(cur)
		// Any command clears the Phase G sleep latch.
		next.Sleeping = false
		next.SleepTicks = 0
		res, err := o.store.CommitBatch(ctx, map[body.ID]body.Body{id: next}, map[body.ID]uint64{id: cur.Version})
		if err != nil {
			return queue.Result{Err: err}
		}
		if len(res.Committed) == 1 {
			return queue.Result{}
		}
		casConflictsTotal.Inc()
	}
	return queue.Result{Err: ErrConflict}
}

func applyPartial(b body.Body, p queue.PartialBody) body.Body {
	if p.Position != nil {
		b.Position = *p.Position
	}
	if p.Orientation != nil {
		b.Orientation = *p.Orientation
	}
	if p.VLin != nil {
		b.VLin = *p.VLin
	}
	if p.VAng != nil {
		b.VAng = *p.VAng
	}
	if p.InvMass != nil {
		b.InvMass = *p.InvMass
	}
	if p.Restitution != nil {
		b.Restitution = *p.Restitution
	}
	if p.Friction != nil {
		b.Friction = *p.Friction
	}
	if p.Shape != nil {
		b.Shape = *p.Shape
	}
	if p.Scale != nil {
		b.Scale = *p.Scale
	}
	return b
}

// expireTombstones drops tombstone markers older than one tick: they've
// served their purpose of letting Phase F discard a stale in-flight
// worker reply for the removed body (spec §3, Open Question #3).
func (o *Orchestrator) expireTombstones() {
	if o.tombstoned == nil {
		return
	}
	for id, removedAtTick := range o.tombstoned {
		if o.tick > removedAtTick+1 {
			delete(o.tombstoned, id)
		}
	}
}
