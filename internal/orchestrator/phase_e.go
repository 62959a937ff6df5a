package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/broadphase"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// islandOutcome pairs a dispatched island's request (needed by Phase F as
// the CAS baseline) with whatever reply or error came back.
type islandOutcome struct {
	request wireproto.IslandRequest
	reply   *wireproto.IslandReply
	err     error
}

// phaseE submits one request per island concurrently and awaits all
// outstanding futures with a global deadline T_deadline = T_tick*D (spec
// §4.5 Phase E). Outcomes are collected for Phase F to merge.
func (o *Orchestrator) phaseE(ctx context.Context, ts *tickState) []islandOutcome {
	outcomes := make([]islandOutcome, len(ts.islands))
	if len(ts.islands) == 0 {
		return outcomes
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, o.cfg.TickDeadline())
	defer cancel()

	var wg sync.WaitGroup
	for i, isl := range ts.islands {
		req := o.buildRequest(ts, isl, i)
		islandsDispatchedTotal.Inc()
		wg.Add(1)
		go func(idx int, req wireproto.IslandRequest) {
			defer wg.Done()
			reqCtx, reqCancel := context.WithTimeout(deadlineCtx, o.cfg.WorkerTimeout())
			defer reqCancel()
			reply, err := o.pool.Submit(reqCtx, req)
			if err != nil {
				workerTimeoutsTotal.Inc()
				outcomes[idx] = islandOutcome{request: req, err: err}
				return
			}
			if reply.Nonce != "" && reply.Nonce != req.Nonce {
				// Stale reply from a cancelled prior tick; ignore.
				outcomes[idx] = islandOutcome{request: req, err: ErrDeadlineExceeded}
				return
			}
			if reply.Error != "" {
				outcomes[idx] = islandOutcome{request: req, err: fmt.Errorf("worker error: %s", reply.Error)}
				return
			}
			outcomes[idx] = islandOutcome{request: req, reply: reply}
		}(i, req)
	}
	wg.Wait()
	return outcomes
}

func (o *Orchestrator) buildRequest(ts *tickState, isl broadphase.Island, idx int) wireproto.IslandRequest {
	snaps := make([]wireproto.BodySnapshot, 0, len(isl.Members)+len(isl.StaticMembers))
	for _, id := range isl.Members {
		b, ok := ts.working[id]
		if !ok {
			continue
		}
		snaps = append(snaps, toSnapshot(b, false))
	}
	for _, id := range isl.StaticMembers {
		b, ok := ts.working[id]
		if !ok {
			continue
		}
		snaps = append(snaps, toSnapshot(b, true))
	}
	return wireproto.IslandRequest{
		IslandID:        fmt.Sprintf("tick-%d-island-%d", o.tick, idx),
		Nonce:           ts.nonce,
		Dt:              o.cfg.TickPeriodSeconds,
		MaxSubSteps:     o.cfg.MaxSubSteps,
		ProtocolVersion: wireproto.ProtocolVersion,
		Bodies:          snaps,
		ExternalForces:  ts.externalForces,
	}
}

// toSnapshot builds the wire snapshot for b. readOnly marks a body
// attached to the island only as a collision partner (broadphase
// StaticMembers: a sleeping body or an invMass=0 static, possibly
// attached to several islands) — the solver must freeze it and the commit path must never
// write it back, per spec §4.5 Phase D's tie-break rule.
func toSnapshot(b body.Body, readOnly bool) wireproto.BodySnapshot {
	return wireproto.BodySnapshot{
		ID:          b.ID,
		Position:    b.Position,
		Orientation: b.Orientation,
		VLin:        b.VLin,
		VAng:        b.VAng,
		InvMass:     b.InvMass,
		Restitution: b.Restitution,
		Friction:    b.Friction,
		LinearDamp:  b.LinearDamp,
		AngularDamp: b.AngularDamp,
		InvInertia:  b.InvInertia,
		Shape:       b.Shape,
		Scale:       b.Scale,
		Version:     b.Version,
		ReadOnly:    readOnly,
	}
}
