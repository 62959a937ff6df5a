package orchestrator

import (
	"context"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/changefeed"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// phaseF merges successful worker replies and commits them via CAS using
// each body's request-baseline version, discards stale/conflicting
// updates, renormalizes drifted quaternions, and forwards contacts to the
// change feed (spec §4.5 Phase F).
func (o *Orchestrator) phaseF(ctx context.Context, ts *tickState, outcomes []islandOutcome) error {
	writes := make(map[body.ID]body.Body)
	baselines := make(map[body.ID]uint64)
	var allContacts []wireproto.ContactPair

	for _, oc := range outcomes {
		if oc.err != nil || oc.reply == nil {
			// WorkerTimeout/WorkerError/stale reply: per spec §7 this is
			// per-island, logged, never client-visible; bodies in it
			// retain previous state and version, retried next tick.
			if oc.err != nil {
				o.log.Debugw("island failed this tick", "island", oc.request.IslandID, "error", oc.err)
			}
			continue
		}
		readOnly := make(map[body.ID]struct{})
		for _, snap := range oc.request.Bodies {
			if snap.ReadOnly {
				readOnly[snap.ID] = struct{}{}
			}
		}

		for _, br := range oc.reply.Bodies {
			if _, ok := readOnly[br.ID]; ok {
				// Sleeping body or static collider attached read-only
				// (broadphase StaticMembers, spec §4.5 tie-break): it
				// rode along as a read-only collision partner and its
				// post-tick update is the identity — never committed,
				// so its version never bumps from this island.
				continue
			}
			if o.isTombstoned(br.ID) {
				o.log.Debugw("discarding worker reply for tombstoned body", "body", br.ID)
				continue
			}
			cur, ok := ts.working[br.ID]
			if !ok {
				continue
			}
			next := cur
			next.Position = br.Position
			next.Orientation = br.Orientation.NormalizeIfDrifted(o.cfg.QuaternionRenormEps)
			next.VLin = br.VLin
			next.VAng = br.VAng
			writes[br.ID] = next
			baselines[br.ID] = br.Version
		}
		allContacts = append(allContacts, oc.reply.Contacts...)
	}

	if len(writes) > 0 {
		res, err := o.store.CommitBatch(ctx, writes, baselines)
		if err != nil {
			return err
		}
		if len(res.Conflicted) > 0 {
			casConflictsTotal.Add(float64(len(res.Conflicted)))
		}
		for _, id := range res.Committed {
			_ = o.feed.PublishVersionBump(ctx, changefeed.VersionBump{BodyID: id, Version: baselines[id] + 1})
		}
	}

	ts.contacts = allContacts
	if len(allContacts) > 0 {
		_ = o.feed.PublishContacts(ctx, changefeed.ContactEvent{Tick: o.tick, Contacts: allContacts})
	}
	return nil
}

func (o *Orchestrator) isTombstoned(id body.ID) bool {
	if o.tombstoned == nil {
		return false
	}
	_, ok := o.tombstoned[id]
	return ok
}
