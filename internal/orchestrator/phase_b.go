package orchestrator

import "context"

// phaseB loads the working set W via GetAll (spec §4.5 Phase B). Sleeping
// bodies stay in the working set (they still participate in broadphase as
// static colliders) but are excluded from dispatch by phaseD/phaseE.
func (o *Orchestrator) phaseB(ctx context.Context, ts *tickState) error {
	working, err := o.store.GetAll(ctx)
	if err != nil {
		return err
	}
	ts.working = working
	return nil
}
