// Package orchestrator drives the simulation tick loop (spec §4.5): Phase
// A command intake, Phase B world load, Phase C force accumulation, Phase
// D broadphase, Phase E dispatch, Phase F merge & commit, Phase G sleep
// bookkeeping. Each phase is its own unexported method so in-package tests
// can assert on observable state between them, per spec §8.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/broadphase"
	"github.com/azrael-sim/azrael/internal/changefeed"
	"github.com/azrael-sim/azrael/internal/forcegrid"
	"github.com/azrael-sim/azrael/internal/queue"
	"github.com/azrael-sim/azrael/internal/store"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// Worker abstracts the dispatch endpoint so tests can substitute a fake
// without a live NATS connection; *workerpool.Pool satisfies it.
type Worker interface {
	Submit(ctx context.Context, req wireproto.IslandRequest) (*wireproto.IslandReply, error)
}

// Orchestrator is the single instance that owns the tick loop, per spec
// §9 "global state... lives in a single orchestrator instance". Its
// process-wide lifecycle is Configure -> Start -> (Tick)* -> Shutdown.
type Orchestrator struct {
	cfg    Config
	store  store.Store
	queue  *queue.Queue
	grid   *forcegrid.Grid
	pool   Worker
	feed   changefeed.Publisher
	log    *zap.SugaredLogger

	tick       uint64
	lastTick   time.Time
	tombstoned map[body.ID]uint64 // bodyID -> tick removed, per Open Question #3
}

// New wires the components the orchestrator depends on, per spec §2's
// dependency order (leaves first): State Store, Command Queue, Force
// Grid, Worker Pool, then the orchestrator itself.
func New(cfg Config, st store.Store, q *queue.Queue, grid *forcegrid.Grid, pool Worker, feed changefeed.Publisher, log *zap.SugaredLogger) *Orchestrator {
	if feed == nil {
		feed = changefeed.Noop{}
	}
	return &Orchestrator{cfg: cfg, store: st, queue: q, grid: grid, pool: pool, feed: feed, log: log}
}

// Start runs the tick loop until ctx is cancelled, scheduling the next
// tick at prev_start + T_tick if the current tick finished earlier, or
// immediately (incrementing tickOverrunTotal) otherwise. Ticks never
// overlap (spec §4.5 "Scheduling").
func (o *Orchestrator) Start(ctx context.Context) error {
	period := o.cfg.TickPeriod()
	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return o.Shutdown(context.Background())
		default:
		}

		start := time.Now()
		if start.Before(next) {
			select {
			case <-time.After(next.Sub(start)):
			case <-ctx.Done():
				return o.Shutdown(context.Background())
			}
			start = time.Now()
		} else if o.tick > 0 {
			tickOverrunTotal.Inc()
		}

		if err := o.Tick(ctx); err != nil {
			o.log.Errorw("tick failed", "tick", o.tick, "error", err)
			return fmt.Errorf("orchestrator: %w", err)
		}

		next = start.Add(period)
	}
}

// Shutdown finishes the current tick up to commit (Tick itself handles
// that per call), then drains the command queue and replies Shutdown to
// every pending command, per spec §5.
func (o *Orchestrator) Shutdown(_ context.Context) error {
	pending := o.queue.Close()
	for _, cmd := range pending {
		if cmd.Reply != nil {
			cmd.Reply <- queue.Result{Err: ErrShutdown}
		}
	}
	return o.store.Close()
}

// tickState threads per-tick working data between phases; it exists so
// each phase can remain a small, independently testable method instead of
// one long function body.
type tickState struct {
	nonce          string
	working        map[body.ID]body.Body
	externalForces map[body.ID]wireproto.ExternalForce
	islands        []broadphase.Island
	contacts       []wireproto.ContactPair
}

// Tick runs one full tick: A through G. It returns a non-nil error only
// for Fatal conditions (spec §7); WorkerTimeout/Conflict/Backpressure are
// handled internally per-island or per-command and never abort the tick.
func (o *Orchestrator) Tick(ctx context.Context) error {
	start := time.Now()
	o.tick++
	ts := &tickState{nonce: uuid.NewString()}

	if err := o.phaseA(ctx, ts); err != nil {
		return fmt.Errorf("phase A: %w", err)
	}
	if err := o.phaseB(ctx, ts); err != nil {
		return fmt.Errorf("phase B: %w", err)
	}
	o.phaseC(ts)
	o.phaseD(ts)
	outcomes := o.phaseE(ctx, ts)
	if err := o.phaseF(ctx, ts, outcomes); err != nil {
		return fmt.Errorf("phase F: %w", err)
	}
	o.phaseG(ctx, ts)

	tickDuration.Observe(time.Since(start).Seconds())
	o.lastTick = start
	return nil
}
