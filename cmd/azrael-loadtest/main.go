// Command azrael-loadtest drives an in-process orchestrator the same
// way the teacher's anvil-load-test command drives a live cluster: spawn
// N concurrent clients, each submitting one body, and measure the
// latency from command submission to the body's first committed
// physics version. Unlike the teacher's version this never touches a
// real cluster or broker — it wires the same internal/orchestrator used
// by cmd/azrael-orchestrator to an in-process fake worker (internal
// /solver.Step run directly, the same substitution
// internal/orchestrator's own tests use) so the load test is a
// single, dependency-free binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/changefeed"
	"github.com/azrael-sim/azrael/internal/forcegrid"
	"github.com/azrael-sim/azrael/internal/orchestrator"
	"github.com/azrael-sim/azrael/internal/queue"
	"github.com/azrael-sim/azrael/internal/solver"
	"github.com/azrael-sim/azrael/internal/store"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// inProcessWorker runs internal/solver.Step directly, so the load test
// exercises the orchestrator's real dispatch/merge logic without a live
// NATS broker in front of it.
type inProcessWorker struct{}

func (inProcessWorker) Submit(_ context.Context, req wireproto.IslandRequest) (*wireproto.IslandReply, error) {
	reply := solver.Step(req)
	return &reply, nil
}

func main() {
	var numBodies int
	var ticks int
	var tickPeriodMs int
	flag.IntVar(&numBodies, "bodies", 200, "number of bodies to spawn concurrently")
	flag.IntVar(&ticks, "ticks", 50, "number of ticks to run after spawning")
	flag.IntVar(&tickPeriodMs, "tick-period-ms", 10, "tick period in milliseconds")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := orchestrator.DefaultConfig()
	cfg.TickPeriodSeconds = float64(tickPeriodMs) / 1000
	cfg.CommandQueueCapacity = numBodies * 2

	st := store.NewInMemory()
	defer st.Close()
	q := queue.New(cfg.CommandQueueCapacity)
	grid := forcegrid.New(cfg.ForceGrid.Spacing)

	orch := orchestrator.New(cfg, st, q, grid, inProcessWorker{}, changefeed.Noop{}, log)

	versionEvents, cancelSub := st.Subscribe()
	defer cancelSub()

	firstCommit := make(map[body.ID]time.Time)
	var commitMu sync.Mutex
	go func() {
		for ev := range versionEvents {
			if ev.Version <= 1 {
				continue // the spawn's own Add (version 1) or a removal, not a physics commit
			}
			commitMu.Lock()
			if _, seen := firstCommit[ev.ID]; !seen {
				firstCommit[ev.ID] = time.Now()
			}
			commitMu.Unlock()
		}
	}()

	fmt.Printf("Starting load test: %d bodies, %d ticks, tick_period=%v\n", numBodies, ticks, cfg.TickPeriod())

	spawnStart := make(map[body.ID]time.Time)
	var spawnMu sync.Mutex

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < numBodies; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply := make(chan queue.Result, 1)
			cmd := queue.Command{
				Kind: queue.KindSpawn,
				InitialBody: body.Body{
					Position: body.Vec3{X: float64(i) * 10},
					VLin:     body.Vec3{X: 1},
					InvMass:  1,
					Scale:    1,
					Shape:    body.SphereShape(0.5),
				},
				Reply: reply,
			}
			submitTime := time.Now()
			if err := q.Enqueue(cmd); err != nil {
				fmt.Printf("spawn %d: enqueue failed: %v\n", i, err)
				return
			}
			result := <-reply
			if result.Err != nil {
				fmt.Printf("spawn %d: %v\n", i, result.Err)
				return
			}
			spawnMu.Lock()
			spawnStart[result.BodyID] = submitTime
			spawnMu.Unlock()
		}(i)
	}

	ctx := context.Background()
	for t := 0; t < ticks; t++ {
		if err := orch.Tick(ctx); err != nil {
			log.Errorw("tick failed", "tick", t, "error", err)
		}
		time.Sleep(cfg.TickPeriod())
	}
	wg.Wait()
	// Drain any trailing commit events.
	time.Sleep(50 * time.Millisecond)

	total := time.Since(start)

	commitMu.Lock()
	spawnMu.Lock()
	var totalLatency time.Duration
	count := 0
	for id, submitted := range spawnStart {
		if committed, ok := firstCommit[id]; ok {
			totalLatency += committed.Sub(submitted)
			count++
		}
	}
	spawnMu.Unlock()
	commitMu.Unlock()

	if count > 0 {
		fmt.Printf("Load test completed in %v. %d/%d bodies reached a first commit. Avg spawn-to-commit latency: %v\n",
			total, count, numBodies, totalLatency/time.Duration(count))
	} else {
		fmt.Printf("Load test completed in %v. No bodies reached a committed physics update.\n", total)
	}
}
