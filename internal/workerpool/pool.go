// Package workerpool is the orchestrator-side client of the Worker Pool
// (spec §4.4): a fleet of stateless rigid-body solvers reachable over
// NATS request/reply, addressed as a single async Submit(request) →
// reply endpoint with bounded in-flight requests.
package workerpool

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/semaphore"

	"github.com/azrael-sim/azrael/internal/wireproto"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrWorkerTimeout is returned when a per-request T_worker deadline
// expires before a reply arrives (spec §7).
var ErrWorkerTimeout = fmt.Errorf("workerpool: worker timeout")

// Pool submits island requests over NATS, bounding total in-flight
// requests to poolSize*queueDepth via a counting semaphore — the
// canonical bounded-concurrency primitive the spec names in §9, grounded
// the same way golang.org/x/sync/semaphore is used in the example pack's
// pooled-resource managers.
type Pool struct {
	nc       *nats.Conn
	sem      *semaphore.Weighted
	subject  string
}

// Config configures the client side of the worker pool.
type Config struct {
	NATSURL     string
	PoolSize    int
	QueueDepth  int
	Subject     string // defaults to wireproto.Subject
}

// Connect dials NATS and returns a ready Pool.
func Connect(cfg Config) (*Pool, error) {
	url := cfg.NATSURL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("workerpool: connect nats %s: %w", url, err)
	}
	subject := cfg.Subject
	if subject == "" {
		subject = wireproto.Subject
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	queueDepth := cfg.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 1
	}
	return &Pool{
		nc:      nc,
		sem:     semaphore.NewWeighted(int64(poolSize * queueDepth)),
		subject: subject,
	}, nil
}

// Submit sends req and blocks for its reply, bounded by ctx's deadline
// (the orchestrator sets this to T_worker per spec §4.4) and by the
// pool's in-flight semaphore. Acquiring the semaphore itself respects
// ctx, so a caller already past its deadline fails fast instead of
// queuing behind the cap.
func (p *Pool) Submit(ctx context.Context, req wireproto.IslandRequest) (*wireproto.IslandReply, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("workerpool: acquire in-flight slot: %w", err)
	}
	defer p.sem.Release(1)

	data, err := jsonc.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("workerpool: marshal request: %w", err)
	}

	msg, err := p.nc.RequestWithContext(ctx, p.subject, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrWorkerTimeout
		}
		return nil, fmt.Errorf("workerpool: request %s: %w", req.IslandID, err)
	}

	var reply wireproto.IslandReply
	if err := jsonc.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("workerpool: unmarshal reply: %w", err)
	}
	return &reply, nil
}

// Close drains the underlying NATS connection.
func (p *Pool) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
