package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/azrael-sim/azrael/internal/changefeed"
	"github.com/azrael-sim/azrael/internal/forcegrid"
	"github.com/azrael-sim/azrael/internal/orchestrator"
	"github.com/azrael-sim/azrael/internal/queue"
	"github.com/azrael-sim/azrael/internal/store"
	"github.com/azrael-sim/azrael/internal/workerpool"
)

func main() {
	var configPath string
	var metricsAddr string
	var devLogging bool
	flag.StringVar(&configPath, "config", "", "path to orchestrator config YAML (spec defaults used if empty)")
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":9090", "address the Prometheus /metrics endpoint binds to")
	flag.BoolVar(&devLogging, "dev", false, "use zap's human-readable development logger")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if devLogging {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := orchestrator.DefaultConfig()
	if configPath != "" {
		cfg, err = orchestrator.LoadConfig(configPath)
		if err != nil {
			log.Fatalw("load config", "error", err)
		}
	}

	var st store.Store
	if cfg.Endpoints.StateStore != "" {
		st, err = store.NewDurable(cfg.Endpoints.StateStore)
	} else {
		st = store.NewInMemory()
	}
	if err != nil {
		log.Fatalw("open state store", "error", err)
	}

	pool, err := workerpool.Connect(workerpool.Config{
		NATSURL:    cfg.Endpoints.WorkerBroker,
		PoolSize:   cfg.PoolSize,
		QueueDepth: cfg.CommandQueueCapacity / max1(cfg.PoolSize),
	})
	if err != nil {
		log.Fatalw("connect worker pool", "error", err)
	}
	defer pool.Close()

	var feed changefeed.Publisher
	if cfg.Endpoints.ChangeFeed != "" {
		feed, err = changefeed.Connect(cfg.Endpoints.ChangeFeed)
		if err != nil {
			log.Fatalw("connect change feed", "error", err)
		}
	} else {
		feed = changefeed.Noop{}
	}
	defer feed.Close()

	q := queue.New(cfg.CommandQueueCapacity)
	grid := forcegrid.New(cfg.ForceGrid.Spacing)

	orch := orchestrator.New(cfg, st, q, grid, pool, feed, log)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		log.Infow("metrics endpoint listening", "address", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Errorw("metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infow("starting orchestrator tick loop", "tickPeriodSeconds", cfg.TickPeriodSeconds, "poolSize", cfg.PoolSize)
	if err := orch.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalw("orchestrator exited", "error", err)
	}
	log.Info("orchestrator shut down cleanly")
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
