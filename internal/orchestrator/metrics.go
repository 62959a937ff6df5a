package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "azrael_tick_duration_seconds",
			Help:    "Wall-clock duration of a full orchestrator tick.",
			Buckets: prometheus.DefBuckets,
		},
	)

	tickOverrunTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "azrael_tick_overrun_total",
			Help: "Number of ticks that started immediately because the previous tick overran T_tick.",
		},
	)

	casConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "azrael_cas_conflicts_total",
			Help: "Number of CAS conflicts across both command application and physics merge.",
		},
	)

	islandsDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "azrael_islands_dispatched_total",
			Help: "Number of islands submitted to the worker pool.",
		},
	)

	workerTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "azrael_worker_timeouts_total",
			Help: "Number of islands whose worker submission returned an error (timeout or transport failure).",
		},
	)

	commandsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azrael_commands_processed_total",
			Help: "Commands processed in Phase A, by outcome.",
		},
		[]string{"outcome"},
	)

	bodiesSleepingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "azrael_bodies_sleeping",
			Help: "Number of bodies currently marked sleeping.",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		tickDuration,
		tickOverrunTotal,
		casConflictsTotal,
		islandsDispatchedTotal,
		workerTimeoutsTotal,
		commandsProcessedTotal,
		bodiesSleepingGauge,
	)
}
