package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	controllerReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azrael_controller_reconcile_total",
			Help: "Number of reconciliations by controller.",
		},
		[]string{"controller"},
	)
	controllerReconcileErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azrael_controller_reconcile_error_total",
			Help: "Number of reconciliation errors by controller.",
		},
		[]string{"controller"},
	)

	workerFleetDesiredReplicas = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "azrael_workerfleet_desired_replicas",
			Help: "Desired replica count computed by the last WorkerFleet reconcile, by fleet.",
		},
		[]string{"fleet"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		controllerReconcileTotal,
		controllerReconcileErrorTotal,
		workerFleetDesiredReplicas,
	)
}
