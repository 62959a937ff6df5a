package controllers

import (
	"context"
	"math"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	metrics "k8s.io/metrics/pkg/client/clientset/versioned"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	azraelv1alpha1 "github.com/azrael-sim/azrael/api/v1alpha1"
)

// WorkerFleetReconciler reconciles a WorkerFleet object, right-sizing the
// Deployment running azrael-worker pods against CPU/memory utilization
// (spec §4.4/§6 `pool_size`): the orchestrator's own pool_size config is
// a static value it dials into workerpool.Config, while this controller
// is the ops-plane loop that keeps the backing Deployment's replica
// count tracking real load between deploys.
type WorkerFleetReconciler struct {
	client.Client
	Scheme        *runtime.Scheme
	Recorder      record.EventRecorder
	MetricsClient metrics.Interface
}

//+kubebuilder:rbac:groups=azrael.dev,resources=workerfleets,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=azrael.dev,resources=workerfleets/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=apps,resources=deployments,verbs=get;list;watch;update;patch

func (r *WorkerFleetReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	controllerReconcileTotal.WithLabelValues("WorkerFleet").Inc()

	var fleet azraelv1alpha1.WorkerFleet
	if err := r.Get(ctx, req.NamespacedName, &fleet); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	var deploy appsv1.Deployment
	if err := r.Get(ctx, client.ObjectKey{Namespace: req.Namespace, Name: fleet.Spec.DeploymentRef.Name}, &deploy); err != nil {
		controllerReconcileErrorTotal.WithLabelValues("WorkerFleet").Inc()
		logger.Error(err, "unable to fetch worker Deployment")
		return ctrl.Result{}, err
	}

	currentReplicas := int32(1)
	if deploy.Spec.Replicas != nil {
		currentReplicas = *deploy.Spec.Replicas
	}

	// Calculate desired replicas based on metrics.
	calculatedReplicas := currentReplicas
	if r.MetricsClient != nil {
		var maxDesired int32
		for _, metric := range fleet.Spec.Metrics {
			if metric.Type == "Resource" && metric.Resource != nil {
				desired, err := r.calculateReplicaCount(ctx, req.Namespace, &deploy, currentReplicas, metric.Resource)
				if err != nil {
					logger.Error(err, "failed to calculate replica count", "metric", metric.Resource.Name)
					continue
				}
				if desired > maxDesired {
					maxDesired = desired
				}
			}
		}
		if maxDesired > 0 {
			calculatedReplicas = maxDesired
		}
	}

	// Clamp to Min/Max.
	desiredReplicas := calculatedReplicas
	if desiredReplicas < fleet.Spec.MinReplicas {
		desiredReplicas = fleet.Spec.MinReplicas
	}
	if desiredReplicas > fleet.Spec.MaxReplicas {
		desiredReplicas = fleet.Spec.MaxReplicas
	}

	fleet.Status.CurrentReplicas = currentReplicas
	fleet.Status.DesiredReplicas = desiredReplicas
	now := metav1.Now()
	if desiredReplicas != currentReplicas {
		fleet.Status.LastScaleTime = &now
	}
	workerFleetDesiredReplicas.WithLabelValues(fleet.Name).Set(float64(desiredReplicas))

	if err := r.Status().Update(ctx, &fleet); err != nil {
		controllerReconcileErrorTotal.WithLabelValues("WorkerFleet").Inc()
		logger.Error(err, "unable to update WorkerFleet status")
		return ctrl.Result{}, err
	}

	if desiredReplicas != currentReplicas {
		logger.Info("scaling worker fleet", "current", currentReplicas, "desired", desiredReplicas)
		deploy.Spec.Replicas = &desiredReplicas
		if err := r.Update(ctx, &deploy); err != nil {
			controllerReconcileErrorTotal.WithLabelValues("WorkerFleet").Inc()
			logger.Error(err, "unable to update worker Deployment")
			return ctrl.Result{}, err
		}
	}

	return ctrl.Result{RequeueAfter: 30 * time.Second}, nil
}

func (r *WorkerFleetReconciler) calculateReplicaCount(ctx context.Context, namespace string, deploy *appsv1.Deployment, currentReplicas int32, resource *azraelv1alpha1.ResourceMetricSource) (int32, error) {
	if resource.TargetAverageUtilization == nil {
		return currentReplicas, nil
	}

	selector, err := metav1.LabelSelectorAsMap(deploy.Spec.Selector)
	if err != nil {
		return 0, err
	}

	podMetricsList, err := r.MetricsClient.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(deploy.Spec.Selector),
	})
	if err != nil {
		return 0, err
	}
	if len(podMetricsList.Items) == 0 {
		return currentReplicas, nil
	}

	// Requests aren't on PodMetrics, only usage is, so TargetAverageUtilization
	// (a percentage) needs the Pods themselves to compute a denominator.
	var podList corev1.PodList
	if err := r.List(ctx, &podList, client.InNamespace(namespace), client.MatchingLabels(selector)); err != nil {
		return 0, err
	}

	podRequests := make(map[string]int64) // podName -> request value
	for _, pod := range podList.Items {
		req := int64(0)
		for _, c := range pod.Spec.Containers {
			switch resource.Name {
			case "cpu":
				req += c.Resources.Requests.Cpu().MilliValue()
			case "memory":
				req += c.Resources.Requests.Memory().Value()
			}
		}
		podRequests[pod.Name] = req
	}

	var totalUsage, totalRequest int64
	count := 0
	for _, pm := range podMetricsList.Items {
		usage := int64(0)
		for _, c := range pm.Containers {
			switch resource.Name {
			case "cpu":
				usage += c.Usage.Cpu().MilliValue()
			case "memory":
				usage += c.Usage.Memory().Value()
			}
		}
		if req, ok := podRequests[pm.Name]; ok && req > 0 {
			totalUsage += usage
			totalRequest += req
			count++
		}
	}
	if count == 0 || totalRequest == 0 {
		return currentReplicas, nil
	}

	avgUtilization := (float64(totalUsage) / float64(totalRequest)) * 100
	targetUtilization := float64(*resource.TargetAverageUtilization)
	usageRatio := avgUtilization / targetUtilization
	desired := int32(math.Ceil(float64(currentReplicas) * usageRatio))
	return desired, nil
}

func (r *WorkerFleetReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&azraelv1alpha1.WorkerFleet{}).
		Complete(r)
}
