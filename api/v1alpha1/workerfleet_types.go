package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WorkerFleet automatically scales the Deployment running azrael-worker
// replicas (spec §4.4/§6 `pool_size`): the orchestrator's own pool_size
// setting is a static config value, and this controller is the ops-plane
// knob that actually right-sizes the backing Deployment so pool_size
// tracks real load instead of being hand-tuned.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=wf
// +kubebuilder:printcolumn:name="Deployment",type=string,JSONPath=`.spec.deploymentRef.name`
// +kubebuilder:printcolumn:name="Min",type=integer,JSONPath=`.spec.minReplicas`
// +kubebuilder:printcolumn:name="Max",type=integer,JSONPath=`.spec.maxReplicas`
// +kubebuilder:printcolumn:name="Current",type=integer,JSONPath=`.status.currentReplicas`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type WorkerFleet struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   WorkerFleetSpec   `json:"spec"`
	Status WorkerFleetStatus `json:"status,omitempty"`
}

type WorkerFleetSpec struct {
	// DeploymentRef references the Deployment running azrael-worker pods.
	DeploymentRef ObjectRef `json:"deploymentRef"`

	// MinReplicas is the minimum worker pool size (spec §6 `pool_size`
	// floor).
	// +kubebuilder:validation:Minimum=1
	MinReplicas int32 `json:"minReplicas"`

	// MaxReplicas is the maximum worker pool size.
	// +kubebuilder:validation:Minimum=1
	MaxReplicas int32 `json:"maxReplicas"`

	// Metrics defines the metrics to use for scaling.
	// Currently only supports CPU and Memory utilization.
	Metrics []MetricSpec `json:"metrics,omitempty"`
}

type MetricSpec struct {
	// Type is the type of metric (e.g., "Resource").
	Type string `json:"type"`

	// Resource defines the resource metric.
	Resource *ResourceMetricSource `json:"resource,omitempty"`
}

type ResourceMetricSource struct {
	// Name is the name of the resource (cpu, memory).
	Name string `json:"name"`

	// TargetAverageUtilization is the target value of the average of the
	// resource metric across all relevant pods, represented as a percentage of
	// the requested value of the resource for the pods.
	TargetAverageUtilization *int32 `json:"targetAverageUtilization,omitempty"`
}

type WorkerFleetStatus struct {
	ObservedGeneration int64              `json:"observedGeneration,omitempty"`
	CurrentReplicas    int32              `json:"currentReplicas"`
	DesiredReplicas    int32              `json:"desiredReplicas"`
	LastScaleTime      *metav1.Time       `json:"lastScaleTime,omitempty"`
	Conditions         []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
type WorkerFleetList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []WorkerFleet `json:"items"`
}

func init() {
	SchemeBuilder.Register(&WorkerFleet{}, &WorkerFleetList{})
}
