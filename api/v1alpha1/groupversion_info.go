// Package v1alpha1 contains API Schema definitions for the azrael.dev
// v1alpha1 API group — the ops-plane CRDs that surround the orchestrator
// core (spec §1 places these "out of scope" for the physics core itself,
// but they are the CRD plumbing the teacher's operator pattern needs to
// reconcile a WorkerFleet against the spec's §6 `pool_size`).
//
// +kubebuilder:object:generate=true
// +groupName=azrael.dev
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects.
	GroupVersion = schema.GroupVersion{Group: "azrael.dev", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme.
	AddToScheme = SchemeBuilder.AddToScheme
)
