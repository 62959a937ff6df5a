package controllers

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	azraelv1alpha1 "github.com/azrael-sim/azrael/api/v1alpha1"
)

func replicas(n int32) *int32 { return &n }

func TestWorkerFleet_Reconcile(t *testing.T) {
	ctx := context.Background()

	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	_ = azraelv1alpha1.AddToScheme(scheme)

	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "azrael-worker", Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: replicas(2)},
	}

	fleet := &azraelv1alpha1.WorkerFleet{
		ObjectMeta: metav1.ObjectMeta{Name: "wf-1", Namespace: "default"},
		Spec: azraelv1alpha1.WorkerFleetSpec{
			DeploymentRef: azraelv1alpha1.ObjectRef{Name: "azrael-worker"},
			MinReplicas:   1,
			MaxReplicas:   5,
		},
	}

	cl := fake.NewClientBuilder().WithScheme(scheme).WithObjects(deploy, fleet).WithStatusSubresource(fleet).Build()

	// MetricsClient is nil, so it should just clamp to Min/Max (already satisfied).
	r := &WorkerFleetReconciler{Client: cl, Scheme: scheme, MetricsClient: nil}

	_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: "wf-1"}})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	var updated azraelv1alpha1.WorkerFleet
	if err := cl.Get(ctx, types.NamespacedName{Namespace: "default", Name: "wf-1"}, &updated); err != nil {
		t.Fatalf("Get WorkerFleet failed: %v", err)
	}

	if updated.Status.CurrentReplicas != 2 {
		t.Errorf("expected CurrentReplicas 2, got %d", updated.Status.CurrentReplicas)
	}
	if updated.Status.DesiredReplicas != 2 {
		t.Errorf("expected DesiredReplicas 2, got %d", updated.Status.DesiredReplicas)
	}
}

func TestWorkerFleet_ScalesToMin(t *testing.T) {
	ctx := context.Background()

	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	_ = azraelv1alpha1.AddToScheme(scheme)

	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "azrael-worker", Namespace: "default"},
		Spec:       appsv1.DeploymentSpec{Replicas: replicas(1)},
	}

	fleet := &azraelv1alpha1.WorkerFleet{
		ObjectMeta: metav1.ObjectMeta{Name: "wf-1", Namespace: "default"},
		Spec: azraelv1alpha1.WorkerFleetSpec{
			DeploymentRef: azraelv1alpha1.ObjectRef{Name: "azrael-worker"},
			MinReplicas:   3,
			MaxReplicas:   5,
		},
	}

	cl := fake.NewClientBuilder().WithScheme(scheme).WithObjects(deploy, fleet).WithStatusSubresource(fleet).Build()

	r := &WorkerFleetReconciler{Client: cl, Scheme: scheme, MetricsClient: nil}

	_, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: "wf-1"}})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	var updatedDeploy appsv1.Deployment
	if err := cl.Get(ctx, types.NamespacedName{Namespace: "default", Name: "azrael-worker"}, &updatedDeploy); err != nil {
		t.Fatalf("Get Deployment failed: %v", err)
	}

	if updatedDeploy.Spec.Replicas == nil || *updatedDeploy.Spec.Replicas != 3 {
		t.Errorf("expected Deployment replicas scaled to 3, got %v", updatedDeploy.Spec.Replicas)
	}
}
