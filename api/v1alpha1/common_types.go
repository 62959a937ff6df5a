package v1alpha1

// ObjectRef names a same-namespace object the WorkerFleet CRD points at
// (the worker Deployment it scales).
type ObjectRef struct {
	Name string `json:"name"`
}
