// Package wireproto defines the worker request/reply wire format (spec
// §4.4 / §6 "Worker protocol"), shared by the orchestrator-side
// internal/workerpool client and the worker-side internal/solver and
// cmd/azrael-worker. Encoded as compact JSON over NATS request/reply
// (see DESIGN.md for why: no generated protobuf contract was retrieved
// into the pack to ground a gRPC client on).
package wireproto

import "github.com/azrael-sim/azrael/internal/body"

// ProtocolVersion is advertised by every island request the orchestrator
// builds, so the worker can apply a semver compatibility gate and refuse
// a request it can't honor — see internal/solver's direct use of
// github.com/Masterminds/semver/v3.
const ProtocolVersion = "1.0.0"

// Subject is the NATS subject every azrael-worker subscribes to under a
// shared queue group, so NATS fans each request out to exactly one idle
// replica (the "broker socket that fan-outs to idle replicas" the spec
// describes).
const Subject = "azrael.worker.step"

// QueueGroup is the NATS queue group name workers share.
const QueueGroup = "azrael-workers"

// BodySnapshot carries full body state plus collision shape and version,
// as spec §4.4 requires for the request payload. ReadOnly marks a body
// attached to the island only as a collision partner — a sleeping body
// included per spec §4.5 Phase B ("sleeping bodies... must still
// participate in broadphase as static colliders") or a genuine
// invMass=0 static body overlapping the island, attached read-only to
// every island it touches (spec §4.5 tie-break) — whose post-tick update
// must be the identity even
// though it rides along in the same request as the island's active
// members.
type BodySnapshot struct {
	ID          body.ID     `json:"id"`
	Position    body.Vec3   `json:"position"`
	Orientation body.Quat   `json:"orientation"`
	VLin        body.Vec3   `json:"vLin"`
	VAng        body.Vec3   `json:"vAng"`
	InvMass     float64     `json:"invMass"`
	Restitution float64     `json:"restitution"`
	Friction    float64     `json:"friction"`
	LinearDamp  float64     `json:"linearDamp"`
	AngularDamp float64     `json:"angularDamp"`
	InvInertia  body.Vec3   `json:"invInertia"`
	Shape       body.Shape  `json:"shape"`
	Scale       float64     `json:"scale"`
	Version     uint64      `json:"version"`
	ReadOnly    bool        `json:"readOnly,omitempty"`
}

// ExternalForce is the aggregated {force, torque} computed in Phase C for
// one body, attached to the request but never seen by the body's own
// boosters/grid sample directly — the worker only sees the sum.
type ExternalForce struct {
	Force  body.Vec3 `json:"force"`
	Torque body.Vec3 `json:"torque"`
}

// IslandRequest is one worker call: simulate one island for one time-step.
type IslandRequest struct {
	IslandID       string                        `json:"islandId"`
	Nonce          string                        `json:"nonce"`
	Dt             float64                       `json:"dt"`
	MaxSubSteps    int                           `json:"maxSubSteps"`
	ProtocolVersion string                       `json:"protocolVersion"`
	Bodies         []BodySnapshot                `json:"bodies"`
	ExternalForces map[body.ID]ExternalForce     `json:"externalForces"`
}

// BodyResult is one body's post-step state in a reply.
type BodyResult struct {
	ID          body.ID   `json:"id"`
	Version     uint64    `json:"version"` // echoes the request's version for CAS baseline
	Position    body.Vec3 `json:"position"`
	Orientation body.Quat `json:"orientation"`
	VLin        body.Vec3 `json:"vLin"`
	VAng        body.Vec3 `json:"vAng"`
}

// ContactPair is the transient per-tick contact record, spec §3. A < B
// always holds by construction.
type ContactPair struct {
	A         body.ID   `json:"a"`
	B         body.ID   `json:"b"`
	PointOnA  body.Vec3 `json:"pointOnA"`
	PointOnB  body.Vec3 `json:"pointOnB"`
	NormalOnB body.Vec3 `json:"normalOnB"`
}

// IslandReply is the worker's response to an IslandRequest.
type IslandReply struct {
	IslandID string        `json:"islandId"`
	Nonce    string        `json:"nonce"`
	Bodies   []BodyResult  `json:"bodies"`
	Contacts []ContactPair `json:"contacts"`
	Error    string        `json:"error,omitempty"`
}
