// Package queue implements the bounded command queue that the external
// API façade (out of scope here) enqueues into and the orchestrator's
// Phase A drains from.
package queue

import (
	"github.com/azrael-sim/azrael/internal/body"
)

// Kind tags the closed variant of externally submitted mutations.
type Kind int

const (
	KindSpawn Kind = iota
	KindRemove
	KindSetBody
	KindSetForce
	KindApplyImpulse
)

// PartialBody carries only the fields a SetBody command overrides; nil/zero
// pointer fields are left untouched on the target body.
type PartialBody struct {
	Position    *body.Vec3
	Orientation *body.Quat
	VLin        *body.Vec3
	VAng        *body.Vec3
	InvMass     *float64
	Restitution *float64
	Friction    *float64
	Shape       *body.Shape
	Scale       *float64
}

// Command is the tagged variant emitted by the external API, per spec §3.
type Command struct {
	Kind Kind

	// Spawn
	Template    string
	InitialBody body.Body

	// Remove / SetBody / SetForce / ApplyImpulse target
	BodyID body.ID

	// SetBody
	Partial PartialBody

	// SetForce
	BoosterIndex int
	Force        float64

	// ApplyImpulse
	Linear  body.Vec3
	Angular body.Vec3

	// Reply receives the command's outcome from the orchestrator; the
	// façade (not this package) owns turning it into a client response.
	// Bundled with the command per spec §4.2 "a per-command reply channel
	// bundled with the command".
	Reply chan Result
}

// Result is delivered on Command.Reply exactly once.
type Result struct {
	BodyID body.ID // populated for Spawn
	Err    error   // nil on success
}
