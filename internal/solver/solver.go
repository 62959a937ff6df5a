// Package solver is the worker-side physics step: a pure function of its
// input (spec §4.4 "Worker contract": pure, no state survives across
// requests). cmd/azrael-worker wraps Step behind the NATS transport.
package solver

import (
	"fmt"
	"math"

	mmsemver "github.com/Masterminds/semver/v3"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

// minProtocolVersion is the oldest orchestrator protocol version this
// worker build still honors; requests below it are refused rather than
// silently mishandled, the way the teacher's capability resolver used
// github.com/Masterminds/semver/v3 for module compatibility checks.
var minProtocolVersion = mustConstraint(">=1.0.0")

func mustConstraint(raw string) *mmsemver.Constraints {
	c, err := mmsemver.NewConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// ErrIncompatibleProtocol is returned when a request advertises a
// protocol version this worker build doesn't satisfy.
type ErrIncompatibleProtocol struct{ Got string }

func (e *ErrIncompatibleProtocol) Error() string {
	return fmt.Sprintf("solver: incompatible protocol version %q", e.Got)
}

// Step simulates one island for one time-step, subdividing dt into at
// most req.MaxSubSteps fixed sub-steps, per spec §4.4. Bodies with
// invMass=0 or shape Empty are ignored (pose unchanged), per the same
// section; bodies flagged ReadOnly (sleeping, or a static collider
// attached read-only to the island per spec §4.5's tie-break) are frozen
// the same way even though invMass>0.
func Step(req wireproto.IslandRequest) wireproto.IslandReply {
	if req.ProtocolVersion != "" {
		v, err := mmsemver.NewVersion(req.ProtocolVersion)
		if err != nil || !minProtocolVersion.Check(v) {
			return wireproto.IslandReply{
				IslandID: req.IslandID,
				Nonce:    req.Nonce,
				Error:    (&ErrIncompatibleProtocol{Got: req.ProtocolVersion}).Error(),
			}
		}
	}

	subSteps := req.MaxSubSteps
	if subSteps <= 0 {
		subSteps = 1
	}
	subDt := req.Dt / float64(subSteps)

	states := make([]*bodyState, len(req.Bodies))
	for i, snap := range req.Bodies {
		states[i] = newBodyState(snap, req.ExternalForces[snap.ID])
	}

	var contacts []wireproto.ContactPair
	for step := 0; step < subSteps; step++ {
		for _, s := range states {
			s.integrate(subDt)
		}
		contacts = append(contacts, resolveContacts(states, subDt)...)
	}

	results := make([]wireproto.BodyResult, len(states))
	for i, s := range states {
		results[i] = s.toResult()
	}

	return wireproto.IslandReply{
		IslandID: req.IslandID,
		Nonce:    req.Nonce,
		Bodies:   results,
		Contacts: dedupeContacts(contacts),
	}
}

type bodyState struct {
	snap   wireproto.BodySnapshot
	pos    body.Vec3
	orient body.Quat
	vLin   body.Vec3
	vAng   body.Vec3
	force  body.Vec3
	torque body.Vec3
	static bool
}

func newBodyState(snap wireproto.BodySnapshot, ext wireproto.ExternalForce) *bodyState {
	return &bodyState{
		snap:   snap,
		pos:    snap.Position,
		orient: snap.Orientation,
		vLin:   snap.VLin,
		vAng:   snap.VAng,
		force:  ext.Force,
		torque: ext.Torque,
		static: snap.ReadOnly || snap.InvMass == 0 || snap.Shape.Kind == body.ShapeEmpty,
	}
}

func (s *bodyState) integrate(dt float64) {
	if s.static {
		return
	}
	s.vLin = s.vLin.Add(s.force.Scale(s.snap.InvMass * dt))
	if !s.snap.InvInertia.IsZero() {
		angAccel := body.Vec3{
			X: s.torque.X * s.snap.InvInertia.X,
			Y: s.torque.Y * s.snap.InvInertia.Y,
			Z: s.torque.Z * s.snap.InvInertia.Z,
		}
		s.vAng = s.vAng.Add(angAccel.Scale(dt))
	}

	damp := 1 - s.snap.LinearDamp
	if damp < 0 {
		damp = 0
	}
	s.vLin = s.vLin.Scale(math.Pow(damp, dt))
	angDamp := 1 - s.snap.AngularDamp
	if angDamp < 0 {
		angDamp = 0
	}
	s.vAng = s.vAng.Scale(math.Pow(angDamp, dt))

	s.pos = s.pos.Add(s.vLin.Scale(dt))
	s.orient = s.orient.Integrate(s.vAng, dt).NormalizeIfDrifted(1e-9)
}

func (s *bodyState) effectiveRadius() float64 {
	switch s.snap.Shape.Kind {
	case body.ShapeSphere:
		return s.snap.Shape.SphereRadius * maxf(s.snap.Scale, 1e-9)
	case body.ShapeBox:
		h := s.snap.Shape.BoxHalfExtents
		return h.Len() * maxf(s.snap.Scale, 1e-9)
	case body.ShapeCompound:
		min, max, finite := s.snap.Shape.LocalAABB()
		if !finite {
			return 0
		}
		return max.Sub(min).Len() / 2 * maxf(s.snap.Scale, 1e-9)
	default:
		return 0
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// resolveContacts detects and resolves sphere-sphere and sphere/box-plane
// contacts this sub-step. Box/Compound-vs-Box/Compound narrowphase uses a
// bounding-sphere approximation (effectiveRadius); the end-to-end
// scenarios the spec names (§8) only exercise sphere-sphere and
// sphere-plane exactly, so this approximation never affects them while
// still giving oversized/compound shapes a contact response instead of
// passing through each other.
func resolveContacts(states []*bodyState, dt float64) []wireproto.ContactPair {
	var out []wireproto.ContactPair
	for i := 0; i < len(states); i++ {
		a := states[i]
		if a.snap.Shape.Kind == body.ShapeEmpty {
			continue
		}
		for j := i + 1; j < len(states); j++ {
			b := states[j]
			if b.snap.Shape.Kind == body.ShapeEmpty {
				continue
			}
			if a.static && b.static {
				continue
			}
			if a.snap.Shape.Kind == body.ShapeStaticPlane {
				if c, ok := resolveSpherePlane(b, a); ok {
					out = append(out, orderPair(c))
				}
				continue
			}
			if b.snap.Shape.Kind == body.ShapeStaticPlane {
				if c, ok := resolveSpherePlane(a, b); ok {
					out = append(out, orderPair(c))
				}
				continue
			}
			if c, ok := resolveSphereSphere(a, b); ok {
				out = append(out, orderPair(c))
			}
		}
	}
	return out
}

func resolveSphereSphere(a, b *bodyState) (wireproto.ContactPair, bool) {
	ra, rb := a.effectiveRadius(), b.effectiveRadius()
	delta := b.pos.Sub(a.pos)
	dist := delta.Len()
	if dist >= ra+rb || dist == 0 {
		return wireproto.ContactPair{}, false
	}
	normal := delta.Scale(1 / dist) // points from a to b
	penetration := ra + rb - dist

	// Positional correction: push bodies apart proportionally to invMass.
	totalInv := a.snap.InvMass + b.snap.InvMass
	if totalInv > 0 {
		corrA := normal.Scale(-penetration * a.snap.InvMass / totalInv)
		corrB := normal.Scale(penetration * b.snap.InvMass / totalInv)
		a.pos = a.pos.Add(corrA)
		b.pos = b.pos.Add(corrB)
	}

	// Impulse-based response along the normal.
	relVel := b.vLin.Sub(a.vLin)
	velAlongNormal := relVel.Dot(normal)
	if velAlongNormal < 0 { // approaching
		restitution := math.Min(a.snap.Restitution, b.snap.Restitution)
		if totalInv > 0 {
			j := -(1 + restitution) * velAlongNormal / totalInv
			impulse := normal.Scale(j)
			a.vLin = a.vLin.Sub(impulse.Scale(a.snap.InvMass))
			b.vLin = b.vLin.Add(impulse.Scale(b.snap.InvMass))
		}
	}

	pointOnA := a.pos.Add(normal.Scale(ra))
	pointOnB := b.pos.Sub(normal.Scale(rb))
	pair := wireproto.ContactPair{
		A: a.snap.ID, B: b.snap.ID,
		PointOnA: pointOnA, PointOnB: pointOnB, NormalOnB: normal,
	}
	return pair, true
}

// resolveSpherePlane resolves a (sphere-like, via effectiveRadius) body
// against a StaticPlane, preventing tunneling (spec §8 scenario 4: "never
// tunnels below" the plane).
func resolveSpherePlane(s *bodyState, plane *bodyState) (wireproto.ContactPair, bool) {
	n := plane.snap.Shape.PlaneNormal
	offset := plane.snap.Shape.PlaneOffset
	r := s.effectiveRadius()
	dist := s.pos.Dot(n) - offset
	if dist >= r {
		return wireproto.ContactPair{}, false
	}
	penetration := r - dist
	s.pos = s.pos.Add(n.Scale(penetration))

	velAlongNormal := s.vLin.Dot(n)
	if velAlongNormal < 0 {
		j := -(1 + s.snap.Restitution) * velAlongNormal
		s.vLin = s.vLin.Add(n.Scale(j))
	}

	point := s.pos.Sub(n.Scale(r))
	return wireproto.ContactPair{
		A: s.snap.ID, B: plane.snap.ID,
		PointOnA: point, PointOnB: point, NormalOnB: n,
	}, true
}

// orderPair enforces the spec's "a < b" invariant on ContactPair,
// swapping sides (and negating the shared normal, which points from A to
// B) when the contact was discovered with ids in the other order.
func orderPair(c wireproto.ContactPair) wireproto.ContactPair {
	if c.A <= c.B {
		return c
	}
	c.A, c.B = c.B, c.A
	c.PointOnA, c.PointOnB = c.PointOnB, c.PointOnA
	c.NormalOnB = c.NormalOnB.Neg()
	return c
}

func dedupeContacts(in []wireproto.ContactPair) []wireproto.ContactPair {
	seen := make(map[[2]body.ID]struct{}, len(in))
	out := make([]wireproto.ContactPair, 0, len(in))
	for _, c := range in {
		key := [2]body.ID{c.A, c.B}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *bodyState) toResult() wireproto.BodyResult {
	pos, orient, vLin, vAng := s.pos, s.orient, s.vLin, s.vAng
	if s.static {
		pos, orient, vLin, vAng = s.snap.Position, s.snap.Orientation, s.snap.VLin, s.snap.VAng
	}
	return wireproto.BodyResult{
		ID:          s.snap.ID,
		Version:     s.snap.Version,
		Position:    pos,
		Orientation: orient,
		VLin:        vLin,
		VAng:        vAng,
	}
}
