package body

import "math"

// Vec3 is a plain 3-vector. Bodies, boosters and forces all use this type
// rather than a matrix library: the teacher's own physics reference
// (examples/.../physics/engine.go) keeps positions/velocities as bare
// struct fields, not a vector-math dependency.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}
func (a Vec3) Len() float64    { return math.Sqrt(a.Dot(a)) }
func (a Vec3) LenSq() float64  { return a.Dot(a) }
func (a Vec3) Neg() Vec3       { return Vec3{-a.X, -a.Y, -a.Z} }
func (a Vec3) IsZero() bool    { return a.X == 0 && a.Y == 0 && a.Z == 0 }

func (a Vec3) Normalized() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

func Min3(a, b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func Max3(a, b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// Quat is a Hamilton quaternion (x, y, z, w) representing orientation.
type Quat struct {
	X, Y, Z, W float64
}

func IdentityQuat() Quat { return Quat{0, 0, 0, 1} }

func (q Quat) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// NormalizeIfDrifted renormalizes q when its length has drifted from 1 by
// more than eps, matching the spec's "renormalize if drift exceeds ε"
// invariant. Returns q unchanged when within tolerance.
func (q Quat) NormalizeIfDrifted(eps float64) Quat {
	l := q.Len()
	if math.Abs(l-1) <= eps || l == 0 {
		return q
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// RotateVec3 rotates v by quaternion q (q must be unit-length).
func (q Quat) RotateVec3(v Vec3) Vec3 {
	qv := Vec3{q.X, q.Y, q.Z}
	uv := qv.Cross(v)
	uuv := qv.Cross(uv)
	return v.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

// Mul composes two rotations: the result rotates by b first, then a.
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// Integrate advances orientation by angular velocity omega over dt using
// the standard first-order quaternion derivative q' = 0.5 * [omega,0] * q.
func (q Quat) Integrate(omega Vec3, dt float64) Quat {
	half := Quat{omega.X * 0.5 * dt, omega.Y * 0.5 * dt, omega.Z * 0.5 * dt, 0}
	dq := half.Mul(q)
	return Quat{q.X + dq.X, q.Y + dq.Y, q.Z + dq.Z, q.W + dq.W}
}
