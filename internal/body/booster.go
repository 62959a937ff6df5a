package body

// Booster is a fixed-direction, fixed-position force actuator on a body.
// Position and Direction are in the body's local frame; Force is the
// mutable scalar magnitude updated by SetForce commands.
type Booster struct {
	Position  Vec3
	Direction Vec3 // unit vector in body-local frame
	Force     float64
}

// WorldForceAndPoint returns the booster's force vector and application
// point in world coordinates, given the owning body's current pose.
func (b Booster) WorldForceAndPoint(bodyPos Vec3, bodyOrient Quat) (force, point Vec3) {
	dir := bodyOrient.RotateVec3(b.Direction)
	force = dir.Scale(b.Force)
	point = bodyOrient.RotateVec3(b.Position).Add(bodyPos)
	return force, point
}
