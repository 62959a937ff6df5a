package body

import (
	"math"
	"testing"
)

func TestQuatNormalizeIfDrifted(t *testing.T) {
	q := Quat{1, 0, 0, 1} // len sqrt(2), well outside tolerance
	got := q.NormalizeIfDrifted(1e-6)
	if math.Abs(got.Len()-1) > 1e-9 {
		t.Fatalf("expected renormalized unit quaternion, got len %v", got.Len())
	}

	within := Quat{0, 0, 0, 1}.NormalizeIfDrifted(1e-6)
	if within != (Quat{0, 0, 0, 1}) {
		t.Fatalf("expected untouched quaternion within tolerance, got %v", within)
	}
}

func TestAABBOverlaps(t *testing.T) {
	a := AABB{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := AABB{Min: Vec3{0.5, 0.5, 0.5}, Max: Vec3{2, 2, 2}}
	if !a.Overlaps(b) {
		t.Fatal("expected overlap")
	}
	c := AABB{Min: Vec3{5, 5, 5}, Max: Vec3{6, 6, 6}}
	if a.Overlaps(c) {
		t.Fatal("expected no overlap")
	}
}

func TestBodyIsStaticNeverMovedByImpulse(t *testing.T) {
	b := Body{InvMass: 0, VLin: Vec3{1, 2, 3}}
	got := b.ApplyImpulse(Vec3{10, 10, 10}, Vec3{10, 10, 10})
	if got.VLin != b.VLin {
		t.Fatalf("static body velocity must not change, got %+v", got.VLin)
	}
}

func TestApplyImpulseScalesByInverseMass(t *testing.T) {
	b := Body{InvMass: 0.5, InvInertia: Vec3{1, 1, 1}}
	got := b.ApplyImpulse(Vec3{2, 0, 0}, Vec3{0, 0, 0})
	if got.VLin != (Vec3{1, 0, 0}) {
		t.Fatalf("expected vlin {1 0 0}, got %+v", got.VLin)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := Body{Boosters: []Booster{{Force: 1}}}
	c := b.Clone()
	c.Boosters[0].Force = 99
	if b.Boosters[0].Force != 1 {
		t.Fatal("mutating clone's boosters must not affect original")
	}
}

func TestSphereWorldAABB(t *testing.T) {
	b := Body{
		Position: Vec3{1, 2, 3},
		Orientation: IdentityQuat(),
		Scale:    1,
		Shape:    SphereShape(2),
	}
	got := b.WorldAABB(1000)
	want := AABB{Min: Vec3{-1, 0, 1}, Max: Vec3{3, 4, 5}}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
