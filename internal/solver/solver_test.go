package solver

import (
	"math"
	"testing"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

func TestFreeFlightNoForces(t *testing.T) {
	req := wireproto.IslandRequest{
		IslandID:    "i1",
		Dt:          0.1,
		MaxSubSteps: 1,
		Bodies: []wireproto.BodySnapshot{
			{
				ID: 1, Position: body.Vec3{}, Orientation: body.IdentityQuat(),
				VLin: body.Vec3{X: 1}, InvMass: 1, Scale: 1,
				Shape: body.SphereShape(1),
			},
		},
	}
	reply := Step(req)
	if len(reply.Bodies) != 1 {
		t.Fatalf("expected 1 body, got %d", len(reply.Bodies))
	}
	got := reply.Bodies[0].Position
	if math.Abs(got.X-0.1) > 1e-9 {
		t.Fatalf("expected x ~0.1 after one tick, got %v", got.X)
	}
}

func TestStaticBodyNeverMoves(t *testing.T) {
	req := wireproto.IslandRequest{
		Dt: 0.1, MaxSubSteps: 1,
		Bodies: []wireproto.BodySnapshot{
			{ID: 1, Position: body.Vec3{X: 5}, InvMass: 0, Shape: body.SphereShape(1), Scale: 1},
		},
	}
	reply := Step(req)
	if reply.Bodies[0].Position != (body.Vec3{X: 5}) {
		t.Fatalf("static body moved: %+v", reply.Bodies[0].Position)
	}
}

func TestElasticCollisionSwapsVelocities(t *testing.T) {
	req := wireproto.IslandRequest{
		Dt: 0.01, MaxSubSteps: 1,
		Bodies: []wireproto.BodySnapshot{
			{ID: 1, Position: body.Vec3{X: -1}, VLin: body.Vec3{X: 1}, InvMass: 1, Restitution: 1, Shape: body.SphereShape(1), Scale: 1},
			{ID: 2, Position: body.Vec3{X: 1}, VLin: body.Vec3{X: -1}, InvMass: 1, Restitution: 1, Shape: body.SphereShape(1), Scale: 1},
		},
	}
	reply := Step(req)
	byID := map[body.ID]wireproto.BodyResult{}
	for _, b := range reply.Bodies {
		byID[b.ID] = b
	}
	if math.Abs(byID[1].VLin.X-(-1)) > 0.2 {
		t.Fatalf("expected body 1 vel ~ -1, got %v", byID[1].VLin.X)
	}
	if math.Abs(byID[2].VLin.X-1) > 0.2 {
		t.Fatalf("expected body 2 vel ~ 1, got %v", byID[2].VLin.X)
	}
}

func TestSpherePlaneNeverTunnels(t *testing.T) {
	req := wireproto.IslandRequest{
		Dt: 0.05, MaxSubSteps: 4,
		Bodies: []wireproto.BodySnapshot{
			{ID: 1, Position: body.Vec3{Y: 5}, VLin: body.Vec3{Y: -1}, InvMass: 1, Restitution: 1, Shape: body.SphereShape(1), Scale: 1},
			{ID: 2, InvMass: 0, Shape: body.StaticPlaneShape(body.Vec3{Y: 1}, 0), Scale: 1},
		},
	}
	for i := 0; i < 50; i++ {
		reply := Step(req)
		for _, b := range reply.Bodies {
			if b.ID != 1 {
				continue
			}
			if b.Position.Y < 1-1e-6 {
				t.Fatalf("sphere tunneled below plane: y=%v at iteration %d", b.Position.Y, i)
			}
			req.Bodies[0].Position = b.Position
			req.Bodies[0].VLin = b.VLin
		}
	}
}

func TestIncompatibleProtocolVersionRefused(t *testing.T) {
	req := wireproto.IslandRequest{ProtocolVersion: "0.9.0"}
	reply := Step(req)
	if reply.Error == "" {
		t.Fatal("expected error for incompatible protocol version")
	}
}
