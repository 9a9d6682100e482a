package apf

import (
	"math"
	"testing"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/tuning"
)

func newTestContext() *fcontext.Context {
	return fcontext.New(tuning.EmptyConfig())
}

// TestAPFNudgesTargetAwayFromCloseNeighbor: robot 0 at (0,0) targeting
// (1,0), robot 1 at (0.2,0). The repulsive force on robot 0 points toward
// -x, so the adjusted target's x is strictly less than 1.
func TestAPFNudgesTargetAwayFromCloseNeighbor(t *testing.T) {
	ctx := newTestContext()
	p0 := geometry.Pose2D{X: 0, Y: 0}
	p1 := geometry.Pose2D{X: 0.2, Y: 0}
	ctx.AgentPose.Update(0, &p0)
	ctx.AgentPose.Update(1, &p1)
	ctx.Resolved.Update(0, geometry.Pose2D{X: 1, Y: 0})
	ctx.Resolved.Update(1, geometry.Pose2D{X: -1, Y: 0})

	l := New(ctx)
	l.cycle()

	adj, ok := ctx.Adjusted.Get(0)
	if !ok {
		t.Fatal("expected an adjusted target for robot 0")
	}
	if adj.X >= 1.0 {
		t.Fatalf("adjusted target x = %v, want strictly less than 1.0", adj.X)
	}
	mag := math.Hypot(adj.X-1.0, adj.Y-0.0)
	if mag > l.MaxAdjustment+1e-9 {
		t.Fatalf("adjustment magnitude = %v, want <= %v", mag, l.MaxAdjustment)
	}
}

func TestIdenticalPositionsProduceZeroForce(t *testing.T) {
	fx, fy := repulsiveForce(geometry.Pose2D{X: 1, Y: 1}, []geometry.Pose2D{{X: 1, Y: 1}}, 0.3, 0.2, 0.01)
	if fx != 0 || fy != 0 {
		t.Fatalf("force = (%v,%v), want (0,0) for identical positions", fx, fy)
	}
}

func TestNoPoseDataPassesThrough(t *testing.T) {
	ctx := newTestContext()
	ctx.Resolved.Update(5, geometry.Pose2D{X: 3, Y: 4})
	l := New(ctx)
	l.cycle()

	adj, ok := ctx.Adjusted.Get(5)
	if !ok || adj.X != 3 || adj.Y != 4 {
		t.Fatalf("adjusted = %+v, ok=%v, want unchanged passthrough (3,4)", adj, ok)
	}
}

func TestDisabledPassesThroughUnchanged(t *testing.T) {
	ctx := newTestContext()
	p0 := geometry.Pose2D{X: 0, Y: 0}
	p1 := geometry.Pose2D{X: 0.1, Y: 0}
	ctx.AgentPose.Update(0, &p0)
	ctx.AgentPose.Update(1, &p1)
	ctx.Resolved.Update(0, geometry.Pose2D{X: 1, Y: 0})

	l := New(ctx)
	l.SetEnabled(false)
	l.cycle()

	adj, _ := ctx.Adjusted.Get(0)
	if adj.X != 1 {
		t.Fatalf("disabled layer should pass target through unchanged, got %+v", adj)
	}
}
