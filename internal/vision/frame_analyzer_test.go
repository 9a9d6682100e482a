package vision

import (
	"testing"
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/timeutil"
	"github.com/swarmgrid/formation.control/internal/tuning"
)

type fakeEstimator struct {
	poses map[int][3]float64 // id -> x,y,yaw
}

func (f fakeEstimator) EstimatePose(d MarkerDetection, markerLength float64, calib Calibration) (float64, float64, float64, error) {
	p := f.poses[d.ID]
	return p[0], p[1], p[2], nil
}

func newTestContext() *fcontext.Context {
	return fcontext.New(tuning.EmptyConfig())
}

func TestFrameAnalyzerMarksUnseenKnownIDsAbsent(t *testing.T) {
	ctx := newTestContext()
	ctx.FrameData.Update(fcontext.FrameData{
		IDs:     []int{0, 1},
		Corners: [][4][2]float64{{}, {}},
	})

	a := NewFrameAnalyzer(fakeEstimator{poses: map[int][3]float64{
		0: {1, 2, 0.5},
		1: {3, 4, 0.1},
	}}, Calibration{}, ctx, 0.12)
	a.Clock = timeutil.RealClock{}
	a.cycle()

	for _, id := range []int{2, 3} {
		p, _ := ctx.AgentPose.Get(id)
		if p != nil {
			t.Errorf("agent %d pose = %+v, want nil (not seen)", id, p)
		}
	}
	p0, ok := ctx.AgentPose.Get(0)
	if !ok || p0 == nil || p0.X != 1 || p0.Y != 2 {
		t.Errorf("agent 0 pose = %+v, want (1,2,0.5)", p0)
	}
}

func TestFrameAnalyzerIgnoresUnknownMarkerIDs(t *testing.T) {
	ctx := newTestContext()
	ctx.FrameData.Update(fcontext.FrameData{
		IDs:     []int{99},
		Corners: [][4][2]float64{{}},
	})

	a := NewFrameAnalyzer(fakeEstimator{poses: map[int][3]float64{99: {0, 0, 0}}}, Calibration{}, ctx, 0.12)
	a.cycle()

	if _, ok := ctx.AgentPose.Get(99); ok {
		t.Fatal("unknown marker id 99 should never be written to the agent pose store")
	}
	for _, id := range fcontext.KnownAgentIDs {
		if p, ok := ctx.AgentPose.Get(id); !ok || p != nil {
			t.Errorf("known agent %d = %+v, %v, want nil, true (absent this frame)", id, p, ok)
		}
	}
}

func TestFrameAnalyzerEmptyDetectionMarksEveryoneAbsent(t *testing.T) {
	ctx := newTestContext()
	a := NewFrameAnalyzer(fakeEstimator{}, Calibration{}, ctx, 0.12)
	a.IdleInterval = time.Millisecond
	a.cycle()

	for _, id := range fcontext.KnownAgentIDs {
		if p, ok := ctx.AgentPose.Get(id); !ok || p != nil {
			t.Errorf("agent %d = %+v, %v, want nil, true", id, p, ok)
		}
	}
}
