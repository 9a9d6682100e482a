package positionupdater

import (
	"strings"
	"testing"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/linkio"
	"github.com/swarmgrid/formation.control/internal/tuning"
)

func newTestContext() *fcontext.Context {
	return fcontext.New(tuning.EmptyConfig())
}

// TestMarkerLossEmitsHoldRecords: only agents 0 and 1 have known poses;
// agents 2 and 3 must each emit exactly one hold record.
func TestMarkerLossEmitsHoldRecords(t *testing.T) {
	ctx := newTestContext()
	p0 := geometry.Pose2D{X: 1, Y: 2, Theta: 0.1}
	p1 := geometry.Pose2D{X: 3, Y: 4, Theta: 0.2}
	ctx.AgentPose.Update(0, &p0)
	ctx.AgentPose.Update(1, &p1)
	ctx.AgentPose.Update(2, nil)
	ctx.AgentPose.Update(3, nil)
	ctx.Port() // no-op to exercise read path
	ctx.SetPort("/dev/ttyACM0")

	factory := &linkio.MockPortFactory{}
	writer := linkio.NewWriter(factory, 115200)
	u := New(ctx, writer)
	u.cycle()

	lines := factory.LastPort.Writes()
	if len(lines) != len(fcontext.KnownAgentIDs) {
		t.Fatalf("wrote %d lines, want exactly one per known agent id (%d)", len(lines), len(fcontext.KnownAgentIDs))
	}

	holds := 0
	for _, l := range lines {
		s := string(l)
		if strings.HasPrefix(s, "0,") {
			holds++
		}
	}
	if holds != 2 {
		t.Fatalf("hold records = %d, want 2 (agents 2 and 3)", holds)
	}
}

func TestFormatRecordUsesAdjustedTargetWhenPresent(t *testing.T) {
	pose := geometry.Pose2D{X: 1, Y: 2, Theta: 0.5}
	targets := map[int]geometry.Pose2D{0: {X: 9, Y: 8}}
	line := formatRecord(0, &pose, targets)
	want := "1,0,1.000,2.000,0.500,9.000,8.000\n"
	if line != want {
		t.Fatalf("formatRecord = %q, want %q", line, want)
	}
}

func TestFormatRecordHoldsOnUnknownPose(t *testing.T) {
	line := formatRecord(3, nil, nil)
	if line != "0,3,0,0,0,0,0\n" {
		t.Fatalf("formatRecord = %q, want hold record", line)
	}
}

func TestCycleNoopWithoutPort(t *testing.T) {
	ctx := newTestContext()
	factory := &linkio.MockPortFactory{}
	writer := linkio.NewWriter(factory, 115200)
	u := New(ctx, writer)
	u.cycle()
	if factory.OpenCount != 0 {
		t.Fatal("no port configured should mean no serial open attempt")
	}
}
