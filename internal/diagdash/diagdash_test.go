package diagdash

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/pathresolver"
	"github.com/swarmgrid/formation.control/internal/tuning"
)

func newTestContext() *fcontext.Context {
	return fcontext.New(tuning.EmptyConfig())
}

func TestSnapshotMergesStoresByID(t *testing.T) {
	ctx := newTestContext()
	pose := geometry.Pose2D{X: 1, Y: 2, Theta: 0.3}
	ctx.AgentPose.Update(0, &pose)
	ctx.Resolved.Update(0, geometry.Pose2D{X: 1.5, Y: 2.0})
	ctx.Adjusted.Update(0, geometry.Pose2D{X: 1.6, Y: 2.0})

	d := New(ctx)
	rows := d.snapshot()
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if !rows[0].HasPose {
		t.Fatal("expected HasPose true")
	}
	if rows[0].Adjustment == nil {
		t.Fatal("expected an adjustment magnitude to be computed")
	}
	want := 0.1
	if got := *rows[0].Adjustment; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("adjustment magnitude = %v, want ~%v", got, want)
	}
}

func TestHandleStatusReportsResolverAttachment(t *testing.T) {
	ctx := newTestContext()
	d := New(ctx)

	req := httptest.NewRequest(http.MethodGet, "/debug/formation-status", nil)
	rec := httptest.NewRecorder()
	d.handleStatus(rec, req)

	var body struct {
		ResolverAttached bool `json:"resolver_attached"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ResolverAttached {
		t.Fatal("no resolver attached, expected false")
	}

	d.WithResolver(pathresolver.New(ctx))
	rec2 := httptest.NewRecorder()
	d.handleStatus(rec2, req)
	if err := json.Unmarshal(rec2.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.ResolverAttached {
		t.Fatal("resolver attached, expected true")
	}
}

func TestHandleAdjustmentChartRendersHTML(t *testing.T) {
	ctx := newTestContext()
	d := New(ctx)
	req := httptest.NewRequest(http.MethodGet, "/debug/formation-adjustment-chart", nil)
	rec := httptest.NewRecorder()
	d.handleAdjustmentChart(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty chart HTML")
	}
}
