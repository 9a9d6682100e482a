// Package diagdash exposes a read-only operator view into the controller's
// shared stores: a live pose/target/conflict table and a pair of
// go-echarts charts, attached to a ServeMux via tsweb.Debugger. Nothing
// here mutates pipeline state.
package diagdash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/pathresolver"
)

// Dashboard renders diagnostics for a running Context. Resolver is optional;
// when nil, the status payload omits the active-conflict count and the
// conflict chart shows zero.
type Dashboard struct {
	Context  *fcontext.Context
	Resolver *pathresolver.Resolver
}

// New builds a Dashboard over ctx. Attach resolver with WithResolver if the
// active-conflict count should be surfaced.
func New(ctx *fcontext.Context) *Dashboard {
	return &Dashboard{Context: ctx}
}

// WithResolver attaches the conflict resolver whose active-conflict count
// the dashboard should report.
func (d *Dashboard) WithResolver(r *pathresolver.Resolver) *Dashboard {
	d.Resolver = r
	return d
}

// AttachRoutes registers the dashboard's debug endpoints on mux under
// tsweb's standard /debug/ prefix.
func (d *Dashboard) AttachRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("formation-status", "live agent pose/target/conflict snapshot (JSON)", d.handleStatus)
	debug.HandleFunc("formation-adjustment-chart", "APF adjustment magnitude per agent (chart)", d.handleAdjustmentChart)
	debug.HandleFunc("formation-conflict-chart", "active path-crossing conflicts (chart)", d.handleConflictChart)
}

// agentSnapshot is one agent's row in the status table.
type agentSnapshot struct {
	ID         int      `json:"id"`
	HasPose    bool     `json:"has_pose"`
	Pose       *rowXYT  `json:"pose,omitempty"`
	Resolved   *rowXY   `json:"resolved,omitempty"`
	Adjusted   *rowXY   `json:"adjusted,omitempty"`
	Adjustment *float64 `json:"adjustment_magnitude,omitempty"`
}

type rowXY struct{ X, Y float64 }
type rowXYT struct{ X, Y, Theta float64 }

func (d *Dashboard) snapshot() []agentSnapshot {
	poses := d.Context.AgentPose.GetAll()
	resolved := d.Context.Resolved.GetAll()
	adjusted := d.Context.Adjusted.GetAll()

	ids := make(map[int]struct{})
	for id := range poses {
		ids[id] = struct{}{}
	}
	for id := range resolved {
		ids[id] = struct{}{}
	}
	for id := range adjusted {
		ids[id] = struct{}{}
	}

	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	rows := make([]agentSnapshot, 0, len(sorted))
	for _, id := range sorted {
		row := agentSnapshot{ID: id}
		if p := poses[id]; p != nil {
			row.HasPose = true
			row.Pose = &rowXYT{X: p.X, Y: p.Y, Theta: p.Theta}
		}
		if r, ok := resolved[id]; ok {
			row.Resolved = &rowXY{X: r.X, Y: r.Y}
		}
		if a, ok := adjusted[id]; ok {
			row.Adjusted = &rowXY{X: a.X, Y: a.Y}
		}
		if row.Resolved != nil && row.Adjusted != nil {
			mag := adjustmentMagnitude(*row.Resolved, *row.Adjusted)
			row.Adjustment = &mag
		}
		rows = append(rows, row)
	}
	return rows
}

func adjustmentMagnitude(resolved, adjusted rowXY) float64 {
	return math.Hypot(adjusted.X-resolved.X, adjusted.Y-resolved.Y)
}

func (d *Dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Agents              []agentSnapshot `json:"agents"`
		ActiveConflictCount int             `json:"active_conflict_count,omitempty"`
		ResolverAttached    bool            `json:"resolver_attached"`
	}{
		Agents:           d.snapshot(),
		ResolverAttached: d.Resolver != nil,
	}
	if d.Resolver != nil {
		payload.ActiveConflictCount = d.Resolver.ActiveConflictCount()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// handleAdjustmentChart plots the APF correction magnitude per agent,
// i.e. ‖adjusted − resolved‖.
func (d *Dashboard) handleAdjustmentChart(w http.ResponseWriter, r *http.Request) {
	rows := d.snapshot()

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "APF Adjustment Magnitude", Theme: "dark", Width: "700px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "APF adjustment magnitude per agent"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(rows))
	values := make([]opts.BarData, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, fmt.Sprintf("agent %d", row.ID))
		mag := 0.0
		if row.Adjustment != nil {
			mag = *row.Adjustment
		}
		values = append(values, opts.BarData{Value: mag})
	}

	bar.SetXAxis(labels).AddSeries("adjustment (m)", values)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleConflictChart plots a single-bar count of the resolver's active
// conflict set, if a resolver is attached.
func (d *Dashboard) handleConflictChart(w http.ResponseWriter, r *http.Request) {
	count := 0
	if d.Resolver != nil {
		count = d.Resolver.ActiveConflictCount()
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Active Path Conflicts", Theme: "dark", Width: "400px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Active path-crossing conflicts"}),
	)
	bar.SetXAxis([]string{"active"}).AddSeries("conflicts", []opts.BarData{{Value: count}})

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
