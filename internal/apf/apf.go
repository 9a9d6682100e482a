// Package apf implements CollisionAvoidanceLayer: at 40 Hz, applies an
// inverse-distance repulsive potential between robots' current poses to
// nudge their resolved targets away from collisions.
package apf

import (
	"math"
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// Layer reads resolved targets and current poses, applies a repulsive
// correction, and writes adjusted targets.
type Layer struct {
	Context  *fcontext.Context
	Interval time.Duration
	Clock    timeutil.Clock

	DInfluence    float64
	DSafety       float64
	KRep          float64
	Eta           float64
	MaxAdjustment float64
	enabled       bool

	stop chan struct{}
}

// New builds a Layer at the standard 40 Hz cadence, reading its gains from
// the shared tuning config.
func New(ctx *fcontext.Context) *Layer {
	return &Layer{
		Context:       ctx,
		Interval:      25 * time.Millisecond,
		Clock:         timeutil.RealClock{},
		DInfluence:    ctx.Tuning.GetAPFDInfluence(),
		DSafety:       ctx.Tuning.GetAPFDSafety(),
		KRep:          ctx.Tuning.GetAPFKRep(),
		Eta:           ctx.Tuning.GetAPFEta(),
		MaxAdjustment: ctx.Tuning.GetAPFMaxAdjustment(),
		enabled:       true,
		stop:          make(chan struct{}),
	}
}

// SetEnabled toggles APF correction; when disabled, resolved targets pass
// through unchanged.
func (l *Layer) SetEnabled(enabled bool) { l.enabled = enabled }

// Start runs the correction loop in its own goroutine.
func (l *Layer) Start() {
	go l.run()
}

// Stop requests the loop to exit.
func (l *Layer) Stop() {
	close(l.stop)
}

func (l *Layer) run() {
	ticker := l.Clock.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			l.cycle()
		case <-l.stop:
			return
		}
	}
}

func (l *Layer) cycle() {
	resolved := l.Context.Resolved.GetAll()
	poses := l.Context.AgentPose.GetAll()

	adjusted := make(map[int]geometry.Pose2D, len(resolved))
	for id, target := range resolved {
		if !l.enabled {
			adjusted[id] = target
			continue
		}
		pose := poses[id]
		if pose == nil {
			adjusted[id] = target
			continue
		}

		others := make([]geometry.Pose2D, 0, len(poses))
		for otherID, otherPose := range poses {
			if otherID != id && otherPose != nil {
				others = append(others, *otherPose)
			}
		}

		fx, fy := repulsiveForce(*pose, others, l.DInfluence, l.DSafety, l.KRep)
		ax, ay := adjustTarget(target, fx, fy, l.Eta, l.MaxAdjustment)
		adjusted[id] = geometry.Pose2D{X: ax, Y: ay, Theta: target.Theta}
	}
	l.Context.Adjusted.UpdateBatch(adjusted)
}

// repulsiveForce computes the total repulsive force on a robot from every
// other robot within d_influence, clamped against singularity at
// d_safety — an inverse-distance potential.
func repulsiveForce(pos geometry.Pose2D, others []geometry.Pose2D, dInfluence, dSafety, kRep float64) (fx, fy float64) {
	for _, other := range others {
		dx := pos.X - other.X
		dy := pos.Y - other.Y
		d := math.Hypot(dx, dy)

		if d < 1e-6 {
			// Identical positions: boundary case, skip.
			continue
		}
		if d >= dInfluence {
			continue
		}

		dClamped := math.Max(d, dSafety)
		magnitude := kRep * (1/dClamped - 1/dInfluence) * (1 / (dClamped * dClamped))

		ux, uy := dx/d, dy/d
		fx += magnitude * ux
		fy += magnitude * uy
	}
	return fx, fy
}

// adjustTarget nudges target by eta*force, optionally clamped so
// ‖adjusted − resolved‖ never exceeds maxAdjustment.
func adjustTarget(target geometry.Pose2D, fx, fy, eta, maxAdjustment float64) (x, y float64) {
	adjX := eta * fx
	adjY := eta * fy

	if maxAdjustment > 0 {
		mag := math.Hypot(adjX, adjY)
		if mag > maxAdjustment {
			scale := maxAdjustment / mag
			adjX *= scale
			adjY *= scale
		}
	}
	return target.X + adjX, target.Y + adjY
}
