// Package dispatcher implements FormationDispatcher: at 2 Hz, walks the
// homogeneous-transform chain from the formation descriptor and publishes
// a pose per link.
package dispatcher

import (
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// FormationDispatcher reads the current FormationDescriptor and publishes
// one LinkPose per link by chaining rotations and translations.
type FormationDispatcher struct {
	Context  *fcontext.Context
	Interval time.Duration
	Clock    timeutil.Clock

	stop chan struct{}
}

// New builds a FormationDispatcher at the standard 2 Hz cadence.
func New(ctx *fcontext.Context) *FormationDispatcher {
	return &FormationDispatcher{
		Context:  ctx,
		Interval: 500 * time.Millisecond,
		Clock:    timeutil.RealClock{},
		stop:     make(chan struct{}),
	}
}

// Start runs the dispatch loop in its own goroutine.
func (d *FormationDispatcher) Start() {
	go d.run()
}

// Stop requests the dispatch loop to exit.
func (d *FormationDispatcher) Stop() {
	close(d.stop)
}

func (d *FormationDispatcher) run() {
	ticker := d.Clock.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			d.cycle()
		case <-d.stop:
			return
		}
	}
}

func (d *FormationDispatcher) cycle() {
	desc, ok := d.Context.Formation.Get()
	if !ok {
		return // no descriptor published yet; idle
	}

	linkLength := d.Context.Tuning.GetLinkLength()
	numLinks := len(desc.ThetaD)

	x := geometry.Translation(desc.RD.X, desc.RD.Y).Mul(geometry.Rotation(desc.QD))
	orientation := desc.QD

	poses := make(map[int]geometry.Pose2D, numLinks)
	for i := 0; i < numLinks; i++ {
		x = x.Mul(geometry.Rotation(desc.ThetaD[i])).Mul(geometry.Translation(desc.LinkMultiplier[i]*linkLength, 0))
		orientation = geometry.NormalizeAngle(orientation + desc.ThetaD[i])
		px, py := x.Translation2D()
		poses[i] = geometry.Pose2D{X: px, Y: py, Theta: orientation}
	}
	d.Context.LinkPose.UpdateBatch(poses)
}
