// Package supervisor implements GlobalSupervisor: at 10 Hz, translates the
// current user command into a FormationDescriptor via the shape table.
package supervisor

import (
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/shapes"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// GlobalSupervisor polls ConfigurationManager and publishes a
// FormationDescriptor built from the shape table.
type GlobalSupervisor struct {
	Context  *fcontext.Context
	Interval time.Duration
	Clock    timeutil.Clock

	stop chan struct{}
}

// New builds a GlobalSupervisor at the standard 10 Hz cadence.
func New(ctx *fcontext.Context) *GlobalSupervisor {
	return &GlobalSupervisor{
		Context:  ctx,
		Interval: 100 * time.Millisecond,
		Clock:    timeutil.RealClock{},
		stop:     make(chan struct{}),
	}
}

// Start runs the supervisor loop in its own goroutine.
func (g *GlobalSupervisor) Start() {
	go g.run()
}

// Stop requests the supervisor loop to exit.
func (g *GlobalSupervisor) Stop() {
	close(g.stop)
}

func (g *GlobalSupervisor) run() {
	ticker := g.Clock.NewTicker(g.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			g.cycle()
		case <-g.stop:
			return
		}
	}
}

func (g *GlobalSupervisor) cycle() {
	cfg := g.Context.Config.GetCurrentConfig()
	desc := shapes.Lookup(cfg.Shape)

	thetaD := append([]float64(nil), desc.JointAngles[:]...)
	linkMultiplier := append([]float64(nil), desc.LinkMultipliers[:]...)

	g.Context.Formation.Update(fcontext.FormationDescriptor{
		RD:             geometry.Pose2D{X: cfg.Target.X, Y: cfg.Target.Y},
		QD:             cfg.Target.Theta,
		ThetaD:         thetaD,
		LinkMultiplier: linkMultiplier,
	})
}
