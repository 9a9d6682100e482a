// Package positionupdater implements PositionUpdater, the pipeline's final
// stage: at 20 Hz, emits one ASCII record per known agent id over the
// serial link, reopening the connection on port change or write failure.
package positionupdater

import (
	"fmt"
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/linkio"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// Updater streams (current-pose, target-pose) tuples over the serial link.
type Updater struct {
	Context  *fcontext.Context
	Writer   *linkio.Writer
	KnownIDs []int
	Interval time.Duration
	Clock    timeutil.Clock

	stop chan struct{}
}

// New builds an Updater at the standard 20 Hz cadence.
func New(ctx *fcontext.Context, writer *linkio.Writer) *Updater {
	return &Updater{
		Context:  ctx,
		Writer:   writer,
		KnownIDs: fcontext.KnownAgentIDs,
		Interval: 50 * time.Millisecond,
		Clock:    timeutil.RealClock{},
		stop:     make(chan struct{}),
	}
}

// Start runs the transmit loop in its own goroutine.
func (u *Updater) Start() {
	go u.run()
}

// Stop requests the loop to exit and releases the serial connection.
func (u *Updater) Stop() {
	close(u.stop)
}

func (u *Updater) run() {
	ticker := u.Clock.NewTicker(u.Interval)
	defer ticker.Stop()
	defer u.Writer.Close()

	for {
		select {
		case <-ticker.C():
			u.cycle()
		case <-u.stop:
			return
		}
	}
}

func (u *Updater) cycle() {
	path := u.Context.Port()
	if path == "" {
		return
	}

	poses := u.Context.AgentPose.GetAll()
	targets := u.Context.Adjusted.GetAll()

	for _, id := range u.KnownIDs {
		line := formatRecord(id, poses[id], targets)
		u.Writer.Write(path, []byte(line))
	}
}

// formatRecord builds the outbound line for a single agent: a hold record
// if its pose is unknown, otherwise the full six-field record with its
// current pose and assigned target (or its own pose, if it has no
// assigned target yet).
func formatRecord(id int, pose *geometry.Pose2D, targets map[int]geometry.Pose2D) string {
	if pose == nil {
		return fmt.Sprintf("0,%d,0,0,0,0,0\n", id)
	}
	xt, yt := pose.X, pose.Y
	if t, ok := targets[id]; ok {
		xt, yt = t.X, t.Y
	}
	return fmt.Sprintf("1,%d,%.3f,%.3f,%.3f,%.3f,%.3f\n", id, pose.X, pose.Y, pose.Theta, xt, yt)
}
