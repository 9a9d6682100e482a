// Package linkctrl runs one worker per link, mapping link pose to agent
// target poses via a fixed link->agent mapping and a per-agent nominal
// offset within the link frame.
package linkctrl

import (
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// DefaultLinkAgentMap is the default 1:1 link->agent mapping. The value
// type is a slice so a link can drive more than one agent, kept as a
// documented possibility even though the default wiring is one-to-one.
var DefaultLinkAgentMap = map[int][]int{0: {0}, 1: {1}, 2: {2}, 3: {3}}

// DefaultNominalOffsets places every agent at its link's pose with no
// offset: FormationDispatcher already computes each link's terminal pose.
var DefaultNominalOffsets = map[int]geometry.Pose2D{
	0: {}, 1: {}, 2: {}, 3: {},
}

// LinkController drives a single link: at 20 Hz, reads its link pose and
// writes a target pose for every agent that link maps to.
type LinkController struct {
	LinkID         int
	Context        *fcontext.Context
	AgentIDs       []int
	NominalOffsets map[int]geometry.Pose2D
	Interval       time.Duration
	IdleInterval   time.Duration
	Clock          timeutil.Clock

	stop chan struct{}
}

// New builds a LinkController for linkID using the default 1:1 mapping.
func New(linkID int, ctx *fcontext.Context) *LinkController {
	return &LinkController{
		LinkID:         linkID,
		Context:        ctx,
		AgentIDs:       DefaultLinkAgentMap[linkID],
		NominalOffsets: DefaultNominalOffsets,
		Interval:       50 * time.Millisecond,
		IdleInterval:   500 * time.Millisecond,
		Clock:          timeutil.RealClock{},
		stop:           make(chan struct{}),
	}
}

// Start runs the link's loop in its own goroutine.
func (l *LinkController) Start() {
	go l.run()
}

// Stop requests the loop to exit.
func (l *LinkController) Stop() {
	close(l.stop)
}

func (l *LinkController) run() {
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

func (l *LinkController) cycle() {
	linkPose, ok := l.Context.LinkPose.Get(l.LinkID)
	if !ok {
		l.Clock.Sleep(l.IdleInterval)
		return
	}

	xf := geometry.FromPose(linkPose)
	targets := make(map[int]geometry.Pose2D, len(l.AgentIDs))
	for _, agentID := range l.AgentIDs {
		offset := l.NominalOffsets[agentID]
		placed := xf.Mul(geometry.Translation(offset.X, offset.Y))
		x, y := placed.Translation2D()
		targets[agentID] = geometry.Pose2D{X: x, Y: y, Theta: 0}
	}
	l.Context.RawTarget.UpdateBatch(targets)
}

// StartAll constructs and starts one LinkController for each link index in
// [0, numLinks), returning them so the caller can stop them all at
// shutdown.
func StartAll(ctx *fcontext.Context, numLinks int) []*LinkController {
	controllers := make([]*LinkController, 0, numLinks)
	for i := 0; i < numLinks; i++ {
		lc := New(i, ctx)
		lc.Start()
		controllers = append(controllers, lc)
	}
	return controllers
}

// StopAll stops every controller returned by StartAll.
func StopAll(controllers []*LinkController) {
	for _, lc := range controllers {
		lc.Stop()
	}
}
