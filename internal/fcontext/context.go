// Package fcontext defines the shared controller context: the single owner
// of every store in the pipeline. No store references any other; stages
// are glued together only through the Context.
package fcontext

import (
	"sync"

	"github.com/swarmgrid/formation.control/internal/commandcfg"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/store"
	"github.com/swarmgrid/formation.control/internal/tuning"
)

// FrameData is the raw per-frame marker detection snapshot written by the
// Observer and read once per cycle by the FrameAnalyzer.
type FrameData struct {
	IDs     []int
	Corners [][4][2]float64
}

// FormationDescriptor is the WHAT of the commanded formation: origin,
// orientation, joint angles and per-link length multipliers.
type FormationDescriptor struct {
	RD             geometry.Pose2D // only X, Y are meaningful here
	QD             float64
	ThetaD         []float64
	LinkMultiplier []float64
}

// Context owns every thread-safe store in the pipeline exclusively. Every
// worker goroutine holds only a shared handle to the Context, never a
// reference to another stage.
type Context struct {
	FrameData  *store.Single[FrameData]
	AgentPose  *store.Store[int, *geometry.Pose2D] // nil value = "not seen this frame"
	Formation  *store.Single[FormationDescriptor]
	LinkPose   *store.Store[int, geometry.Pose2D]
	RawTarget  *store.Store[int, geometry.Pose2D]
	Resolved   *store.Store[int, geometry.Pose2D]
	Adjusted   *store.Store[int, geometry.Pose2D]
	Config     *commandcfg.Manager
	Tuning     *tuning.Config
	SerialPort string
	portMu     sync.RWMutex
}

// New builds a Context with every store initialized, ready for stages to
// attach to. cfg supplies the tunable constants loaded at startup.
func New(cfg *tuning.Config) *Context {
	return &Context{
		FrameData: store.NewSingle[FrameData](),
		AgentPose: store.New[int, *geometry.Pose2D](),
		Formation: store.NewSingle[FormationDescriptor](),
		LinkPose:  store.New[int, geometry.Pose2D](),
		RawTarget: store.New[int, geometry.Pose2D](),
		Resolved:  store.New[int, geometry.Pose2D](),
		Adjusted:  store.New[int, geometry.Pose2D](),
		Config:    commandcfg.NewManager(),
		Tuning:    cfg,
	}
}

// SetPort updates the serial port path PositionUpdater should be bound to.
// Changing it mid-run triggers a close/reopen on PositionUpdater's next
// cycle.
func (c *Context) SetPort(path string) {
	c.portMu.Lock()
	defer c.portMu.Unlock()
	c.SerialPort = path
}

// Port returns the currently configured serial port path.
func (c *Context) Port() string {
	c.portMu.RLock()
	defer c.portMu.RUnlock()
	return c.SerialPort
}

// KnownAgentIDs is the fixed set of marker ids the pipeline tracks.
var KnownAgentIDs = []int{0, 1, 2, 3}
