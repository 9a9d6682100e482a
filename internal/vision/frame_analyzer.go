package vision

import (
	"sync"
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/geometry"
	"github.com/swarmgrid/formation.control/internal/monitoring"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// FrameAnalyzer estimates each marker's 2D pose from the latest raw
// detections and publishes per-agent poses. Per-marker work is
// independent, so each marker is estimated in its own goroutine.
type FrameAnalyzer struct {
	Estimator    PoseEstimator
	Calib        Calibration
	Context      *fcontext.Context
	MarkerLength float64
	KnownIDs     []int
	Interval     time.Duration
	IdleInterval time.Duration
	Clock        timeutil.Clock

	stop chan struct{}
}

// NewFrameAnalyzer builds a FrameAnalyzer at the default ~30 Hz cadence,
// with a 100ms idle backoff when no frame data is available yet.
func NewFrameAnalyzer(estimator PoseEstimator, calib Calibration, ctx *fcontext.Context, markerLength float64) *FrameAnalyzer {
	return &FrameAnalyzer{
		Estimator:    estimator,
		Calib:        calib,
		Context:      ctx,
		MarkerLength: markerLength,
		KnownIDs:     fcontext.KnownAgentIDs,
		Interval:     time.Second / 30,
		IdleInterval: 100 * time.Millisecond,
		Clock:        timeutil.RealClock{},
		stop:         make(chan struct{}),
	}
}

// Start runs the analysis loop in its own goroutine.
func (a *FrameAnalyzer) Start() {
	go a.run()
}

// Stop requests the analysis loop to exit.
func (a *FrameAnalyzer) Stop() {
	close(a.stop)
}

func (a *FrameAnalyzer) run() {
	ticker := a.Clock.NewTicker(a.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			a.cycle()
		case <-a.stop:
			return
		}
	}
}

func (a *FrameAnalyzer) cycle() {
	fd, ok := a.Context.FrameData.Get()
	if !ok || len(fd.IDs) == 0 {
		// Empty detection: every known id becomes None, downstream stages
		// treat that as hold.
		a.markAllAbsent(a.KnownIDs)
		a.Clock.Sleep(a.IdleInterval)
		return
	}

	present := make(map[int]bool, len(fd.IDs))
	var wg sync.WaitGroup
	for i, id := range fd.IDs {
		if !knownID(a.KnownIDs, id) {
			// Marker present in detections but not in the known set: ignored.
			continue
		}
		present[id] = true
		wg.Add(1)
		go func(id int, corners [4][2]float64) {
			defer wg.Done()
			x, y, yaw, err := a.Estimator.EstimatePose(MarkerDetection{ID: id, Corners: corners}, a.MarkerLength, a.Calib)
			if err != nil {
				monitoring.Logf("vision: pose estimate failed for marker %d: %v", id, err)
				a.Context.AgentPose.Update(id, nil)
				return
			}
			pose := geometry.Pose2D{X: x, Y: y, Theta: yaw}
			a.Context.AgentPose.Update(id, &pose)
		}(id, fd.Corners[i])
	}
	wg.Wait()

	var absent []int
	for _, id := range a.KnownIDs {
		if !present[id] {
			absent = append(absent, id)
		}
	}
	a.markAllAbsent(absent)
}

func (a *FrameAnalyzer) markAllAbsent(ids []int) {
	for _, id := range ids {
		a.Context.AgentPose.Update(id, nil)
	}
}

func knownID(known []int, id int) bool {
	for _, k := range known {
		if k == id {
			return true
		}
	}
	return false
}
