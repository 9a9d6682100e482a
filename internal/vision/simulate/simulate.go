// Package simulate provides a synthetic FrameSource/MarkerDetector/
// PoseEstimator implementation for running the pipeline without real
// camera or ArUco hardware: it serves canned, orbiting-marker detections
// and poses instead of a live feed.
package simulate

import (
	"math"
	"sync"
	"time"

	"github.com/swarmgrid/formation.control/internal/vision"
)

// Source produces synthetic detections for a fixed set of marker ids,
// orbiting the origin at a constant angular rate so downstream stages see
// moving, distinguishable poses.
type Source struct {
	IDs    []int
	Radius float64
	Period time.Duration

	mu      sync.Mutex
	started time.Time
	closed  bool
}

// New builds a Source for the given marker ids, orbiting at radius meters
// with the given period.
func New(ids []int, radius float64, period time.Duration) *Source {
	return &Source{IDs: ids, Radius: radius, Period: period, started: time.Time{}}
}

// Capture returns an empty frame and starts the orbit clock on first call.
// The frame payload is unused downstream (Detect below ignores it and
// synthesizes detections directly from elapsed time), so Width/Height/Gray
// are left zero.
func (s *Source) Capture() (vision.Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return vision.Frame{}, false, nil
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	return vision.Frame{}, true, nil
}

// Close marks the source closed; further Capture calls report no frame.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Source) elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}

// Detector synthesizes one detection per configured marker id, each at a
// phase offset so the orbiting robots stay spread apart.
type Detector struct {
	Source *Source
}

// Detect ignores the frame and calib, reporting a detection for every
// configured marker id at its current synthetic position.
func (d Detector) Detect(f vision.Frame, calib vision.Calibration) ([]vision.MarkerDetection, error) {
	elapsed := d.Source.elapsed()
	period := d.Source.Period
	if period <= 0 {
		period = 20 * time.Second
	}
	phaseBase := 2 * math.Pi * float64(elapsed) / float64(period)

	out := make([]vision.MarkerDetection, 0, len(d.Source.IDs))
	for i, id := range d.Source.IDs {
		phase := phaseBase + float64(i)*2*math.Pi/float64(len(d.Source.IDs))
		x := d.Source.Radius * math.Cos(phase)
		y := d.Source.Radius * math.Sin(phase)
		out = append(out, vision.MarkerDetection{
			ID: id,
			Corners: [4][2]float64{
				{x, y}, {x, y}, {x, y}, {x, y},
			},
		})
	}
	return out, nil
}

// Estimator recovers a pose directly from a detection's (degenerate)
// corners, since Detector already encodes the synthetic world position
// there rather than pixel coordinates.
type Estimator struct{}

// EstimatePose reads the synthetic world position back out of corners[0]
// and derives yaw from the direction of motion implied by the phase.
func (Estimator) EstimatePose(d vision.MarkerDetection, markerLength float64, calib vision.Calibration) (x, y, yaw float64, err error) {
	x, y = d.Corners[0][0], d.Corners[0][1]
	yaw = math.Atan2(y, x) + math.Pi/2
	return x, y, yaw, nil
}
