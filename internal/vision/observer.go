package vision

import (
	"time"

	"github.com/swarmgrid/formation.control/internal/fcontext"
	"github.com/swarmgrid/formation.control/internal/monitoring"
	"github.com/swarmgrid/formation.control/internal/timeutil"
)

// DefaultCameraInterval is the Observer's target cycle period, ~30 Hz.
const DefaultCameraInterval = time.Second / 30

// Observer periodically pulls a frame, detects markers against the loaded
// calibration, and publishes raw detections to the frame-data store. The
// calibration is supplied at construction and Observer does not check it;
// cmd/formation-controller exits at startup when the calibration file
// cannot be loaded, so the rest of the pipeline does not run either.
type Observer struct {
	Source   FrameSource
	Detector MarkerDetector
	Calib    Calibration
	Context  *fcontext.Context
	Interval time.Duration
	Clock    timeutil.Clock

	stop chan struct{}
}

// NewObserver builds an Observer with the default ~30 Hz cadence.
func NewObserver(source FrameSource, detector MarkerDetector, calib Calibration, ctx *fcontext.Context) *Observer {
	return &Observer{
		Source:   source,
		Detector: detector,
		Calib:    calib,
		Context:  ctx,
		Interval: DefaultCameraInterval,
		Clock:    timeutil.RealClock{},
		stop:     make(chan struct{}),
	}
}

// Start runs the capture loop in its own goroutine.
func (o *Observer) Start() {
	go o.run()
}

// Stop requests the capture loop to exit and releases the capture device.
func (o *Observer) Stop() {
	close(o.stop)
}

func (o *Observer) run() {
	ticker := o.Clock.NewTicker(o.Interval)
	defer ticker.Stop()
	defer o.Source.Close()

	for {
		select {
		case <-ticker.C():
			o.cycle()
		case <-o.stop:
			return
		}
	}
}

func (o *Observer) cycle() {
	frame, ok, err := o.Source.Capture()
	if err != nil {
		monitoring.Logf("vision: observer capture error, will retry next cycle: %v", err)
		return
	}
	if !ok {
		// Transient disconnect: log and idle, retry next tick.
		monitoring.Logf("vision: observer capture returned no frame")
		return
	}

	detections, err := o.Detector.Detect(frame, o.Calib)
	if err != nil {
		monitoring.Logf("vision: marker detection failed: %v", err)
		return
	}

	fd := fcontext.FrameData{
		IDs:     make([]int, len(detections)),
		Corners: make([][4][2]float64, len(detections)),
	}
	for i, d := range detections {
		fd.IDs[i] = d.ID
		fd.Corners[i] = d.Corners
	}
	o.Context.FrameData.Update(fd)
}
