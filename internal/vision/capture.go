package vision

// Frame is a single undistorted capture from a FrameSource, already
// cropped/undistorted to whatever FrameSource's implementation provides.
// The pixel payload itself is opaque to this package: detection happens
// inside MarkerDetector, the injected out-of-scope collaborator.
type Frame struct {
	Width, Height int
	Gray          []byte
}

// FrameSource abstracts an indexed video capture device. A small interface
// standing in for hardware so Observer can be driven by a fake in tests.
type FrameSource interface {
	// Capture pulls the next frame. ok is false when the source is
	// exhausted or disconnected (camera unplugged, end of a replay file).
	Capture() (frame Frame, ok bool, err error)
	Close() error
}

// FrameSourceFactory opens a FrameSource at a given device index.
type FrameSourceFactory interface {
	Open(deviceIndex int, wantWidth, wantHeight int) (FrameSource, error)
}

// MarkerDetection is a single fiducial marker found in a frame: its id and
// the four pixel corners, in detection order.
type MarkerDetection struct {
	ID      int
	Corners [4][2]float64
}

// MarkerDetector undistorts a frame against a Calibration and detects
// fiducial markers from it. No ArUco binding ships in this module, so
// this is the seam a real implementation plugs into, and tests supply a
// fake.
type MarkerDetector interface {
	Detect(f Frame, calib Calibration) ([]MarkerDetection, error)
}

// PoseEstimator extracts a 2D pose from a single marker detection at a
// known physical side length, given the marker's corners.
type PoseEstimator interface {
	EstimatePose(d MarkerDetection, markerLength float64, calib Calibration) (x, y, yaw float64, err error)
}
