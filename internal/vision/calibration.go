// Package vision implements Observer and FrameAnalyzer: the two ~30 Hz
// stages that turn camera frames into per-agent poses. Frame capture and
// marker pose extraction are external collaborators, modeled as injected
// interfaces so the pipeline stages can be driven by a fake in tests.
package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrCalibrationMissing is returned when the calibration file cannot be
// found, read or parsed; cmd/formation-controller treats it as fatal at
// startup rather than detect against an absent camera model.
var ErrCalibrationMissing = errors.New("vision: calibration file missing or unreadable")

// Calibration holds the pre-computed camera intrinsics and distortion
// coefficients Observer uses to undistort frames before marker detection.
type Calibration struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix"`
	DistCoeffs   []float64     `json:"dist_coeffs"`
}

// CalibrationLoader loads a Calibration at startup from a JSON document
// holding the camera matrix and distortion coefficients.
type CalibrationLoader interface {
	Load() (Calibration, error)
}

// FileCalibrationLoader reads a Calibration from a JSON file on disk.
type FileCalibrationLoader struct {
	Path string
}

// Load reads and parses the calibration file. A missing or unreadable file
// is wrapped in ErrCalibrationMissing so callers can match on it.
func (l FileCalibrationLoader) Load() (Calibration, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrCalibrationMissing, err)
	}
	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrCalibrationMissing, err)
	}
	return c, nil
}
