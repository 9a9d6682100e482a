// Package shapes holds the static shape-to-kinematics table used by the
// GlobalSupervisor. Each shape is a closed, tagged variant instead of a
// dynamic lookup.
package shapes

import "math"

// Shape identifies one of the fixed formation geometries the supervisor
// can realize.
type Shape int

const (
	// Unknown is the zero value; Lookup falls back to zero angles / unit
	// multipliers for it.
	Unknown Shape = iota
	Line
	Square
	Triangle
	Diamond
	Fan
)

// NumLinks is the fixed length every FormationDescriptor's joint-angle and
// link-multiplier vectors must have.
const NumLinks = 4

// String returns the human-readable shape name, mainly for logging.
func (s Shape) String() string {
	switch s {
	case Line:
		return "line"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Diamond:
		return "diamond"
	case Fan:
		return "fan"
	default:
		return "unknown"
	}
}

// ParseShape maps a user-facing shape name to a Shape, returning Unknown
// (not an error) for anything unrecognized — callers treat Unknown as a
// valid, if degenerate, configuration.
func ParseShape(name string) Shape {
	switch name {
	case "line":
		return Line
	case "square":
		return Square
	case "triangle":
		return Triangle
	case "diamond":
		return Diamond
	case "fan":
		return Fan
	default:
		return Unknown
	}
}

// Descriptor is the WHAT of a formation: the joint-angle sequence and the
// per-link length multiplier, both of length NumLinks.
type Descriptor struct {
	JointAngles     [NumLinks]float64
	LinkMultipliers [NumLinks]float64
}

// table is the static mapping from shape to its kinematic descriptor. It
// is read-only configuration and never mutated at runtime.
var table = map[Shape]Descriptor{
	// LINE: four segments along the x-axis, with back-turns so the chain
	// folds out flat instead of spiraling.
	Line: {
		JointAngles:     [NumLinks]float64{math.Pi, math.Pi, 0, 0},
		LinkMultipliers: [NumLinks]float64{1.5, 1.0, 1.0, 1.0},
	},
	// SQUARE: four links tracing a unit square.
	Square: {
		JointAngles:     [NumLinks]float64{-3 * math.Pi / 4, 5 * math.Pi / 4, -math.Pi / 2, -math.Pi / 2},
		LinkMultipliers: [NumLinks]float64{math.Sqrt2 / 2, 1, 1, 1},
	},
	// TRIANGLE: three effective corners; the fourth link has zero length,
	// so its pose coincides with the third's, keeping the vector length
	// fixed at NumLinks.
	Triangle: {
		JointAngles:     [NumLinks]float64{2 * math.Pi / 3, 2 * math.Pi / 3, 2 * math.Pi / 3, 0},
		LinkMultipliers: [NumLinks]float64{1, 1, 1, 0},
	},
	// DIAMOND: four robots at the cardinal directions of a rhombus.
	Diamond: {
		JointAngles:     [NumLinks]float64{0, 3 * math.Pi / 4, math.Pi / 2, math.Pi / 2},
		LinkMultipliers: [NumLinks]float64{math.Sqrt2 / 2, 1, 1, 1},
	},
	// FAN: links spread from a common heading at 120/40 degree joints.
	Fan: {
		JointAngles:     [NumLinks]float64{2 * math.Pi / 3, -2 * math.Pi / 9, -2 * math.Pi / 9, 0},
		LinkMultipliers: [NumLinks]float64{1, 1, 1, 0},
	},
}

// Lookup returns the descriptor for shape, or the zero-angle/unit-multiplier
// fallback for any shape absent from the table.
func Lookup(s Shape) Descriptor {
	if d, ok := table[s]; ok {
		return d
	}
	d := Descriptor{}
	for i := range d.LinkMultipliers {
		d.LinkMultipliers[i] = 1.0
	}
	return d
}
