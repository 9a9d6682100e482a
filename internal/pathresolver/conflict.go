// Package pathresolver implements PathCrossingResolver: detects pairwise
// conflicts between robot paths and resolves them with a priority-based
// wait strategy, with hysteresis to avoid chatter at the detection
// boundary.
package pathresolver

import (
	"math"

	"github.com/swarmgrid/formation.control/internal/geometry"
)

// PathConflict is a detected conflict between two robots' paths.
type PathConflict struct {
	RobotA, RobotB               int
	IntersectionX, IntersectionY float64
	TimeToIntersectionA          float64
	TimeToIntersectionB          float64
}

// segmentsIntersect checks whether segment p1->t1 intersects p2->t2, using
// parametric line intersection with cross products. A near-zero cross
// product (|cross| < 1e-10) is treated as no intersection, covering both
// the parallel and collinear cases.
func segmentsIntersect(p1, t1, p2, t2 geometry.Pose2D) (bool, float64, float64) {
	d1x, d1y := t1.X-p1.X, t1.Y-p1.Y
	d2x, d2y := t2.X-p2.X, t2.Y-p2.Y

	cross := d1x*d2y - d1y*d2x
	if cross < 1e-10 && cross > -1e-10 {
		return false, 0, 0
	}

	dpx, dpy := p2.X-p1.X, p2.Y-p1.Y
	t := (dpx*d2y - dpy*d2x) / cross
	u := (dpx*d1y - dpy*d1x) / cross

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return false, 0, 0
	}
	return true, p1.X + t*d1x, p1.Y + t*d1y
}

func calculateSpeed(distToTarget, speedMin, speedMax float64) float64 {
	if distToTarget < speedMin {
		return speedMin
	}
	if distToTarget > speedMax {
		return speedMax
	}
	return distToTarget
}

// estimateTimeToPoint estimates arrival time at an intermediate point,
// with speed derived from distance to the robot's final target (not the
// intermediate point itself).
func estimateTimeToPoint(current, point, finalTarget geometry.Pose2D, speedMin, speedMax float64) float64 {
	distToPoint := geometry.Distance(current, point)
	distToFinal := geometry.Distance(current, finalTarget)
	speed := calculateSpeed(distToFinal, speedMin, speedMax)
	if speed <= 0 {
		return math.Inf(1)
	}
	return distToPoint / speed
}
