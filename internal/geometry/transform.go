package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform is a 2D homogeneous rigid transform backed by a 3x3 dense
// matrix, used to build the formation's kinematic chain:
// X_origin = trans(r_d) . rot(q_d), then X_{i+1} = X_i . rot(theta_i) . trans(m_i * L).
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: identityDense()}
}

func identityDense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	d.Set(0, 0, 1)
	d.Set(1, 1, 1)
	d.Set(2, 2, 1)
	return d
}

// Rotation returns a pure rotation transform by theta radians.
func Rotation(theta float64) Transform {
	c, s := math.Cos(theta), math.Sin(theta)
	d := mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
	return Transform{m: d}
}

// Translation returns a pure translation transform by (x, y).
func Translation(x, y float64) Transform {
	d := identityDense()
	d.Set(0, 2, x)
	d.Set(1, 2, y)
	return Transform{m: d}
}

// FromPose builds trans(x,y) . rot(theta) — an origin frame at the given pose.
func FromPose(p Pose2D) Transform {
	return Translation(p.X, p.Y).Mul(Rotation(p.Theta))
}

// Mul returns t composed with other: t . other.
func (t Transform) Mul(other Transform) Transform {
	out := mat.NewDense(3, 3, nil)
	out.Mul(t.m, other.m)
	return Transform{m: out}
}

// Translation2D extracts the (x, y) translation column.
func (t Transform) Translation2D() (float64, float64) {
	return t.m.At(0, 2), t.m.At(1, 2)
}

// Heading extracts the rotation angle encoded in the upper-left 2x2 block.
func (t Transform) Heading() float64 {
	return math.Atan2(t.m.At(1, 0), t.m.At(0, 0))
}

// Pose returns the (x, y, theta) triple represented by this transform.
func (t Transform) Pose() Pose2D {
	x, y := t.Translation2D()
	return Pose2D{X: x, Y: y, Theta: t.Heading()}
}
