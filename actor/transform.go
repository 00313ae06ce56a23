package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position, orientation and scale in 3D space
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Orientation returns the rotation, reading a zero quaternion as identity
func (t Transform) Orientation() mgl64.Quat {
	if t.Rotation.W == 0 && t.Rotation.V.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}

	return t.Rotation
}

// Scaling returns the scale, reading a zero vector as unit scale
func (t Transform) Scaling() mgl64.Vec3 {
	if t.Scale.LenSqr() == 0 {
		return mgl64.Vec3{1, 1, 1}
	}

	return t.Scale
}

// Apply maps a local point to world space: scale, then rotate, then translate
func (t Transform) Apply(local mgl64.Vec3) mgl64.Vec3 {
	s := t.Scaling()
	scaled := mgl64.Vec3{local.X() * s.X(), local.Y() * s.Y(), local.Z() * s.Z()}

	return t.Orientation().Rotate(scaled).Add(t.Position)
}

// ApplyDirection rotates a local direction into world space
func (t Transform) ApplyDirection(local mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation().Rotate(local)
}

// InverseApply maps a world point to local space
func (t Transform) InverseApply(world mgl64.Vec3) mgl64.Vec3 {
	local := t.Orientation().Conjugate().Rotate(world.Sub(t.Position))
	s := t.Scaling()
	for i := 0; i < 3; i++ {
		if s[i] != 0 {
			local[i] /= s[i]
		}
	}

	return local
}

// BiggestScale returns the largest absolute scale component
func (t Transform) BiggestScale() float64 {
	s := t.Scaling()

	return math.Max(math.Abs(s.X()), math.Max(math.Abs(s.Y()), math.Abs(s.Z())))
}

// Matrix returns the model matrix T*R*S
func (t Transform) Matrix() mgl64.Mat4 {
	s := t.Scaling()
	translation := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	scale := mgl64.Scale3D(s.X(), s.Y(), s.Z())

	return translation.Mul4(t.Orientation().Mat4()).Mul4(scale)
}

// EulerDegrees returns the pitch (x), yaw (y) and roll (z) angles in degrees
func (t Transform) EulerDegrees() mgl64.Vec3 {
	q := t.Orientation()
	x, y, z, w := q.V.X(), q.V.Y(), q.V.Z(), q.W

	// pitch
	sinX := 2 * (w*x + y*z)
	cosX := w*w - x*x - y*y + z*z
	pitch := math.Atan2(sinX, cosX)
	if math.Abs(sinX) < 1e-12 && math.Abs(cosX) < 1e-12 {
		pitch = 2 * math.Atan2(x, w)
	}

	// yaw
	sinY := mgl64.Clamp(-2*(x*z-w*y), -1, 1)
	yaw := math.Asin(sinY)

	// roll
	roll := math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)

	return mgl64.Vec3{mgl64.RadToDeg(pitch), mgl64.RadToDeg(yaw), mgl64.RadToDeg(roll)}
}
