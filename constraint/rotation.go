package constraint

import (
	"math"

	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// RotationConstraint limits the Euler offset of B relative to A, in degrees,
// on each controlled axis.
type RotationConstraint struct {
	Link
	MaxOffset mgl64.Vec3
	ControlX  bool
	ControlY  bool
	ControlZ  bool
}

func NewRotationConstraint(a, b ecs.EntityID, maxOffset mgl64.Vec3) *RotationConstraint {
	return &RotationConstraint{
		Link:      Link{A: a, B: b, Bias: DefaultBias},
		MaxOffset: maxOffset,
		ControlX:  true,
		ControlY:  true,
		ControlZ:  true,
	}
}

func (c *RotationConstraint) controls(axis int) bool {
	switch axis {
	case 0:
		return c.ControlX
	case 1:
		return c.ControlY
	default:
		return c.ControlZ
	}
}

// Offset returns the Euler angles of B minus those of A, wrapped to [-180, 180]
func (c *RotationConstraint) Offset(bodies ecs.Bodies) mgl64.Vec3 {
	transformA, transformB := bodies.Transform(c.A), bodies.Transform(c.B)
	if transformA == nil || transformB == nil {
		return mgl64.Vec3{}
	}

	offset := transformB.EulerDegrees().Sub(transformA.EulerDegrees())
	for i := range offset {
		offset[i] = wrapDegrees(offset[i])
	}

	return offset
}

func (c *RotationConstraint) Update(bodies ecs.Bodies, dt float64) {
	a, b, ok := c.load(bodies)
	if !ok || dt <= 0 {
		return
	}

	offset := c.Offset(bodies)
	_, angularA := a.velocity()
	_, angularB := b.velocity()
	inertiaA, inertiaB := a.inverseInertia(), b.inverseInertia()

	var impulse mgl64.Vec3
	for axis := range 3 {
		limit := math.Abs(c.MaxOffset[axis])
		if !c.controls(axis) || math.Abs(offset[axis]) <= limit {
			continue
		}

		mass := inertiaA.At(axis, axis) + inertiaB.At(axis, axis)
		if mass <= epsilon {
			continue
		}

		// only the part beyond the limit is corrected
		violation := mgl64.DegToRad(offset[axis] - math.Copysign(limit, offset[axis]))
		stress := angularB[axis] - angularA[axis]
		bias := (c.bias() / dt) * violation

		impulse[axis] = -(stress + bias) / mass
	}

	if impulse == (mgl64.Vec3{}) {
		return
	}
	if a.body != nil {
		a.body.ApplyAngularImpulse(impulse.Mul(-1))
	}
	if b.body != nil {
		b.body.ApplyAngularImpulse(impulse)
	}
}

// wrapDegrees maps angle into (-180, 180]
func wrapDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360)
	switch {
	case angle > 180:
		angle -= 360
	case angle <= -180:
		angle += 360
	}

	return angle
}
