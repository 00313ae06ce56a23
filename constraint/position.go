package constraint

import (
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// PositionConstraint keeps two joint anchors at a fixed distance.
// Joints are expressed in each body's local space.
type PositionConstraint struct {
	Link
	JointA   mgl64.Vec3
	JointB   mgl64.Vec3
	Distance float64
}

func NewPositionConstraint(a, b ecs.EntityID, distance float64) *PositionConstraint {
	return &PositionConstraint{
		Link:     Link{A: a, B: b, Bias: DefaultBias},
		Distance: distance,
	}
}

// Error is the target distance minus the current anchor distance
func (c *PositionConstraint) Error(bodies ecs.Bodies) float64 {
	transformA, transformB := bodies.Transform(c.A), bodies.Transform(c.B)
	if transformA == nil || transformB == nil {
		return 0
	}

	return c.Distance - transformA.Apply(c.JointA).Sub(transformB.Apply(c.JointB)).Len()
}

func (c *PositionConstraint) Update(bodies ecs.Bodies, dt float64) {
	a, b, ok := c.load(bodies)
	if !ok || dt <= 0 {
		return
	}

	anchorA := a.transform.Apply(c.JointA)
	anchorB := b.transform.Apply(c.JointB)
	relative := anchorA.Sub(anchorB)
	current := relative.Len()
	offset := c.Distance - current
	if current < epsilon || offset*offset < epsilon*epsilon {
		return
	}
	direction := relative.Mul(1 / current)

	// lever arms from the centres of mass to the anchors
	rA := anchorA.Sub(a.transform.Position)
	rB := anchorB.Sub(b.transform.Position)

	// ========== EFFECTIVE MASS ==========
	mass := a.inverseMass() + b.inverseMass()
	crossA := rA.Cross(direction)
	crossB := rB.Cross(direction)
	mass += a.inverseInertia().Mul3x1(crossA).Dot(crossA)
	mass += b.inverseInertia().Mul3x1(crossB).Dot(crossB)
	if mass <= epsilon {
		return
	}

	// ========== IMPULSE ==========
	linearA, angularA := a.velocity()
	linearB, angularB := b.velocity()
	velocityA := linearA.Add(angularA.Cross(rA))
	velocityB := linearB.Add(angularB.Cross(rB))
	stress := velocityA.Sub(velocityB).Dot(direction)
	bias := -(c.bias() / dt) * offset

	lambda := -(stress + bias) / mass
	impulse := direction.Mul(lambda)

	if a.body != nil {
		a.body.ApplyLinearImpulse(impulse)
		a.body.ApplyAngularImpulse(rA.Cross(impulse))
	}
	if b.body != nil {
		b.body.ApplyLinearImpulse(impulse.Mul(-1))
		b.body.ApplyAngularImpulse(rB.Cross(impulse.Mul(-1)))
	}
}
