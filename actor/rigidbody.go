package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultMass            = 10.0
	DefaultDragCoefficient = 1.05
	DefaultSurfaceArea     = 1.0
	DefaultElasticity      = 0.5
)

// IntegrationMode selects how velocity is applied to position
type IntegrationMode int

const (
	// IntegrationLegacy applies the velocity twice: once scaled by dt, then once unscaled.
	// Scenes tuned against the historical behaviour rely on it.
	IntegrationLegacy IntegrationMode = iota
	// IntegrationEuler is plain explicit Euler: position += velocity * dt
	IntegrationEuler
)

// Environment holds the world parameters the integrator reads
type Environment struct {
	Gravity     float64    // magnitude, m/s²
	GravityAxis mgl64.Vec3 // unit, gravity pulls along -GravityAxis
	AirDensity  float64    // kg/m³
	Mode        IntegrationMode
}

// RigidBody is the physics component of an entity
type RigidBody struct {
	mass        float64
	inverseMass float64

	DragCoefficient float64
	SurfaceArea     float64 // cross-sectional area used by drag
	Elasticity      float64 // 0 = no rebound, 1 = perfect restitution
	Gravity         bool

	// Linear motion
	Velocity mgl64.Vec3 // m/s

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s

	// Inertia
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	inverseInertiaWorld mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3
}

// NewRigidBody creates a body with the default physical properties.
// The shape, when given, provides the inertia tensor; otherwise a unit cube is assumed.
func NewRigidBody(mass float64, shape Shape) *RigidBody {
	rb := &RigidBody{
		DragCoefficient: DefaultDragCoefficient,
		SurfaceArea:     DefaultSurfaceArea,
		Elasticity:      DefaultElasticity,
		Gravity:         true,
	}
	rb.SetMass(mass, shape)

	return rb
}

// SetMass updates mass, inverse mass and inertia. A mass <= 0 or +Inf makes the body static.
func (rb *RigidBody) SetMass(mass float64, shape Shape) {
	rb.mass = mass
	if mass <= 0 || math.IsInf(mass, 1) || math.IsNaN(mass) {
		rb.inverseMass = 0
		rb.InertiaLocal = mgl64.Mat3{}
		rb.InverseInertiaLocal = mgl64.Mat3{}
		rb.inverseInertiaWorld = mgl64.Mat3{}
		return
	}
	rb.inverseMass = 1.0 / mass

	if shape != nil {
		rb.InertiaLocal = shape.ComputeInertia(mass)
	} else {
		rb.InertiaLocal = boxInertia(mgl64.Vec3{1, 1, 1}, mass)
	}

	if math.Abs(rb.InertiaLocal.Det()) < 1e-12 {
		rb.InverseInertiaLocal = mgl64.Mat3{}
	} else {
		rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
	}
	rb.inverseInertiaWorld = rb.InverseInertiaLocal
}

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

// IsStatic reports whether the body has infinite mass
func (rb *RigidBody) IsStatic() bool {
	return rb.inverseMass == 0
}

// SetElasticity clamps the restitution into [0, 1]
func (rb *RigidBody) SetElasticity(e float64) {
	rb.Elasticity = mgl64.Clamp(e, 0, 1)
}

func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
}

// AddForceAtPoint applies a force at an offset from the centre of mass, also producing torque
func (rb *RigidBody) AddForceAtPoint(force, offset mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(offset.Cross(force))
}

func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

func (rb *RigidBody) Force() mgl64.Vec3 {
	return rb.accumulatedForce
}

func (rb *RigidBody) Torque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// ApplyLinearImpulse changes velocity by impulse / mass
func (rb *RigidBody) ApplyLinearImpulse(impulse mgl64.Vec3) {
	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.inverseMass))
}

// ApplyAngularImpulse changes angular velocity by I⁻¹ * impulse
func (rb *RigidBody) ApplyAngularImpulse(impulse mgl64.Vec3) {
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.inverseInertiaWorld.Mul3x1(impulse))
}

// UpdateInertiaTensor recomputes the world inverse inertia from the orientation
func (rb *RigidBody) UpdateInertiaTensor(rotation mgl64.Quat) {
	if rb.IsStatic() {
		rb.inverseInertiaWorld = mgl64.Mat3{}
		return
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rotation.Mat4().Mat3()
	rb.inverseInertiaWorld = R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	return rb.inverseInertiaWorld
}

// Integrate advances velocity, position and orientation by dt
func (rb *RigidBody) Integrate(dt float64, transform *Transform, env Environment) {
	if rb.IsStatic() {
		rb.ClearForces()
		return
	}

	// ========== LINEAR ==========
	acceleration := rb.accumulatedForce.Mul(rb.inverseMass)
	if rb.Gravity && env.GravityAxis.LenSqr() > 0 {
		acceleration = acceleration.Add(env.GravityAxis.Mul(-env.Gravity))
	}
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))

	// ========== DRAG ==========
	// F = ½ρv²CdA, opposing the velocity
	speed := rb.Velocity.Len()
	if speed > 1e-12 && env.AirDensity > 0 {
		drag := 0.5 * env.AirDensity * speed * speed * rb.DragCoefficient * rb.SurfaceArea
		deltaSpeed := math.Min(drag*rb.inverseMass*dt, speed)
		rb.Velocity = rb.Velocity.Sub(rb.Velocity.Mul(deltaSpeed / speed))
	}

	transform.Position = transform.Position.Add(rb.Velocity.Mul(dt))
	if env.Mode == IntegrationLegacy {
		transform.Position = transform.Position.Add(rb.Velocity)
	}

	// ========== ANGULAR ==========
	rotation := transform.Orientation()
	rb.UpdateInertiaTensor(rotation)
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque).Mul(dt))

	if rb.AngularVelocity.LenSqr() > 0 {
		omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
		qDot := omegaQuat.Mul(rotation).Scale(0.5)
		transform.Rotation = rotation.Add(qDot.Scale(dt)).Normalize()
	}

	rb.ClearForces()
}
