// Package resolver turns the contact manifolds of a tick into position
// corrections and velocity impulses.
package resolver

import (
	"log"
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

type Mode int

const (
	// ModeImpulse separates each manifold by projection then applies one restitution impulse per contact
	ModeImpulse Mode = iota
	// ModeSequential iterates accumulated contact impulses with a Baumgarte bias
	ModeSequential
)

func (m Mode) String() string {
	switch m {
	case ModeImpulse:
		return "impulse"
	case ModeSequential:
		return "sequential"
	default:
		return "unknown"
	}
}

const (
	// DefaultElasticity is used for participants without a rigid body
	DefaultElasticity = 0.5
	DefaultIterations = 8
	// DefaultPasses runs the collision list once, in list order
	DefaultPasses = 1

	// RestitutionThreshold is the approach speed below which contacts do not bounce
	RestitutionThreshold = 1.0

	Baumgarte = 0.1
	Slop      = 0.001

	epsilon = 1e-9
)

// Stats describes one Resolve call
type Stats struct {
	Collisions  int
	Contacts    int
	Separations int
	Impulses    int
	Skipped     int
}

type Resolver struct {
	Mode Mode
	// Iterations of the sequential mode
	Iterations int
	// Passes over the whole collision list in impulse mode. Later passes
	// only correct what earlier manifolds left or pushed back into overlap.
	Passes int
	Logger *log.Logger
}

func New() *Resolver {
	return &Resolver{Mode: ModeImpulse, Iterations: DefaultIterations, Passes: DefaultPasses}
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}

	return r.Logger
}

// participant is one side of a collision. A nil body is static.
type participant struct {
	transform *actor.Transform
	body      *actor.RigidBody
	movable   bool
}

func load(bodies ecs.Bodies, id ecs.EntityID) (participant, bool) {
	transform := bodies.Transform(id)
	if transform == nil {
		return participant{}, false
	}
	collider := bodies.Collider(id)

	return participant{
		transform: transform,
		body:      bodies.RigidBody(id),
		movable:   collider != nil && collider.Movable,
	}, true
}

func (p participant) inverseMass() float64 {
	if p.body == nil {
		return 0
	}

	return p.body.InverseMass()
}

func (p participant) inverseInertia() mgl64.Mat3 {
	if p.body == nil {
		return mgl64.Mat3{}
	}

	return p.body.InverseInertiaWorld()
}

func (p participant) elasticity() float64 {
	if p.body == nil {
		return DefaultElasticity
	}

	return p.body.Elasticity
}

func (p participant) velocity() (mgl64.Vec3, mgl64.Vec3) {
	if p.body == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	return p.body.Velocity, p.body.AngularVelocity
}

// responds reports whether impulses change this participant's velocity
func (p participant) responds() bool {
	return p.body != nil && p.movable && !p.body.IsStatic()
}

// angularTerm is (I⁻¹(r×n))×r · n
func (p participant) angularTerm(offset, normal mgl64.Vec3) float64 {
	if p.body == nil {
		return 0
	}

	return p.inverseInertia().Mul3x1(offset.Cross(normal)).Cross(offset).Dot(normal)
}

// manifold is one collision being resolved. The start positions are taken
// when its first separation runs.
type manifold struct {
	contacts       []collision.ContactPoint
	a, b           participant
	started        bool
	startA, startB mgl64.Vec3
}

// moved returns how far A and B travelled since the manifold started
func (m *manifold) moved() (mgl64.Vec3, mgl64.Vec3) {
	if !m.started {
		m.started = true
		m.startA, m.startB = m.a.transform.Position, m.b.transform.Position
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	return m.a.transform.Position.Sub(m.startA), m.b.transform.Position.Sub(m.startB)
}

// Resolve consumes the collisions in list order. It does not clear the list.
func (r *Resolver) Resolve(collisions []collision.CollisionData, bodies ecs.Bodies, dt float64) Stats {
	var stats Stats

	manifolds := make([]*manifold, 0, len(collisions))
	for i := range collisions {
		data := &collisions[i]
		if !data.Colliding || len(data.Contacts) == 0 {
			continue
		}

		a, okA := load(bodies, data.EntityA)
		b, okB := load(bodies, data.EntityB)
		if !okA || !okB {
			stats.Skipped++
			r.logger().Printf("resolver: skipping collision %d-%d, missing transform", data.EntityA, data.EntityB)
			continue
		}

		stats.Collisions++
		stats.Contacts += len(data.Contacts)
		manifolds = append(manifolds, &manifold{contacts: data.Contacts, a: a, b: b})
	}

	if r.Mode == ModeSequential {
		for _, m := range manifolds {
			r.solveSequential(m.contacts, m.a, m.b, dt, &stats)
		}
		return stats
	}

	for range max(r.Passes, 1) {
		for _, m := range manifolds {
			separate(m, &stats)
			impulse(m, &stats)
		}
	}

	return stats
}

// separate projects both participants out of each other along every contact
// normal, sharing the correction by inverse mass
func separate(m *manifold, stats *Stats) {
	a, b := m.a, m.b
	count := float64(len(m.contacts))
	shareA, shareB := separationShares(a, b)
	if shareA == 0 && shareB == 0 {
		return
	}

	movedA, movedB := m.moved()
	apart := movedA.Sub(movedB)

	for _, contact := range m.contacts {
		remaining := contact.Penetration - apart.Dot(contact.Normal)
		if remaining <= 0 {
			continue
		}
		correction := contact.Normal.Mul(remaining / count)

		if shareA > 0 {
			a.transform.Position = a.transform.Position.Add(correction.Mul(shareA))
		}
		if shareB > 0 {
			b.transform.Position = b.transform.Position.Sub(correction.Mul(shareB))
		}
		stats.Separations++
	}
}

func separationShares(a, b participant) (float64, float64) {
	total := a.inverseMass() + b.inverseMass()

	share := func(p participant) float64 {
		switch {
		case !p.movable:
			return 0
		case p.body == nil:
			return 1
		case total <= epsilon:
			return 0
		default:
			return p.body.InverseMass() / total
		}
	}

	return share(a), share(b)
}

// centroid averages the contact offsets and normals of a manifold
func centroid(contacts []collision.ContactPoint) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	var offsetA, offsetB, normal mgl64.Vec3
	for _, contact := range contacts {
		offsetA = offsetA.Add(contact.ContactA)
		offsetB = offsetB.Add(contact.ContactB)
		normal = normal.Add(contact.Normal)
	}
	inverseCount := 1 / float64(len(contacts))

	return offsetA.Mul(inverseCount), offsetB.Mul(inverseCount), normal.Mul(inverseCount)
}

// impulse solves one restitution impulse for the whole manifold at the
// centroid of its contacts, then applies J/count at every contact point.
// The summed linear and angular impulses equal J applied at the centroid.
func impulse(m *manifold, stats *Stats) {
	a, b := m.a, m.b
	if !a.responds() && !b.responds() {
		return
	}

	rA, rB, n := centroid(m.contacts)
	length := n.Len()
	if length <= epsilon {
		return
	}
	n = n.Mul(1 / length)

	linearA, angularA := a.velocity()
	linearB, angularB := b.velocity()
	velocityA := linearA.Add(angularA.Cross(rA))
	velocityB := linearB.Add(angularB.Cross(rB))
	approach := velocityB.Sub(velocityA).Dot(n)

	// separating manifolds get no impulse
	if approach <= 0 {
		return
	}

	denominator := a.inverseMass() + b.inverseMass() + a.angularTerm(rA, n) + b.angularTerm(rB, n)
	if denominator <= epsilon {
		return
	}

	restitution := 0.0
	if approach > RestitutionThreshold {
		restitution = a.elasticity() * b.elasticity()
	}

	j := -(1 + restitution) * approach / denominator
	shared := n.Mul(j / float64(len(m.contacts)))

	for _, contact := range m.contacts {
		if a.responds() {
			a.body.ApplyLinearImpulse(shared.Mul(-1))
			a.body.ApplyAngularImpulse(contact.ContactA.Cross(shared.Mul(-1)))
		}
		if b.responds() {
			b.body.ApplyLinearImpulse(shared)
			b.body.ApplyAngularImpulse(contact.ContactB.Cross(shared))
		}
		stats.Impulses++
	}
}
// solveSequential runs the persistent-contact solver on one manifold.
// The bias pushes penetrating contacts apart over the next integration.
func (r *Resolver) solveSequential(contacts []collision.ContactPoint, a, b participant, dt float64, stats *Stats) {
	if !a.responds() && !b.responds() {
		return
	}

	iterations := r.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	restitution := a.elasticity() * b.elasticity()
	inverseMass := a.inverseMass() + b.inverseMass()

	effectiveMass := make([]float64, len(contacts))
	for i := range contacts {
		contact := &contacts[i]
		contact.SumImpulseContact = 0
		contact.SumImpulseFriction = 0
		contact.BTerm = 0

		denominator := inverseMass + a.angularTerm(contact.ContactA, contact.Normal) + b.angularTerm(contact.ContactB, contact.Normal)
		if denominator > epsilon {
			effectiveMass[i] = 1 / denominator
		}

		if dt > 0 {
			contact.BTerm = (Baumgarte / dt) * math.Max(contact.Penetration-Slop, 0)
		}
		if separating := normalVelocity(*contact, a, b); separating < -RestitutionThreshold {
			contact.BTerm += -restitution * separating
		}
	}

	for range iterations {
		for i := range contacts {
			if effectiveMass[i] == 0 {
				continue
			}
			contact := &contacts[i]

			lambda := effectiveMass[i] * (contact.BTerm - normalVelocity(*contact, a, b))
			previous := contact.SumImpulseContact
			contact.SumImpulseContact = math.Max(previous+lambda, 0)
			lambda = contact.SumImpulseContact - previous
			if lambda == 0 {
				continue
			}

			impulse := contact.Normal.Mul(lambda)
			if a.responds() {
				a.body.ApplyLinearImpulse(impulse)
				a.body.ApplyAngularImpulse(contact.ContactA.Cross(impulse))
			}
			if b.responds() {
				b.body.ApplyLinearImpulse(impulse.Mul(-1))
				b.body.ApplyAngularImpulse(contact.ContactB.Cross(impulse.Mul(-1)))
			}
			stats.Impulses++
		}
	}
}

// normalVelocity is the speed of A away from B along the contact normal
func normalVelocity(contact collision.ContactPoint, a, b participant) float64 {
	linearA, angularA := a.velocity()
	linearB, angularB := b.velocity()
	velocityA := linearA.Add(angularA.Cross(contact.ContactA))
	velocityB := linearB.Add(angularB.Cross(contact.ContactB))

	return velocityA.Sub(velocityB).Dot(contact.Normal)
}
