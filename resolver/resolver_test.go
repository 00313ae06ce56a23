package resolver

import (
	"io"
	"log"
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

type scene struct {
	registry *ecs.Registry
}

func newScene() *scene {
	return &scene{registry: ecs.NewRegistry()}
}

// add creates an entity; a negative mass leaves it without a rigid body
func (s *scene) add(shape actor.Shape, position mgl64.Vec3, mass float64, velocity mgl64.Vec3) ecs.EntityID {
	id := s.registry.Create("")
	s.registry.SetTransform(id, actor.Transform{Position: position})
	s.registry.AddCollider(id, actor.NewCollider(shape))
	if mass >= 0 {
		body := actor.NewRigidBody(mass, shape)
		body.Velocity = velocity
		s.registry.AddRigidBody(id, body)
	}

	return id
}

func (s *scene) collide(t *testing.T, a, b ecs.EntityID) []collision.CollisionData {
	t.Helper()

	data, ok := collision.Test(s.registry, a, b)
	if !ok || !data.Colliding {
		t.Fatalf("entities %d and %d should collide", a, b)
	}

	return []collision.CollisionData{data}
}

func quietResolver(mode Mode) *Resolver {
	r := New()
	r.Mode = mode
	r.Logger = log.New(io.Discard, "", 0)

	return r
}

func unitAABB() actor.Shape {
	return actor.NewAxisBox(mgl64.Vec3{1, 1, 1})
}

// =============================================================================
// Impulse Mode Tests
// =============================================================================

func TestResolveFallingBoxOnStaticBox(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, -5, 0})

	stats := quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if stats.Collisions != 1 || stats.Impulses != 1 || stats.Separations != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !almostEqual(s.registry.Transform(b).Position.Y(), 2, 1e-9) {
		t.Errorf("B position = %v, want y = 2", s.registry.Transform(b).Position)
	}
	if s.registry.Transform(a).Position != (mgl64.Vec3{}) {
		t.Errorf("static A moved to %v", s.registry.Transform(a).Position)
	}

	// restitution 0.5 * 0.5 reverses and scales the velocity
	velocity := s.registry.RigidBody(b).Velocity
	if !vec3AlmostEqual(velocity, mgl64.Vec3{0, 1.25, 0}, 1e-9) {
		t.Errorf("B velocity = %v, want (0, 1.25, 0)", velocity)
	}
	if s.registry.RigidBody(b).AngularVelocity.Len() > 1e-12 {
		t.Errorf("centred contact should not spin B: %v", s.registry.RigidBody(b).AngularVelocity)
	}
}

func TestResolveNoInterpenetrationGrowth(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 2, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{1.7, 0.3, 0}, 2, mgl64.Vec3{})

	collisions := s.collide(t, a, b)
	before := collisions[0].Contacts[0].Penetration
	quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	after, _ := collision.Test(s.registry, a, b)
	if after.Colliding && after.Contacts[0].Penetration > 1e-9 {
		t.Errorf("penetration went from %v to %v", before, after.Contacts[0].Penetration)
	}

	// equal inverse masses share the correction
	if !almostEqual(s.registry.Transform(a).Position.X(), -0.15, 1e-9) || !almostEqual(s.registry.Transform(b).Position.X(), 1.85, 1e-9) {
		t.Errorf("positions = %v, %v", s.registry.Transform(a).Position, s.registry.Transform(b).Position)
	}
}

func TestResolveInelasticHeadOn(t *testing.T) {
	s := newScene()
	a := s.add(actor.NewSphere(1), mgl64.Vec3{-0.9, 0, 0}, 1, mgl64.Vec3{3, 0, 0})
	b := s.add(actor.NewSphere(1), mgl64.Vec3{0.9, 0, 0}, 1, mgl64.Vec3{-1, 0, 0})
	s.registry.RigidBody(a).SetElasticity(0)
	s.registry.RigidBody(b).SetElasticity(0)

	quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	velocityA := s.registry.RigidBody(a).Velocity
	velocityB := s.registry.RigidBody(b).Velocity
	if !vec3AlmostEqual(velocityA, velocityB, 1e-9) {
		t.Errorf("velocities differ after a perfectly inelastic collision: %v vs %v", velocityA, velocityB)
	}
	if !almostEqual(velocityA.X(), 1, 1e-9) {
		t.Errorf("momentum not conserved: %v", velocityA)
	}
}

func TestResolveSeparatingContactNoImpulse(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, 3, 0})

	stats := quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if stats.Impulses != 0 {
		t.Errorf("Impulses = %d, want 0", stats.Impulses)
	}
	if s.registry.RigidBody(b).Velocity != (mgl64.Vec3{0, 3, 0}) {
		t.Errorf("velocity changed to %v", s.registry.RigidBody(b).Velocity)
	}
}

func TestResolveEmpty(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{1, 2, 3}, 1, mgl64.Vec3{4, 5, 6})

	for _, mode := range []Mode{ModeImpulse, ModeSequential} {
		stats := quietResolver(mode).Resolve(nil, s.registry, 1.0/60)
		if stats != (Stats{}) {
			t.Errorf("%v: stats = %+v", mode, stats)
		}
	}

	if s.registry.Transform(a).Position != (mgl64.Vec3{1, 2, 3}) || s.registry.RigidBody(a).Velocity != (mgl64.Vec3{4, 5, 6}) {
		t.Error("empty input changed the body")
	}
}

func TestResolveBothStatic(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.5, 0}, 0, mgl64.Vec3{})

	stats := quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if stats.Separations != 0 || stats.Impulses != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if s.registry.Transform(b).Position != (mgl64.Vec3{0, 1.5, 0}) {
		t.Error("static bodies should never move")
	}
}

func TestResolveMovableWithoutBody(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 1.5, 0}, -1, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})

	stats := quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if !almostEqual(s.registry.Transform(a).Position.Y(), 2, 1e-9) {
		t.Errorf("A position = %v, want full correction to y = 2", s.registry.Transform(a).Position)
	}
	if stats.Impulses != 0 {
		t.Errorf("Impulses = %d, bodies without physics cannot take impulses", stats.Impulses)
	}
}

func TestResolveNotMovable(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, -5, 0})
	s.registry.Collider(b).Movable = false

	quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if s.registry.Transform(b).Position != (mgl64.Vec3{0, 1.8, 0}) || s.registry.RigidBody(b).Velocity != (mgl64.Vec3{0, -5, 0}) {
		t.Error("a collider that is not movable should be left alone")
	}
}

func TestResolveBoxManifold(t *testing.T) {
	s := newScene()
	a := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, -5, 0})

	collisions := s.collide(t, a, b)
	if len(collisions[0].Contacts) != 4 {
		t.Fatalf("got %d contacts, want 4", len(collisions[0].Contacts))
	}
	stats := quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	if stats.Contacts != 4 || stats.Impulses != 4 {
		t.Errorf("stats = %+v", stats)
	}
	// the correction is shared between the four contacts
	if !almostEqual(s.registry.Transform(b).Position.Y(), 2, 1e-9) {
		t.Errorf("B position = %v, want y = 2", s.registry.Transform(b).Position)
	}
	// one impulse for the face, split over the corners
	body := s.registry.RigidBody(b)
	if !vec3AlmostEqual(body.Velocity, mgl64.Vec3{0, 1.25, 0}, 1e-9) {
		t.Errorf("B velocity = %v, want (0, 1.25, 0)", body.Velocity)
	}
	// symmetric corners cancel out
	if body.AngularVelocity.Len() > 1e-9 {
		t.Errorf("B spins: %v", body.AngularVelocity)
	}
}

func TestResolveRotatedBoxManifold(t *testing.T) {
	s := newScene()
	a := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, -5, 0})
	rotation := mgl64.QuatRotate(mgl64.DegToRad(45), mgl64.Vec3{0, 1, 0})
	s.registry.Transform(b).Rotation = rotation
	s.registry.RigidBody(b).UpdateInertiaTensor(rotation)

	collisions := s.collide(t, a, b)
	if len(collisions[0].Contacts) < 3 {
		t.Fatalf("got %d contacts, want a face manifold", len(collisions[0].Contacts))
	}
	quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	body := s.registry.RigidBody(b)
	if !almostEqual(s.registry.Transform(b).Position.Y(), 2, 1e-9) {
		t.Errorf("B position = %v, want y = 2", s.registry.Transform(b).Position)
	}
	if !vec3AlmostEqual(body.Velocity, mgl64.Vec3{0, 1.25, 0}, 1e-9) {
		t.Errorf("B velocity = %v, want (0, 1.25, 0)", body.Velocity)
	}
	if body.AngularVelocity.Len() > 1e-9 {
		t.Errorf("B spins: %v", body.AngularVelocity)
	}
}

func TestResolveSlowContactDoesNotBounce(t *testing.T) {
	s := newScene()
	a := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 1.99, 0}, 1, mgl64.Vec3{0, -0.5, 0})

	quietResolver(ModeImpulse).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if velocity := s.registry.RigidBody(b).Velocity; !vec3AlmostEqual(velocity, mgl64.Vec3{}, 1e-9) {
		t.Errorf("B velocity = %v, want rest below the restitution threshold", velocity)
	}
}

func TestResolveOffCentreSpins(t *testing.T) {
	s := newScene()
	a := s.add(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(actor.NewSphere(1), mgl64.Vec3{0, 1.9, 0}, 1, mgl64.Vec3{0, -5, 0})

	collisions := s.collide(t, a, b)
	// push the contact sideways to create a lever arm
	collisions[0].Contacts[0].ContactB = mgl64.Vec3{0.5, -0.95, 0}
	quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	if s.registry.RigidBody(b).AngularVelocity.Z() == 0 {
		t.Error("an off-centre impulse should create angular velocity around Z")
	}
}

func TestResolveMissingTransform(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 1, mgl64.Vec3{})

	collisions := []collision.CollisionData{{
		EntityA:   a,
		EntityB:   99,
		Colliding: true,
		Contacts:  []collision.ContactPoint{{Normal: mgl64.Vec3{0, 1, 0}, Penetration: 1}},
	}}
	stats := quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	if stats.Skipped != 1 || stats.Collisions != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestResolveListOrder(t *testing.T) {
	s := newScene()
	ground := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	a := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 3.4, 0}, 1, mgl64.Vec3{})

	collisions := append(s.collide(t, ground, a), s.collide(t, a, b)...)
	quietResolver(ModeImpulse).Resolve(collisions, s.registry, 1.0/60)

	// ground pushes a up by 0.2 first, then a and b split their 0.4 overlap
	if !almostEqual(s.registry.Transform(a).Position.Y(), 1.8, 1e-9) {
		t.Errorf("a = %v", s.registry.Transform(a).Position)
	}
	if !almostEqual(s.registry.Transform(b).Position.Y(), 3.6, 1e-9) {
		t.Errorf("b = %v", s.registry.Transform(b).Position)
	}
}

func TestResolvePassesSettleAStack(t *testing.T) {
	s := newScene()
	ground := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	a := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 3.4, 0}, 1, mgl64.Vec3{})

	collisions := append(s.collide(t, ground, a), s.collide(t, a, b)...)
	r := quietResolver(ModeImpulse)
	r.Passes = 8
	r.Resolve(collisions, s.registry, 1.0/60)

	// every pass halves what the a-b split pushed back into the ground
	residual := 0.2 / 128
	if !almostEqual(s.registry.Transform(a).Position.Y(), 2-residual, 1e-9) {
		t.Errorf("a = %v", s.registry.Transform(a).Position)
	}
	if !almostEqual(s.registry.Transform(b).Position.Y(), 3.8-residual, 1e-9) {
		t.Errorf("b = %v", s.registry.Transform(b).Position)
	}
}

// =============================================================================
// Sequential Mode Tests
// =============================================================================

func TestResolveSequential(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.8, 0}, 1, mgl64.Vec3{0, -5, 0})

	dt := 1.0 / 60
	collisions := s.collide(t, a, b)
	stats := quietResolver(ModeSequential).Resolve(collisions, s.registry, dt)

	if stats.Impulses == 0 {
		t.Fatal("sequential mode should apply impulses")
	}
	// restitution bounce plus the Baumgarte push
	expected := 0.25*5 + (Baumgarte/dt)*(0.2-Slop)
	if !almostEqual(s.registry.RigidBody(b).Velocity.Y(), expected, 1e-9) {
		t.Errorf("B velocity = %v, want y = %v", s.registry.RigidBody(b).Velocity, expected)
	}
	contact := collisions[0].Contacts[0]
	if contact.SumImpulseContact <= 0 || contact.BTerm <= 0 {
		t.Errorf("solver scratch not filled: %+v", contact)
	}
	// positions are left to the integrator
	if s.registry.Transform(b).Position != (mgl64.Vec3{0, 1.8, 0}) {
		t.Error("sequential mode should not project positions")
	}
}

func TestResolveSequentialNeverPulls(t *testing.T) {
	s := newScene()
	a := s.add(unitAABB(), mgl64.Vec3{0, 0, 0}, 0, mgl64.Vec3{})
	b := s.add(unitAABB(), mgl64.Vec3{0, 1.9995, 0}, 1, mgl64.Vec3{0, 10, 0})

	quietResolver(ModeSequential).Resolve(s.collide(t, a, b), s.registry, 1.0/60)

	if s.registry.RigidBody(b).Velocity.Y() < 10 {
		t.Errorf("clamped impulses must not slow a separating body: %v", s.registry.RigidBody(b).Velocity)
	}
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}
