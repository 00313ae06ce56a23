package collision

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// Body is the view of an entity a shape test needs
type Body struct {
	Collider  *actor.Collider
	Transform actor.Transform
}

// Result of a single shape test
type Result struct {
	Colliding bool
	Contacts  []ContactPoint
}

type intersectFunc func(a, b Body) Result

// dispatch maps a pair of shape tags to its routine. Reversed pairs reuse the
// canonical routine through swapped.
var dispatch = [actor.ShapeTypeCount][actor.ShapeTypeCount]intersectFunc{
	actor.ShapeTypeAABB: {
		actor.ShapeTypeAABB:   intersectAABBAABB,
		actor.ShapeTypeBox:    swapped(intersectBoxAABB),
		actor.ShapeTypeSphere: swapped(intersectSphereAABB),
	},
	actor.ShapeTypeBox: {
		actor.ShapeTypeAABB:   intersectBoxAABB,
		actor.ShapeTypeBox:    intersectBoxBox,
		actor.ShapeTypeSphere: swapped(intersectSphereBox),
	},
	actor.ShapeTypeSphere: {
		actor.ShapeTypeAABB:   intersectSphereAABB,
		actor.ShapeTypeBox:    intersectSphereBox,
		actor.ShapeTypeSphere: intersectSphereSphere,
	},
}

// swapped runs fn with the arguments exchanged and flips the result back
func swapped(fn intersectFunc) intersectFunc {
	return func(a, b Body) Result {
		result := fn(b, a)
		for i := range result.Contacts {
			c := &result.Contacts[i]
			c.Normal = c.Normal.Mul(-1)
			c.ContactA, c.ContactB = c.ContactB, c.ContactA
		}

		return result
	}
}

// Intersect tests two bodies and returns their contact manifold.
// Normals point from b towards a.
func Intersect(a, b Body) Result {
	if a.Collider == nil || b.Collider == nil || a.Collider.Shape == nil || b.Collider.Shape == nil {
		return Result{}
	}

	typeA, typeB := a.Collider.Shape.Type(), b.Collider.Shape.Type()
	if typeA < 0 || typeA >= actor.ShapeTypeCount || typeB < 0 || typeB >= actor.ShapeTypeCount {
		return Result{}
	}

	return dispatch[typeA][typeB](a, b)
}

// Test runs the narrow phase between two entities. ok is false when either
// entity lacks a transform or a collider.
func Test(bodies ecs.Bodies, idA, idB ecs.EntityID) (data CollisionData, ok bool) {
	data = CollisionData{EntityA: idA, EntityB: idB}

	transformA, transformB := bodies.Transform(idA), bodies.Transform(idB)
	colliderA, colliderB := bodies.Collider(idA), bodies.Collider(idB)
	if transformA == nil || transformB == nil || colliderA == nil || colliderB == nil {
		return data, false
	}

	result := Intersect(
		Body{Collider: colliderA, Transform: *transformA},
		Body{Collider: colliderB, Transform: *transformB},
	)
	data.Colliding = result.Colliding
	data.Contacts = result.Contacts

	return data, true
}

// newContact builds a contact from the world points on each body
func newContact(a, b Body, onA, onB, normal mgl64.Vec3, penetration float64) ContactPoint {
	return ContactPoint{
		ContactA:    onA.Sub(a.Transform.Position),
		ContactB:    onB.Sub(b.Transform.Position),
		Normal:      normal,
		Penetration: penetration,
	}
}

// broadPhaseFirst reports whether both colliders want the bounding-sphere check
func broadPhaseFirst(a, b Body) bool {
	return a.Collider.BroadPhaseFirst && b.Collider.BroadPhaseFirst
}

// boundingSpheresOverlap compares the spheres enclosing the world bounds of each shape
func boundingSpheresOverlap(a, b Body) bool {
	centerA, radiusA := boundingSphere(a)
	centerB, radiusB := boundingSphere(b)
	radius := radiusA + radiusB

	return centerA.Sub(centerB).LenSqr() <= radius*radius
}

func boundingSphere(body Body) (mgl64.Vec3, float64) {
	if box, ok := body.Collider.Shape.(*actor.Box); ok {
		center := body.Transform.Apply(box.LocalBounds().Center())
		return center, box.BoundingRadius(body.Transform)
	}

	bounds := body.Collider.Shape.WorldBounds(body.Transform)

	return bounds.Center(), bounds.Extents().Len()
}
