package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

var fallbackNormal = mgl64.Vec3{0, 1, 0}

func sphereOf(body Body) (mgl64.Vec3, float64) {
	sphere := body.Collider.Shape.(*actor.Sphere)
	return body.Transform.Position, sphere.WorldRadius(body.Transform)
}

func intersectSphereSphere(a, b Body) Result {
	centerA, radiusA := sphereOf(a)
	centerB, radiusB := sphereOf(b)

	delta := centerA.Sub(centerB)
	distance := delta.Len()
	radius := radiusA + radiusB
	if distance >= radius {
		return Result{}
	}

	normal := fallbackNormal
	if distance > epsilon {
		normal = delta.Mul(1 / distance)
	}

	onA := centerA.Sub(normal.Mul(radiusA))
	onB := centerB.Add(normal.Mul(radiusB))
	contact := newContact(a, b, onA, onB, normal, radius-distance)

	return Result{Colliding: true, Contacts: []ContactPoint{contact}}
}

func intersectSphereAABB(a, b Body) Result {
	center, radius := sphereOf(a)
	bounds := b.Collider.Shape.WorldBounds(b.Transform)

	normal, onBox, penetration, ok := sphereVsBounds(center, radius, bounds)
	if !ok {
		return Result{}
	}

	onSphere := center.Sub(normal.Mul(radius))
	contact := newContact(a, b, onSphere, onBox, normal, penetration)

	return Result{Colliding: true, Contacts: []ContactPoint{contact}}
}

// intersectSphereBox runs the sphere test in the box frame: rotated and
// translated, with the box scale baked into its bounds
func intersectSphereBox(a, b Body) Result {
	center, radius := sphereOf(a)
	box := b.Collider.Shape.(*actor.Box)

	rotation := b.Transform.Orientation()
	scale := b.Transform.Scaling()
	local := box.LocalBounds()
	bounds := actor.NewAABBFromPoints(
		mgl64.Vec3{local.Min.X() * scale.X(), local.Min.Y() * scale.Y(), local.Min.Z() * scale.Z()},
		mgl64.Vec3{local.Max.X() * scale.X(), local.Max.Y() * scale.Y(), local.Max.Z() * scale.Z()},
	)
	localCenter := rotation.Conjugate().Rotate(center.Sub(b.Transform.Position))

	localNormal, localOnBox, penetration, ok := sphereVsBounds(localCenter, radius, bounds)
	if !ok {
		return Result{}
	}

	normal := rotation.Rotate(localNormal)
	onBox := rotation.Rotate(localOnBox).Add(b.Transform.Position)
	onSphere := center.Sub(normal.Mul(radius))
	contact := newContact(a, b, onSphere, onBox, normal, penetration)

	return Result{Colliding: true, Contacts: []ContactPoint{contact}}
}

// sphereVsBounds returns the normal from the box towards the sphere, the
// contact point on the box surface and the penetration depth
func sphereVsBounds(center mgl64.Vec3, radius float64, bounds actor.AABB) (mgl64.Vec3, mgl64.Vec3, float64, bool) {
	closest := bounds.ClosestPoint(center)
	delta := center.Sub(closest)
	if distance := delta.Len(); distance > epsilon {
		if distance >= radius {
			return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
		}

		return delta.Mul(1 / distance), closest, radius - distance, true
	}

	// centre inside or on the box: push out through the nearest face
	distances := [6]float64{
		center.X() - bounds.Min.X(), bounds.Max.X() - center.X(),
		center.Y() - bounds.Min.Y(), bounds.Max.Y() - center.Y(),
		center.Z() - bounds.Min.Z(), bounds.Max.Z() - center.Z(),
	}

	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}

	normal := faceAxes[best]
	distance := math.Max(distances[best], 0)
	onBox := center.Add(normal.Mul(distance))

	return normal, onBox, radius + distance, true
}
