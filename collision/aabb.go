package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// faceAxes lists the candidate separation normals in tie-breaking order: -x, +x, -y, +y, -z, +z
var faceAxes = [6]mgl64.Vec3{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

func intersectAABBAABB(a, b Body) Result {
	boxA := a.Collider.Shape.WorldBounds(a.Transform)
	boxB := b.Collider.Shape.WorldBounds(b.Transform)

	// touching faces are separated, as in the SAT and sphere tests
	overlap := boxA.Intersection(boxB).Size()
	if overlap.X() <= 0 || overlap.Y() <= 0 || overlap.Z() <= 0 {
		return Result{}
	}

	// penetration if A is pushed out along each candidate normal
	distances := [6]float64{
		boxA.Max.X() - boxB.Min.X(), boxB.Max.X() - boxA.Min.X(),
		boxA.Max.Y() - boxB.Min.Y(), boxB.Max.Y() - boxA.Min.Y(),
		boxA.Max.Z() - boxB.Min.Z(), boxB.Max.Z() - boxA.Min.Z(),
	}

	best := 0
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[best] {
			best = i
		}
	}

	point := boxA.Intersection(boxB).Center()
	contact := newContact(a, b, point, point, faceAxes[best], math.Max(distances[best], 0))

	return Result{Colliding: true, Contacts: []ContactPoint{contact}}
}
