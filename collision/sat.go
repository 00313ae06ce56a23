package collision

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

var worldAxes = []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// polytope is a box hull placed in world space
type polytope struct {
	hull      *actor.Hull
	transform actor.Transform
	vertices  []mgl64.Vec3 // world space, indexed like hull.Vertices
}

func newPolytope(body Body) polytope {
	if box, ok := body.Collider.Shape.(*actor.Box); ok {
		return polytope{
			hull:      box.Hull(),
			transform: body.Transform,
			vertices:  box.WorldVertices(body.Transform),
		}
	}

	// axis-aligned shapes are rebuilt directly from their world bounds
	bounds := body.Collider.Shape.WorldBounds(body.Transform)
	hull := actor.NewBoxHull(bounds.Min, bounds.Max)

	return polytope{hull: hull, transform: actor.NewTransform(), vertices: hull.Vertices}
}

func (p polytope) direction(local mgl64.Vec3) mgl64.Vec3 {
	// a mirrored axis flips the faces along it
	scale := p.transform.Scaling()
	for i := 0; i < 3; i++ {
		if scale[i] < 0 {
			local[i] = -local[i]
		}
	}

	return p.transform.ApplyDirection(local)
}

func (p polytope) faceNormal(f int) mgl64.Vec3 {
	return p.direction(p.hull.Faces[f].Normal)
}

func (p polytope) faceVertices(f int) []mgl64.Vec3 {
	vertices := make([]mgl64.Vec3, 0, 4)
	start := p.hull.Faces[f].Edge
	e := start
	for {
		vertices = append(vertices, p.vertices[p.hull.Edges[e].Origin])
		e = p.hull.Edges[e].Next
		if e == start {
			break
		}
	}

	return vertices
}

func (p polytope) faceAxes() []mgl64.Vec3 {
	local := p.hull.FaceAxes()
	axes := make([]mgl64.Vec3, len(local))
	for i, axis := range local {
		axes[i] = p.direction(axis)
	}

	return axes
}

func (p polytope) edgeAxes() []mgl64.Vec3 {
	local := p.hull.EdgeAxes()
	axes := make([]mgl64.Vec3, len(local))
	for i, axis := range local {
		axes[i] = p.transform.ApplyDirection(axis)
	}

	return axes
}

func (p polytope) project(axis mgl64.Vec3) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range p.vertices {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}

	return min, max
}

// mostAligned returns the face whose normal is closest to dir
func (p polytope) mostAligned(dir mgl64.Vec3) (int, float64) {
	best, bestDot := 0, math.Inf(-1)
	for f := range p.hull.Faces {
		if d := p.faceNormal(f).Dot(dir); d > bestDot {
			best, bestDot = f, d
		}
	}

	return best, bestDot
}

// separatingAxis projects both polytopes on every axis. It returns the axis of
// least penetration oriented from b towards a, or false on the first gap.
func separatingAxis(a, b polytope, axes []mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	if len(axes) == 0 {
		return mgl64.Vec3{}, 0, false
	}

	var normal mgl64.Vec3
	depth := math.Inf(1)
	for _, axis := range axes {
		minA, maxA := a.project(axis)
		minB, maxB := b.project(axis)

		if math.Min(maxA, maxB)-math.Max(minA, minB) <= 0 {
			return mgl64.Vec3{}, 0, false
		}

		// distance A must travel along +axis or -axis to get out
		pushPositive := maxB - minA
		pushNegative := maxA - minB
		if pushPositive < pushNegative {
			if pushPositive < depth {
				depth, normal = pushPositive, axis
			}
		} else if pushNegative < depth {
			depth, normal = pushNegative, axis.Mul(-1)
		}
	}

	return normal, depth, true
}

func intersectBoxBox(a, b Body) Result {
	if broadPhaseFirst(a, b) && !boundingSpheresOverlap(a, b) {
		return Result{}
	}

	pa, pb := newPolytope(a), newPolytope(b)

	axes := append(pa.faceAxes(), pb.faceAxes()...)
	for _, edgeA := range pa.edgeAxes() {
		for _, edgeB := range pb.edgeAxes() {
			cross := edgeA.Cross(edgeB)
			// parallel edges are already covered by the face axes
			if cross.Len() < 1e-6 {
				continue
			}
			axes = append(axes, cross.Normalize())
		}
	}

	normal, depth, ok := separatingAxis(pa, pb, axes)
	if !ok {
		return Result{}
	}

	return Result{Colliding: true, Contacts: clipContacts(a, b, pa, pb, normal, depth)}
}

func intersectBoxAABB(a, b Body) Result {
	if broadPhaseFirst(a, b) && !boundingSpheresOverlap(a, b) {
		return Result{}
	}

	pa, pb := newPolytope(a), newPolytope(b)
	axes := append(pa.faceAxes(), worldAxes...)

	normal, depth, ok := separatingAxis(pa, pb, axes)
	if !ok {
		return Result{}
	}

	return Result{Colliding: true, Contacts: clipContacts(a, b, pa, pb, normal, depth)}
}
