package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face indices of a box hull
const (
	FaceNegX = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// boxFaceLoops lists, for each face, its corners counter-clockwise seen from outside.
// Corner i of a box is at x = i&1, y = i&2, z = i&4 (0 is Min, 1 is Max).
var boxFaceLoops = [6][4]int{
	FaceNegX: {0, 4, 6, 2},
	FacePosX: {1, 3, 7, 5},
	FaceNegY: {0, 1, 5, 4},
	FacePosY: {2, 6, 7, 3},
	FaceNegZ: {0, 2, 3, 1},
	FacePosZ: {4, 5, 7, 6},
}

var boxFaceNormals = [6]mgl64.Vec3{
	FaceNegX: {-1, 0, 0},
	FacePosX: {1, 0, 0},
	FaceNegY: {0, -1, 0},
	FacePosY: {0, 1, 0},
	FaceNegZ: {0, 0, -1},
	FacePosZ: {0, 0, 1},
}

// HalfEdge is a directed edge of a face loop
type HalfEdge struct {
	Origin int // vertex index
	Twin   int // opposite half-edge, on the neighbouring face
	Next   int // next half-edge of the same face
	Face   int
}

// HullFace is a planar polygon of the hull
type HullFace struct {
	Normal mgl64.Vec3 // local space, outward
	Edge   int        // first half-edge of the loop
}

// Hull is a half-edge boundary representation of a convex polyhedron in local space
type Hull struct {
	Vertices []mgl64.Vec3
	Edges    []HalfEdge
	Faces    []HullFace
}

// NewBoxHull builds the 8 vertex, 24 half-edge, 6 face hull of a box
func NewBoxHull(min, max mgl64.Vec3) *Hull {
	bounds := AABB{Min: min, Max: max}
	corners := bounds.Corners()

	hull := &Hull{
		Vertices: corners[:],
		Edges:    make([]HalfEdge, 0, 24),
		Faces:    make([]HullFace, 0, 6),
	}

	type directed struct{ from, to int }
	byEndpoints := make(map[directed]int, 24)

	for f, loop := range boxFaceLoops {
		first := len(hull.Edges)
		for k := range loop {
			index := first + k
			hull.Edges = append(hull.Edges, HalfEdge{
				Origin: loop[k],
				Twin:   -1,
				Next:   first + (k+1)%len(loop),
				Face:   f,
			})
			byEndpoints[directed{loop[k], loop[(k+1)%len(loop)]}] = index
		}
		hull.Faces = append(hull.Faces, HullFace{Normal: boxFaceNormals[f], Edge: first})
	}

	for i := range hull.Edges {
		from := hull.Edges[i].Origin
		to := hull.Edges[hull.Edges[i].Next].Origin
		if twin, ok := byEndpoints[directed{to, from}]; ok {
			hull.Edges[i].Twin = twin
		}
	}

	return hull
}

// FaceVertices returns the local vertices of face f in loop order
func (h *Hull) FaceVertices(f int) []mgl64.Vec3 {
	vertices := make([]mgl64.Vec3, 0, 4)
	start := h.Faces[f].Edge
	e := start
	for {
		vertices = append(vertices, h.Vertices[h.Edges[e].Origin])
		e = h.Edges[e].Next
		if e == start {
			break
		}
	}

	return vertices
}

// AdjacentFaces returns the faces sharing an edge with f, in loop order
func (h *Hull) AdjacentFaces(f int) []int {
	faces := make([]int, 0, 4)
	start := h.Faces[f].Edge
	e := start
	for {
		if twin := h.Edges[e].Twin; twin >= 0 {
			faces = append(faces, h.Edges[twin].Face)
		}
		e = h.Edges[e].Next
		if e == start {
			break
		}
	}

	return faces
}

// FaceAxes returns the face normals with parallel duplicates removed
func (h *Hull) FaceAxes() []mgl64.Vec3 {
	axes := make([]mgl64.Vec3, 0, len(h.Faces))
	for _, face := range h.Faces {
		axes = appendUniqueAxis(axes, face.Normal)
	}

	return axes
}

// EdgeAxes returns the normalized edge directions with parallel duplicates removed
func (h *Hull) EdgeAxes() []mgl64.Vec3 {
	axes := make([]mgl64.Vec3, 0, 3)
	for _, edge := range h.Edges {
		dir := h.Vertices[h.Edges[edge.Next].Origin].Sub(h.Vertices[edge.Origin])
		if dir.Len() < 1e-12 {
			continue
		}
		axes = appendUniqueAxis(axes, dir.Normalize())
	}

	return axes
}

func appendUniqueAxis(axes []mgl64.Vec3, axis mgl64.Vec3) []mgl64.Vec3 {
	for _, existing := range axes {
		if math.Abs(math.Abs(existing.Dot(axis))-1) < 1e-9 {
			return axes
		}
	}

	return append(axes, axis)
}
