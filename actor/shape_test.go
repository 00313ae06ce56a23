package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// Shape Bounds Tests
// =============================================================================

func TestShapeWorldBounds(t *testing.T) {
	rotated := Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: mgl64.QuatRotate(mgl64.DegToRad(45), mgl64.Vec3{0, 1, 0}),
	}
	sqrt2 := math.Sqrt(2)

	tests := []struct {
		name      string
		shape     Shape
		transform Transform
		expected  AABB
	}{
		{
			name:      "AxisBox ignores rotation",
			shape:     NewAxisBox(mgl64.Vec3{1, 1, 1}),
			transform: rotated,
			expected:  AABB{Min: mgl64.Vec3{0, 1, 2}, Max: mgl64.Vec3{2, 3, 4}},
		},
		{
			name:      "AxisBox follows scale",
			shape:     NewAxisBox(mgl64.Vec3{1, 1, 1}),
			transform: Transform{Scale: mgl64.Vec3{2, 1, 3}},
			expected:  AABB{Min: mgl64.Vec3{-2, -1, -3}, Max: mgl64.Vec3{2, 1, 3}},
		},
		{
			name:      "Box grows with rotation",
			shape:     NewBox(mgl64.Vec3{1, 1, 1}),
			transform: rotated,
			expected: AABB{
				Min: mgl64.Vec3{1 - sqrt2, 1, 3 - sqrt2},
				Max: mgl64.Vec3{1 + sqrt2, 3, 3 + sqrt2},
			},
		},
		{
			name:      "Sphere uses biggest scale",
			shape:     NewSphere(1),
			transform: Transform{Position: mgl64.Vec3{0, 5, 0}, Scale: mgl64.Vec3{1, 3, 2}},
			expected:  AABB{Min: mgl64.Vec3{-3, 2, -3}, Max: mgl64.Vec3{3, 8, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.shape.WorldBounds(tt.transform)
			if !vec3AlmostEqual(got.Min, tt.expected.Min, 1e-9) || !vec3AlmostEqual(got.Max, tt.expected.Max, 1e-9) {
				t.Errorf("WorldBounds() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShapeTypes(t *testing.T) {
	shapes := map[ShapeType]Shape{
		ShapeTypeAABB:   NewAxisBox(mgl64.Vec3{1, 1, 1}),
		ShapeTypeBox:    NewBox(mgl64.Vec3{1, 1, 1}),
		ShapeTypeSphere: NewSphere(1),
	}

	for expected, shape := range shapes {
		if shape.Type() != expected {
			t.Errorf("%T.Type() = %v, want %v", shape, shape.Type(), expected)
		}
	}
}

func TestShapeInertia(t *testing.T) {
	box := NewBox(mgl64.Vec3{0.5, 1, 1.5})
	inertia := box.ComputeInertia(12)
	// size 1x2x3, I = m/12 * (a² + b²)
	if !almostEqual(inertia.At(0, 0), 13, 1e-9) || !almostEqual(inertia.At(1, 1), 10, 1e-9) || !almostEqual(inertia.At(2, 2), 5, 1e-9) {
		t.Errorf("box inertia = %v", inertia)
	}

	sphere := NewSphere(2)
	if got := sphere.ComputeInertia(5).At(1, 1); !almostEqual(got, 8, 1e-9) {
		t.Errorf("sphere inertia = %v, want 8", got)
	}
}

// =============================================================================
// Hull Tests
// =============================================================================

func TestBoxHullTopology(t *testing.T) {
	hull := NewBox(mgl64.Vec3{1, 2, 3}).Hull()

	if len(hull.Vertices) != 8 || len(hull.Edges) != 24 || len(hull.Faces) != 6 {
		t.Fatalf("hull has %d vertices, %d half-edges, %d faces", len(hull.Vertices), len(hull.Edges), len(hull.Faces))
	}

	for i, edge := range hull.Edges {
		if edge.Twin < 0 {
			t.Fatalf("half-edge %d has no twin", i)
		}
		twin := hull.Edges[edge.Twin]
		if twin.Twin != i {
			t.Errorf("twin of twin of %d is %d", i, twin.Twin)
		}
		if twin.Face == edge.Face {
			t.Errorf("half-edge %d and its twin share face %d", i, edge.Face)
		}
		// twin runs in the opposite direction
		if twin.Origin != hull.Edges[edge.Next].Origin {
			t.Errorf("twin of %d does not start where %d ends", i, i)
		}
	}
}

func TestBoxHullFaceOrientation(t *testing.T) {
	hull := NewBoxHull(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

	for f, face := range hull.Faces {
		vertices := hull.FaceVertices(f)
		if len(vertices) != 4 {
			t.Fatalf("face %d has %d vertices", f, len(vertices))
		}

		// Counter-clockwise seen from outside: (v1-v0) x (v2-v1) points along the normal
		winding := vertices[1].Sub(vertices[0]).Cross(vertices[2].Sub(vertices[1]))
		if winding.Dot(face.Normal) <= 0 {
			t.Errorf("face %d winding %v disagrees with normal %v", f, winding, face.Normal)
		}
		for _, v := range vertices {
			if !almostEqual(v.Dot(face.Normal), 1, 1e-12) {
				t.Errorf("vertex %v is not on face %d", v, f)
			}
		}
	}
}

func TestBoxHullAdjacency(t *testing.T) {
	hull := NewBoxHull(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1})

	adjacent := hull.AdjacentFaces(FacePosY)
	if len(adjacent) != 4 {
		t.Fatalf("AdjacentFaces() = %v", adjacent)
	}
	for _, f := range adjacent {
		if f == FacePosY || f == FaceNegY {
			t.Errorf("+y face should not be adjacent to %d", f)
		}
	}

	if got := len(hull.FaceAxes()); got != 3 {
		t.Errorf("FaceAxes() returned %d axes, want 3", got)
	}
	if got := len(hull.EdgeAxes()); got != 3 {
		t.Errorf("EdgeAxes() returned %d axes, want 3", got)
	}
}

func TestBoxHullRebuiltOnSetExtents(t *testing.T) {
	box := NewBox(mgl64.Vec3{1, 1, 1})
	first := box.Hull()
	if box.Hull() != first {
		t.Error("hull should be cached between calls")
	}

	box.SetExtents(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})
	second := box.Hull()
	if second == first {
		t.Fatal("hull should be rebuilt after SetExtents")
	}
	if second.Vertices[7] != (mgl64.Vec3{2, 2, 2}) {
		t.Errorf("rebuilt hull max vertex = %v", second.Vertices[7])
	}
}

func TestNewColliderDefaults(t *testing.T) {
	collider := NewCollider(NewSphere(1))

	if !collider.Movable || !collider.BroadPhaseFirst || collider.Trigger {
		t.Errorf("unexpected defaults: %+v", collider)
	}
}
