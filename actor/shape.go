package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeAABB ShapeType = iota
	ShapeTypeBox
	ShapeTypeSphere

	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeAABB:
		return "aabb"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// Shape is the interface that all collision shapes must implement
type Shape interface {
	Type() ShapeType
	LocalBounds() AABB
	// WorldBounds calculates the axis-aligned bounding box for the shape
	// at the given transform
	WorldBounds(transform Transform) AABB
	// ComputeInertia returns the body-local inertia tensor for the given mass
	ComputeInertia(mass float64) mgl64.Mat3
}

// AxisBox is an axis-aligned box collider: it follows the position and scale
// of its transform but never rotates
type AxisBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func NewAxisBox(halfExtents mgl64.Vec3) *AxisBox {
	return &AxisBox{Min: halfExtents.Mul(-1), Max: halfExtents}
}

func (b *AxisBox) Type() ShapeType {
	return ShapeTypeAABB
}

func (b *AxisBox) LocalBounds() AABB {
	return AABB{Min: b.Min, Max: b.Max}
}

func (b *AxisBox) WorldBounds(transform Transform) AABB {
	s := transform.Scaling()
	min := mgl64.Vec3{b.Min.X() * s.X(), b.Min.Y() * s.Y(), b.Min.Z() * s.Z()}
	max := mgl64.Vec3{b.Max.X() * s.X(), b.Max.Y() * s.Y(), b.Max.Z() * s.Z()}

	return NewAABBFromPoints(min, max).Translate(transform.Position)
}

func (b *AxisBox) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(b.Max.Sub(b.Min), mass)
}

// Box represents an oriented box collision shape, given by its local extents.
// Its half-edge hull is built on first use and rebuilt when the extents change.
type Box struct {
	min  mgl64.Vec3
	max  mgl64.Vec3
	hull *Hull
}

// NewBox creates a box centred on its origin
func NewBox(halfExtents mgl64.Vec3) *Box {
	return &Box{min: halfExtents.Mul(-1), max: halfExtents}
}

// NewBoxFromExtents creates a box from arbitrary local min/max corners
func NewBoxFromExtents(min, max mgl64.Vec3) *Box {
	return &Box{min: min, max: max}
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

// SetExtents changes the local extents and drops the cached hull
func (b *Box) SetExtents(min, max mgl64.Vec3) {
	b.min = min
	b.max = max
	b.hull = nil
}

func (b *Box) LocalBounds() AABB {
	return AABB{Min: b.min, Max: b.max}
}

// Hull returns the local half-edge representation, building it if needed
func (b *Box) Hull() *Hull {
	if b.hull == nil {
		b.hull = NewBoxHull(b.min, b.max)
	}

	return b.hull
}

// WorldVertices returns the 8 hull vertices in world space
func (b *Box) WorldVertices(transform Transform) []mgl64.Vec3 {
	local := b.Hull().Vertices
	vertices := make([]mgl64.Vec3, len(local))
	for i, v := range local {
		vertices[i] = transform.Apply(v)
	}

	return vertices
}

func (b *Box) WorldBounds(transform Transform) AABB {
	return NewAABBFromPoints(b.WorldVertices(transform)...)
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(b.max.Sub(b.min), mass)
}

// BoundingRadius returns the radius of the sphere enclosing the box at the given transform
func (b *Box) BoundingRadius(transform Transform) float64 {
	return b.max.Sub(b.min).Len() * 0.5 * transform.BiggestScale()
}

// Sphere is a sphere collision shape centred on its transform
type Sphere struct {
	Radius float64
}

func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// WorldRadius returns the radius scaled by the biggest scale component
func (s *Sphere) WorldRadius(transform Transform) float64 {
	return s.Radius * transform.BiggestScale()
}

func (s *Sphere) LocalBounds() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{Min: r.Mul(-1), Max: r}
}

func (s *Sphere) WorldBounds(transform Transform) AABB {
	radius := s.WorldRadius(transform)
	r := mgl64.Vec3{radius, radius, radius}

	return AABB{Min: transform.Position.Sub(r), Max: transform.Position.Add(r)}
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r²
	i := 0.4 * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

func boxInertia(size mgl64.Vec3, mass float64) mgl64.Mat3 {
	x := math.Abs(size.X())
	y := math.Abs(size.Y())
	z := math.Abs(size.Z())

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

// Collider is the collision component of an entity
type Collider struct {
	Shape Shape
	// Movable colliders are pushed apart by the resolver
	Movable bool
	// BroadPhaseFirst runs a bounding-sphere check before the separating-axis test
	BroadPhaseFirst bool
	// Trigger colliders report overlaps but are never resolved
	Trigger bool
}

// NewCollider creates a movable collider for the shape
func NewCollider(shape Shape) *Collider {
	return &Collider{
		Shape:           shape,
		Movable:         true,
		BroadPhaseFirst: true,
	}
}
