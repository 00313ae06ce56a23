package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Mesh is any renderable or collidable geometry exposing local bounds
type Mesh interface {
	Bounds() AABB
}

// Bounds lets a plain AABB be used wherever a Mesh is expected
func (a AABB) Bounds() AABB {
	return a
}

// NewAABBFromPoints returns the smallest AABB enclosing every point
func NewAABBFromPoints(points ...mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			box.Min[i] = math.Min(box.Min[i], p[i])
			box.Max[i] = math.Max(box.Max[i], p[i])
		}
	}

	return box
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Contains checks if other lies entirely inside the AABB
func (a AABB) Contains(other AABB) bool {
	return a.ContainsPoint(other.Min) && a.ContainsPoint(other.Max)
}

// Overlaps checks if two AABBs overlap, touching faces included
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest AABB enclosing both boxes
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min.X(), other.Min.X()), math.Min(a.Min.Y(), other.Min.Y()), math.Min(a.Min.Z(), other.Min.Z())},
		Max: mgl64.Vec3{math.Max(a.Max.X(), other.Max.X()), math.Max(a.Max.Y(), other.Max.Y()), math.Max(a.Max.Z(), other.Max.Z())},
	}
}

// Intersection returns the overlap box; it is only meaningful when Overlaps holds
func (a AABB) Intersection(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Max(a.Min.X(), other.Min.X()), math.Max(a.Min.Y(), other.Min.Y()), math.Max(a.Min.Z(), other.Min.Z())},
		Max: mgl64.Vec3{math.Min(a.Max.X(), other.Max.X()), math.Min(a.Max.Y(), other.Max.Y()), math.Min(a.Max.Z(), other.Max.Z())},
	}
}

func (a AABB) Translate(offset mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(offset), Max: a.Max.Add(offset)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the half-size on each axis
func (a AABB) Extents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// BiggestExtent returns the largest half-size
func (a AABB) BiggestExtent() float64 {
	e := a.Extents()
	return math.Max(e.X(), math.Max(e.Y(), e.Z()))
}

// Size returns the full edge length on each axis
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Valid reports whether Min <= Max on every axis
func (a AABB) Valid() bool {
	return a.Min.X() <= a.Max.X() && a.Min.Y() <= a.Max.Y() && a.Min.Z() <= a.Max.Z()
}

// ClosestPoint clamps point onto the box
func (a AABB) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(point.X(), a.Min.X(), a.Max.X()),
		mgl64.Clamp(point.Y(), a.Min.Y(), a.Max.Y()),
		mgl64.Clamp(point.Z(), a.Min.Z(), a.Max.Z()),
	}
}

// Corners returns the 8 corners, indexed x + 2y + 4z where 0 is min and 1 is max
func (a AABB) Corners() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		corners[i] = mgl64.Vec3{a.Min.X(), a.Min.Y(), a.Min.Z()}
		if i&1 != 0 {
			corners[i][0] = a.Max.X()
		}
		if i&2 != 0 {
			corners[i][1] = a.Max.Y()
		}
		if i&4 != 0 {
			corners[i][2] = a.Max.Z()
		}
	}

	return corners
}
