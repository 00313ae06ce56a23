// Package cull classifies the geometry BVH against a camera frustum and
// returns the visible objects ordered front to back.
package cull

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/go-gl/mathgl/mgl64"
)

// Plane keeps the points where Normal·p - Distance >= 0
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// SignedDistance is positive on the inner side of the plane
func (p Plane) SignedDistance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) - p.Distance
}

func planeFromRow(row mgl64.Vec4) Plane {
	normal := row.Vec3()
	length := normal.Len()
	if length < 1e-12 {
		return Plane{}
	}

	return Plane{Normal: normal.Mul(1 / length), Distance: -row.W() / length}
}

const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// Frustum is a convex volume bounded by six inward-facing planes
type Frustum struct {
	Planes [6]Plane
}

// FromMatrix extracts the planes of a view-projection matrix
func FromMatrix(viewProjection mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := viewProjection.Row(0), viewProjection.Row(1), viewProjection.Row(2), viewProjection.Row(3)

	var f Frustum
	f.Planes[PlaneLeft] = planeFromRow(r3.Add(r0))
	f.Planes[PlaneRight] = planeFromRow(r3.Sub(r0))
	f.Planes[PlaneBottom] = planeFromRow(r3.Add(r1))
	f.Planes[PlaneTop] = planeFromRow(r3.Sub(r1))
	f.Planes[PlaneNear] = planeFromRow(r3.Add(r2))
	f.Planes[PlaneFar] = planeFromRow(r3.Sub(r2))

	return f
}

// Camera describes a perspective camera
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FovY     float64 // degrees
	Aspect   float64
	Near     float64
	Far      float64
}

func (c Camera) ViewProjection() mgl64.Mat4 {
	projection := mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
	view := mgl64.LookAtV(c.Position, c.Target, c.Up)

	return projection.Mul4(view)
}

func NewFrustum(camera Camera) Frustum {
	return FromMatrix(camera.ViewProjection())
}

// Classify implements bvh.Classifier for axis-aligned boxes
func (f Frustum) Classify(bounds actor.AABB) bvh.Containment {
	center := bounds.Center()
	extents := bounds.Extents()
	result := bvh.Inside

	for _, plane := range f.Planes {
		// projected radius of the box on the plane normal
		r := extents.X()*math.Abs(plane.Normal.X()) + extents.Y()*math.Abs(plane.Normal.Y()) + extents.Z()*math.Abs(plane.Normal.Z())
		distance := plane.SignedDistance(center)

		if distance < -r {
			return bvh.Outside
		}
		if distance <= r {
			result = bvh.Partial
		}
	}

	return result
}

// SphereVisible reports whether a sphere is at least partly inside the frustum
func (f Frustum) SphereVisible(center mgl64.Vec3, radius float64) bool {
	for _, plane := range f.Planes {
		if plane.SignedDistance(center) < -radius {
			return false
		}
	}

	return true
}
