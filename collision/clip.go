package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const clipTolerance = 1e-6

// clipContacts builds the manifold of two overlapping polytopes: the face most
// aligned with the normal becomes the reference, the facing one on the other
// shape is clipped against the reference side planes, and every clipped
// point below the reference face becomes a contact.
func clipContacts(a, b Body, pa, pb polytope, normal mgl64.Vec3, depth float64) []ContactPoint {
	faceA, dotA := pa.mostAligned(normal.Mul(-1))
	faceB, dotB := pb.mostAligned(normal)

	reference, refFace := pb, faceB
	incident, incFace := pa, faceA
	referenceIsB := true
	if dotA > dotB {
		reference, refFace = pa, faceA
		incident, incFace = pb, faceB
		referenceIsB = false
	}

	refVertices := reference.faceVertices(refFace)
	refNormal := reference.faceNormal(refFace)
	adjacent := reference.hull.AdjacentFaces(refFace)

	polygon := incident.faceVertices(incFace)
	for i, v := range refVertices {
		var sideNormal mgl64.Vec3
		if len(adjacent) == len(refVertices) {
			sideNormal = reference.faceNormal(adjacent[i])
		} else {
			next := refVertices[(i+1)%len(refVertices)]
			sideNormal = next.Sub(v).Cross(refNormal)
		}

		polygon = clipPolygon(polygon, sideNormal, sideNormal.Dot(v))
		if len(polygon) == 0 {
			break
		}
	}

	refOffset := refNormal.Dot(refVertices[0])
	contacts := make([]ContactPoint, 0, len(polygon))
	for _, p := range polygon {
		separation := refNormal.Dot(p) - refOffset
		if separation > clipTolerance {
			continue
		}

		onReference := p.Sub(refNormal.Mul(separation))
		onA, onB := onReference, p
		if referenceIsB {
			onA, onB = p, onReference
		}
		contacts = append(contacts, newContact(a, b, onA, onB, normal, math.Max(-separation, 0)))
	}

	if len(contacts) == 0 {
		boundsA := a.Collider.Shape.WorldBounds(a.Transform)
		boundsB := b.Collider.Shape.WorldBounds(b.Transform)
		point := boundsA.Intersection(boundsB).Center()
		contacts = append(contacts, newContact(a, b, point, point, normal, depth))
	}

	return contacts
}

// clipPolygon keeps the part of polygon where normal·p <= offset (Sutherland–Hodgman)
func clipPolygon(polygon []mgl64.Vec3, normal mgl64.Vec3, offset float64) []mgl64.Vec3 {
	clipped := make([]mgl64.Vec3, 0, len(polygon)+1)
	for i, current := range polygon {
		next := polygon[(i+1)%len(polygon)]
		dc := normal.Dot(current) - offset
		dn := normal.Dot(next) - offset

		if dc <= clipTolerance {
			clipped = append(clipped, current)
		}
		if (dc < -clipTolerance && dn > clipTolerance) || (dc > clipTolerance && dn < -clipTolerance) {
			t := dc / (dc - dn)
			clipped = append(clipped, current.Add(next.Sub(current).Mul(t)))
		}
	}

	return clipped
}
