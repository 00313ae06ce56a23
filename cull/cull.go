package cull

import (
	"cmp"
	"slices"

	"github.com/akmonengine/impulse/bvh"
	"github.com/go-gl/mathgl/mgl64"
)

// Visible is an object that passed culling
type Visible struct {
	Object     bvh.Object
	DistanceSq float64 // squared distance from the camera to the object anchor
}

type Stats struct {
	Total   int
	Visible int
	bvh.QueryStats
}

// Cull returns the objects of tree inside the frustum, nearest first.
// Objects at the same distance keep their traversal order.
func Cull(tree *bvh.Tree, frustum Frustum, camera mgl64.Vec3) ([]Visible, Stats) {
	visible := make([]Visible, 0)
	query := tree.Traverse(frustum, func(object bvh.Object) {
		visible = append(visible, Visible{
			Object:     object,
			DistanceSq: object.Position.Sub(camera).LenSqr(),
		})
	})

	slices.SortStableFunc(visible, func(a, b Visible) int {
		return cmp.Compare(a.DistanceSq, b.DistanceSq)
	})

	return visible, Stats{
		Total:      len(tree.Objects()),
		Visible:    len(visible),
		QueryStats: query,
	}
}

// Probe is a sphere-shaped object such as a reflection probe or light volume
type Probe struct {
	Center mgl64.Vec3
	Radius float64
	Index  int
}

// CullProbes returns the indices of the probes at least partly inside the
// frustum, nearest to the camera first. Equal distances keep input order.
func CullProbes(probes []Probe, frustum Frustum, camera mgl64.Vec3) []int {
	type visibleProbe struct {
		index      int
		distanceSq float64
	}

	visible := make([]visibleProbe, 0, len(probes))
	for _, probe := range probes {
		if frustum.SphereVisible(probe.Center, probe.Radius) {
			visible = append(visible, visibleProbe{
				index:      probe.Index,
				distanceSq: probe.Center.Sub(camera).LenSqr(),
			})
		}
	}

	slices.SortStableFunc(visible, func(a, b visibleProbe) int {
		return cmp.Compare(a.distanceSq, b.distanceSq)
	})

	indices := make([]int, len(visible))
	for i, probe := range visible {
		indices[i] = probe.index
	}

	return indices
}
