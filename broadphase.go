package impulse

import (
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/ecs"
)

// Proxy is the world bounds of one collider
type Proxy struct {
	Entity ecs.EntityID
	Bounds actor.AABB
}

// Pair indexes two proxies; A < B
type Pair struct {
	A, B int
}

// BroadPhase finds the proxy pairs whose bounds overlap. Pairs are returned
// sorted by A then B.
type BroadPhase interface {
	FindPairs(proxies []Proxy) []Pair
}

// TreeBroadPhase rebuilds a BVH over the proxies and queries it once per proxy
type TreeBroadPhase struct {
	tree *bvh.Tree
}

func NewTreeBroadPhase(options bvh.Options) *TreeBroadPhase {
	return &TreeBroadPhase{tree: bvh.New(options)}
}

func (b *TreeBroadPhase) FindPairs(proxies []Proxy) []Pair {
	objects := make([]bvh.Object, len(proxies))
	for i, proxy := range proxies {
		objects[i] = bvh.Object{Mesh: proxy.Bounds, Index: i, Entity: proxy.Entity}
	}
	b.tree.Build(objects)

	pairs := make([]Pair, 0, len(proxies))
	others := make([]int, 0, 8)
	for i, proxy := range proxies {
		others = others[:0]
		b.tree.Traverse(bvh.Overlap(proxy.Bounds), func(object bvh.Object) {
			if object.Index > i {
				others = append(others, object.Index)
			}
		})
		slices.Sort(others)
		for _, j := range others {
			pairs = append(pairs, Pair{A: i, B: j})
		}
	}

	return pairs
}

func (b *TreeBroadPhase) Tree() *bvh.Tree {
	return b.tree
}
