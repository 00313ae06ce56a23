// Package bvh implements an arena-backed bounding-volume hierarchy over
// world-space boxes. It serves both broad-phase collision pruning and
// frustum culling through the three-way Classifier contract.
package bvh

import (
	"log"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// NodeID indexes a node in the tree arena
type NodeID int32

const NoNode NodeID = -1

const DefaultMaxLeafObjects = 1

// Object is one entry of the flat object array the tree partitions
type Object struct {
	Mesh     actor.Mesh
	Position mgl64.Vec3 // world-space anchor the mesh bounds are translated by
	Index    int        // caller-side global index
	Entity   ecs.EntityID
}

// Bounds returns the world-space bounds of the object
func (o Object) Bounds() actor.AABB {
	if o.Mesh == nil {
		return actor.AABB{Min: o.Position, Max: o.Position}
	}

	return o.Mesh.Bounds().Translate(o.Position)
}

// Node is either an internal node with two children or a leaf holding object indices
type Node struct {
	Bounds  actor.AABB
	Left    NodeID
	Right   NodeID
	Parent  NodeID
	Leaf    bool
	Indices []int // positions in Tree.Objects(), leaves only
	Depth   int
}

// Stats describes the last build
type Stats struct {
	Nodes              int
	Leaves             int
	MaxDepth           int
	Objects            int
	AxisRetries        int // split attempts beyond the longest axis
	UnsplittableLeaves int // nodes that no axis could split
}

type Options struct {
	// MaxLeafObjects stops splitting once a node holds this many objects or fewer
	MaxLeafObjects int
	Logger         *log.Logger
}

type Tree struct {
	options Options
	nodes   []Node
	objects []Object
	stats   Stats
}

func New(options Options) *Tree {
	if options.MaxLeafObjects <= 0 {
		options.MaxLeafObjects = DefaultMaxLeafObjects
	}

	return &Tree{options: options}
}

func (t *Tree) logger() *log.Logger {
	if t.options.Logger == nil {
		return log.Default()
	}

	return t.options.Logger
}

// Reset destroys every node and object; the arena memory is reused
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.objects = t.objects[:0]
	t.stats = Stats{}
}

// Build replaces the tree content with a hierarchy over objects.
// An empty list produces a single leaf without indices.
func (t *Tree) Build(objects []Object) Stats {
	t.Reset()
	if t.options.MaxLeafObjects <= 0 {
		t.options.MaxLeafObjects = DefaultMaxLeafObjects
	}
	t.objects = append(t.objects, objects...)
	t.stats.Objects = len(objects)

	indices := make([]int, len(objects))
	for i := range indices {
		indices[i] = i
	}
	t.build(indices, NoNode, 0)

	return t.stats
}

func (t *Tree) build(indices []int, parent NodeID, depth int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Bounds: t.unionBounds(indices),
		Left:   NoNode,
		Right:  NoNode,
		Parent: parent,
		Depth:  depth,
	})
	t.stats.Nodes++
	t.stats.MaxDepth = max(t.stats.MaxDepth, depth)

	if len(indices) <= t.options.MaxLeafObjects {
		t.makeLeaf(id, indices)
		return id
	}

	left, right, ok := t.split(t.nodes[id].Bounds, indices)
	if !ok {
		t.stats.UnsplittableLeaves++
		t.logger().Printf("bvh: cannot split node %d holding %d objects, keeping them in one leaf", id, len(indices))
		t.makeLeaf(id, indices)
		return id
	}

	// children are appended after id, so t.nodes must be re-indexed after each call
	leftID := t.build(left, id, depth+1)
	rightID := t.build(right, id, depth+1)
	t.nodes[id].Left = leftID
	t.nodes[id].Right = rightID

	return id
}

func (t *Tree) makeLeaf(id NodeID, indices []int) {
	t.nodes[id].Leaf = true
	t.nodes[id].Indices = indices
	t.stats.Leaves++
}

func (t *Tree) unionBounds(indices []int) actor.AABB {
	if len(indices) == 0 {
		return actor.AABB{}
	}

	bounds := t.objects[indices[0]].Bounds()
	for _, i := range indices[1:] {
		bounds = bounds.Union(t.objects[i].Bounds())
	}

	return bounds
}

// split partitions indices around the midpoint of the longest axis, then the
// second longest, then the remaining one. Both halves must be non-empty.
func (t *Tree) split(bounds actor.AABB, indices []int) ([]int, []int, bool) {
	for attempt, axis := range rankAxes(bounds.Size()) {
		if attempt > 0 {
			t.stats.AxisRetries++
		}

		mid := (bounds.Min[axis] + bounds.Max[axis]) * 0.5
		left := make([]int, 0, len(indices))
		right := make([]int, 0, len(indices))
		for _, i := range indices {
			if t.objects[i].Bounds().Center()[axis] < mid {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}

		if len(left) > 0 && len(right) > 0 {
			return left, right, true
		}
	}

	return nil, nil, false
}

// rankAxes orders the axes by decreasing extent, ties going to x, then y, then z
func rankAxes(size mgl64.Vec3) [3]int {
	axes := [3]int{0, 1, 2}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && size[axes[j]] > size[axes[j-1]]; j-- {
			axes[j], axes[j-1] = axes[j-1], axes[j]
		}
	}

	return axes
}

// Root returns the root node, or NoNode before the first build
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}

	return 0
}

func (t *Tree) Node(id NodeID) Node {
	return t.nodes[id]
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Objects() []Object {
	return t.objects
}

func (t *Tree) Stats() Stats {
	return t.stats
}

// Leaves returns every leaf node id in depth-first order
func (t *Tree) Leaves() []NodeID {
	leaves := make([]NodeID, 0, t.stats.Leaves)
	if root := t.Root(); root != NoNode {
		t.walk(root, func(id NodeID) {
			if t.nodes[id].Leaf {
				leaves = append(leaves, id)
			}
		})
	}

	return leaves
}

func (t *Tree) walk(id NodeID, fn func(id NodeID)) {
	fn(id)
	node := t.nodes[id]
	if node.Leaf {
		return
	}
	t.walk(node.Left, fn)
	t.walk(node.Right, fn)
}
