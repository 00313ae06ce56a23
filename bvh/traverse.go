package bvh

import "github.com/akmonengine/impulse/actor"

// Containment is the three-way answer of a Classifier for a box
type Containment int

const (
	Outside Containment = iota
	Partial
	Inside
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Partial:
		return "partial"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// Classifier tells how a box relates to a query volume
type Classifier interface {
	Classify(bounds actor.AABB) Containment
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(bounds actor.AABB) Containment

func (f ClassifierFunc) Classify(bounds actor.AABB) Containment {
	return f(bounds)
}

// QueryStats describes one traversal
type QueryStats struct {
	NodesVisited int
	BoundsTests  int
	Accepted     int
}

// Traverse visits every object the classifier does not reject.
// Subtrees classified Inside are accepted without further tests.
func (t *Tree) Traverse(classifier Classifier, visit func(object Object)) QueryStats {
	var stats QueryStats
	if root := t.Root(); root != NoNode {
		t.traverse(root, classifier, visit, &stats)
	}

	return stats
}

func (t *Tree) traverse(id NodeID, classifier Classifier, visit func(Object), stats *QueryStats) {
	node := t.nodes[id]
	stats.NodesVisited++
	stats.BoundsTests++

	switch classifier.Classify(node.Bounds) {
	case Outside:
		return
	case Inside:
		t.walk(id, func(child NodeID) {
			for _, i := range t.nodes[child].Indices {
				stats.Accepted++
				visit(t.objects[i])
			}
		})
	case Partial:
		if !node.Leaf {
			t.traverse(node.Left, classifier, visit, stats)
			t.traverse(node.Right, classifier, visit, stats)
			return
		}

		for _, i := range node.Indices {
			object := t.objects[i]
			bounds := object.Bounds()
			// an object spanning the whole leaf shares its classification
			if bounds != node.Bounds {
				stats.BoundsTests++
				if classifier.Classify(bounds) == Outside {
					continue
				}
			}
			stats.Accepted++
			visit(object)
		}
	}
}

// Overlap classifies boxes against a query box
type Overlap actor.AABB

func (o Overlap) Classify(bounds actor.AABB) Containment {
	query := actor.AABB(o)
	if !query.Overlaps(bounds) {
		return Outside
	}
	if query.Contains(bounds) {
		return Inside
	}

	return Partial
}

// Query returns the objects whose bounds overlap box
func (t *Tree) Query(box actor.AABB) []Object {
	result := make([]Object, 0)
	t.Traverse(Overlap(box), func(object Object) {
		result = append(result, object)
	})

	return result
}
