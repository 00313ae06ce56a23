// Package collision holds the narrow-phase shape tests, the contact data they
// produce and the per-frame bookkeeping of the collision pass.
package collision

import (
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is one point of a contact manifold
type ContactPoint struct {
	ContactA    mgl64.Vec3 // world offset from body A's origin
	ContactB    mgl64.Vec3 // world offset from body B's origin
	Normal      mgl64.Vec3 // unit, from B towards A
	Penetration float64    // positive when overlapping

	// solver scratch, used by the sequential resolver
	BTerm              float64
	SumImpulseContact  float64
	SumImpulseFriction float64
}

// CollisionData is the result of one narrow-phase test between two entities
type CollisionData struct {
	EntityA   ecs.EntityID
	EntityB   ecs.EntityID
	Contacts  []ContactPoint
	Colliding bool
}

// Manager owns the collisions awaiting resolution and the geometry BVH
type Manager struct {
	unresolved []CollisionData
	tree       *bvh.Tree
	lastBuild  bvh.Stats
}

func NewManager(options bvh.Options) *Manager {
	return &Manager{
		unresolved: make([]CollisionData, 0, 64),
		tree:       bvh.New(options),
	}
}

// AddCollision appends a collision for this frame
func (m *Manager) AddCollision(data CollisionData) {
	m.unresolved = append(m.unresolved, data)
}

// UnresolvedCollisions returns the collisions in insertion order
func (m *Manager) UnresolvedCollisions() []CollisionData {
	return m.unresolved
}

func (m *Manager) ClearUnresolvedCollisions() {
	clear(m.unresolved)
	m.unresolved = m.unresolved[:0]
}

// RebuildBVH replaces the geometry hierarchy
func (m *Manager) RebuildBVH(objects []bvh.Object) bvh.Stats {
	m.lastBuild = m.tree.Build(objects)
	return m.lastBuild
}

func (m *Manager) BVH() *bvh.Tree {
	return m.tree
}

func (m *Manager) LastBuild() bvh.Stats {
	return m.lastBuild
}
