package ecs

import (
	"slices"

	"github.com/akmonengine/impulse/actor"
	ark "github.com/mlange-42/ark/ecs"
)

// EntityID uniquely identifies an entity. 0 is reserved as the invalid id.
// Ids are never reused, unlike the storage entities behind them.
type EntityID uint64

// Mask is a set of component kinds
type Mask uint8

const (
	HasTransform Mask = 1 << iota
	HasRigidBody
	HasCollider
	HasMesh
)

// Bodies is the component access the collision and physics systems need.
// Accessors return nil when the entity lacks the component.
type Bodies interface {
	Transform(id EntityID) *actor.Transform
	RigidBody(id EntityID) *actor.RigidBody
	Collider(id EntityID) *actor.Collider
}

// identity is carried by every entity so queries can report EntityIDs
type identity struct {
	ID   EntityID
	Name string
}

type rigidBody struct{ body *actor.RigidBody }

type collider struct{ collider *actor.Collider }

type mesh struct{ mesh actor.Mesh }

// Registry stores entities and their components in an archetype world.
// Transforms are stored by value: a *actor.Transform stays valid until the
// entity gains or loses a component.
type Registry struct {
	world  ark.World
	nextID uint64

	entities map[EntityID]ark.Entity

	identities *ark.Map[identity]
	transforms *ark.Map[actor.Transform]
	bodies     *ark.Map[rigidBody]
	colliders  *ark.Map[collider]
	meshes     *ark.Map[mesh]

	filters map[Mask]*ark.Filter1[identity]

	// entities marked for removal, cleared by RemoveDestroyed
	toDestroy []EntityID
}

func NewRegistry() *Registry {
	r := &Registry{
		world:    ark.NewWorld(),
		nextID:   1,
		entities: make(map[EntityID]ark.Entity),
		filters:  make(map[Mask]*ark.Filter1[identity]),
	}
	r.identities = ark.NewMap[identity](&r.world)
	r.transforms = ark.NewMap[actor.Transform](&r.world)
	r.bodies = ark.NewMap[rigidBody](&r.world)
	r.colliders = ark.NewMap[collider](&r.world)
	r.meshes = ark.NewMap[mesh](&r.world)

	return r
}

// Create registers a new entity with a display name
func (r *Registry) Create(name string) EntityID {
	id := EntityID(r.nextID)
	r.nextID++
	r.entities[id] = r.identities.NewEntity(&identity{ID: id, Name: name})

	return id
}

// Destroy marks an entity for removal; it stays readable until RemoveDestroyed
func (r *Registry) Destroy(id EntityID) {
	r.toDestroy = append(r.toDestroy, id)
}

// RemoveDestroyed drops every entity marked by Destroy and returns their ids
func (r *Registry) RemoveDestroyed() []EntityID {
	removed := make([]EntityID, 0, len(r.toDestroy))
	for _, id := range r.toDestroy {
		entity, ok := r.entities[id]
		if !ok {
			continue
		}
		r.world.RemoveEntity(entity)
		delete(r.entities, id)
		removed = append(removed, id)
	}
	r.toDestroy = r.toDestroy[:0]

	return removed
}

func (r *Registry) Alive(id EntityID) bool {
	_, ok := r.entities[id]
	return ok
}

func (r *Registry) Name(id EntityID) string {
	entity, ok := r.entities[id]
	if !ok {
		return ""
	}

	return r.identities.Get(entity).Name
}

func (r *Registry) Len() int {
	return len(r.entities)
}

// SetTransform adds or overwrites the transform and returns the stored value
func (r *Registry) SetTransform(id EntityID, transform actor.Transform) *actor.Transform {
	entity, ok := r.entities[id]
	if !ok {
		return nil
	}
	if r.transforms.Has(entity) {
		stored := r.transforms.Get(entity)
		*stored = transform
		return stored
	}
	r.transforms.Add(entity, &transform)

	return r.transforms.Get(entity)
}

func (r *Registry) AddRigidBody(id EntityID, body *actor.RigidBody) {
	entity, ok := r.entities[id]
	if !ok {
		return
	}
	if r.bodies.Has(entity) {
		r.bodies.Get(entity).body = body
		return
	}
	r.bodies.Add(entity, &rigidBody{body: body})
}

func (r *Registry) AddCollider(id EntityID, c *actor.Collider) {
	entity, ok := r.entities[id]
	if !ok {
		return
	}
	if r.colliders.Has(entity) {
		r.colliders.Get(entity).collider = c
		return
	}
	r.colliders.Add(entity, &collider{collider: c})
}

func (r *Registry) AddMesh(id EntityID, m actor.Mesh) {
	entity, ok := r.entities[id]
	if !ok {
		return
	}
	if r.meshes.Has(entity) {
		r.meshes.Get(entity).mesh = m
		return
	}
	r.meshes.Add(entity, &mesh{mesh: m})
}

func (r *Registry) RemoveRigidBody(id EntityID) {
	if entity, ok := r.entities[id]; ok && r.bodies.Has(entity) {
		r.bodies.Remove(entity)
	}
}

func (r *Registry) RemoveCollider(id EntityID) {
	if entity, ok := r.entities[id]; ok && r.colliders.Has(entity) {
		r.colliders.Remove(entity)
	}
}

func (r *Registry) Transform(id EntityID) *actor.Transform {
	entity, ok := r.entities[id]
	if !ok || !r.transforms.Has(entity) {
		return nil
	}

	return r.transforms.Get(entity)
}

func (r *Registry) RigidBody(id EntityID) *actor.RigidBody {
	entity, ok := r.entities[id]
	if !ok || !r.bodies.Has(entity) {
		return nil
	}

	return r.bodies.Get(entity).body
}

func (r *Registry) Collider(id EntityID) *actor.Collider {
	entity, ok := r.entities[id]
	if !ok || !r.colliders.Has(entity) {
		return nil
	}

	return r.colliders.Get(entity).collider
}

func (r *Registry) Mesh(id EntityID) actor.Mesh {
	entity, ok := r.entities[id]
	if !ok || !r.meshes.Has(entity) {
		return nil
	}

	return r.meshes.Get(entity).mesh
}

// Has reports whether the entity owns every component in mask
func (r *Registry) Has(id EntityID, mask Mask) bool {
	entity, ok := r.entities[id]
	if !ok {
		return false
	}
	if mask&HasTransform != 0 && !r.transforms.Has(entity) {
		return false
	}
	if mask&HasRigidBody != 0 && r.RigidBody(id) == nil {
		return false
	}
	if mask&HasCollider != 0 && r.Collider(id) == nil {
		return false
	}
	if mask&HasMesh != 0 && r.Mesh(id) == nil {
		return false
	}

	return true
}

// filter returns the cached query for mask
func (r *Registry) filter(mask Mask) *ark.Filter1[identity] {
	if f, ok := r.filters[mask]; ok {
		return f
	}

	var with []ark.Comp
	if mask&HasTransform != 0 {
		with = append(with, ark.C[actor.Transform]())
	}
	if mask&HasRigidBody != 0 {
		with = append(with, ark.C[rigidBody]())
	}
	if mask&HasCollider != 0 {
		with = append(with, ark.C[collider]())
	}
	if mask&HasMesh != 0 {
		with = append(with, ark.C[mesh]())
	}

	f := ark.NewFilter1[identity](&r.world).With(with...)
	r.filters[mask] = f

	return f
}

// Entities returns the ids owning every component in mask, in ascending order
func (r *Registry) Entities(mask Mask) []EntityID {
	result := make([]EntityID, 0, len(r.entities))

	query := r.filter(mask).Query()
	for query.Next() {
		id := query.Get().ID
		// nil pointers stored through Add* count as absent
		if r.Has(id, mask) {
			result = append(result, id)
		}
	}
	slices.Sort(result)

	return result
}

// Each calls fn for every entity owning the components in mask, in ascending id order.
// The query is closed before fn runs, so fn may add or remove components.
func (r *Registry) Each(mask Mask, fn func(id EntityID)) {
	for _, id := range r.Entities(mask) {
		fn(id)
	}
}
