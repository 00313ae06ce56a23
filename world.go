// Package impulse steps a world of rigid bodies: integration, collision
// detection over a BVH broad phase, impulse resolution and constraints.
package impulse

import (
	"fmt"
	"log"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/bvh"
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/config"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/cull"
	"github.com/akmonengine/impulse/ecs"
	"github.com/akmonengine/impulse/resolver"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

type World struct {
	Registry    *ecs.Registry
	Config      config.Config
	Collisions  *collision.Manager
	Constraints *constraint.Manager
	Solver      *constraint.Solver
	Resolver    *resolver.Resolver
	BroadPhase  BroadPhase
	Workers     int
	Logger      *log.Logger

	Events Events

	environment actor.Environment
	tracker     *collision.Tracker
}

// StepStats describes one Step
type StepStats struct {
	Integrated        int
	Proxies           int
	Candidates        int
	Tested            int
	Colliding         int
	Triggers          int
	Resolver          resolver.Stats
	ConstraintUpdates int
	Geometry          bvh.Stats
	Events            int
	Removed           int
}

// NewWorld validates cfg and wires every stage. A nil registry starts empty.
func NewWorld(cfg config.Config, registry *ecs.Registry, logger *log.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}
	if registry == nil {
		registry = ecs.NewRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}

	options := cfg.BVHOptions()
	options.Logger = logger

	var broadPhase BroadPhase
	switch cfg.BroadPhase.Kind {
	case config.BroadPhaseGrid:
		broadPhase = NewSpatialGrid(cfg.BroadPhase.CellSize, cfg.BroadPhase.Cells)
	default:
		broadPhase = NewTreeBroadPhase(options)
	}

	r := cfg.NewResolver()
	r.Logger = logger

	return &World{
		Registry:    registry,
		Config:      cfg,
		Collisions:  collision.NewManager(options),
		Constraints: constraint.NewManager(),
		Solver:      constraint.NewSolver(cfg.ConstraintIterations),
		Resolver:    r,
		BroadPhase:  broadPhase,
		Workers:     cfg.Workers,
		Logger:      logger,
		Events:      NewEvents(),
		environment: cfg.Environment(),
		tracker:     collision.NewTracker(),
	}, nil
}

// Tracker exposes the pair states of the last step
func (w *World) Tracker() *collision.Tracker {
	return w.tracker
}

func (w *World) Step(dt float64) StepStats {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	var stats StepStats

	stats.Removed = w.removeDestroyed()

	// Phase 1: integrate forces and velocities
	stats.Integrated = w.integrate(dt)

	// Phase 2: broad then narrow phase, fills the collision manager
	w.detectCollisions(&stats)

	// Phase 3: resolve in list order
	stats.Resolver = w.Resolver.Resolve(w.Collisions.UnresolvedCollisions(), w.Registry, dt)
	w.Collisions.ClearUnresolvedCollisions()

	// Phase 4: constraints
	stats.ConstraintUpdates = w.Solver.Solve(w.Constraints, w.Registry, dt)

	// Phase 5: geometry hierarchy for culling
	stats.Geometry = w.rebuildGeometry()

	w.Events.record(w.tracker.End())
	stats.Events = w.Events.flush()

	return stats
}

func (w *World) removeDestroyed() int {
	removed := w.Registry.RemoveDestroyed()
	for _, id := range removed {
		w.tracker.Forget(id)
	}

	return len(removed)
}

// integrate runs the integrator on every entity with a transform and a rigid body.
// Each slot only touches its own entity.
func (w *World) integrate(dt float64) int {
	ids := w.Registry.Entities(ecs.HasTransform | ecs.HasRigidBody)
	forEachSlot(w.Workers, len(ids), func(i int) {
		id := ids[i]
		w.Registry.RigidBody(id).Integrate(dt, w.Registry.Transform(id), w.environment)
	})

	return len(ids)
}

// candidate is one narrow-phase slot, filled by a worker
type candidate struct {
	a, b ecs.EntityID
	data collision.CollisionData
	ok   bool
}

func (w *World) detectCollisions(stats *StepStats) {
	w.tracker.Begin()

	proxies := w.proxies()
	stats.Proxies = len(proxies)

	pairs := w.BroadPhase.FindPairs(proxies)
	stats.Candidates = len(pairs)

	candidates := make([]candidate, 0, len(pairs))
	for _, pair := range pairs {
		a, b := proxies[pair.A].Entity, proxies[pair.B].Entity
		if !w.needsTest(a, b) || !w.tracker.MarkChecked(a, b) {
			continue
		}
		candidates = append(candidates, candidate{a: a, b: b})
	}
	stats.Tested = len(candidates)

	// the narrow phase only reads the registry
	forEachSlot(w.Workers, len(candidates), func(i int) {
		c := &candidates[i]
		c.data, c.ok = collision.Test(w.Registry, c.a, c.b)
	})

	for _, c := range candidates {
		if !c.ok || !c.data.Colliding {
			continue
		}

		trigger := w.Registry.Collider(c.a).Trigger || w.Registry.Collider(c.b).Trigger
		w.tracker.Record(c.a, c.b, w.Registry.Name(c.a), w.Registry.Name(c.b), trigger)
		if trigger {
			stats.Triggers++
			continue
		}

		w.Collisions.AddCollision(c.data)
		stats.Colliding++
	}
}

func (w *World) proxies() []Proxy {
	ids := w.Registry.Entities(ecs.HasTransform | ecs.HasCollider)
	proxies := make([]Proxy, 0, len(ids))

	for _, id := range ids {
		collider := w.Registry.Collider(id)
		if collider.Shape == nil {
			continue
		}
		proxies = append(proxies, Proxy{
			Entity: id,
			Bounds: collider.Shape.WorldBounds(*w.Registry.Transform(id)),
		})
	}

	return proxies
}

// needsTest skips pairs where neither side can move, unless one is a trigger
func (w *World) needsTest(a, b ecs.EntityID) bool {
	colliderA, colliderB := w.Registry.Collider(a), w.Registry.Collider(b)
	if colliderA.Trigger || colliderB.Trigger {
		return true
	}

	return w.dynamic(a, colliderA) || w.dynamic(b, colliderB)
}

func (w *World) dynamic(id ecs.EntityID, collider *actor.Collider) bool {
	if !collider.Movable {
		return false
	}
	body := w.Registry.RigidBody(id)

	return body == nil || !body.IsStatic()
}

func (w *World) rebuildGeometry() bvh.Stats {
	ids := w.Registry.Entities(ecs.HasTransform | ecs.HasMesh)
	if len(ids) == 0 && len(w.Collisions.BVH().Objects()) == 0 {
		return w.Collisions.LastBuild()
	}

	objects := make([]bvh.Object, len(ids))
	for i, id := range ids {
		objects[i] = bvh.Object{
			Mesh:     w.Registry.Mesh(id),
			Position: w.Registry.Transform(id).Position,
			Index:    i,
			Entity:   id,
		}
	}

	return w.Collisions.RebuildBVH(objects)
}

// Cull returns the mesh entities visible from the camera, nearest first.
// The hierarchy reflects the positions at the end of the last Step.
func (w *World) Cull(frustum cull.Frustum, camera mgl64.Vec3) ([]cull.Visible, cull.Stats) {
	return cull.Cull(w.Collisions.BVH(), frustum, camera)
}

// Spawn creates an entity with a transform and a collider and no rigid body
func (w *World) Spawn(name string, transform actor.Transform, shape actor.Shape) ecs.EntityID {
	id := w.Registry.Create(name)
	w.Registry.SetTransform(id, transform)
	w.Registry.AddCollider(id, actor.NewCollider(shape))

	return id
}

// SpawnBody is Spawn plus a rigid body of the given mass. Mass 0 is static.
func (w *World) SpawnBody(name string, transform actor.Transform, shape actor.Shape, mass float64) ecs.EntityID {
	id := w.Spawn(name, transform, shape)
	body := actor.NewRigidBody(mass, shape)
	body.UpdateInertiaTensor(transform.Orientation())
	w.Registry.AddRigidBody(id, body)

	return id
}
