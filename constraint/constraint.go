// Package constraint keeps pairs of bodies at a relative distance or
// rotation by applying corrective impulses over several sub-steps.
package constraint

import (
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultIterations = 4
	// DefaultBias is the fraction of the error corrected per sub-step
	DefaultBias = 0.2

	epsilon = 1e-9
)

type Constraint interface {
	// Update applies one relaxation step. dt is the sub-step duration.
	Update(bodies ecs.Bodies, dt float64)
	Active() bool
}

// Link is the pair shared by every constraint
type Link struct {
	A, B ecs.EntityID
	Bias float64

	inactive bool
}

func (l *Link) Activate() {
	l.inactive = false
}

func (l *Link) Deactivate() {
	l.inactive = true
}

func (l *Link) Active() bool {
	return !l.inactive
}

func (l *Link) bias() float64 {
	if l.Bias <= 0 {
		return DefaultBias
	}

	return l.Bias
}

// end is one side of a constraint
type end struct {
	transform *actor.Transform
	body      *actor.RigidBody
}

// load fails when either transform is missing or neither side has a rigid body
func (l *Link) load(bodies ecs.Bodies) (end, end, bool) {
	a := end{transform: bodies.Transform(l.A), body: bodies.RigidBody(l.A)}
	b := end{transform: bodies.Transform(l.B), body: bodies.RigidBody(l.B)}
	if a.transform == nil || b.transform == nil {
		return a, b, false
	}
	if a.body == nil && b.body == nil {
		return a, b, false
	}

	return a, b, true
}

func (e end) inverseMass() float64 {
	if e.body == nil {
		return 0
	}

	return e.body.InverseMass()
}

func (e end) inverseInertia() mgl64.Mat3 {
	if e.body == nil {
		return mgl64.Mat3{}
	}

	return e.body.InverseInertiaWorld()
}

func (e end) velocity() (mgl64.Vec3, mgl64.Vec3) {
	if e.body == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	return e.body.Velocity, e.body.AngularVelocity
}

// Manager owns the constraints of a world, in insertion order
type Manager struct {
	constraints []Constraint
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Add(c Constraint) {
	m.constraints = append(m.constraints, c)
}

// Remove deletes the first occurrence of c and reports whether it was found
func (m *Manager) Remove(c Constraint) bool {
	i := slices.Index(m.constraints, c)
	if i < 0 {
		return false
	}
	m.constraints = slices.Delete(m.constraints, i, i+1)

	return true
}

func (m *Manager) RemoveAt(i int) {
	if i < 0 || i >= len(m.constraints) {
		return
	}
	m.constraints = slices.Delete(m.constraints, i, i+1)
}

func (m *Manager) Clear() {
	m.constraints = m.constraints[:0]
}

func (m *Manager) Constraints() []Constraint {
	return m.constraints
}

func (m *Manager) Len() int {
	return len(m.constraints)
}

// Solver relaxes every active constraint Iterations times per tick
type Solver struct {
	Iterations int
}

func NewSolver(iterations int) *Solver {
	return &Solver{Iterations: iterations}
}

// Solve returns the number of constraint updates performed
func (s *Solver) Solve(m *Manager, bodies ecs.Bodies, dt float64) int {
	iterations := s.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if m == nil || len(m.constraints) == 0 || dt <= 0 {
		return 0
	}

	step := dt / float64(iterations)
	updates := 0
	for range iterations {
		for _, c := range m.constraints {
			if !c.Active() {
				continue
			}
			c.Update(bodies, step)
			updates++
		}
	}

	return updates
}
