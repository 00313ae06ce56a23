package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/config"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/cull"
	"github.com/akmonengine/impulse/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	configPath := flag.String("config", "", "YAML world settings, defaults when empty")
	steps := flag.Int("steps", 240, "number of 60 Hz steps to simulate")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to start: %v", err)
		}
		cfg = loaded
	}

	world, err := impulse.NewWorld(cfg, nil, log.Default())
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	boxes := setupScene(world)

	world.Events.Subscribe(impulse.COLLISION_ENTER, func(event impulse.Event) {
		e := event.(impulse.CollisionEnterEvent)
		fmt.Printf("💥 %s hit %s\n", e.NameA, e.NameB)
	})
	world.Events.Subscribe(impulse.TRIGGER_ENTER, func(event impulse.Event) {
		e := event.(impulse.TriggerEnterEvent)
		fmt.Printf("🚩 %s entered %s\n", e.NameB, e.NameA)
	})

	const dt = 1.0 / 60
	for step := range *steps {
		stats := world.Step(dt)
		if step%60 == 0 {
			fmt.Printf("t=%.1fs candidates=%d colliding=%d impulses=%d\n",
				float64(step)*dt, stats.Candidates, stats.Colliding, stats.Resolver.Impulses)
			for _, id := range boxes {
				fmt.Printf("   %-8s %v\n", world.Registry.Name(id), world.Registry.Transform(id).Position)
			}
		}
	}

	camera := cull.Camera{
		Position: mgl64.Vec3{0, 6, 18},
		Target:   mgl64.Vec3{0, 1, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     60,
		Aspect:   16.0 / 9,
		Near:     0.1,
		Far:      100,
	}
	visible, stats := world.Cull(cull.NewFrustum(camera), camera.Position)
	fmt.Printf("visible %d/%d meshes (%d nodes visited)\n", stats.Visible, stats.Total, stats.NodesVisited)
	for _, v := range visible {
		fmt.Printf("   %s\n", world.Registry.Name(v.Object.Entity))
	}
}

// setupScene creates a static floor, a column of falling boxes, a sphere
// hanging from the first box and a trigger zone on the floor
func setupScene(world *impulse.World) []ecs.EntityID {
	floorShape := actor.NewAxisBox(mgl64.Vec3{20, 1, 20})
	floor := world.SpawnBody("floor", actor.Transform{Position: mgl64.Vec3{0, -1, 0}}, floorShape, 0)
	world.Registry.AddMesh(floor, floorShape.LocalBounds())

	zone := world.Spawn("zone", actor.Transform{Position: mgl64.Vec3{4, 0.5, 0}}, actor.NewSphere(1))
	world.Registry.Collider(zone).Trigger = true
	world.Registry.Collider(zone).Movable = false

	boxes := make([]ecs.EntityID, 0, 6)
	for i := range 4 {
		transform := actor.Transform{
			Position: mgl64.Vec3{float64(i%2) * 0.4, 2 + float64(i)*2.5, 0},
			Rotation: mgl64.QuatRotate(mgl64.DegToRad(float64(i)*15), mgl64.Vec3{0, 1, 0}),
		}
		shape := actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5})
		id := world.SpawnBody(fmt.Sprintf("box-%d", i), transform, shape, actor.DefaultMass)
		world.Registry.AddMesh(id, shape.LocalBounds())
		boxes = append(boxes, id)
	}

	ball := world.SpawnBody("ball", actor.Transform{Position: mgl64.Vec3{4, 6, 0}}, actor.NewSphere(0.5), 2)
	world.Registry.RigidBody(ball).Velocity = mgl64.Vec3{-1, 0, 0}
	world.Registry.AddMesh(ball, actor.NewSphere(0.5).LocalBounds())
	boxes = append(boxes, ball)

	world.Constraints.Add(constraint.NewPositionConstraint(boxes[3], ball, 4))

	return boxes
}
