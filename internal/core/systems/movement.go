package systems

import (
	"math"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

// MovementSystem integrates Transform position from Physics velocity. It
// runs in the Fixed phase, after PhysicsSystem has applied forces for the
// tick, matching the Velocity-in/Transform-out scenario the core's
// deterministic-replay guarantee depends on.
type MovementSystem struct {
	*BaseSystem

	maxSpeed float64
	boundary *Rectangle
}

// Rectangle is a bounding box used for movement and viewport clamping.
type Rectangle struct {
	X, Y, Width, Height float64
}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{
		BaseSystem: NewBaseSystem(ecs.SystemTypeMovement, ecs.PhaseFixed),
		maxSpeed:   -1, // no limit by default
	}
}

func (ms *MovementSystem) SetMaxSpeed(maxSpeed float64) { ms.maxSpeed = maxSpeed }
func (ms *MovementSystem) GetMaxSpeed() float64         { return ms.maxSpeed }

func (ms *MovementSystem) SetBoundary(x, y, width, height float64) {
	ms.boundary = &Rectangle{X: x, Y: y, Width: width, Height: height}
}
func (ms *MovementSystem) GetBoundary() *Rectangle { return ms.boundary }

// Update integrates position += velocity * dt for every entity carrying both
// Transform and Physics, then applies the speed limit and boundary clamp.
func (ms *MovementSystem) Update(world *ecs.World, dt float64) error {
	if !ms.IsEnabled() {
		return nil
	}

	ids := ms.resolveTypes(world, ecs.ComponentTypeTransform, ecs.ComponentTypePhysics)
	transformID, haveTransform := ids[ecs.ComponentTypeTransform]
	physicsID, havePhysics := ids[ecs.ComponentTypePhysics]
	if !haveTransform || !havePhysics {
		return nil
	}

	entities := world.Query([]ecs.TypeID{transformID, physicsID}, nil)
	for _, e := range entities {
		transform, err := world.GetComponent(e, transformID)
		if err != nil {
			continue
		}
		physics, err := world.GetComponent(e, physicsID)
		if err != nil {
			continue
		}

		vx, vy := physics.F32(components.FieldVelocityX), physics.F32(components.FieldVelocityY)
		vx, vy = ms.limitSpeed(vx, vy)
		physics.SetF32(components.FieldVelocityX, vx)
		physics.SetF32(components.FieldVelocityY, vy)

		x := transform.F32(components.FieldX) + vx*float32(dt)
		y := transform.F32(components.FieldY) + vy*float32(dt)
		x, y = ms.clampToBoundary(x, y)
		transform.SetF32(components.FieldX, x)
		transform.SetF32(components.FieldY, y)
	}
	return nil
}

func (ms *MovementSystem) limitSpeed(vx, vy float32) (float32, float32) {
	if ms.maxSpeed <= 0 {
		return vx, vy
	}
	speed := math.Sqrt(float64(vx)*float64(vx) + float64(vy)*float64(vy))
	if speed > ms.maxSpeed {
		scale := float32(ms.maxSpeed / speed)
		return vx * scale, vy * scale
	}
	return vx, vy
}

func (ms *MovementSystem) clampToBoundary(x, y float32) (float32, float32) {
	if ms.boundary == nil {
		return x, y
	}
	minX, maxX := float32(ms.boundary.X), float32(ms.boundary.X+ms.boundary.Width)
	minY, maxY := float32(ms.boundary.Y), float32(ms.boundary.Y+ms.boundary.Height)
	if x < minX {
		x = minX
	} else if x > maxX {
		x = maxX
	}
	if y < minY {
		y = minY
	} else if y > maxY {
		y = maxY
	}
	return x, y
}
