package systems

import (
	"math"
	"sync"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

// PhysicsSystem applies forces — gravity and drag — to every entity's
// Physics velocity, and runs static-collider collision detection against the
// Transform/Physics pair. It runs in the Fixed phase, before MovementSystem,
// so Movement always integrates a velocity Physics has already settled for
// the tick.
type PhysicsSystem struct {
	*BaseSystem

	mutex           sync.RWMutex
	gravity         ecs.Vector2
	dragCoefficient float64
	staticColliders []Collider
	collisions      []Collision
}

// Collider is a static collision shape the physics system checks dynamic
// entities against.
type Collider struct {
	Bounds    Rectangle
	IsTrigger bool
	Material  PhysicsMaterial
}

// PhysicsMaterial carries the surface properties of a Collider.
type PhysicsMaterial struct {
	Friction    float64
	Restitution float64
	Density     float64
}

// Collision records one contact detected during the last Update.
type Collision struct {
	Entity       ecs.EntityID
	ColliderIdx  int
	ContactPoint ecs.Vector2
	Timestamp    int64
}

func NewPhysicsSystem() *PhysicsSystem {
	return &PhysicsSystem{
		BaseSystem:      NewBaseSystem(ecs.SystemTypePhysics, ecs.PhaseFixed),
		gravity:         ecs.Vector2{X: 0, Y: 9.8 * 100},
		dragCoefficient: 0.98,
	}
}

func (ps *PhysicsSystem) SetGravity(gravity ecs.Vector2) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.gravity = gravity
}

func (ps *PhysicsSystem) GetGravity() ecs.Vector2 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return ps.gravity
}

func (ps *PhysicsSystem) AddStaticCollider(bounds Rectangle) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.staticColliders = append(ps.staticColliders, Collider{
		Bounds:   bounds,
		Material: PhysicsMaterial{Friction: 0.5, Restitution: 0.3, Density: 1.0},
	})
}

func (ps *PhysicsSystem) GetStaticColliders() []Collider {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return append([]Collider(nil), ps.staticColliders...)
}

func (ps *PhysicsSystem) GetCollisions() []Collision {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return append([]Collision(nil), ps.collisions...)
}

// Update applies gravity and drag to every Physics velocity, then checks the
// resulting Transform position against every static collider.
func (ps *PhysicsSystem) Update(world *ecs.World, dt float64) error {
	if !ps.IsEnabled() {
		return nil
	}

	ids := ps.resolveTypes(world, ecs.ComponentTypeTransform, ecs.ComponentTypePhysics)
	transformID, haveTransform := ids[ecs.ComponentTypeTransform]
	physicsID, havePhysics := ids[ecs.ComponentTypePhysics]
	if !haveTransform || !havePhysics {
		return nil
	}

	ps.mutex.RLock()
	gravity := ps.gravity
	drag := ps.dragCoefficient
	colliders := ps.staticColliders
	ps.mutex.RUnlock()

	var collisions []Collision
	entities := world.Query([]ecs.TypeID{transformID, physicsID}, nil)
	for _, e := range entities {
		physics, err := world.GetComponent(e, physicsID)
		if err != nil {
			continue
		}
		mass := physics.F32(components.FieldMass)
		isStatic := physics.Bool(components.FieldIsStatic)
		hasGravity := physics.Bool(components.FieldGravity)

		vx, vy := physics.F32(components.FieldVelocityX), physics.F32(components.FieldVelocityY)
		ax, ay := physics.F32(components.FieldAccelerationX), physics.F32(components.FieldAccelerationY)
		vx += ax * float32(dt)
		vy += ay * float32(dt)

		if hasGravity && mass > 0 && !isStatic {
			vx += float32(gravity.X * dt)
			vy += float32(gravity.Y * dt)
		}

		dragScale := float32(math.Pow(drag, dt))
		vx *= dragScale
		vy *= dragScale

		maxSpeed := physics.F32(components.FieldMaxSpeed)
		if maxSpeed > 0 {
			speed := math.Sqrt(float64(vx)*float64(vx) + float64(vy)*float64(vy))
			if speed > float64(maxSpeed) {
				scale := maxSpeed / float32(speed)
				vx *= scale
				vy *= scale
			}
		}

		physics.SetF32(components.FieldVelocityX, vx)
		physics.SetF32(components.FieldVelocityY, vy)

		transform, err := world.GetComponent(e, transformID)
		if err != nil {
			continue
		}
		px, py := transform.F32(components.FieldX), transform.F32(components.FieldY)
		for idx, c := range colliders {
			if ps.checkAABBCollision(px, py, c.Bounds) {
				collisions = append(collisions, Collision{Entity: e, ColliderIdx: idx, ContactPoint: ecs.Vector2{X: float64(px), Y: float64(py)}})
			}
		}
	}

	ps.mutex.Lock()
	ps.collisions = collisions
	ps.mutex.Unlock()
	return nil
}

// checkAABBCollision treats the moving entity as a point against a static
// rectangle; a host with a real Sprite/Collider size wires that in by
// extending Rectangle before calling AddStaticCollider.
func (ps *PhysicsSystem) checkAABBCollision(x, y float32, bounds Rectangle) bool {
	return float64(x) >= bounds.X && float64(x) <= bounds.X+bounds.Width &&
		float64(y) >= bounds.Y && float64(y) <= bounds.Y+bounds.Height
}
