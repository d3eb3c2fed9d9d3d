package systems

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

func newTestWorld(t *testing.T) (*ecs.World, map[ecs.ComponentType]ecs.TypeID) {
	t.Helper()
	world := ecs.NewWorld(ecs.DefaultWorldConfig(), zerolog.Nop())
	ids, err := components.RegisterAll(world)
	require.NoError(t, err)
	return world, ids
}

func TestMovementSystem_IntegratesPositionFromVelocity(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(0), components.FieldY: float32(0)}))
	require.NoError(t, world.AddComponent(e, physicsID, map[string]any{components.FieldVelocityX: float32(10), components.FieldVelocityY: float32(0)}))

	movement := NewMovementSystem()
	require.NoError(t, movement.Update(world, 0.5))

	transform, err := world.GetComponent(e, transformID)
	require.NoError(t, err)
	require.InDelta(t, 5.0, transform.F32(components.FieldX), 0.0001)
}

func TestMovementSystem_ClampsToMaxSpeed(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, nil))
	require.NoError(t, world.AddComponent(e, physicsID, map[string]any{components.FieldVelocityX: float32(100), components.FieldVelocityY: float32(0)}))

	movement := NewMovementSystem()
	movement.SetMaxSpeed(10)
	require.NoError(t, movement.Update(world, 1.0))

	physics, err := world.GetComponent(e, physicsID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, physics.F32(components.FieldVelocityX), 0.0001)
}

func TestMovementSystem_ClampsToBoundary(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(0), components.FieldY: float32(0)}))
	require.NoError(t, world.AddComponent(e, physicsID, map[string]any{components.FieldVelocityX: float32(1000), components.FieldVelocityY: float32(0)}))

	movement := NewMovementSystem()
	movement.SetBoundary(0, 0, 50, 50)
	require.NoError(t, movement.Update(world, 1.0))

	transform, err := world.GetComponent(e, transformID)
	require.NoError(t, err)
	require.InDelta(t, 50.0, transform.F32(components.FieldX), 0.0001)
}

func TestMovementSystem_DisabledSkipsUpdate(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(0)}))
	require.NoError(t, world.AddComponent(e, physicsID, map[string]any{components.FieldVelocityX: float32(10)}))

	movement := NewMovementSystem()
	movement.SetEnabled(false)
	require.NoError(t, movement.Update(world, 1.0))

	transform, err := world.GetComponent(e, transformID)
	require.NoError(t, err)
	require.Zero(t, transform.F32(components.FieldX))
}
