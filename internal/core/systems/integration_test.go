package systems

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

// TestGameLoop_PhysicsThenMovementIntegratesPosition exercises the
// Physics-before-Movement dependency a real game loop declares: Physics
// settles velocity for the tick, Movement integrates it into position,
// entirely through World.Update's scheduler, not direct calls.
func TestGameLoop_PhysicsThenMovementIntegratesPosition(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, physicsID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypePhysics]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(0), components.FieldY: float32(0)}))
	require.NoError(t, world.AddComponent(e, physicsID, map[string]any{
		components.FieldAccelerationX: float32(10),
		components.FieldMass:          float32(1),
	}))

	physics := NewPhysicsSystem()
	movement := NewMovementSystem()
	require.NoError(t, world.RegisterSystem(physics))
	require.NoError(t, world.RegisterSystem(movement, physics.Name()))

	require.NoError(t, world.Update(ecs.DefaultWorldConfig().FixedDT))

	transform, err := world.GetComponent(e, transformID)
	require.NoError(t, err)
	assert.Greater(t, transform.F32(components.FieldX), float32(0))
}

func TestGameLoop_RenderingRunsInVariablePhaseEveryFrame(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, spriteID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypeSprite]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, nil))
	require.NoError(t, world.AddComponent(e, spriteID, map[string]any{components.FieldVisible: true}))

	rendering := NewRenderingSystem()
	require.NoError(t, world.RegisterSystem(rendering))

	require.NoError(t, world.Update(time.Second))
	require.Len(t, rendering.GetRenderables(), 1)
}
