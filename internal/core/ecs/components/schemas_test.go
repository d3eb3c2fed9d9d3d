package components

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muscle-dreamer/internal/core/ecs"
)

func newTestWorld() *ecs.World {
	return ecs.NewWorld(ecs.DefaultWorldConfig(), zerolog.Nop())
}

func TestRegisterAll_AssignsDistinctTypeIDs(t *testing.T) {
	world := newTestWorld()
	ids, err := RegisterAll(world)
	require.NoError(t, err)
	require.Len(t, ids, 6)

	seen := make(map[ecs.TypeID]bool)
	for name, id := range ids {
		assert.NotEqual(t, ecs.InvalidTypeID, id)
		assert.False(t, seen[id], "duplicate type id for %s", name)
		seen[id] = true
	}
}

func TestTransformSchema_RoundTripsThroughWorld(t *testing.T) {
	world := newTestWorld()
	transformID, err := world.RegisterComponent(TransformSchema())
	require.NoError(t, err)

	e, err := world.CreateEntity()
	require.NoError(t, err)

	require.NoError(t, world.AddComponent(e, transformID, map[string]any{
		FieldX:        float32(1.5),
		FieldY:        float32(-2.5),
		FieldRotation: float32(0),
		FieldScaleX:   float32(1),
		FieldScaleY:   float32(1),
	}))

	view, err := world.GetComponent(e, transformID)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), view.F32(FieldX))
	assert.Equal(t, float32(-2.5), view.F32(FieldY))
}

func TestHealthSchema_StatusEffectsRoundTripAsOpaqueRef(t *testing.T) {
	world := newTestWorld()
	healthID, err := world.RegisterComponent(HealthSchema())
	require.NoError(t, err)

	e, err := world.CreateEntity()
	require.NoError(t, err)

	effects := []StatusEffect{{Type: StatusPoison, Magnitude: 3, Remaining: 5}}
	require.NoError(t, world.AddComponent(e, healthID, map[string]any{
		FieldCurrentHealth: int32(100),
		FieldMaxHealth:     int32(100),
		FieldStatusEffects: any(effects),
	}))

	view, err := world.GetComponent(e, healthID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, view.I32(FieldCurrentHealth))

	got, ok := view.Ref(FieldStatusEffects).([]StatusEffect)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, StatusPoison, got[0].Type)
}

func TestAISchema_StateAndBehaviorAreU8Columns(t *testing.T) {
	world := newTestWorld()
	aiID, err := world.RegisterComponent(AISchema())
	require.NoError(t, err)

	e, err := world.CreateEntity()
	require.NoError(t, err)

	require.NoError(t, world.AddComponent(e, aiID, map[string]any{
		FieldState:    uint8(AIStatePatrol),
		FieldBehavior: uint8(AIBehaviorDefensive),
		FieldSpeed:    float32(2.5),
	}))

	view, err := world.GetComponent(e, aiID)
	require.NoError(t, err)
	assert.Equal(t, AIStatePatrol, AIState(view.U8(FieldState)))
	assert.Equal(t, AIBehaviorDefensive, AIBehavior(view.U8(FieldBehavior)))
}
