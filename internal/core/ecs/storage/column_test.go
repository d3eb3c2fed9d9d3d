package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muscle-dreamer/internal/core/ecs"
)

func transformSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeTransform,
		Fields: []ecs.FieldDesc{
			{Name: "x", Kind: ecs.KindF32},
			{Name: "y", Kind: ecs.KindF32},
		},
	}
}

func TestColumn_AddGet(t *testing.T) {
	c := NewColumn(1, transformSchema(), 2)
	e := ecs.NewEntityID(0, 0)

	require.NoError(t, c.Add(e, map[string]any{"x": float32(1), "y": float32(2)}))
	assert.True(t, c.Has(e))

	view, ok := c.Get(e)
	require.True(t, ok)
	assert.Equal(t, float32(1), view.F32("x"))
	assert.Equal(t, float32(2), view.F32("y"))
}

func TestColumn_GrowsByDoubling(t *testing.T) {
	c := NewColumn(1, transformSchema(), 2)
	for i := uint32(0); i < 5; i++ {
		e := ecs.NewEntityID(i, 0)
		require.NoError(t, c.Add(e, map[string]any{"x": float32(i), "y": float32(i)}))
	}
	assert.GreaterOrEqual(t, c.Capacity(), 5)
	assert.Equal(t, 5, c.Size())
	assert.GreaterOrEqual(t, c.Reallocs(), int64(2))
}

func TestColumn_RemoveSwapsLastRow(t *testing.T) {
	c := NewColumn(1, transformSchema(), 4)
	e0 := ecs.NewEntityID(0, 0)
	e1 := ecs.NewEntityID(1, 0)
	e2 := ecs.NewEntityID(2, 0)
	require.NoError(t, c.Add(e0, map[string]any{"x": float32(10), "y": float32(0)}))
	require.NoError(t, c.Add(e1, map[string]any{"x": float32(20), "y": float32(0)}))
	require.NoError(t, c.Add(e2, map[string]any{"x": float32(30), "y": float32(0)}))

	require.NoError(t, c.Remove(e0))
	assert.False(t, c.Has(e0))
	assert.Equal(t, 2, c.Size())

	view, ok := c.Get(e2)
	require.True(t, ok)
	assert.Equal(t, float32(30), view.F32("x"), "swapped-in row must carry its own field values")
}

func TestColumn_AddTwiceReplacesRow(t *testing.T) {
	c := NewColumn(1, transformSchema(), 2)
	e := ecs.NewEntityID(0, 0)
	require.NoError(t, c.Add(e, map[string]any{"x": float32(1), "y": float32(1)}))
	require.NoError(t, c.Add(e, map[string]any{"x": float32(9), "y": float32(9)}))

	assert.Equal(t, 1, c.Size(), "re-adding must replace in place, not grow the set")
	view, _ := c.Get(e)
	assert.Equal(t, float32(9), view.F32("x"))
}

func TestColumn_AllIteratesInSlotOrder(t *testing.T) {
	c := NewColumn(1, transformSchema(), 4)
	e0 := ecs.NewEntityID(0, 0)
	e1 := ecs.NewEntityID(1, 0)
	_ = c.Add(e0, map[string]any{"x": float32(1)})
	_ = c.Add(e1, map[string]any{"x": float32(2)})

	var seen []ecs.EntityID
	for e, v := range c.All() {
		seen = append(seen, e)
		_ = v.F32("x")
	}
	assert.Equal(t, []ecs.EntityID{e0, e1}, seen)
}
