package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

type fakeAudioEngine struct {
	volumes map[string]float64
	stopped map[string]bool
}

func newFakeAudioEngine() *fakeAudioEngine {
	return &fakeAudioEngine{volumes: make(map[string]float64), stopped: make(map[string]bool)}
}

func (f *fakeAudioEngine) PlaySound(soundID string, volume, pitch float64, loop bool) error {
	f.volumes[soundID] = volume
	return nil
}
func (f *fakeAudioEngine) StopSound(soundID string) error          { f.stopped[soundID] = true; return nil }
func (f *fakeAudioEngine) SetVolume(soundID string, volume float64) error { f.volumes[soundID] = volume; return nil }
func (f *fakeAudioEngine) SetListenerPosition(position ecs.Vector2) error { return nil }

func TestAudioSystem_AttenuatesByDistanceFromListener(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, audioID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypeAudio]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(100), components.FieldY: float32(0)}))
	require.NoError(t, world.AddComponent(e, audioID, map[string]any{
		components.FieldSoundID:     "explosion",
		components.FieldVolume:      float32(1.0),
		components.FieldIsPlaying:   true,
		components.FieldIs3D:        true,
		components.FieldMaxDistance: float32(200),
	}))

	engine := newFakeAudioEngine()
	audio := NewAudioSystem()
	audio.SetAudioEngine(engine)
	audio.SetListener(ecs.Vector2{X: 0, Y: 0})

	require.NoError(t, audio.Update(world, 0))
	assert.InDelta(t, 0.5, engine.volumes["explosion"], 0.01)
}

func TestAudioSystem_SkipsPausedSounds(t *testing.T) {
	world, ids := newTestWorld(t)
	audioID := ids[ecs.ComponentTypeAudio]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, audioID, map[string]any{
		components.FieldSoundID:   "music",
		components.FieldIsPlaying: true,
		components.FieldIsPaused:  true,
	}))

	engine := newFakeAudioEngine()
	audio := NewAudioSystem()
	audio.SetAudioEngine(engine)
	require.NoError(t, audio.Update(world, 0))

	_, ok := engine.volumes["music"]
	assert.False(t, ok)
}

func TestAudioSystem_SilentBeyondMaxDistanceStopsSound(t *testing.T) {
	world, ids := newTestWorld(t)
	transformID, audioID := ids[ecs.ComponentTypeTransform], ids[ecs.ComponentTypeAudio]

	e, err := world.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, world.AddComponent(e, transformID, map[string]any{components.FieldX: float32(500), components.FieldY: float32(0)}))
	require.NoError(t, world.AddComponent(e, audioID, map[string]any{
		components.FieldSoundID:     "ambient",
		components.FieldVolume:      float32(1.0),
		components.FieldIsPlaying:   true,
		components.FieldIs3D:        true,
		components.FieldMaxDistance: float32(100),
	}))

	engine := newFakeAudioEngine()
	audio := NewAudioSystem()
	audio.SetAudioEngine(engine)
	require.NoError(t, audio.Update(world, 0))

	assert.True(t, engine.stopped["ambient"])
}
