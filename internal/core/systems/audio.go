package systems

import (
	"math"
	"sync"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
)

// AudioEngine abstracts sound playback; a host wires in a real mixer, tests
// use a fake. Nil is valid — the system just skips playback calls.
type AudioEngine interface {
	PlaySound(soundID string, volume, pitch float64, loop bool) error
	StopSound(soundID string) error
	SetVolume(soundID string, volume float64) error
	SetListenerPosition(position ecs.Vector2) error
}

// AudioSystem drives every Audio component's 3D attenuation against a
// listener position and forwards playback state to an AudioEngine. It runs
// in the Variable phase: sound does not need fixed-timestep determinism.
type AudioSystem struct {
	*BaseSystem

	mutex            sync.RWMutex
	listenerPosition ecs.Vector2
	masterVolume     float64
	engine           AudioEngine
}

func NewAudioSystem() *AudioSystem {
	return &AudioSystem{
		BaseSystem:   NewBaseSystem(ecs.SystemTypeAudio, ecs.PhaseVariable),
		masterVolume: 1.0,
	}
}

func (as *AudioSystem) SetAudioEngine(engine AudioEngine) {
	as.mutex.Lock()
	defer as.mutex.Unlock()
	as.engine = engine
}

func (as *AudioSystem) SetListener(position ecs.Vector2) {
	as.mutex.Lock()
	as.listenerPosition = position
	engine := as.engine
	as.mutex.Unlock()
	if engine != nil {
		_ = engine.SetListenerPosition(position)
	}
}

func (as *AudioSystem) GetListener() ecs.Vector2 {
	as.mutex.RLock()
	defer as.mutex.RUnlock()
	return as.listenerPosition
}

func (as *AudioSystem) SetMasterVolume(volume float64) {
	as.mutex.Lock()
	defer as.mutex.Unlock()
	as.masterVolume = math.Max(0.0, math.Min(1.0, volume))
}

func (as *AudioSystem) GetMasterVolume() float64 {
	as.mutex.RLock()
	defer as.mutex.RUnlock()
	return as.masterVolume
}

// Update attenuates every playing 3D emitter by distance from the listener
// and forwards the result to the AudioEngine; non-3D emitters play at volume
// * master unmodified.
func (as *AudioSystem) Update(world *ecs.World, dt float64) error {
	if !as.IsEnabled() {
		return nil
	}

	ids := as.resolveTypes(world, ecs.ComponentTypeAudio, ecs.ComponentTypeTransform)
	audioID, haveAudio := ids[ecs.ComponentTypeAudio]
	if !haveAudio {
		return nil
	}
	transformID, haveTransform := ids[ecs.ComponentTypeTransform]

	as.mutex.RLock()
	listener := as.listenerPosition
	master := as.masterVolume
	engine := as.engine
	as.mutex.RUnlock()

	entities := world.Query([]ecs.TypeID{audioID}, nil)
	for _, e := range entities {
		audio, err := world.GetComponent(e, audioID)
		if err != nil {
			continue
		}
		if !audio.Bool(components.FieldIsPlaying) || audio.Bool(components.FieldIsPaused) {
			continue
		}

		soundID := audio.String(components.FieldSoundID)
		volume := float64(audio.F32(components.FieldVolume))
		pitch := float64(audio.F32(components.FieldPitch))

		if audio.Bool(components.FieldIs3D) && haveTransform {
			if transform, err := world.GetComponent(e, transformID); err == nil {
				pos := ecs.Vector2{X: float64(transform.F32(components.FieldX)), Y: float64(transform.F32(components.FieldY))}
				maxDistance := float64(audio.F32(components.FieldMaxDistance))
				volume = as.attenuate(pos, listener, volume, maxDistance)
			}
		}

		if engine == nil {
			continue
		}
		finalVolume := volume * master
		if finalVolume <= 0 {
			_ = engine.StopSound(soundID)
			continue
		}
		if err := engine.SetVolume(soundID, finalVolume); err != nil {
			as.handleError(err)
		}
		_ = pitch
	}
	return nil
}

// attenuate applies linear distance falloff; silent at or beyond maxDistance.
func (as *AudioSystem) attenuate(source, listener ecs.Vector2, baseVolume, maxDistance float64) float64 {
	if maxDistance <= 0 {
		return baseVolume
	}
	distance := math.Sqrt(math.Pow(source.X-listener.X, 2) + math.Pow(source.Y-listener.Y, 2))
	if distance >= maxDistance {
		return 0
	}
	return baseVolume * (1.0 - distance/maxDistance)
}
