// Package systems provides the built-in game systems for the ECS framework:
// Movement, Physics, Audio and Rendering. Each implements ecs.System and
// resolves the TypeIDs of the components it touches lazily, on first Update,
// so registration order between components.RegisterAll and system
// registration never matters.
package systems

import (
	"sync"

	"muscle-dreamer/internal/core/ecs"
)

// Priority constants retained for hosts that want to express intent even
// though the scheduler itself only orders by declared dependency and, within
// a rank, by system name, never by this value.
const (
	InputSystemPriority     ecs.Priority = 100
	MovementSystemPriority  ecs.Priority = 90
	PhysicsSystemPriority   ecs.Priority = 80
	AudioSystemPriority     ecs.Priority = 30
	RenderingSystemPriority ecs.Priority = 20
)

// BaseSystem provides the bookkeeping every concrete system shares: an
// enabled flag, cached component TypeIDs, and the last error seen. Timing
// metrics live on the scheduler now (ecs.SystemMetrics), not here.
type BaseSystem struct {
	name  ecs.SystemType
	phase ecs.Phase

	mutex        sync.RWMutex
	enabled      bool
	lastError    error
	errorHandler func(error)

	typeIDs map[ecs.ComponentType]ecs.TypeID
}

func NewBaseSystem(name ecs.SystemType, phase ecs.Phase) *BaseSystem {
	return &BaseSystem{
		name:    name,
		phase:   phase,
		enabled: true,
	}
}

func (bs *BaseSystem) Name() ecs.SystemType { return bs.name }
func (bs *BaseSystem) Phase() ecs.Phase     { return bs.phase }

func (bs *BaseSystem) IsEnabled() bool {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	return bs.enabled
}

func (bs *BaseSystem) SetEnabled(enabled bool) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()
	bs.enabled = enabled
}

func (bs *BaseSystem) SetErrorHandler(handler func(error)) {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()
	bs.errorHandler = handler
}

func (bs *BaseSystem) GetLastError() error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	return bs.lastError
}

func (bs *BaseSystem) handleError(err error) {
	bs.mutex.Lock()
	bs.lastError = err
	handler := bs.errorHandler
	bs.mutex.Unlock()
	if handler != nil {
		handler(err)
	}
}

// resolveTypes looks up and caches the TypeIDs for the named component types.
// A component that isn't registered yet is simply absent from the returned
// map; callers treat a missing TypeID as "skip this system for now" rather
// than an error, since hosts may register systems before components.
func (bs *BaseSystem) resolveTypes(world *ecs.World, names ...ecs.ComponentType) map[ecs.ComponentType]ecs.TypeID {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if bs.typeIDs == nil {
		bs.typeIDs = make(map[ecs.ComponentType]ecs.TypeID, len(names))
	}
	for _, name := range names {
		if _, ok := bs.typeIDs[name]; ok {
			continue
		}
		if id, ok := world.TypeIDOf(name); ok {
			bs.typeIDs[name] = id
		}
	}
	return bs.typeIDs
}
