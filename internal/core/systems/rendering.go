package systems

import (
	"sort"
	"sync"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
	"muscle-dreamer/internal/core/ecs/storage"
)

// RenderableEntity is one entity's flattened render-facing state for the
// current frame: enough for a host's renderer to draw without touching the
// World directly.
type RenderableEntity struct {
	Entity ecs.EntityID
	X, Y   float32
	Rotation, ScaleX, ScaleY float32
	TextureID string
	R, G, B, A uint8
	ZOrder    int32
	FlipX, FlipY bool
}

// Camera is the rendering viewport transform.
type Camera struct {
	Position ecs.Vector2
	Zoom     float64
	Rotation float64
}

// RenderingSystem builds the frame's sorted, culled render list from every
// entity carrying Transform and Sprite. It never touches a graphics API
// itself — SPEC_FULL.md's Non-goals exclude rendering/input/audio output —
// it only produces the data a host's own renderer would consume.
type RenderingSystem struct {
	*BaseSystem

	mutex    sync.RWMutex
	viewport *Rectangle
	camera   Camera
	lastFrame []RenderableEntity
}

func NewRenderingSystem() *RenderingSystem {
	return &RenderingSystem{
		BaseSystem: NewBaseSystem(ecs.SystemTypeRendering, ecs.PhaseVariable),
		camera:     Camera{Zoom: 1.0},
	}
}

func (rs *RenderingSystem) SetViewport(x, y, width, height float64) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.viewport = &Rectangle{X: x, Y: y, Width: width, Height: height}
}

func (rs *RenderingSystem) GetViewport() *Rectangle {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return rs.viewport
}

func (rs *RenderingSystem) SetCamera(position ecs.Vector2, zoom, rotation float64) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	rs.camera = Camera{Position: position, Zoom: zoom, Rotation: rotation}
}

func (rs *RenderingSystem) GetCamera() Camera {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return rs.camera
}

// GetRenderables returns the render list computed by the last Update call,
// already viewport-culled and Z-sorted.
func (rs *RenderingSystem) GetRenderables() []RenderableEntity {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()
	return append([]RenderableEntity(nil), rs.lastFrame...)
}

func (rs *RenderingSystem) Update(world *ecs.World, dt float64) error {
	if !rs.IsEnabled() {
		return nil
	}

	ids := rs.resolveTypes(world, ecs.ComponentTypeTransform, ecs.ComponentTypeSprite)
	transformID, haveTransform := ids[ecs.ComponentTypeTransform]
	spriteID, haveSprite := ids[ecs.ComponentTypeSprite]
	if !haveTransform || !haveSprite {
		return nil
	}

	rs.mutex.RLock()
	viewport := rs.viewport
	rs.mutex.RUnlock()

	var frame []RenderableEntity
	entities := world.Query([]ecs.TypeID{transformID, spriteID}, nil)
	for _, e := range entities {
		transform, err := world.GetComponent(e, transformID)
		if err != nil {
			continue
		}
		sprite, err := world.GetComponent(e, spriteID)
		if err != nil {
			continue
		}
		if !sprite.Bool(components.FieldVisible) {
			continue
		}

		r := RenderableEntity{
			Entity:    e,
			X:         transform.F32(components.FieldX),
			Y:         transform.F32(components.FieldY),
			Rotation:  transform.F32(components.FieldRotation),
			ScaleX:    transform.F32(components.FieldScaleX),
			ScaleY:    transform.F32(components.FieldScaleY),
			TextureID: sprite.String(components.FieldTextureID),
			R:         sprite.U8(components.FieldColorR),
			G:         sprite.U8(components.FieldColorG),
			B:         sprite.U8(components.FieldColorB),
			A:         sprite.U8(components.FieldColorA),
			ZOrder:    sprite.I32(components.FieldZOrder),
			FlipX:     sprite.Bool(components.FieldFlipX),
			FlipY:     sprite.Bool(components.FieldFlipY),
		}

		if viewport != nil && !rs.isInViewport(r, sprite) {
			continue
		}
		frame = append(frame, r)
	}

	sort.Slice(frame, func(i, j int) bool { return frame[i].ZOrder < frame[j].ZOrder })

	rs.mutex.Lock()
	rs.lastFrame = frame
	rs.mutex.Unlock()
	return nil
}

func (rs *RenderingSystem) isInViewport(r RenderableEntity, sprite storage.View) bool {
	width := sprite.F32(components.FieldRectMaxX) - sprite.F32(components.FieldRectMinX)
	height := sprite.F32(components.FieldRectMaxY) - sprite.F32(components.FieldRectMinY)

	left, top := float64(r.X), float64(r.Y)
	right, bottom := left+float64(width), top+float64(height)

	v := rs.viewport
	vLeft, vTop := v.X, v.Y
	vRight, vBottom := v.X+v.Width, v.Y+v.Height

	return !(right < vLeft || left > vRight || bottom < vTop || top > vBottom)
}
