// Package core wires together the ECS World, its built-in components and
// systems, into a runnable demo loop. It carries no rendering or input
// backend of its own — SPEC_FULL.md's Non-goals exclude those — so Run just
// drives World.Update on a wall-clock ticker and logs periodic Stats().
package core

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"muscle-dreamer/internal/core/ecs"
	"muscle-dreamer/internal/core/ecs/components"
	"muscle-dreamer/internal/core/systems"
)

// Game owns one World and the systems registered against it.
type Game struct {
	world *ecs.World
	log   zerolog.Logger

	physics   *systems.PhysicsSystem
	movement  *systems.MovementSystem
	audio     *systems.AudioSystem
	rendering *systems.RenderingSystem
}

// NewGame builds a World with the built-in component schemas and systems
// registered, and spawns a small starting scene.
func NewGame() *Game {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	world := ecs.NewWorld(ecs.DefaultWorldConfig(), log)

	g := &Game{
		world:     world,
		log:       log,
		physics:   systems.NewPhysicsSystem(),
		movement:  systems.NewMovementSystem(),
		audio:     systems.NewAudioSystem(),
		rendering: systems.NewRenderingSystem(),
	}

	if err := g.setup(); err != nil {
		log.Fatal().Err(err).Msg("failed to set up demo world")
	}
	return g
}

func (g *Game) setup() error {
	ids, err := components.RegisterAll(g.world)
	if err != nil {
		return err
	}

	if err := g.world.RegisterSystem(g.physics); err != nil {
		return err
	}
	if err := g.world.RegisterSystem(g.movement, g.physics.Name()); err != nil {
		return err
	}
	if err := g.world.RegisterSystem(g.audio); err != nil {
		return err
	}
	if err := g.world.RegisterSystem(g.rendering); err != nil {
		return err
	}

	transformID := ids[ecs.ComponentTypeTransform]
	physicsID := ids[ecs.ComponentTypePhysics]
	spriteID := ids[ecs.ComponentTypeSprite]

	for i := 0; i < 4; i++ {
		e, err := g.world.CreateEntity()
		if err != nil {
			return err
		}
		if err := g.world.AddComponent(e, transformID, map[string]any{
			components.FieldX: float32(i * 20),
			components.FieldY: float32(0),
		}); err != nil {
			return err
		}
		if err := g.world.AddComponent(e, physicsID, map[string]any{
			components.FieldVelocityX: float32(5),
			components.FieldMass:      float32(1),
			components.FieldGravity:   true,
		}); err != nil {
			return err
		}
		if err := g.world.AddComponent(e, spriteID, map[string]any{
			components.FieldVisible: true,
			components.FieldZOrder:  int32(i),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the World at its configured fixed timestep until ctx is
// cancelled, logging Stats() once a second.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.world.Config().FixedDT)
	defer ticker.Stop()

	statsTicker := time.NewTicker(time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := g.world.Update(g.world.Config().FixedDT); err != nil {
				return err
			}
		case <-statsTicker.C:
			stats := g.world.Stats()
			g.log.Info().
				Int("entities_alive", stats.Entities.Alive).
				Int("archetypes", stats.Archetypes).
				Int64("query_hits", stats.Queries.Hits).
				Int64("query_misses", stats.Queries.Misses).
				Msg("tick stats")
		}
	}
}

// World exposes the underlying World, mainly so a host embedding Game (a
// test, or a future telemetry/inspector wiring) can read Stats() without
// the demo loop owning that concern exclusively.
func (g *Game) World() *ecs.World { return g.world }
