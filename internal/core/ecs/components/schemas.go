// Package components declares the built-in component schemas for Muscle
// Dreamer: field layouts registered with a World's column store, rather than
// the boxed structs this package used to export. A schema only fixes the
// field vocabulary; the values themselves live in the World's
// Structure-of-Arrays columns (see internal/core/ecs/storage).
package components

import "muscle-dreamer/internal/core/ecs"

// Field name constants, so callers never typo a string literal: storage's
// Column.Add rejects an unknown field name with an error, but View getters
// return the zero value for one and View setters ignore it.
const (
	FieldX      = "x"
	FieldY      = "y"
	FieldRotation = "rotation"
	FieldScaleX = "scale_x"
	FieldScaleY = "scale_y"
	FieldParent = "parent"

	FieldVelocityX     = "velocity_x"
	FieldVelocityY     = "velocity_y"
	FieldAccelerationX = "acceleration_x"
	FieldAccelerationY = "acceleration_y"
	FieldMass          = "mass"
	FieldFriction      = "friction"
	FieldGravity       = "gravity"
	FieldIsStatic      = "is_static"
	FieldMaxSpeed      = "max_speed"

	FieldCurrentHealth    = "current_health"
	FieldMaxHealth        = "max_health"
	FieldShield           = "shield"
	FieldIsInvincible     = "is_invincible"
	FieldRegenerationRate = "regeneration_rate"
	FieldStatusEffects    = "status_effects"

	FieldState              = "state"
	FieldTarget              = "target"
	FieldPatrolPoints        = "patrol_points"
	FieldDetectionRadius     = "detection_radius"
	FieldAttackRange         = "attack_range"
	FieldSpeed               = "speed"
	FieldBehavior            = "behavior"
	FieldCurrentPatrolIndex  = "current_patrol_index"

	FieldSoundID         = "sound_id"
	FieldVolume          = "volume"
	FieldPitch           = "pitch"
	FieldIsPlaying       = "is_playing"
	FieldIsLoop          = "is_loop"
	FieldIsPaused        = "is_paused"
	FieldIs3D            = "is_3d"
	FieldMaxDistance     = "max_distance"
	FieldMinDistance     = "min_distance"
	FieldRolloff         = "rolloff"
	FieldLowPassFilter   = "low_pass_filter"
	FieldHighPassFilter  = "high_pass_filter"
	FieldReverbLevel     = "reverb_level"

	FieldTextureID  = "texture_id"
	FieldRectMinX   = "rect_min_x"
	FieldRectMinY   = "rect_min_y"
	FieldRectMaxX   = "rect_max_x"
	FieldRectMaxY   = "rect_max_y"
	FieldColorR     = "color_r"
	FieldColorG     = "color_g"
	FieldColorB     = "color_b"
	FieldColorA     = "color_a"
	FieldZOrder     = "z_order"
	FieldVisible    = "visible"
	FieldFlipX      = "flip_x"
	FieldFlipY      = "flip_y"
)

// AIState is the top-level behavior mode an AI-controlled entity occupies.
type AIState uint8

const (
	AIStateIdle AIState = iota
	AIStatePatrol
	AIStateChase
	AIStateAttack
	AIStateFlee
	AIStateDead
)

// AIBehavior selects which decision routine a system should run for an
// entity; State is the current mode, Behavior is the strategy producing
// transitions between modes.
type AIBehavior uint8

const (
	AIBehaviorPassive AIBehavior = iota
	AIBehaviorAggressive
	AIBehaviorDefensive
	AIBehaviorSupport
)

// StatusType names a status effect applied to a Health component.
type StatusType uint8

const (
	StatusNone StatusType = iota
	StatusPoison
	StatusBurning
	StatusRegeneration
	StatusShielded
)

// StatusEffect is a timed modifier stacked onto a Health component. It is
// stored behind FieldStatusEffects as an opaque reference rather than split
// into scalar columns: a variable-length per-entity list does not fit a
// fixed-width SoA row.
type StatusEffect struct {
	Type      StatusType
	Magnitude float64
	Remaining float64
}

// TransformSchema declares position, rotation and scale. Parent is an opaque
// reference to another entity's handle rather than a pointer to a component,
// since rows move on every Remove/grow and a raw pointer would go stale.
func TransformSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeTransform,
		Fields: []ecs.FieldDesc{
			{Name: FieldX, Kind: ecs.KindF32},
			{Name: FieldY, Kind: ecs.KindF32},
			{Name: FieldRotation, Kind: ecs.KindF32},
			{Name: FieldScaleX, Kind: ecs.KindF32},
			{Name: FieldScaleY, Kind: ecs.KindF32},
			{Name: FieldParent, Kind: ecs.KindOpaqueRef},
		},
	}
}

// PhysicsSchema declares the velocity-integration fields a Movement/Physics
// system pair reads and writes (SPEC_FULL.md §8 scenario S1).
func PhysicsSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypePhysics,
		Fields: []ecs.FieldDesc{
			{Name: FieldVelocityX, Kind: ecs.KindF32},
			{Name: FieldVelocityY, Kind: ecs.KindF32},
			{Name: FieldAccelerationX, Kind: ecs.KindF32},
			{Name: FieldAccelerationY, Kind: ecs.KindF32},
			{Name: FieldMass, Kind: ecs.KindF32},
			{Name: FieldFriction, Kind: ecs.KindF32},
			{Name: FieldGravity, Kind: ecs.KindBool},
			{Name: FieldIsStatic, Kind: ecs.KindBool},
			{Name: FieldMaxSpeed, Kind: ecs.KindF32},
		},
	}
}

// HealthSchema declares hit points, shield and status effects. StatusEffects
// is a []StatusEffect behind an opaque reference; everything else is scalar.
func HealthSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeHealth,
		Fields: []ecs.FieldDesc{
			{Name: FieldCurrentHealth, Kind: ecs.KindI32},
			{Name: FieldMaxHealth, Kind: ecs.KindI32},
			{Name: FieldShield, Kind: ecs.KindI32},
			{Name: FieldIsInvincible, Kind: ecs.KindBool},
			{Name: FieldRegenerationRate, Kind: ecs.KindF32},
			{Name: FieldStatusEffects, Kind: ecs.KindOpaqueRef},
		},
	}
}

// AISchema declares the state machine fields driving AIBehavior systems.
// PatrolPoints is an opaque []ecs.Vector2 reference for the same reason
// Health's status list is: no fixed width.
func AISchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeAI,
		Fields: []ecs.FieldDesc{
			{Name: FieldState, Kind: ecs.KindU8},
			{Name: FieldTarget, Kind: ecs.KindOpaqueRef},
			{Name: FieldPatrolPoints, Kind: ecs.KindOpaqueRef},
			{Name: FieldDetectionRadius, Kind: ecs.KindF32},
			{Name: FieldAttackRange, Kind: ecs.KindF32},
			{Name: FieldSpeed, Kind: ecs.KindF32},
			{Name: FieldBehavior, Kind: ecs.KindU8},
			{Name: FieldCurrentPatrolIndex, Kind: ecs.KindI32},
		},
	}
}

// AudioSchema declares a single emitter's playback and 3D attenuation state.
func AudioSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeAudio,
		Fields: []ecs.FieldDesc{
			{Name: FieldSoundID, Kind: ecs.KindSmallString},
			{Name: FieldVolume, Kind: ecs.KindF32},
			{Name: FieldPitch, Kind: ecs.KindF32},
			{Name: FieldIsPlaying, Kind: ecs.KindBool},
			{Name: FieldIsLoop, Kind: ecs.KindBool},
			{Name: FieldIsPaused, Kind: ecs.KindBool},
			{Name: FieldIs3D, Kind: ecs.KindBool},
			{Name: FieldMaxDistance, Kind: ecs.KindF32},
			{Name: FieldMinDistance, Kind: ecs.KindF32},
			{Name: FieldRolloff, Kind: ecs.KindF32},
			{Name: FieldLowPassFilter, Kind: ecs.KindF32},
			{Name: FieldHighPassFilter, Kind: ecs.KindF32},
			{Name: FieldReverbLevel, Kind: ecs.KindF32},
		},
	}
}

// SpriteSchema declares the render-facing fields. SourceRect and Color are
// split into their scalar components (rect_min_x..rect_max_y, color_r..a)
// rather than kept as ecs.AABB/ecs.Color structs, so every field is a true
// dense column instead of a boxed value re-read on every access.
func SpriteSchema() ecs.Schema {
	return ecs.Schema{
		Name: ecs.ComponentTypeSprite,
		Fields: []ecs.FieldDesc{
			{Name: FieldTextureID, Kind: ecs.KindSmallString},
			{Name: FieldRectMinX, Kind: ecs.KindF32},
			{Name: FieldRectMinY, Kind: ecs.KindF32},
			{Name: FieldRectMaxX, Kind: ecs.KindF32},
			{Name: FieldRectMaxY, Kind: ecs.KindF32},
			{Name: FieldColorR, Kind: ecs.KindU8},
			{Name: FieldColorG, Kind: ecs.KindU8},
			{Name: FieldColorB, Kind: ecs.KindU8},
			{Name: FieldColorA, Kind: ecs.KindU8},
			{Name: FieldZOrder, Kind: ecs.KindI32},
			{Name: FieldVisible, Kind: ecs.KindBool},
			{Name: FieldFlipX, Kind: ecs.KindBool},
			{Name: FieldFlipY, Kind: ecs.KindBool},
		},
	}
}

// RegisterAll registers every built-in schema with world and returns the
// TypeID each was assigned, keyed by ComponentType. Callers that only need a
// subset should call the individual Schema functions and World.RegisterComponent
// directly instead.
func RegisterAll(world *ecs.World) (map[ecs.ComponentType]ecs.TypeID, error) {
	schemas := []ecs.Schema{
		TransformSchema(),
		PhysicsSchema(),
		HealthSchema(),
		AISchema(),
		AudioSchema(),
		SpriteSchema(),
	}
	ids := make(map[ecs.ComponentType]ecs.TypeID, len(schemas))
	for _, schema := range schemas {
		id, err := world.RegisterComponent(schema)
		if err != nil {
			return nil, err
		}
		ids[schema.Name] = id
	}
	return ids, nil
}
