package main

import (
	"math"
	"time"
)

const (
	SphereRadius   = 4.0
	SphereRadiusSq = SphereRadius * SphereRadius
	GroundEpsilon  = 0.02 // slack on the grounded test, squared world units

	MoveSpeed      = 5.0  // world units/s along the surface
	TurnSpeed      = 0.75 // half-turns/s
	Gravity        = -75.0
	JumpVelocity   = 16.0
	FuelMax        = 100.0
	FuelUsage      = 100.0     // per second while hovering
	FuelRegen      = 1.0 / 3.0 // per second while grounded
	DashSpeedMul   = 2.0
	DashLength     = 700 * time.Millisecond
	DashCooldown   = 4 * time.Second
	PlayerRadius   = 0.18
	TrailRadius    = 0.2
	TrailSpawnDist = TrailRadius / 2
	TrailHalfLen   = TrailSpawnDist / 2
	KillDistance   = TrailRadius + PlayerRadius

	RoundEndDelay = 750 * time.Millisecond

	MinPlayers = 2
	MaxPlayers = 6
)

// DefaultMinTrailLife is how long a segment must exist before it can kill.
const DefaultMinTrailLife = 70 * time.Millisecond

// Tuning holds the parameters that differ between builds of the game.
// It travels inside SimState so a restored snapshot replays with the same rules.
type Tuning struct {
	MinTrailLife time.Duration `msgpack:"mtl"`
	// FuelFloor drains the last hover step down to exactly zero. When false
	// a drain that would go negative is skipped, leaving the residue in the
	// tank, and hovering stops.
	FuelFloor bool `msgpack:"ff"`
}

// DefaultTuning returns the canonical rules.
func DefaultTuning() Tuning {
	return Tuning{
		MinTrailLife: DefaultMinTrailLife,
		FuelFloor:    true,
	}
}

// turnAngle is the yaw applied for one step of held left/right input.
func turnAngle(dt float64) float64 {
	return math.Pi * TurnSpeed * dt
}
