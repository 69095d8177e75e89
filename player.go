package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Player is one seat's avatar on the sphere.
type Player struct {
	Handle       int        `msgpack:"h"`
	Alive        bool       `msgpack:"a"`
	Position     mgl64.Vec3 `msgpack:"p"`
	Rotation     mgl64.Quat `msgpack:"r"`
	VerticalVel  float64    `msgpack:"vv"`
	Fuel         float64    `msgpack:"fu"`
	Hovering     bool       `msgpack:"ho"`
	Dashing      Timer      `msgpack:"ds"`
	DashCooldown Timer      `msgpack:"dc"`
	LastTrailPos mgl64.Vec3 `msgpack:"lp"`
	LastTrail    int        `msgpack:"lt"` // index into SimState.Trails, -1 for none
}

// spawnSlot is a fixed start on the sphere, one per handle.
type spawnSlot struct {
	pos     mgl64.Vec3
	forward mgl64.Vec3
}

var spawnSlots = [MaxPlayers]spawnSlot{
	{mgl64.Vec3{0, SphereRadius, 0}, mgl64.Vec3{1, 0, 0}},
	{mgl64.Vec3{0, -SphereRadius, 0}, mgl64.Vec3{-1, 0, 0}},
	{mgl64.Vec3{SphereRadius, 0, 0}, mgl64.Vec3{0, -1, 0}},
	{mgl64.Vec3{-SphereRadius, 0, 0}, mgl64.Vec3{0, 1, 0}},
	{mgl64.Vec3{0, 0, SphereRadius}, mgl64.Vec3{1, 0, 0}},
	{mgl64.Vec3{0, 0, -SphereRadius}, mgl64.Vec3{-1, 0, 0}},
}

// NewPlayer places handle on its spawn slot, grounded, with a full tank and
// both dash timers ready.
func NewPlayer(handle int) Player {
	slot := spawnSlots[handle]
	up, _ := NormalizeOrZero(slot.pos)
	rot, _ := LookTo(slot.forward, up)

	dashing := NewTimer(DashLength)
	dashing.Finish()
	cooldown := NewTimer(DashCooldown)
	cooldown.Finish()

	return Player{
		Handle:       handle,
		Alive:        true,
		Position:     slot.pos,
		Rotation:     rot,
		Fuel:         FuelMax,
		Dashing:      dashing,
		DashCooldown: cooldown,
		LastTrailPos: slot.pos,
		LastTrail:    -1,
	}
}

// Grounded reports whether the player touches the surface.
func (p *Player) Grounded() bool {
	return IsGrounded(p.Position)
}

// IsDashing reports whether a dash is in progress.
func (p *Player) IsDashing() bool {
	return !p.Dashing.Finished
}

// Update integrates one step of locomotion for a live player.
func (p *Player) Update(in Input, dt time.Duration, tuning Tuning) {
	secs := dt.Seconds()

	p.Dashing.Tick(dt)
	p.DashCooldown.Tick(dt)

	grounded := p.Grounded()
	if in.Dash() && p.Dashing.Finished && p.DashCooldown.Finished && grounded {
		p.Dashing.Reset()
		p.DashCooldown.Reset()
	}

	// Jumping cancels a dash but leaves the cooldown ready.
	if in.Jump() && grounded {
		p.VerticalVel = JumpVelocity
		p.Dashing.Finish()
		p.DashCooldown.Finish()
	}

	gravityStep := Gravity * secs
	if in.Jump() && !grounded && !p.Hovering &&
		!math.Signbit(p.VerticalVel) && math.Signbit(p.VerticalVel+gravityStep) {
		p.Hovering = true
	}

	if p.Hovering && in.Jump() {
		if !p.drainFuel(FuelUsage*secs, tuning) {
			p.Hovering = false
		}
	}
	if p.Hovering && (!in.Jump() || p.Fuel <= 0) {
		p.Hovering = false
	}

	if !p.Hovering && (!grounded || p.VerticalVel != 0) {
		p.VerticalVel += gravityStep
	} else {
		p.VerticalVel = 0
	}

	if in.Left() {
		p.Rotation = p.Rotation.Mul(mgl64.QuatRotate(turnAngle(secs), axisUp))
	}
	if in.Right() {
		p.Rotation = p.Rotation.Mul(mgl64.QuatRotate(-turnAngle(secs), axisUp))
	}

	up := p.move(secs)

	if p.Grounded() && p.Fuel < FuelMax {
		p.Fuel = math.Min(FuelMax, p.Fuel+FuelRegen*secs)
	}

	if p.Position.LenSqr() < SphereRadiusSq {
		p.Position = up.Mul(SphereRadius)
		p.VerticalVel = 0
	}
}

// move rolls the player forward along the great circle it faces, keeps its
// heading tangent to the new surface point and applies the vertical step.
// It returns the surface normal under the player after the roll.
func (p *Player) move(secs float64) mgl64.Vec3 {
	speed := MoveSpeed
	if p.IsDashing() {
		speed *= DashSpeedMul
	}
	angle := speed * secs / SphereRadius

	forward := Forward(p.Rotation)
	delta := mgl64.QuatRotate(-angle, Right(p.Rotation))

	pos := delta.Rotate(p.Position)
	up, ok := NormalizeOrZero(pos)
	if !ok {
		up = Up(p.Rotation)
	}
	if rot, ok := LookTo(delta.Rotate(forward), up); ok {
		p.Rotation = rot
	}

	p.Position = pos.Add(up.Mul(p.VerticalVel * secs))
	return up
}

// drainFuel takes amount from the tank. It reports false when the tank could
// not cover the drain and hovering must stop.
func (p *Player) drainFuel(amount float64, tuning Tuning) bool {
	if p.Fuel-amount >= 0 {
		p.Fuel -= amount
		return true
	}
	if tuning.FuelFloor {
		p.Fuel = 0
	}
	return false
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	return PlayerState{
		H:     p.Handle,
		Alive: p.Alive,
		P:     vec32(p.Position),
		R:     quat32(p.Rotation),
		Fuel:  float32(p.Fuel),
		Hover: p.Hovering,
		Dash:  p.IsDashing(),
	}
}

