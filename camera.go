package main

import "github.com/go-gl/mathgl/mgl64"

const (
	CameraBack   = 8.0
	CameraHeight = 8.0
)

// CameraPose is where a client should place its camera. It is never fed back
// into the simulation.
type CameraPose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// FollowCamera places the camera behind and above p, looking at it with the
// local surface normal as up.
func FollowCamera(p *PlayerView) CameraPose {
	up, ok := NormalizeOrZero(p.Position)
	if !ok {
		up = axisUp
	}
	pos := p.Position.
		Sub(Forward(p.Rotation).Mul(CameraBack)).
		Add(up.Mul(CameraHeight))
	rot, ok := LookTo(p.Position.Sub(pos), up)
	if !ok {
		rot = p.Rotation
	}
	return CameraPose{Position: pos, Rotation: rot}
}

// ToState converts to protocol state
func (c CameraPose) ToState() CameraState {
	return CameraState{
		P: vec32(c.Position),
		R: quat32(c.Rotation),
	}
}
