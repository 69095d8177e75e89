package main

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// TrailSegment is a short capsule a player leaves behind. Its long axis is
// the local +Y of Rotation and it spans TrailHalfLen either side of Position.
type TrailSegment struct {
	Owner     int           `msgpack:"o"`
	Position  mgl64.Vec3    `msgpack:"p"`
	Rotation  mgl64.Quat    `msgpack:"r"`
	CreatedAt time.Duration `msgpack:"t"`
}

// Endpoints returns the two ends of the segment's axis.
func (t *TrailSegment) Endpoints() (mgl64.Vec3, mgl64.Vec3) {
	axis := t.Rotation.Rotate(axisUp).Mul(TrailHalfLen)
	return t.Position.Sub(axis), t.Position.Add(axis)
}

// Age is how long the segment has existed at sim time now.
func (t *TrailSegment) Age(now time.Duration) time.Duration {
	return now - t.CreatedAt
}

// ToState converts to protocol state
func (t *TrailSegment) ToState() TrailState {
	return TrailState{
		O: t.Owner,
		P: vec32(t.Position),
		R: quat32(t.Rotation),
	}
}

// emitTrail drops a segment behind p once it has travelled far enough from
// the previous drop point. The new segment joins the grid and becomes the
// player's own most recent segment.
func (s *SimState) emitTrail(p *Player) {
	delta := p.Position.Sub(p.LastTrailPos)
	if delta.Len() <= TrailSpawnDist {
		return
	}

	mid := p.LastTrailPos.Add(delta.Mul(0.5))
	seg := TrailSegment{
		Owner:     p.Handle,
		Position:  mid.Add(Up(p.Rotation).Mul(TrailRadius)),
		Rotation:  mgl64.QuatIdent(),
		CreatedAt: s.Time,
	}
	if dir, ok := NormalizeOrZero(delta); ok {
		seg.Rotation = mgl64.QuatBetweenVectors(axisUp, dir)
	}

	idx := len(s.Trails)
	s.Trails = append(s.Trails, seg)
	s.grid.Insert(seg.Position, idx)

	p.LastTrailPos = p.Position
	p.LastTrail = idx
}
