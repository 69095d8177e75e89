package main

// gridQueryRadius bounds how far a segment centre can be from a player the
// segment still kills.
const gridQueryRadius = TrailHalfLen + KillDistance

// SegmentHitsPlayer checks if the capsule of seg touches a player at the
// given position
func SegmentHitsPlayer(seg *TrailSegment, p *Player) bool {
	a, b := seg.Endpoints()
	return DistToSegment(p.Position, a, b) < KillDistance
}

// canKill reports whether seg is armed against p at sim time now. A fresh
// segment is harmless for MinTrailLife, and a player's own latest segment
// never hits them.
func (s *SimState) canKill(idx int, p *Player) bool {
	seg := &s.Trails[idx]
	if seg.Age(s.Time) < s.Tuning.MinTrailLife {
		return false
	}
	return !(seg.Owner == p.Handle && p.LastTrail == idx)
}

// checkEliminations kills every live player touching an armed segment and
// pushes each newly dead handle onto the death stack, in handle order.
func (s *SimState) checkEliminations() {
	for i := range s.Players {
		p := &s.Players[i]
		if !p.Alive {
			continue
		}
		s.queryBuf = s.grid.QueryBuf(p.Position, gridQueryRadius, s.queryBuf[:0])
		for _, idx := range s.queryBuf {
			if !s.canKill(idx, p) {
				continue
			}
			if SegmentHitsPlayer(&s.Trails[idx], p) {
				p.Alive = false
				s.DeathStack = append(s.DeathStack, p.Handle)
				break
			}
		}
	}
}
