package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Local axes. Forward is -Z and up is +Y, the same convention the client
// renderer uses for models and cameras.
var (
	axisRight   = mgl64.Vec3{1, 0, 0}
	axisUp      = mgl64.Vec3{0, 1, 0}
	axisForward = mgl64.Vec3{0, 0, -1}
)

// Forward returns the local -Z axis of rotation q in world space.
func Forward(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(axisForward) }

// Right returns the local +X axis of rotation q in world space.
func Right(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(axisRight) }

// Up returns the local +Y axis of rotation q in world space.
func Up(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(axisUp) }

// NormalizeOrZero returns v scaled to unit length, or false when v has no
// usable direction.
func NormalizeOrZero(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l == 0 || math.IsInf(l, 0) || math.IsNaN(l) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// IsGrounded reports whether pos lies on the sphere surface within tolerance.
func IsGrounded(pos mgl64.Vec3) bool {
	return pos.LenSqr() <= SphereRadiusSq+GroundEpsilon
}

// SnapToSurface projects pos radially onto the sphere. A position at the
// centre has no direction and is returned unchanged.
func SnapToSurface(pos mgl64.Vec3) (mgl64.Vec3, bool) {
	dir, ok := NormalizeOrZero(pos)
	if !ok {
		return pos, false
	}
	return dir.Mul(SphereRadius), true
}

// LookTo builds the rotation whose forward axis points along dir and whose up
// axis is as close to up as possible. It returns false, and no rotation, when
// dir is zero.
func LookTo(dir, up mgl64.Vec3) (mgl64.Quat, bool) {
	fwd, ok := NormalizeOrZero(dir)
	if !ok {
		return mgl64.QuatIdent(), false
	}
	back := fwd.Mul(-1)
	upDir, ok := NormalizeOrZero(up)
	if !ok {
		upDir = axisUp
	}
	right, ok := NormalizeOrZero(upDir.Cross(back))
	if !ok {
		right = anyOrthonormal(upDir)
	}
	trueUp := back.Cross(right)
	m := mgl64.Mat3FromCols(right, trueUp, back)
	return mgl64.Mat4ToQuat(m.Mat4()).Normalize(), true
}

// anyOrthonormal picks a unit vector perpendicular to the unit vector v
// without branching on which axis v is closest to.
func anyOrthonormal(v mgl64.Vec3) mgl64.Vec3 {
	sign := math.Copysign(1, v.Z())
	a := -1 / (sign + v.Z())
	b := v.X() * v.Y() * a
	return mgl64.Vec3{b, sign + v.Y()*v.Y()*a, -v.Y()}
}

// DistToSegment returns the distance from p to the closest point of [a, b].
func DistToSegment(p, a, b mgl64.Vec3) float64 {
	v := b.Sub(a)
	w := p.Sub(a)
	c1 := w.Dot(v)
	if c1 <= 0 {
		return p.Sub(a).Len()
	}
	c2 := v.Dot(v)
	if c2 <= c1 {
		return p.Sub(b).Len()
	}
	t := c1 / c2
	pb := a.Add(v.Mul(t))
	return p.Sub(pb).Len()
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func finiteQuat(q mgl64.Quat) bool {
	return !math.IsNaN(q.W) && !math.IsInf(q.W, 0) && finiteVec(q.V)
}
