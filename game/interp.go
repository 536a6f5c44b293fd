package game

import (
	"math"

	"arenacore/geom"
)

const (
	DefaultInterpRate = 15.0 // blend rate per second
	DefaultInterpLead = 2.0  // velocity lead in ticks
)

// Interpolator smooths a remote entity's ~30 Hz snapshots into per-frame
// motion. The target is the last network value; the rendered state chases
// a velocity-extrapolated version of it.
type Interpolator struct {
	Rate float64
	Lead float64

	targetPos, targetRot, targetVel geom.Vec3
	pos, rot, vel                   geom.Vec3
	primed                          bool
}

// NewInterpolator creates an interpolator. A non-positive rate or negative
// lead falls back to the defaults.
func NewInterpolator(rate, lead float64) *Interpolator {
	if rate <= 0 {
		rate = DefaultInterpRate
	}
	if lead < 0 {
		lead = DefaultInterpLead
	}
	return &Interpolator{Rate: rate, Lead: lead}
}

// SetTarget records a new snapshot. The first one snaps the rendered state.
func (in *Interpolator) SetTarget(pos, rot, vel geom.Vec3) {
	in.targetPos, in.targetRot, in.targetVel = pos, rot, vel
	if !in.primed {
		in.pos, in.rot, in.vel = pos, rot, vel
		in.primed = true
	}
}

// Snap jumps straight to pos with no velocity, used on respawn
func (in *Interpolator) Snap(pos geom.Vec3) {
	in.targetPos, in.pos = pos, pos
	in.targetVel, in.vel = geom.Vec3{}, geom.Vec3{}
	in.primed = true
}

// Step advances the rendered state by dt seconds
func (in *Interpolator) Step(dt float64) {
	if !in.primed || dt <= 0 {
		return
	}
	predicted := in.targetPos.Add(in.targetVel.Scale(dt * in.Lead))
	f := math.Min(1, in.Rate*dt)

	in.pos = in.pos.Lerp(predicted, f)
	in.vel = in.vel.Lerp(in.targetVel, f)
	for i := 0; i < 3; i++ {
		in.rot[i] = geom.LerpAngle(in.rot[i], in.targetRot[i], f)
	}
}

func (in *Interpolator) Position() geom.Vec3 { return in.pos }
func (in *Interpolator) Rotation() geom.Vec3 { return in.rot }
func (in *Interpolator) Velocity() geom.Vec3 { return in.vel }
func (in *Interpolator) Target() geom.Vec3   { return in.targetPos }
