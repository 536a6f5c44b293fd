package game

import (
	"math"

	"arenacore/geom"
)

// SplashFactor scales a weapon's direct damage into its splash peak
const SplashFactor = 0.5

// Target is a hittable entity as the simulation sees it for one tick
type Target struct {
	ID       int
	Position geom.Vec3
	Radius   float64
	Alive    bool
}

// HitEvent is one damage application waiting for the combat pipeline
type HitEvent struct {
	ID         uint64 // idempotency key, unique per Simulation
	TargetID   int
	AttackerID int
	Damage     int
	Weapon     string
	Position   geom.Vec3
	Splash     bool
}

// Impact is a presentation event for a projectile that stopped
type Impact struct {
	ProjectileID int
	OwnerID      int
	Weapon       string
	Position     geom.Vec3
	TargetID     int  // -1 when a wall or obstacle was hit
	Obstacle     bool // obstacle or arena bounds
}

// SplashDamage falls off linearly from base*SplashFactor at the impact
// point to zero at radius.
func SplashDamage(base int, dist, radius float64) int {
	if radius <= 0 || dist >= radius {
		return 0
	}
	return int(math.Round(float64(base) * SplashFactor * (1 - dist/radius)))
}

// SplashHits returns every living target other than owner and skip that
// takes non-zero damage from an explosion at center.
func SplashHits(center geom.Vec3, w *Weapon, owner, skip int, targets []Target) []Target {
	var out []Target
	for _, t := range targets {
		if !t.Alive || t.ID == owner || t.ID == skip {
			continue
		}
		if SplashDamage(w.Damage, geom.Dist(center, t.Position), w.SplashRadius) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// directTarget finds the target a projectile moving from prev to its
// current position touched, nearest to prev first.
func directTarget(p *Projectile, prev geom.Vec3, targets []Target) (Target, bool) {
	var (
		best     Target
		found    bool
		bestDist float64
	)
	for _, t := range targets {
		if !t.Alive || t.ID == p.OwnerID {
			continue
		}
		r := t.Radius + p.Weapon.HitBonus
		if !geom.SpheresTouch(p.Position, t.Position, r) && !geom.SegmentHitsSphere(prev, p.Position, t.Position, r) {
			continue
		}
		d := geom.DistSq(prev, t.Position)
		if !found || d < bestDist {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}
