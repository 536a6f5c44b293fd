package game

import (
	"arenacore/geom"
)

// Projectile is one locally simulated shot. Every process keeps its own
// copy; only the host's copy produces damage.
type Projectile struct {
	ID        int
	OwnerID   int
	Weapon    *Weapon
	Position  geom.Vec3
	Direction geom.Vec3 // unit
	Elapsed   float64
	Impacted  bool
}

type projKey struct {
	owner, id int
}

// Simulation advances projectiles and reports what they hit
type Simulation struct {
	arena     *Arena
	list      []*Projectile
	index     map[projKey]*Projectile
	lastEvent uint64
}

// NewSimulation creates an empty simulation inside arena. A nil arena
// means no walls and no obstacles.
func NewSimulation(arena *Arena) *Simulation {
	return &Simulation{
		arena: arena,
		index: make(map[projKey]*Projectile),
	}
}

// Spawn adds a projectile. It returns false if (owner, id) is already in
// flight.
func (s *Simulation) Spawn(id, owner int, w *Weapon, pos, dir geom.Vec3) (*Projectile, bool) {
	k := projKey{owner, id}
	if _, dup := s.index[k]; dup {
		return nil, false
	}
	p := &Projectile{
		ID:        id,
		OwnerID:   owner,
		Weapon:    w,
		Position:  pos,
		Direction: dir.Normalize(),
	}
	s.index[k] = p
	s.list = append(s.list, p)
	return p, true
}

// Remove drops a projectile without reporting anything
func (s *Simulation) Remove(owner, id int) {
	k := projKey{owner, id}
	if _, ok := s.index[k]; !ok {
		return
	}
	delete(s.index, k)
	for i, p := range s.list {
		if p.OwnerID == owner && p.ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return
		}
	}
}

// Get returns an in-flight projectile
func (s *Simulation) Get(owner, id int) (*Projectile, bool) {
	p, ok := s.index[projKey{owner, id}]
	return p, ok
}

func (s *Simulation) Len() int {
	return len(s.list)
}

// Each calls fn for every projectile in spawn order
func (s *Simulation) Each(fn func(*Projectile)) {
	for _, p := range s.list {
		fn(p)
	}
}

// Step moves every projectile by dt and runs the obstacle test, then the
// entity test. Projectiles that impacted on the previous step are removed
// first; an impacting projectile stays frozen for one step so presentation
// can see where it stopped. A step that carries a projectile clean through
// an obstacle stops it at the face it entered, and only targets on the path
// up to that face can be hit.
func (s *Simulation) Step(dt float64, targets []Target) ([]HitEvent, []Impact) {
	var (
		hits    []HitEvent
		impacts []Impact
	)
	live := s.list[:0]
	for _, p := range s.list {
		if p.Impacted {
			delete(s.index, projKey{p.OwnerID, p.ID})
			continue
		}
		prev := p.Position
		p.Position = p.Position.Add(p.Direction.Scale(p.Weapon.Speed * dt))
		p.Elapsed += dt

		blocked := s.hitsWorld(p)
		if !blocked {
			if at, ok := s.crossed(prev, p); ok {
				p.Position = at
				blocked = true
				if t, ok := directTarget(p, prev, targets); ok {
					h, im := s.direct(p, t, targets)
					hits, impacts = append(hits, h...), append(impacts, im)
					live = append(live, p)
					continue
				}
			}
		}
		if blocked {
			p.Impacted = true
			impacts = append(impacts, Impact{
				ProjectileID: p.ID, OwnerID: p.OwnerID, Weapon: p.Weapon.Name,
				Position: p.Position, TargetID: -1, Obstacle: true,
			})
			if p.Weapon.Splash {
				hits = append(hits, s.splash(p, -1, targets)...)
			}
			live = append(live, p)
			continue
		}

		if t, ok := directTarget(p, prev, targets); ok {
			h, im := s.direct(p, t, targets)
			hits, impacts = append(hits, h...), append(impacts, im)
			live = append(live, p)
			continue
		}

		if p.Elapsed > p.Weapon.Lifetime {
			delete(s.index, projKey{p.OwnerID, p.ID})
			continue
		}
		live = append(live, p)
	}
	for i := len(live); i < len(s.list); i++ {
		s.list[i] = nil
	}
	s.list = live
	return hits, impacts
}

// direct flags p as having struck t and returns the direct hit, any splash
// and the impact
func (s *Simulation) direct(p *Projectile, t Target, targets []Target) ([]HitEvent, Impact) {
	p.Impacted = true
	hits := []HitEvent{s.event(p, t.ID, p.Weapon.Damage, false)}
	if p.Weapon.Splash {
		hits = append(hits, s.splash(p, t.ID, targets)...)
	}
	return hits, Impact{
		ProjectileID: p.ID, OwnerID: p.OwnerID, Weapon: p.Weapon.Name,
		Position: p.Position, TargetID: t.ID,
	}
}

// crossed reports where the path from prev to p's position first enters an
// obstacle, for steps whose endpoint ended up clear of it
func (s *Simulation) crossed(prev geom.Vec3, p *Projectile) (geom.Vec3, bool) {
	if s.arena == nil {
		return geom.Vec3{}, false
	}
	_, frac, ok := s.arena.Obstacles.SegmentHit(prev, p.Position, p.Weapon.Radius)
	if !ok {
		return geom.Vec3{}, false
	}
	return prev.Lerp(p.Position, frac), true
}

func (s *Simulation) hitsWorld(p *Projectile) bool {
	if s.arena == nil {
		return false
	}
	if !s.arena.Contains(p.Position) {
		return true
	}
	_, hit := s.arena.Obstacles.SphereHit(p.Position, p.Weapon.Radius)
	return hit
}

func (s *Simulation) splash(p *Projectile, skip int, targets []Target) []HitEvent {
	var out []HitEvent
	for _, t := range SplashHits(p.Position, p.Weapon, p.OwnerID, skip, targets) {
		dmg := SplashDamage(p.Weapon.Damage, geom.Dist(p.Position, t.Position), p.Weapon.SplashRadius)
		out = append(out, s.event(p, t.ID, dmg, true))
	}
	return out
}

func (s *Simulation) event(p *Projectile, target, dmg int, splash bool) HitEvent {
	s.lastEvent++
	return HitEvent{
		ID:         s.lastEvent,
		TargetID:   target,
		AttackerID: p.OwnerID,
		Damage:     dmg,
		Weapon:     p.Weapon.Name,
		Position:   p.Position,
		Splash:     splash,
	}
}
