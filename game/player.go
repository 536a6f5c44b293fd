package game

import (
	"arenacore/geom"
	"arenacore/protocol"
)

const (
	PlayerMaxHealth = 100
	PlayerRadius    = 1.5 // collision sphere for projectile tests
	HostID          = 0   // the host always plays as id 0
	RespawnDelay    = 3.0 // seconds
)

// Player is the host's authoritative record for one participant
type Player struct {
	State    protocol.PlayerState
	Kills    int
	Deaths   int
	RespawnT float64 // countdown while dead
}

// NewPlayer creates a live player at pos
func NewPlayer(id int, pos geom.Vec3) *Player {
	return &Player{
		State: protocol.PlayerState{
			PlayerID: id,
			Position: pos,
			Health:   PlayerMaxHealth,
			IsAlive:  true,
		},
	}
}

func (p *Player) ID() int     { return p.State.PlayerID }
func (p *Player) Alive() bool { return p.State.IsAlive }
func (p *Player) Health() int { return p.State.Health }

// TakeDamage subtracts dmg, clamps health to [0, PlayerMaxHealth] and
// returns true if this hit killed the player.
func (p *Player) TakeDamage(dmg int, respawnDelay float64) bool {
	if !p.State.IsAlive {
		return false
	}
	p.State.Health = clampHealth(p.State.Health - dmg)
	if p.State.Health == 0 {
		p.State.IsAlive = false
		p.State.Velocity = geom.Vec3{}
		p.RespawnT = respawnDelay
		return true
	}
	return false
}

// Respawn brings a dead player back at pos
func (p *Player) Respawn(pos geom.Vec3) {
	p.State.Position = pos
	p.State.Velocity = geom.Vec3{}
	p.State.Health = PlayerMaxHealth
	p.State.IsAlive = true
	p.RespawnT = 0
}

// ApplyMovement copies the owner-controlled fields of s. Health and the
// alive flag stay with the combat pipeline.
func (p *Player) ApplyMovement(s protocol.PlayerState) {
	p.State.Position = s.Position
	p.State.Rotation = s.Rotation
	p.State.Velocity = s.Velocity
}

// Score returns the kill/death counters in wire form
func (p *Player) Score() protocol.Score {
	return protocol.Score{PlayerID: p.State.PlayerID, Kills: p.Kills, Deaths: p.Deaths}
}

func clampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > PlayerMaxHealth {
		return PlayerMaxHealth
	}
	return h
}

// ApplyHitLocally is what a client does with a Hit aimed at itself: it only
// mirrors the host's decision onto its own state.
func ApplyHitLocally(s *protocol.PlayerState, damage int) bool {
	if !s.IsAlive {
		return false
	}
	s.Health = clampHealth(s.Health - damage)
	if s.Health == 0 {
		s.IsAlive = false
		return true
	}
	return false
}
