package game

import (
	"arenacore/geom"
	"arenacore/protocol"
)

// respawnEpsilon absorbs float drift from summing dt
const respawnEpsilon = 1e-9

// Roster gives the pipeline access to authoritative players
type Roster interface {
	Player(id int) (*Player, bool)
	EachPlayer(fn func(*Player)) // ascending id order
}

// Spawner picks respawn positions
type Spawner interface {
	SpawnPoint() geom.Vec3
}

// Outcome is one applied HitEvent, ready to broadcast
type Outcome struct {
	Event  HitEvent
	Hit    protocol.Hit
	Killed bool
}

// Combat turns HitEvents into damage, deaths and respawns
type Combat struct {
	RespawnDelay float64
	consumed     *EventSet
}

// NewCombat creates a pipeline with the given respawn delay in seconds
func NewCombat(respawnDelay float64) *Combat {
	if respawnDelay <= 0 {
		respawnDelay = RespawnDelay
	}
	return &Combat{
		RespawnDelay: respawnDelay,
		consumed:     NewEventSet(),
	}
}

// Apply consumes each event exactly once. Events for unknown or dead
// targets are skipped.
func (c *Combat) Apply(events []HitEvent, r Roster) []Outcome {
	var out []Outcome
	for _, ev := range events {
		if !c.consumed.Consume(ev.ID) {
			continue
		}
		target, ok := r.Player(ev.TargetID)
		if !ok || !target.Alive() {
			continue
		}
		killed := target.TakeDamage(ev.Damage, c.RespawnDelay)
		if killed {
			target.Deaths++
			if ev.AttackerID != ev.TargetID {
				if attacker, ok := r.Player(ev.AttackerID); ok {
					attacker.Kills++
				}
			}
		}
		out = append(out, Outcome{
			Event: ev,
			Hit: protocol.Hit{
				TargetID:   ev.TargetID,
				AttackerID: ev.AttackerID,
				Damage:     ev.Damage,
				Weapon:     ev.Weapon,
				Event:      ev.ID,
				Killed:     killed,
			},
			Killed: killed,
		})
	}
	return out
}

// Tick counts down every dead player and respawns the ones whose timer ran
// out.
func (c *Combat) Tick(dt float64, r Roster, sp Spawner) []protocol.Respawn {
	var out []protocol.Respawn
	r.EachPlayer(func(p *Player) {
		if p.Alive() {
			return
		}
		p.RespawnT -= dt
		if p.RespawnT > respawnEpsilon {
			return
		}
		p.Respawn(sp.SpawnPoint())
		out = append(out, protocol.Respawn{PlayerID: p.ID(), Position: p.State.Position})
	})
	return out
}
