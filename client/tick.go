package client

import (
	"log"
	"time"

	"arenacore/game"
	"arenacore/geom"
	"arenacore/protocol"
)

// Tick applies everything the host sent since the last call, advances
// interpolation and presentation projectiles, and sends the local state
// and heartbeat when they are due.
func (c *Client) Tick(dt float64) Update {
	var up Update
	pkts := append(c.pending, c.inbox.Drain()...)
	c.pending = nil
	for _, pkt := range pkts {
		if !sameAddr(pkt.From, c.server) {
			continue
		}
		if c.apply(pkt.Msg) {
			up.Messages = append(up.Messages, pkt.Msg)
		}
	}

	for name, cd := range c.cooldowns {
		if cd -= dt; cd <= 0 {
			delete(c.cooldowns, name)
		} else {
			c.cooldowns[name] = cd
		}
	}
	for _, r := range c.remotes {
		r.interp.Step(dt)
	}
	// hits are the host's call; locally only impacts matter
	_, up.Impacts = c.sim.Step(dt, c.targets())

	c.sendAcc += dt
	if c.sendAcc >= 1/float64(c.opts.SendHz) {
		c.sendAcc = 0
		c.seq++
		c.conn.Send(c.server, protocol.StateUpdate{PlayerState: c.local, Seq: c.seq})
	}
	c.beatAcc += dt
	if c.beatAcc >= c.opts.HeartbeatEvery.Seconds() {
		c.beatAcc = 0
		c.conn.Send(c.server, protocol.Heartbeat{Sent: time.Now().UnixNano()})
	}
	return up
}

// apply folds one host message into the local view and reports whether it
// is worth surfacing to presentation.
func (c *Client) apply(msg protocol.Message) bool {
	switch m := msg.(type) {
	case protocol.Join:
		if m.PlayerID == c.id {
			return false
		}
		if _, ok := c.remotes[m.PlayerID]; !ok {
			c.upsert(protocol.PlayerState{PlayerID: m.PlayerID, Health: game.PlayerMaxHealth, IsAlive: true})
		}
	case protocol.Leave:
		if m.PlayerID == c.id {
			log.Printf("client: host dropped us")
			return true
		}
		delete(c.remotes, m.PlayerID)
	case protocol.GameState:
		c.applyGameState(m)
	case protocol.StateUpdate:
		if m.PlayerID == c.id {
			c.repair(m.PlayerState)
			return false
		}
		c.upsert(m.PlayerState)
	case protocol.ProjectileSpawn:
		if m.OwnerID == c.id {
			return false
		}
		w, err := c.opts.Armory.Lookup(m.Weapon)
		if err != nil {
			log.Printf("client: spawn from player %d: %v", m.OwnerID, err)
			return false
		}
		c.sim.Spawn(m.ProjectileID, m.OwnerID, w, m.Position, m.Direction)
	case protocol.Hit:
		if m.Event != 0 && !c.hits.Consume(m.Event) {
			return false
		}
		if m.TargetID == c.id {
			game.ApplyHitLocally(&c.local, m.Damage)
			if !c.local.IsAlive {
				c.local.Velocity = geom.Vec3{}
			}
		}
	case protocol.Respawn:
		if m.PlayerID == c.id {
			c.local.Position = m.Position
			c.local.Velocity = geom.Vec3{}
			c.local.Health = game.PlayerMaxHealth
			c.local.IsAlive = true
			return true
		}
		r, ok := c.remotes[m.PlayerID]
		if !ok {
			r = c.upsert(protocol.PlayerState{PlayerID: m.PlayerID})
		}
		r.state.Position = m.Position
		r.state.Velocity = geom.Vec3{}
		r.state.Health = game.PlayerMaxHealth
		r.state.IsAlive = true
		r.interp.Snap(m.Position)
	case protocol.HeartbeatAck:
		if m.Sent != 0 {
			c.rtt = time.Since(time.Unix(0, m.Sent))
		}
		return false
	default:
		// JoinAck repeats, JoinReject and peer-bound kinds
		return false
	}
	return true
}

// applyGameState treats the batch as the full roster: unknown ids are
// added and mirrors the host no longer lists are dropped.
func (c *Client) applyGameState(gs protocol.GameState) {
	listed := make(map[int]bool, len(gs.Players))
	for _, ps := range gs.Players {
		listed[ps.PlayerID] = true
		if ps.PlayerID == c.id {
			c.repair(ps)
			continue
		}
		c.upsert(ps)
	}
	for id := range c.remotes {
		if !listed[id] {
			delete(c.remotes, id)
		}
	}
	if gs.Scores != nil {
		c.scores = gs.Scores
	}
}

// repair copies the host's verdict on our own health and alive flag. The
// transform stays ours.
func (c *Client) repair(ps protocol.PlayerState) {
	c.local.Health = ps.Health
	c.local.IsAlive = ps.IsAlive
}

func (c *Client) upsert(ps protocol.PlayerState) *remote {
	r, ok := c.remotes[ps.PlayerID]
	if !ok {
		r = &remote{interp: game.NewInterpolator(c.opts.InterpRate, c.opts.InterpLead)}
		c.remotes[ps.PlayerID] = r
	}
	r.state = ps
	r.interp.SetTarget(ps.Position, ps.Rotation, ps.Velocity)
	return r
}

// targets feeds the presentation simulation, ourselves included so remote
// shots stop on us.
func (c *Client) targets() []game.Target {
	out := make([]game.Target, 0, len(c.remotes)+1)
	out = append(out, game.Target{ID: c.id, Position: c.local.Position, Radius: game.PlayerRadius, Alive: c.local.IsAlive})
	for id, r := range c.remotes {
		out = append(out, game.Target{ID: id, Position: r.interp.Position(), Radius: game.PlayerRadius, Alive: r.state.IsAlive})
	}
	return out
}
