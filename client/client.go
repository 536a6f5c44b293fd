// Package client joins a host over UDP and keeps a local view of the match:
// its own player, interpolated mirrors of everyone else and presentation
// copies of projectiles in flight.
package client

import (
	"context"
	"log"
	"net"
	"sort"
	"time"

	"github.com/pkg/errors"

	"arenacore/game"
	"arenacore/geom"
	"arenacore/protocol"
	"arenacore/transport"
)

var (
	ErrJoinTimeout  = errors.New("join timed out")
	ErrJoinRejected = errors.New("join rejected")
	ErrDead         = errors.New("player is dead")
	ErrCooldown     = errors.New("weapon is cooling down")
)

// Remote is the client's view of another player
type Remote struct {
	State    protocol.PlayerState // last network value; health is informational
	Position geom.Vec3            // rendered
	Rotation geom.Vec3
	Velocity geom.Vec3
}

type remote struct {
	state  protocol.PlayerState
	interp *game.Interpolator
}

// Update is what one Tick produced for presentation
type Update struct {
	Messages []protocol.Message
	Impacts  []game.Impact
}

// Client is a joined peer. All methods except Close must be called from one
// goroutine.
type Client struct {
	opts   Options
	conn   *transport.Conn
	inbox  *transport.Inbox
	server *net.UDPAddr

	id      int
	ticket  string
	local   protocol.PlayerState
	remotes map[int]*remote
	scores  []protocol.Score
	sim     *game.Simulation
	hits    *game.EventSet
	pending []transport.Packet

	seq            uint32
	sendAcc        float64
	beatAcc        float64
	cooldowns      map[string]float64
	nextProjectile int
	rtt            time.Duration
}

// Dial joins the host at addr. It retries Join until the host acks, rejects
// or the join timeout passes. On failure nothing is left running.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	server, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	conn, err := transport.Listen(":0", opts.Transport)
	if err != nil {
		return nil, err
	}
	inbox := transport.NewInbox(conn.Config().InboxLimit)
	conn.Start(inbox)

	ack, rest, err := handshake(ctx, conn, inbox, server, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c := &Client{
		opts:      opts,
		conn:      conn,
		inbox:     inbox,
		server:    server,
		id:        ack.PlayerID,
		ticket:    ack.Ticket,
		remotes:   make(map[int]*remote),
		sim:       game.NewSimulation(opts.Arena),
		hits:      game.NewEventSet(),
		pending:   rest,
		cooldowns: make(map[string]float64),
	}
	c.local = protocol.PlayerState{PlayerID: c.id, Health: game.PlayerMaxHealth, IsAlive: true}
	for _, ps := range ack.ExistingPlayers {
		if ps.PlayerID == c.id {
			c.local = ps
			continue
		}
		c.upsert(ps)
	}
	log.Printf("client: joined %s as player %d with %d others", server, c.id, len(c.remotes))
	return c, nil
}

func handshake(ctx context.Context, conn *transport.Conn, inbox *transport.Inbox, server *net.UDPAddr, opts Options) (protocol.JoinAck, []transport.Packet, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.JoinTimeout)
	defer cancel()

	join := protocol.Join{Password: opts.Password, Ticket: opts.Ticket}
	conn.Send(server, join)
	retry := time.NewTicker(opts.JoinRetry)
	defer retry.Stop()
	poll := time.NewTicker(handshakePoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return protocol.JoinAck{}, nil, errors.Wrapf(ErrJoinTimeout, "%s after %s", server, opts.JoinTimeout)
		case <-retry.C:
			conn.Send(server, join)
		case <-poll.C:
			pkts := inbox.Drain()
			for i, pkt := range pkts {
				if !sameAddr(pkt.From, server) {
					continue
				}
				switch m := pkt.Msg.(type) {
				case protocol.JoinAck:
					return m, pkts[i+1:], nil
				case protocol.JoinReject:
					return protocol.JoinAck{}, nil, errors.Wrap(ErrJoinRejected, m.Reason)
				}
			}
		}
	}
}

// sameAddr matches replies from a host that was dialled by name or through
// a wildcard address.
func sameAddr(from, server *net.UDPAddr) bool {
	if from == nil || from.Port != server.Port {
		return false
	}
	return server.IP == nil || server.IP.IsUnspecified() || server.IP.Equal(from.IP) ||
		(server.IP.IsLoopback() && from.IP.IsLoopback())
}

// ID returns the id the host assigned
func (c *Client) ID() int { return c.id }

// Ticket returns the reconnect ticket from the JoinAck, if any
func (c *Client) Ticket() string { return c.ticket }

// RTT returns the last measured heartbeat round trip
func (c *Client) RTT() time.Duration { return c.rtt }

// LocalAddr returns the client's bound address
func (c *Client) LocalAddr() *net.UDPAddr { return c.conn.LocalAddr() }

// Local returns the client's own state
func (c *Client) Local() protocol.PlayerState { return c.local }

// Scores returns the counters from the last GameState
func (c *Client) Scores() []protocol.Score { return c.scores }

// SetLocal updates the owner-controlled part of the local state. It is sent
// on the next state tick.
func (c *Client) SetLocal(pos, rot, vel geom.Vec3) {
	c.local.Position, c.local.Rotation, c.local.Velocity = pos, rot, vel
}

// Remote returns the view of player id
func (c *Client) Remote(id int) (Remote, bool) {
	r, ok := c.remotes[id]
	if !ok {
		return Remote{}, false
	}
	return r.view(), true
}

// Remotes returns every mirrored player sorted by id
func (c *Client) Remotes() []Remote {
	ids := make([]int, 0, len(c.remotes))
	for id := range c.remotes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Remote, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.remotes[id].view())
	}
	return out
}

func (r *remote) view() Remote {
	return Remote{
		State:    r.state,
		Position: r.interp.Position(),
		Rotation: r.interp.Rotation(),
		Velocity: r.interp.Velocity(),
	}
}

// Fire shoots weapon locally and asks the host to spawn one projectile per
// pellet. The host decides every hit.
func (c *Client) Fire(weapon string, pos, dir geom.Vec3) ([]int, error) {
	if !c.local.IsAlive {
		return nil, ErrDead
	}
	w, err := c.opts.Armory.Lookup(weapon)
	if err != nil {
		return nil, err
	}
	if dir.LenSq() == 0 {
		return nil, game.ErrNoDirection
	}
	if c.cooldowns[w.Name] > 0 {
		return nil, ErrCooldown
	}
	c.cooldowns[w.Name] = w.Cooldown

	var ids []int
	for _, d := range game.Volley(w, dir) {
		c.nextProjectile++
		id := c.nextProjectile
		p, ok := c.sim.Spawn(id, c.id, w, pos, d)
		if !ok {
			continue
		}
		c.conn.Send(c.server, protocol.ProjectileSpawn{
			OwnerID:      c.id,
			ProjectileID: id,
			Weapon:       w.Name,
			Position:     p.Position,
			Direction:    p.Direction,
		})
		ids = append(ids, id)
	}
	return ids, nil
}

// Close tells the host we are leaving and stops the receive loop
func (c *Client) Close() error {
	c.conn.Send(c.server, protocol.Leave{PlayerID: c.id})
	return c.conn.Close()
}
