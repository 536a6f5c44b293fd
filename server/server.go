// Package server is the authoritative host: it owns the session registry,
// the projectile simulation and combat resolution, and broadcasts their
// outcomes to every peer.
package server

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"arenacore/game"
	"arenacore/geom"
	"arenacore/protocol"
	"arenacore/session"
	"arenacore/transport"
)

var (
	ErrDead     = errors.New("host player is dead")
	ErrCooldown = errors.New("weapon is cooling down")
)

const maxWarned = 1024

type handler func(from *net.UDPAddr, msg protocol.Message, now time.Time)

// Server runs one match. Everything except Start, Close and the receive
// loop must be called from a single goroutine, normally Run's.
type Server struct {
	opts     Options
	conn     *transport.Conn
	inbox    *transport.Inbox
	reg      *session.Registry
	sim      *game.Simulation
	combat   *game.Combat
	handlers map[protocol.Kind]handler

	tick           uint64
	broadcastEach  uint64
	nextProjectile int
	cooldowns      map[string]float64 // host weapon cooldowns
	events         []protocol.Message
	warned         map[string]bool

	startOnce sync.Once
}

// New binds addr and prepares a match. Call Start or Run to begin
// receiving.
func New(addr string, opts Options) (*Server, error) {
	opts = opts.withDefaults()
	conn, err := transport.Listen(addr, opts.Transport)
	if err != nil {
		return nil, errors.Wrap(err, "server")
	}
	tc := conn.Config()
	if fit := protocol.MaxRoster(tc.Codec, tc.MaxDatagram); opts.MaxPlayers > fit {
		conn.Close()
		return nil, errors.Errorf("server: %d players overflow a %d byte %s datagram, at most %d fit",
			opts.MaxPlayers, tc.MaxDatagram, tc.Codec.Name(), fit)
	}
	s := &Server{
		opts:          opts,
		conn:          conn,
		inbox:         transport.NewInbox(conn.Config().InboxLimit),
		reg:           session.NewRegistry(opts.MaxPlayers, opts.Arena.SpawnPoint()),
		sim:           game.NewSimulation(opts.Arena),
		combat:        game.NewCombat(opts.RespawnDelay.Seconds()),
		broadcastEach: uint64(opts.TickHz / opts.BroadcastHz),
		cooldowns:     make(map[string]float64),
		warned:        make(map[string]bool),
	}
	s.handlers = map[protocol.Kind]handler{
		protocol.KindJoin:         s.handleJoin,
		protocol.KindLeave:        s.handleLeave,
		protocol.KindState:        s.handleState,
		protocol.KindSpawn:        s.handleSpawn,
		protocol.KindHeartbeat:    s.handleHeartbeat,
		protocol.KindJoinAck:      s.dropClientBound,
		protocol.KindJoinReject:   s.dropClientBound,
		protocol.KindHit:          s.dropClientBound,
		protocol.KindRespawn:      s.dropClientBound,
		protocol.KindGameState:    s.dropClientBound,
		protocol.KindHeartbeatAck: s.dropClientBound,
	}
	return s, nil
}

// Addr returns the bound UDP address
func (s *Server) Addr() *net.UDPAddr {
	return s.conn.LocalAddr()
}

// Registry exposes the session registry to the tick goroutine
func (s *Server) Registry() *session.Registry {
	return s.reg
}

// Ticks returns the number of completed ticks
func (s *Server) Ticks() uint64 {
	return s.tick
}

// Start launches the receive loop. It is safe to call more than once.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.conn.Start(s.inbox)
		log.Printf("server: listening on %s (%s, %d Hz)", s.Addr(), s.conn.Config().Codec.Name(), s.opts.TickHz)
	})
}

// Run ticks at the configured rate until ctx is done, then closes the
// server.
func (s *Server) Run(ctx context.Context) error {
	s.Start()
	period := time.Second / time.Duration(s.opts.TickHz)
	dt := period.Seconds()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(dt)
		case <-ctx.Done():
			return s.Close()
		}
	}
}

// Close stops the receive loop and waits for it to exit
func (s *Server) Close() error {
	return s.conn.Close()
}

// Tick advances the match by dt seconds and returns this tick's impacts for
// the host's presentation layer.
func (s *Server) Tick(dt float64) []game.Impact {
	now := time.Now()
	for _, pkt := range s.inbox.Drain() {
		s.dispatch(pkt, now)
	}
	for _, id := range s.reg.Expired(now, s.opts.PeerTimeout) {
		log.Printf("server: player %d timed out", id)
		s.removePeer(id)
	}
	for name, cd := range s.cooldowns {
		if cd -= dt; cd <= 0 {
			delete(s.cooldowns, name)
		} else {
			s.cooldowns[name] = cd
		}
	}

	// respawn before resolving new hits so a death this tick waits the
	// full delay
	for _, r := range s.combat.Tick(dt, s.reg, s.opts.Arena) {
		s.broadcast(r, -1)
		s.emit(r)
	}

	hits, impacts := s.sim.Step(dt, s.reg.Targets())
	for _, o := range s.combat.Apply(hits, s.reg) {
		s.broadcast(o.Hit, -1)
		s.emit(o.Hit)
		if o.Killed && s.opts.Stats != nil {
			s.opts.Stats.RecordKill(o.Event.AttackerID, o.Event.TargetID, o.Event.Weapon)
		}
	}

	s.tick++
	if s.tick%s.broadcastEach == 0 {
		gs := protocol.GameState{Tick: s.tick, Players: s.reg.Snapshot(), Scores: s.reg.Scores()}
		s.broadcast(gs, -1)
		s.notify(gs)
	}
	return impacts
}

func (s *Server) dispatch(pkt transport.Packet, now time.Time) {
	h, ok := s.handlers[pkt.Msg.Kind()]
	if !ok {
		log.Printf("server: no handler for %s from %s", pkt.Msg.Kind(), pkt.From)
		return
	}
	if e, ok := s.reg.ByAddr(pkt.From); ok {
		s.reg.Touch(e.ID(), now)
	}
	h(pkt.From, pkt.Msg, now)
}

// sender resolves a datagram's address to its entry, logging the first
// miss per address.
func (s *Server) sender(from *net.UDPAddr, kind protocol.Kind) (*session.Entry, bool) {
	e, ok := s.reg.ByAddr(from)
	if !ok {
		if s.warnOnce(from.String()) {
			log.Printf("server: dropping %s from unknown sender %s", kind, from)
		}
	}
	return e, ok
}

// warnOnce reports whether key is new. The set is cleared once it holds
// maxWarned keys.
func (s *Server) warnOnce(key string) bool {
	if s.warned[key] {
		return false
	}
	if len(s.warned) >= maxWarned {
		s.warned = make(map[string]bool)
	}
	s.warned[key] = true
	return true
}

// broadcast sends m to every peer except exclude
func (s *Server) broadcast(m protocol.Message, exclude int) {
	for _, e := range s.reg.Peers(exclude) {
		s.conn.Send(e.Addr, m)
	}
}

// emit queues m for DrainEvents and tells the observers
func (s *Server) emit(m protocol.Message) {
	if len(s.events) >= maxQueuedEvents {
		s.events = s.events[1:]
	}
	s.events = append(s.events, m)
	s.notify(m)
}

func (s *Server) notify(m protocol.Message) {
	for _, o := range s.opts.Observers {
		o.Observe(m)
	}
}

// DrainEvents returns the notifications queued since the last call: peer
// joins and leaves, remote spawns, hits and respawns.
func (s *Server) DrainEvents() []protocol.Message {
	out := s.events
	s.events = nil
	return out
}

// SetHostState moves the host's own player. Health and the alive flag stay
// with the combat pipeline.
func (s *Server) SetHostState(pos, rot, vel geom.Vec3) {
	host, _ := s.reg.Player(game.HostID)
	host.ApplyMovement(protocol.PlayerState{Position: pos, Rotation: rot, Velocity: vel})
}

// HostState returns the host player's authoritative state
func (s *Server) HostState() protocol.PlayerState {
	host, _ := s.reg.Player(game.HostID)
	return host.State
}

// Fire shoots weapon from the host player and broadcasts one spawn per
// pellet. It returns the projectile ids.
func (s *Server) Fire(weapon string, pos, dir geom.Vec3) ([]int, error) {
	host, _ := s.reg.Player(game.HostID)
	if !host.Alive() {
		return nil, ErrDead
	}
	w, err := s.opts.Armory.Lookup(weapon)
	if err != nil {
		return nil, err
	}
	if dir.LenSq() == 0 {
		return nil, game.ErrNoDirection
	}
	if s.cooldowns[w.Name] > 0 {
		return nil, ErrCooldown
	}
	s.cooldowns[w.Name] = w.Cooldown

	var ids []int
	for _, d := range game.Volley(w, dir) {
		spawn, ok := s.spawn(game.HostID, w, pos, d)
		if !ok {
			continue
		}
		s.broadcast(spawn, -1)
		s.notify(spawn)
		ids = append(ids, spawn.ProjectileID)
	}
	return ids, nil
}

// spawn adds a projectile under a fresh server-unique id
func (s *Server) spawn(owner int, w *game.Weapon, pos, dir geom.Vec3) (protocol.ProjectileSpawn, bool) {
	s.nextProjectile++
	id := s.nextProjectile
	p, ok := s.sim.Spawn(id, owner, w, pos, dir)
	if !ok {
		return protocol.ProjectileSpawn{}, false
	}
	return protocol.ProjectileSpawn{
		OwnerID:      owner,
		ProjectileID: id,
		Weapon:       w.Name,
		Position:     p.Position,
		Direction:    p.Direction,
	}, true
}
