package server

import (
	"time"

	"arenacore/auth"
	"arenacore/game"
	"arenacore/protocol"
	"arenacore/session"
	"arenacore/transport"
)

const (
	DefaultTickHz      = 60
	DefaultBroadcastHz = 30
	DefaultPeerTimeout = 10 * time.Second
	maxQueuedEvents    = 4096
)

// Observer sees every authoritative Join, Leave, ProjectileSpawn, Hit,
// Respawn and GameState the host produces. Observe is called on the tick
// goroutine and must not block.
type Observer interface {
	Observe(msg protocol.Message)
}

// StatsSink records kills for persistence. Called on the tick goroutine.
type StatsSink interface {
	RecordKill(attacker, target int, weapon string)
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Transport      transport.Config
	TickHz         int
	BroadcastHz    int
	Arena          *game.Arena
	Armory         *game.Armory
	RespawnDelay   time.Duration
	PeerTimeout    time.Duration
	MaxPlayers     int
	StrictOrdering bool

	Password  *auth.Password // nil accepts any Join
	Limiter   *auth.Limiter  // password attempts per address
	Tickets   *auth.Tickets  // nil disables reconnect tickets
	Stats     StatsSink
	Observers []Observer
}

func (o Options) withDefaults() Options {
	if o.TickHz <= 0 {
		o.TickHz = DefaultTickHz
	}
	if o.BroadcastHz <= 0 {
		o.BroadcastHz = DefaultBroadcastHz
	}
	if o.BroadcastHz > o.TickHz {
		o.BroadcastHz = o.TickHz
	}
	if o.Arena == nil {
		o.Arena = game.DefaultArena()
	}
	if o.Armory == nil {
		o.Armory = game.DefaultArmory()
	}
	if o.RespawnDelay <= 0 {
		o.RespawnDelay = time.Duration(game.RespawnDelay * float64(time.Second))
	}
	if o.PeerTimeout <= 0 {
		o.PeerTimeout = DefaultPeerTimeout
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = session.DefaultMaxPlayers
	}
	if o.Password != nil && o.Limiter == nil {
		o.Limiter = auth.NewLimiter()
	}
	return o
}
