package client

import (
	"time"

	"arenacore/game"
	"arenacore/transport"
)

const (
	DefaultJoinTimeout    = 5 * time.Second
	DefaultJoinRetry      = 500 * time.Millisecond
	DefaultSendHz         = 30
	DefaultHeartbeatEvery = time.Second
	handshakePoll         = 5 * time.Millisecond
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Transport      transport.Config
	JoinTimeout    time.Duration
	JoinRetry      time.Duration
	SendHz         int
	HeartbeatEvery time.Duration
	InterpRate     float64
	InterpLead     float64
	Armory         *game.Armory
	Arena          *game.Arena // nil simulates presentation projectiles without obstacles
	Password       string
	Ticket         string // from an earlier JoinAck, to reclaim the same id
}

func (o Options) withDefaults() Options {
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = DefaultJoinTimeout
	}
	if o.JoinRetry <= 0 {
		o.JoinRetry = DefaultJoinRetry
	}
	if o.SendHz <= 0 {
		o.SendHz = DefaultSendHz
	}
	if o.HeartbeatEvery <= 0 {
		o.HeartbeatEvery = DefaultHeartbeatEvery
	}
	if o.InterpRate <= 0 {
		o.InterpRate = game.DefaultInterpRate
	}
	if o.InterpLead <= 0 {
		o.InterpLead = game.DefaultInterpLead
	}
	if o.Armory == nil {
		o.Armory = game.DefaultArmory()
	}
	return o
}
