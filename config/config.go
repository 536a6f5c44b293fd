// Package config loads host settings from an optional .env file and
// ARENA_* environment variables.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"arenacore/protocol"
	"arenacore/transport"
)

const prefix = "ARENA_"

// Config holds every tunable of a host process
type Config struct {
	Port           int
	Bind           string
	TickHz         int
	BroadcastHz    int
	MaxPlayers     int
	PeerTimeout    time.Duration
	RespawnDelay   time.Duration
	Codec          string
	StrictOrdering bool
	Weapons        string // JSON weapon table, empty for the built-ins
	DB             string // sqlite path, empty disables stats
	Password       string
	Secret         string // ticket signing key, empty generates one
	SpectateAddr   string // empty disables the spectator API
	QR             bool
}

// Default returns the stock configuration
func Default() Config {
	return Config{
		Port:         5555,
		Bind:         "0.0.0.0",
		TickHz:       60,
		BroadcastHz:  30,
		MaxPlayers:   16,
		PeerTimeout:  10 * time.Second,
		RespawnDelay: 3 * time.Second,
		Codec:        "msgpack",
	}
}

// Load reads the given .env files (".env" when none are named) without
// overriding variables already set, then applies the environment. Missing
// files are not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	return FromEnv()
}

// FromEnv applies ARENA_* variables on top of Default and validates
func FromEnv() (Config, error) {
	c := Default()
	p := parser{}
	p.int("PORT", &c.Port)
	p.str("BIND", &c.Bind)
	p.int("TICK_HZ", &c.TickHz)
	p.int("BROADCAST_HZ", &c.BroadcastHz)
	p.int("MAX_PLAYERS", &c.MaxPlayers)
	p.duration("PEER_TIMEOUT", &c.PeerTimeout)
	p.duration("RESPAWN_DELAY", &c.RespawnDelay)
	p.str("CODEC", &c.Codec)
	p.bool("STRICT_ORDERING", &c.StrictOrdering)
	p.str("WEAPONS", &c.Weapons)
	p.str("DB", &c.DB)
	p.str("PASSWORD", &c.Password)
	p.str("SECRET", &c.Secret)
	p.str("SPECTATE_ADDR", &c.SpectateAddr)
	p.bool("QR", &c.QR)
	if len(p.errs) > 0 {
		return Config{}, errors.New(strings.Join(p.errs, "; "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks ranges and names
func (c Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return errors.Errorf("port %d out of range", c.Port)
	case c.TickHz <= 0 || c.TickHz > 1000:
		return errors.Errorf("tick rate %d out of range", c.TickHz)
	case c.BroadcastHz <= 0 || c.BroadcastHz > c.TickHz:
		return errors.Errorf("broadcast rate %d must be between 1 and the tick rate %d", c.BroadcastHz, c.TickHz)
	case c.MaxPlayers < 2:
		return errors.Errorf("max players %d leaves no room for peers", c.MaxPlayers)
	case c.PeerTimeout <= 0:
		return errors.New("peer timeout must be positive")
	case c.RespawnDelay <= 0:
		return errors.New("respawn delay must be positive")
	}
	codec, err := protocol.CodecByName(c.Codec)
	if err != nil {
		return err
	}
	limit := transport.DefaultConfig().MaxDatagram
	if fit := protocol.MaxRoster(codec, limit); c.MaxPlayers > fit {
		return errors.Errorf("max players %d overflow a %d byte %s datagram, at most %d fit", c.MaxPlayers, limit, codec.Name(), fit)
	}
	return nil
}

// Addr is the UDP listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// parser collects every bad variable instead of stopping at the first
type parser struct {
	errs []string
}

func (p *parser) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(prefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *parser) fail(name, v string, err error) {
	p.errs = append(p.errs, prefix+name+"="+strconv.Quote(v)+": "+err.Error())
}

func (p *parser) str(name string, dst *string) {
	if v, ok := p.lookup(name); ok {
		*dst = v
	}
}

func (p *parser) int(name string, dst *int) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = n
}

func (p *parser) bool(name string, dst *bool) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = b
}

func (p *parser) duration(name string, dst *time.Duration) {
	v, ok := p.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(name, v, err)
		return
	}
	*dst = d
}
