// Package transport wraps a single UDP socket. Sends are fire-and-forget and
// receives poll with a short deadline so the loop can notice Close.
package transport

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"arenacore/protocol"
)

// DefaultPort is the UDP port a host listens on unless configured otherwise
const DefaultPort = 5555

// Config holds transport configuration.
type Config struct {
	MaxDatagram  int           // bytes; larger datagrams are dropped both ways
	PollTimeout  time.Duration // receive deadline per poll
	WriteTimeout time.Duration
	InboxLimit   int
	Codec        protocol.Codec
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxDatagram:  4096,
		PollTimeout:  100 * time.Millisecond,
		WriteTimeout: 50 * time.Millisecond,
		InboxLimit:   1024,
		Codec:        protocol.Msgpack,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDatagram <= 0 {
		c.MaxDatagram = d.MaxDatagram
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.InboxLimit <= 0 {
		c.InboxLimit = d.InboxLimit
	}
	if c.Codec == nil {
		c.Codec = d.Codec
	}
	return c
}

// Packet is one decoded datagram and its sender
type Packet struct {
	From *net.UDPAddr
	Msg  protocol.Message
}

// Conn is a bound UDP socket plus its receive loop
type Conn struct {
	cfg     Config
	pc      *net.UDPConn
	buf     []byte
	running atomic.Bool
	wg      sync.WaitGroup
	once    sync.Once
}

// Listen binds addr ("host:port", port 0 for ephemeral)
func Listen(addr string, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	pc, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	c := &Conn{
		cfg: cfg,
		pc:  pc,
		// one spare byte so an oversized datagram is detectable after truncation
		buf: make([]byte, cfg.MaxDatagram+1),
	}
	c.running.Store(true)
	return c, nil
}

// Config returns the effective configuration
func (c *Conn) Config() Config {
	return c.cfg
}

// LocalAddr returns the bound address
func (c *Conn) LocalAddr() *net.UDPAddr {
	return c.pc.LocalAddr().(*net.UDPAddr)
}

// Running reports whether Close has not been called yet
func (c *Conn) Running() bool {
	return c.running.Load()
}

// Send encodes m and writes it to addr. It reports whether the datagram
// left this host; nothing is ever retried.
func (c *Conn) Send(addr *net.UDPAddr, m protocol.Message) bool {
	if addr == nil || !c.running.Load() {
		return false
	}
	data, err := c.cfg.Codec.Encode(m)
	if err != nil {
		log.Printf("transport: encode %s: %v", m.Kind(), err)
		return false
	}
	if len(data) > c.cfg.MaxDatagram {
		log.Printf("transport: %s is %d bytes, over the %d byte limit", m.Kind(), len(data), c.cfg.MaxDatagram)
		return false
	}
	c.pc.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if _, err := c.pc.WriteToUDP(data, addr); err != nil {
		if c.running.Load() {
			log.Printf("transport: send %s to %s: %v", m.Kind(), addr, err)
		}
		return false
	}
	return true
}

// Receive waits at most one poll timeout for a datagram. ok is false on
// timeout and for datagrams that were dropped; err is only set once the
// socket is closed.
func (c *Conn) Receive() (Packet, bool, error) {
	if err := c.pc.SetReadDeadline(time.Now().Add(c.cfg.PollTimeout)); err != nil {
		return Packet{}, false, err
	}
	n, from, err := c.pc.ReadFromUDP(c.buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Packet{}, false, nil
		}
		if errors.Is(err, net.ErrClosed) || !c.running.Load() {
			return Packet{}, false, net.ErrClosed
		}
		log.Printf("transport: read: %v", err)
		return Packet{}, false, nil
	}
	if n > c.cfg.MaxDatagram {
		log.Printf("transport: dropping oversized datagram from %s", from)
		return Packet{}, false, nil
	}
	msg, err := c.cfg.Codec.Decode(c.buf[:n])
	if err != nil {
		log.Printf("transport: dropping datagram from %s: %v", from, err)
		return Packet{}, false, nil
	}
	return Packet{From: from, Msg: msg}, true, nil
}

// Start runs the receive loop in its own goroutine, feeding inbox
func (c *Conn) Start(inbox *Inbox) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Serve(inbox)
	}()
}

// Serve polls until the socket is closed. It never mutates anything but
// the inbox.
func (c *Conn) Serve(inbox *Inbox) {
	for c.running.Load() {
		pkt, ok, err := c.Receive()
		if err != nil {
			return
		}
		if ok && !inbox.Push(pkt) {
			log.Printf("transport: inbox full, dropping %s from %s", pkt.Msg.Kind(), pkt.From)
		}
	}
}

// Close stops the receive loop and waits for it to exit
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.running.Store(false)
		err = c.pc.Close()
	})
	c.wg.Wait()
	return err
}
