// Package session tracks the peers connected to one host: their addresses,
// authoritative player records and lifecycle.
package session

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/pkg/errors"

	"arenacore/game"
	"arenacore/geom"
	"arenacore/protocol"
)

// DefaultMaxPlayers includes the host
const DefaultMaxPlayers = 16

var (
	ErrFull      = errors.New("registry full")
	ErrBound     = errors.New("player id already bound")
	ErrUnknownID = errors.New("player id was never issued")
	ErrAddrInUse = errors.New("address already joined")
)

// Phase is where a peer is in its lifecycle. Joined means acked with no
// state received yet; Active follows the first merged StateUpdate.
type Phase int

const (
	Unjoined Phase = iota
	Joined
	Active
	Left
)

func (p Phase) String() string {
	switch p {
	case Unjoined:
		return "unjoined"
	case Joined:
		return "joined"
	case Active:
		return "active"
	case Left:
		return "left"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Entry is one registered participant. The host entry has a nil Addr.
type Entry struct {
	Addr     *net.UDPAddr
	Player   *game.Player
	LastSeen time.Time
	Seq      uint32 // last accepted StateUpdate sequence number
	HasSeq   bool
	Phase    Phase
	Ticket   string
}

func (e *Entry) ID() int { return e.Player.ID() }

// Registry maps addresses to player ids for one host. It is not safe for
// concurrent use; the tick goroutine owns it.
type Registry struct {
	max     int
	entries map[int]*Entry
	byAddr  map[string]int
	retired map[int]*game.Player // kept so a ticket can reclaim kills/deaths
	nextID  int
}

// NewRegistry creates a registry holding the host as player 0 at hostPos
func NewRegistry(maxPlayers int, hostPos geom.Vec3) *Registry {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	r := &Registry{
		max:     maxPlayers,
		entries: make(map[int]*Entry),
		byAddr:  make(map[string]int),
		retired: make(map[int]*game.Player),
		nextID:  game.HostID + 1,
	}
	r.add(&Entry{Player: game.NewPlayer(game.HostID, hostPos), Phase: Active, LastSeen: time.Now()})
	return r
}

// Join registers addr under the next unused id. If addr is already
// registered its entry is returned with created=false.
func (r *Registry) Join(addr *net.UDPAddr, now time.Time, spawn geom.Vec3) (e *Entry, created bool, err error) {
	if existing, ok := r.ByAddr(addr); ok {
		return existing, false, nil
	}
	if len(r.entries) >= r.max {
		return nil, false, ErrFull
	}
	id := r.nextID
	r.nextID++
	e = &Entry{Addr: addr, Player: game.NewPlayer(id, spawn), LastSeen: now, Phase: Joined}
	r.add(e)
	return e, true, nil
}

// Reclaim binds addr to an id issued earlier in this session that is not
// currently in use, restoring its kill and death counters.
func (r *Registry) Reclaim(addr *net.UDPAddr, id int, now time.Time, spawn geom.Vec3) (*Entry, error) {
	if _, ok := r.ByAddr(addr); ok {
		return nil, ErrAddrInUse
	}
	if _, ok := r.entries[id]; ok {
		return nil, ErrBound
	}
	if id <= game.HostID || id >= r.nextID {
		return nil, ErrUnknownID
	}
	if len(r.entries) >= r.max {
		return nil, ErrFull
	}
	p := game.NewPlayer(id, spawn)
	if old, ok := r.retired[id]; ok {
		p.Kills, p.Deaths = old.Kills, old.Deaths
		delete(r.retired, id)
	}
	e := &Entry{Addr: addr, Player: p, LastSeen: now, Phase: Joined}
	r.add(e)
	return e, nil
}

func (r *Registry) add(e *Entry) {
	id := e.ID()
	if _, dup := r.entries[id]; dup {
		panic(fmt.Sprintf("session: duplicate player id %d", id))
	}
	r.entries[id] = e
	if e.Addr != nil {
		r.byAddr[e.Addr.String()] = id
	}
}

// ByAddr finds the entry registered for addr
func (r *Registry) ByAddr(addr *net.UDPAddr) (*Entry, bool) {
	if addr == nil {
		return nil, false
	}
	id, ok := r.byAddr[addr.String()]
	if !ok {
		return nil, false
	}
	return r.entries[id], true
}

// Lookup finds the entry for id
func (r *Registry) Lookup(id int) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Touch records that id was heard from at now
func (r *Registry) Touch(id int, now time.Time) {
	if e, ok := r.entries[id]; ok {
		e.LastSeen = now
	}
}

// Merge applies the owner-controlled part of s to id's record. With strict
// set, an update whose seq is not newer than the last accepted one is
// rejected; seq 0 means the sender does not number its updates.
func (r *Registry) Merge(id int, s protocol.PlayerState, seq uint32, strict bool) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if strict && seq != 0 && e.HasSeq && !seqNewer(seq, e.Seq) {
		return false
	}
	e.Player.ApplyMovement(s)
	if seq != 0 {
		e.Seq, e.HasSeq = seq, true
	}
	if e.Phase == Joined {
		e.Phase = Active
	}
	return true
}

// seqNewer compares with wraparound
func seqNewer(a, b uint32) bool {
	return int32(a-b) > 0
}

// Remove drops id from the registry. The host cannot be removed.
func (r *Registry) Remove(id int) (*Entry, bool) {
	e, ok := r.entries[id]
	if !ok || id == game.HostID {
		return nil, false
	}
	delete(r.entries, id)
	if e.Addr != nil {
		delete(r.byAddr, e.Addr.String())
	}
	e.Phase = Left
	r.retired[id] = e.Player
	return e, true
}

// Len returns the number of entries including the host
func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) ids() []int {
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Each calls fn for every entry in ascending id order
func (r *Registry) Each(fn func(*Entry)) {
	for _, id := range r.ids() {
		fn(r.entries[id])
	}
}

// Snapshot returns every player's state sorted by id
func (r *Registry) Snapshot() []protocol.PlayerState {
	out := make([]protocol.PlayerState, 0, len(r.entries))
	r.Each(func(e *Entry) {
		out = append(out, e.Player.State)
	})
	return out
}

// Scores returns every player's counters sorted by id
func (r *Registry) Scores() []protocol.Score {
	out := make([]protocol.Score, 0, len(r.entries))
	r.Each(func(e *Entry) {
		out = append(out, e.Player.Score())
	})
	return out
}

// Peers returns the remote entries except exclude
func (r *Registry) Peers(exclude int) []*Entry {
	var out []*Entry
	r.Each(func(e *Entry) {
		if e.Addr != nil && e.ID() != exclude {
			out = append(out, e)
		}
	})
	return out
}

// Expired lists the peers not heard from for longer than timeout
func (r *Registry) Expired(now time.Time, timeout time.Duration) []int {
	var out []int
	r.Each(func(e *Entry) {
		if e.Addr != nil && now.Sub(e.LastSeen) > timeout {
			out = append(out, e.ID())
		}
	})
	return out
}

// Targets returns every player as a hit target for one simulation step
func (r *Registry) Targets() []game.Target {
	out := make([]game.Target, 0, len(r.entries))
	r.Each(func(e *Entry) {
		out = append(out, game.Target{
			ID:       e.ID(),
			Position: e.Player.State.Position,
			Radius:   game.PlayerRadius,
			Alive:    e.Player.Alive(),
		})
	})
	return out
}

var _ game.Roster = (*Registry)(nil)

// Player implements game.Roster
func (r *Registry) Player(id int) (*game.Player, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.Player, true
}

// EachPlayer implements game.Roster
func (r *Registry) EachPlayer(fn func(*game.Player)) {
	r.Each(func(e *Entry) { fn(e.Player) })
}
