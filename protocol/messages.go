package protocol

import "arenacore/geom"

// Kind tags every message on the wire
type Kind string

// Peer -> host
const (
	KindJoin      Kind = "join"
	KindLeave     Kind = "leave"
	KindState     Kind = "state"
	KindSpawn     Kind = "spawn"
	KindHeartbeat Kind = "heartbeat"
)

// Host -> peer
const (
	KindJoinAck      Kind = "join_ack"
	KindJoinReject   Kind = "join_reject"
	KindHit          Kind = "hit"
	KindRespawn      Kind = "respawn"
	KindGameState    Kind = "game_state"
	KindHeartbeatAck Kind = "heartbeat_ack"
)

// Message is implemented by every payload type in this package. The set is
// closed: Kinds lists all of them.
type Message interface {
	Kind() Kind
}

// PlayerState is the per-player snapshot shared between processes
type PlayerState struct {
	PlayerID int       `msgpack:"player_id" json:"player_id"`
	Position geom.Vec3 `msgpack:"position" json:"position"`
	Rotation geom.Vec3 `msgpack:"rotation" json:"rotation"` // euler degrees
	Velocity geom.Vec3 `msgpack:"velocity" json:"velocity"`
	Health   int       `msgpack:"health" json:"health"`
	IsAlive  bool      `msgpack:"is_alive" json:"is_alive"`
}

// Score carries the host's kill/death counters for one player
type Score struct {
	PlayerID int `msgpack:"player_id" json:"player_id"`
	Kills    int `msgpack:"kills" json:"kills"`
	Deaths   int `msgpack:"deaths" json:"deaths"`
}

// Join is sent by a peer to request a slot. The host reuses it, with
// PlayerID set, to announce a new peer to everyone else.
type Join struct {
	PlayerID int    `msgpack:"player_id,omitempty" json:"player_id,omitempty"`
	Password string `msgpack:"password,omitempty" json:"password,omitempty"`
	Ticket   string `msgpack:"ticket,omitempty" json:"ticket,omitempty"`
}

// JoinAck answers a Join with the assigned id and everyone already present
type JoinAck struct {
	PlayerID        int           `msgpack:"player_id" json:"player_id"`
	ExistingPlayers []PlayerState `msgpack:"existing_players" json:"existing_players"`
	Ticket          string        `msgpack:"ticket,omitempty" json:"ticket,omitempty"`
}

// JoinReject refuses a Join
type JoinReject struct {
	Reason string `msgpack:"reason" json:"reason"`
}

type Leave struct {
	PlayerID int `msgpack:"player_id" json:"player_id"`
}

// StateUpdate is the owner's latest PlayerState. Seq is optional and only
// consulted when the host runs with strict ordering.
type StateUpdate struct {
	PlayerState `msgpack:",inline"`
	Seq         uint32 `msgpack:"seq,omitempty" json:"seq,omitempty"`
}

type ProjectileSpawn struct {
	OwnerID      int       `msgpack:"owner_id" json:"owner_id"`
	ProjectileID int       `msgpack:"projectile_id" json:"projectile_id"`
	Weapon       string    `msgpack:"weapon" json:"weapon"`
	Position     geom.Vec3 `msgpack:"position" json:"position"`
	Direction    geom.Vec3 `msgpack:"direction" json:"direction"`
}

// Hit is the host's authoritative damage outcome
type Hit struct {
	TargetID   int    `msgpack:"target_id" json:"target_id"`
	AttackerID int    `msgpack:"attacker_id" json:"attacker_id"`
	Damage     int    `msgpack:"damage" json:"damage"`
	Weapon     string `msgpack:"weapon,omitempty" json:"weapon,omitempty"`
	Event      uint64 `msgpack:"event,omitempty" json:"event,omitempty"`
	Killed     bool   `msgpack:"killed,omitempty" json:"killed,omitempty"`
}

type Respawn struct {
	PlayerID int       `msgpack:"player_id" json:"player_id"`
	Position geom.Vec3 `msgpack:"position" json:"position"`
}

type Heartbeat struct {
	Sent int64 `msgpack:"sent,omitempty" json:"sent,omitempty"` // unix nanos
}

type HeartbeatAck struct {
	Sent int64 `msgpack:"sent,omitempty" json:"sent,omitempty"`
}

// GameState is the periodic batch of every registry entry
type GameState struct {
	Tick    uint64        `msgpack:"tick,omitempty" json:"tick,omitempty"`
	Players []PlayerState `msgpack:"players" json:"players"`
	Scores  []Score       `msgpack:"scores,omitempty" json:"scores,omitempty"`
}

func (Join) Kind() Kind            { return KindJoin }
func (JoinAck) Kind() Kind         { return KindJoinAck }
func (JoinReject) Kind() Kind      { return KindJoinReject }
func (Leave) Kind() Kind           { return KindLeave }
func (StateUpdate) Kind() Kind     { return KindState }
func (ProjectileSpawn) Kind() Kind { return KindSpawn }
func (Hit) Kind() Kind             { return KindHit }
func (Respawn) Kind() Kind         { return KindRespawn }
func (Heartbeat) Kind() Kind       { return KindHeartbeat }
func (HeartbeatAck) Kind() Kind    { return KindHeartbeatAck }
func (GameState) Kind() Kind       { return KindGameState }
