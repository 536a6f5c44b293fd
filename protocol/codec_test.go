package protocol

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"arenacore/geom"
)

func samplePlayer(id int) PlayerState {
	return PlayerState{
		PlayerID: id,
		Position: geom.V(1.5, -2.25, 30),
		Rotation: geom.V(0, 179.5, -12),
		Velocity: geom.V(0.125, 0, -9.75),
		Health:   100 - id,
		IsAlive:  id%2 == 0,
	}
}

func sampleMessages() []Message {
	return []Message{
		Join{},
		Join{PlayerID: 4},
		Join{Password: "hunter2", Ticket: "abc.def.ghi"},
		JoinAck{PlayerID: 1, ExistingPlayers: []PlayerState{samplePlayer(0)}},
		JoinAck{PlayerID: 3, ExistingPlayers: []PlayerState{samplePlayer(0), samplePlayer(1), samplePlayer(2)}, Ticket: "t"},
		JoinReject{Reason: "arena full"},
		Leave{PlayerID: 7},
		StateUpdate{PlayerState: samplePlayer(2)},
		StateUpdate{PlayerState: samplePlayer(5), Seq: 4000000000},
		ProjectileSpawn{OwnerID: 1, ProjectileID: 99, Weapon: "secondary", Position: geom.V(1, 2, 3), Direction: geom.V(0, 0, -1)},
		Hit{TargetID: 0, AttackerID: 1, Damage: 100},
		Hit{TargetID: 2, AttackerID: 0, Damage: 3, Weapon: "spread", Event: 1 << 40, Killed: true},
		Respawn{PlayerID: 2, Position: geom.V(-30, 0, 30)},
		Heartbeat{},
		Heartbeat{Sent: 1700000000123456789},
		HeartbeatAck{Sent: 42},
		GameState{Players: []PlayerState{samplePlayer(0), samplePlayer(1)}},
		GameState{Tick: 77, Players: []PlayerState{samplePlayer(1)}, Scores: []Score{{PlayerID: 1, Kills: 2, Deaths: 1}}},
	}
}

func TestRoundTripEveryKind(t *testing.T) {
	covered := map[Kind]bool{}
	for _, codec := range []Codec{Msgpack, JSON} {
		for _, m := range sampleMessages() {
			data, err := codec.Encode(m)
			require.NoError(t, err, "%s encode %T", codec.Name(), m)

			got, err := codec.Decode(data)
			require.NoError(t, err, "%s decode %T", codec.Name(), m)
			assert.Equal(t, m, got, "%s round trip", codec.Name())
			covered[m.Kind()] = true
		}
	}
	for _, k := range Kinds() {
		assert.True(t, covered[k], "kind %s has no round-trip sample", k)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]interface{}{
		"t":     "leave",
		"d":     map[string]interface{}{"player_id": 3, "colour": "red"},
		"extra": 1,
	})
	require.NoError(t, err)

	m, err := Msgpack.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Leave{PlayerID: 3}, m)

	m, err = JSON.Decode([]byte(`{"t":"respawn","d":{"player_id":2,"position":[1,2,3],"shield":true}}`))
	require.NoError(t, err)
	assert.Equal(t, Respawn{PlayerID: 2, Position: geom.V(1, 2, 3)}, m)
}

func TestDecodeMissingRequiredField(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]interface{}{
		"t": "hit",
		"d": map[string]interface{}{"target_id": 1, "attacker_id": 2},
	})
	require.NoError(t, err)

	_, err = Msgpack.Decode(raw)
	assert.True(t, errors.Is(err, ErrMissingField), "got %v", err)

	// is_alive false must still be present on the wire
	_, err = JSON.Decode([]byte(`{"t":"state","d":{"player_id":1,"position":[0,0,0],"rotation":[0,0,0],"velocity":[0,0,0],"health":50}}`))
	assert.True(t, errors.Is(err, ErrMissingField), "got %v", err)

	_, err = JSON.Decode([]byte(`{"t":"game_state"}`))
	assert.True(t, errors.Is(err, ErrMissingField), "got %v", err)
}

func TestDecodePayloadFreeKinds(t *testing.T) {
	m, err := JSON.Decode([]byte(`{"t":"join"}`))
	require.NoError(t, err)
	assert.Equal(t, Join{}, m)

	raw, err := msgpack.Marshal(map[string]interface{}{"t": "heartbeat"})
	require.NoError(t, err)
	m, err = Msgpack.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Heartbeat{}, m)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Msgpack.Decode([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)

	_, err = JSON.Decode([]byte("{not json"))
	assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)

	_, err = JSON.Decode([]byte(`{"t":"teleport","d":{}}`))
	assert.True(t, errors.Is(err, ErrUnknownKind), "got %v", err)

	// Wrong type for a required field
	_, err = JSON.Decode([]byte(`{"t":"leave","d":{"player_id":"seven"}}`))
	assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", c.Name())

	c, err = CodecByName("json")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	_, err = CodecByName("xml")
	assert.Error(t, err)
}

func TestFullRosterFitsDatagram(t *testing.T) {
	const limit, players = 4096, 16

	size, err := RosterSize(Msgpack, players)
	require.NoError(t, err)
	assert.LessOrEqual(t, size, limit, "msgpack full roster must fit")

	size, err = RosterSize(JSON, players)
	require.NoError(t, err)
	assert.Greater(t, size, limit, "json is too verbose for a full default roster")

	for _, c := range []Codec{Msgpack, JSON} {
		n := MaxRoster(c, limit)
		fits, err := RosterSize(c, n)
		require.NoError(t, err)
		over, err := RosterSize(c, n+1)
		require.NoError(t, err)
		assert.LessOrEqual(t, fits, limit, c.Name())
		assert.Greater(t, over, limit, c.Name())
	}
	assert.GreaterOrEqual(t, MaxRoster(Msgpack, limit), players)
	assert.Less(t, MaxRoster(JSON, limit), players)
}
