package protocol

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrUnknownKind is returned for an envelope whose tag is not in the registry
	ErrUnknownKind = errors.New("protocol: unknown message kind")
	// ErrMissingField is returned when a required payload key is absent
	ErrMissingField = errors.New("protocol: missing required field")
	// ErrMalformed wraps any decoder failure
	ErrMalformed = errors.New("protocol: malformed payload")
)

// Codec turns messages into datagrams and back
type Codec interface {
	Name() string
	Encode(m Message) ([]byte, error)
	Decode(data []byte) (Message, error)
}

// Codecs known by name
var (
	Msgpack Codec = msgpackCodec{}
	JSON    Codec = jsonCodec{}
)

// CodecByName resolves a configured codec name
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "msgpack":
		return Msgpack, nil
	case "json":
		return JSON, nil
	}
	return nil, errors.Errorf("protocol: unknown codec %q", name)
}

type kindInfo struct {
	required []string
	decode   func(unmarshal func(any) error) (Message, error)
}

var playerStateFields = []string{"player_id", "position", "rotation", "velocity", "health", "is_alive"}

var kinds = map[Kind]kindInfo{
	KindJoin:         {decode: decodeAs[Join]},
	KindJoinAck:      {required: []string{"player_id", "existing_players"}, decode: decodeAs[JoinAck]},
	KindJoinReject:   {required: []string{"reason"}, decode: decodeAs[JoinReject]},
	KindLeave:        {required: []string{"player_id"}, decode: decodeAs[Leave]},
	KindState:        {required: playerStateFields, decode: decodeAs[StateUpdate]},
	KindSpawn:        {required: []string{"owner_id", "projectile_id", "weapon", "position", "direction"}, decode: decodeAs[ProjectileSpawn]},
	KindHit:          {required: []string{"target_id", "attacker_id", "damage"}, decode: decodeAs[Hit]},
	KindRespawn:      {required: []string{"player_id", "position"}, decode: decodeAs[Respawn]},
	KindHeartbeat:    {decode: decodeAs[Heartbeat]},
	KindHeartbeatAck: {decode: decodeAs[HeartbeatAck]},
	KindGameState:    {required: []string{"players"}, decode: decodeAs[GameState]},
}

func decodeAs[T Message](unmarshal func(any) error) (Message, error) {
	var m T
	if err := unmarshal(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Kinds returns every message kind in a stable order
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Required returns the payload keys a message of kind k must carry
func Required(k Kind) []string {
	return kinds[k].required
}

// decodeWith runs the shared part of both codecs once the envelope tag and
// raw payload are split out.
func decodeWith(kind Kind, unmarshal func(any) error) (Message, error) {
	info, ok := kinds[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	if len(info.required) > 0 {
		var fields map[string]interface{}
		if err := unmarshal(&fields); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%s: %v", kind, err)
		}
		for _, f := range info.required {
			if _, ok := fields[f]; !ok {
				return nil, errors.Wrapf(ErrMissingField, "%s.%s", kind, f)
			}
		}
	}
	m, err := info.decode(unmarshal)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "%s: %v", kind, err)
	}
	return m, nil
}

type envelope struct {
	T Kind    `msgpack:"t" json:"t"`
	D Message `msgpack:"d" json:"d"`
}

const msgpackNil = 0xc0

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(m Message) ([]byte, error) {
	return msgpack.Marshal(envelope{T: m.Kind(), D: m})
}

func (msgpackCodec) Decode(data []byte) (Message, error) {
	var env struct {
		T Kind               `msgpack:"t"`
		D msgpack.RawMessage `msgpack:"d"`
	}
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if len(env.D) == 0 {
		env.D = msgpack.RawMessage{msgpackNil}
	}
	return decodeWith(env.T, func(v any) error {
		return msgpack.Unmarshal(env.D, v)
	})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(m Message) ([]byte, error) {
	return json.Marshal(envelope{T: m.Kind(), D: m})
}

func (jsonCodec) Decode(data []byte) (Message, error) {
	var env struct {
		T Kind            `json:"t"`
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	return decodeWith(env.T, func(v any) error {
		if len(env.D) == 0 {
			return json.Unmarshal([]byte("null"), v)
		}
		return json.Unmarshal(env.D, v)
	})
}
