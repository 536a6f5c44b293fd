package protocol

import "arenacore/geom"

// ticketReserve covers a signed reconnect ticket in a JoinAck
const ticketReserve = 320

// worstCoord has the longest text form a float64 can take in the arena
const worstCoord = -59.123456789012344

func worstPlayer(i int) PlayerState {
	v := geom.V(worstCoord, worstCoord, worstCoord)
	return PlayerState{
		PlayerID: 1_000_000 + i,
		Position: v,
		Rotation: v,
		Velocity: v,
		Health:   100,
		IsAlive:  true,
	}
}

// RosterSize returns the encoded size of the largest GameState or JoinAck
// a host with the given number of players can produce.
func RosterSize(c Codec, players int) (int, error) {
	states := make([]PlayerState, players)
	scores := make([]Score, players)
	for i := range states {
		states[i] = worstPlayer(i)
		scores[i] = Score{PlayerID: states[i].PlayerID, Kills: 99999, Deaths: 99999}
	}
	ticket := make([]byte, ticketReserve)
	for i := range ticket {
		ticket[i] = 'x'
	}

	gs, err := c.Encode(GameState{Tick: 1 << 40, Players: states, Scores: scores})
	if err != nil {
		return 0, err
	}
	ack, err := c.Encode(JoinAck{PlayerID: 1_000_000, ExistingPlayers: states, Ticket: string(ticket)})
	if err != nil {
		return 0, err
	}
	if len(ack) > len(gs) {
		return len(ack), nil
	}
	return len(gs), nil
}

// MaxRoster returns the most players whose full-roster messages still fit
// in a datagram of limit bytes.
func MaxRoster(c Codec, limit int) int {
	n := 0
	for {
		size, err := RosterSize(c, n+1)
		if err != nil || size > limit {
			return n
		}
		n++
	}
}
