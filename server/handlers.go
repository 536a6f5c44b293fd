package server

import (
	"log"
	"net"
	"time"

	"github.com/pkg/errors"

	"arenacore/protocol"
	"arenacore/session"
)

func (s *Server) handleJoin(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	join := msg.(protocol.Join)

	// a lost ack makes the peer retry; answer again with the same id
	if e, ok := s.reg.ByAddr(from); ok {
		s.conn.Send(from, s.joinAck(e))
		return
	}

	if s.opts.Password != nil {
		if !s.opts.Limiter.Allow(from.String(), now) {
			s.conn.Send(from, protocol.JoinReject{Reason: "too many attempts"})
			return
		}
		if !s.opts.Password.Check(join.Password) {
			log.Printf("server: wrong password from %s", from)
			s.conn.Send(from, protocol.JoinReject{Reason: "wrong password"})
			return
		}
	}

	e, err := s.admit(from, join.Ticket, now)
	if err != nil {
		log.Printf("server: rejecting %s: %v", from, err)
		s.conn.Send(from, protocol.JoinReject{Reason: err.Error()})
		return
	}

	if s.opts.Tickets != nil {
		if e.Ticket, err = s.opts.Tickets.Issue(e.ID()); err != nil {
			log.Printf("server: ticket for player %d: %v", e.ID(), err)
		}
	}
	log.Printf("server: player %d joined from %s", e.ID(), from)

	// ack first so the new peer knows everyone before anyone hears of it
	s.conn.Send(from, s.joinAck(e))
	notice := protocol.Join{PlayerID: e.ID()}
	s.broadcast(notice, e.ID())
	s.emit(notice)
}

// admit registers from, reclaiming a ticketed id when possible
func (s *Server) admit(from *net.UDPAddr, ticket string, now time.Time) (*session.Entry, error) {
	spawn := s.opts.Arena.SpawnPoint()
	if ticket != "" && s.opts.Tickets != nil {
		id, err := s.opts.Tickets.Verify(ticket)
		if err == nil {
			e, err := s.reg.Reclaim(from, id, now, spawn)
			if err == nil {
				return e, nil
			}
			if errors.Is(err, session.ErrFull) {
				return nil, err
			}
			log.Printf("server: cannot reclaim player %d for %s: %v", id, from, err)
		} else {
			log.Printf("server: ignoring ticket from %s: %v", from, err)
		}
	}
	e, _, err := s.reg.Join(from, now, spawn)
	return e, err
}

// joinAck lists every player, the new one included so it learns its spawn
// point.
func (s *Server) joinAck(e *session.Entry) protocol.JoinAck {
	return protocol.JoinAck{
		PlayerID:        e.ID(),
		ExistingPlayers: s.reg.Snapshot(),
		Ticket:          e.Ticket,
	}
}

func (s *Server) handleState(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	e, ok := s.sender(from, msg.Kind())
	if !ok {
		return
	}
	up := msg.(protocol.StateUpdate)
	s.reg.Merge(e.ID(), up.PlayerState, up.Seq, s.opts.StrictOrdering)
}

func (s *Server) handleSpawn(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	e, ok := s.sender(from, msg.Kind())
	if !ok {
		return
	}
	req := msg.(protocol.ProjectileSpawn)
	if !e.Player.Alive() {
		return
	}
	w, err := s.opts.Armory.Lookup(req.Weapon)
	if err != nil {
		log.Printf("server: player %d: %v", e.ID(), err)
		return
	}
	if req.Direction.LenSq() == 0 {
		return
	}
	spawn, ok := s.spawn(e.ID(), w, req.Position, req.Direction)
	if !ok {
		return
	}
	s.broadcast(spawn, e.ID())
	s.emit(spawn)
}

func (s *Server) handleLeave(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	e, ok := s.sender(from, msg.Kind())
	if !ok {
		return
	}
	log.Printf("server: player %d left", e.ID())
	s.removePeer(e.ID())
}

// removePeer handles both Leave and timeouts
func (s *Server) removePeer(id int) {
	if _, ok := s.reg.Remove(id); !ok {
		return
	}
	leave := protocol.Leave{PlayerID: id}
	s.broadcast(leave, -1)
	s.emit(leave)
}

func (s *Server) handleHeartbeat(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	if _, ok := s.sender(from, msg.Kind()); !ok {
		return
	}
	s.conn.Send(from, protocol.HeartbeatAck{Sent: msg.(protocol.Heartbeat).Sent})
}

// dropClientBound ignores kinds only the host may send
func (s *Server) dropClientBound(from *net.UDPAddr, msg protocol.Message, now time.Time) {
	if s.warnOnce(from.String() + "/" + string(msg.Kind())) {
		log.Printf("server: dropping host-only %s from %s", msg.Kind(), from)
	}
}
