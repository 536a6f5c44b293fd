package game

// maxConsumed bounds an EventSet; older keys collapse into a floor
const maxConsumed = 4096

// EventSet remembers which HitEvent ids were already applied. Ids are
// issued in increasing order, so once the set is full everything at or
// below a floor is treated as seen.
type EventSet struct {
	seen  map[uint64]struct{}
	floor uint64
}

// NewEventSet creates an empty set
func NewEventSet() *EventSet {
	return &EventSet{seen: make(map[uint64]struct{})}
}

// Consume marks id as seen and reports whether it was new
func (s *EventSet) Consume(id uint64) bool {
	if id <= s.floor {
		return false
	}
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = struct{}{}
	if len(s.seen) > maxConsumed {
		s.prune()
	}
	return true
}

func (s *EventSet) prune() {
	var max uint64
	for id := range s.seen {
		if id > max {
			max = id
		}
	}
	s.floor = max - maxConsumed/2
	for id := range s.seen {
		if id <= s.floor {
			delete(s.seen, id)
		}
	}
}
