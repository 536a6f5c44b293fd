package stats

import (
	"log"
	"sync"
	"time"
)

const (
	recorderBuffer = 1024
	flushSize      = 50
	flushEvery     = time.Second
)

// Recorder batches kills onto a background writer so the tick never waits
// on the database. It satisfies server.StatsSink.
type Recorder struct {
	store   *Store
	matchID string
	kills   chan Kill
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	mu      sync.Mutex
	dropped int
}

// NewRecorder creates and starts the background writer for one match
func NewRecorder(store *Store, matchID string) *Recorder {
	r := &Recorder{
		store:   store,
		matchID: matchID,
		kills:   make(chan Kill, recorderBuffer),
		stop:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// MatchID returns the match kills are recorded against
func (r *Recorder) MatchID() string {
	return r.matchID
}

// RecordKill enqueues a kill (non-blocking)
func (r *Recorder) RecordKill(attacker, target int, weapon string) {
	select {
	case <-r.stop:
		return
	default:
	}
	select {
	case r.kills <- Kill{MatchID: r.matchID, Attacker: attacker, Target: target, Weapon: weapon, At: time.Now()}:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
	}
}

// Dropped returns how many kills were lost to a full buffer
func (r *Recorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Stop flushes what is queued and waits for the writer. The channel is
// never closed, so a late RecordKill cannot panic.
func (r *Recorder) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]Kill, 0, flushSize)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	for {
		select {
		case k := <-r.kills:
			batch = append(batch, k)
			if len(batch) >= flushSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			r.flush(batch)
			batch = batch[:0]
		case <-r.stop:
			for {
				select {
				case k := <-r.kills:
					batch = append(batch, k)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *Recorder) flush(batch []Kill) {
	if len(batch) == 0 {
		return
	}
	if err := r.store.RecordKills(batch); err != nil {
		log.Printf("stats: dropping %d kills: %v", len(batch), err)
	}
}
