package auth

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost hashes join passwords; Check runs on the tick goroutine
	DefaultCost     = bcrypt.DefaultCost
	joinRateWindow  = 60 * time.Second
	maxJoinAttempts = 10
)

// Password is a bcrypt-hashed host password
type Password struct {
	hash []byte
}

// NewPassword hashes plain with the given bcrypt cost
func NewPassword(plain string, cost int) (*Password, error) {
	if plain == "" {
		return nil, errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return &Password{hash: hash}, nil
}

// Check reports whether plain matches
func (p *Password) Check(plain string) bool {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(plain)) == nil
}

// Limiter caps password attempts per key (the sender address) within a
// sliding window.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewLimiter creates a Limiter with the default window and attempt count
func NewLimiter() *Limiter {
	return &Limiter{
		window:  joinRateWindow,
		max:     maxJoinAttempts,
		entries: make(map[string]*rateEntry),
	}
}

// Allow records one attempt for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.ResetAt) {
		l.entries[key] = &rateEntry{Count: 1, ResetAt: now.Add(l.window)}
		return true
	}
	entry.Count++
	return entry.Count <= l.max
}
