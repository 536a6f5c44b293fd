// Package auth issues reconnect tickets and guards a host with an optional
// password.
package auth

import (
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	ticketExpiry = 2 * time.Hour
	secretLen    = 32
)

var (
	ErrInvalidTicket = errors.New("invalid ticket")
	ErrWrongMatch    = errors.New("ticket belongs to another match")
)

// Tickets signs and checks reconnect tickets. A ticket binds a player id to
// one match so a peer that lost its socket can rejoin under the same id.
type Tickets struct {
	secret []byte
	match  string
	expiry time.Duration
}

// NewTickets creates a signer for match. An empty secret is replaced with
// random bytes, which invalidates tickets across host restarts.
func NewTickets(secret []byte, match string) (*Tickets, error) {
	if len(secret) == 0 {
		secret = make([]byte, secretLen)
		if _, err := rand.Read(secret); err != nil {
			return nil, errors.Wrap(err, "generate ticket secret")
		}
	}
	return &Tickets{secret: secret, match: match, expiry: ticketExpiry}, nil
}

// Match returns the match id tickets are bound to
func (t *Tickets) Match() string {
	return t.match
}

// Issue returns a signed ticket for playerID
func (t *Tickets) Issue(playerID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"pid": playerID,
		"sid": t.match,
		"exp": now.Add(t.expiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign ticket")
	}
	return s, nil
}

// Verify checks the signature, expiry and match binding and returns the
// player id the ticket was issued for.
func (t *Tickets) Verify(ticket string) (int, error) {
	token, err := jwt.Parse(ticket, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, errors.Wrap(ErrInvalidTicket, err.Error())
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidTicket
	}
	if sid, _ := claims["sid"].(string); sid != t.match {
		return 0, ErrWrongMatch
	}
	pid, ok := claims["pid"].(float64)
	if !ok {
		return 0, errors.Wrap(ErrInvalidTicket, "missing pid")
	}
	return int(pid), nil
}
