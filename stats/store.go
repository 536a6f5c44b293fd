// Package stats persists matches, kills and per-player totals in SQLite.
package stats

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database connection
type Store struct {
	conn *sql.DB
}

// Kill is one lethal hit
type Kill struct {
	MatchID  string
	Attacker int
	Target   int
	Weapon   string
	At       time.Time
}

// Total is a player's counters within one match
type Total struct {
	PlayerID int `json:"player_id"`
	Kills    int `json:"kills"`
	Deaths   int `json:"deaths"`
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	Total
}

// OpenDB opens (or creates) the database at path
func OpenDB(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// a single writer avoids SQLITE_BUSY between the recorder and queries
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enable WAL")
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS kills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(id),
		attacker INTEGER NOT NULL,
		target INTEGER NOT NULL,
		weapon TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_totals (
		match_id TEXT NOT NULL REFERENCES matches(id),
		player_id INTEGER NOT NULL,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE INDEX IF NOT EXISTS idx_kills_match ON kills(match_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// BeginMatch records a new match and returns its id
func (s *Store) BeginMatch() (string, error) {
	id := uuid.NewString()
	_, err := s.conn.Exec(
		"INSERT INTO matches (id, started_at) VALUES (?, ?)",
		id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", errors.Wrap(err, "begin match")
	}
	return id, nil
}

// EndMatch stamps the match as finished
func (s *Store) EndMatch(id string) error {
	_, err := s.conn.Exec(
		"UPDATE matches SET ended_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), id,
	)
	return errors.Wrap(err, "end match")
}

// RecordKills writes a batch in one transaction and updates the totals. A
// kill where attacker and target are the same player only counts a death.
func (s *Store) RecordKills(kills []Kill) error {
	if len(kills) == 0 {
		return nil
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	insert, err := tx.Prepare(`INSERT INTO kills (match_id, attacker, target, weapon, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare kill insert")
	}
	defer insert.Close()
	addKill, err := tx.Prepare(`INSERT INTO player_totals (match_id, player_id, kills) VALUES (?, ?, 1)
		ON CONFLICT(match_id, player_id) DO UPDATE SET kills = kills + 1`)
	if err != nil {
		return errors.Wrap(err, "prepare kill total")
	}
	defer addKill.Close()
	addDeath, err := tx.Prepare(`INSERT INTO player_totals (match_id, player_id, deaths) VALUES (?, ?, 1)
		ON CONFLICT(match_id, player_id) DO UPDATE SET deaths = deaths + 1`)
	if err != nil {
		return errors.Wrap(err, "prepare death total")
	}
	defer addDeath.Close()

	for _, k := range kills {
		at := k.At
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := insert.Exec(k.MatchID, k.Attacker, k.Target, k.Weapon, at.UTC().Format(time.RFC3339)); err != nil {
			return errors.Wrap(err, "insert kill")
		}
		if k.Attacker != k.Target {
			if _, err := addKill.Exec(k.MatchID, k.Attacker); err != nil {
				return errors.Wrap(err, "count kill")
			}
		}
		if _, err := addDeath.Exec(k.MatchID, k.Target); err != nil {
			return errors.Wrap(err, "count death")
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Totals returns every player's counters for a match sorted by id
func (s *Store) Totals(matchID string) ([]Total, error) {
	rows, err := s.conn.Query(`SELECT player_id, kills, deaths FROM player_totals
		WHERE match_id = ? ORDER BY player_id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Total
	for rows.Next() {
		var t Total
		if err := rows.Scan(&t.PlayerID, &t.Kills, &t.Deaths); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// KillCount returns how many kills were recorded for a match
func (s *Store) KillCount(matchID string) (int, error) {
	var n int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM kills WHERE match_id = ?", matchID).Scan(&n)
	return n, err
}

// Leaderboard ranks a match's players by the given field: kills, deaths or
// kd. Anything else ranks by kills.
func (s *Store) Leaderboard(matchID, orderBy string, limit int) ([]LeaderboardEntry, error) {
	validCols := map[string]string{
		"kills":  "kills DESC, deaths ASC",
		"deaths": "deaths DESC, kills ASC",
		"kd":     "CASE WHEN deaths > 0 THEN CAST(kills AS REAL)/deaths ELSE kills END DESC, kills DESC",
	}
	order, ok := validCols[orderBy]
	if !ok {
		order = validCols["kills"]
	}

	query := `SELECT player_id, kills, deaths FROM player_totals
		WHERE match_id = ?
		ORDER BY ` + order + `, player_id ASC LIMIT ?`
	rows, err := s.conn.Query(query, matchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Kills, &e.Deaths); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}
