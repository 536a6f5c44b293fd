package stats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenDB(filepath.Join(t.TempDir(), "arena.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordKillsUpdatesTotals(t *testing.T) {
	s := openTemp(t)
	match, err := s.BeginMatch()
	require.NoError(t, err)
	require.Len(t, match, 36)

	require.NoError(t, s.RecordKills([]Kill{
		{MatchID: match, Attacker: 1, Target: 0, Weapon: "secondary"},
		{MatchID: match, Attacker: 1, Target: 2, Weapon: "primary"},
		{MatchID: match, Attacker: 0, Target: 1, Weapon: "spread"},
		{MatchID: match, Attacker: 2, Target: 2, Weapon: "secondary"}, // own splash
	}))

	totals, err := s.Totals(match)
	require.NoError(t, err)
	assert.Equal(t, []Total{
		{PlayerID: 0, Kills: 1, Deaths: 1},
		{PlayerID: 1, Kills: 2, Deaths: 1},
		{PlayerID: 2, Kills: 0, Deaths: 2},
	}, totals)

	n, err := s.KillCount(match)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, s.EndMatch(match))
}

func TestMatchesAreSeparate(t *testing.T) {
	s := openTemp(t)
	a, _ := s.BeginMatch()
	b, _ := s.BeginMatch()
	require.NotEqual(t, a, b)

	require.NoError(t, s.RecordKills([]Kill{{MatchID: a, Attacker: 1, Target: 2}}))
	totals, err := s.Totals(b)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestLeaderboard(t *testing.T) {
	s := openTemp(t)
	m, _ := s.BeginMatch()
	var kills []Kill
	for i := 0; i < 3; i++ {
		kills = append(kills, Kill{MatchID: m, Attacker: 2, Target: 1})
	}
	kills = append(kills, Kill{MatchID: m, Attacker: 1, Target: 2}, Kill{MatchID: m, Attacker: 3, Target: 2})
	require.NoError(t, s.RecordKills(kills))

	board, err := s.Leaderboard(m, "kills", 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, 2, board[0].PlayerID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 3, board[1].PlayerID, "tie on kills goes to fewer deaths")
	assert.Equal(t, 1, board[2].PlayerID)

	top, err := s.Leaderboard(m, "bogus", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].PlayerID)
}

func TestRecorderFlushesOnStop(t *testing.T) {
	s := openTemp(t)
	m, _ := s.BeginMatch()
	r := NewRecorder(s, m)

	for i := 0; i < 120; i++ {
		r.RecordKill(1, 2, "primary")
	}
	r.Stop()
	r.Stop()
	r.RecordKill(1, 2, "primary") // after stop, ignored

	n, err := s.KillCount(m)
	require.NoError(t, err)
	assert.Equal(t, 120, n)
	assert.Zero(t, r.Dropped())
}
