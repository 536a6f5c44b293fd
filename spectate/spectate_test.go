package spectate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenacore/protocol"
	"arenacore/stats"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func connect(t *testing.T, srv *httptest.Server, h *Hub, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.Viewers() == want }, time.Second, 5*time.Millisecond)
	return conn
}

type envelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestViewersReceiveObservedMessages(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(Routes(h, nil, "m1"))
	defer srv.Close()

	a := connect(t, srv, h, 1)
	b := connect(t, srv, h, 2)

	h.Observe(protocol.Hit{TargetID: 0, AttackerID: 1, Damage: 100, Killed: true})
	for _, conn := range []*websocket.Conn{a, b} {
		env := read(t, conn)
		assert.Equal(t, "hit", env.T)
		var hit protocol.Hit
		require.NoError(t, json.Unmarshal(env.D, &hit))
		assert.Equal(t, 100, hit.Damage)
		assert.True(t, hit.Killed)
	}
}

func TestLateViewerGetsLatestGameState(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(Routes(h, nil, ""))
	defer srv.Close()

	first := connect(t, srv, h, 1)
	h.Observe(protocol.GameState{Tick: 42, Players: []protocol.PlayerState{{PlayerID: 0, Health: 100, IsAlive: true}}})
	assert.Equal(t, "game_state", read(t, first).T)

	late := connect(t, srv, h, 2)
	env := read(t, late)
	assert.Equal(t, "game_state", env.T)
	var gs protocol.GameState
	require.NoError(t, json.Unmarshal(env.D, &gs))
	assert.Equal(t, uint64(42), gs.Tick)
}

func TestViewerDisconnectUnregisters(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(Routes(h, nil, ""))
	defer srv.Close()

	conn := connect(t, srv, h, 1)
	conn.Close()
	assert.Eventually(t, func() bool { return h.Viewers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestObserveNeverBlocks(t *testing.T) {
	h := NewHub() // not running
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*4; i++ {
			h.Observe(protocol.Heartbeat{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked")
	}
}

func TestHealthz(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(Routes(h, nil, "m1"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "m1", body["match"])
}

func TestLeaderboard(t *testing.T) {
	store, err := stats.OpenDB(filepath.Join(t.TempDir(), "arena.db"))
	require.NoError(t, err)
	defer store.Close()
	match, err := store.BeginMatch()
	require.NoError(t, err)
	require.NoError(t, store.RecordKills([]stats.Kill{
		{MatchID: match, Attacker: 1, Target: 0},
		{MatchID: match, Attacker: 1, Target: 2},
		{MatchID: match, Attacker: 2, Target: 1},
	}))

	h := startHub(t)
	srv := httptest.NewServer(Routes(h, store, match))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/leaderboard?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []stats.LeaderboardEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].PlayerID)
	assert.Equal(t, 2, entries[0].Kills)

	bad, err := http.Get(srv.URL + "/leaderboard?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestLeaderboardDisabled(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(Routes(h, nil, ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/leaderboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
