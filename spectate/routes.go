package spectate

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"arenacore/stats"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Board is the slice of the stats store the leaderboard route needs
type Board interface {
	Leaderboard(matchID, orderBy string, limit int) ([]stats.LeaderboardEntry, error)
}

// Routes builds the spectator HTTP API. A nil board disables the
// leaderboard.
func Routes(hub *Hub, board Board, matchID string) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("spectate: upgrade error: %v", err)
			return
		}
		v := newViewer(hub, conn)
		select {
		case hub.register <- v:
		case <-hub.done:
			conn.Close()
			return
		}

		go v.writePump()
		go v.readPump()
	}).Methods("GET")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"match":   matchID,
			"viewers": hub.Viewers(),
		})
	}).Methods("GET")

	router.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if board == nil {
			http.Error(w, "stats disabled", http.StatusServiceUnavailable)
			return
		}
		limit := defaultLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		entries, err := board.Leaderboard(matchID, r.URL.Query().Get("sort"), limit)
		if err != nil {
			log.Printf("spectate: leaderboard: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []stats.LeaderboardEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}).Methods("GET")

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("spectate: write response: %v", err)
	}
}
