// internal/handlers/lobby.go
package handlers

import (
	"net/http"
)

// CreateLobbyHandler creates an ephemeral lobby and joins the creating
// player, who becomes its first (and leading) member.
func CreateLobbyHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}

		l, err := gs.Lobbies.Create()
		if err != nil {
			writeError(w, err)
			return
		}
		l, err = gs.Lobbies.Join(l.ID, username)
		if err != nil {
			writeError(w, err)
			return
		}

		gs.Log.WithField("lobby_id", l.ID).Infof("lobby created by %s", username)
		writeJSON(w, l)
	}
}

// ConnectToLobbyHandler joins a second player into an awaiting lobby.
func ConnectToLobbyHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}
		username := r.URL.Query().Get("username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}

		l, err := gs.Lobbies.Join(id, username)
		if err != nil {
			writeError(w, err)
			return
		}

		gs.Hub.BroadcastLobby(l)
		writeJSON(w, l)
	}
}

// RemovePlayerHandler removes a player; the lobby dissolves when the last
// player leaves.
func RemovePlayerHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}
		username := r.URL.Query().Get("username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}

		l, err := gs.Lobbies.Leave(id, username)
		if err != nil {
			writeError(w, err)
			return
		}

		gs.Hub.BroadcastLobby(l)
		writeJSON(w, l)
	}
}

// StartGameHandler moves a full lobby into its game round.
func StartGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}

		l, err := gs.Lobbies.StartGame(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, l)
	}
}

// FinishGameHandler closes a started round.
func FinishGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}

		l, err := gs.Lobbies.FinishGame(id)
		if err != nil {
			writeError(w, err)
			return
		}

		gs.Hub.BroadcastLobby(l)
		writeJSON(w, l)
	}
}

// LobbyInfoHandler reports lobby state. Unknown ids are not an error; the
// response is a NotExists sentinel for the requested id.
func LobbyInfoHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		writeJSON(w, gs.Lobbies.Get(id))
	}
}
