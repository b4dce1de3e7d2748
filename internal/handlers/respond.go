// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/apogue/apogue/internal/lobby"
	"github.com/apogue/apogue/internal/media"
)

// ErrUnsupportedMediaType rejects uploads that are not uncompressed wave.
var ErrUnsupportedMediaType = errors.New("unsupported media type, expected audio/wav or audio/x-wav")

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Anything outside
// the known taxonomy is a 500.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, lobby.ErrLobbyNotFound),
		errors.Is(err, media.ErrSourceAudioMissing),
		errors.Is(err, media.ErrPartNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrUnsupportedMediaType):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, media.ErrPartExists):
		code = http.StatusConflict
	case errors.Is(err, lobby.ErrLobbyFull),
		errors.Is(err, lobby.ErrPlayerNotInLobby),
		errors.Is(err, lobby.ErrNotEnoughPlayers),
		errors.Is(err, lobby.ErrGameNotStarted),
		errors.Is(err, media.ErrInvalidPartIndex),
		errors.Is(err, media.ErrNoPartsAvailable):
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), code)
}

// queryLobbyID reads the lobby_id query parameter.
func queryLobbyID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("lobby_id"))
	return id, err == nil
}

// pathLobbyID reads the {lobby_id} path segment.
func pathLobbyID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("lobby_id"))
	return id, err == nil
}
