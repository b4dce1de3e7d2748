// internal/lobby/errors.go
package lobby

import "errors"

var (
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrPlayerNotInLobby = errors.New("player is not in lobby")
	ErrNotEnoughPlayers = errors.New("not enough players in lobby to start game")
	ErrGameNotStarted   = errors.New("game has not been started")

	// ErrIDSpaceExhausted is returned when Create cannot find a free id
	// within the retry cap. With ~999k ids this indicates id-space pressure,
	// not bad luck.
	ErrIDSpaceExhausted = errors.New("exhausted lobby id generation attempts")
)
