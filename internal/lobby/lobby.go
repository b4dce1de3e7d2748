// internal/lobby/lobby.go
package lobby

import (
	"math/rand/v2"
)

// NeedPlayers is the exact lobby capacity; the game pairs two players.
const NeedPlayers = 2

const (
	MinID = 1_000
	MaxID = 999_999
)

// State describes where a lobby is in its lifecycle.
type State string

const (
	StateNotExists       State = "NotExists"
	StateAwaitingPlayers State = "AwaitingPlayers"
	StateReadyToPlay     State = "ReadyToPlay"
	StateGameStarted     State = "GameStarted"
	StateGameFinished    State = "GameFinished"
)

// Lobby is a session pairing exactly two players for one round.
// Players are kept in join order. An empty Leader means no leader is set.
//
// Lobbies are ephemeral: they live in a Registry for the lifetime of the
// process and identity is the ID alone, never structural equality.
type Lobby struct {
	ID      int      `json:"id"`
	State   State    `json:"state"`
	Players []string `json:"players"`
	Leader  string   `json:"leader,omitempty"`
}

// RandomID picks a candidate lobby id. Collisions against live lobbies are
// handled by the Registry; the source does not need to be cryptographic.
func RandomID() int {
	return MinID + rand.IntN(MaxID-MinID+1)
}

// CanStartGame reports whether the lobby is full and waiting to begin.
func (l *Lobby) CanStartGame() bool {
	return l.State == StateReadyToPlay
}

// assignRandomLeader picks a leader uniformly among current players, or
// clears the leader when nobody is left.
func (l *Lobby) assignRandomLeader() {
	if len(l.Players) == 0 {
		l.Leader = ""
		return
	}
	l.Leader = l.Players[rand.IntN(len(l.Players))]
}

// snapshot returns a copy safe to hand outside the registry lock.
func (l *Lobby) snapshot() Lobby {
	cp := *l
	cp.Players = append([]string{}, l.Players...)
	return cp
}
