// internal/lobby/registry.go
package lobby

import (
	"sync"
)

// maxCreateAttempts caps random id generation; past this Create fails
// loudly instead of spinning.
const maxCreateAttempts = 100

// Registry manages ephemeral lobbies in memory only. All mutating
// operations are atomic with respect to each other under one mutex;
// contention is expected to be low.
type Registry struct {
	mu      sync.Mutex
	lobbies map[int]*Lobby

	// OnGameStarted, if set, runs after a lobby enters GameStarted. It is
	// the extension point for per-player game-start behavior; the registry
	// itself performs no game-flow branching. Called outside the lock.
	OnGameStarted func(Lobby)
}

// NewRegistry returns an in-memory registry for lobbies.
func NewRegistry() *Registry {
	return &Registry{
		lobbies: make(map[int]*Lobby),
	}
}

// Create inserts a fresh empty lobby under a random unclaimed id.
// The caller is expected to immediately Join the creating player.
func (r *Registry) Create() (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range maxCreateAttempts {
		id := RandomID()
		if _, taken := r.lobbies[id]; taken {
			continue
		}
		l := &Lobby{ID: id, State: StateAwaitingPlayers}
		r.lobbies[id] = l
		return l.snapshot(), nil
	}
	return Lobby{}, ErrIDSpaceExhausted
}

// Get returns the registered lobby, or a NotExists sentinel carrying the
// requested id. It never fails: an unknown id is a normal lookup result.
func (r *Registry) Get(id int) Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.lobbies[id]; ok {
		return l.snapshot()
	}
	return Lobby{ID: id, State: StateNotExists, Players: []string{}}
}

// Join appends a player to the lobby. A lobby only accepts players while
// AwaitingPlayers; a full (or started) lobby rejects the join untouched.
func (r *Registry) Join(id int, player string) (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.State != StateAwaitingPlayers || len(l.Players) >= NeedPlayers {
		return Lobby{}, ErrLobbyFull
	}

	l.Players = append(l.Players, player)
	if l.Leader == "" {
		l.State = StateAwaitingPlayers
		l.assignRandomLeader()
	}
	if len(l.Players) == NeedPlayers {
		l.State = StateReadyToPlay
	}
	return l.snapshot(), nil
}

// Leave removes a player. The last player leaving destroys the lobby:
// it becomes NotExists and unreachable; a later Get on the same id
// yields a fresh sentinel.
func (r *Registry) Leave(id int, player string) (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}

	idx := -1
	for i, p := range l.Players {
		if p == player {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Lobby{}, ErrPlayerNotInLobby
	}

	l.Players = append(l.Players[:idx], l.Players[idx+1:]...)
	l.State = StateAwaitingPlayers

	if l.Leader == player {
		l.assignRandomLeader()
	}

	if len(l.Players) == 0 {
		l.State = StateNotExists
		delete(r.lobbies, id)
	}
	return l.snapshot(), nil
}

// StartGame transitions a full lobby into GameStarted. Exactly one call
// succeeds per round; repeat calls fail because the state has moved on.
func (r *Registry) StartGame(id int) (Lobby, error) {
	r.mu.Lock()

	l, ok := r.lobbies[id]
	if !ok {
		r.mu.Unlock()
		return Lobby{}, ErrLobbyNotFound
	}
	if !l.CanStartGame() {
		r.mu.Unlock()
		return Lobby{}, ErrNotEnoughPlayers
	}
	l.State = StateGameStarted
	snap := l.snapshot()
	hook := r.OnGameStarted
	r.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	return snap, nil
}

// FinishGame marks a started round as over. The lobby stays registered so
// players can inspect the result or leave at their own pace.
func (r *Registry) FinishGame(id int) (Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return Lobby{}, ErrLobbyNotFound
	}
	if l.State != StateGameStarted {
		return Lobby{}, ErrGameNotStarted
	}
	l.State = StateGameFinished
	return l.snapshot(), nil
}

// Len reports how many lobbies are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}
