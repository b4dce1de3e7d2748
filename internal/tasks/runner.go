// internal/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State of a background task.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Handle identifies one dispatched unit of background work. Requests that
// trigger pipeline work get a Handle back immediately; the work itself
// finishes later, and Status exposes the outcome for polling.
type Handle struct {
	ID         uuid.UUID  `json:"id"`
	LobbyID    int        `json:"lobby_id"`
	Name       string     `json:"name"`
	State      State      `json:"state"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type lobbyRecord struct {
	last    Handle
	lastErr error
}

// Runner dispatches fire-and-forget work on goroutines while keeping the
// latest handle and last error per lobby, so failures inside background
// pipeline calls are never silently discarded.
type Runner struct {
	log     *logrus.Logger
	timeout time.Duration

	mu      sync.Mutex
	byLobby map[int]*lobbyRecord
	wg      sync.WaitGroup
}

func NewRunner(timeout time.Duration, log *logrus.Logger) *Runner {
	return &Runner{
		log:     log,
		timeout: timeout,
		byLobby: make(map[int]*lobbyRecord),
	}
}

// Submit runs fn on its own goroutine under a bounded context and returns
// the handle right away. The handle returned reflects the running state;
// poll Status for the final one.
func (r *Runner) Submit(lobbyID int, name string, fn func(ctx context.Context) error) Handle {
	h := Handle{
		ID:        uuid.New(),
		LobbyID:   lobbyID,
		Name:      name,
		State:     StateRunning,
		StartedAt: time.Now(),
	}

	r.mu.Lock()
	rec, ok := r.byLobby[lobbyID]
	if !ok {
		rec = &lobbyRecord{}
		r.byLobby[lobbyID] = rec
	}
	rec.last = h
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		err := fn(ctx)
		now := time.Now()

		r.mu.Lock()
		defer r.mu.Unlock()
		// A newer task for the lobby may have replaced us; only update our own handle.
		if rec.last.ID == h.ID {
			rec.last.FinishedAt = &now
			if err != nil {
				rec.last.State = StateFailed
				rec.last.Error = err.Error()
			} else {
				rec.last.State = StateDone
			}
		}
		if err != nil {
			rec.lastErr = err
			r.log.WithFields(logrus.Fields{
				"lobby_id": lobbyID,
				"task":     name,
				"task_id":  h.ID,
			}).WithError(err).Error("background task failed")
		}
	}()

	return h
}

// Status returns the most recent handle for a lobby, false when the lobby
// never ran a task.
func (r *Runner) Status(lobbyID int) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byLobby[lobbyID]
	if !ok {
		return Handle{}, false
	}
	return rec.last, true
}

// LastError returns the last background failure for a lobby, nil if none.
func (r *Runner) LastError(lobbyID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byLobby[lobbyID]; ok {
		return rec.lastErr
	}
	return nil
}

// Wait blocks until all submitted tasks have finished. Used by tests and
// graceful shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}
