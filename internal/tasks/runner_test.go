// internal/tasks/runner_test.go
package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner() *Runner {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRunner(time.Second, log)
}

func TestSubmitReturnsImmediatelyWithRunningHandle(t *testing.T) {
	r := newTestRunner()
	release := make(chan struct{})

	h := r.Submit(77, "reverse_source", func(ctx context.Context) error {
		<-release
		return nil
	})
	assert.NotEqual(t, uuid.Nil, h.ID)
	assert.Equal(t, StateRunning, h.State)
	assert.Equal(t, 77, h.LobbyID)

	close(release)
	r.Wait()

	final, ok := r.Status(77)
	require.True(t, ok)
	assert.Equal(t, StateDone, final.State)
	assert.NotNil(t, final.FinishedAt)
	assert.Empty(t, final.Error)
}

func TestFailureIsKeptForPolling(t *testing.T) {
	r := newTestRunner()
	boom := errors.New("ffmpeg exploded")

	r.Submit(77, "finish_recording", func(ctx context.Context) error {
		return boom
	})
	r.Wait()

	h, ok := r.Status(77)
	require.True(t, ok)
	assert.Equal(t, StateFailed, h.State)
	assert.Equal(t, "ffmpeg exploded", h.Error)
	assert.ErrorIs(t, r.LastError(77), boom)
}

func TestStatusUnknownLobby(t *testing.T) {
	r := newTestRunner()

	_, ok := r.Status(4242)
	assert.False(t, ok)
	assert.NoError(t, r.LastError(4242))
}

func TestLastErrorSurvivesLaterSuccess(t *testing.T) {
	r := newTestRunner()

	r.Submit(77, "first", func(ctx context.Context) error { return errors.New("first failed") })
	r.Wait()
	r.Submit(77, "second", func(ctx context.Context) error { return nil })
	r.Wait()

	h, ok := r.Status(77)
	require.True(t, ok)
	assert.Equal(t, StateDone, h.State)
	assert.Error(t, r.LastError(77), "last failure stays inspectable")
}

func TestTaskContextIsBounded(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := NewRunner(10*time.Millisecond, log)

	r.Submit(77, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r.Wait()

	h, _ := r.Status(77)
	assert.Equal(t, StateFailed, h.State)
}
