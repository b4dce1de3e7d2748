// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/apogue/apogue/internal/media"
)

// Service composes driver primitives into the two game pipelines:
// preparing the reversed source for player two, and assembling player
// two's reply back into natural order.
type Service struct {
	driver Driver
	paths  media.Paths
	seq    *media.Sequencer
	log    *logrus.Logger
}

func NewService(driver Driver, paths media.Paths, seq *media.Sequencer, log *logrus.Logger) *Service {
	return &Service{driver: driver, paths: paths, seq: seq, log: log}
}

// Driver exposes the underlying audio capability, e.g. for duration probes.
func (s *Service) Driver() Driver {
	return s.driver
}

// ReverseSource reverses the uploaded source recording and segments the
// result into fixed-length parts. Re-invocation overwrites the derived
// files; given the same source it produces identical output.
func (s *Service) ReverseSource(ctx context.Context, lobbyID int) error {
	src, err := s.paths.Source(lobbyID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w %d", media.ErrSourceAudioMissing, lobbyID)
	}

	reversed, err := s.paths.SourceReversed(lobbyID)
	if err != nil {
		return err
	}
	if err := s.driver.Reverse(ctx, src, reversed); err != nil {
		return fmt.Errorf("reverse source: %w", err)
	}

	tmpl, err := s.paths.SegmentTemplate(lobbyID, media.RoleSourceReversed)
	if err != nil {
		return err
	}
	if err := s.driver.Segment(ctx, reversed, tmpl, s.seq.ChunkSeconds()); err != nil {
		return fmt.Errorf("segment reversed source: %w", err)
	}

	s.log.WithField("lobby_id", lobbyID).Info("source reversed and segmented")
	return nil
}

// FinishPlayerRecording concatenates every uploaded player part in
// ascending order and reverses the result, undoing the reversal the player
// heard and recovering their natural-order performance. With no parts
// uploaded it fails before any filesystem write.
func (s *Service) FinishPlayerRecording(ctx context.Context, lobbyID int) error {
	parts, err := s.seq.AllParts(lobbyID, media.RolePlayerReversed)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return fmt.Errorf("%w: lobby %d has no player parts", media.ErrNoPartsAvailable, lobbyID)
	}

	concatenated, err := s.paths.PlayerReversed(lobbyID)
	if err != nil {
		return err
	}
	if err := s.driver.Concat(ctx, parts, concatenated); err != nil {
		return fmt.Errorf("concatenate player parts: %w", err)
	}

	final, err := s.paths.Player(lobbyID)
	if err != nil {
		return err
	}
	if err := s.driver.Reverse(ctx, concatenated, final); err != nil {
		return fmt.Errorf("reverse player recording: %w", err)
	}

	s.log.WithFields(logrus.Fields{"lobby_id": lobbyID, "parts": len(parts)}).
		Info("player recording assembled")
	return nil
}

// ExpectedParts reports how many chunks the lobby's source will yield.
// The source must already be uploaded.
func (s *Service) ExpectedParts(ctx context.Context, lobbyID int) (int, error) {
	src, err := s.paths.Source(lobbyID)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(src); err != nil {
		return 0, fmt.Errorf("%w %d", media.ErrSourceAudioMissing, lobbyID)
	}
	return s.seq.ExpectedParts(ctx, s.driver, src)
}
