// internal/media/sequencer.go
package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// Prober reads the duration of an audio file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type partKey struct {
	lobbyID int
	role    Role
}

// Sequencer assigns contiguous zero-based part indices per (lobby, role).
//
// Index assignment is serialized through an in-memory counter: the first
// request for a key seeds the counter from a directory scan, every later
// request increments it under the lock. Concurrent uploads therefore never
// compute the same "next" index, which a rescan-per-request scheme would
// allow.
type Sequencer struct {
	paths          Paths
	chunkSeconds   int
	allowOverwrite bool

	mu   sync.Mutex
	next map[partKey]int
}

func NewSequencer(paths Paths, chunkSeconds int, allowOverwrite bool) *Sequencer {
	return &Sequencer{
		paths:          paths,
		chunkSeconds:   chunkSeconds,
		allowOverwrite: allowOverwrite,
		next:           make(map[partKey]int),
	}
}

// ChunkSeconds is the fixed part length the sequencer plans for.
func (s *Sequencer) ChunkSeconds() int {
	return s.chunkSeconds
}

// NextIndex allocates the next unclaimed part index for the key and returns
// the resolved path the part must be written to.
func (s *Sequencer) NextIndex(lobbyID int, role Role) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.nextLocked(lobbyID, role)
	if err != nil {
		return 0, "", err
	}
	path, err := s.paths.Part(lobbyID, role, n)
	if err != nil {
		return 0, "", err
	}
	s.next[partKey{lobbyID, role}] = n + 1
	return n, path, nil
}

// Claim reserves an explicit part index chosen by the uploader. Negative
// indices are rejected before any I/O; re-claiming an index whose file
// already exists is a policy decision (allowOverwrite).
func (s *Sequencer) Claim(lobbyID int, role Role, n int) (string, error) {
	if n < 0 {
		return "", ErrInvalidPartIndex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.paths.Part(lobbyID, role, n)
	if err != nil {
		return "", err
	}
	if !s.allowOverwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: part %d of lobby %d", ErrPartExists, n, lobbyID)
		}
	}

	key := partKey{lobbyID, role}
	cur, seeded := s.next[key]
	if !seeded {
		cur, err = s.highestOnDisk(lobbyID, role)
		if err != nil {
			return "", err
		}
	}
	if n+1 > cur {
		s.next[key] = n + 1
	} else if !seeded {
		s.next[key] = cur
	}
	return path, nil
}

// AllParts lists the existing parts for a key in ascending index order.
func (s *Sequencer) AllParts(lobbyID int, role Role) ([]string, error) {
	dir, err := s.paths.LobbyDir(lobbyID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list lobby dir: %w", err)
	}

	type part struct {
		index int
		name  string
	}
	var parts []part
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := ParsePartIndex(e.Name(), role); ok {
			parts = append(parts, part{n, e.Name()})
		}
	}
	// Sort by parsed index; directory listing order is not trusted.
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		full, err := s.paths.Part(lobbyID, role, p.index)
		if err != nil {
			return nil, err
		}
		paths = append(paths, full)
	}
	return paths, nil
}

// ExpectedParts computes how many chunks a source file will segment into.
func (s *Sequencer) ExpectedParts(ctx context.Context, prober Prober, audioPath string) (int, error) {
	duration, err := prober.Duration(ctx, audioPath)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	return int(math.Ceil(duration / float64(s.chunkSeconds))), nil
}

// highestOnDisk returns one past the highest existing part index, 0 when no
// parts exist. Caller holds the lock.
func (s *Sequencer) highestOnDisk(lobbyID int, role Role) (int, error) {
	dir, err := s.paths.LobbyDir(lobbyID)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list lobby dir: %w", err)
	}

	next := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := ParsePartIndex(e.Name(), role); ok && n+1 > next {
			next = n + 1
		}
	}
	return next, nil
}

func (s *Sequencer) nextLocked(lobbyID int, role Role) (int, error) {
	key := partKey{lobbyID, role}
	if n, ok := s.next[key]; ok {
		return n, nil
	}
	n, err := s.highestOnDisk(lobbyID, role)
	if err != nil {
		return 0, err
	}
	return n, nil
}
