// internal/media/paths.go
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Role names a class of derived part files within a lobby directory.
type Role string

const (
	RoleSourceReversed Role = "source_reversed"
	RolePlayerReversed Role = "player_reversed"
)

// Fixed per-lobby file names. Part existence on disk is the only persisted
// state of media assets; there is no metadata record anywhere else.
const (
	sourceName         = "source.wav"
	sourceReversedName = "source_reversed.wav"
	playerReversedName = "player_reversed.wav"
	playerName         = "player.wav"
)

// Part name format, shared by the resolver, the ffmpeg segment template and
// the sequencer's directory scan. This is the single source of truth: a part
// written under this format must always be found by ScanPrefix/ParsePartIndex.
const (
	partIndexWidth   = 3
	partIndexFormat  = "%03d"
	partNameTemplate = "%s_part_" + partIndexFormat + ".wav"
)

// Paths resolves per-lobby media locations under a root directory.
// Resolution is pure except that the lobby directory is created on access.
type Paths struct {
	Root string
}

// LobbyDir returns <root>/game/<lobbyID>/, creating it if absent.
func (p Paths) LobbyDir(lobbyID int) (string, error) {
	dir := filepath.Join(p.Root, "game", strconv.Itoa(lobbyID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create lobby dir: %w", err)
	}
	return dir, nil
}

// Source is the uploaded original recording of player one.
func (p Paths) Source(lobbyID int) (string, error) {
	return p.fixed(lobbyID, sourceName)
}

// SourceReversed is the time-reversed rendition of the source.
func (p Paths) SourceReversed(lobbyID int) (string, error) {
	return p.fixed(lobbyID, sourceReversedName)
}

// PlayerReversed is the concatenation of player two's recorded parts,
// still in reversed order.
func (p Paths) PlayerReversed(lobbyID int) (string, error) {
	return p.fixed(lobbyID, playerReversedName)
}

// Player is the final un-reversed performance of player two.
func (p Paths) Player(lobbyID int) (string, error) {
	return p.fixed(lobbyID, playerName)
}

// Part resolves one numbered chunk for a role.
func (p Paths) Part(lobbyID int, role Role, n int) (string, error) {
	dir, err := p.LobbyDir(lobbyID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf(partNameTemplate, role, n)), nil
}

// SegmentTemplate returns the printf-style output pattern handed to the
// segmenting tool, e.g. ".../source_reversed_part_%03d.wav". It derives from
// the same partNameTemplate the sequencer scans for.
func (p Paths) SegmentTemplate(lobbyID int, role Role) (string, error) {
	dir, err := p.LobbyDir(lobbyID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ScanPrefix(role)+partIndexFormat+".wav"), nil
}

func (p Paths) fixed(lobbyID int, name string) (string, error) {
	dir, err := p.LobbyDir(lobbyID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ScanPrefix is the filename prefix common to every part of a role.
func ScanPrefix(role Role) string {
	return string(role) + "_part_"
}

// ParsePartIndex extracts the numeric index from a part filename of the
// given role. The second return is false when the name does not belong to
// the role's part family.
func ParsePartIndex(name string, role Role) (int, bool) {
	prefix := ScanPrefix(role)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".wav") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".wav")
	if len(digits) < partIndexWidth {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
