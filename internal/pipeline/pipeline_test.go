// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apogue/apogue/internal/media"
)

// fakeDriver records invocations instead of shelling out.
type fakeDriver struct {
	mu       sync.Mutex
	calls    []string
	duration float64
	fail     error
}

func (d *fakeDriver) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *fakeDriver) Reverse(ctx context.Context, input, output string) error {
	d.record("reverse " + filepath.Base(input) + " -> " + filepath.Base(output))
	return d.fail
}

func (d *fakeDriver) Segment(ctx context.Context, input, tmpl string, chunkSeconds int) error {
	d.record(fmt.Sprintf("segment %s -> %s (%ds)", filepath.Base(input), filepath.Base(tmpl), chunkSeconds))
	return d.fail
}

func (d *fakeDriver) Concat(ctx context.Context, inputs []string, output string) error {
	var names []string
	for _, in := range inputs {
		names = append(names, filepath.Base(in))
	}
	d.record("concat [" + strings.Join(names, " ") + "] -> " + filepath.Base(output))
	return d.fail
}

func (d *fakeDriver) Duration(ctx context.Context, path string) (float64, error) {
	d.record("probe " + filepath.Base(path))
	return d.duration, d.fail
}

func newTestService(t *testing.T, driver Driver) (*Service, media.Paths) {
	t.Helper()
	paths := media.Paths{Root: t.TempDir()}
	seq := media.NewSequencer(paths, 5, false)
	log := logrus.New()
	log.SetOutput(os.Stderr)
	return NewService(driver, paths, seq, log), paths
}

func uploadSource(t *testing.T, paths media.Paths, lobbyID int) {
	t.Helper()
	src, err := paths.Source(lobbyID)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, []byte("RIFF"), 0o644))
}

func uploadPlayerPart(t *testing.T, paths media.Paths, lobbyID, n int) {
	t.Helper()
	part, err := paths.Part(lobbyID, media.RolePlayerReversed, n)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(part, []byte("RIFF"), 0o644))
}

func TestReverseSourceRequiresUploadedSource(t *testing.T) {
	driver := &fakeDriver{}
	svc, _ := newTestService(t, driver)

	err := svc.ReverseSource(context.Background(), 77)
	assert.ErrorIs(t, err, media.ErrSourceAudioMissing)
	assert.Empty(t, driver.calls, "no tool invocation before validation")
}

func TestReverseSourceReversesThenSegments(t *testing.T) {
	driver := &fakeDriver{}
	svc, paths := newTestService(t, driver)
	uploadSource(t, paths, 77)

	require.NoError(t, svc.ReverseSource(context.Background(), 77))

	require.Len(t, driver.calls, 2)
	assert.Equal(t, "reverse source.wav -> source_reversed.wav", driver.calls[0])
	assert.Equal(t, "segment source_reversed.wav -> source_reversed_part_%03d.wav (5s)", driver.calls[1])
}

func TestFinishPlayerRecordingWithoutPartsFails(t *testing.T) {
	driver := &fakeDriver{}
	svc, paths := newTestService(t, driver)

	err := svc.FinishPlayerRecording(context.Background(), 77)
	assert.ErrorIs(t, err, media.ErrNoPartsAvailable)
	assert.Empty(t, driver.calls)

	// Nothing must have been written either.
	dir, err2 := paths.LobbyDir(77)
	require.NoError(t, err2)
	entries, err2 := os.ReadDir(dir)
	require.NoError(t, err2)
	assert.Empty(t, entries)
}

func TestFinishPlayerRecordingConcatsInOrderThenReverses(t *testing.T) {
	driver := &fakeDriver{}
	svc, paths := newTestService(t, driver)
	for _, n := range []int{2, 0, 1} {
		uploadPlayerPart(t, paths, 77, n)
	}

	require.NoError(t, svc.FinishPlayerRecording(context.Background(), 77))

	require.Len(t, driver.calls, 2)
	assert.Equal(t,
		"concat [player_reversed_part_000.wav player_reversed_part_001.wav player_reversed_part_002.wav] -> player_reversed.wav",
		driver.calls[0])
	assert.Equal(t, "reverse player_reversed.wav -> player.wav", driver.calls[1])
}

func TestExpectedParts(t *testing.T) {
	driver := &fakeDriver{duration: 12}
	svc, paths := newTestService(t, driver)

	_, err := svc.ExpectedParts(context.Background(), 77)
	assert.ErrorIs(t, err, media.ErrSourceAudioMissing)

	uploadSource(t, paths, 77)
	n, err := svc.ExpectedParts(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReverseArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-y", "-i", "in.wav", "-af", "areverse", "out.wav"},
		reverseArgs("in.wav", "out.wav"))
}

func TestSegmentArgsStreamCopy(t *testing.T) {
	args := segmentArgs("in.wav", "part_%03d.wav", 5)
	assert.Equal(t,
		[]string{"-y", "-i", "in.wav", "-f", "segment", "-segment_time", "5", "-c", "copy", "part_%03d.wav"},
		args)
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("list.txt", "out.wav")
	assert.Contains(t, args, "concat")
	assert.Contains(t, args, "list.txt")
	assert.Equal(t, "out.wav", args[len(args)-1])
}

func TestProbeArgs(t *testing.T) {
	args := probeArgs("song.wav")
	assert.Contains(t, args, "format=duration")
	assert.Equal(t, "song.wav", args[len(args)-1])
}

func TestConcatListFileQuotesPaths(t *testing.T) {
	list := concatListFile([]string{"/a/plain.wav", "/b/o'clock.wav"})
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "file '/a/plain.wav'", lines[0])
	assert.Equal(t, `file '/b/o'\''clock.wav'`, lines[1])
}
