// internal/pipeline/laws_test.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apogue/apogue/internal/media"
)

// byteDriver models audio as raw bytes on disk: reversal inverts byte
// order, segmentation cuts chunkSeconds-byte slices, concatenation appends.
// It obeys the same algebra as the real tool, which lets the composite
// pipelines be checked end to end.
type byteDriver struct{}

func (byteDriver) Reverse(ctx context.Context, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	rev := make([]byte, len(data))
	for i, b := range data {
		rev[len(data)-1-i] = b
	}
	return os.WriteFile(output, rev, 0o644)
}

func (byteDriver) Segment(ctx context.Context, input, tmpl string, chunkSeconds int) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	for i, n := 0, 0; i < len(data); i, n = i+chunkSeconds, n+1 {
		end := min(i+chunkSeconds, len(data))
		if err := os.WriteFile(fmt.Sprintf(tmpl, n), data[i:end], 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (byteDriver) Concat(ctx context.Context, inputs []string, output string) error {
	var joined []byte
	for _, in := range inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		joined = append(joined, data...)
	}
	return os.WriteFile(output, joined, 0o644)
}

func (byteDriver) Duration(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.Size()), nil
}

func reversedCopy(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out
}

// Reversal is an involution: reversing twice restores the original.
func TestReverseRoundTrip(t *testing.T) {
	d := byteDriver{}
	dir := t.TempDir()
	src := dir + "/src"
	require.NoError(t, os.WriteFile(src, []byte("abcdefghij"), 0o644))

	require.NoError(t, d.Reverse(context.Background(), src, dir+"/rev"))
	require.NoError(t, d.Reverse(context.Background(), dir+"/rev", dir+"/back"))

	back, err := os.ReadFile(dir + "/back")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefghij"), back)
}

// ReverseSource must segment the reversed waveform into consecutive,
// non-overlapping chunks whose concatenation is the reversed source.
func TestReverseSourceSegmentsReversedWaveform(t *testing.T) {
	svc, paths := newTestService(t, byteDriver{})
	src, err := paths.Source(77)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, []byte("abcdefghijkl"), 0o644)) // 12 "seconds"

	require.NoError(t, svc.ReverseSource(context.Background(), 77))

	parts, err := svc.seq.AllParts(77, media.RoleSourceReversed)
	require.NoError(t, err)
	require.Len(t, parts, 3, "12s at 5s chunks, final chunk shorter")

	var joined []byte
	for _, p := range parts {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(data), 5)
		joined = append(joined, data...)
	}
	assert.Equal(t, reversedCopy([]byte("abcdefghijkl")), joined)
}

// Reversal distributes over concatenation with order inversion:
// reverse(p0 ++ p1 ++ p2) == reverse(p2) ++ reverse(p1) ++ reverse(p0).
// FinishPlayerRecording computes the left side; check it against the right.
func TestFinishPlayerRecordingRecoversNaturalOrder(t *testing.T) {
	svc, paths := newTestService(t, byteDriver{})
	chunks := [][]byte{[]byte("eud"), []byte("olc"), []byte("ipa")}
	for n, chunk := range chunks {
		p, err := paths.Part(77, media.RolePlayerReversed, n)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(p, chunk, 0o644))
	}

	require.NoError(t, svc.FinishPlayerRecording(context.Background(), 77))

	final, err := paths.Player(77)
	require.NoError(t, err)
	got, err := os.ReadFile(final)
	require.NoError(t, err)

	var want []byte
	for i := len(chunks) - 1; i >= 0; i-- {
		want = append(want, reversedCopy(chunks[i])...)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "apiclodue", string(got), "player's performance back in natural order")
}

// Re-running the source pipeline with unchanged input rewrites identical
// derived files.
func TestReverseSourceIsIdempotent(t *testing.T) {
	svc, paths := newTestService(t, byteDriver{})
	src, err := paths.Source(77)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, []byte("abcdefghijkl"), 0o644))

	require.NoError(t, svc.ReverseSource(context.Background(), 77))
	first, err := os.ReadFile(mustPath(t, paths.SourceReversed, 77))
	require.NoError(t, err)

	require.NoError(t, svc.ReverseSource(context.Background(), 77))
	second, err := os.ReadFile(mustPath(t, paths.SourceReversed, 77))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func mustPath(t *testing.T, f func(int) (string, error), lobbyID int) string {
	t.Helper()
	p, err := f(lobbyID)
	require.NoError(t, err)
	return p
}
