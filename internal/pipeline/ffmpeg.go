// internal/pipeline/ffmpeg.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Driver is the external audio-processing capability: time reversal,
// fixed-length segmentation, ordered concatenation and a duration probe.
// All operations work on uncompressed-wave files addressed by path.
type Driver interface {
	Reverse(ctx context.Context, input, output string) error
	Segment(ctx context.Context, input, outputTemplate string, chunkSeconds int) error
	Concat(ctx context.Context, inputs []string, output string) error
	Duration(ctx context.Context, path string) (float64, error)
}

// FFmpeg drives the ffmpeg and ffprobe binaries. Every invocation runs
// under a bounded timeout so a wedged subprocess cannot leave a promised
// output path absent forever.
type FFmpeg struct {
	Bin      string
	ProbeBin string
	Timeout  time.Duration
	Log      *logrus.Logger
}

func NewFFmpeg(bin, probeBin string, timeout time.Duration, log *logrus.Logger) *FFmpeg {
	return &FFmpeg{Bin: bin, ProbeBin: probeBin, Timeout: timeout, Log: log}
}

// Reverse writes output as the sample-order-inverted waveform of input,
// overwriting any existing file.
func (f *FFmpeg) Reverse(ctx context.Context, input, output string) error {
	return f.run(ctx, reverseArgs(input, output))
}

// Segment splits input into consecutive chunkSeconds-long files named via
// the printf-style outputTemplate, stream-copied to avoid re-encoding.
// The final chunk may be shorter.
func (f *FFmpeg) Segment(ctx context.Context, input, outputTemplate string, chunkSeconds int) error {
	return f.run(ctx, segmentArgs(input, outputTemplate, chunkSeconds))
}

// Concat joins inputs in the given order into one continuous stream at
// output, using the concat demuxer with stream copy.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat: empty input list")
	}
	listPath := output + ".txt"
	if err := os.WriteFile(listPath, []byte(concatListFile(inputs)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	return f.run(ctx, concatArgs(listPath, output))
}

// Duration probes the total duration of an audio file in seconds.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ProbeBin, probeArgs(path)...)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", f.ProbeBin, path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return d, nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.Bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", f.Bin, strings.Join(args, " "), err, out)
	}
	if f.Log != nil {
		f.Log.WithFields(logrus.Fields{
			"args":     strings.Join(args, " "),
			"duration": time.Since(start),
		}).Debug("ffmpeg finished")
	}
	return nil
}

func reverseArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-af", "areverse", output}
}

func segmentArgs(input, outputTemplate string, chunkSeconds int) []string {
	return []string{
		"-y", "-i", input,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		outputTemplate,
	}
}

func concatArgs(listPath, output string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// concatListFile renders the concat demuxer file list. Quotes in paths are
// escaped per the demuxer's quoting rules.
func concatListFile(inputs []string) string {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			abs = in
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}
