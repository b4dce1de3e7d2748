// internal/handlers/game.go
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/apogue/apogue/internal/media"
	"github.com/apogue/apogue/internal/metrics"
)

var supportedContentTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
}

// uploadResponse echoes where an uploaded or planned file lives. For
// background work the path is the planned output; the file appears once
// the task finishes, and "not there yet" is a retryable condition.
type uploadResponse struct {
	Path    string `json:"path"`
	PartNum *int   `json:"part_num,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
}

// UploadSourceSongHandler receives player one's original recording.
// Content type is validated before anything is written.
func UploadSourceSongHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if !supportedContentTypes[header.Header.Get("Content-Type")] {
			writeError(w, fmt.Errorf("%w, got %q", ErrUnsupportedMediaType, header.Header.Get("Content-Type")))
			return
		}

		dst, err := gs.Paths.Source(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := saveUpload(file, dst); err != nil {
			writeError(w, err)
			return
		}

		gs.Log.WithField("lobby_id", id).Info("source song uploaded")
		writeJSON(w, uploadResponse{Path: dst})
	}
}

// ReverseSourceSongHandler reports the planned reversed-source path and
// part count, optionally kicking off the reverse+segment pipeline in the
// background.
func ReverseSourceSongHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		runTask := true
		if v := r.URL.Query().Get("run_ffmpeg_task"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "invalid run_ffmpeg_task", http.StatusBadRequest)
				return
			}
			runTask = b
		}

		partsAmount, err := gs.Pipeline.ExpectedParts(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		reversed, err := gs.Paths.SourceReversed(id)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := struct {
			Path        string `json:"path"`
			PartsAmount int    `json:"parts_amount"`
			TaskID      string `json:"task_id,omitempty"`
		}{Path: reversed, PartsAmount: partsAmount}

		if runTask {
			h := gs.Tasks.Submit(id, "reverse_source", func(ctx context.Context) error {
				started := time.Now()
				err := gs.Pipeline.ReverseSource(ctx, id)
				metrics.ObservePipeline("reverse_source", started, err)
				return err
			})
			resp.TaskID = h.ID.String()
		}
		writeJSON(w, resp)
	}
}

// GetReversedSourceSongHandler streams the full reversed source file.
func GetReversedSourceSongHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		path, err := gs.Paths.SourceReversed(id)
		if err != nil {
			writeError(w, err)
			return
		}
		streamWav(w, path)
	}
}

// GetReversedSourcePartHandler streams one chunk of the reversed source.
func GetReversedSourcePartHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		partNum, err := strconv.Atoi(r.PathValue("part_num"))
		if err != nil {
			http.Error(w, "invalid part_num", http.StatusBadRequest)
			return
		}
		if partNum < 0 {
			writeError(w, media.ErrInvalidPartIndex)
			return
		}

		path, err := gs.Paths.Part(id, media.RoleSourceReversed, partNum)
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := os.Stat(path); err != nil {
			writeError(w, fmt.Errorf("%w: part %d of lobby %d", media.ErrPartNotFound, partNum, id))
			return
		}
		streamWav(w, path)
	}
}

// UploadPlayerPartHandler receives one recorded reply chunk from player
// two. Without an explicit part_num the next free index is assigned under
// the sequencer lock, so concurrent uploads never collide.
func UploadPlayerPartHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}

		var explicit *int
		if v := r.URL.Query().Get("part_num"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "invalid part_num", http.StatusBadRequest)
				return
			}
			if n < 0 {
				writeError(w, media.ErrInvalidPartIndex)
				return
			}
			explicit = &n
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if !supportedContentTypes[header.Header.Get("Content-Type")] {
			writeError(w, fmt.Errorf("%w, got %q", ErrUnsupportedMediaType, header.Header.Get("Content-Type")))
			return
		}

		var (
			partNum int
			dst     string
		)
		if explicit != nil {
			partNum = *explicit
			dst, err = gs.Seq.Claim(id, media.RolePlayerReversed, partNum)
		} else {
			partNum, dst, err = gs.Seq.NextIndex(id, media.RolePlayerReversed)
		}
		if err != nil {
			writeError(w, err)
			return
		}

		if err := saveUpload(file, dst); err != nil {
			writeError(w, err)
			return
		}

		gs.Log.WithField("lobby_id", id).Infof("player part %d uploaded", partNum)
		writeJSON(w, uploadResponse{Path: dst, PartNum: &partNum})
	}
}

// FinishPlayerRecordingHandler validates that parts exist, then launches
// the concatenate+reverse pipeline in the background and returns the
// planned final path.
func FinishPlayerRecordingHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := queryLobbyID(r)
		if !ok {
			http.Error(w, "missing or invalid lobby_id", http.StatusBadRequest)
			return
		}

		parts, err := gs.Seq.AllParts(id, media.RolePlayerReversed)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(parts) == 0 {
			writeError(w, fmt.Errorf("%w: lobby %d has no player parts", media.ErrNoPartsAvailable, id))
			return
		}

		final, err := gs.Paths.Player(id)
		if err != nil {
			writeError(w, err)
			return
		}

		h := gs.Tasks.Submit(id, "finish_recording", func(ctx context.Context) error {
			started := time.Now()
			err := gs.Pipeline.FinishPlayerRecording(ctx, id)
			metrics.ObservePipeline("finish_recording", started, err)
			return err
		})

		writeJSON(w, uploadResponse{Path: final, TaskID: h.ID.String()})
	}
}

// TaskStatusHandler exposes the latest background task and last pipeline
// failure for a lobby, so clients polling for derived files can tell
// "still working" apart from "failed".
func TaskStatusHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathLobbyID(r)
		if !ok {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		h, ok := gs.Tasks.Status(id)
		if !ok {
			http.Error(w, fmt.Sprintf("no background task for lobby %d", id), http.StatusNotFound)
			return
		}

		resp := struct {
			Task      interface{} `json:"task"`
			LastError string      `json:"last_error,omitempty"`
		}{Task: h}
		if err := gs.Tasks.LastError(id); err != nil {
			resp.LastError = err.Error()
		}
		writeJSON(w, resp)
	}
}

// saveUpload buffers a streamed upload body onto disk at dst. The core
// pipeline only ever sees the resolved path, never raw bytes.
func saveUpload(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create upload target: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("buffer upload: %w", err)
	}
	return nil
}

// streamWav serves a derived file, answering 404 while the background
// pipeline has not produced it yet. Clients treat that as retryable.
func streamWav(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "file not ready", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/wav")
	io.Copy(w, f)
}
