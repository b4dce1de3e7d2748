// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/apogue/apogue/internal/config"
	"github.com/apogue/apogue/internal/handlers"
	"github.com/apogue/apogue/internal/metrics"
	"github.com/apogue/apogue/internal/middleware"
	"github.com/apogue/apogue/internal/pipeline"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	driver := pipeline.NewFFmpeg(cfg.FFmpegBin, cfg.FFprobeBin, cfg.FFmpegTimeout, logger)
	gs := handlers.NewGameServer(cfg, driver, logger)

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.LogMiddleware(logger, pattern)(h))
	}

	// lobby endpoints
	handle("POST /lobby/create-new-lobby", handlers.CreateLobbyHandler(gs))
	handle("POST /lobby/connect-to-lobby", handlers.ConnectToLobbyHandler(gs))
	handle("POST /lobby/remove-player-from-lobby", handlers.RemovePlayerHandler(gs))
	handle("POST /lobby/start-game", handlers.StartGameHandler(gs))
	handle("POST /lobby/finish-game", handlers.FinishGameHandler(gs))
	handle("GET /lobby/{lobby_id}/lobby-info", handlers.LobbyInfoHandler(gs))

	// lobby ws
	handle("GET /lobby/ws/{lobby_id}", handlers.LobbyWSHandler(logger, gs))

	// game endpoints
	handle("POST /game/upload-source-song", handlers.UploadSourceSongHandler(gs))
	handle("GET /game/{lobby_id}/reverse-source-song", handlers.ReverseSourceSongHandler(gs))
	handle("GET /game/{lobby_id}/get-reversed-source-song", handlers.GetReversedSourceSongHandler(gs))
	handle("GET /game/{lobby_id}/get-part-of-reversed-source-song/{part_num}", handlers.GetReversedSourcePartHandler(gs))
	handle("POST /game/upload-player-part-song", handlers.UploadPlayerPartHandler(gs))
	handle("POST /game/finish-player-recording", handlers.FinishPlayerRecordingHandler(gs))
	handle("GET /game/{lobby_id}/task-status", handlers.TaskStatusHandler(gs))

	// ops endpoints
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /healthz", handlers.HealthHandler())

	logger.Infof("Running on %s (media root %s, %ds chunks)", cfg.ListenAddr, cfg.MediaRoot, cfg.ChunkSeconds)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
