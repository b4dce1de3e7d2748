// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/apogue/apogue/internal/config"
	"github.com/apogue/apogue/internal/lobby"
	"github.com/apogue/apogue/internal/media"
	"github.com/apogue/apogue/internal/pipeline"
	"github.com/apogue/apogue/internal/tasks"
)

// GameServer wires the lobby registry, media layout, pipeline service and
// background runner together for the HTTP handlers.
type GameServer struct {
	Log      *logrus.Logger
	Cfg      config.Config
	Lobbies  *lobby.Registry
	Paths    media.Paths
	Seq      *media.Sequencer
	Pipeline *pipeline.Service
	Tasks    *tasks.Runner
	Hub      *Hub
}

// NewGameServer builds a fully wired server. The pipeline driver is
// injected so tests can run against a fake instead of real ffmpeg.
func NewGameServer(cfg config.Config, driver pipeline.Driver, log *logrus.Logger) *GameServer {
	paths := media.Paths{Root: cfg.MediaRoot}
	seq := media.NewSequencer(paths, cfg.ChunkSeconds, cfg.AllowPartOverwrite)

	gs := &GameServer{
		Log:      log,
		Cfg:      cfg,
		Lobbies:  lobby.NewRegistry(),
		Paths:    paths,
		Seq:      seq,
		Pipeline: pipeline.NewService(driver, paths, seq, log),
		Tasks:    tasks.NewRunner(cfg.FFmpegTimeout, log),
		Hub:      NewHub(log),
	}

	// Game-start extension point: notify lobby subscribers. No per-player
	// branching happens here.
	gs.Lobbies.OnGameStarted = func(l lobby.Lobby) {
		gs.Hub.BroadcastLobby(l)
	}

	return gs
}

// HealthHandler answers liveness probes.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
