// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, sourced from APOGUE_* environment
// variables. A .env file is loaded by godotenv in main before Load runs.
type Config struct {
	ListenAddr string

	// MediaRoot is the directory under which per-lobby media folders live.
	MediaRoot string

	// ChunkSeconds is the fixed length of one audio part.
	ChunkSeconds int

	FFmpegBin  string
	FFprobeBin string

	// FFmpegTimeout bounds every external tool invocation.
	FFmpegTimeout time.Duration

	// AllowPartOverwrite permits re-uploading a player part under an
	// explicit part number that already exists on disk.
	AllowPartOverwrite bool
}

func Load() Config {
	return Config{
		ListenAddr:         ":" + getEnv("APOGUE_PORT", "8080"),
		MediaRoot:          getEnv("APOGUE_MEDIA_ROOT", "media"),
		ChunkSeconds:       getEnvInt("APOGUE_CHUNK_SECONDS", 5),
		FFmpegBin:          getEnv("APOGUE_FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:         getEnv("APOGUE_FFPROBE_BIN", "ffprobe"),
		FFmpegTimeout:      getEnvDuration("APOGUE_FFMPEG_TIMEOUT", 2*time.Minute),
		AllowPartOverwrite: getEnvBool("APOGUE_ALLOW_PART_OVERWRITE", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
