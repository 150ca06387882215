// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort     string
	DbPath         string
	DownloadDir    string
	Workers        int
	SearchTimeout  time.Duration
	SearchResults  int
	AudioBitrate   string
	YtdlpPath      string
	LastfmAPIKey   string
	FallbackSearch bool
	LogLevel       string
}

// Load reads the configuration from environment variables,
// falling back to defaults suitable for local use.
func Load() *Config {
	return &Config{
		ListenPort:     env("CLASSMUSIC_PORT", "8080"),
		DbPath:         env("CLASSMUSIC_DB", "./config/classmusic.db"),
		DownloadDir:    env("CLASSMUSIC_DOWNLOADS", "./downloads"),
		Workers:        envInt("CLASSMUSIC_WORKERS", 4),
		SearchTimeout:  envDuration("CLASSMUSIC_SEARCH_TIMEOUT", 30*time.Second),
		SearchResults:  envInt("CLASSMUSIC_SEARCH_RESULTS", 8),
		AudioBitrate:   env("CLASSMUSIC_BITRATE", "192K"),
		YtdlpPath:      env("CLASSMUSIC_YTDLP", "yt-dlp"),
		LastfmAPIKey:   os.Getenv("CLASSMUSIC_LASTFM_KEY"),
		FallbackSearch: os.Getenv("CLASSMUSIC_LASTFM_KEY") != "",
		LogLevel:       env("CLASSMUSIC_LOGLEVEL", "info"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
