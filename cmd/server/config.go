package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"jigsaw-online/internal/jigsaw"
)

// Config is the server configuration, read from the environment and overridden by flags
type Config struct {
	Port            string
	DatabasePath    string
	JWTSecret       string
	TokenTTL        time.Duration
	PostHogAPIKey   string
	PostHogEndpoint string
	BoardWidth      float64
	BoardHeight     float64
	SessionIdle     time.Duration
	Seed            bool
}

const devJWTSecret = "jigsaw-dev-secret"

func loadConfig() Config {
	board := jigsaw.DefaultConfig()
	cfg := Config{
		// PORT is set by most PaaS: Fly.io, Railway, Render
		Port:            envOr("PORT", "8081"),
		DatabasePath:    envOr("DATABASE_PATH", "jigsaw.db"),
		JWTSecret:       envOr("JWT_SECRET", devJWTSecret),
		TokenTTL:        24 * time.Hour,
		PostHogAPIKey:   os.Getenv("POSTHOG_API_KEY"),
		PostHogEndpoint: os.Getenv("POSTHOG_ENDPOINT"),
		BoardWidth:      envFloat("BOARD_WIDTH", board.BoardWidth),
		BoardHeight:     envFloat("BOARD_HEIGHT", board.BoardHeight),
		SessionIdle:     time.Duration(envInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,
		Seed:            true,
	}
	if cfg.JWTSecret == devJWTSecret {
		log.Println("Warning: JWT_SECRET not set, using development secret")
	}
	return cfg
}

// addr returns the listen address for Port
func (c Config) addr() string {
	if len(c.Port) > 0 && c.Port[0] != ':' {
		return ":" + c.Port
	}
	return c.Port
}

// gameConfig returns the session settings for this server
func (c Config) gameConfig() jigsaw.Config {
	cfg := jigsaw.DefaultConfig()
	cfg.BoardWidth = c.BoardWidth
	cfg.BoardHeight = c.BoardHeight
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("Ignoring invalid %s=%q", key, v)
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Ignoring invalid %s=%q", key, v)
		return def
	}
	return n
}
