// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Mode selects the resolution policy for every room the service creates.
// It is fixed at boot; the lifecycle logic is identical either way.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeVerified  Mode = "verified"
)

// Config carries all environment-driven settings.
type Config struct {
	Addr          string
	Mode          Mode
	UploadDir     string
	MatchSize     int
	CountdownSecs int
	ResultDelay   time.Duration
}

// FromEnv reads configuration from the environment, falling back to
// sensible defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:          ":" + getenv("PORT", "8080"),
		Mode:          ModeSimulated,
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		MatchSize:     getint("MATCH_SIZE", 6),
		CountdownSecs: getint("COUNTDOWN_SECS", 60),
		ResultDelay:   time.Duration(getint("RESULT_DELAY_SECS", 5)) * time.Second,
	}
	if Mode(os.Getenv("RESOLUTION_MODE")) == ModeVerified {
		cfg.Mode = ModeVerified
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
