// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for board, timing, audio and feed settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// VIEWPORT CONFIGURATION
// =============================================================================

// ViewportConfig describes the board container the layout is computed for.
type ViewportConfig struct {
	Width  float64 // Container width in pixels
	Height float64 // Container height in pixels
	FPS    int     // Frame rate of the scheduler loop (animation frames)
}

// DefaultViewport returns the default viewport configuration.
func DefaultViewport() ViewportConfig {
	return ViewportConfig{
		Width:  1280,
		Height: 720,
		FPS:    60,
	}
}

// ViewportFromEnv returns viewport configuration with environment variable overrides.
func ViewportFromEnv() ViewportConfig {
	cfg := DefaultViewport()

	if w := getEnvFloat("BOARD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("BOARD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("BOARD_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}

	return cfg
}

// =============================================================================
// EFFECT TIMING
// =============================================================================

// TimingConfig holds every fixed delay used by the replay pipeline.
type TimingConfig struct {
	ShakePulse    time.Duration // Attacker/target shake length
	HealPulse     time.Duration // Target healing glow length
	TargetStagger time.Duration // Offset between consecutive targets of one entry
	ImpactDelay   time.Duration // Launch -> target shake start
	SettleDelay   time.Duration // Added after the last dispatch of one entry
	EntryPause    time.Duration // Pause between entries during play-all
	PanelCycle    time.Duration // Info panel auto-cycle interval
	PinTimeout    time.Duration // Info panel auto-unpin timeout
}

// DefaultTiming returns the board's stock effect timing.
func DefaultTiming() TimingConfig {
	return TimingConfig{
		ShakePulse:    500 * time.Millisecond,
		HealPulse:     700 * time.Millisecond,
		TargetStagger: 180 * time.Millisecond,
		ImpactDelay:   700 * time.Millisecond,
		SettleDelay:   700 * time.Millisecond,
		EntryPause:    300 * time.Millisecond,
		PanelCycle:    2500 * time.Millisecond,
		PinTimeout:    8000 * time.Millisecond,
	}
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds cue synthesis settings.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Whether cues are produced at all
	Backend    string  // "speaker", "capture" or "none"
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     1.0,
		Enabled:    true,
		Backend:    "speaker",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("CUE_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("AUDIO_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if b := os.Getenv("AUDIO_BACKEND"); b != "" {
		cfg.Backend = strings.ToLower(b)
	}
	if sr := getEnvInt("AUDIO_SAMPLE_RATE", 0); sr > 0 {
		cfg.SampleRate = sr
	}

	return cfg
}

// =============================================================================
// FEED CONFIGURATION
// =============================================================================

// FeedConfig points at the remote roster and log feeds.
type FeedConfig struct {
	TeamsURL string
	LogsURL  string
	Interval time.Duration // Poll interval (0 = fetch once)
	Timeout  time.Duration // Per-request timeout
}

// DefaultFeed returns the default feed configuration.
func DefaultFeed() FeedConfig {
	return FeedConfig{
		TeamsURL: "https://jinsw53.github.io/kingofleague/data.json",
		LogsURL:  "https://jinsw53.github.io/kingofleague/logs.json",
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// FeedFromEnv returns feed configuration with environment variable overrides.
func FeedFromEnv() FeedConfig {
	cfg := DefaultFeed()

	if u := os.Getenv("FEED_TEAMS_URL"); u != "" {
		cfg.TeamsURL = u
	}
	if u := os.Getenv("FEED_LOGS_URL"); u != "" {
		cfg.LogsURL = u
	}
	if d := getEnvDuration("FEED_INTERVAL", -1); d >= 0 {
		cfg.Interval = d
	}
	if d := getEnvDuration("FEED_TIMEOUT", 0); d > 0 {
		cfg.Timeout = d
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	CORSOrigins []string
	FontPath    string // Optional TrueType font for measurement and rendering
	AdminToken  string // Bearer token required by mutating routes; empty disables the check
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	cfg.FontPath = os.Getenv("FONT_PATH")
	cfg.AdminToken = os.Getenv("BOARD_ADMIN_TOKEN")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Viewport ViewportConfig
	Timing   TimingConfig
	Audio    AudioConfig
	Feed     FeedConfig
	Server   ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Viewport: ViewportFromEnv(),
		Timing:   DefaultTiming(),
		Audio:    AudioFromEnv(),
		Feed:     FeedFromEnv(),
		Server:   ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
