package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pulsemaps/pulsemap/internal/models"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Sources SourcesConfig
	Chat    ChatConfig
	Updates UpdatesConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// Source is one collaborator feed endpoint and its poll settings.
type Source struct {
	Kind         models.SourceKind
	Enabled      bool
	URL          string
	PollInterval time.Duration
}

type SourcesConfig struct {
	Alerts  Source
	Quakes  Source
	Events  Source
	Fires   Source
	Reports Source
}

func (s SourcesConfig) All() []Source {
	return []Source{s.Alerts, s.Quakes, s.Events, s.Fires, s.Reports}
}

type ChatConfig struct {
	URL        string
	UploadURL  string
	UploadBase string // prefix for relative upload paths
	Timeout    time.Duration
}

type UpdatesConfig struct {
	RadiusMiles float64
	MaxAge      time.Duration
	LocalLimit  int
	GlobalLimit int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Sources: SourcesConfig{
			Alerts: Source{
				Kind:         models.KindWeatherAlert,
				Enabled:      getEnvBool("ALERTS_ENABLED", true),
				URL:          getEnv("ALERTS_URL", "https://api.weather.gov/alerts/active"),
				PollInterval: getEnvDuration("ALERTS_POLL_INTERVAL", 5*time.Minute),
			},
			Quakes: Source{
				Kind:         models.KindQuake,
				Enabled:      getEnvBool("QUAKES_ENABLED", true),
				URL:          getEnv("QUAKES_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"),
				PollInterval: getEnvDuration("QUAKES_POLL_INTERVAL", 5*time.Minute),
			},
			Events: Source{
				Kind:         models.KindNaturalEvent,
				Enabled:      getEnvBool("EVENTS_ENABLED", true),
				URL:          getEnv("EVENTS_URL", "https://eonet.gsfc.nasa.gov/api/v3/events/geojson?status=open&days=7"),
				PollInterval: getEnvDuration("EVENTS_POLL_INTERVAL", 10*time.Minute),
			},
			Fires: Source{
				Kind:         models.KindFire,
				Enabled:      getEnvBool("FIRES_ENABLED", false),
				URL:          getEnv("FIRES_URL", ""),
				PollInterval: getEnvDuration("FIRES_POLL_INTERVAL", 10*time.Minute),
			},
			Reports: Source{
				Kind:         models.KindReport,
				Enabled:      getEnvBool("REPORTS_ENABLED", true),
				URL:          getEnv("REPORTS_URL", "http://localhost:8000/reports"),
				PollInterval: getEnvDuration("REPORTS_POLL_INTERVAL", 2*time.Minute),
			},
		},
		Chat: ChatConfig{
			URL:        getEnv("CHAT_URL", "http://localhost:8000/chat"),
			UploadURL:  getEnv("UPLOAD_URL", "http://localhost:8000/upload/photo"),
			UploadBase: getEnv("UPLOAD_BASE", "http://localhost:8000"),
			Timeout:    getEnvDuration("CHAT_TIMEOUT", 60*time.Second),
		},
		Updates: UpdatesConfig{
			RadiusMiles: getEnvFloat("UPDATES_RADIUS_MILES", 25),
			MaxAge:      getEnvDuration("UPDATES_MAX_AGE", 48*time.Hour),
			LocalLimit:  getEnvInt("UPDATES_LOCAL_LIMIT", 100),
			GlobalLimit: getEnvInt("UPDATES_GLOBAL_LIMIT", 200),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/pulsemap.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	for _, src := range c.Sources.All() {
		if !src.Enabled {
			continue
		}
		if src.URL == "" {
			return fmt.Errorf("%s feed enabled but no URL configured", src.Kind)
		}
		if src.PollInterval < time.Minute {
			return fmt.Errorf("%s poll interval must be at least 1 minute", src.Kind)
		}
	}

	if c.Updates.RadiusMiles <= 0 {
		return fmt.Errorf("updates radius must be positive: %f", c.Updates.RadiusMiles)
	}
	if c.Updates.MaxAge <= 0 {
		return fmt.Errorf("updates max age must be positive: %s", c.Updates.MaxAge)
	}
	if c.Updates.LocalLimit <= 0 || c.Updates.GlobalLimit <= 0 {
		return fmt.Errorf("update limits must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
