// Package config loads runtime configuration for the Orbit backend: defaults,
// an optional YAML file, then environment overrides. Missing credentials are
// reported by the components that need them, never fatal at load time.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/orbitlabs/orbit-backend/internal/model"
)

const configPathEnv = "ORBIT_CONFIG"

// Config captures all runtime settings for the service.
type Config struct {
	ListenAddr string          `yaml:"listenAddr"`
	Database   DatabaseConfig  `yaml:"database"`
	PredictHQ  PredictHQConfig `yaml:"predicthq"`
	Gemini     GeminiConfig    `yaml:"gemini"`
	Viewer     model.LatLng    `yaml:"viewer"`
	Ingest     IngestConfig    `yaml:"ingest"`
	Chat       ChatConfig      `yaml:"chat"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// PredictHQConfig wires the external events API client.
type PredictHQConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	APIKey   string `yaml:"apiKey"`
	RadiusKm int    `yaml:"radiusKm"`
	Limit    int    `yaml:"limit"`
}

// GeminiConfig wires the generative-AI chat proxy.
type GeminiConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
}

// IngestConfig controls the scheduled provider-to-store sync.
type IngestConfig struct {
	CronSpec string `yaml:"cronSpec"`
	Enabled  bool   `yaml:"enabled"`
}

// ChatConfig bounds the chat proxy.
type ChatConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// Load reads configuration: defaults, then the YAML file named by ORBIT_CONFIG
// (if any), then environment variables. A .env file in the working directory is
// honoured via godotenv.
func Load(logger zerolog.Logger) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("config file unreadable, using defaults")
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("config file unparseable, using defaults")
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	setString(&c.ListenAddr, "ORBIT_LISTEN_ADDR")
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + port
	}

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.PredictHQ.BaseURL, "PREDICTHQ_BASE_URL")
	setString(&c.PredictHQ.APIKey, "PREDICTHQ_API_KEY")

	setString(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	setString(&c.Ingest.CronSpec, "ORBIT_INGEST_CRON")
	if v := os.Getenv("ORBIT_INGEST_ENABLED"); v != "" {
		c.Ingest.Enabled = v == "true" || v == "1"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "orbit",
			SSLMode:  "disable",
		},
		PredictHQ: PredictHQConfig{
			BaseURL:  "https://api.predicthq.com/v1/events/",
			RadiusKm: 50,
			Limit:    50,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-pro",
		},
		// Mock viewer center used for distance calculation and the geo filter
		// until per-user locations drive the query (Los Angeles).
		Viewer: model.LatLng{Lat: 34.0522, Lng: -118.2437},
		Ingest: IngestConfig{
			CronSpec: "@every 1h",
			Enabled:  false,
		},
		Chat: ChatConfig{
			RequestsPerMinute: 30,
		},
	}
}
