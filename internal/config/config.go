package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds everything the server needs at startup. Values come from an
// optional YAML file (CONFIG_FILE) overridden by environment variables.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	Env         string `yaml:"env"`

	SessionTTLHours      int `yaml:"session_ttl_hours"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`

	GroqAPIKey  string `yaml:"groq_api_key"`
	GroqModel   string `yaml:"groq_model"`
	GroqBaseURL string `yaml:"groq_base_url"`

	PredictorURL    string `yaml:"predictor_url"`
	PredictorAPIKey string `yaml:"predictor_api_key"`

	ExchangeRateURL string `yaml:"exchange_rate_url"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load builds the config. Precedence: env var > config file > default.
func Load() Config {
	cfg := Config{
		Port:                 "5050",
		Env:                  "development",
		SessionTTLHours:      24,
		SweepIntervalMinutes: 30,
		GroqModel:            "llama3-8b-8192",
		GroqBaseURL:          "https://api.groq.com/openai",
		ExchangeRateURL:      "https://api.exchangerate-api.com/v4/latest/INR",
		AllowedOrigins:       []string{"http://localhost:5173", "http://localhost:8501"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			log.Fatal("Failed to load config file: ", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.SessionTTLHours = getEnvInt("SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.SweepIntervalMinutes = getEnvInt("SWEEP_INTERVAL_MINUTES", cfg.SweepIntervalMinutes)
	cfg.GroqAPIKey = getEnv("GROQ_API_KEY", cfg.GroqAPIKey)
	cfg.GroqModel = getEnv("GROQ_MODEL", cfg.GroqModel)
	cfg.GroqBaseURL = getEnv("GROQ_BASE_URL", cfg.GroqBaseURL)
	cfg.PredictorURL = getEnv("PREDICTOR_URL", cfg.PredictorURL)
	cfg.PredictorAPIKey = getEnv("PREDICTOR_API_KEY", cfg.PredictorAPIKey)
	cfg.ExchangeRateURL = getEnv("EXCHANGE_RATE_URL", cfg.ExchangeRateURL)

	return cfg
}

// SessionTTL returns the configured session lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// SweepInterval returns how often the expired-session sweep should run.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer for %s: %s", key, v)
		return def
	}
	return n
}
