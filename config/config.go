package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	Port               string        `env:"PORT" envDefault:"3000"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	StaticDir          string        `env:"STATIC_DIR" envDefault:"./client/dist"`
	AdminRoomCode      string        `env:"ADMIN_ROOM_CODE" envDefault:"main"`
	UniqueUsernames    bool          `env:"UNIQUE_USERNAMES" envDefault:"true"`
	HistoryLimit       int           `env:"HISTORY_LIMIT" envDefault:"100"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
