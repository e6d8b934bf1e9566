// Package config loads engine configuration from environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dumblo/adventure-api/internal/errors"
)

// Game holds the gameplay tuning values. Defaults match the original
// balance sheet.
type Game struct {
	StartingHP       int           `env:"GAME_STARTING_HP" envDefault:"100"`
	StartingAttack   int           `env:"GAME_STARTING_ATTACK" envDefault:"10"`
	StartingDefense  int           `env:"GAME_STARTING_DEFENSE" envDefault:"5"`
	StartingLupins   int           `env:"GAME_STARTING_LUPINS" envDefault:"100"`
	MaxInventorySize int           `env:"GAME_MAX_INVENTORY" envDefault:"20"`
	SessionTTL       time.Duration `env:"GAME_SESSION_TTL" envDefault:"15m"`
}

// Dialogue configures the NPC dialogue generator client. Empty APIKey
// disables generation; NPC encounters then use static greetings.
type Dialogue struct {
	BaseURL     string        `env:"DIALOGUE_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	APIKey      string        `env:"DIALOGUE_API_KEY"`
	Model       string        `env:"DIALOGUE_MODEL" envDefault:"llama-3.3-70b-versatile"`
	MaxTokens   int           `env:"DIALOGUE_MAX_TOKENS" envDefault:"200"`
	Temperature float64       `env:"DIALOGUE_TEMPERATURE" envDefault:"0.8"`
	CacheTTL    time.Duration `env:"DIALOGUE_CACHE_TTL" envDefault:"24h"`

	RequestsPerMinute int `env:"DIALOGUE_REQUESTS_PER_MINUTE" envDefault:"25"`
}

// Persistence configures the player store retry policy.
type Persistence struct {
	RetryAttempts int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"DB_RETRY_DELAY" envDefault:"1s"`
}

// Config is the root configuration for the server process.
type Config struct {
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	WorldPath   string `env:"WORLD_PATH" envDefault:"data/world.yaml"`
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"50051"`
	Game        Game
	Dialogue    Dialogue
	Persistence Persistence
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	return &cfg, nil
}
