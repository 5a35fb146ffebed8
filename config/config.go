package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime settings, loaded from the environment.
// DatabaseURL selects the backing store: a Postgres DSN when set,
// otherwise a local sqlite file at SQLitePath.
type Config struct {
	Addr            string        `env:"ADDR" env-default:":8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH" env-default:"colorgen.db"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIModel     string        `env:"OPENAI_MODEL" env-default:"gpt-4o"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	AvatarDir       string        `env:"AVATAR_DIR" env-default:"avatars"`
	SessionTTL      time.Duration `env:"SESSION_TTL" env-default:"168h"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"60s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for main: it panics on a bad environment.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
