package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// TelegramBotToken is deliberately not marked required: a missing
	// credential must fail individual inbound events with a distinct
	// status, not crash config parsing.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// Transport: with PublicURL set the bot serves a webhook on Port,
	// otherwise it falls back to long polling.
	PublicURL string `env:"PUBLIC_URL"`
	Port      int    `env:"PORT" envDefault:"8080"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/bot.db"`

	// Catalog source
	CodeforcesBaseURL string        `env:"CODEFORCES_BASE_URL" envDefault:"https://codeforces.com/api"`
	CatalogTTL        time.Duration `env:"CATALOG_TTL" envDefault:"1h"`

	// Daily challenge rating band
	ChallengeMinRating int `env:"CHALLENGE_MIN_RATING" envDefault:"1200"`
	ChallengeMaxRating int `env:"CHALLENGE_MAX_RATING" envDefault:"1600"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
