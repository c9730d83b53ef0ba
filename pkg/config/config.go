package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // A missing .env file is fine; env vars still apply

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// Config holds the configuration for the matching engine.
type Config struct {
	Instrument           string               `env:"INSTRUMENT,required"` // Instrument symbol, e.g. BTC-USD
	KafkaConfig          `envPrefix:"KAFKA_"` // Order topic consumer configuration
	TradePublisherConfig `envPrefix:"TRADE_"` // Trade topic producer configuration
	RedisConfig          `envPrefix:"REDIS_"` // Snapshot store configuration
	JournalConfig        `envPrefix:"JOURNAL_"`
}

// KafkaConfig holds the configuration for the order topic consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"default_group"`
	Brokers []string `env:"BROKER,required"`
}

// TradePublisherConfig holds the configuration for the trade topic producer.
type TradePublisherConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the Redis snapshot store.
type RedisConfig struct {
	Addrs    string `env:"ADDRESS,required"` // Comma-separated list of Redis addresses
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}

// AddrList splits the comma-separated address list into individual addresses.
func (c RedisConfig) AddrList() []string {
	parts := strings.Split(c.Addrs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JournalConfig holds the configuration for the local trade journal.
type JournalConfig struct {
	Path string `env:"PATH" envDefault:"data/trade-journal"`
}
