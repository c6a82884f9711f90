package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Database settings come from DB_*
// environment variables (see dbconfig); everything else from the yaml file
// named by CONFIG_PATH, with env overrides for the common knobs.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		URL    string `yaml:"url"`
		Stream string `yaml:"stream"`
	} `yaml:"nats"`

	Outbox struct {
		// Mode selects the dispatcher: "listener" (LISTEN/NOTIFY with
		// fallback sweep), "worker" (plain polling), or "log" (no broker,
		// events only logged).
		Mode         string        `yaml:"mode"`
		PollInterval time.Duration `yaml:"poll_interval"`
		BatchSize    int           `yaml:"batch_size"`
	} `yaml:"outbox"`

	Gateway struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		MaxMessageSize int64         `yaml:"max_message_size"`
	} `yaml:"gateway"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.Stream = "AUCTION_EVENTS"
	cfg.Outbox.Mode = "listener"
	cfg.Outbox.PollInterval = 5 * time.Second
	cfg.Outbox.BatchSize = 100
	cfg.Gateway.PingInterval = 30 * time.Second
	cfg.Gateway.WriteTimeout = 10 * time.Second
	cfg.Gateway.ReadTimeout = 60 * time.Second
	cfg.Gateway.MaxMessageSize = 1024
	return &cfg
}

func loadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	if mode := os.Getenv("OUTBOX_MODE"); mode != "" {
		cfg.Outbox.Mode = mode
	}

	switch cfg.Outbox.Mode {
	case "listener", "worker", "log":
	default:
		return nil, fmt.Errorf("unknown outbox mode %q", cfg.Outbox.Mode)
	}

	return cfg, nil
}
