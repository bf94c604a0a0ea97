package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Hotstreak HotstreakConfig `yaml:"hotstreak"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Export    ExportConfig    `yaml:"export"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Health    HealthConfig    `yaml:"health"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type HotstreakConfig struct {
	BaseURL   string            `yaml:"base_url"`  // GraphQL endpoint (api3.hotstreak.gg/graphql)
	WebURL    string            `yaml:"web_url"`   // Web app URL, used for browser token resolution
	SportGID  string            `yaml:"sport_gid"` // Base64 gid of the sport to query (e.g. Football)
	Timeout   time.Duration     `yaml:"timeout"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`

	// PrivyToken — статический privy-id-token. Можно задать через HS_PRIVY_TOKEN env.
	PrivyToken string `yaml:"privy_token"`
	// ResolveTokenViaBrowser — получать токен headless-браузером, если статический не задан.
	ResolveTokenViaBrowser bool          `yaml:"resolve_token_via_browser"`
	BrowserTimeout         time.Duration `yaml:"browser_timeout"`
}

type PipelineConfig struct {
	Interval  time.Duration `yaml:"interval"`   // Service mode: re-run the pipeline every Interval
	Workers   int           `yaml:"workers"`    // Concurrent per-player decode workers (0/1 = sequential)
	TestLimit int           `yaml:"test_limit"` // Cap the number of players for test runs (0 = no limit)
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ExportConfig struct {
	BaseDir   string `yaml:"base_dir"`   // Root for timestamped raw/processed dirs (default "data")
	LatestDir string `yaml:"latest_dir"` // Stable dir receiving a copy of the final lines file (default "odd_object")
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type HealthConfig struct {
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
	File  string `yaml:"file"`  // Optional JSON-lines log file
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Hotstreak.BaseURL == "" {
		c.Hotstreak.BaseURL = "https://api3.hotstreak.gg/graphql"
	}
	if c.Hotstreak.WebURL == "" {
		c.Hotstreak.WebURL = "https://hs3.hotstreak.gg"
	}
	if c.Hotstreak.Timeout <= 0 {
		c.Hotstreak.Timeout = 20 * time.Second
	}
	if c.Hotstreak.BrowserTimeout <= 0 {
		c.Hotstreak.BrowserTimeout = 45 * time.Second
	}
	if c.Export.BaseDir == "" {
		c.Export.BaseDir = "data"
	}
	if c.Export.LatestDir == "" {
		c.Export.LatestDir = "odd_object"
	}
}
