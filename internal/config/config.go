package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"PyramidSentinel/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. PYRAMID_POSITION_STOP_LOSS.
const EnvPrefix = "PYRAMID"

// DataSourceConfig selects the quote provider and symbol.
type DataSourceConfig struct {
	Provider string `yaml:"provider" envconfig:"PROVIDER"` // sina or yahoo
	Symbol   string `yaml:"symbol" envconfig:"SYMBOL"`
}

// PositionConfig holds the fixed legs of the strategy input; the current
// price comes from the quote source on every refresh.
type PositionConfig struct {
	StopLoss    float64 `yaml:"stop_loss" envconfig:"STOP_LOSS"`
	Capital     float64 `yaml:"capital" envconfig:"CAPITAL"`
	TargetPrice float64 `yaml:"target_price" envconfig:"TARGET_PRICE"` // 0 = current * 1.2
}

// Input builds a StrategyInput for the given live price.
func (p PositionConfig) Input(currentPrice float64) model.StrategyInput {
	return model.StrategyInput{
		CurrentPrice: currentPrice,
		StopLoss:     p.StopLoss,
		Capital:      p.Capital,
		TargetPrice:  p.TargetPrice,
	}
}

// ScheduleConfig holds cron specs (seconds field included).
type ScheduleConfig struct {
	RefreshCron string `yaml:"refresh_cron" envconfig:"REFRESH_CRON"`
	ReportCron  string `yaml:"report_cron" envconfig:"REPORT_CRON"`
}

// TelegramConfig is optional; an empty token disables notifications.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
}

type ServerConfig struct {
	Port int `yaml:"port" envconfig:"PORT"` // 0 disables the HTTP API
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"PRETTY"`
}

// Config holds all application configuration.
type Config struct {
	DataSource DataSourceConfig `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Position   PositionConfig   `yaml:"position" envconfig:"POSITION"`
	Schedule   ScheduleConfig   `yaml:"schedule" envconfig:"SCHEDULE"`
	Telegram   TelegramConfig   `yaml:"telegram" envconfig:"TELEGRAM"`
	Database   DatabaseConfig   `yaml:"database" envconfig:"DATABASE"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Log        LogConfig        `yaml:"log" envconfig:"LOG"`
	Proxy      string           `yaml:"proxy" envconfig:"PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "sina"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "@every 10s"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 15 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/pyramid_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	switch c.DataSource.Provider {
	case "sina", "yahoo":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Position.StopLoss <= 0 {
		return fmt.Errorf("position.stop_loss must be positive")
	}
	if c.Position.Capital < 0 {
		return fmt.Errorf("position.capital must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
