package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
data_source:
  provider: sina
  symbol: "600000"
position:
  stop_loss: 8.5
  capital: 100000
  target_price: 12
schedule:
  refresh_cron: "@every 30s"
server:
  port: 8080
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "600000", cfg.DataSource.Symbol)
	assert.Equal(t, 8.5, cfg.Position.StopLoss)
	assert.Equal(t, 100000.0, cfg.Position.Capital)
	assert.Equal(t, "@every 30s", cfg.Schedule.RefreshCron)
	assert.Equal(t, "0 30 15 * * 1-5", cfg.Schedule.ReportCron)
	assert.Equal(t, "data/pyramid_sentinel.db", cfg.Database.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PYRAMID_POSITION_STOP_LOSS", "9.25")
	t.Setenv("PYRAMID_DATA_SOURCE_PROVIDER", "yahoo")
	t.Setenv("PYRAMID_TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("PYRAMID_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 9.25, cfg.Position.StopLoss)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.True(t, cfg.Telegram.Enabled())
	// untouched by env
	assert.Equal(t, 100000.0, cfg.Position.Capital)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sina", cfg.DataSource.Provider)
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "position: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.DataSource.Symbol = "600000"
		c.Position.StopLoss = 5
		c.Position.Capital = 1000
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no symbol", func(c *Config) { c.DataSource.Symbol = "" }},
		{"bad provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"zero stop", func(c *Config) { c.Position.StopLoss = 0 }},
		{"negative capital", func(c *Config) { c.Position.Capital = -1 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPositionConfig_Input(t *testing.T) {
	p := PositionConfig{StopLoss: 8, Capital: 5000, TargetPrice: 13}
	in := p.Input(10.5)
	assert.Equal(t, 10.5, in.CurrentPrice)
	assert.Equal(t, 8.0, in.StopLoss)
	assert.Equal(t, 5000.0, in.Capital)
	assert.Equal(t, 13.0, in.TargetPrice)
}
