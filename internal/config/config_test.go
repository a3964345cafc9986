package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.Equal(t, "https://mempool.space/api", cfg.Explorer.BaseURL)
	assert.Equal(t, uint(1), cfg.Explorer.RetryAttempts)
	assert.True(t, cfg.Price.Enabled)
	assert.Equal(t, "EUR", cfg.Price.Currency)
	assert.Equal(t, []WalletEntry{{Name: "Default", Address: DefaultWalletAddress}}, cfg.Wallet.Defaults)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 50, cfg.Render.PageSize)
	assert.Equal(t, time.Minute, cfg.Breaker.Interval)
	assert.Equal(t, DefaultUserAgent, cfg.Explorer.UserAgent)
	assert.Equal(t, DefaultUserAgent, cfg.Price.UserAgent)
}

func TestLoadConfigPriceUserAgentFollowsExplorer(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "explorer:\n  user_agent: my-agent\n"))
	require.NoError(t, err)
	assert.Equal(t, "my-agent", cfg.Price.UserAgent)

	cfg, err = LoadConfig(writeConfig(t, "explorer:\n  user_agent: my-agent\nprice:\n  enabled: true\n  user_agent: other\n"))
	require.NoError(t, err)
	assert.Equal(t, "other", cfg.Price.UserAgent)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  port: 9000
explorer:
  base_url: http://localhost:3000/api/
  retry_attempts: 3
price:
  enabled: false
wallet:
  strict_address: true
  defaults:
    - name: cold
      address: 1BoatSLRHtKNngkdXEeobR76b53LETtpyT
session:
  ttl: 30m
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000/api", cfg.Explorer.BaseURL)
	assert.Equal(t, uint(3), cfg.Explorer.RetryAttempts)
	assert.False(t, cfg.Price.Enabled)
	assert.True(t, cfg.Wallet.StrictAddress)
	assert.Equal(t, "cold", cfg.Wallet.Defaults[0].Name)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
wallet:
  defaults:
    - name: a
      address: 1BoatSLRHtKNngkdXEeobR76b53LETtpyT
    - name: a
      address: 1BoatSLRHtKNngkdXEeobR76b53LETtpyT
`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "explorer:\n  base_url: ftp://x\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
