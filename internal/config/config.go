package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the configuration settings for the application.
type Config struct {
	Server      *ServerConfig     `yaml:"server"`
	LogLevel    string            `yaml:"log_level"`
	LogEncoding string            `yaml:"log_encoding"`
	Explorer    *ExplorerConfig   `yaml:"explorer"`
	Price       *PriceConfig      `yaml:"price"`
	RPC         *BitcoinRPCConfig `yaml:"rpc"`
	Breaker     *BreakerConfig    `yaml:"breaker"`
	Wallet      *WalletConfig     `yaml:"wallet"`
	Session     *SessionConfig    `yaml:"session"`
	Render      *RenderConfig     `yaml:"render"`
}

// ServerConfig holds the configuration settings for the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExplorerConfig points at an esplora compatible block explorer (mempool.space by default).
type ExplorerConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts uint          `yaml:"retry_attempts"` // 1 means a single try
	UserAgent     string        `yaml:"user_agent"`
}

// PriceConfig configures the BTC -> fiat rate source.
type PriceConfig struct {
	Enabled  bool          `yaml:"enabled"`
	BaseURL  string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Currency  string        `yaml:"currency"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"` // defaults to explorer.user_agent
}

// BitcoinRPCConfig holds the configuration settings for Bitcoin JSON-RPC.
// When URL is empty the tip height comes from the explorer.
type BitcoinRPCConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// BreakerConfig tunes the circuit breaker of each remote provider.
// Counts are cleared every Interval while the breaker is closed.
type BreakerConfig struct {
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
	Interval     time.Duration `yaml:"interval"`
	OpenTimeout  time.Duration `yaml:"open_timeout"`
}

type WalletEntry struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type WalletConfig struct {
	StrictAddress bool          `yaml:"strict_address"`
	Defaults      []WalletEntry `yaml:"defaults"`
}

type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"`
}

type RenderConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

const (
	DefaultWalletAddress = "bc1qrttfx5gcfmdxlzxplz2xax9j958m3xz78l9cv4"
	DefaultUserAgent     = "utxo-dashboard/1.0"
)

// LoadConfig reads and parses the configuration file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8501
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogEncoding == "" {
		c.LogEncoding = "json"
	}

	if c.Explorer == nil {
		c.Explorer = &ExplorerConfig{}
	}
	if c.Explorer.BaseURL == "" {
		c.Explorer.BaseURL = "https://mempool.space/api"
	}
	c.Explorer.BaseURL = strings.TrimRight(c.Explorer.BaseURL, "/")
	if c.Explorer.Timeout == 0 {
		c.Explorer.Timeout = 10 * time.Second
	}
	if c.Explorer.RetryAttempts == 0 {
		c.Explorer.RetryAttempts = 1
	}
	if c.Explorer.UserAgent == "" {
		c.Explorer.UserAgent = DefaultUserAgent
	}

	if c.Price == nil {
		c.Price = &PriceConfig{Enabled: true}
	}
	if c.Price.BaseURL == "" {
		c.Price.BaseURL = "https://api.coingecko.com/api/v3"
	}
	c.Price.BaseURL = strings.TrimRight(c.Price.BaseURL, "/")
	if c.Price.Currency == "" {
		c.Price.Currency = "EUR"
	}
	if c.Price.Timeout == 0 {
		c.Price.Timeout = 10 * time.Second
	}
	if c.Price.UserAgent == "" {
		c.Price.UserAgent = c.Explorer.UserAgent
	}

	if c.RPC == nil {
		c.RPC = &BitcoinRPCConfig{}
	}

	if c.Breaker == nil {
		c.Breaker = &BreakerConfig{}
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 10
	}
	if c.Breaker.FailureRatio == 0 {
		c.Breaker.FailureRatio = 0.6
	}
	if c.Breaker.Interval == 0 {
		c.Breaker.Interval = time.Minute
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = 30 * time.Second
	}

	if c.Wallet == nil {
		c.Wallet = &WalletConfig{}
	}
	if len(c.Wallet.Defaults) == 0 {
		c.Wallet.Defaults = []WalletEntry{{Name: "Default", Address: DefaultWalletAddress}}
	}

	if c.Session == nil {
		c.Session = &SessionConfig{}
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 12 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "utxo_session"
	}

	if c.Render == nil {
		c.Render = &RenderConfig{}
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = 20 * time.Second
	}
	if c.Render.PageSize == 0 {
		c.Render.PageSize = 50
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Explorer.BaseURL, "http") {
		return fmt.Errorf("explorer.base_url must be an http(s) url: %q", c.Explorer.BaseURL)
	}
	if c.Price.Enabled && !strings.HasPrefix(c.Price.BaseURL, "http") {
		return fmt.Errorf("price.base_url must be an http(s) url: %q", c.Price.BaseURL)
	}
	if c.Breaker.Interval < 0 || c.Breaker.OpenTimeout < 0 {
		return fmt.Errorf("breaker.interval and breaker.open_timeout must not be negative")
	}
	if c.Breaker.FailureRatio < 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be within [0,1]: %v", c.Breaker.FailureRatio)
	}
	if c.Render.PageSize < 0 {
		return fmt.Errorf("render.page_size must be positive: %d", c.Render.PageSize)
	}
	seen := make(map[string]struct{}, len(c.Wallet.Defaults))
	for _, w := range c.Wallet.Defaults {
		if strings.TrimSpace(w.Name) == "" || strings.TrimSpace(w.Address) == "" {
			return fmt.Errorf("wallet.defaults: name and address are required")
		}
		if _, ok := seen[w.Name]; ok {
			return fmt.Errorf("wallet.defaults: duplicate name %q", w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}
