package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Trading modes.
const (
	ModeTestnet = "TESTNET"
	ModePaper   = "PAPER"
)

const DefaultTestnetURL = "https://testnet.binancefuture.com"

// Config holds every setting of the application.
// After loading the file, environment variables override the secrets.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode string `yaml:"mode"`
	} `yaml:"trading"`

	Exchange struct {
		RestURL       string `yaml:"rest_url"`
		APIKey        string `yaml:"api_key"`
		APISecret     string `yaml:"api_secret"`
		RecvWindowMS  int64  `yaml:"recv_window_ms"`
		HTTPTimeoutMS int64  `yaml:"http_timeout_ms"`
	} `yaml:"exchange"`

	Clock struct {
		AllowDegraded bool  `yaml:"allow_degraded"`
		MaxAgeSec     int64 `yaml:"max_age_sec"`
	} `yaml:"clock"`

	Paper struct {
		Symbols    []string          `yaml:"symbols"`
		MarkPrices map[string]string `yaml:"mark_prices"`
	} `yaml:"paper"`

	RateLimit struct {
		OrderPerSec  float64 `yaml:"order_per_sec"`
		OrderBurst   int     `yaml:"order_burst"`
		MarketPerSec float64 `yaml:"market_per_sec"`
		MarketBurst  int     `yaml:"market_burst"`
	} `yaml:"rate_limit"`

	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	// Warnings collected while loading, logged once a logger exists.
	Warnings []string `yaml:"-"`
}

// DefaultConfig returns a config that talks to the futures testnet.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = AppName
	cfg.App.Version = "0.1.0"
	cfg.Trading.Mode = ModeTestnet
	cfg.Exchange.RestURL = DefaultTestnetURL
	cfg.Exchange.RecvWindowMS = 5000
	cfg.Exchange.HTTPTimeoutMS = 10000
	cfg.Clock.AllowDegraded = true
	cfg.Clock.MaxAgeSec = 1800
	cfg.Paper.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	cfg.Paper.MarkPrices = map[string]string{}
	cfg.RateLimit.OrderPerSec = 10
	cfg.RateLimit.OrderBurst = 5
	cfg.RateLimit.MarketPerSec = 20
	cfg.RateLimit.MarketBurst = 10
	cfg.Server.Addr = "localhost:8501"
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads the yaml file at path over the defaults.
// A missing file is not an error. Values of the form ${VAR} are expanded.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			data = []byte(os.ExpandEnv(string(data)))
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment.
// Existing variables win. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	c.Trading.Mode = strings.ToUpper(strings.TrimSpace(c.Trading.Mode))
	if c.Trading.Mode != ModeTestnet && c.Trading.Mode != ModePaper {
		return fmt.Errorf("unknown trading mode: %q", c.Trading.Mode)
	}

	if c.Trading.Mode == ModeTestnet {
		if !strings.HasPrefix(c.Exchange.RestURL, "http://") && !strings.HasPrefix(c.Exchange.RestURL, "https://") {
			return fmt.Errorf("invalid exchange REST URL: %s", c.Exchange.RestURL)
		}
	}
	if c.Trading.Mode == ModePaper && len(c.Paper.Symbols) == 0 {
		return fmt.Errorf("at least one paper symbol is required")
	}

	if c.Exchange.RecvWindowMS <= 0 || c.Exchange.RecvWindowMS > 60000 {
		return fmt.Errorf("recv window must be in (0, 60000] ms, got %d", c.Exchange.RecvWindowMS)
	}
	if c.Exchange.HTTPTimeoutMS <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.RateLimit.OrderPerSec <= 0 || c.RateLimit.MarketPerSec <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.RateLimit.OrderBurst <= 0 || c.RateLimit.MarketBurst <= 0 {
		return fmt.Errorf("rate limit bursts must be positive")
	}

	return nil
}

// RecvWindow returns the configured recvWindow.
func (c *Config) RecvWindow() time.Duration {
	return time.Duration(c.Exchange.RecvWindowMS) * time.Millisecond
}

// HTTPTimeout returns the exchange request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Exchange.HTTPTimeoutMS) * time.Millisecond
}

// ClockMaxAge returns how long a resolved clock offset is trusted.
func (c *Config) ClockMaxAge() time.Duration {
	return time.Duration(c.Clock.MaxAgeSec) * time.Second
}

// HasCredentials reports whether both API key and secret are set.
func (c *Config) HasCredentials() bool {
	return c.Exchange.APIKey != "" && c.Exchange.APISecret != ""
}

// LogWarnings writes the load-time warnings to logger.
func (c *Config) LogWarnings(logger *zap.Logger) {
	for _, w := range c.Warnings {
		logger.Warn(w)
	}
}

// overrideWithEnv lets environment variables take precedence over the file.
func overrideWithEnv(cfg *Config) {
	if cfg.Exchange.APISecret != "" {
		cfg.Warnings = append(cfg.Warnings, "API secret found in config file; prefer BINANCE_API_KEY / BINANCE_API_SECRET environment variables")
	}

	if key := os.Getenv("BINANCE_API_KEY"); key != "" {
		cfg.Exchange.APIKey = key
	}
	if secret := os.Getenv("BINANCE_API_SECRET"); secret != "" {
		cfg.Exchange.APISecret = secret
	}
	if url := os.Getenv("BINANCE_REST_URL"); url != "" {
		cfg.Exchange.RestURL = url
	}
	if mode := os.Getenv("ORDER_DESK_MODE"); mode != "" {
		cfg.Trading.Mode = mode
	}
	if addr := os.Getenv("ORDER_DESK_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("ORDER_DESK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
