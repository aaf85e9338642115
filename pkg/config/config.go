package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-flash",
	ProviderOpenAI: "gpt-4o-mini",
}

// DefaultModel returns the model used when llm.model is left empty.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"3001"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Sources struct {
		Timeout      time.Duration `yaml:"timeout" default:"10s"`
		CoinGeckoURL string        `yaml:"coingecko_url" default:"https://api.coingecko.com/api/v3"`
		FearGreedURL string        `yaml:"fear_greed_url" default:"https://api.alternative.me"`
		BinanceURL   string        `yaml:"binance_url" default:"https://fapi.binance.com"`
		HistoryDays  int           `yaml:"history_days" default:"7"`
		RatioPeriod  string        `yaml:"ratio_period" default:"1d"`
		RatioLimit   int           `yaml:"ratio_limit" default:"7"`
		QuoteAsset   string        `yaml:"quote_asset" default:"USDT"`
	} `yaml:"sources"`
	LLM struct {
		Provider  string        `yaml:"provider" default:"gemini"`
		Model     string        `yaml:"model"`
		APIKey    string        `yaml:"api_key"`
		BaseURL   string        `yaml:"base_url"`
		MaxTokens int           `yaml:"max_tokens" default:"4096"`
		Timeout   time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"llm"`
	Cache struct {
		MaxSize          int           `yaml:"max_size" default:"1000"`
		MarketTTL        time.Duration `yaml:"market_ttl" default:"5m"`
		ConversationTTL  time.Duration `yaml:"conversation_ttl" default:"1h"`
		CleanupInterval  time.Duration `yaml:"cleanup_interval" default:"5m"`
		StatsLogInterval time.Duration `yaml:"stats_log_interval" default:"10m"`
	} `yaml:"cache"`
	Session struct {
		Timeout       time.Duration `yaml:"timeout" default:"1h"`
		SweepInterval time.Duration `yaml:"sweep_interval" default:"15m"`
	} `yaml:"session"`
	Aggregator struct {
		// StageDelay paces the UI between data gathering and synthesis. Zero disables it.
		StageDelay time.Duration `yaml:"stage_delay" default:"0s"`
	} `yaml:"aggregator"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
	} `yaml:"ratelimit"`
}

// Default returns a config populated only from struct defaults.
func Default() (*Config, error) {
	return Parse(nil)
}

// Parse decodes YAML over the defaults without validating. An empty
// llm.model resolves to the provider's default model.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel(c.LLM.Provider)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		b = nil
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, overrides with environment variables and validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.ApplyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment lookups.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.ToLower(getenv("LLM_PROVIDER")); v != "" && v != c.LLM.Provider {
		// A model left at the old provider's default follows the switch.
		if c.LLM.Model == "" || c.LLM.Model == DefaultModel(c.LLM.Provider) {
			c.LLM.Model = DefaultModel(v)
		}
		c.LLM.Provider = v
	}
	if v := getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.APIKey = getenv("OPENAI_API_KEY")
		default:
			if v := getenv("GEMINI_API_KEY"); v != "" {
				c.LLM.APIKey = v
			} else {
				c.LLM.APIKey = getenv("GOOGLE_API_KEY")
			}
		}
	}
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.LLM.Provider != ProviderGemini && c.LLM.Provider != ProviderOpenAI {
		return fmt.Errorf("llm.provider must be '%s' or '%s', got '%s'", ProviderGemini, ProviderOpenAI, c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (or set GEMINI_API_KEY / OPENAI_API_KEY)")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Cache.MarketTTL <= 0 || c.Cache.ConversationTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session.timeout must be positive")
	}
	if c.Sources.HistoryDays <= 0 {
		return fmt.Errorf("sources.history_days must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("ratelimit requires capacity >= 1 and refill_per_sec > 0")
	}
	return nil
}
