package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL     = "http://localhost:8000/api"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 4096
	DefaultRequestTimeout = 60 * time.Second
	DefaultPage           = "dashboard"
	DefaultTranslateTo    = "vi"
	DefaultStoreDriver    = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	API         APISettings `yaml:"api"`
	LLM         LLMSettings `yaml:"llm"`
	Page        string      `yaml:"page"`
	Agent       string      `yaml:"preferred_agent"`
	DBPath      string      `yaml:"db_path"`
	StoreDriver string      `yaml:"store_driver"`
	TranslateTo string      `yaml:"translate_to"`
	Debug       bool        `yaml:"debug"`
}

type APISettings struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type LLMSettings struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		API: APISettings{
			BaseURL: DefaultAPIBaseURL,
			Timeout: DefaultRequestTimeout,
		},
		LLM: LLMSettings{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Page:        DefaultPage,
		TranslateTo: DefaultTranslateTo,
		StoreDriver: DefaultStoreDriver,
	}
}

// LoadConfig reads the YAML file at path (optional when empty or missing), loads .env
// if present, and applies TUTOR_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// A missing .env is normal; system environment variables still apply.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TUTOR_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("TUTOR_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("TUTOR_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("TUTOR_STORE_DRIVER"); v != "" {
		c.StoreDriver = v
	}
	if v := os.Getenv("TUTOR_PAGE"); v != "" {
		c.Page = v
	}
	if v := os.Getenv("TUTOR_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
}

func (c *Config) applyDefaults() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultRequestTimeout
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.Page == "" {
		c.Page = DefaultPage
	}
	if c.TranslateTo == "" {
		c.TranslateTo = DefaultTranslateTo
	}
	if c.StoreDriver == "" {
		c.StoreDriver = DefaultStoreDriver
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.StoreDriver != "sqlite" && c.StoreDriver != "bolt" {
		return fmt.Errorf("%w: store_driver must be sqlite or bolt", ErrInvalidConfig)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("%w: llm.max_tokens must be positive", ErrInvalidConfig)
	}
	return nil
}
