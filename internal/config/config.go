// Package config handles configuration loading for coinconvert.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"  yaml:"upstream"  json:"upstream"`
	Gateway   GatewayConfig   `mapstructure:"gateway"   yaml:"gateway"   json:"gateway"`
	Converter ConverterConfig `mapstructure:"converter" yaml:"converter" json:"converter"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// UpstreamConfig holds CoinMarketCap connection settings.
type UpstreamConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"    json:"base_url"`
	APIKey     string `mapstructure:"api_key"     yaml:"api_key"     json:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"  json:"user_agent"`
}

// Timeout returns the per-call upstream deadline.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// GatewayConfig holds quote gateway settings.
type GatewayConfig struct {
	ReferenceCurrency string `mapstructure:"reference_currency" yaml:"reference_currency" json:"reference_currency"` // e.g., "INR"
	DefaultLimit      string `mapstructure:"default_limit"      yaml:"default_limit"      json:"default_limit"`
	ImageURLTemplate  string `mapstructure:"image_url_template" yaml:"image_url_template" json:"image_url_template"` // %d is the upstream id
}

// ConverterConfig holds converter UI settings.
type ConverterConfig struct {
	DefaultFiat string             `mapstructure:"default_fiat" yaml:"default_fiat" json:"default_fiat"`
	DisplayCap  int                `mapstructure:"display_cap"  yaml:"display_cap"  json:"display_cap"`
	Rates       map[string]float64 `mapstructure:"rates"        yaml:"rates,omitempty" json:"rates,omitempty"` // overrides, reference -> target multiplier
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.coinconvert/config.yaml (home directory)
//  3. /etc/coinconvert/config.yaml (system)
//
// Environment variables override config file values.
// Format: COINCONVERT_<SECTION>_<KEY>, e.g., COINCONVERT_UPSTREAM_TIMEOUT_SEC.
// PORT and CMC_API are honoured without the prefix.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".coinconvert"))
	v.AddConfigPath("/etc/coinconvert")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("COINCONVERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults registers the built-in value of every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5001)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("upstream.base_url", "https://pro-api.coinmarketcap.com")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timeout_sec", 15)
	v.SetDefault("upstream.user_agent", "coinconvert/1.0")

	v.SetDefault("gateway.reference_currency", "INR")
	v.SetDefault("gateway.default_limit", "5000")
	v.SetDefault("gateway.image_url_template", "https://s2.coinmarketcap.com/static/img/coins/64x64/%d.png")

	v.SetDefault("converter.default_fiat", "inr")
	v.SetDefault("converter.display_cap", 200)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads the unprefixed variables the deployment relies on.
func overrideFromEnv(cfg *Config) {
	if p := os.Getenv("PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			cfg.API.Port = n
		}
	}
	if key := os.Getenv("CMC_API"); key != "" {
		cfg.Upstream.APIKey = key
	}
}

// loadDotEnv loads ./.env if present. Existing variables win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env: %w", err)
	}
	return nil
}

// Addr returns the listen address for the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// Masked returns a copy of the configuration with secrets masked.
func (c *Config) Masked() *Config {
	out := *c
	if out.Upstream.APIKey != "" {
		out.Upstream.APIKey = maskKey(out.Upstream.APIKey)
	}
	return &out
}

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c.Masked())
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return b, nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
