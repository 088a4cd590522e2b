package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr         string `mapstructure:"LISTEN_ADDR"`
	APIBase            string `mapstructure:"API_BASE"`
	DatabasePath       string `mapstructure:"DB_PATH"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	Timezone           string `mapstructure:"TIMEZONE"`
	LogDevelopment     bool   `mapstructure:"LOG_DEVELOPMENT"`
	RefetchAfterRename bool   `mapstructure:"REFETCH_AFTER_RENAME"`
	JournalSize        int    `mapstructure:"JOURNAL_SIZE"`
}

// LoadConfig reads SITEPANEL_* environment variables, falling back to an
// optional env file and then to defaults.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("API_BASE", "http://localhost:3001/api")
	v.SetDefault("DB_PATH", "sitepanel.db")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("TIMEZONE", "Europe/Paris")
	v.SetDefault("LOG_DEVELOPMENT", false)
	v.SetDefault("REFETCH_AFTER_RENAME", false)
	v.SetDefault("JOURNAL_SIZE", 10)

	v.SetEnvPrefix("SITEPANEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		// A missing env file is fine, defaults and environment still apply.
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	config.APIBase = strings.TrimRight(config.APIBase, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate enforces required values.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("API_BASE must be set")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE must be an absolute URL, got %q", c.APIBase)
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be > 0")
	}
	if c.JournalSize < 0 {
		return fmt.Errorf("JOURNAL_SIZE must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// HTTPTimeout is the per-request budget for backend calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Location resolves the display time zone for dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
