package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:8000"

// Config holds the application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Health    HealthConfig    `mapstructure:"health"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Log       LogConfig       `mapstructure:"log"`

	v *viper.Viper
}

// APIConfig holds the backend gateway configuration
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HealthConfig holds the backend health polling configuration
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ResourcesConfig holds the PDF preview configuration
type ResourcesConfig struct {
	MaxSize string `mapstructure:"max_size"`
	Dir     string `mapstructure:"dir"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// MaxBytes parses Resources.MaxSize ("50MB", "512KiB", ...).
func (r ResourcesConfig) MaxBytes() (int64, error) {
	n, err := humanize.ParseBytes(r.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("resources.max_size %q: %w", r.MaxSize, err)
	}
	return int64(n), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.endpoint", "/ask")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("health.interval", 15*time.Second)
	v.SetDefault("health.timeout", 5*time.Second)
	v.SetDefault("resources.max_size", "50MB")
	v.SetDefault("resources.dir", os.TempDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load loads the configuration from $CONFIG_PATH or config.yaml, then the
// environment (JACK_ prefix, plus a .env file when present). A missing config
// file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jack"))
		}
	}

	v.SetEnvPrefix("jack")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// VITE_API_BASE is what the web frontend used; keep honouring it.
	if err := v.BindEnv("api.base_url", "JACK_API_BASE_URL", "VITE_API_BASE"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.API.BaseURL = strings.TrimRight(config.API.BaseURL, "/")
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that would only fail later at request time.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if !strings.HasPrefix(c.API.Endpoint, "/") {
		return fmt.Errorf("api.endpoint %q must start with /", c.API.Endpoint)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Health.Interval <= 0 {
		return errors.New("health.interval must be positive")
	}
	if c.Health.Timeout <= 0 {
		return errors.New("health.timeout must be positive")
	}
	if _, err := c.Resources.MaxBytes(); err != nil {
		return err
	}
	return nil
}

// SetBaseURL overrides the backend address, e.g. from a command line flag.
func (c *Config) SetBaseURL(raw string) error {
	prev := c.API.BaseURL
	c.API.BaseURL = strings.TrimRight(raw, "/")
	if err := c.Validate(); err != nil {
		c.API.BaseURL = prev
		return err
	}
	return nil
}

// File returns the config file in use, or "" when running on defaults.
func (c *Config) File() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Watch re-reads the config file whenever it changes and passes the new
// values to onChange. Invalid edits are reported through onError and the
// previous configuration stays in effect. It is a no-op without a file.
func (c *Config) Watch(onChange func(*Config), onError func(error)) {
	if c.File() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		next.v = c.v
		onChange(next)
	})
	c.v.WatchConfig()
}
