// Package config loads service settings from an optional file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/favitude/favitude/internal/constants"
)

// Config is the service configuration.
type Config struct {
	Port     string         `mapstructure:"port"`
	BaseURL  string         `mapstructure:"base_url"`
	Log      LogConfig      `mapstructure:"log"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Generate GenerateConfig `mapstructure:"generate"`
	Fonts    FontsConfig    `mapstructure:"fonts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type UploadConfig struct {
	MaxBytes  int64 `mapstructure:"max_bytes"`
	MaxPixels int64 `mapstructure:"max_pixels"`
}

type GenerateConfig struct {
	MaxConcurrent  int64         `mapstructure:"max_concurrent"`
	Timeout        time.Duration `mapstructure:"timeout"`
	TextPNGPrefix  string        `mapstructure:"text_png_prefix"`
	ImagePNGPrefix string        `mapstructure:"image_png_prefix"`
}

// FontsConfig points at extra font files. Each file becomes an asset named
// after it, e.g. arial.ttf serves the Arial family. With Watch set, files
// added later are picked up without a restart. Families adds or remaps
// family names to candidate assets.
type FontsConfig struct {
	Dir      string              `mapstructure:"dir"`
	Watch    bool                `mapstructure:"watch"`
	Families map[string][]string `mapstructure:"families"`
}

// Defaults
const (
	DefaultPort           = "8000"
	DefaultMaxUploadBytes = 10 << 20
	DefaultTimeout        = 30 * time.Second
)

// Load reads favitude.{yaml,toml,json} from the working directory or the
// user config directory, then applies FAVITUDE_* environment variables.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("favitude")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "favitude"))
	}
	return load(v)
}

// LoadFile reads the given config file plus the environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("FAVITUDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT and BASE_URL are honoured without prefix, as most hosts set them.
	if err := v.BindEnv("port", "FAVITUDE_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind PORT: %w", err)
	}
	if err := v.BindEnv("base_url", "FAVITUDE_BASE_URL", "BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind BASE_URL: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("base_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)
	v.SetDefault("upload.max_pixels", constants.MaxSourcePixels)
	v.SetDefault("generate.max_concurrent", runtime.NumCPU())
	v.SetDefault("generate.timeout", DefaultTimeout)
	v.SetDefault("generate.text_png_prefix", "")
	v.SetDefault("generate.image_png_prefix", "")
	v.SetDefault("fonts.dir", "")
	v.SetDefault("fonts.watch", false)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes))
	}
	if c.Upload.MaxPixels <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_pixels must be positive, got %d", c.Upload.MaxPixels))
	}
	if c.Generate.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("generate.max_concurrent must be positive, got %d", c.Generate.MaxConcurrent))
	}
	if c.Generate.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("generate.timeout must be positive, got %s", c.Generate.Timeout))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
