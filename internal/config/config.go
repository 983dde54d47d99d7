// Package config resolves partget settings from built-in defaults, an optional YAML file,
// a .env file plus PARTGET_* environment variables, and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PARTGET_"

type Config struct {
	MinChunkSize     int64
	MaxChunkSize     int64
	BufferSize       int64
	ConnectTimeout   time.Duration
	ProgressInterval time.Duration
	UserAgent        string
	TempDir          string
	LogFile          string
	Debug            bool
}

// rawConfig mirrors Config with string values so sizes and durations can be written
// in human form ("10MiB", "8m") in both YAML and the environment.
type rawConfig struct {
	MinChunkSize     string `yaml:"min_chunk_size"`
	MaxChunkSize     string `yaml:"max_chunk_size"`
	BufferSize       string `yaml:"buffer_size"`
	ConnectTimeout   string `yaml:"connect_timeout"`
	ProgressInterval string `yaml:"progress_interval"`
	UserAgent        string `yaml:"user_agent"`
	TempDir          string `yaml:"temp_dir"`
	LogFile          string `yaml:"log_file"`
	Debug            string `yaml:"debug"`
}

func Default() Config {
	return Config{
		MinChunkSize:     utils.DefaultMinChunkSize,
		MaxChunkSize:     utils.DefaultMaxChunkSize,
		BufferSize:       utils.DefaultBufferSize,
		ConnectTimeout:   utils.DefaultConnectTimeout,
		ProgressInterval: utils.DefaultProgressInterval,
		UserAgent:        utils.ToolUserAgent,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/partget/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "partget", "config.yaml")
}

// Load applies the YAML file and the environment on top of the defaults.
// An explicit path (argument or PARTGET_CONFIG) must exist; the default path is optional.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := true
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return cfg, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("op", "config/load").Err(err).Msg("could not read .env file")
	}
	if err := cfg.apply(envConfig(), "environment"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	log.Debug().Str("op", "config/load").Msgf("Loaded config file %s", path)
	return c.apply(raw, path)
}

func envConfig() rawConfig {
	return rawConfig{
		MinChunkSize:     os.Getenv(envPrefix + "MIN_CHUNK_SIZE"),
		MaxChunkSize:     os.Getenv(envPrefix + "MAX_CHUNK_SIZE"),
		BufferSize:       os.Getenv(envPrefix + "BUFFER_SIZE"),
		ConnectTimeout:   os.Getenv(envPrefix + "CONNECT_TIMEOUT"),
		ProgressInterval: os.Getenv(envPrefix + "PROGRESS_INTERVAL"),
		UserAgent:        os.Getenv(envPrefix + "USER_AGENT"),
		TempDir:          os.Getenv(envPrefix + "TEMP_DIR"),
		LogFile:          os.Getenv(envPrefix + "LOG_FILE"),
		Debug:            os.Getenv(envPrefix + "DEBUG"),
	}
}

func (c *Config) apply(raw rawConfig, source string) error {
	var err error
	if raw.MinChunkSize != "" {
		if c.MinChunkSize, err = utils.ParseSize(raw.MinChunkSize); err != nil {
			return fmt.Errorf("%s: min_chunk_size: %w", source, err)
		}
	}
	if raw.MaxChunkSize != "" {
		if c.MaxChunkSize, err = utils.ParseSize(raw.MaxChunkSize); err != nil {
			return fmt.Errorf("%s: max_chunk_size: %w", source, err)
		}
	}
	if raw.BufferSize != "" {
		if c.BufferSize, err = utils.ParseSize(raw.BufferSize); err != nil {
			return fmt.Errorf("%s: buffer_size: %w", source, err)
		}
	}
	if raw.ConnectTimeout != "" {
		if c.ConnectTimeout, err = time.ParseDuration(raw.ConnectTimeout); err != nil {
			return fmt.Errorf("%s: connect_timeout: %w", source, err)
		}
	}
	if raw.ProgressInterval != "" {
		if c.ProgressInterval, err = time.ParseDuration(raw.ProgressInterval); err != nil {
			return fmt.Errorf("%s: progress_interval: %w", source, err)
		}
	}
	if raw.Debug != "" {
		if c.Debug, err = strconv.ParseBool(raw.Debug); err != nil {
			return fmt.Errorf("%s: debug: %w", source, err)
		}
	}
	if raw.UserAgent != "" {
		c.UserAgent = raw.UserAgent
	}
	if raw.TempDir != "" {
		c.TempDir = raw.TempDir
	}
	if raw.LogFile != "" {
		c.LogFile = raw.LogFile
	}
	return nil
}

func (c Config) Validate() error {
	if c.MinChunkSize <= 0 {
		return fmt.Errorf("min chunk size must be positive, got %d", c.MinChunkSize)
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.MinChunkSize > c.MaxChunkSize {
		return fmt.Errorf("min chunk size (%d) exceeds max chunk size (%d)", c.MinChunkSize, c.MaxChunkSize)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %s", c.ProgressInterval)
	}
	return nil
}

// HTTPClientConfig resolves the user agent ("randomize" picks one from the built-in list).
func (c Config) HTTPClientConfig() utils.HTTPClientConfig {
	userAgent := c.UserAgent
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	return utils.HTTPClientConfig{
		ConnectTimeout: c.ConnectTimeout,
		UserAgent:      userAgent,
	}
}
