package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default values for a fresh configuration
const (
	DefaultDataDir    = "./data"
	DefaultBaseURL    = "https://snapjson.untapped.gg/"
	DefaultImageStyle = "framebreak/common"
	DefaultImageSize  = 512
	DefaultImageExt   = "webp"
	DefaultUserAgent  = "snaplabel"

	envPrefix = "SNAPLABEL"
)

// Config represents the application configuration
type Config struct {
	DataDir     string        `toml:"data_dir" mapstructure:"data_dir"`
	BaseURL     string        `toml:"base_url" mapstructure:"base_url"`
	ImageStyle  string        `toml:"image_style" mapstructure:"image_style"`
	ImageSize   int           `toml:"image_size" mapstructure:"image_size"`
	ImageExt    string        `toml:"image_ext" mapstructure:"image_ext"`
	UserAgent   string        `toml:"user_agent" mapstructure:"user_agent"`
	Timeout     time.Duration `toml:"timeout" mapstructure:"timeout"`         // 0 disables the per-request timeout
	Concurrency int           `toml:"concurrency" mapstructure:"concurrency"` // 0 means one chain per card, unbounded
	Debug       bool          `toml:"debug" mapstructure:"debug"`
	LogFile     string        `toml:"log_file" mapstructure:"log_file"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		BaseURL:    DefaultBaseURL,
		ImageStyle: DefaultImageStyle,
		ImageSize:  DefaultImageSize,
		ImageExt:   DefaultImageExt,
		UserAgent:  DefaultUserAgent,
	}
}

// ClassesPath returns the path of the predefined classes file
func (c *Config) ClassesPath() string {
	return filepath.Join(c.DataDir, "predefined_classes.txt")
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL: %q", c.BaseURL)
	}

	if c.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive")
	}
	if strings.Trim(c.ImageExt, ".") == "" {
		return fmt.Errorf("image_ext must not be empty")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "snaplabel", "config.toml")
}

// GetCacheDir returns the snaplabel cache directory
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "snaplabel")
}

// Load builds the configuration from defaults, the config file, SNAPLABEL_*
// environment variables and any changed flags, in increasing priority.
// An empty configPath uses GetConfigFilePath; a missing file is not an error.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("image_style", defaults.ImageStyle)
	v.SetDefault("image_size", defaults.ImageSize)
	v.SetDefault("image_ext", defaults.ImageExt)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("timeout", "0s")
	v.SetDefault("concurrency", 0)
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = GetConfigFilePath()
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configPath); !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
		// No config file; continue with env vars and defaults
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ImageExt = strings.TrimPrefix(cfg.ImageExt, ".")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagKeys maps config keys to the command-line flags that override them
var flagKeys = map[string]string{
	"data_dir":    "data",
	"base_url":    "base-url",
	"debug":       "debug",
	"log_file":    "log-file",
	"concurrency": "concurrency",
	"timeout":     "timeout",
}

// WriteDefault writes the default config to path unless a file already exists
// there. It reports whether a new file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	// Encode the config to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(DefaultConfig()); err != nil {
		return false, fmt.Errorf("error encoding config: %w", err)
	}

	return true, nil
}
