package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when file missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"), nil)
		require.NoError(t, err)

		assert.Equal(t, DefaultDataDir, cfg.DataDir)
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, DefaultImageExt, cfg.ImageExt)
		assert.Equal(t, DefaultImageSize, cfg.ImageSize)
		assert.Zero(t, cfg.Timeout)
		assert.Zero(t, cfg.Concurrency)
	})

	t.Run("file values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		content := `
data_dir = "/srv/snap"
image_ext = ".png"
timeout = "30s"
concurrency = 4
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg, err := Load(configPath, nil)
		require.NoError(t, err)

		assert.Equal(t, "/srv/snap", cfg.DataDir)
		assert.Equal(t, "png", cfg.ImageExt, "leading dot is trimmed")
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, 4, cfg.Concurrency)
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL, "unset keys keep defaults")
	})

	t.Run("env overrides file and flags override env", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(configPath, []byte(`data_dir = "from-file"`), 0644))
		t.Setenv("SNAPLABEL_DATA_DIR", "from-env")

		cfg, err := Load(configPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.DataDir)

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("data", "", "")
		require.NoError(t, flags.Parse([]string{"--data", "from-flag"}))

		cfg, err = Load(configPath, flags)
		require.NoError(t, err)
		assert.Equal(t, "from-flag", cfg.DataDir)
	})

	t.Run("unchanged flag does not override", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("data", "flag-default", "")
		require.NoError(t, flags.Parse(nil))

		cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), flags)
		require.NoError(t, err)
		assert.Equal(t, DefaultDataDir, cfg.DataDir)
	})

	t.Run("invalid file content", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(configPath, []byte("data_dir = [unterminated"), 0644))

		_, err := Load(configPath, nil)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty data dir", func(c *Config) { c.DataDir = " " }, "data_dir"},
		{"relative base url", func(c *Config) { c.BaseURL = "snapjson.untapped.gg" }, "base_url"},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://example.com/" }, "base_url"},
		{"zero size", func(c *Config) { c.ImageSize = 0 }, "image_size"},
		{"empty ext", func(c *Config) { c.ImageExt = "." }, "image_ext"},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, "concurrency"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snaplabel", "config.toml")

	created, err := WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, created)

	var decoded Config
	_, err = toml.DecodeFile(path, &decoded)
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir, decoded.DataDir)
	assert.Equal(t, DefaultBaseURL, decoded.BaseURL)

	// Second call leaves the existing file alone
	require.NoError(t, os.WriteFile(path, []byte(`data_dir = "mine"`), 0644))
	created, err = WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `data_dir = "mine"`, string(data))
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	assert.Equal(t, filepath.Join("/tmp/xdg-config", "snaplabel", "config.toml"), GetConfigFilePath())
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "snaplabel"), GetCacheDir())

	cfg := &Config{DataDir: "data"}
	assert.Equal(t, filepath.Join("data", "predefined_classes.txt"), cfg.ClassesPath())
}
