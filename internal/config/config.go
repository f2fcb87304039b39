package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	// Timeout of zero means requests wait indefinitely.
	Timeout time.Duration `yaml:"timeout" env:"TASKBOARD_HTTP_TIMEOUT" env-default:"0s"`
}

type Config struct {
	APIURL   string     `yaml:"api_url" env:"TASKBOARD_API_URL" env-default:"http://127.0.0.1:8000"`
	DataDir  string     `yaml:"data_dir" env:"TASKBOARD_DATA_DIR"`
	LogLevel string     `yaml:"log_level" env:"TASKBOARD_LOG_LEVEL" env-default:"INFO"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Load reads configuration from configPath (YAML) and the environment.
// Environment variables win over the file. A missing file is not an error.
func Load(configPath string) (Config, error) {
	var cfg Config

	if strings.TrimSpace(configPath) == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg.withDefaults()
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("read config %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() (Config, error) {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return Config{}, errors.New("api url is empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Config{}, err
		}
		c.DataDir = dir
	}
	if c.HTTP.Timeout < 0 {
		return Config{}, fmt.Errorf("http timeout must not be negative: %s", c.HTTP.Timeout)
	}
	return c, nil
}

func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskboard"), nil
}

// LogPath is where the interactive TUI writes its log.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "taskboard.log")
}
