package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath          = "memento.yaml"
	DefaultMaxBodyLength = 65000
)

type Config struct {
	Render struct {
		MaxBodyLength   int      `yaml:"max_body_length"`
		ReflowProviders []string `yaml:"reflow_providers"` // providers whose flattened sections are re-expanded
	} `yaml:"render"`
	Report struct {
		Path string `yaml:"path"` // empty disables the render report
	} `yaml:"report"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Render.MaxBodyLength = DefaultMaxBodyLength
	cfg.Render.ReflowProviders = []string{"codex", "claude"}
	return &cfg
}

// LoadConfig reads path from fsys on top of the defaults, then applies
// MEMENTO_* environment overrides. A missing file is not an error.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// 3. Override with Environment Variables if present
	if v := os.Getenv("MEMENTO_MAX_BODY_LENGTH"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid MEMENTO_MAX_BODY_LENGTH %q: %w", v, err)
		}
		cfg.Render.MaxBodyLength = n
	}
	if v := os.Getenv("MEMENTO_REFLOW_PROVIDERS"); v != "" {
		cfg.Render.ReflowProviders = splitList(v)
	}
	if v := os.Getenv("MEMENTO_REPORT_PATH"); v != "" {
		cfg.Report.Path = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Render.MaxBodyLength <= 0 {
		return fmt.Errorf("render.max_body_length must be positive, got %d", c.Render.MaxBodyLength)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
