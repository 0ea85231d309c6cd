package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "docnav.yaml"

// Source kinds.
const (
	SourceDir   = "dir"
	SourceHTTP  = "http"
	SourceMinio = "minio"
)

// Data formats.
const (
	FormatDoxygen = "doxygen"
	FormatQHP     = "qhp"
)

// Config locates a documentation set and tunes how it is read.
type Config struct {
	Source string `koanf:"source"`
	Format string `koanf:"format"`

	Dir     string        `koanf:"dir"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Rate    float64       `koanf:"rate"`
	// Retry re-issues HTTP fetches that fail with server or network errors.
	Retry bool `koanf:"retry"`

	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioRegion    string `koanf:"minio_region"`
	MinioSecure    bool   `koanf:"minio_secure"`
	Bucket         string `koanf:"bucket"`
	Prefix         string `koanf:"prefix"`

	QHPFile string `koanf:"qhp_file"`

	// DB, when set, serves search from an imported SQLite index.
	DB string `koanf:"db"`

	Verbose bool `koanf:"verbose"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Source:  SourceDir,
		Format:  FormatDoxygen,
		Dir:     ".",
		Timeout: 10 * time.Second,
	}
}

// LoadConfig reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCNAV_*). A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// DOCNAV_MINIO_ENDPOINT -> minio_endpoint, etc.
	if err := k.Load(env.Provider("DOCNAV_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DOCNAV_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration names a usable source.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceDir:
		if c.Dir == "" {
			return fmt.Errorf("dir is required for source %q", c.Source)
		}
	case SourceHTTP:
		if c.URL == "" {
			return fmt.Errorf("url is required for source %q", c.Source)
		}
	case SourceMinio:
		if c.MinioEndpoint == "" || c.Bucket == "" {
			return fmt.Errorf("minio_endpoint and bucket are required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("invalid source %q: must be one of dir, http, minio", c.Source)
	}

	switch c.Format {
	case FormatDoxygen, FormatQHP:
	default:
		return fmt.Errorf("invalid format %q: must be one of doxygen, qhp", c.Format)
	}

	if c.Rate < 0 {
		return fmt.Errorf("rate must be non-negative")
	}
	return nil
}
