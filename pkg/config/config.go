// Package config loads the dashboard's YAML configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sudorandom/polio-dashboard/pkg/sources"
)

const DefaultListen = ":8050"

// Config is the file layout of the YAML configuration. An empty CacheDir
// disables the spec cache.
type Config struct {
	DataDir         string       `yaml:"data_dir"`
	Files           FilesConfig  `yaml:"files"`
	URLs            URLsConfig   `yaml:"urls"`
	CoordinatesFile string       `yaml:"coordinates_file"`
	CacheDir        string       `yaml:"cache_dir"`
	Server          ServerConfig `yaml:"server"`
	Log             LogConfig    `yaml:"log"`
}

// FilesConfig overrides individual source paths. Relative paths are
// resolved against DataDir.
type FilesConfig struct {
	Cases      string `yaml:"cases"`
	Metadata   string `yaml:"metadata"`
	Population string `yaml:"population"`
	Vaccine    string `yaml:"vaccine"`
}

type URLsConfig struct {
	Cases      string `yaml:"cases"`
	Metadata   string `yaml:"metadata"`
	Population string `yaml:"population"`
	Vaccine    string `yaml:"vaccine"`
}

type ServerConfig struct {
	Listen              string `yaml:"listen"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	def := sources.DefaultURLs()
	if c.URLs.Cases == "" {
		c.URLs.Cases = def[sources.KindCases]
	}
	if c.URLs.Metadata == "" {
		c.URLs.Metadata = def[sources.KindMetadata]
	}
	if c.URLs.Population == "" {
		c.URLs.Population = def[sources.KindPopulation]
	}
	if c.URLs.Vaccine == "" {
		c.URLs.Vaccine = def[sources.KindVaccine]
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 10
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Load reads path, applies defaults and the PORT environment variable.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	c.ApplyDefaults()
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv lets PORT override the listen port while keeping the host.
func (c *Config) ApplyEnv(getenv func(string) string) {
	port := getenv("PORT")
	if port == "" {
		return
	}
	host, _, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		host = ""
	}
	c.Server.Listen = net.JoinHostPort(host, port)
}

func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen %q: %w", c.Server.Listen, err)
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

// SourceFiles resolves the path of every source.
func (c *Config) SourceFiles() sources.Files {
	def := sources.DefaultFiles(c.DataDir)
	pick := func(override, fallback string) string {
		if override == "" {
			return fallback
		}
		if filepath.IsAbs(override) {
			return override
		}
		return filepath.Join(c.DataDir, override)
	}
	return sources.Files{
		Cases:      pick(c.Files.Cases, def.Cases),
		Metadata:   pick(c.Files.Metadata, def.Metadata),
		Population: pick(c.Files.Population, def.Population),
		Vaccine:    pick(c.Files.Vaccine, def.Vaccine),
	}
}

// SourceURLs returns the configured download URL of each source.
func (c *Config) SourceURLs() map[sources.Kind]string {
	urls := make(map[sources.Kind]string)
	for k, u := range map[sources.Kind]string{
		sources.KindCases:      c.URLs.Cases,
		sources.KindMetadata:   c.URLs.Metadata,
		sources.KindPopulation: c.URLs.Population,
		sources.KindVaccine:    c.URLs.Vaccine,
	} {
		if u != "" {
			urls[k] = u
		}
	}
	return urls
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}
