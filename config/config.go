// Package config loads settings for the mal binaries from a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the REPL and the eval server.
type Config struct {
	Prompt    string `yaml:"prompt"`
	History   string `yaml:"history"`
	Journal   string `yaml:"journal"`
	Socket    string `yaml:"socket"`
	MaxDepth  int    `yaml:"max_depth"`
	MaxTraces int    `yaml:"max_traces"`
}

// Default returns the built-in settings. History and journal are disabled
// until a path is given.
func Default() Config {
	return Config{
		Prompt:    "user> ",
		Socket:    "/tmp/mal.sock",
		MaxDepth:  10000,
		MaxTraces: 100,
	}
}

// ValidationError lists every problem found in a config.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. Fields absent from the file keep their
// default value; unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return cfg, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("config: %s is empty", absPath)
		}
		return cfg, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.History = expandHome(cfg.History)
	cfg.Journal = expandHome(cfg.Journal)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv loads MAL_CONFIG when set and then applies MAL_SOCK, MAL_JOURNAL
// and MAL_HISTORY.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := os.Getenv("MAL_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if v := os.Getenv("MAL_SOCK"); v != "" {
		cfg.Socket = v
	}
	if v := os.Getenv("MAL_JOURNAL"); v != "" {
		cfg.Journal = expandHome(v)
	}
	if v := os.Getenv("MAL_HISTORY"); v != "" {
		cfg.History = expandHome(v)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var issues []string
	if c.Prompt == "" {
		issues = append(issues, "prompt must not be empty")
	}
	if c.MaxDepth < 1 {
		issues = append(issues, fmt.Sprintf("max_depth must be >= 1, got %d", c.MaxDepth))
	}
	if c.MaxTraces < 0 {
		issues = append(issues, fmt.Sprintf("max_traces must be >= 0, got %d", c.MaxTraces))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
