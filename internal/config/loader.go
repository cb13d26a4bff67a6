package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for by
// FindConfigFile.
const DefaultConfigFile = ".tiebasign"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the structure of the .tiebasign YAML file.
// Every field is optional. Credentials are never read from the file.
type File struct {
	Endpoints Endpoints         `yaml:"endpoints,omitempty"`
	UserAgent string            `yaml:"userAgent,omitempty"`
	Referer   string            `yaml:"referer,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
	Proxy     string            `yaml:"proxy,omitempty"`

	// MinDelay, MaxDelay and MaxForumPages are pointers because zero is a
	// meaningful value for them ("maxDelay: 0s" disables the pause).
	MinDelay      *time.Duration `yaml:"minDelay,omitempty"`
	MaxDelay      *time.Duration `yaml:"maxDelay,omitempty"`
	MaxForumPages *int           `yaml:"maxForumPages,omitempty"`

	Output struct {
		Dir      string `yaml:"dir,omitempty"`
		Detail   string `yaml:"detail,omitempty"`
		Summary  string `yaml:"summary,omitempty"`
		Markdown string `yaml:"markdown,omitempty"`
		Metrics  string `yaml:"metrics,omitempty"`
	} `yaml:"output,omitempty"`

	History struct {
		// Enabled is a pointer so that "enabled: false" can turn off a
		// default of true.
		Enabled *bool  `yaml:"enabled,omitempty"`
		Dir     string `yaml:"dir,omitempty"`
	} `yaml:"history,omitempty"`

	Notify Notify `yaml:"notify,omitempty"`

	FailOnError *bool `yaml:"failOnError,omitempty"`
}

// LoadConfigFile reads and decodes a configuration file.
// It returns ErrConfigNotFound when path does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply merges the non-zero values of the file over c.
func (f *File) Apply(c *Config) error {
	overlay := Config{
		Endpoints:    f.Endpoints,
		UserAgent:    f.UserAgent,
		Referer:      f.Referer,
		Headers:      f.Headers,
		Timeout:      f.Timeout,
		Proxy:        f.Proxy,
		OutputDir:    f.Output.Dir,
		DetailFile:   f.Output.Detail,
		SummaryFile:  f.Output.Summary,
		MarkdownFile: f.Output.Markdown,
		MetricsFile:  f.Output.Metrics,
		DBDir:        f.History.Dir,
		Notify:       f.Notify,
	}

	if err := mergo.Merge(c, overlay, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge configuration file: %w", err)
	}

	if f.MinDelay != nil {
		c.MinDelay = *f.MinDelay
	}
	if f.MaxDelay != nil {
		c.MaxDelay = *f.MaxDelay
	}
	if f.MaxForumPages != nil {
		c.MaxForumPages = *f.MaxForumPages
	}
	if f.History.Enabled != nil {
		c.SaveToDB = *f.History.Enabled
	}
	if f.FailOnError != nil {
		c.FailOnError = *f.FailOnError
	}
	return nil
}

// FindConfigFile returns the configuration file to load:
//  1. configPath, if it is set and exists
//  2. .tiebasign in the current directory
//  3. .tiebasign in the XDG config directory
//  4. .tiebasign in the home directory
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), DefaultConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
