package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional YAML file read from the config dir
const FileName = "config.yaml"

// Environment overrides
const (
	EnvOriginURL  = "SHELL_ORIGIN_URL"
	EnvUpdateFeed = "SHELL_UPDATE_FEED"
	EnvAutoUpdate = "SHELL_AUTO_UPDATE"
	EnvDevMode    = "SHELL_DEV"
	EnvHotkey     = "SHELL_HOTKEY"
)

const (
	DefaultAppName        = "voxshell"
	DefaultOriginURL      = "https://app.voxshell.example"
	DefaultUpdateFeedURL  = "https://updates.voxshell.example/stable"
	DefaultHotkey         = "CommandOrControl+Shift+M"
	DefaultUpdateInterval = time.Hour
)

// Config holds the shell configuration
type Config struct {
	AppName        string        `yaml:"appName"`
	Version        string        `yaml:"-"`
	OriginURL      string        `yaml:"originUrl"`
	UpdateFeedURL  string        `yaml:"updateFeedUrl"`
	AutoUpdate     *bool         `yaml:"autoUpdate"` // nil means enabled
	DevMode        bool          `yaml:"devMode"`
	DefaultHotkey  string        `yaml:"defaultHotkey"`
	UpdateInterval time.Duration `yaml:"updateInterval"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		AppName:        DefaultAppName,
		OriginURL:      DefaultOriginURL,
		UpdateFeedURL:  DefaultUpdateFeedURL,
		DefaultHotkey:  DefaultHotkey,
		UpdateInterval: DefaultUpdateInterval,
	}
}

// AutoUpdateEnabled reports the update policy. Updates are opt-out:
// anything other than an explicit false leaves them on.
func (c *Config) AutoUpdateEnabled() bool {
	return c.AutoUpdate == nil || *c.AutoUpdate
}

// Dir returns the per-user directory holding settings and config.yaml
func Dir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// Load reads defaults, then dir/config.yaml if present, then the environment.
func Load(dir string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", FileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", FileName, err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvOriginURL); v != "" {
		c.OriginURL = v
	}
	if v := getenv(EnvUpdateFeed); v != "" {
		c.UpdateFeedURL = v
	}
	if v := getenv(EnvAutoUpdate); v != "" {
		enabled := !strings.EqualFold(strings.TrimSpace(v), "false")
		c.AutoUpdate = &enabled
	}
	if v := getenv(EnvDevMode); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DevMode = b
		}
	}
	if v := getenv(EnvHotkey); v != "" {
		c.DefaultHotkey = v
	}
}

// ValidationError holds the warnings produced when defaults were applied
type ValidationError struct {
	Warnings []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Warnings, "; ")
}

// Validate corrects invalid values to defaults and reports what it changed
func (c *Config) Validate() *ValidationError {
	var warnings []string
	def := DefaultConfig()

	if c.AppName == "" {
		c.AppName = def.AppName
	}

	if err := checkHTTPURL(c.OriginURL); err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid origin url %q (%v), using default %s", c.OriginURL, err, def.OriginURL))
		c.OriginURL = def.OriginURL
	}

	if err := checkHTTPURL(c.UpdateFeedURL); err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid update feed url %q (%v), using default %s", c.UpdateFeedURL, err, def.UpdateFeedURL))
		c.UpdateFeedURL = def.UpdateFeedURL
	}

	if c.UpdateInterval < time.Minute {
		warnings = append(warnings, fmt.Sprintf("update interval %s below one minute, using default %s", c.UpdateInterval, def.UpdateInterval))
		c.UpdateInterval = def.UpdateInterval
	}

	if strings.TrimSpace(c.DefaultHotkey) == "" {
		warnings = append(warnings, "empty default hotkey, using "+def.DefaultHotkey)
		c.DefaultHotkey = def.DefaultHotkey
	}

	if len(warnings) > 0 {
		return &ValidationError{Warnings: warnings}
	}
	return nil
}

// ValidateStrict returns an error if any value is invalid, without fixing it
func (c *Config) ValidateStrict() error {
	var problems []string

	if err := checkHTTPURL(c.OriginURL); err != nil {
		problems = append(problems, fmt.Sprintf("origin url: %v", err))
	}
	if err := checkHTTPURL(c.UpdateFeedURL); err != nil {
		problems = append(problems, fmt.Sprintf("update feed url: %v", err))
	}
	if c.UpdateInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("update interval must be at least 1m, got %s", c.UpdateInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
