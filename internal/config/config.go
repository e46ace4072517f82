package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"riverside/internal/gallery"
	"riverside/internal/offline"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Environment overrides are applied separately so they never
// end up in the saved file.

// ICSConfig describes a single ICS subscription merged into the calendar.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID prefixes event ids from this source and shows up in logs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// EventsConfig controls where calendar events come from.
type EventsConfig struct {
	// URL serves a JSON array of events. Empty means "use the sample set".
	URL string `yaml:"url" json:"url"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir keeps the last good copy of each source. Empty disables it.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
}

// OfflineConfig describes the offline cache in front of the site.
type OfflineConfig struct {
	// Version names the cache. Changing it installs a new cache that waits
	// until activated.
	Version string `yaml:"version" json:"version"`

	// Manifest lists the root-relative URLs cached at install.
	Manifest []string `yaml:"manifest" json:"manifest"`

	// Origin is the upstream site. Empty serves the embedded site.
	Origin string `yaml:"origin" json:"origin"`

	// StorageDir persists caches on disk. Empty keeps them in memory.
	StorageDir string `yaml:"storage_dir" json:"storage_dir"`
}

// SnapshotConfig controls the headless-browser PNG of the calendar page.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Cron    string `yaml:"cron" json:"cron"`
	Output  string `yaml:"output" json:"output"`
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the event
// management API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	// PasswordHash is an Argon2id hash from `riverside hash-password`. It
	// takes precedence over Password.
	PasswordHash string `yaml:"password_hash,omitempty" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Events   EventsConfig   `yaml:"events" json:"events"`
	Offline  OfflineConfig  `yaml:"offline" json:"offline"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	Gallery []gallery.Item `yaml:"gallery" json:"gallery"`

	// BasicAuth, if non-nil, protects the endpoints that change events.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "America/New_York"
	defaultRefresh  = "*/15 * * * *"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}

	if c.Events.RefreshCron == "" {
		c.Events.RefreshCron = defaultRefresh
	}
	if c.Events.ICS == nil {
		c.Events.ICS = []ICSConfig{}
	}
	for i := range c.Events.ICS {
		if c.Events.ICS[i].ID == "" {
			c.Events.ICS[i].ID = fmt.Sprintf("ics%d", i+1)
		}
	}

	if c.Offline.Version == "" {
		c.Offline.Version = offline.DefaultVersion
	}
	if len(c.Offline.Manifest) == 0 {
		c.Offline.Manifest = offline.DefaultManifest().URLs
	}

	if c.Snapshot.Cron == "" {
		c.Snapshot.Cron = "0 * * * *"
	}
	if c.Snapshot.Output == "" {
		c.Snapshot.Output = "calendar.png"
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = 1024
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = 768
	}

	if len(c.Gallery) == 0 {
		c.Gallery = gallery.DefaultItems()
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Environment variables that override file settings.
const (
	EnvListen        = "RIVERSIDE_LISTEN"
	EnvEventsURL     = "RIVERSIDE_EVENTS_URL"
	EnvLogLevel      = "RIVERSIDE_LOG_LEVEL"
	EnvOfflineOrigin = "RIVERSIDE_OFFLINE_ORIGIN"
)

// ApplyEnv overrides settings from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := getenv(EnvEventsURL); v != "" {
		c.Events.URL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvOfflineOrigin); v != "" {
		c.Offline.Origin = v
	}
	c.Normalize()
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".riverside-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
