package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hackwave/internal/store"
)

// FeedConfig describes a single recommendation feed (an ICS subscription).
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier; it prefixes generated recommendation ids.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Category is used for feed events that carry no CATEGORIES.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SnapshotConfig controls the headless-browser PNG capture of the month page.
type SnapshotConfig struct {
	// URL is the page to capture. Empty means http://<listen>/calendar.
	URL    string `yaml:"url,omitempty" json:"url,omitempty"`
	Output string `yaml:"output" json:"output"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that decides what "today" is (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Theme is the initial UI colour mode, light or dark.
	Theme string `yaml:"theme" json:"theme"`

	// Latency is the simulated per-operation delay of the in-memory store.
	Latency store.Latency `yaml:"latency" json:"latency"`

	// AgendaLimit caps the upcoming list in the sidebar.
	AgendaLimit int `yaml:"agenda_limit" json:"agenda_limit"`

	// CellChipLimit caps the chips drawn per day cell.
	CellChipLimit int `yaml:"cell_chip_limit" json:"cell_chip_limit"`

	// SeedDemo preloads the demo events and recommendations.
	SeedDemo bool `yaml:"seed_demo" json:"seed_demo"`

	// RecommendFeeds replace the demo recommendations when non-empty.
	RecommendFeeds []FeedConfig `yaml:"recommend_feeds" json:"recommend_feeds"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// re-fetching RecommendFeeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// FeedHorizonDays is how far ahead feed occurrences are recommended.
	FeedHorizonDays int `yaml:"feed_horizon_days" json:"feed_horizon_days"`

	// CacheDir holds the feed HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
}

const (
	defaultListen        = "127.0.0.1:8080"
	defaultTimezone      = "Local"
	defaultLogLevel      = "info"
	defaultTheme         = "light"
	defaultAgendaLimit   = 8
	defaultCellChipLimit = 3
	defaultRefreshCron   = "*/15 * * * *"
	defaultHorizonDays   = 30
	defaultCacheDir      = "./var/feed-cache"
	defaultSnapshotOut   = "./var/calendar.png"
	defaultSnapshotW     = 1280
	defaultSnapshotH     = 900
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        defaultTimezone,
		LogLevel:        defaultLogLevel,
		Theme:           defaultTheme,
		Latency:         store.DefaultLatency(),
		AgendaLimit:     defaultAgendaLimit,
		CellChipLimit:   defaultCellChipLimit,
		SeedDemo:        true,
		RecommendFeeds:  []FeedConfig{},
		RefreshCron:     defaultRefreshCron,
		FeedHorizonDays: defaultHorizonDays,
		CacheDir:        defaultCacheDir,
		Snapshot: SnapshotConfig{
			Output: defaultSnapshotOut,
			Width:  defaultSnapshotW,
			Height: defaultSnapshotH,
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly. A zero Latency is kept: it disables the delay.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Theme == "" {
		c.Theme = defaultTheme
	}
	if c.AgendaLimit <= 0 {
		c.AgendaLimit = defaultAgendaLimit
	}
	if c.CellChipLimit <= 0 {
		c.CellChipLimit = defaultCellChipLimit
	}
	if c.RecommendFeeds == nil {
		c.RecommendFeeds = []FeedConfig{}
	}
	for i := range c.RecommendFeeds {
		if c.RecommendFeeds[i].ID == "" {
			c.RecommendFeeds[i].ID = fmt.Sprintf("feed%d", i+1)
		}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.FeedHorizonDays <= 0 {
		c.FeedHorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.Snapshot.Output == "" {
		c.Snapshot.Output = defaultSnapshotOut
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = defaultSnapshotW
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = defaultSnapshotH
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Location resolves Timezone. "Local" (or an empty value) is time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// FeedHorizon is FeedHorizonDays as a duration.
func (c *Config) FeedHorizon() time.Duration {
	return time.Duration(c.FeedHorizonDays) * 24 * time.Hour
}

// SnapshotURL returns Snapshot.URL or the local month page.
func (c *Config) SnapshotURL() string {
	if c.Snapshot.URL != "" {
		return c.Snapshot.URL
	}
	return "http://" + c.Listen + "/calendar"
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

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
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

	tmp, err := os.CreateTemp(dir, ".hackwave-config-*.tmp")
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

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
