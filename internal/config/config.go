// Package config resolves settings from the config file, .env, the environment and flags.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"basehook-cli/internal/query"
)

const (
	EnvConfigDir = "BASEHOOK_CONFIG_DIR"
	EnvServer    = "BASEHOOK_SERVER"
	EnvPerPage   = "BASEHOOK_PER_PAGE"
	EnvRange     = "BASEHOOK_RANGE"
	EnvJournal   = "BASEHOOK_JOURNAL"
	EnvTheme     = "BASEHOOK_TUI_THEME"

	DefaultServer = "http://localhost:8000"

	// JournalOff disables the bulk-action journal.
	JournalOff = "off"
)

// Config is the on-disk file. Zero fields fall through to the next layer.
type Config struct {
	Server  string     `json:"server,omitempty"`
	PerPage int        `json:"perPage,omitempty"`
	Range   string     `json:"range,omitempty"`
	Journal string     `json:"journal,omitempty"`
	TUI     *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Theme is light, dark or auto.
	Theme string `json:"theme,omitempty"`
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.basehook).
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".basehook"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file. Comments and trailing commas are allowed. A missing file is
// an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	std, err := hujson.Standardize(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save replaces the config file atomically. Comments in the previous file are not kept.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return atomic.WriteFile(path, bytes.NewReader(b))
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Settings are the resolved values the commands run with.
type Settings struct {
	Server      string          `json:"server"`
	PerPage     int             `json:"perPage"`
	Range       query.TimeRange `json:"range"`
	JournalPath string          `json:"journal"`
	Theme       string          `json:"theme"`
}

// JournalEnabled reports whether bulk actions are journaled.
func (s Settings) JournalEnabled() bool {
	return s.JournalPath != "" && s.JournalPath != JournalOff
}

// Resolve layers defaults, cfg and the environment. Flags are applied by the caller.
func Resolve(cfg *Config, getenv func(string) string) (Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	dir, err := Dir()
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Server:      DefaultServer,
		PerPage:     query.DefaultPerPage,
		Range:       query.RangeAll,
		JournalPath: filepath.Join(dir, "journal.sqlite"),
		Theme:       "auto",
	}

	layer := func(server, perPage, rng, journal, theme, origin string) error {
		if v := strings.TrimSpace(server); v != "" {
			s.Server = v
		}
		if v := strings.TrimSpace(perPage); v != "" && v != "0" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > query.MaxPerPage {
				return fmt.Errorf("%s: perPage must be between 1 and %d, got %q", origin, query.MaxPerPage, v)
			}
			s.PerPage = n
		}
		if v := strings.TrimSpace(rng); v != "" {
			r := query.TimeRange(v)
			if !r.Valid() {
				return fmt.Errorf("%s: unknown range %q", origin, v)
			}
			s.Range = r
		}
		if v := strings.TrimSpace(journal); v != "" {
			s.JournalPath = v
		}
		if v := strings.TrimSpace(theme); v != "" {
			if !validTheme(v) {
				return fmt.Errorf("%s: theme must be light, dark or auto, got %q", origin, v)
			}
			s.Theme = strings.ToLower(v)
		}
		return nil
	}

	theme := ""
	if cfg.TUI != nil {
		theme = cfg.TUI.Theme
	}
	if err := layer(cfg.Server, strconv.Itoa(cfg.PerPage), cfg.Range, cfg.Journal, theme, "config"); err != nil {
		return Settings{}, err
	}
	if err := layer(getenv(EnvServer), getenv(EnvPerPage), getenv(EnvRange), getenv(EnvJournal), getenv(EnvTheme), "env"); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func validTheme(v string) bool {
	switch strings.ToLower(v) {
	case "light", "dark", "auto":
		return true
	}
	return false
}

// Keys lists the settable keys.
func Keys() []string {
	keys := []string{"server", "perPage", "range", "journal", "tui.theme"}
	sort.Strings(keys)
	return keys
}

// Set assigns key from its string form. An empty value unsets it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "server":
		c.Server = value
	case "perPage":
		if value == "" {
			c.PerPage = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > query.MaxPerPage {
			return fmt.Errorf("perPage must be between 1 and %d", query.MaxPerPage)
		}
		c.PerPage = n
	case "range":
		if value != "" && !query.TimeRange(value).Valid() {
			return fmt.Errorf("unknown range %q", value)
		}
		c.Range = value
	case "journal":
		c.Journal = value
	case "tui.theme":
		if value != "" && !validTheme(value) {
			return fmt.Errorf("theme must be light, dark or auto")
		}
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		c.TUI.Theme = strings.ToLower(value)
		if c.TUI.Theme == "" {
			c.TUI = nil
		}
	default:
		return fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
