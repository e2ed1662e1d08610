// Package config implements TOML configuration loading, validation, and
// default path resolution for bdaymirror.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Roster backends.
const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
)

// Config is the top-level configuration parsed from a TOML file.
type Config struct {
	Roster   RosterConfig   `toml:"roster"`
	Calendar CalendarConfig `toml:"calendar"`
	Sync     SyncConfig     `toml:"sync"`
	Logging  LoggingConfig  `toml:"logging"`
}

// RosterConfig selects and locates the source-of-truth table.
type RosterConfig struct {
	// Backend is "sqlite" (default) or "csv".
	Backend string `toml:"backend"`
	// Path is the database or CSV file location.
	Path string `toml:"path"`
	// FirstDataRow is the 1-based row where CSV data starts; row 1 is
	// the header. Ignored for the sqlite backend.
	FirstDataRow int `toml:"first_data_row"`
}

// CalendarConfig locates the destination calendar.
type CalendarConfig struct {
	// Dir is the directory holding ICS calendar files.
	Dir string `toml:"dir"`
	// ID names the calendar inside Dir: "<id>.ics". Reconciliation
	// refuses to start if it does not resolve.
	ID string `toml:"id"`
}

// SyncConfig tunes the reconciliation engine.
type SyncConfig struct {
	// DebounceWindow is how long a change notification waits to see if a
	// newer one supersedes it (duration string, default "2s").
	DebounceWindow string `toml:"debounce_window"`
	// LockWait bounds the wait for the reconciliation lock ("2s").
	LockWait string `toml:"lock_wait"`
	// Refresh is an optional cron schedule for periodic full reconciles
	// in watch mode (e.g. "0 * * * *").
	Refresh string `toml:"refresh"`
	// Timezone is the IANA zone for event start instants; empty uses the
	// system zone.
	Timezone string `toml:"timezone"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// LogLevel is debug, info, warn, or error.
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	return &Config{
		Roster: RosterConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(dataDir, "roster.db"),
		},
		Calendar: CalendarConfig{
			Dir: filepath.Join(dataDir, "calendars"),
			ID:  "birthdays",
		},
		Sync: SyncConfig{
			DebounceWindow: "2s",
			LockWait:       "2s",
		},
		Logging: LoggingConfig{
			LogLevel: "info",
		},
	}
}

// DefaultConfigPath returns the platform config file location.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "bdaymirror.toml")
	}

	return filepath.Join(base, "bdaymirror", "config.toml")
}

// DefaultDataDir returns the application data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "bdaymirror")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "bdaymirror-data")
	}

	return filepath.Join(home, ".local", "share", "bdaymirror")
}

// DebounceWindow returns the parsed debounce window. Call after Validate.
func (c *Config) DebounceWindow() time.Duration {
	d, _ := time.ParseDuration(c.Sync.DebounceWindow)
	return d
}

// LockWait returns the parsed lock wait bound. Call after Validate.
func (c *Config) LockWait() time.Duration {
	d, _ := time.ParseDuration(c.Sync.LockWait)
	return d
}

// Location returns the configured timezone, or the system zone when
// unset. Call after Validate.
func (c *Config) Location() *time.Location {
	if c.Sync.Timezone == "" {
		return time.Local
	}

	loc, _ := time.LoadLocation(c.Sync.Timezone)

	return loc
}
