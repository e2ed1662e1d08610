package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns
// the resulting Config. Unknown keys are fatal — a silently ignored typo
// in a config file is much harder to debug than an upfront error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validating %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config with all defaults — supporting zero-config first runs.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Validate checks cross-field consistency and parseability of every
// stringly-typed field.
func Validate(cfg *Config) error {
	switch cfg.Roster.Backend {
	case BackendSQLite, BackendCSV:
	default:
		return fmt.Errorf("roster.backend must be %q or %q, got %q",
			BackendSQLite, BackendCSV, cfg.Roster.Backend)
	}

	if cfg.Roster.Path == "" {
		return errors.New("roster.path must not be empty")
	}

	if cfg.Roster.FirstDataRow < 0 {
		return fmt.Errorf("roster.first_data_row must not be negative, got %d", cfg.Roster.FirstDataRow)
	}

	if cfg.Calendar.Dir == "" {
		return errors.New("calendar.dir must not be empty")
	}

	if cfg.Calendar.ID == "" {
		return errors.New("calendar.id must not be empty")
	}

	if _, err := time.ParseDuration(cfg.Sync.DebounceWindow); err != nil {
		return fmt.Errorf("sync.debounce_window: %w", err)
	}

	if _, err := time.ParseDuration(cfg.Sync.LockWait); err != nil {
		return fmt.Errorf("sync.lock_wait: %w", err)
	}

	if cfg.Sync.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Sync.Timezone); err != nil {
			return fmt.Errorf("sync.timezone: %w", err)
		}
	}

	switch cfg.Logging.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.log_level must be debug, info, warn, or error, got %q",
			cfg.Logging.LogLevel)
	}

	return nil
}
