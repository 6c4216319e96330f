// Package config loads tfl's YAML configuration and favorites file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/i-doll/tfl/internal/fs"
)

const (
	FileName          = "config.yaml"
	FavoritesFileName = "favorites"

	MinTreeRatio = 15
	MaxTreeRatio = 60

	minTickRate = 16 * time.Millisecond
	maxTickRate = time.Second
)

// OpenWith is one entry of the open-with overlay.
type OpenWith struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"` // split like a shell word list; {} is replaced by the path
	TUI     bool   `yaml:"tui"`     // run in the foreground with the screen suspended
}

// Preview tunes the preview engine and producers.
type Preview struct {
	Debounce     time.Duration `yaml:"debounce"`
	CacheSize    int           `yaml:"cache_size"`
	WarmStale    bool          `yaml:"warm_stale"`
	MaxTextBytes int64         `yaml:"max_text_bytes"`
	MaxTextLines int           `yaml:"max_text_lines"`
	MaxHexBytes  int           `yaml:"max_hex_bytes"`
	SyntaxTheme  string        `yaml:"syntax_theme"`
}

// Log selects where and how much tfl logs.
type Log struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"` // "-" disables logging
	Format string `yaml:"format"`
}

// Config is the on-disk configuration. Unset keys keep their defaults.
type Config struct {
	TickRate   time.Duration                `yaml:"tick_rate"`
	ShowHidden bool                         `yaml:"show_hidden"`
	AutoReload bool                         `yaml:"auto_reload"`
	GitStatus  bool                         `yaml:"git_status"` // tag changed entries from git status
	TreeRatio  int                          `yaml:"tree_ratio"` // percent of the width given to the tree
	Ignore     []string                     `yaml:"ignore"`
	Editor     string                       `yaml:"editor"` // overrides $VISUAL and $EDITOR
	Preview    Preview                      `yaml:"preview"`
	OpenWith   []OpenWith                   `yaml:"open_with"`
	Keys       map[string]map[string]string `yaml:"keys"`
	Log        Log                          `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TickRate:   100 * time.Millisecond,
		AutoReload: true,
		GitStatus:  true,
		TreeRatio:  30,
		Ignore:     []string{".git", "node_modules", "target", "__pycache__", ".DS_Store"},
		Preview: Preview{
			Debounce:     80 * time.Millisecond,
			CacheSize:    10,
			MaxTextBytes: 1 << 20,
			MaxTextLines: 1000,
			MaxHexBytes:  4096,
			SyntaxTheme:  "monokai",
		},
		Keys: map[string]map[string]string{},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Dir is <UserConfigDir>/tfl.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate config directory: %w", err)
	}
	return filepath.Join(base, "tfl"), nil
}

// DefaultPath is the config file inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	if cfg.Keys == nil {
		cfg.Keys = map[string]map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate clamps out-of-range numbers to usable values and rejects
// settings that cannot be interpreted.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	def := Default()

	switch {
	case c.TickRate <= 0:
		c.TickRate = def.TickRate
	case c.TickRate < minTickRate:
		c.TickRate = minTickRate
	case c.TickRate > maxTickRate:
		c.TickRate = maxTickRate
	}
	c.TreeRatio = ClampTreeRatio(c.TreeRatio)

	if c.Preview.Debounce < 0 {
		c.Preview.Debounce = def.Preview.Debounce
	}
	if c.Preview.CacheSize <= 0 {
		c.Preview.CacheSize = def.Preview.CacheSize
	}
	if c.Preview.MaxTextBytes <= 0 {
		c.Preview.MaxTextBytes = def.Preview.MaxTextBytes
	}
	if c.Preview.MaxTextLines <= 0 {
		c.Preview.MaxTextLines = def.Preview.MaxTextLines
	}
	if c.Preview.MaxHexBytes <= 0 {
		c.Preview.MaxHexBytes = def.Preview.MaxHexBytes
	}
	if c.Preview.SyntaxTheme == "" {
		c.Preview.SyntaxTheme = def.Preview.SyntaxTheme
	}

	if _, errs := fs.CompileIgnore(c.Ignore); len(errs) > 0 {
		return fmt.Errorf("ignore: %w", errors.Join(errs...))
	}

	for i, ow := range c.OpenWith {
		if ow.Name == "" {
			return fmt.Errorf("open_with %d: name is required", i)
		}
		if ow.Command == "" {
			return fmt.Errorf("open_with %q: command is required", ow.Name)
		}
	}

	switch c.Log.Level {
	case "":
		c.Log.Level = def.Log.Level
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = def.Log.Format
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// ClampTreeRatio keeps a tree width percentage inside the usable range.
func ClampTreeRatio(ratio int) int {
	switch {
	case ratio <= 0:
		return Default().TreeRatio
	case ratio < MinTreeRatio:
		return MinTreeRatio
	case ratio > MaxTreeRatio:
		return MaxTreeRatio
	}
	return ratio
}

// Save writes the configuration as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ErrExists is returned by Init when the file is already there.
var ErrExists = errors.New("config file already exists")

// Init writes the default configuration to path. It refuses to replace an
// existing file unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrExists)
		}
	}
	return Save(Default(), path)
}
