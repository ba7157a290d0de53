// Package config parses whisker.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load.
const FileName = "whisker.toml"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// reservedKeys are handled by the TUI itself and cannot be label hotkeys.
var reservedKeys = map[string]bool{"?": true}

// Config is the top-level whisker.toml configuration.
type Config struct {
	Project       ProjectConfig       `toml:"project"`
	Repository    RepositoryConfig    `toml:"repository"`
	Source        SourceConfig        `toml:"source"`
	Hotkeys       HotkeysConfig       `toml:"hotkeys"`
	TUI           TUIConfig           `toml:"tui"`
	Log           LogConfig           `toml:"log"`
	Notifications NotificationsConfig `toml:"notifications"`

	// baseDir is the directory holding the loaded file; relative paths
	// resolve against it.
	baseDir string
}

// ProjectConfig identifies the project and the annotator.
type ProjectConfig struct {
	Name      string `toml:"name"`
	Author    string `toml:"author"`
	StateFile string `toml:"state_file"`
}

// RepositoryConfig locates the dataset repository.
type RepositoryConfig struct {
	Dir string `toml:"dir"`
}

// SourceConfig locates the images to annotate.
type SourceConfig struct {
	Dir string `toml:"dir"`
	ID  string `toml:"id"` // empty = derived from the directory path
}

// HotkeysConfig controls the input router.
type HotkeysConfig struct {
	IdleTimeoutSeconds int      `toml:"idle_timeout_seconds"`
	Labels             []string `toml:"labels"` // hotkey per label, by label index
}

// TUIConfig controls the terminal UI appearance.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
	Mouse       bool   `toml:"mouse"`
}

// LogConfig controls the zap log file.
type LogConfig struct {
	File  string `toml:"file"` // empty = logging disabled
	Level string `toml:"level"`
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL     string `toml:"url"`
	OnSave  bool   `toml:"on_save"`
	OnError bool   `toml:"on_error"`
}

// DefaultLabelHotkeys returns 1-9 followed by a-z.
func DefaultLabelHotkeys() []string {
	keys := make([]string, 0, 35)
	for c := '1'; c <= '9'; c++ {
		keys = append(keys, string(c))
	}
	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, string(c))
	}
	return keys
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Project: ProjectConfig{
			StateFile: ".whisker/state.json",
		},
		Repository: RepositoryConfig{Dir: "dataset"},
		Source:     SourceConfig{Dir: "images"},
		Hotkeys: HotkeysConfig{
			IdleTimeoutSeconds: 30,
			Labels:             DefaultLabelHotkeys(),
		},
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
			Mouse:       true,
		},
		Log: LogConfig{
			File:  ".whisker/whisker.log",
			Level: "info",
		},
		Notifications: NotificationsConfig{
			OnSave:  true,
			OnError: true,
		},
	}
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Repository.Dir) == "" {
		errs = append(errs, fmt.Errorf("repository.dir must not be empty"))
	}
	if strings.TrimSpace(c.Source.Dir) == "" {
		errs = append(errs, fmt.Errorf("source.dir must not be empty"))
	}
	if strings.TrimSpace(c.Project.StateFile) == "" {
		errs = append(errs, fmt.Errorf("project.state_file must not be empty"))
	}

	if c.Hotkeys.IdleTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("hotkeys.idle_timeout_seconds must be > 0"))
	}
	seen := make(map[string]bool, len(c.Hotkeys.Labels))
	for _, k := range c.Hotkeys.Labels {
		switch {
		case utf8.RuneCountInString(k) != 1:
			errs = append(errs, fmt.Errorf("hotkeys.labels: %q must be a single character", k))
		case reservedKeys[k]:
			errs = append(errs, fmt.Errorf("hotkeys.labels: %q is reserved", k))
		case seen[k]:
			errs = append(errs, fmt.Errorf("hotkeys.labels: %q is used more than once", k))
		}
		seen[k] = true
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error"))
	}

	if c.Notifications.URL != "" {
		u, parseErr := url.ParseRequestURI(c.Notifications.URL)
		if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
		}
	}

	return errors.Join(errs...)
}

// IdleTimeout returns the idle timeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Hotkeys.IdleTimeoutSeconds) * time.Second
}

// BaseDir returns the directory relative paths resolve against.
func (c *Config) BaseDir() string { return c.baseDir }

// Resolve makes p absolute relative to the config file's directory.
// Empty paths stay empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// Load reads whisker.toml from the given path. If path is empty, it walks up
// from the current working directory looking for whisker.toml. Returns an
// error if the file contains unknown keys (likely typos) or fails validation.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, joinKeys(keys))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	cfg.baseDir = abs

	if cfg.Project.Name == "" {
		cfg.Project.Name = DetectProjectName(cfg.Resolve(cfg.Repository.Dir), abs)
	}

	return &cfg, nil
}

// joinKeys formats a slice of key names for display.
func joinKeys(keys []string) string {
	return strings.Join(keys, ", ")
}

// findConfig walks up from the current directory looking for whisker.toml.
func findConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config: %s not found (searched up from %s)", FileName, dir)
		}
		dir = parent
	}
}

// InitFile writes a default whisker.toml template to the given directory.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}

	content := `# whisker.toml — Whisker annotation project configuration
# Place this file next to your dataset repository.

[project]
name = ""
author = ""                          # recorded on every annotation you save
state_file = ".whisker/state.json"   # resume position between runs

[repository]
dir = "dataset"

[source]
dir = "images"
id = ""  # empty = derived from the directory path

[hotkeys]
idle_timeout_seconds = 30
# One hotkey per label, in label order. Defaults to 1-9 then a-z.
# labels = ["1", "2", "3"]

[tui]
accent_color = "#7D56F4"  # hex color for header/accent elements
mouse = true              # pointer movement and clicks count as activity

[log]
file = ".whisker/whisker.log"  # empty = logging disabled
level = "info"

[notifications]
url = ""         # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_save = true   # notify when annotations are saved
on_error = true  # notify when a save fails
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
