package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/paths"
	"github.com/Nomadcxx/jellyrename/internal/permissions"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. JELLYRENAME_OPTIONS_ANIME=true.
const EnvPrefix = "JELLYRENAME"

type PermissionsConfig struct {
	// User can be a username (e.g., "jellyfin") or numeric UID (e.g., "1000").
	User string `mapstructure:"user"`
	// Group can be a group name (e.g., "jellyfin") or numeric GID (e.g., "1000").
	Group string `mapstructure:"group"`
	// Mode is a string in octal (e.g., "0644" or "644"). Empty means preserve.
	FileMode string `mapstructure:"file_mode"`
}

type Config struct {
	Options     OptionsConfig     `mapstructure:"options"`
	Watch       WatchConfig       `mapstructure:"watch"`
	History     HistoryConfig     `mapstructure:"history"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
}

// Helper methods for permissions resolution and parsing
func (p *PermissionsConfig) WantsOwnership() bool {
	return strings.TrimSpace(p.User) != "" || strings.TrimSpace(p.Group) != ""
}

func (p *PermissionsConfig) WantsMode() bool {
	return strings.TrimSpace(p.FileMode) != ""
}

func (p *PermissionsConfig) ResolveUID() (int, error) {
	if p.User == "" {
		return -1, nil
	}
	// If numeric
	if uid, err := strconv.Atoi(p.User); err == nil {
		return uid, nil
	}
	usr, err := user.Lookup(p.User)
	if err != nil {
		return -1, err
	}
	return strconv.Atoi(usr.Uid)
}

func (p *PermissionsConfig) ResolveGID() (int, error) {
	if p.Group == "" {
		return -1, nil
	}
	if gid, err := strconv.Atoi(p.Group); err == nil {
		return gid, nil
	}
	grp, err := user.LookupGroup(p.Group)
	if err != nil {
		return -1, err
	}
	return strconv.Atoi(grp.Gid)
}

func (p *PermissionsConfig) ParseFileMode() (os.FileMode, error) {
	m := strings.TrimSpace(p.FileMode)
	if m == "" {
		return 0, nil
	}
	if len(m) == 3 { // allow "644"
		m = "0" + m
	}
	v, err := strconv.ParseUint(m, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

// Policy resolves the configured user, group and mode.
func (p *PermissionsConfig) Policy() (permissions.Policy, error) {
	uid, err := p.ResolveUID()
	if err != nil {
		return permissions.NoChange, fmt.Errorf("permissions.user: %w", err)
	}
	gid, err := p.ResolveGID()
	if err != nil {
		return permissions.NoChange, fmt.Errorf("permissions.group: %w", err)
	}
	mode, err := p.ParseFileMode()
	if err != nil {
		return permissions.NoChange, fmt.Errorf("permissions.file_mode: %w", err)
	}
	return permissions.Policy{UID: uid, GID: gid, Mode: mode}, nil
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// OptionsConfig holds rename defaults; CLI flags override them.
type OptionsConfig struct {
	Format    string `mapstructure:"format"`
	Anime     bool   `mapstructure:"anime"`
	DeepClean bool   `mapstructure:"deep_clean"`
	Force     bool   `mapstructure:"force"`
	TitleCase bool   `mapstructure:"title_case"`
}

// WatchConfig contains directories to watch
type WatchConfig struct {
	Paths       []string      `mapstructure:"paths"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	HealthAddr  string        `mapstructure:"health_addr"`
}

// HistoryConfig controls the rename ledger used by undo.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty = ~/.config/jellyrename/history.db
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Options: OptionsConfig{
			Format: string(naming.DefaultFormat),
		},
		Watch: WatchConfig{
			Paths:       []string{},
			SettleDelay: 2 * time.Second,
			HealthAddr:  "127.0.0.1:8687",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("options.format", d.Options.Format)
	v.SetDefault("options.anime", d.Options.Anime)
	v.SetDefault("options.deep_clean", d.Options.DeepClean)
	v.SetDefault("options.force", d.Options.Force)
	v.SetDefault("options.title_case", d.Options.TitleCase)
	v.SetDefault("watch.paths", d.Watch.Paths)
	v.SetDefault("watch.settle_delay", d.Watch.SettleDelay)
	v.SetDefault("watch.health_addr", d.Watch.HealthAddr)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("permissions.user", d.Permissions.User)
	v.SetDefault("permissions.group", d.Permissions.Group)
	v.SetDefault("permissions.file_mode", d.Permissions.FileMode)
}

// Load reads configuration from path, or from the default location when
// path is empty. A missing file is not an error; defaults and environment
// overrides still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	path, err := paths.ConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later in a run.
func (c *Config) Validate() error {
	if _, err := naming.ParseOutputFormat(c.Options.Format); err != nil {
		return fmt.Errorf("options.format: %w", err)
	}
	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("watch.settle_delay must not be negative")
	}
	if _, err := c.Permissions.ParseFileMode(); err != nil {
		return fmt.Errorf("permissions.file_mode: %w", err)
	}
	return nil
}

// OutputFormat returns the parsed options.format, falling back to the default.
func (c *Config) OutputFormat() naming.OutputFormat {
	f, err := naming.ParseOutputFormat(c.Options.Format)
	if err != nil {
		return naming.DefaultFormat
	}
	return f
}

// HistoryPath resolves the history database location.
func (c *Config) HistoryPath() (string, error) {
	return paths.HistoryPath(c.History.Path)
}

// Save saves configuration to path, or to the default location when path is empty.
func (c *Config) Save(path string) error {
	path, err := paths.ConfigPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	return os.WriteFile(path, []byte(c.ToTOML()), 0644)
}

func ConfigPath() (string, error) {
	return paths.ConfigPath("")
}

func ConfigExists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (c *Config) ToTOML() string {
	base := fmt.Sprintf(`# jellyrename configuration
# Generated by: jellyrename config init

# ============================================================================
# RENAME OPTIONS
# Defaults for every run; command line flags take precedence
# ============================================================================
[options]
# One of:
#   "Show (Year) - SxxExx - Title"
#   "Show (Year) - SxxExx"
#   "Show - SxxExx - Title"
#   "Show - SxxExx"
#   "SxxExx - Title"
#   "SxxExx"
format = %q

# Try fansub numbering ("Show - 01 [1080p]") before SxxExx
anime = %v

# Rewrite container titles and track names (needs mkvtoolnix / ffmpeg)
deep_clean = %v

# Overwrite existing destination files
force = %v

# Capitalize episode titles
title_case = %v

# ============================================================================
# WATCH MODE
# Directories renamed automatically as new episodes arrive
# ============================================================================
[watch]
paths = %s

# Wait this long after the last write before renaming
settle_delay = %q

# Health and status endpoint for jellyrename watch
health_addr = %q

# ============================================================================
# HISTORY
# Rename ledger used by jellyrename undo
# ============================================================================
[history]
enabled = %v
path = %q

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = %q
file = %q
max_size_mb = %d
max_backups = %d
`,
		c.Options.Format,
		c.Options.Anime,
		c.Options.DeepClean,
		c.Options.Force,
		c.Options.TitleCase,
		formatStringSlice(c.Watch.Paths),
		c.Watch.SettleDelay.String(),
		c.Watch.HealthAddr,
		c.History.Enabled,
		c.History.Path,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
	)

	// Append permissions if configured
	if c.Permissions.WantsOwnership() || c.Permissions.WantsMode() {
		perm := "\n# ============================================================================\n# PERMISSIONS\n# Ownership and mode applied to renamed files\n# ============================================================================\n[permissions]\n"
		if c.Permissions.User != "" {
			perm += fmt.Sprintf("user = %q\n", c.Permissions.User)
		}
		if c.Permissions.Group != "" {
			perm += fmt.Sprintf("group = %q\n", c.Permissions.Group)
		}
		if c.Permissions.FileMode != "" {
			perm += fmt.Sprintf("file_mode = %q\n", c.Permissions.FileMode)
		}
		base += perm
	}

	return base
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
