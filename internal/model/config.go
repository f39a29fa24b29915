package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig describes the portal the client talks to.
type ServerConfig struct {
	// URL is the portal origin (e.g., https://absensi.kampus.ac.id).
	URL string `mapstructure:"url" yaml:"url"`

	// Role selects the user, dosen or admin endpoint set.
	Role string `mapstructure:"role" yaml:"role"`

	// PagePath is the page fetched to obtain the shared header props.
	// Empty means the role's dashboard.
	PagePath string `mapstructure:"page_path" yaml:"page_path"`

	// BaseURL and AllURL override the role defaults when the server does
	// not inject notificationConfig.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	AllURL  string `mapstructure:"all_url" yaml:"all_url"`

	// LiveURL is an optional websocket endpoint that announces changes.
	LiveURL string `mapstructure:"live_url" yaml:"live_url"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	DropdownLimit   int    `mapstructure:"dropdown_limit" yaml:"dropdown_limit"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Timezone is an IANA name used for day buckets. Empty means local.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// SoundConfig controls the new-notification audio cue.
type SoundConfig struct {
	AssetPath      string `mapstructure:"asset_path" yaml:"asset_path"`
	Player         string `mapstructure:"player" yaml:"player"`
	DefaultEnabled bool   `mapstructure:"default_enabled" yaml:"default_enabled"`
}

// LogConfig controls the log file. The terminal belongs to the UI, so
// logs never go to stderr.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Sound   SoundConfig   `mapstructure:"sound" yaml:"sound"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

const envPrefix = "LMSNOTIFY"

// ConfigDir returns ~/.config/lmsnotify, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "lmsnotify")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultDBPath returns the default path of the preferences database.
func DefaultDBPath() string {
	return filepath.Join(ConfigDir(), "lmsnotify.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Role:       string(RoleUser),
			TimeoutSec: 15,
		},
		Display: DisplayConfig{
			Theme:           "default",
			DropdownLimit:   10,
			PollIntervalSec: 60,
		},
		Sound: SoundConfig{
			AssetPath:      "/sounds/notification.mp3",
			DefaultEnabled: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "lmsnotify.log"),
		},
	}
}

// LoadEnvFiles loads KEY=value pairs from the given .env files into the
// process environment. Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := defaultAppConfig()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.role", d.Server.Role)
	v.SetDefault("server.page_path", d.Server.PagePath)
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.all_url", d.Server.AllURL)
	v.SetDefault("server.live_url", d.Server.LiveURL)
	v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.dropdown_limit", d.Display.DropdownLimit)
	v.SetDefault("display.poll_interval_sec", d.Display.PollIntervalSec)
	v.SetDefault("display.timezone", d.Display.Timezone)
	v.SetDefault("sound.asset_path", d.Sound.AssetPath)
	v.SetDefault("sound.player", d.Sound.Player)
	v.SetDefault("sound.default_enabled", d.Sound.DefaultEnabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// LMSNOTIFY_* environment variables (e.g., LMSNOTIFY_SERVER_URL) override
// file values. If the file does not exist, defaults plus environment are
// returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.DropdownLimit <= 0 {
		cfg.Display.DropdownLimit = 10
	}
	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 60
	}
	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 15
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)
	v.Set("sound", cfg.Sound)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// RoleOrDefault parses Server.Role, falling back to the user portal.
func (c *AppConfig) RoleOrDefault() Role {
	r, err := ParseRole(c.Server.Role)
	if err != nil {
		return RoleUser
	}
	return r
}

// NotificationConfig returns the endpoint set to use before the server has
// injected its own.
func (c *AppConfig) NotificationConfig() NotificationConfig {
	nc := DefaultNotificationConfig(c.RoleOrDefault())
	if c.Server.BaseURL != "" {
		nc.BaseURL = c.Server.BaseURL
	}
	if c.Server.AllURL != "" {
		nc.AllURL = c.Server.AllURL
	}
	return nc
}

// PagePath returns the configured props page or the role's dashboard.
func (c *AppConfig) PagePath() string {
	if c.Server.PagePath != "" {
		return c.Server.PagePath
	}
	return DefaultPagePath(c.RoleOrDefault())
}

// Location returns the configured timezone, or time.Local.
func (c *AppConfig) Location() *time.Location {
	if c.Display.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Timeout is the per-request HTTP timeout.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSec) * time.Second
}

// PollInterval is the interval between background page refreshes.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Display.PollIntervalSec) * time.Second
}
