package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/simfleet/internal/logging"
)

// Config represents the complete simfleet configuration
type Config struct {
	Tool       ToolConfig     `mapstructure:"tool"`
	Categories CategoryConfig `mapstructure:"categories"`
	Pairing    PairingConfig  `mapstructure:"pairing"`
	Reset      ResetConfig    `mapstructure:"reset"`
	Output     OutputConfig   `mapstructure:"output"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// ToolConfig controls how the simulator-control binary is located and run
type ToolConfig struct {
	// Path is an explicit toolchain installation (e.g. /Applications/Xcode.app).
	// Empty means ask the host for the currently selected toolchain.
	Path string `mapstructure:"path"`
	// SelectCommand is the host query that prints the active toolchain path
	SelectCommand []string `mapstructure:"select_command"`
	// ContentsDir is appended to an explicit Path before the upward walk
	ContentsDir string `mapstructure:"contents_dir"`
	// MarkerFile identifies a valid installation root
	MarkerFile string `mapstructure:"marker_file"`
	// BinarySubpath is the tool location relative to the installation root
	BinarySubpath string `mapstructure:"binary_subpath"`
	// TimeoutSeconds bounds each tool invocation (0 = wait forever)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// CategoryConfig holds the glob patterns that sort the tool's open catalogs
// into categories. Patterns are matched against identifiers, not names.
type CategoryConfig struct {
	// Phone selects primary (handset) device types
	Phone string `mapstructure:"phone"`
	// Watch selects the companion (wearable) form factor
	Watch string `mapstructure:"watch"`
	// IOS, WatchOS and TVOS select runtimes by OS family
	IOS     string `mapstructure:"ios"`
	WatchOS string `mapstructure:"watchos"`
	TVOS    string `mapstructure:"tvos"`
}

// PairingConfig controls the compatibility sweep
type PairingConfig struct {
	// TestPrefix marks every instance the sweep creates so leftovers can be
	// found and removed by later runs
	TestPrefix string `mapstructure:"test_prefix"`
}

// ResetConfig controls the destructive fleet reset
type ResetConfig struct {
	// Confirm asks before deleting every instance on the host (default: true)
	Confirm bool `mapstructure:"confirm"`
}

// OutputConfig controls how reports are rendered
type OutputConfig struct {
	// Format is one of "text", "json" or "yaml"
	Format string `mapstructure:"format"`
	// Color enables styled text output when stdout is a terminal
	Color bool `mapstructure:"color"`
}

// LoggingConfig controls structured debug logging
type LoggingConfig struct {
	// Enabled turns file logging on (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Dir is the log directory. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the log file past this size (0 = never)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	rotation := logging.DefaultRotationConfig()
	return &Config{
		Tool: ToolConfig{
			Path:           "",
			SelectCommand:  []string{"xcode-select", "-p"},
			ContentsDir:    "Contents",
			MarkerFile:     "version.plist",
			BinarySubpath:  filepath.Join("Developer", "usr", "bin", "simctl"),
			TimeoutSeconds: 0,
		},
		Categories: CategoryConfig{
			Phone:   "*.SimDeviceType.iPhone-*",
			Watch:   "*.SimDeviceType.Apple-Watch-Series-*-44mm",
			IOS:     "*.SimRuntime.iOS-*",
			WatchOS: "*.SimRuntime.watchOS-*",
			TVOS:    "*.SimRuntime.tvOS-*",
		},
		Pairing: PairingConfig{
			TestPrefix: "simfleet-test",
		},
		Reset: ResetConfig{
			Confirm: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  rotation.MaxSizeMB,
			MaxBackups: rotation.MaxBackups,
		},
	}
}

// Timeout returns the per-invocation timeout (0 means none)
func (c *ToolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResolveDir returns the log directory, falling back to <config dir>/logs
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Tool defaults
	viper.SetDefault("tool.path", defaults.Tool.Path)
	viper.SetDefault("tool.select_command", defaults.Tool.SelectCommand)
	viper.SetDefault("tool.contents_dir", defaults.Tool.ContentsDir)
	viper.SetDefault("tool.marker_file", defaults.Tool.MarkerFile)
	viper.SetDefault("tool.binary_subpath", defaults.Tool.BinarySubpath)
	viper.SetDefault("tool.timeout_seconds", defaults.Tool.TimeoutSeconds)

	// Category defaults
	viper.SetDefault("categories.phone", defaults.Categories.Phone)
	viper.SetDefault("categories.watch", defaults.Categories.Watch)
	viper.SetDefault("categories.ios", defaults.Categories.IOS)
	viper.SetDefault("categories.watchos", defaults.Categories.WatchOS)
	viper.SetDefault("categories.tvos", defaults.Categories.TVOS)

	// Pairing defaults
	viper.SetDefault("pairing.test_prefix", defaults.Pairing.TestPrefix)

	// Reset defaults
	viper.SetDefault("reset.confirm", defaults.Reset.Confirm)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "simfleet")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".simfleet"
	}
	return filepath.Join(home, ".config", "simfleet")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
