package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Iron-Ham/simfleet/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify simfleet configuration",
	Long: `View or modify simfleet configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  simfleet config set pairing.test_prefix ci-pair
  simfleet config set tool.timeout_seconds 120
  simfleet config set reset.confirm false

Valid keys:
  tool.path               - Toolchain installation (empty = selected toolchain)
  tool.timeout_seconds    - Per-call timeout, 0 waits forever
  categories.phone        - Glob selecting handset device types
  categories.watch        - Glob selecting wearable device types
  categories.ios          - Glob selecting iOS runtimes
  categories.watchos      - Glob selecting watchOS runtimes
  categories.tvos         - Glob selecting tvOS runtimes
  pairing.test_prefix     - Name prefix of instances created by pair
  reset.confirm           - Ask before reset (true/false)
  output.format           - Report format: text, json, yaml
  output.color            - Styled output on terminals (true/false)
  logging.enabled         - Write a log file (true/false)
  logging.level           - debug, info, warn, error
  logging.dir             - Log directory
  logging.max_size_mb     - Rotate the log past this size
  logging.max_backups     - Rotated files kept`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/simfleet/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
}

// settableKeys maps each key accepted by "config set" to its value type.
var settableKeys = map[string]string{
	"tool.path":            "string",
	"tool.timeout_seconds": "int",
	"categories.phone":     "string",
	"categories.watch":     "string",
	"categories.ios":       "string",
	"categories.watchos":   "string",
	"categories.tvos":      "string",
	"pairing.test_prefix":  "string",
	"reset.confirm":        "bool",
	"output.format":        "string",
	"output.color":         "bool",
	"logging.enabled":      "bool",
	"logging.level":        "string",
	"logging.dir":          "string",
	"logging.max_size_mb":  "int",
	"logging.max_backups":  "int",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	settings := viper.AllSettings()
	// The config file path is a flag, not a setting.
	delete(settings, "config")

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	return enc.Close()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'simfleet config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

const defaultConfigContent = `# simfleet configuration

# Locating the simulator-control tool
tool:
  # Toolchain installation to use (e.g. /Applications/Xcode.app).
  # Empty asks select_command for the selected toolchain.
  path: ""
  select_command: ["xcode-select", "-p"]
  # Appended to an explicit path before searching upward for marker_file
  contents_dir: Contents
  marker_file: version.plist
  # Tool location relative to the directory holding marker_file
  binary_subpath: Developer/usr/bin/simctl
  # Per-call timeout in seconds, 0 waits forever
  timeout_seconds: 0

# Glob patterns matched against catalog identifiers
categories:
  phone: "*.SimDeviceType.iPhone-*"
  watch: "*.SimDeviceType.Apple-Watch-Series-*-44mm"
  ios: "*.SimRuntime.iOS-*"
  watchos: "*.SimRuntime.watchOS-*"
  tvos: "*.SimRuntime.tvOS-*"

# Compatibility sweep
pairing:
  # Every instance the sweep creates starts with this prefix
  test_prefix: simfleet-test

# Fleet reset
reset:
  # Ask before deleting every instance on the host
  confirm: true

# Reports
output:
  # text, json or yaml
  format: text
  # Styled text when stdout is a terminal
  color: true

# Structured JSON log file
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Empty means ~/.config/simfleet/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'simfleet config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize simfleet's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/simfleet/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: SIMFLEET_* (e.g., SIMFLEET_PAIRING_TEST_PREFIX)")

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}

	errs := cfg.Validate()
	if len(errs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	}

	return config.ValidationErrors(errs)
}
