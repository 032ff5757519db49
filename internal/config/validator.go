package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/simfleet/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "pairing.test_prefix")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// testPrefixRegex restricts the test marker to characters every simulator
// name accepts. It must start with a letter.
var testPrefixRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidLogLevels returns the accepted logging.level values, lower-cased.
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, l := range levels {
		levels[i] = strings.ToLower(l)
	}
	return levels
}

// ValidOutputFormats returns the list of valid report formats
func ValidOutputFormats() []string {
	return []string{"text", "json", "yaml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTool()...)
	errors = append(errors, c.validateCategories()...)
	errors = append(errors, c.validatePairing()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateTool validates the ToolConfig
func (c *Config) validateTool() []ValidationError {
	var errors []ValidationError

	if len(c.Tool.SelectCommand) == 0 || strings.TrimSpace(c.Tool.SelectCommand[0]) == "" {
		errors = append(errors, ValidationError{
			Field:   "tool.select_command",
			Value:   c.Tool.SelectCommand,
			Message: "must name a command",
		})
	}
	if strings.TrimSpace(c.Tool.MarkerFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "tool.marker_file",
			Value:   c.Tool.MarkerFile,
			Message: "cannot be empty",
		})
	}
	if strings.TrimSpace(c.Tool.BinarySubpath) == "" || filepath.IsAbs(c.Tool.BinarySubpath) {
		errors = append(errors, ValidationError{
			Field:   "tool.binary_subpath",
			Value:   c.Tool.BinarySubpath,
			Message: "must be a non-empty relative path",
		})
	}
	if c.Tool.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "tool.timeout_seconds",
			Value:   c.Tool.TimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateCategories checks that every category pattern is a valid glob
func (c *Config) validateCategories() []ValidationError {
	var errors []ValidationError

	patterns := []struct {
		field   string
		pattern string
	}{
		{"categories.phone", c.Categories.Phone},
		{"categories.watch", c.Categories.Watch},
		{"categories.ios", c.Categories.IOS},
		{"categories.watchos", c.Categories.WatchOS},
		{"categories.tvos", c.Categories.TVOS},
	}
	for _, p := range patterns {
		if strings.TrimSpace(p.pattern) == "" {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Value:   p.pattern,
				Message: "cannot be empty",
			})
			continue
		}
		if _, err := glob.Compile(p.pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   p.field,
				Value:   p.pattern,
				Message: fmt.Sprintf("invalid glob pattern: %v", err),
			})
		}
	}

	return errors
}

// validatePairing validates the PairingConfig
func (c *Config) validatePairing() []ValidationError {
	var errors []ValidationError

	if !testPrefixRegex.MatchString(c.Pairing.TestPrefix) {
		errors = append(errors, ValidationError{
			Field:   "pairing.test_prefix",
			Value:   c.Pairing.TestPrefix,
			Message: "must start with a letter and contain only letters, digits, '-' or '_'",
		})
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.Format != "" && !slices.Contains(ValidOutputFormats(), strings.ToLower(c.Output.Format)) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
