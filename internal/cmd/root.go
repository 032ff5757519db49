package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/config"
	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "simfleet",
	Short: "Simulator fleet provisioning and pairing sweeps",
	Long: `simfleet drives the host's simulator-control tool to manage the
simulator instances on a developer machine.

It can pair every wearable runtime with every handset runtime and report
which combinations work, reset the host to exactly one instance per device
type and runtime, and remove instances left behind by earlier runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints the error it ends with, if any.
// An interrupt cancels the context handed to the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// Exit statuses beyond the generic 1.
const (
	exitFatal       = 2
	exitInterrupted = 130
)

// ExitCode maps the error Execute returned to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errors.ErrCanceled):
		return exitInterrupted
	case errors.IsFatal(err):
		return exitFatal
	default:
		return 1
	}
}

func printError(w io.Writer, err error) {
	switch {
	case errors.GetSeverity(err) == errors.SeverityInfo:
		fmt.Fprintf(w, "Stopped: %v\n", err)
	case errors.IsUserFacing(err):
		fmt.Fprintf(w, "Error: %v\n", err)
	default:
		// Flag parsing and I/O errors.
		fmt.Fprintf(w, "Error: %v\nRun 'simfleet --help' for usage.\n", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/simfleet/config.yaml)")
	rootCmd.PersistentFlags().String("tool-path", "", "toolchain installation to use instead of the selected one (e.g. /Applications/Xcode.app)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "report format: text, json or yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("tool.path", rootCmd.PersistentFlags().Lookup("tool-path"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

var noColor bool

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/simfleet")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SIMFLEET")
	// e.g. SIMFLEET_PAIRING_TEST_PREFIX for pairing.test_prefix
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
