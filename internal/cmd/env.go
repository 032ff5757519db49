package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/config"
	"github.com/Iron-Ham/simfleet/internal/fleet"
	"github.com/Iron-Ham/simfleet/internal/logging"
	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/simctl"
	"github.com/Iron-Ham/simfleet/internal/styles"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Process seams, replaced in tests.
var (
	newRunner = func() simctl.Runner { return simctl.ExecRunner{} }

	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

	isTerminal = func(w io.Writer) bool {
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
)

// runEnv is everything a fleet command needs: configuration, a run-scoped
// logger, a client bound to the located tool and the output streams.
type runEnv struct {
	cfg        *config.Config
	runID      string
	logger     *logging.Logger
	tool       simctl.ToolPath
	client     *simctl.Client
	categories simctl.Categories

	out      io.Writer
	renderer styles.Renderer
	progress fleet.Progress
}

// newRunEnv loads the configuration, opens the log and locates the tool.
// The caller must call close.
func newRunEnv(cmd *cobra.Command, command string) (*runEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if noColor {
		cfg.Output.Color = false
	}

	env := &runEnv{
		cfg:   cfg,
		runID: uuid.NewString(),
		out:   cmd.OutOrStdout(),
	}
	env.logger = openLogger(cmd, cfg).WithRun(env.runID).With("command", command)

	categories, err := simctl.NewCategories(
		cfg.Categories.Phone,
		cfg.Categories.Watch,
		cfg.Categories.IOS,
		cfg.Categories.WatchOS,
		cfg.Categories.TVOS,
	)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("invalid category pattern: %w", err)
	}
	env.categories = categories

	runner := newRunner()
	locator := simctl.NewLocator(locatorConfig(cfg), runner)
	env.tool, err = locator.Locate(cmd.Context(), cfg.Tool.Path)
	if err != nil {
		env.logger.Error("tool not found", "error", err.Error())
		env.close()
		return nil, err
	}
	env.logger.Info("tool located", "path", env.tool.String())

	invoker := simctl.WithTimeout(simctl.NewExecInvoker(env.tool, runner, env.logger), cfg.Tool.Timeout())
	env.client = simctl.NewClient(invoker, env.logger)

	env.renderer = styles.NewRenderer(cfg.Output.Color && isTerminal(env.out))

	// Keep machine-readable reports alone on stdout.
	progressOut := env.out
	progressRenderer := env.renderer
	if env.format() != report.FormatText {
		progressOut = cmd.ErrOrStderr()
		progressRenderer = styles.NewRenderer(cfg.Output.Color && isTerminal(progressOut))
	}
	env.progress = fleet.NewTextProgress(progressOut, progressRenderer)

	return env, nil
}

func openLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	var (
		logger *logging.Logger
		err    error
	)
	// A zero size limit keeps a single append-only file.
	if cfg.Logging.MaxSizeMB == 0 {
		logger, err = logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
	} else {
		logger, err = logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func locatorConfig(cfg *config.Config) simctl.LocatorConfig {
	return simctl.LocatorConfig{
		SelectCommand: cfg.Tool.SelectCommand,
		ContentsDir:   cfg.Tool.ContentsDir,
		MarkerFile:    cfg.Tool.MarkerFile,
		BinarySubpath: cfg.Tool.BinarySubpath,
		CheckArgs:     simctl.ListArgs,
	}
}

func (e *runEnv) format() string {
	return strings.ToLower(e.cfg.Output.Format)
}

// fleetOptions returns the options every fleet component is built with.
func (e *runEnv) fleetOptions() []fleet.Option {
	return []fleet.Option{
		fleet.WithProgress(e.progress),
		fleet.WithLogger(e.logger),
	}
}

// render writes a finished run's report to stdout.
func (e *runEnv) render(rep *report.Report) error {
	return report.Render(e.out, e.format(), rep.Summary(), e.renderer)
}

func (e *runEnv) close() {
	_ = e.logger.Close()
}
