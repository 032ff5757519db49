package simctl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/simfleet/internal/errors"
)

// ToolPath is the absolute path of a located simulator-control binary.
type ToolPath string

// String implements fmt.Stringer.
func (p ToolPath) String() string {
	return string(p)
}

// LocatorConfig describes the toolchain layout.
type LocatorConfig struct {
	// SelectCommand prints the active toolchain directory when no explicit
	// path is given.
	SelectCommand []string
	// ContentsDir is joined onto an explicit installation path.
	ContentsDir string
	// MarkerFile must exist in the installation root.
	MarkerFile string
	// BinarySubpath is the tool's location relative to the root.
	BinarySubpath string
	// CheckArgs, when set, are run against the candidate binary, which must
	// exit 0 to be accepted.
	CheckArgs []string
}

// DefaultLocatorConfig returns the layout of a standard Xcode installation.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		SelectCommand: []string{"xcode-select", "-p"},
		ContentsDir:   "Contents",
		MarkerFile:    "version.plist",
		BinarySubpath: filepath.Join("Developer", "usr", "bin", "simctl"),
		CheckArgs:     ListArgs,
	}
}

// Locator resolves the simulator-control binary.
type Locator struct {
	cfg    LocatorConfig
	runner Runner
	fs     afero.Fs
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithFs overrides the filesystem the locator inspects.
func WithFs(fs afero.Fs) LocatorOption {
	return func(l *Locator) {
		l.fs = fs
	}
}

// NewLocator creates a Locator. The runner answers the selection query and
// runs the check.
func NewLocator(cfg LocatorConfig, runner Runner, opts ...LocatorOption) *Locator {
	if runner == nil {
		runner = ExecRunner{}
	}
	l := &Locator{cfg: cfg, runner: runner, fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate finds the installation root by walking upward from a start
// directory until a directory containing the marker file is found, then
// returns the binary beneath it.
//
// With a non-empty installPath the walk starts at installPath/ContentsDir.
// Otherwise the walk starts at the directory printed by SelectCommand.
func (l *Locator) Locate(ctx context.Context, installPath string) (ToolPath, error) {
	start, err := l.startPath(ctx, installPath)
	if err != nil {
		return "", err
	}

	root, ok := l.findRoot(start)
	if !ok {
		return "", errors.NewLocateError("no "+l.cfg.MarkerFile+" found in any parent directory").
			WithStartPath(start)
	}

	bin := filepath.Join(root, l.cfg.BinarySubpath)
	info, err := l.fs.Stat(bin)
	if err != nil {
		return "", errors.NewLocateError("tool binary does not exist").
			WithStartPath(start).
			WithCandidate(bin)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", errors.NewLocateError("tool binary is not executable").
			WithStartPath(start).
			WithCandidate(bin)
	}
	if err := l.verify(ctx, start, bin); err != nil {
		return "", err
	}
	return ToolPath(bin), nil
}

// verify runs CheckArgs against bin.
func (l *Locator) verify(ctx context.Context, start, bin string) error {
	if len(l.cfg.CheckArgs) == 0 {
		return nil
	}
	res, err := l.runner.Run(ctx, bin, l.cfg.CheckArgs...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.NewCanceledError("tool check", ctxErr)
		}
		return errors.NewLocateError("tool binary did not run: " + err.Error()).
			WithStartPath(start).
			WithCandidate(bin)
	}
	if !res.OK() {
		msg := fmt.Sprintf("tool binary failed %q (exit %d)", strings.Join(l.cfg.CheckArgs, " "), res.ExitCode)
		if d := res.Diagnostic(); d != "" {
			msg += ": " + firstLine(d)
		}
		return errors.NewLocateError(msg).
			WithStartPath(start).
			WithCandidate(bin)
	}
	return nil
}

func (l *Locator) startPath(ctx context.Context, installPath string) (string, error) {
	if installPath != "" {
		start := installPath
		if l.cfg.ContentsDir != "" {
			start = filepath.Join(installPath, l.cfg.ContentsDir)
		}
		return absPath(start), nil
	}

	if len(l.cfg.SelectCommand) == 0 {
		return "", errors.NewLocateError("no installation path and no selection command configured")
	}
	res, err := l.runner.Run(ctx, l.cfg.SelectCommand[0], l.cfg.SelectCommand[1:]...)
	if err != nil {
		return "", errors.NewLocateError("toolchain selection query failed: " + err.Error())
	}
	if !res.OK() {
		return "", errors.NewLocateError("toolchain selection query failed: " + res.Diagnostic())
	}
	out := res.Output()
	if out == "" {
		return "", errors.NewLocateError("toolchain selection query printed nothing")
	}
	// Only the first line is a path.
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = strings.TrimSpace(out[:i])
	}
	return absPath(out), nil
}

// findRoot walks from start toward the filesystem root. The walk ends when
// filepath.Dir stops changing the path.
func (l *Locator) findRoot(start string) (string, bool) {
	dir := start
	for {
		marker := filepath.Join(dir, l.cfg.MarkerFile)
		if info, err := l.fs.Stat(marker); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
