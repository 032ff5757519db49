package simctl

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/logging"
)

// Result is the captured outcome of one process execution. A non-zero
// ExitCode is data, not an error.
type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// OK reports whether the process exited with status 0.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Output returns stdout with surrounding whitespace removed.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout)
}

// Diagnostic returns the most useful text for an error message: stderr if
// the process wrote any, stdout otherwise.
func (r Result) Diagnostic() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return r.Output()
}

// Runner executes arbitrary host commands. Locate uses it for the toolchain
// selection query and ExecInvoker uses it to run the resolved binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and waits for it to exit. The returned error is
// non-nil only when the process could not be started or ctx ended first.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Command:  name,
		Args:     append([]string(nil), args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	} else {
		res.ExitCode = -1
	}
	return res, err
}

// Invoker runs the resolved simulator-control tool with a list of arguments
// and returns its captured output. Implementations must not interpret the
// output; the caller decides what a non-zero exit means.
type Invoker interface {
	Invoke(ctx context.Context, args ...string) (Result, error)
}

// ExecInvoker invokes the tool at Path through a Runner.
type ExecInvoker struct {
	path   ToolPath
	runner Runner
	logger *logging.Logger
}

// NewExecInvoker returns an Invoker bound to path. A nil runner means
// ExecRunner and a nil logger discards debug output.
func NewExecInvoker(path ToolPath, runner Runner, logger *logging.Logger) *ExecInvoker {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ExecInvoker{path: path, runner: runner, logger: logger}
}

// Path returns the binary this invoker runs.
func (i *ExecInvoker) Path() ToolPath {
	return i.path
}

// Invoke runs the tool once.
func (i *ExecInvoker) Invoke(ctx context.Context, args ...string) (Result, error) {
	res, err := i.runner.Run(ctx, string(i.path), args...)
	i.logger.Debug("tool invocation",
		"args", args,
		"exit_code", res.ExitCode,
		"duration_ms", res.Duration.Milliseconds(),
		"stderr", strings.TrimSpace(res.Stderr),
	)
	if err != nil {
		i.logger.Warn("tool did not run", "args", args, "error", err.Error())
	}
	return res, err
}

type timeoutInvoker struct {
	next    Invoker
	timeout time.Duration
}

// WithTimeout bounds every call to next by d. A non-positive d returns next
// unchanged.
func WithTimeout(next Invoker, d time.Duration) Invoker {
	if d <= 0 {
		return next
	}
	return &timeoutInvoker{next: next, timeout: d}
}

func (t *timeoutInvoker) Invoke(ctx context.Context, args ...string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.next.Invoke(ctx, args...)
	if errors.Is(err, context.DeadlineExceeded) {
		return res, fmt.Errorf("%s timed out after %s: %w", strings.Join(args, " "), t.timeout, err)
	}
	return res, err
}
