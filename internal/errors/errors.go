// Package errors holds the failure vocabulary of simfleet: sentinels for
// everything a run can observe, typed errors that carry the context of a
// failed tool call, and the classification used when a command exits.
//
// Two sentinels are fatal and stop a run: ErrToolNotFound and
// ErrMalformedInventory. Creation, pairing, unpairing and deletion failures
// are per-attempt; sweeps record them and carry on. ErrCanceled marks a run
// cut short by an interrupt.
//
//	err := errors.NewToolError("create", errors.ErrCreationFailed).
//	    WithArgs("create", "sf-watch-1", dt, rt).
//	    WithExitCode(148).
//	    WithOutput(stderr)
//
//	if errors.IsFatal(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard library helpers, so callers need a single errors import.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Severity ranks an error for the final report of a command.
type Severity int

const (
	// SeverityInfo is an expected stop, such as an interrupt.
	SeverityInfo Severity = iota
	// SeverityWarning is a per-attempt failure a sweep absorbs.
	SeverityWarning
	// SeverityError is the default for errors without a classification.
	SeverityError
	// SeverityCritical aborts a run.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Fatal sentinels.
var (
	// ErrToolNotFound means no usable simulator-control binary was resolved.
	ErrToolNotFound = New("simulator tool not found")
	// ErrMalformedInventory means the listing could not be fetched or parsed.
	ErrMalformedInventory = New("malformed simulator inventory")
)

// Per-attempt sentinels.
var (
	ErrCreationFailed  = New("instance creation failed")
	ErrPairingFailed   = New("pairing failed")
	ErrUnpairingFailed = New("unpairing failed")
	ErrDeletionFailed  = New("instance deletion failed")
)

var (
	// ErrInvalidInput is matched by every ValidationError.
	ErrInvalidInput = New("invalid input")
	// ErrCanceled is matched by every CanceledError.
	ErrCanceled = New("operation canceled")
	// ErrAborted means the user declined, or could not be asked to confirm,
	// a destructive operation.
	ErrAborted = New("aborted by user")
)

// classified is implemented by every error type in this package.
type classified interface {
	error
	Severity() Severity
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	return e.cause != nil && errors.Is(e.cause, target)
}

func (e *baseError) Severity() Severity { return e.severity }

func (e *baseError) IsUserFacing() bool { return e.userFacing }

// ToolError is a simulator-control invocation that exited non-zero or could
// not be started.
//
//	errors.NewToolError("pair", errors.ErrPairingFailed).WithArgs("pair", w, p).WithExitCode(1)
//	// tool error [op=pair, exit=1]: pair failed: pairing failed
type ToolError struct {
	baseError
	Operation string
	Args      []string
	ExitCode  int
	// Output is the tool's diagnostic text, stderr when it wrote any.
	Output string
}

// NewToolError returns a per-attempt error for the named tool verb.
func NewToolError(operation string, cause error) *ToolError {
	return &ToolError{
		baseError: baseError{
			message:    operation + " failed",
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Operation: operation,
	}
}

// WithArgs records the argument list passed to the tool.
func (e *ToolError) WithArgs(args ...string) *ToolError {
	e.Args = append([]string(nil), args...)
	return e
}

// WithExitCode records the exit status.
func (e *ToolError) WithExitCode(code int) *ToolError {
	e.ExitCode = code
	return e
}

// WithOutput records the tool's output with surrounding space removed.
func (e *ToolError) WithOutput(output string) *ToolError {
	e.Output = strings.TrimSpace(output)
	return e
}

func (e *ToolError) Error() string {
	tags := "op=" + e.Operation
	if e.ExitCode != 0 {
		tags += fmt.Sprintf(", exit=%d", e.ExitCode)
	}
	msg := e.baseError.Error()
	if e.Output != "" {
		msg += "\ntool output: " + e.Output
	}
	return fmt.Sprintf("tool error [%s]: %s", tags, msg)
}

func (e *ToolError) Is(target error) bool {
	if _, ok := target.(*ToolError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// LocateError is a failure to resolve the simulator-control binary. It
// always matches ErrToolNotFound.
type LocateError struct {
	baseError
	StartPath string
	Candidate string
}

// NewLocateError returns a fatal locate failure.
func NewLocateError(message string) *LocateError {
	return &LocateError{
		baseError: baseError{
			message:    message,
			cause:      ErrToolNotFound,
			severity:   SeverityCritical,
			userFacing: true,
		},
	}
}

// WithStartPath records where the upward walk began.
func (e *LocateError) WithStartPath(path string) *LocateError {
	e.StartPath = path
	return e
}

// WithCandidate records the binary that was rejected.
func (e *LocateError) WithCandidate(path string) *LocateError {
	e.Candidate = path
	return e
}

func (e *LocateError) Error() string {
	var tags []string
	if e.StartPath != "" {
		tags = append(tags, "start="+e.StartPath)
	}
	if e.Candidate != "" {
		tags = append(tags, "candidate="+e.Candidate)
	}
	if len(tags) == 0 {
		return "locate error: " + e.baseError.Error()
	}
	return fmt.Sprintf("locate error [%s]: %s", strings.Join(tags, ", "), e.baseError.Error())
}

func (e *LocateError) Is(target error) bool {
	if _, ok := target.(*LocateError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// InventoryError is a listing that could not be fetched or decoded. It
// always matches ErrMalformedInventory; Detail, when set, is matched too.
type InventoryError struct {
	baseError
	Detail error
}

// NewInventoryError returns a fatal inventory failure. detail may be nil.
func NewInventoryError(message string, detail error) *InventoryError {
	return &InventoryError{
		baseError: baseError{
			message:    message,
			cause:      ErrMalformedInventory,
			severity:   SeverityCritical,
			userFacing: true,
		},
		Detail: detail,
	}
}

func (e *InventoryError) Error() string {
	if e.Detail == nil {
		return "inventory error: " + e.baseError.Error()
	}
	return fmt.Sprintf("inventory error: %s: %v", e.baseError.Error(), e.Detail)
}

func (e *InventoryError) Is(target error) bool {
	if _, ok := target.(*InventoryError); ok {
		return true
	}
	if e.Detail != nil && errors.Is(e.Detail, target) {
		return true
	}
	return e.baseError.Is(target)
}

// CanceledError is an operation cut short because its context ended. It
// matches ErrCanceled and the context error it wraps.
type CanceledError struct {
	baseError
	Operation string
}

// NewCanceledError wraps the context error that stopped operation.
func NewCanceledError(operation string, cause error) *CanceledError {
	return &CanceledError{
		baseError: baseError{
			message:    operation + " canceled",
			cause:      cause,
			severity:   SeverityInfo,
			userFacing: true,
		},
		Operation: operation,
	}
}

func (e *CanceledError) Is(target error) bool {
	return target == ErrCanceled || e.baseError.Is(target)
}

// ValidationError is invalid input.
//
//	errors.NewValidationError("unknown output format").WithField("output").WithValue("xml")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField names the offending field.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the rejected value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

func (e *ValidationError) Error() string {
	var tags []string
	if e.Field != "" {
		tags = append(tags, "field="+e.Field)
	}
	if e.Value != nil {
		tags = append(tags, fmt.Sprintf("value=%v", e.Value))
	}
	if len(tags) == 0 {
		return "validation error: " + e.baseError.Error()
	}
	return fmt.Sprintf("validation error [%s]: %s", strings.Join(tags, ", "), e.baseError.Error())
}

func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidInput || e.baseError.Is(target)
}

// IsFatal reports whether err stops a run: the tool could not be located or
// the inventory could not be read.
func IsFatal(err error) bool {
	return err != nil && (Is(err, ErrToolNotFound) || Is(err, ErrMalformedInventory))
}

// IsUserFacing reports whether err was raised by simfleet itself with a
// message written for the person at the terminal. Errors from flag parsing
// or the OS report false.
func IsUserFacing(err error) bool {
	var c classified
	return err != nil && As(err, &c) && c.IsUserFacing()
}

// GetSeverity returns the severity of the outermost classified error in
// err's chain, or SeverityError when there is none.
func GetSeverity(err error) Severity {
	var c classified
	if As(err, &c) {
		return c.Severity()
	}
	return SeverityError
}

// Wrap adds context to err. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
