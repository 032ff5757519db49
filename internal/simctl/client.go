package simctl

import (
	"context"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/logging"
)

// Client wraps an Invoker with the typed operations the fleet needs. Every
// mutating method returns a *errors.ToolError on failure; none of them is
// fatal on its own.
type Client struct {
	inv    Invoker
	logger *logging.Logger
}

// NewClient creates a Client. A nil logger discards output.
func NewClient(inv Invoker, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Client{inv: inv, logger: logger}
}

// Snapshot returns a fresh inventory.
func (c *Client) Snapshot(ctx context.Context) (*Inventory, error) {
	inv, err := Snapshot(ctx, c.inv)
	if err != nil {
		c.logger.Error("inventory snapshot failed", "error", err.Error())
		return nil, err
	}
	c.logger.Debug("inventory snapshot",
		"device_types", len(inv.DeviceTypes),
		"runtimes", len(inv.Runtimes),
		"devices", len(inv.AllDevices()),
	)
	return inv, nil
}

// Create makes a new instance and returns its UDID.
func (c *Client) Create(ctx context.Context, name, deviceTypeID, runtimeID string) (string, error) {
	args := []string{"create", name, deviceTypeID, runtimeID}
	res, err := c.inv.Invoke(ctx, args...)
	if err := c.check("create", errors.ErrCreationFailed, args, res, err); err != nil {
		return "", err
	}
	udid := firstLine(res.Stdout)
	if udid == "" {
		return "", errors.NewToolError("create", errors.ErrCreationFailed).
			WithArgs(args...).
			WithOutput("tool printed no identifier")
	}
	return udid, nil
}

// Delete removes an instance.
func (c *Client) Delete(ctx context.Context, udid string) error {
	args := []string{"delete", udid}
	res, err := c.inv.Invoke(ctx, args...)
	return c.check("delete", errors.ErrDeletionFailed, args, res, err)
}

// Pair pairs a companion with a primary and returns the pair handle.
func (c *Client) Pair(ctx context.Context, companionUDID, primaryUDID string) (string, error) {
	args := []string{"pair", companionUDID, primaryUDID}
	res, err := c.inv.Invoke(ctx, args...)
	if err := c.check("pair", errors.ErrPairingFailed, args, res, err); err != nil {
		return "", err
	}
	handle := firstLine(res.Stdout)
	if handle == "" {
		return "", errors.NewToolError("pair", errors.ErrPairingFailed).
			WithArgs(args...).
			WithOutput("tool printed no pair handle")
	}
	return handle, nil
}

// Unpair releases a pair handle.
func (c *Client) Unpair(ctx context.Context, handle string) error {
	args := []string{"unpair", handle}
	res, err := c.inv.Invoke(ctx, args...)
	return c.check("unpair", errors.ErrUnpairingFailed, args, res, err)
}

func (c *Client) check(op string, sentinel error, args []string, res Result, runErr error) error {
	if runErr != nil {
		return errors.NewToolError(op, errors.Join(sentinel, runErr)).
			WithArgs(args...).
			WithExitCode(res.ExitCode)
	}
	if !res.OK() {
		return errors.NewToolError(op, sentinel).
			WithArgs(args...).
			WithExitCode(res.ExitCode).
			WithOutput(res.Diagnostic())
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
