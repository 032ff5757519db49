package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Iron-Ham/simfleet/internal/logging"
	"github.com/Iron-Ham/simfleet/internal/simctl"
)

type options struct {
	progress Progress
	logger   *logging.Logger
	clock    func() time.Time
}

// Option configures a Cleaner, Orchestrator or Resetter.
type Option func(*options)

// WithProgress sets the progress sink. The default discards progress.
func WithProgress(p Progress) Option {
	return func(o *options) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now for report timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		progress: NopProgress{},
		logger:   logging.NopLogger(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NamePredicate selects instances by name.
type NamePredicate func(name string) bool

// HasPrefix selects names beginning with prefix. An empty prefix selects
// nothing.
func HasPrefix(prefix string) NamePredicate {
	return func(name string) bool {
		return prefix != "" && strings.HasPrefix(name, prefix)
	}
}

// Everything selects every instance.
func Everything() NamePredicate {
	return func(string) bool { return true }
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	// Attempted is the number of deletions tried.
	Attempted int
	// Removed is the number that succeeded.
	Removed int
	// Attempts holds one delete attempt per candidate, in order.
	Attempts Attempts
}

// Failed returns the number of deletions that did not succeed.
func (r SweepResult) Failed() int {
	return r.Attempted - r.Removed
}

// Cleaner deletes the instances of a snapshot that match a predicate.
type Cleaner struct {
	client *simctl.Client
	opts   options
}

// NewCleaner creates a Cleaner.
func NewCleaner(client *simctl.Client, opts ...Option) *Cleaner {
	return &Cleaner{client: client, opts: buildOptions(opts)}
}

// Candidates returns the instances of inv a sweep with pred would delete,
// ordered by runtime key and then listing order.
func (c *Cleaner) Candidates(inv *simctl.Inventory, pred NamePredicate) []simctl.Device {
	return inv.DevicesWhere(func(d simctl.Device) bool { return pred(d.Name) })
}

// Sweep deletes every candidate in inv. A failed deletion is recorded and
// the sweep moves on; Sweep itself never fails. Candidates left when ctx is
// canceled are not attempted.
func (c *Cleaner) Sweep(ctx context.Context, inv *simctl.Inventory, pred NamePredicate) SweepResult {
	logger := c.opts.logger.WithPhase("sweep")
	var res SweepResult

	for _, d := range c.Candidates(inv, pred) {
		if ctx.Err() != nil {
			logger.Warn("sweep interrupted", "attempted", res.Attempted)
			break
		}
		err := c.client.Delete(ctx, d.UDID)
		a := Attempt{
			Action: ActionDelete,
			Target: fmt.Sprintf("%s (%s)", d.Name, d.UDID),
			ID:     d.UDID,
			Err:    err,
		}
		res.Attempted++
		res.Attempts = append(res.Attempts, a)
		if err != nil {
			logger.Warn("instance deletion failed", "udid", d.UDID, "name", d.Name, "error", err.Error())
		} else {
			res.Removed++
			logger.Debug("instance deleted", "udid", d.UDID, "name", d.Name)
		}
		c.opts.progress.Attempt(a)
	}

	logger.Info("sweep finished", "attempted", res.Attempted, "removed", res.Removed)
	return res
}
