package fleet

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/simctl"
)

// Combination is one instance a reset creates.
type Combination struct {
	DeviceType simctl.DeviceType
	Runtime    simctl.Runtime
	Family     simctl.OSFamily
}

// Name returns the instance name, e.g. "iPhone 11 (iOS 13.0)".
func (c Combination) Name() string {
	return fmt.Sprintf("%s (%s)", c.DeviceType.Name, c.Runtime.Name)
}

// ResetResult is the outcome of a reset.
type ResetResult struct {
	Report *report.Report
	// Doomed lists the instances that existed before the reset.
	Doomed   []simctl.Device
	Plan     []Combination
	Sweep    SweepResult
	Attempts Attempts
	// DryRun is true when nothing was changed.
	DryRun bool
}

// Resetter deletes every instance on the host and recreates one per
// (device type x available runtime).
type Resetter struct {
	client     *simctl.Client
	cleaner    *Cleaner
	categories simctl.Categories
	opts       options
}

// NewResetter creates a Resetter.
func NewResetter(client *simctl.Client, categories simctl.Categories, opts ...Option) *Resetter {
	return &Resetter{
		client:     client,
		cleaner:    NewCleaner(client, opts...),
		categories: categories,
		opts:       buildOptions(opts),
	}
}

// Plan lists the combinations a reset creates for inv: every device type
// paired with every available runtime, in listing order.
func (r *Resetter) Plan(inv *simctl.Inventory) []Combination {
	runtimes := inv.AvailableRuntimes()
	plan := make([]Combination, 0, len(inv.DeviceTypes)*len(runtimes))
	for _, dt := range inv.DeviceTypes {
		for _, rt := range runtimes {
			plan = append(plan, Combination{
				DeviceType: dt,
				Runtime:    rt,
				Family:     r.categories.Family(rt.Identifier),
			})
		}
	}
	return plan
}

// Preview reports what Run would do without changing anything.
func (r *Resetter) Preview(ctx context.Context) (*ResetResult, error) {
	inv, err := r.client.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reset inventory")
	}
	rep := report.New("Fleet reset (dry run)", report.ResetCounters, report.WithClock(r.opts.clock))
	res := &ResetResult{
		Report: rep,
		Doomed: r.cleaner.Candidates(inv, Everything()),
		Plan:   r.Plan(inv),
		DryRun: true,
	}
	rep.Finish()
	return res, nil
}

// Run performs the reset. It returns an error when the inventory cannot be
// read; failed deletions and creations are recorded in the result. A
// canceled ctx stops the reset between tool calls, and the partial result is
// returned with an error matching errors.ErrCanceled.
func (r *Resetter) Run(ctx context.Context) (*ResetResult, error) {
	rep := report.New("Fleet reset", report.ResetCounters, report.WithClock(r.opts.clock))
	logger := r.opts.logger.WithPhase("reset")

	inv, err := r.client.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reset inventory")
	}
	res := &ResetResult{
		Report: rep,
		Doomed: r.cleaner.Candidates(inv, Everything()),
		Plan:   r.Plan(inv),
	}

	r.opts.progress.Phase("Deleting all instances")
	res.Sweep = r.cleaner.Sweep(ctx, inv, Everything())
	rep.Add(report.InstancesDeleted, res.Sweep.Attempted)
	for _, a := range res.Sweep.Attempts {
		res.Attempts = append(res.Attempts, a)
		tally(rep, a)
	}

	r.opts.progress.Phase("Creating instances")
	for _, c := range res.Plan {
		if ctx.Err() != nil {
			break
		}
		udid, err := r.client.Create(ctx, c.Name(), c.DeviceType.Identifier, c.Runtime.Identifier)
		a := Attempt{
			Action: ActionCreate,
			Target: c.Name(),
			Family: string(c.Family),
			ID:     udid,
			Err:    err,
		}
		res.Attempts = append(res.Attempts, a)
		tally(rep, a)
		r.opts.progress.Attempt(a)
		if err != nil {
			logger.Warn("instance creation failed", "name", c.Name(), "error", err.Error())
		}
	}

	rep.Finish()
	logger.Info("reset finished",
		"deleted", res.Sweep.Removed,
		"planned", len(res.Plan),
		"failures", len(res.Attempts.Failed()),
	)
	if err := ctx.Err(); err != nil {
		logger.Warn("reset interrupted", "error", err.Error())
		return res, errors.NewCanceledError("reset", err)
	}
	return res, nil
}
