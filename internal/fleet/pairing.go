package fleet

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/simfleet/internal/errors"
	"github.com/Iron-Ham/simfleet/internal/report"
	"github.com/Iron-Ham/simfleet/internal/simctl"
)

// PairingConfig controls a compatibility sweep.
type PairingConfig struct {
	// TestPrefix starts the name of every instance the sweep creates.
	TestPrefix string
	Categories simctl.Categories
}

// CompanionName returns the name of the n-th companion (1-based).
func (c PairingConfig) CompanionName(n int) string {
	return fmt.Sprintf("%s-watch-%d", c.TestPrefix, n)
}

// PrimaryName returns the name every primary is created with. Primaries
// exist one at a time, so the name is fixed.
func (c PairingConfig) PrimaryName() string {
	return c.TestPrefix + "-phone"
}

// PairingResult is the outcome of a sweep.
type PairingResult struct {
	Matrix   report.Matrix
	Report   *report.Report
	Attempts Attempts
	// PreClean and PostClean are the two test-instance sweeps.
	PreClean  SweepResult
	PostClean SweepResult
}

type companion struct {
	name    string
	udid    string
	runtime simctl.Runtime
}

// Orchestrator runs the pairing compatibility sweep: it pairs every
// companion (device type x available runtime) with every primary
// (device type x available runtime) and records which runtime versions
// paired.
type Orchestrator struct {
	client  *simctl.Client
	cleaner *Cleaner
	cfg     PairingConfig
	opts    options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(client *simctl.Client, cfg PairingConfig, opts ...Option) *Orchestrator {
	return &Orchestrator{
		client:  client,
		cleaner: NewCleaner(client, opts...),
		cfg:     cfg,
		opts:    buildOptions(opts),
	}
}

// Run performs the sweep. It returns an error when the inventory cannot be
// read; every other failure is recorded in the result.
//
// Once ctx is canceled no further instances are created or paired. The
// final removal of test instances still runs, and the partial result is
// returned together with an error matching errors.ErrCanceled.
func (o *Orchestrator) Run(ctx context.Context) (*PairingResult, error) {
	rep := report.New("Pairing compatibility sweep", report.PairingCounters, report.WithClock(o.opts.clock))
	res := &PairingResult{Report: rep}
	logger := o.opts.logger.WithPhase("pairing")

	record := func(a Attempt) {
		res.Attempts = append(res.Attempts, a)
		tally(rep, a)
		o.opts.progress.Attempt(a)
		if !a.OK() {
			logger.Warn("attempt failed", "action", string(a.Action), "target", a.Target, "error", a.Err.Error())
		}
	}
	absorb := func(s SweepResult) {
		res.Attempts = append(res.Attempts, s.Attempts...)
		for _, a := range s.Attempts {
			tally(rep, a)
		}
		rep.Add(report.InstancesRemoved, s.Removed)
	}

	o.opts.progress.Phase("Removing leftover test instances")
	inv, err := o.client.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initial inventory")
	}
	res.PreClean = o.cleaner.Sweep(ctx, inv, HasPrefix(o.cfg.TestPrefix))
	absorb(res.PreClean)

	cats := o.cfg.Categories
	companionTypes := inv.DeviceTypesMatching(cats.Watch)
	companionRuntimes := inv.AvailableRuntimesMatching(cats.WatchOS)
	primaryTypes := inv.DeviceTypesMatching(cats.Phone)
	primaryRuntimes := inv.AvailableRuntimesMatching(cats.IOS)
	logger.Info("catalog selected",
		"companion_types", len(companionTypes),
		"companion_runtimes", len(companionRuntimes),
		"primary_types", len(primaryTypes),
		"primary_runtimes", len(primaryRuntimes),
	)

	o.opts.progress.Phase("Creating companions")
	var companions []companion
	n := 0
create:
	for _, dt := range companionTypes {
		for _, rt := range companionRuntimes {
			if ctx.Err() != nil {
				break create
			}
			n++
			name := o.cfg.CompanionName(n)
			udid, err := o.client.Create(ctx, name, dt.Identifier, rt.Identifier)
			record(Attempt{
				Action: ActionCreate,
				Role:   RoleCompanion,
				Target: fmt.Sprintf("%s (%s, %s)", name, dt.Name, rt.Name),
				Family: string(cats.Family(rt.Identifier)),
				ID:     udid,
				Err:    err,
			})
			if err == nil {
				companions = append(companions, companion{name: name, udid: udid, runtime: rt})
			}
		}
	}

	o.opts.progress.Phase("Pairing")
	matrix := NewCompatibilityMatrix()
pair:
	for _, dt := range primaryTypes {
		for _, rt := range primaryRuntimes {
			if ctx.Err() != nil {
				break pair
			}
			o.tryPrimary(ctx, dt, rt, companions, matrix, record)
		}
	}

	// Test instances are removed even after an interrupt.
	cleanupCtx := context.WithoutCancel(ctx)
	o.opts.progress.Phase("Removing test instances")
	inv, err = o.client.Snapshot(cleanupCtx)
	if err != nil {
		return nil, errors.Wrap(err, "final inventory")
	}
	res.PostClean = o.cleaner.Sweep(cleanupCtx, inv, HasPrefix(o.cfg.TestPrefix))
	absorb(res.PostClean)

	res.Matrix = matrix.Sorted()
	rep.SetMatrix(res.Matrix)
	rep.Finish()
	paired, pairFailures := res.Attempts.Count(ActionPair)
	logger.Info("pairing sweep finished",
		"pairs", matrix.Len(),
		"paired", paired,
		"pair_failures", pairFailures,
		"attempts", len(res.Attempts),
		"failures", len(res.Attempts.Failed()),
	)
	if err := ctx.Err(); err != nil {
		logger.Warn("pairing sweep interrupted", "error", err.Error())
		return res, errors.NewCanceledError("pairing sweep", err)
	}
	return res, nil
}

// tryPrimary creates one primary, tries it against every companion and
// deletes it again. Unpairing and the deletion ignore cancellation.
func (o *Orchestrator) tryPrimary(
	ctx context.Context,
	dt simctl.DeviceType,
	rt simctl.Runtime,
	companions []companion,
	matrix *CompatibilityMatrix,
	record func(Attempt),
) {
	name := o.cfg.PrimaryName()
	udid, err := o.client.Create(ctx, name, dt.Identifier, rt.Identifier)
	record(Attempt{
		Action: ActionCreate,
		Role:   RolePrimary,
		Target: fmt.Sprintf("%s (%s, %s)", name, dt.Name, rt.Name),
		Family: string(o.cfg.Categories.Family(rt.Identifier)),
		ID:     udid,
		Err:    err,
	})
	if err != nil {
		return
	}
	cleanupCtx := context.WithoutCancel(ctx)

	for _, c := range companions {
		if ctx.Err() != nil {
			break
		}
		handle, err := o.client.Pair(ctx, c.udid, udid)
		record(Attempt{
			Action: ActionPair,
			Target: fmt.Sprintf("%s (%s) -> %s (%s)", c.name, c.runtime.Name, dt.Name, rt.Name),
			ID:     handle,
			Err:    err,
		})
		if err != nil {
			continue
		}
		matrix.Record(rt.Version, c.runtime.Version)

		err = o.client.Unpair(cleanupCtx, handle)
		record(Attempt{Action: ActionUnpair, Target: handle, ID: handle, Err: err})
	}

	err = o.client.Delete(cleanupCtx, udid)
	record(Attempt{
		Action: ActionDelete,
		Role:   RolePrimary,
		Target: fmt.Sprintf("%s (%s)", name, udid),
		ID:     udid,
		Err:    err,
	})
}
