// Package report accumulates run statistics and renders the end-of-run
// summary.
package report

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Counter names one statistic. The string is the label shown to users.
type Counter string

// Counters shared by the fleet operations.
const (
	InstancesRemoved        Counter = "Test instances removed"
	CompanionsCreated       Counter = "Companion instances created"
	PrimariesCreated        Counter = "Primary instances created"
	PairingAttempts         Counter = "Pairing attempts"
	PairingSuccesses        Counter = "Successful pairings"
	InstancesDeleted        Counter = "Instances deleted"
	IOSInstancesCreated     Counter = "iOS instances created"
	WatchOSInstancesCreated Counter = "watchOS instances created"
	TVOSInstancesCreated    Counter = "tvOS instances created"
	OtherInstancesCreated   Counter = "Other instances created"
	CreationFailures        Counter = "Creation failures"
	UnpairingFailures       Counter = "Unpairing failures"
	DeletionFailures        Counter = "Deletion failures"
)

// PairingCounters is the display order for a pairing sweep.
var PairingCounters = []Counter{
	InstancesRemoved,
	CompanionsCreated,
	PrimariesCreated,
	PairingAttempts,
	PairingSuccesses,
	CreationFailures,
	UnpairingFailures,
	DeletionFailures,
}

// ResetCounters is the display order for a fleet reset.
var ResetCounters = []Counter{
	InstancesDeleted,
	IOSInstancesCreated,
	WatchOSInstancesCreated,
	TVOSInstancesCreated,
	OtherInstancesCreated,
	CreationFailures,
	DeletionFailures,
}

// CleanCounters is the display order for a standalone sweep.
var CleanCounters = []Counter{
	InstancesRemoved,
	DeletionFailures,
}

// Report collects counters for one run. It is safe for concurrent use.
type Report struct {
	mu sync.Mutex

	title    string
	order    []Counter
	counters map[Counter]int
	matrix   *Matrix
	now      func() time.Time
	start    time.Time
	end      time.Time
}

// Option configures a Report.
type Option func(*Report)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Report) {
		r.now = now
	}
}

// New starts a report. Counters are rendered in the order given; counters
// incremented but not listed are appended in first-use order.
func New(title string, order []Counter, opts ...Option) *Report {
	r := &Report{
		title:    title,
		order:    append([]Counter(nil), order...),
		counters: make(map[Counter]int, len(order)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.now()
	return r
}

// Inc adds one to c.
func (r *Report) Inc(c Counter) {
	r.Add(c, 1)
}

// Add adds n to c.
func (r *Report) Add(c Counter, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.counters[c]; !seen && !slices.Contains(r.order, c) {
		r.order = append(r.order, c)
	}
	r.counters[c] += n
}

// Get returns the current value of c.
func (r *Report) Get(c Counter) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[c]
}

// SetMatrix attaches a compatibility matrix to the summary.
func (r *Report) SetMatrix(m Matrix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matrix = &m
}

// Finish stops the clock. Calling it again has no effect.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.end.IsZero() {
		r.end = r.now()
	}
}

// Elapsed returns the run time so far, or the total once finished.
func (r *Report) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.end.IsZero() {
		return r.now().Sub(r.start)
	}
	return r.end.Sub(r.start)
}

// FormatElapsed renders d as whole minutes plus fractional seconds,
// e.g. "2 min 5.25 sec".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := (d % time.Minute).Seconds()
	return fmt.Sprintf("%d min %.2f sec", minutes, seconds)
}

// CounterValue is one rendered counter.
type CounterValue struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// Summary is the serializable form of a Report.
type Summary struct {
	Title          string         `json:"title" yaml:"title"`
	Elapsed        string         `json:"elapsed" yaml:"elapsed"`
	ElapsedSeconds float64        `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Counters       []CounterValue `json:"counters" yaml:"counters"`
	Matrix         *Matrix        `json:"matrix,omitempty" yaml:"matrix,omitempty"`
}

// Summary snapshots the report. Every counter in the display order is
// included, zero or not.
func (r *Report) Summary() Summary {
	elapsed := r.Elapsed()

	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Title:          r.title,
		Elapsed:        FormatElapsed(elapsed),
		ElapsedSeconds: elapsed.Seconds(),
		Counters:       make([]CounterValue, 0, len(r.order)),
		Matrix:         r.matrix,
	}
	for _, c := range r.order {
		s.Counters = append(s.Counters, CounterValue{Name: string(c), Value: r.counters[c]})
	}
	return s
}
