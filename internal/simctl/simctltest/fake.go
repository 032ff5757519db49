// Package simctltest provides an in-memory simulator host for tests.
package simctltest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Iron-Ham/simfleet/internal/simctl"
)

// Identifier prefixes used by the real tool.
const (
	DeviceTypePrefix = "com.apple.CoreSimulator.SimDeviceType."
	RuntimePrefix    = "com.apple.CoreSimulator.SimRuntime."
)

var idReplacer = strings.NewReplacer(" - ", "-", " ", "-")

// DeviceTypeID builds a device type identifier from a display name,
// e.g. "Apple Watch Series 5 - 44mm" becomes
// "com.apple.CoreSimulator.SimDeviceType.Apple-Watch-Series-5-44mm".
func DeviceTypeID(name string) string {
	return DeviceTypePrefix + idReplacer.Replace(name)
}

// RuntimeID builds a runtime identifier, e.g. ("watchOS", "6.0") becomes
// "com.apple.CoreSimulator.SimRuntime.watchOS-6-0".
func RuntimeID(family, version string) string {
	return RuntimePrefix + family + "-" + strings.ReplaceAll(version, ".", "-")
}

// Call is one recorded invocation.
type Call struct {
	Args []string
}

// Verb returns the first argument.
func (c Call) Verb() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

type pair struct {
	companion string
	primary   string
}

// Fake is a stateful stand-in for the simulator-control tool. It implements
// both simctl.Invoker and simctl.Runner and is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	deviceTypes []simctl.DeviceType
	runtimes    []simctl.Runtime
	devices     map[string][]simctl.Device
	pairs       map[string]pair
	nextUDID    int
	nextPair    int
	calls       []Call

	// FailCreate, FailPair, FailUnpair and FailDelete make the matching
	// operation exit with status 1 when they return true.
	FailCreate func(name, deviceTypeID, runtimeID string) bool
	FailPair   func(companion, primary simctl.Device) bool
	FailUnpair func(handle string) bool
	FailDelete func(udid string) bool

	// ListOutput replaces the listing document when non-empty.
	ListOutput string
	// ListExitCode makes the listing command fail when non-zero.
	ListExitCode int
	// RunErr makes every invocation fail to start.
	RunErr error
}

// New returns an empty host.
func New() *Fake {
	return &Fake{
		devices: make(map[string][]simctl.Device),
		pairs:   make(map[string]pair),
	}
}

// AddDeviceType registers a device type by display name and returns its
// identifier.
func (f *Fake) AddDeviceType(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := DeviceTypeID(name)
	f.deviceTypes = append(f.deviceTypes, simctl.DeviceType{Identifier: id, Name: name})
	return id
}

// AddRuntime registers a runtime and returns its identifier.
func (f *Fake) AddRuntime(family, version string, available bool) string {
	return f.addRuntime(family, version, simctl.Runtime{IsAvailable: available})
}

// AddLegacyRuntime registers a runtime that reports availability only in the
// legacy text form.
func (f *Fake) AddLegacyRuntime(family, version string, available bool) string {
	text := "(available)"
	if !available {
		text = "(unavailable, runtime profile not found)"
	}
	return f.addRuntime(family, version, simctl.Runtime{Availability: text})
}

func (f *Fake) addRuntime(family, version string, rt simctl.Runtime) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt.Identifier = RuntimeID(family, version)
	rt.Name = family + " " + version
	rt.Version = version
	f.runtimes = append(f.runtimes, rt)
	return rt.Identifier
}

// AddDevice places an existing instance on the host and returns its UDID.
func (f *Fake) AddDevice(name, deviceTypeID, runtimeID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addDevice(name, deviceTypeID, runtimeID)
}

func (f *Fake) addDevice(name, deviceTypeID, runtimeID string) string {
	f.nextUDID++
	udid := fmt.Sprintf("UDID-%04d", f.nextUDID)
	f.devices[runtimeID] = append(f.devices[runtimeID], simctl.Device{
		UDID:                 udid,
		Name:                 name,
		State:                "Shutdown",
		IsAvailable:          true,
		DeviceTypeIdentifier: deviceTypeID,
		RuntimeKey:           runtimeID,
	})
	return udid
}

// Devices returns every instance on the host.
func (f *Fake) Devices() []simctl.Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allDevices()
}

func (f *Fake) allDevices() []simctl.Device {
	keys := make([]string, 0, len(f.devices))
	for k := range f.devices {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []simctl.Device
	for _, k := range keys {
		out = append(out, f.devices[k]...)
	}
	return out
}

// DevicesWithPrefix returns the instances whose name starts with prefix.
func (f *Fake) DevicesWithPrefix(prefix string) []simctl.Device {
	var out []simctl.Device
	for _, d := range f.Devices() {
		if strings.HasPrefix(d.Name, prefix) {
			out = append(out, d)
		}
	}
	return out
}

// PairCount returns the number of live pairs.
func (f *Fake) PairCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs)
}

// Calls returns a copy of every recorded invocation.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsFor returns the recorded invocations with the given verb.
func (f *Fake) CallsFor(verb string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Verb() == verb {
			out = append(out, c)
		}
	}
	return out
}

// Run implements simctl.Runner. The command name is ignored.
func (f *Fake) Run(ctx context.Context, _ string, args ...string) (simctl.Result, error) {
	return f.Invoke(ctx, args...)
}

// Invoke implements simctl.Invoker.
func (f *Fake) Invoke(ctx context.Context, args ...string) (simctl.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Args: slices.Clone(args)})
	res := simctl.Result{Command: "simctl", Args: slices.Clone(args)}

	if f.RunErr != nil {
		res.ExitCode = 127
		return res, f.RunErr
	}
	if err := ctx.Err(); err != nil {
		res.ExitCode = -1
		return res, err
	}
	if len(args) == 0 {
		return fail(res, "usage: simctl <subcommand>"), nil
	}

	switch args[0] {
	case "list":
		return f.list(res), nil
	case "create":
		return f.create(res, args[1:]), nil
	case "delete":
		return f.delete(res, args[1:]), nil
	case "pair":
		return f.pair(res, args[1:]), nil
	case "unpair":
		return f.unpair(res, args[1:]), nil
	default:
		return fail(res, "Unrecognized subcommand: "+args[0]), nil
	}
}

func fail(res simctl.Result, msg string) simctl.Result {
	res.ExitCode = 1
	res.Stderr = msg + "\n"
	return res
}

func ok(res simctl.Result, stdout string) simctl.Result {
	res.ExitCode = 0
	res.Stdout = stdout
	return res
}

func (f *Fake) list(res simctl.Result) simctl.Result {
	if f.ListExitCode != 0 {
		res.ExitCode = f.ListExitCode
		res.Stderr = "listing failed\n"
		return res
	}
	if f.ListOutput != "" {
		return ok(res, f.ListOutput)
	}

	type member struct {
		UDID  string `json:"udid"`
		Name  string `json:"name"`
		State string `json:"state"`
	}
	type pairDoc struct {
		Watch member `json:"watch"`
		Phone member `json:"phone"`
		State string `json:"state"`
	}

	devices := make(map[string][]simctl.Device, len(f.devices))
	for k, v := range f.devices {
		devices[k] = v
	}
	pairs := make(map[string]pairDoc, len(f.pairs))
	for id, p := range f.pairs {
		w, _ := f.find(p.companion)
		ph, _ := f.find(p.primary)
		pairs[id] = pairDoc{
			Watch: member{UDID: w.UDID, Name: w.Name, State: w.State},
			Phone: member{UDID: ph.UDID, Name: ph.Name, State: ph.State},
			State: "(active, disconnected)",
		}
	}

	doc := map[string]any{
		"devicetypes": nonNil(f.deviceTypes),
		"runtimes":    nonNil(f.runtimes),
		"devices":     devices,
		"pairs":       pairs,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fail(res, err.Error())
	}
	return ok(res, string(data)+"\n")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (f *Fake) create(res simctl.Result, args []string) simctl.Result {
	if len(args) != 3 {
		return fail(res, "usage: simctl create <name> <device type id> <runtime id>")
	}
	name, dt, rt := args[0], args[1], args[2]
	if !slices.ContainsFunc(f.deviceTypes, func(d simctl.DeviceType) bool { return d.Identifier == dt }) {
		return fail(res, "Invalid device type: "+dt)
	}
	idx := slices.IndexFunc(f.runtimes, func(r simctl.Runtime) bool { return r.Identifier == rt })
	if idx < 0 {
		return fail(res, "Invalid runtime: "+rt)
	}
	if !f.runtimes[idx].Available() {
		return fail(res, "Runtime is unavailable: "+rt)
	}
	if f.FailCreate != nil && f.FailCreate(name, dt, rt) {
		return fail(res, "Incompatible device")
	}
	return ok(res, f.addDevice(name, dt, rt)+"\n")
}

func (f *Fake) delete(res simctl.Result, args []string) simctl.Result {
	if len(args) != 1 {
		return fail(res, "usage: simctl delete <udid>")
	}
	udid := args[0]
	if _, found := f.find(udid); !found {
		return fail(res, "Invalid device: "+udid)
	}
	if f.FailDelete != nil && f.FailDelete(udid) {
		return fail(res, "Unable to delete device: "+udid)
	}
	for key, devices := range f.devices {
		f.devices[key] = slices.DeleteFunc(devices, func(d simctl.Device) bool { return d.UDID == udid })
		if len(f.devices[key]) == 0 {
			delete(f.devices, key)
		}
	}
	for id, p := range f.pairs {
		if p.companion == udid || p.primary == udid {
			delete(f.pairs, id)
		}
	}
	return ok(res, "")
}

func (f *Fake) pair(res simctl.Result, args []string) simctl.Result {
	if len(args) != 2 {
		return fail(res, "usage: simctl pair <watch udid> <phone udid>")
	}
	w, wok := f.find(args[0])
	p, pok := f.find(args[1])
	if !wok || !pok {
		return fail(res, "Invalid device")
	}
	if f.FailPair != nil && f.FailPair(w, p) {
		return fail(res, "Unable to pair devices: incompatible runtimes")
	}
	f.nextPair++
	id := fmt.Sprintf("PAIR-%04d", f.nextPair)
	f.pairs[id] = pair{companion: w.UDID, primary: p.UDID}
	return ok(res, id+"\n")
}

func (f *Fake) unpair(res simctl.Result, args []string) simctl.Result {
	if len(args) != 1 {
		return fail(res, "usage: simctl unpair <pair id>")
	}
	id := args[0]
	if _, found := f.pairs[id]; !found {
		return fail(res, "Invalid pair: "+id)
	}
	if f.FailUnpair != nil && f.FailUnpair(id) {
		return fail(res, "Unable to unpair: "+id)
	}
	delete(f.pairs, id)
	return ok(res, "")
}

func (f *Fake) find(udid string) (simctl.Device, bool) {
	for _, devices := range f.devices {
		for _, d := range devices {
			if d.UDID == udid {
				return d, true
			}
		}
	}
	return simctl.Device{}, false
}

// Runner is a scripted simctl.Runner keyed by the full command line.
type Runner struct {
	mu      sync.Mutex
	Results map[string]simctl.Result
	Err     error
	calls   [][]string
}

// Run implements simctl.Runner. Unknown commands exit with status 127.
func (r *Runner) Run(_ context.Context, name string, args ...string) (simctl.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := append([]string{name}, args...)
	r.calls = append(r.calls, line)
	if r.Err != nil {
		return simctl.Result{Command: name, Args: args, ExitCode: 127}, r.Err
	}
	if res, found := r.Results[strings.Join(line, " ")]; found {
		res.Command = name
		res.Args = args
		return res, nil
	}
	return simctl.Result{Command: name, Args: args, ExitCode: 127, Stderr: name + ": command not found"}, nil
}

// Calls returns every command line run so far.
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}
