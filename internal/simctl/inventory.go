package simctl

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/Iron-Ham/simfleet/internal/errors"
)

// DeviceType is a hardware model the tool can instantiate.
type DeviceType struct {
	Identifier    string `json:"identifier" yaml:"identifier"`
	Name          string `json:"name" yaml:"name"`
	ProductFamily string `json:"productFamily,omitempty" yaml:"product_family,omitempty"`
}

// Runtime is an OS image instances can boot.
type Runtime struct {
	Identifier   string `json:"identifier" yaml:"identifier"`
	Name         string `json:"name" yaml:"name"`
	Version      string `json:"version" yaml:"version"`
	BuildVersion string `json:"buildversion,omitempty" yaml:"build_version,omitempty"`
	// IsAvailable is the boolean form newer tools emit.
	IsAvailable bool `json:"isAvailable" yaml:"is_available"`
	// Availability is the legacy text form, e.g. "(available)" or
	// "(unavailable, runtime profile not found)".
	Availability string `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// Available reports whether instances can be created on this runtime.
// Either the boolean flag or the legacy text marks it available.
func (r Runtime) Available() bool {
	return r.IsAvailable || strings.Contains(r.Availability, "(available)")
}

// Device is a concrete simulator instance.
type Device struct {
	UDID                 string `json:"udid" yaml:"udid"`
	Name                 string `json:"name" yaml:"name"`
	State                string `json:"state" yaml:"state"`
	IsAvailable          bool   `json:"isAvailable" yaml:"is_available"`
	Availability         string `json:"availability,omitempty" yaml:"availability,omitempty"`
	DeviceTypeIdentifier string `json:"deviceTypeIdentifier,omitempty" yaml:"device_type,omitempty"`

	// RuntimeKey is the listing group the device was found under.
	RuntimeKey string `json:"-" yaml:"runtime"`
}

// Pair is an existing companion/primary pairing reported by the tool.
type Pair struct {
	ID        string     `json:"-" yaml:"id"`
	Companion PairMember `json:"watch" yaml:"companion"`
	Primary   PairMember `json:"phone" yaml:"primary"`
	State     string     `json:"state" yaml:"state"`
}

// PairMember identifies one side of a Pair.
type PairMember struct {
	UDID  string `json:"udid" yaml:"udid"`
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

// Inventory is a point-in-time view of the host. It is never refreshed;
// take a new Snapshot after mutating the fleet.
type Inventory struct {
	DeviceTypes []DeviceType
	Runtimes    []Runtime
	// Devices maps a runtime key to the instances under it, in listing order.
	Devices map[string][]Device
	Pairs   []Pair
}

// listing mirrors the tool's JSON document.
type listing struct {
	DeviceTypes *[]DeviceType        `json:"devicetypes"`
	Runtimes    *[]Runtime           `json:"runtimes"`
	Devices     *map[string][]Device `json:"devices"`
	Pairs       map[string]Pair      `json:"pairs"`
}

// ListArgs are the tool arguments that print the inventory document.
var ListArgs = []string{"list", "--json"}

// Snapshot asks the tool for its inventory and parses it. A listing cut
// short by ctx yields a CanceledError, not an inventory error.
func Snapshot(ctx context.Context, inv Invoker) (*Inventory, error) {
	res, err := inv.Invoke(ctx, ListArgs...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewCanceledError("inventory listing", ctxErr)
		}
		return nil, errors.NewInventoryError("listing command did not run", err)
	}
	if !res.OK() {
		return nil, errors.NewInventoryError("listing command failed",
			errors.NewToolError("list", nil).WithExitCode(res.ExitCode).WithOutput(res.Diagnostic()))
	}
	return ParseInventory([]byte(res.Stdout))
}

// ParseInventory decodes a listing document. The three catalogs must all be
// present; pairs are optional.
func ParseInventory(data []byte) (*Inventory, error) {
	var doc listing
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInventoryError("listing is not valid JSON", err)
	}

	var missing []string
	if doc.DeviceTypes == nil {
		missing = append(missing, "devicetypes")
	}
	if doc.Runtimes == nil {
		missing = append(missing, "runtimes")
	}
	if doc.Devices == nil {
		missing = append(missing, "devices")
	}
	if len(missing) > 0 {
		return nil, errors.NewInventoryError("listing is missing sections",
			errors.New("missing: "+strings.Join(missing, ", ")))
	}

	inv := &Inventory{
		DeviceTypes: *doc.DeviceTypes,
		Runtimes:    *doc.Runtimes,
		Devices:     make(map[string][]Device, len(*doc.Devices)),
	}
	for key, devices := range *doc.Devices {
		tagged := make([]Device, len(devices))
		for i, d := range devices {
			d.RuntimeKey = key
			tagged[i] = d
		}
		inv.Devices[key] = tagged
	}

	ids := make([]string, 0, len(doc.Pairs))
	for id := range doc.Pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := doc.Pairs[id]
		p.ID = id
		inv.Pairs = append(inv.Pairs, p)
	}

	return inv, nil
}

// DeviceTypesMatching returns the device types whose identifier matches p,
// in listing order.
func (inv *Inventory) DeviceTypesMatching(p Pattern) []DeviceType {
	var out []DeviceType
	for _, dt := range inv.DeviceTypes {
		if p.Match(dt.Identifier) {
			out = append(out, dt)
		}
	}
	return out
}

// RuntimesMatching returns the runtimes whose identifier matches p, in
// listing order, regardless of availability.
func (inv *Inventory) RuntimesMatching(p Pattern) []Runtime {
	var out []Runtime
	for _, rt := range inv.Runtimes {
		if p.Match(rt.Identifier) {
			out = append(out, rt)
		}
	}
	return out
}

// AvailableRuntimesMatching is RuntimesMatching restricted to available
// runtimes.
func (inv *Inventory) AvailableRuntimesMatching(p Pattern) []Runtime {
	var out []Runtime
	for _, rt := range inv.RuntimesMatching(p) {
		if rt.Available() {
			out = append(out, rt)
		}
	}
	return out
}

// AvailableRuntimes returns every available runtime in listing order.
func (inv *Inventory) AvailableRuntimes() []Runtime {
	var out []Runtime
	for _, rt := range inv.Runtimes {
		if rt.Available() {
			out = append(out, rt)
		}
	}
	return out
}

// RuntimeKeys returns the device group keys in ascending order.
func (inv *Inventory) RuntimeKeys() []string {
	keys := make([]string, 0, len(inv.Devices))
	for k := range inv.Devices {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AllDevices returns every instance ordered by runtime key, then listing
// order within a key.
func (inv *Inventory) AllDevices() []Device {
	var out []Device
	for _, key := range inv.RuntimeKeys() {
		out = append(out, inv.Devices[key]...)
	}
	return out
}

// DevicesWhere returns every instance for which keep returns true, in
// AllDevices order.
func (inv *Inventory) DevicesWhere(keep func(Device) bool) []Device {
	var out []Device
	for _, d := range inv.AllDevices() {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Runtime looks up a runtime by identifier.
func (inv *Inventory) Runtime(identifier string) (Runtime, bool) {
	for _, rt := range inv.Runtimes {
		if rt.Identifier == identifier {
			return rt, true
		}
	}
	return Runtime{}, false
}

