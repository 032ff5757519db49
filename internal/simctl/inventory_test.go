package simctl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Iron-Ham/simfleet/internal/errors"
)

const sampleListing = `{
  "devicetypes": [
    {"name": "iPhone 11", "identifier": "com.apple.CoreSimulator.SimDeviceType.iPhone-11", "productFamily": "iPhone"},
    {"name": "iPad Pro (11-inch)", "identifier": "com.apple.CoreSimulator.SimDeviceType.iPad-Pro--11-inch-"},
    {"name": "Apple Watch Series 5 - 44mm", "identifier": "com.apple.CoreSimulator.SimDeviceType.Apple-Watch-Series-5-44mm"},
    {"name": "Apple Watch Series 5 - 40mm", "identifier": "com.apple.CoreSimulator.SimDeviceType.Apple-Watch-Series-5-40mm"}
  ],
  "runtimes": [
    {"version": "13.0", "identifier": "com.apple.CoreSimulator.SimRuntime.iOS-13-0", "name": "iOS 13.0", "isAvailable": true},
    {"version": "12.4", "identifier": "com.apple.CoreSimulator.SimRuntime.iOS-12-4", "name": "iOS 12.4", "availability": "(unavailable, runtime profile not found)"},
    {"version": "6.0", "identifier": "com.apple.CoreSimulator.SimRuntime.watchOS-6-0", "name": "watchOS 6.0", "availability": "(available)"},
    {"version": "13.0", "identifier": "com.apple.CoreSimulator.SimRuntime.tvOS-13-0", "name": "tvOS 13.0", "isAvailable": true}
  ],
  "devices": {
    "com.apple.CoreSimulator.SimRuntime.watchOS-6-0": [
      {"state": "Shutdown", "isAvailable": true, "name": "simfleet-test-watch-1", "udid": "W1"}
    ],
    "com.apple.CoreSimulator.SimRuntime.iOS-13-0": [
      {"state": "Booted", "isAvailable": true, "name": "iPhone 11", "udid": "P1"},
      {"state": "Shutdown", "isAvailable": true, "name": "simfleet-test-phone", "udid": "P2"}
    ]
  },
  "pairs": {
    "PAIR-B": {"watch": {"udid": "W1", "name": "simfleet-test-watch-1", "state": "Shutdown"}, "phone": {"udid": "P2", "name": "simfleet-test-phone", "state": "Shutdown"}, "state": "(active, disconnected)"},
    "PAIR-A": {"watch": {"udid": "W9", "name": "w", "state": "Shutdown"}, "phone": {"udid": "P9", "name": "p", "state": "Shutdown"}, "state": "(unpaired)"}
  }
}`

func mustParse(t *testing.T, doc string) *Inventory {
	t.Helper()
	inv, err := ParseInventory([]byte(doc))
	if err != nil {
		t.Fatalf("ParseInventory() error = %v", err)
	}
	return inv
}

func TestParseInventory(t *testing.T) {
	inv := mustParse(t, sampleListing)

	if len(inv.DeviceTypes) != 4 {
		t.Errorf("DeviceTypes = %d, want 4", len(inv.DeviceTypes))
	}
	if len(inv.Runtimes) != 4 {
		t.Errorf("Runtimes = %d, want 4", len(inv.Runtimes))
	}
	if got := inv.DeviceTypes[0].ProductFamily; got != "iPhone" {
		t.Errorf("ProductFamily = %q, want iPhone", got)
	}

	wantPairs := []string{"PAIR-A", "PAIR-B"}
	var gotPairs []string
	for _, p := range inv.Pairs {
		gotPairs = append(gotPairs, p.ID)
	}
	if diff := cmp.Diff(wantPairs, gotPairs); diff != "" {
		t.Errorf("pair ids mismatch (-want +got):\n%s", diff)
	}
	if inv.Pairs[1].Companion.UDID != "W1" || inv.Pairs[1].Primary.UDID != "P2" {
		t.Errorf("PAIR-B members = %+v", inv.Pairs[1])
	}
}

func TestParseInventory_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not json", "== Devices ==\n-- iOS 13.0 --\n"},
		{"truncated", `{"devicetypes": [`},
		{"wrong shape", `{"devicetypes": {}, "runtimes": [], "devices": {}}`},
		{"missing devices", `{"devicetypes": [], "runtimes": []}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInventory([]byte(tt.doc))
			if !errors.Is(err, errors.ErrMalformedInventory) {
				t.Fatalf("ParseInventory() error = %v, want ErrMalformedInventory", err)
			}
			if !errors.IsFatal(err) {
				t.Error("malformed inventory should be fatal")
			}
		})
	}
}

func TestRuntime_Available(t *testing.T) {
	tests := []struct {
		name string
		rt   Runtime
		want bool
	}{
		{"boolean true", Runtime{IsAvailable: true}, true},
		{"legacy available", Runtime{Availability: "(available)"}, true},
		{"legacy unavailable", Runtime{Availability: "(unavailable, runtime profile not found)"}, false},
		{"neither", Runtime{}, false},
		{"both", Runtime{IsAvailable: true, Availability: "(available)"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rt.Available(); got != tt.want {
				t.Errorf("Available() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInventory_Matching(t *testing.T) {
	inv := mustParse(t, sampleListing)
	cats := DefaultCategories()

	names := func(dts []DeviceType) []string {
		var out []string
		for _, dt := range dts {
			out = append(out, dt.Name)
		}
		return out
	}
	rtNames := func(rts []Runtime) []string {
		var out []string
		for _, rt := range rts {
			out = append(out, rt.Name)
		}
		return out
	}

	if diff := cmp.Diff([]string{"iPhone 11"}, names(inv.DeviceTypesMatching(cats.Phone))); diff != "" {
		t.Errorf("phone types (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Apple Watch Series 5 - 44mm"}, names(inv.DeviceTypesMatching(cats.Watch))); diff != "" {
		t.Errorf("watch types (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"iOS 13.0", "iOS 12.4"}, rtNames(inv.RuntimesMatching(cats.IOS))); diff != "" {
		t.Errorf("iOS runtimes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"iOS 13.0"}, rtNames(inv.AvailableRuntimesMatching(cats.IOS))); diff != "" {
		t.Errorf("available iOS runtimes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"iOS 13.0", "watchOS 6.0", "tvOS 13.0"}, rtNames(inv.AvailableRuntimes())); diff != "" {
		t.Errorf("available runtimes (-want +got):\n%s", diff)
	}
}

func TestInventory_AllDevicesOrder(t *testing.T) {
	inv := mustParse(t, sampleListing)

	var got []string
	for _, d := range inv.AllDevices() {
		got = append(got, d.UDID)
	}
	// iOS key sorts before watchOS; listing order is kept within a key.
	if diff := cmp.Diff([]string{"P1", "P2", "W1"}, got); diff != "" {
		t.Errorf("AllDevices() order (-want +got):\n%s", diff)
	}
	if inv.AllDevices()[2].RuntimeKey != "com.apple.CoreSimulator.SimRuntime.watchOS-6-0" {
		t.Errorf("RuntimeKey not recorded: %+v", inv.AllDevices()[2])
	}
}

func TestInventory_Lookups(t *testing.T) {
	inv := mustParse(t, sampleListing)

	want := []Device{{
		UDID:        "P2",
		Name:        "simfleet-test-phone",
		State:       "Shutdown",
		IsAvailable: true,
		RuntimeKey:  "com.apple.CoreSimulator.SimRuntime.iOS-13-0",
	}}
	named := func(name string) func(Device) bool {
		return func(d Device) bool { return d.Name == name }
	}
	if diff := cmp.Diff(want, inv.DevicesWhere(named("simfleet-test-phone"))); diff != "" {
		t.Errorf("DevicesWhere() (-want +got):\n%s", diff)
	}
	if got := inv.DevicesWhere(named("nope")); len(got) != 0 {
		t.Errorf("DevicesWhere(nope) = %v", got)
	}

	rt, ok := inv.Runtime("com.apple.CoreSimulator.SimRuntime.watchOS-6-0")
	if !ok || rt.Version != "6.0" {
		t.Errorf("Runtime() = %+v, %v", rt, ok)
	}
	if _, ok := inv.Runtime("com.apple.CoreSimulator.SimRuntime.iOS-99-0"); ok {
		t.Error("Runtime() found an unknown identifier")
	}
}

type staticInvoker struct {
	res Result
	err error
}

func (s staticInvoker) Invoke(context.Context, ...string) (Result, error) {
	return s.res, s.err
}

func TestSnapshot(t *testing.T) {
	t.Run("parses stdout", func(t *testing.T) {
		inv, err := Snapshot(context.Background(), staticInvoker{res: Result{Stdout: sampleListing}})
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if diff := cmp.Diff(mustParse(t, sampleListing), inv, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Snapshot() (-want +got):\n%s", diff)
		}
	})

	t.Run("non-zero exit is malformed", func(t *testing.T) {
		_, err := Snapshot(context.Background(), staticInvoker{res: Result{ExitCode: 1, Stderr: "CoreSimulatorService connection interrupted"}})
		if !errors.Is(err, errors.ErrMalformedInventory) {
			t.Fatalf("Snapshot() error = %v, want ErrMalformedInventory", err)
		}
	})

	t.Run("start failure is malformed", func(t *testing.T) {
		_, err := Snapshot(context.Background(), staticInvoker{err: errors.New("fork/exec: permission denied")})
		if !errors.Is(err, errors.ErrMalformedInventory) {
			t.Fatalf("Snapshot() error = %v, want ErrMalformedInventory", err)
		}
	})
}
