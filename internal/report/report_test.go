package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/simfleet/internal/styles"
)

// fakeClock returns start on the first call and start+step on each later one.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		t := start.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 min 0.00 sec"},
		{1500 * time.Millisecond, "0 min 1.50 sec"},
		{2*time.Minute + 5250*time.Millisecond, "2 min 5.25 sec"},
		{61 * time.Minute, "61 min 0.00 sec"},
		{-time.Second, "0 min 0.00 sec"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.want {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestReport_Counters(t *testing.T) {
	r := New("Pairing", PairingCounters)
	r.Inc(PairingAttempts)
	r.Inc(PairingAttempts)
	r.Add(InstancesRemoved, 3)
	r.Inc(Counter("Extra"))

	if got := r.Get(PairingAttempts); got != 2 {
		t.Errorf("Get(PairingAttempts) = %d, want 2", got)
	}

	s := r.Summary()
	if len(s.Counters) != len(PairingCounters)+1 {
		t.Fatalf("Counters = %d entries, want %d", len(s.Counters), len(PairingCounters)+1)
	}
	// Fixed order, zeros included, unknown counters last.
	if s.Counters[0] != (CounterValue{Name: string(InstancesRemoved), Value: 3}) {
		t.Errorf("first counter = %+v", s.Counters[0])
	}
	if s.Counters[1].Value != 0 {
		t.Errorf("zero counter missing or wrong: %+v", s.Counters[1])
	}
	if s.Counters[len(s.Counters)-1].Name != "Extra" {
		t.Errorf("last counter = %+v, want Extra", s.Counters[len(s.Counters)-1])
	}
}

func TestReport_Elapsed(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := New("Reset", ResetCounters, WithClock(fakeClock(start, 90*time.Second)))

	r.Finish()
	r.Finish()

	if got := r.Elapsed(); got != 90*time.Second {
		t.Errorf("Elapsed() = %v, want 90s", got)
	}
	if got := r.Summary().Elapsed; got != "1 min 30.00 sec" {
		t.Errorf("Summary().Elapsed = %q", got)
	}
}

func sampleSummary() Summary {
	return Summary{
		Title:          "Pairing compatibility sweep",
		Elapsed:        "0 min 3.00 sec",
		ElapsedSeconds: 3,
		Counters: []CounterValue{
			{Name: string(PairingAttempts), Value: 4},
			{Name: string(CreationFailures), Value: 1},
		},
		Matrix: &Matrix{
			{Primary: "10.0", Companions: []string{"4.0"}},
			{Primary: "9.0", Companions: []string{"3.2", "4.0"}},
		},
	}
}

var sampleMatrixMap = map[string][]string{
	"10.0": {"4.0"},
	"9.0":  {"3.2", "4.0"},
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}

	out := buf.String()
	// Row order survives encoding.
	if strings.Index(out, `"10.0"`) > strings.Index(out, `"9.0"`) {
		t.Errorf("matrix keys out of order:\n%s", out)
	}

	var decoded struct {
		Counters []CounterValue      `json:"counters"`
		Matrix   map[string][]string `json:"matrix"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if diff := cmp.Diff(sampleMatrixMap, decoded.Matrix); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderJSON_OmitsEmptyMatrix(t *testing.T) {
	s := sampleSummary()
	s.Matrix = nil
	var buf bytes.Buffer
	if err := RenderJSON(&buf, s); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "matrix") {
		t.Errorf("nil matrix rendered:\n%s", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderYAML(&buf, sampleSummary()); err != nil {
		t.Fatalf("RenderYAML() error = %v", err)
	}

	out := buf.String()
	if strings.Index(out, `"10.0"`) > strings.Index(out, `"9.0"`) {
		t.Errorf("matrix keys out of order:\n%s", out)
	}

	var decoded struct {
		Title  string              `yaml:"title"`
		Matrix map[string][]string `yaml:"matrix"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded.Title != "Pairing compatibility sweep" {
		t.Errorf("Title = %q", decoded.Title)
	}
	if diff := cmp.Diff(sampleMatrixMap, decoded.Matrix); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleSummary(), styles.NewRenderer(false)); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"PAIRING COMPATIBILITY SWEEP",
		"Elapsed: 0 min 3.00 sec",
		"Pairing attempts:  4",
		"Creation failures: 1",
		"COMPATIBILITY MATRIX",
		"10.0  ->  4.0",
		"9.0   ->  3.2, 4.0",
		"3 combinations across 2 primary versions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderText_EmptyMatrix(t *testing.T) {
	s := sampleSummary()
	s.Matrix = &Matrix{}
	var buf bytes.Buffer
	if err := RenderText(&buf, s, styles.NewRenderer(false)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No successful pairings.") {
		t.Errorf("empty matrix not reported:\n%s", buf.String())
	}
}

func TestRender_Format(t *testing.T) {
	for _, format := range []string{"", "text", "JSON", "yaml"} {
		var buf bytes.Buffer
		if err := Render(&buf, format, sampleSummary(), styles.NewRenderer(false)); err != nil {
			t.Errorf("Render(%q) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%q) wrote nothing", format)
		}
	}
	if err := Render(&bytes.Buffer{}, "xml", sampleSummary(), styles.NewRenderer(false)); err == nil {
		t.Error("Render(xml) error = nil")
	}
}

func TestMatrix_Pairs(t *testing.T) {
	if got := sampleSummary().Matrix.Pairs(); got != 3 {
		t.Errorf("Pairs() = %d, want 3", got)
	}
}
