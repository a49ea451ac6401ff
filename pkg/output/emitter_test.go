package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hostwatch/cpuwatch/pkg/health"
	"github.com/hostwatch/cpuwatch/pkg/sample"
	"github.com/hostwatch/cpuwatch/pkg/sampler"
)

func measurement(percent float64) sampler.Result {
	return sampler.Result{
		Seq: 1,
		Sample: &sample.Sample{
			Percent:  percent,
			Interval: 2 * time.Second,
			TakenAt:  time.Now(),
		},
	}
}

func TestEmitPlain(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(FormatPlain, &buf, health.DefaultThresholds())

	if err := e.Emit(measurement(75.0)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "cpu 75.00%") {
		t.Errorf("plain output = %q, want two-decimal percent", buf.String())
	}
}

func TestEmitPlainUnavailable(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(FormatPlain, &buf, health.DefaultThresholds())

	res := sampler.Result{Seq: 1, Err: errors.New("source gone")}
	if err := e.Emit(res); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "measurement unavailable") || !strings.Contains(out, "source gone") {
		t.Errorf("unavailable output = %q, want explicit indicator with reason", out)
	}
}

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(FormatJSON, &buf, health.DefaultThresholds())

	if err := e.Emit(measurement(95.5)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	var rec struct {
		Seq     int      `json:"seq"`
		Percent *float64 `json:"percent"`
		Status  string   `json:"status"`
		Error   string   `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec.Percent == nil || *rec.Percent != 95.5 {
		t.Errorf("percent = %v, want 95.5", rec.Percent)
	}
	if rec.Status != string(health.StatusError) {
		t.Errorf("status = %q, want %q", rec.Status, health.StatusError)
	}
	if rec.Error != "" {
		t.Errorf("error = %q, want empty", rec.Error)
	}
}

func TestEmitJSONUnavailable(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(FormatJSON, &buf, health.DefaultThresholds())

	if err := e.Emit(sampler.Result{Seq: 3, Err: errors.New("bad line")}); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	var rec struct {
		Seq     int      `json:"seq"`
		Percent *float64 `json:"percent"`
		Status  string   `json:"status"`
		Error   string   `json:"error"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec.Percent != nil {
		t.Errorf("percent = %v, want omitted", *rec.Percent)
	}
	if rec.Status != string(health.StatusUnknown) {
		t.Errorf("status = %q, want unknown", rec.Status)
	}
	if rec.Error != "bad line" {
		t.Errorf("error = %q, want \"bad line\"", rec.Error)
	}
}

func TestEmitTSVHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(FormatTSV, &buf, health.DefaultThresholds())

	e.Emit(measurement(10))
	e.Emit(measurement(20))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "SEQ\t") {
		t.Errorf("first line = %q, want header", lines[0])
	}
	if strings.HasPrefix(lines[1], "SEQ\t") || strings.HasPrefix(lines[2], "SEQ\t") {
		t.Error("header repeated in data rows")
	}
}

func TestStatus(t *testing.T) {
	e := NewEmitter(FormatPlain, &bytes.Buffer{}, health.DefaultThresholds())

	tests := []struct {
		res  sampler.Result
		want health.Status
	}{
		{measurement(10), health.StatusOK},
		{measurement(75), health.StatusWarning},
		{measurement(95), health.StatusError},
		{sampler.Result{Err: errors.New("x")}, health.StatusUnknown},
	}
	for _, tt := range tests {
		if got := e.Status(tt.res); got != tt.want {
			t.Errorf("Status(%+v) = %v, want %v", tt.res, got, tt.want)
		}
	}
}

func TestTrendTrackerWindow(t *testing.T) {
	tr := NewTrendTracker(3)
	for _, v := range []float64{0, 25, 50, 100} {
		tr.Record(v)
	}

	line := tr.Sparkline()
	if got := len([]rune(line)); got != 3 {
		t.Errorf("sparkline length = %d, want window of 3", got)
	}
	runes := []rune(line)
	if runes[len(runes)-1] != '█' {
		t.Errorf("100%% rendered as %q, want full block", runes[len(runes)-1])
	}
}

func TestTrendTrackerFixedScale(t *testing.T) {
	tr := NewTrendTracker(10)
	tr.Record(1)
	tr.Record(2)

	// A nearly-idle trace must stay at the bottom of the fixed [0, 100]
	// scale instead of being stretched across the window's own range.
	for _, r := range tr.Sparkline() {
		if r != '▁' {
			t.Errorf("idle trace rendered %q, want bottom block", r)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatPlain, FormatPretty, FormatJSON, FormatTSV} {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(\"xml\") succeeded, want error")
	}
}
