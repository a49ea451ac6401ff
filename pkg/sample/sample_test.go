package sample

import (
	"errors"
	"math"
	"testing"

	"github.com/hostwatch/cpuwatch/pkg/procstat"
)

func TestUtilization(t *testing.T) {
	// total 1000, idle time 850, active 150
	prior := procstat.Snapshot{User: 100, System: 50, Idle: 800, IOWait: 50}
	// +50 user, +25 system, +25 idle: total delta 100, active delta 75
	current := procstat.Snapshot{User: 150, System: 75, Idle: 825, IOWait: 50}

	if got := Utilization(prior, current); got != 75.0 {
		t.Errorf("Utilization() = %v, want 75.0", got)
	}
}

func TestUtilizationNoCounterProgress(t *testing.T) {
	snap := procstat.Snapshot{User: 100, Nice: 1, System: 50, Idle: 800, IOWait: 50, IRQ: 2, SoftIRQ: 3, Steal: 4}
	if got := Utilization(snap, snap); got != 0.0 {
		t.Errorf("Utilization() = %v, want exactly 0.0", got)
	}
}

func TestUtilizationAllActive(t *testing.T) {
	prior := procstat.Snapshot{User: 100, Idle: 900}
	current := procstat.Snapshot{User: 200, Idle: 900}
	if got := Utilization(prior, current); got != 100.0 {
		t.Errorf("Utilization() = %v, want exactly 100.0", got)
	}
}

func TestUtilizationLinearity(t *testing.T) {
	prior := procstat.Snapshot{User: 100, Idle: 900}
	// Fixed total delta of 100; active deltas 10 and 20.
	single := procstat.Snapshot{User: 110, Idle: 990}
	double := procstat.Snapshot{User: 120, Idle: 980}

	a := Utilization(prior, single)
	b := Utilization(prior, double)
	if math.Abs(b-2*a) > 1e-9 {
		t.Errorf("doubling active delta: got %v and %v, want exact 2x", a, b)
	}
}

func TestUtilizationIdempotent(t *testing.T) {
	prior := procstat.Snapshot{User: 137, Nice: 3, System: 41, Idle: 777, IOWait: 42}
	current := procstat.Snapshot{User: 170, Nice: 3, System: 55, Idle: 801, IOWait: 47}

	first := Utilization(prior, current)
	second := Utilization(prior, current)
	if first != second {
		t.Errorf("Utilization() not idempotent: %v then %v", first, second)
	}
}

func TestUtilizationCounterRegression(t *testing.T) {
	// Counters reset between snapshots, e.g. a container restart. The raw
	// formula passes the nonsensical value through.
	prior := procstat.Snapshot{User: 1000, Idle: 1000}
	current := procstat.Snapshot{User: 10, Idle: 2000}

	got := Utilization(prior, current)
	if got >= 0 {
		t.Errorf("Utilization() = %v, want negative for regressed counters", got)
	}
}

func TestPolicyApply(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		in      float64
		want    float64
		wantErr bool
	}{
		{"passthrough in range", PassThrough, 42.5, 42.5, false},
		{"passthrough negative", PassThrough, -12.0, -12.0, false},
		{"passthrough above range", PassThrough, 180.0, 180.0, false},
		{"clamp negative", Clamp, -12.0, 0.0, false},
		{"clamp above range", Clamp, 180.0, 100.0, false},
		{"clamp in range", Clamp, 42.5, 42.5, false},
		{"flag in range", Flag, 99.9, 99.9, false},
		{"flag boundary", Flag, 100.0, 100.0, false},
		{"flag negative", Flag, -0.1, 0, true},
		{"flag above range", Flag, 100.1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.policy.Apply(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrCounterRegression) {
					t.Fatalf("Apply(%v) error = %v, want ErrCounterRegression", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply(%v) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{PassThrough, Clamp, Flag} {
		got, err := ParsePolicy(p.String())
		if err != nil {
			t.Fatalf("ParsePolicy(%q) failed: %v", p.String(), err)
		}
		if got != p {
			t.Errorf("ParsePolicy(%q) = %v, want %v", p.String(), got, p)
		}
	}

	if _, err := ParsePolicy("truncate"); err == nil {
		t.Error("ParsePolicy(\"truncate\") succeeded, want error")
	}
}
