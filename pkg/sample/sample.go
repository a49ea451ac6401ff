// Package sample derives utilization percentages from pairs of CPU snapshots.
package sample

import (
	"errors"
	"fmt"
	"time"

	"github.com/hostwatch/cpuwatch/pkg/procstat"
)

// ErrCounterRegression means the counters moved backwards between the two
// snapshots (typically a counter reset across a container restart) and the
// active regression policy refused the resulting value.
var ErrCounterRegression = errors.New("cpu counters regressed between snapshots")

// Sample is one derived utilization measurement: the percentage of elapsed
// counted time classified as active over the sampling interval.
type Sample struct {
	Percent  float64       `json:"percent"`
	Interval time.Duration `json:"interval"`
	TakenAt  time.Time     `json:"taken_at"`
}

// Utilization computes the utilization percentage between two snapshots.
// It is a pure function: active delta over total delta, times 100. A zero
// total delta means no counter progress and is defined as 0.0 rather than a
// division by zero. Regressed counters produce negative or >100 values; see
// Policy for how callers bound that.
func Utilization(prior, current procstat.Snapshot) float64 {
	totalDelta := float64(current.Total()) - float64(prior.Total())
	if totalDelta == 0 {
		return 0.0
	}
	activeDelta := float64(current.Active()) - float64(prior.Active())
	return (activeDelta / totalDelta) * 100.0
}

// Policy decides what happens to a utilization value that falls outside
// [0, 100] after a counter regression.
type Policy int

const (
	// PassThrough reports the raw value unchanged.
	PassThrough Policy = iota
	// Clamp bounds the value into [0, 100].
	Clamp
	// Flag rejects the value as an ErrCounterRegression failed cycle.
	Flag
)

// ParsePolicy converts a flag string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "passthrough":
		return PassThrough, nil
	case "clamp":
		return Clamp, nil
	case "flag":
		return Flag, nil
	}
	return PassThrough, fmt.Errorf("unknown regression policy %q", s)
}

// String returns the flag spelling of the policy.
func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Flag:
		return "flag"
	default:
		return "passthrough"
	}
}

// Apply applies the policy to a raw utilization value.
func (p Policy) Apply(percent float64) (float64, error) {
	switch p {
	case Clamp:
		if percent < 0 {
			return 0, nil
		}
		if percent > 100 {
			return 100, nil
		}
		return percent, nil
	case Flag:
		if percent < 0 || percent > 100 {
			return 0, fmt.Errorf("%w: %.2f%% outside [0, 100]", ErrCounterRegression, percent)
		}
		return percent, nil
	default:
		return percent, nil
	}
}
