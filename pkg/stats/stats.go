// Package stats aggregates a sampling session into an end-of-run report.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hostwatch/cpuwatch/pkg/sampler"
)

// Session accumulates per-cycle results for summary statistics. It keeps the
// measured values in memory for the lifetime of one run only.
type Session struct {
	values []float64
	failed int
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Observe records one cycle's result.
func (s *Session) Observe(res sampler.Result) {
	if res.Unavailable() {
		s.failed++
		return
	}
	s.values = append(s.values, res.Sample.Percent)
}

// Cycles returns the number of observed cycles, failed ones included.
func (s *Session) Cycles() int {
	return len(s.values) + s.failed
}

// Report holds summary statistics for a session.
type Report struct {
	Cycles int
	Failed int
	Min    float64
	Mean   float64
	Max    float64
	StdDev float64
	P50    float64
	P95    float64
	P99    float64
}

// Summarize computes the session report.
func (s *Session) Summarize() Report {
	r := Report{
		Cycles: s.Cycles(),
		Failed: s.failed,
	}
	if len(s.values) == 0 {
		return r
	}

	sorted := make([]float64, len(s.values))
	copy(sorted, s.values)
	sort.Float64s(sorted)

	r.Min = sorted[0]
	r.Max = sorted[len(sorted)-1]

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	r.Mean = sum / float64(len(sorted))

	var sq float64
	for _, v := range sorted {
		d := v - r.Mean
		sq += d * d
	}
	r.StdDev = math.Sqrt(sq / float64(len(sorted)))

	r.P50 = percentile(sorted, 50)
	r.P95 = percentile(sorted, 95)
	r.P99 = percentile(sorted, 99)
	return r
}

// percentile returns the pth percentile of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

var (
	reportTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	reportDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render prints a styled session summary.
func Render(w io.Writer, r Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, reportTitle.Render("Sampling Session Summary"))
	fmt.Fprintln(w, reportDim.Render(strings.Repeat("═", 40)))

	fmt.Fprintf(w, "  cycles: %d", r.Cycles)
	if r.Failed > 0 {
		fmt.Fprintf(w, "  (%d unavailable)", r.Failed)
	}
	fmt.Fprintln(w)

	if r.Cycles == r.Failed {
		fmt.Fprintln(w, reportDim.Render("  no measurements"))
		return
	}

	fmt.Fprintf(w, "  min/mean/max: %.2f%% / %.2f%% / %.2f%%\n", r.Min, r.Mean, r.Max)
	fmt.Fprintf(w, "  p50/p95/p99:  %.2f%% / %.2f%% / %.2f%%\n", r.P50, r.P95, r.P99)
	fmt.Fprintf(w, "  stddev:       %.2f\n", r.StdDev)
}
