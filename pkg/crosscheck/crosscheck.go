// Package crosscheck validates the sampler's utilization figure against
// independent sources of the same measurement.
package crosscheck

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Verdict indicates the confidence level of a cross-checked measurement.
type Verdict string

const (
	VerdictValid    Verdict = "valid"
	VerdictSuspect  Verdict = "suspect"
	VerdictConflict Verdict = "conflict"
)

// Source is one utilization reading from a specific origin.
type Source struct {
	Name  string
	Value float64
	Unit  string
	Note  string
}

// Result holds the cross-check outcome.
type Result struct {
	Sources      []Source
	Consensus    float64
	MaxDeviation float64
	Verdict      Verdict
	Sanity       []string
}

// Validator cross-checks utilization from multiple sources.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect
	ConflictThreshold float64 // deviation % to mark conflict
}

// NewValidator creates a validator with default thresholds.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  5.0,
		ConflictThreshold: 20.0,
	}
}

// Validate compares the sources, computing a median consensus and the maximum
// deviation from it.
func (v *Validator) Validate(sources []Source) Result {
	result := Result{
		Sources: sources,
		Verdict: VerdictValid,
	}

	for _, s := range sources {
		if s.Value < 0 || s.Value > 100 {
			result.Sanity = append(result.Sanity,
				fmt.Sprintf("%s reported %.2f%%, outside [0, 100]", s.Name, s.Value))
		}
	}

	if len(sources) == 0 {
		return result
	}
	if len(sources) == 1 {
		result.Consensus = sources[0].Value
		return result
	}

	values := make([]float64, len(sources))
	for i, s := range sources {
		values[i] = s.Value
	}
	sort.Float64s(values)

	if len(values)%2 == 0 {
		result.Consensus = (values[len(values)/2-1] + values[len(values)/2]) / 2
	} else {
		result.Consensus = values[len(values)/2]
	}

	for _, val := range values {
		if result.Consensus == 0 {
			if val != 0 {
				result.MaxDeviation = 100.0
			}
			continue
		}
		dev := math.Abs(val-result.Consensus) / result.Consensus * 100
		if dev > result.MaxDeviation {
			result.MaxDeviation = dev
		}
	}

	if result.MaxDeviation >= v.ConflictThreshold {
		result.Verdict = VerdictConflict
	} else if result.MaxDeviation >= v.SuspectThreshold {
		result.Verdict = VerdictSuspect
	}

	return result
}

var (
	ccTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	ccDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	verdictStyles = map[Verdict]lipgloss.Style{
		VerdictValid:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		VerdictSuspect:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		VerdictConflict: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

// Render prints a styled cross-check report.
func Render(w io.Writer, r Result) {
	fmt.Fprintln(w, ccTitle.Render("CPU Utilization Cross-Check"))
	fmt.Fprintln(w, ccDim.Render(strings.Repeat("═", 44)))

	for _, s := range r.Sources {
		line := fmt.Sprintf("  %-14s %7.2f %s", s.Name, s.Value, s.Unit)
		if s.Note != "" {
			line += "  " + ccDim.Render(s.Note)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "  consensus: %.2f%%  max deviation: %.1f%%  verdict: %s\n",
		r.Consensus, r.MaxDeviation, verdictStyles[r.Verdict].Render(string(r.Verdict)))

	for _, s := range r.Sanity {
		fmt.Fprintln(w, verdictStyles[VerdictConflict].Render("  sanity: "+s))
	}
}
