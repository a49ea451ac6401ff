// Package output renders sampling results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hostwatch/cpuwatch/pkg/health"
	"github.com/hostwatch/cpuwatch/pkg/sampler"
)

// Format represents the output format type.
type Format string

const (
	FormatPlain  Format = "plain"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatTSV    Format = "tsv"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPlain, FormatPretty, FormatJSON, FormatTSV:
		return Format(s), nil
	}
	return FormatPlain, fmt.Errorf("unknown output format %q", s)
}

// Status colors shared with the summary report.
var statusStyles = map[health.Status]lipgloss.Style{
	health.StatusOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	health.StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	health.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	health.StatusUnknown: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),
}

// Emitter writes one record per sampling cycle in the configured format.
type Emitter struct {
	format     Format
	writer     io.Writer
	thresholds health.Thresholds
	trend      *TrendTracker
	wroteHead  bool
}

// NewEmitter creates an emitter.
func NewEmitter(format Format, writer io.Writer, thresholds health.Thresholds) *Emitter {
	return &Emitter{
		format:     format,
		writer:     writer,
		thresholds: thresholds,
	}
}

// SetTrendTracker enables the sparkline trend column in pretty output.
func (e *Emitter) SetTrendTracker(t *TrendTracker) {
	e.trend = t
}

// Status classifies a result against the emitter's thresholds. Failed cycles
// classify as unknown, never as a numeric zero.
func (e *Emitter) Status(res sampler.Result) health.Status {
	if res.Unavailable() {
		return health.StatusUnknown
	}
	return e.thresholds.EvaluateUtilization(res.Sample.Percent)
}

// Emit writes one cycle's record.
func (e *Emitter) Emit(res sampler.Result) error {
	if e.trend != nil && !res.Unavailable() {
		e.trend.Record(res.Sample.Percent)
	}

	switch e.format {
	case FormatJSON:
		return e.emitJSON(res)
	case FormatTSV:
		return e.emitTSV(res)
	case FormatPretty:
		return e.emitPretty(res)
	default:
		return e.emitPlain(res)
	}
}

// emitPlain writes the conventional two-decimal line.
func (e *Emitter) emitPlain(res sampler.Result) error {
	ts := time.Now().Format("15:04:05")
	if res.Unavailable() {
		_, err := fmt.Fprintf(e.writer, "%s cpu measurement unavailable: %v\n", ts, res.Err)
		return err
	}
	_, err := fmt.Fprintf(e.writer, "%s cpu %.2f%%\n", ts, res.Sample.Percent)
	return err
}

// emitPretty writes a status-colored line with an optional trend sparkline.
func (e *Emitter) emitPretty(res sampler.Result) error {
	ts := time.Now().Format("15:04:05")
	status := e.Status(res)
	style := statusStyles[status]

	if res.Unavailable() {
		_, err := fmt.Fprintf(e.writer, "%s  cpu %s  %v\n", ts, style.Render("unavailable"), res.Err)
		return err
	}

	line := fmt.Sprintf("%s  cpu %s  %s", ts,
		style.Render(fmt.Sprintf("%6.2f%%", res.Sample.Percent)),
		style.Render(string(status)))
	if e.trend != nil {
		line += "  " + e.trend.Sparkline()
	}
	_, err := fmt.Fprintln(e.writer, line)
	return err
}

// record is the JSON wire shape for one cycle.
type record struct {
	Seq      int           `json:"seq"`
	Percent  *float64      `json:"percent,omitempty"`
	Interval string        `json:"interval,omitempty"`
	TakenAt  *time.Time    `json:"taken_at,omitempty"`
	Status   health.Status `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// emitJSON writes one JSON object per cycle.
func (e *Emitter) emitJSON(res sampler.Result) error {
	rec := record{
		Seq:    res.Seq,
		Status: e.Status(res),
	}
	if res.Unavailable() {
		rec.Error = res.Err.Error()
	} else {
		rec.Percent = &res.Sample.Percent
		rec.Interval = res.Sample.Interval.String()
		rec.TakenAt = &res.Sample.TakenAt
	}
	return json.NewEncoder(e.writer).Encode(rec)
}

// emitTSV writes tab-separated rows with a one-time header.
func (e *Emitter) emitTSV(res sampler.Result) error {
	if !e.wroteHead {
		if _, err := fmt.Fprintln(e.writer, "SEQ\tPERCENT\tSTATUS\tERROR"); err != nil {
			return err
		}
		e.wroteHead = true
	}
	if res.Unavailable() {
		_, err := fmt.Fprintf(e.writer, "%d\t\t%s\t%s\n", res.Seq, health.StatusUnknown, res.Err)
		return err
	}
	_, err := fmt.Fprintf(e.writer, "%d\t%.2f\t%s\t\n", res.Seq, res.Sample.Percent, e.Status(res))
	return err
}
