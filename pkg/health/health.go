// Package health classifies utilization measurements against thresholds.
package health

// Status represents the health classification of a measurement.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// Thresholds defines warning and critical thresholds for utilization.
type Thresholds struct {
	WarnUtil float64
	CritUtil float64
}

// DefaultThresholds returns the default threshold values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnUtil: 70.0,
		CritUtil: 90.0,
	}
}

// EvaluateUtilization returns the appropriate status for a utilization
// percentage. Failed cycles should be recorded as StatusUnknown instead.
func (t Thresholds) EvaluateUtilization(percent float64) Status {
	if percent >= t.CritUtil {
		return StatusError
	}
	if percent >= t.WarnUtil {
		return StatusWarning
	}
	return StatusOK
}

// Summary counts measurement statuses over a sampling session.
type Summary struct {
	Total    int
	OK       int
	Warnings int
	Errors   int
	Unknown  int
}

// Add records one status in the summary.
func (s *Summary) Add(status Status) {
	s.Total++
	switch status {
	case StatusOK:
		s.OK++
	case StatusWarning:
		s.Warnings++
	case StatusError:
		s.Errors++
	case StatusUnknown:
		s.Unknown++
	}
}

// ExitCode returns the process exit code for a session summary.
func (s Summary) ExitCode() int {
	if s.Unknown > 0 && s.Errors == 0 && s.Warnings == 0 {
		return 3 // measurement unavailable
	}
	if s.Errors > 0 {
		return 2
	}
	if s.Warnings > 0 {
		return 1
	}
	return 0
}
