// Package procstat reads cumulative CPU time counters from the kernel's
// statistics interface (/proc/stat on Linux).
package procstat

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPath is the kernel statistics interface on Linux hosts.
const DefaultPath = "/proc/stat"

// DefaultTimeout bounds a single read of the statistics source.
const DefaultTimeout = 1 * time.Second

var (
	// ErrSourceUnavailable means the statistics source could not be opened
	// or read this cycle.
	ErrSourceUnavailable = errors.New("cpu statistics source unavailable")

	// ErrMalformedSnapshot means the source was readable but its first line
	// did not match the aggregate-cpu contract.
	ErrMalformedSnapshot = errors.New("malformed cpu statistics line")
)

// Snapshot is one point-in-time reading of the cumulative CPU time counters,
// in canonical kernel order. Values are in jiffies; the unit cancels out when
// deltas are turned into ratios.
type Snapshot struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Total returns the sum of all counter categories.
func (s Snapshot) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ + s.Steal
}

// IdleTime returns time spent idle or waiting on I/O.
func (s Snapshot) IdleTime() uint64 {
	return s.Idle + s.IOWait
}

// Active returns time spent doing work (total minus idle and iowait).
func (s Snapshot) Active() uint64 {
	return s.Total() - s.IdleTime()
}

// Reader takes snapshots from a statistics source. The zero value reads
// DefaultPath with DefaultTimeout.
type Reader struct {
	// Path overrides the statistics source, e.g. for tests or a mounted
	// host /proc inside a container.
	Path string

	// Timeout bounds the read so a hung pseudo-file cannot stall the
	// caller. Zero or negative disables the bound.
	Timeout time.Duration
}

// NewReader creates a reader for the default source.
func NewReader() *Reader {
	return &Reader{
		Path:    DefaultPath,
		Timeout: DefaultTimeout,
	}
}

// Read takes one snapshot. On any failure it returns an error wrapping
// ErrSourceUnavailable or ErrMalformedSnapshot, never a partially populated
// Snapshot.
func (r *Reader) Read() (Snapshot, error) {
	data, err := r.readSource()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return parseAggregateLine(data)
}

// readSource reads the statistics file, bounded by the configured timeout.
func (r *Reader) readSource() ([]byte, error) {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}

	if r.Timeout <= 0 {
		return os.ReadFile(path)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- result{data, err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-time.After(r.Timeout):
		return nil, fmt.Errorf("read of %s timed out after %v", path, r.Timeout)
	}
}

// parseAggregateLine parses the first line of the statistics source. The line
// must carry the aggregate "cpu" marker (not a per-core "cpuN" marker)
// followed by at least 8 non-negative integers. Kernels may append trailing
// categories (guest time); only the first 8 are consumed.
func parseAggregateLine(data []byte) (Snapshot, error) {
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "cpu" {
		return Snapshot{}, fmt.Errorf("%w: missing aggregate cpu marker", ErrMalformedSnapshot)
	}
	if len(fields) < 9 {
		return Snapshot{}, fmt.Errorf("%w: expected at least 8 counters, got %d", ErrMalformedSnapshot, len(fields)-1)
	}

	var counters [8]uint64
	for i := range counters {
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: counter %d %q: %v", ErrMalformedSnapshot, i, fields[i+1], err)
		}
		counters[i] = v
	}

	return Snapshot{
		User:    counters[0],
		Nice:    counters[1],
		System:  counters[2],
		Idle:    counters[3],
		IOWait:  counters[4],
		IRQ:     counters[5],
		SoftIRQ: counters[6],
		Steal:   counters[7],
	}, nil
}
