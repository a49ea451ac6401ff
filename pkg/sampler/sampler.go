// Package sampler runs the timed CPU utilization sampling loop.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hostwatch/cpuwatch/pkg/procstat"
	"github.com/hostwatch/cpuwatch/pkg/sample"
)

// DefaultInterval is the pause between the two snapshots of a cycle.
const DefaultInterval = 2 * time.Second

// SnapshotReader takes one snapshot of the cumulative CPU counters.
type SnapshotReader interface {
	Read() (procstat.Snapshot, error)
}

// Mode selects how the loop pairs snapshots.
type Mode int

const (
	// ModeCarried retains each cycle's trailing snapshot as the next
	// cycle's prior, halving reads and tightening the sampling window to
	// exactly the loop period.
	ModeCarried Mode = iota
	// ModePaired takes two fresh snapshots every cycle.
	ModePaired
)

// ParseMode converts a flag string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "carried":
		return ModeCarried, nil
	case "paired":
		return ModePaired, nil
	}
	return ModeCarried, fmt.Errorf("unknown sampling mode %q", s)
}

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	if m == ModePaired {
		return "paired"
	}
	return "carried"
}

// Result is the outcome of one sampling cycle: either a measurement or a
// failed-cycle indicator, never both.
type Result struct {
	Seq    int
	Sample *sample.Sample
	Err    error
}

// Unavailable reports whether this cycle produced no measurement.
func (r Result) Unavailable() bool {
	return r.Err != nil
}

// Config tunes a Sampler.
type Config struct {
	Interval time.Duration
	Mode     Mode
	Policy   sample.Policy
	Logger   *logrus.Logger
}

// Sampler drives the acquire-wait-acquire-compute-report cycle.
type Sampler struct {
	reader SnapshotReader
	cfg    Config
	log    *logrus.Logger
}

// New creates a sampler over the given snapshot reader.
func New(reader SnapshotReader, cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Sampler{
		reader: reader,
		cfg:    cfg,
		log:    log,
	}
}

// Run executes sampling cycles until ctx is cancelled, invoking emit exactly
// once per cycle. No cycle failure is fatal: read errors and flagged counter
// regressions are emitted as failed cycles and the loop moves on. Run returns
// ctx.Err() once cancelled.
func (s *Sampler) Run(ctx context.Context, emit func(Result)) error {
	var prior *procstat.Snapshot

	for seq := 1; ; seq++ {
		if s.cfg.Mode == ModePaired || prior == nil {
			snap, err := s.reader.Read()
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"seq":   seq,
					"error": err,
				}).Warn("Snapshot read failed")
				if werr := s.wait(ctx); werr != nil {
					return werr
				}
				emit(Result{Seq: seq, Err: err})
				continue
			}
			prior = &snap
		}

		if err := s.wait(ctx); err != nil {
			return err
		}

		current, err := s.reader.Read()
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"seq":   seq,
				"error": err,
			}).Warn("Snapshot read failed")
			// The retained snapshot is stale once a read fails; re-prime.
			prior = nil
			emit(Result{Seq: seq, Err: err})
			continue
		}

		percent, err := s.cfg.Policy.Apply(sample.Utilization(*prior, current))
		if s.cfg.Mode == ModeCarried {
			prior = &current
		} else {
			prior = nil
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"seq":   seq,
				"error": err,
			}).Warn("Measurement rejected")
			emit(Result{Seq: seq, Err: err})
			continue
		}

		s.log.WithFields(logrus.Fields{
			"seq":     seq,
			"percent": percent,
		}).Debug("Utilization sampled")
		emit(Result{Seq: seq, Sample: &sample.Sample{
			Percent:  percent,
			Interval: s.cfg.Interval,
			TakenAt:  time.Now(),
		}})
	}
}

// Once performs a single sampling cycle: two fresh snapshots separated by the
// configured interval. The wait remains interruptible through ctx.
func (s *Sampler) Once(ctx context.Context) Result {
	prior, err := s.reader.Read()
	if err != nil {
		return Result{Seq: 1, Err: err}
	}
	if err := s.wait(ctx); err != nil {
		return Result{Seq: 1, Err: err}
	}
	current, err := s.reader.Read()
	if err != nil {
		return Result{Seq: 1, Err: err}
	}
	percent, err := s.cfg.Policy.Apply(sample.Utilization(prior, current))
	if err != nil {
		return Result{Seq: 1, Err: err}
	}
	return Result{Seq: 1, Sample: &sample.Sample{
		Percent:  percent,
		Interval: s.cfg.Interval,
		TakenAt:  time.Now(),
	}}
}

// wait pauses for the configured interval, returning early with ctx.Err() if
// the context is cancelled. No lock or file handle is held across the pause.
func (s *Sampler) wait(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
