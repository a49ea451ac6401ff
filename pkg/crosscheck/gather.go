package crosscheck

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	gopscpu "github.com/shirou/gopsutil/v4/cpu"

	"github.com/hostwatch/cpuwatch/pkg/procstat"
	"github.com/hostwatch/cpuwatch/pkg/sample"
	"github.com/hostwatch/cpuwatch/pkg/sampler"
)

// Gather measures utilization over one interval from every available source.
// Sources run concurrently so the wall time stays close to the interval
// itself; a failed source is simply omitted.
func Gather(ctx context.Context, reader sampler.SnapshotReader, interval time.Duration) []Source {
	var (
		sources []Source
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	add := func(s Source) {
		mu.Lock()
		sources = append(sources, s)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if v, err := procstatSource(ctx, reader, interval); err == nil {
			add(Source{Name: "procstat", Value: v, Unit: "%"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if v, err := gopsutilSource(interval); err == nil {
			add(Source{Name: "gopsutil", Value: v, Unit: "%"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if v, err := loadSource(); err == nil {
			add(Source{
				Name:  "sysinfo",
				Value: v,
				Unit:  "%",
				Note:  "1-min load normalized to CPU count",
			})
		}
	}()

	wg.Wait()

	// Stable order for rendering and consensus reproducibility.
	orderSources(sources)
	return sources
}

// procstatSource is this repository's own two-snapshot measurement.
func procstatSource(ctx context.Context, reader sampler.SnapshotReader, interval time.Duration) (float64, error) {
	prior, err := reader.Read()
	if err != nil {
		return 0, err
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	current, err := reader.Read()
	if err != nil {
		return 0, err
	}
	return sample.Utilization(prior, current), nil
}

// gopsutilSource asks gopsutil for aggregate CPU usage over the interval.
func gopsutilSource(interval time.Duration) (float64, error) {
	percents, err := gopscpu.Percent(interval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errNoSample
	}
	return percents[0], nil
}

// orderSources sorts by name so output does not depend on goroutine timing.
func orderSources(sources []Source) {
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
}

var errNoSample = errors.New("source produced no sample")

var _ sampler.SnapshotReader = (*procstat.Reader)(nil)
