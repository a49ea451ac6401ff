//go:build linux

package crosscheck

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// loadSource approximates utilization as the 1-minute load average divided by
// the CPU count. Load counts runnable plus uninterruptible tasks, so this is a
// coarse source; it is weighted the same as the others by the validator.
func loadSource() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}

	// Loads is fixed-point, scaled by 1<<16.
	load1 := float64(info.Loads[0]) / 65536.0
	return load1 / float64(runtime.NumCPU()) * 100, nil
}
