//go:build !linux

package crosscheck

// loadSource is only implemented on Linux.
func loadSource() (float64, error) {
	return 0, errNoSample
}
