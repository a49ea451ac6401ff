package output

import (
	"strings"
	"sync"
)

// TrendTracker keeps a rolling window of utilization values for sparkline
// rendering in watch mode.
type TrendTracker struct {
	mu     sync.Mutex
	values []float64
	maxLen int
}

// NewTrendTracker creates a tracker with a fixed window size.
func NewTrendTracker(maxLen int) *TrendTracker {
	if maxLen < 1 {
		maxLen = 20
	}
	return &TrendTracker{maxLen: maxLen}
}

// Record adds a new utilization value.
func (t *TrendTracker) Record(value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values = append(t.values, value)
	if len(t.values) > t.maxLen {
		t.values = t.values[len(t.values)-t.maxLen:]
	}
}

// Sparkline returns a Unicode sparkline of the recorded window. Values are
// scaled against the fixed [0, 100] utilization range rather than the window's
// own min and max, so a flat idle trace stays flat.
func (t *TrendTracker) Sparkline() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.values) == 0 {
		return ""
	}

	var b strings.Builder
	for _, v := range t.values {
		idx := int(v / 100 * float64(len(sparkBlocks)-1))
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// sparkline block characters from lowest to highest
var sparkBlocks = []rune{
	'▁', // ▁
	'▂', // ▂
	'▃', // ▃
	'▄', // ▄
	'▅', // ▅
	'▆', // ▆
	'▇', // ▇
	'█', // █
}
