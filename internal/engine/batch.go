package engine

import (
	"math"
	"time"
)

// Batch is the synthetic batch whose progress the monitor displays.
type Batch struct {
	ID        string
	Progress  float64 // percent, 0..100
	StartedAt time.Time
}

// Done reports whether the batch has reached 100%.
func (b Batch) Done() bool {
	return b.Progress >= MaxProgress
}

// EstimatedCompletion extrapolates linearly from the elapsed time:
// start + (100/progress) × elapsed. It reports false when progress is not
// a positive finite number, since the estimate is then unknown.
func (b Batch) EstimatedCompletion(now time.Time) (time.Time, bool) {
	if b.Progress <= 0 || math.IsNaN(b.Progress) || math.IsInf(b.Progress, 0) {
		return time.Time{}, false
	}
	elapsed := now.Sub(b.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	scaled := float64(elapsed) * (MaxProgress / b.Progress)
	if scaled > math.MaxInt64 {
		return time.Time{}, false
	}
	return b.StartedAt.Add(time.Duration(scaled)), true
}
