package events

import "time"

// clockEpoch anchors NowNs. time.Since reads the runtime monotonic
// clock, so stamps never go backwards across wall-clock adjustments.
var clockEpoch = time.Now()

// NowNs returns monotonic nanoseconds since process start.
func NowNs() uint64 {
	return uint64(time.Since(clockEpoch).Nanoseconds())
}
