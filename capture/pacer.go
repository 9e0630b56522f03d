package capture

import "time"

// Pacer admits frames at a fixed rate regardless of how often it is asked.
// A frame up to a quarter interval early is admitted so that display ticks
// landing a hair before the schedule are not skipped. When the caller falls
// behind by more than one interval the schedule is re-anchored instead of
// bursting to catch up.
type Pacer struct {
	interval time.Duration
	next     time.Time
}

// NewPacer returns a pacer admitting fps frames per second.
func NewPacer(fps int) *Pacer {
	if fps <= 0 {
		fps = FrameRate
	}
	return &Pacer{interval: time.Second / time.Duration(fps)}
}

// Interval returns the time between admitted frames.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Reset makes the next call to Ready at or after start succeed.
func (p *Pacer) Reset(start time.Time) {
	p.next = start
}

// Ready reports whether a frame is due at now.
func (p *Pacer) Ready(now time.Time) bool {
	if now.Add(p.interval / 4).Before(p.next) {
		return false
	}
	p.next = p.next.Add(p.interval)
	if now.Sub(p.next) >= p.interval {
		p.next = now.Add(p.interval)
	}
	return true
}
