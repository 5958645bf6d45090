package core

import "time"

// FixedStep paces periodic work (frame drawing) at a steady rate without
// blocking: callers poll ShouldStep and skip the work when it reports false.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	now         func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given rate.
func NewFixedStep(tps int) *FixedStep {
	return newFixedStepWithClock(tps, time.Now)
}

func newFixedStepWithClock(tps int, now func() time.Time) *FixedStep {
	fs := &FixedStep{now: now}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the rate. Non-positive values fall back to 60.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// ShouldStep reports whether enough time has elapsed for another tick.
// Backlog is capped at two ticks so a stalled caller does not burst.
func (f *FixedStep) ShouldStep() bool {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	if f.accumulator > 2*f.step {
		f.accumulator = 2 * f.step
	}
	if f.accumulator >= f.step {
		f.accumulator -= f.step
		return true
	}
	return false
}
