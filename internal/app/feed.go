package app

import (
	"fmt"
	"sync"

	"gridlearn/internal/core"
	"gridlearn/internal/experiment"
)

// Status describes what the watched repetition is doing.
type Status struct {
	Rep    int
	Phase  experiment.Phase
	Frames int
	Paused bool
	Done   bool
}

// Lines formats the status for the HUD.
func (s Status) Lines() []string {
	state := s.Phase.String()
	switch {
	case s.Done:
		state = "finished"
	case s.Paused:
		state += " (paused)"
	}
	return []string{
		fmt.Sprintf("rep %d: %s", s.Rep, state),
		fmt.Sprintf("frame %d", s.Frames),
	}
}

// Feed is an experiment observer that keeps the latest frame of one
// repetition for a viewer running on another goroutine. While paused, the
// watched repetition blocks in OnFrame until Step, Resume or Close.
type Feed struct {
	mu   sync.Mutex
	cond *sync.Cond

	status    Status
	frame     core.Snapshot
	truth     core.Snapshot
	predicted core.Snapshot
	hasPred   bool
	stepOnce  bool
	closed    bool
}

// NewFeed watches repetition rep.
func NewFeed(rep int) *Feed {
	f := &Feed{status: Status{Rep: rep}}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// OnPhase records phase changes of the watched repetition.
func (f *Feed) OnPhase(rep int, phase experiment.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case rep == f.status.Rep:
		f.status.Phase = phase
	case rep < 0 && phase == experiment.PhaseDone:
		f.status.Done = true
	}
}

// OnFrame stores snap, waiting first if the viewer paused.
func (f *Feed) OnFrame(rep int, _ experiment.Phase, snap core.Snapshot) {
	if rep != f.status.Rep {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.status.Paused && !f.stepOnce && !f.closed {
		f.cond.Wait()
	}
	f.stepOnce = false
	f.frame = snap
	f.status.Frames++
}

// OnPrediction keeps the latest prediction test.
func (f *Feed) OnPrediction(rep int, truth, predicted core.Snapshot) {
	if rep != f.status.Rep {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.truth, f.predicted, f.hasPred = truth, predicted, true
}

// Latest returns the status and the most recent frame.
func (f *Feed) Latest() (Status, core.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.frame
}

// Prediction returns the latest prediction test, if any.
func (f *Feed) Prediction() (truth, predicted core.Snapshot, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.truth, f.predicted, f.hasPred
}

// SetPaused pauses or resumes the watched repetition.
func (f *Feed) SetPaused(paused bool) {
	f.mu.Lock()
	f.status.Paused = paused
	f.mu.Unlock()
	f.cond.Broadcast()
}

// TogglePause flips the paused state.
func (f *Feed) TogglePause() {
	f.mu.Lock()
	paused := !f.status.Paused
	f.mu.Unlock()
	f.SetPaused(paused)
}

// Step lets one frame through while paused.
func (f *Feed) Step() {
	f.mu.Lock()
	f.stepOnce = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Close releases any waiting repetition and stops pausing.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}
