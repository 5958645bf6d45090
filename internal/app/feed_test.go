package app

import (
	"context"
	"slices"
	"testing"
	"time"

	"gridlearn/internal/core"
	"gridlearn/internal/experiment"
)

func TestFeedKeepsLatestFrameOfWatchedRep(t *testing.T) {
	f := NewFeed(1)
	f.OnFrame(0, experiment.PhaseLearning, core.Snapshot{W: 1, H: 1, Cells: []uint8{0}})
	f.OnFrame(1, experiment.PhaseLearning, core.Snapshot{W: 1, H: 1, Cells: []uint8{1}})
	f.OnPhase(1, experiment.PhaseEvaluating)
	status, snap := f.Latest()
	if status.Frames != 1 || status.Phase != experiment.PhaseEvaluating {
		t.Fatalf("unexpected status %+v", status)
	}
	if !slices.Equal(snap.Cells, []uint8{1}) {
		t.Fatalf("expected rep 1 frame, got %v", snap.Cells)
	}
	f.OnPhase(-1, experiment.PhaseDone)
	if status, _ := f.Latest(); !status.Done || status.Lines()[0] != "rep 1: finished" {
		t.Fatalf("expected finished status, got %+v", status)
	}
}

func TestFeedPauseBlocksUntilStep(t *testing.T) {
	f := NewFeed(0)
	f.SetPaused(true)
	done := make(chan struct{})
	go func() {
		f.OnFrame(0, experiment.PhaseEvaluating, core.Snapshot{W: 1, H: 1, Cells: []uint8{1}})
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("frame passed while paused")
	case <-time.After(20 * time.Millisecond):
	}
	f.Step()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("step did not release the frame")
	}
	if status, _ := f.Latest(); status.Frames != 1 || !status.Paused {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestFeedDrivesExperiment(t *testing.T) {
	cfg := experiment.DefaultConfig()
	cfg.Width, cfg.Height = 5, 5
	cfg.NReps = 1
	cfg.LearnSteps = 4
	cfg.TestSteps = 3
	f := NewFeed(0)
	e, err := experiment.New(cfg, experiment.WithObserver(f))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	status, snap := f.Latest()
	if status.Frames != 7 || !status.Done || snap.W != 5 || len(snap.Cells) != 25 {
		t.Fatalf("unexpected feed state %+v %dx%d", status, snap.W, snap.H)
	}
	if _, _, ok := f.Prediction(); !ok {
		t.Fatalf("expected a prediction test")
	}
}
