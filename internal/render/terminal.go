package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/logrusorgru/aurora"

	"gridlearn/internal/core"
	"gridlearn/internal/experiment"
)

// Pacer decides whether a frame should be drawn now.
type Pacer interface {
	ShouldStep() bool
}

// Terminal is an experiment observer that prints one repetition's frames
// and prediction tests as text, dropping frames the pacer rejects.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	text   *Text
	au     aurora.Aurora
	pacer  Pacer
	rep    int
	frames int
	err    error
}

// NewTerminal watches repetition rep. A nil pacer draws every frame.
func NewTerminal(out io.Writer, text *Text, pacer Pacer, rep int) *Terminal {
	return &Terminal{out: out, text: text, au: text.au, pacer: pacer, rep: rep}
}

// NewPacedTerminal watches repetition 0 at fps frames per second.
func NewPacedTerminal(out io.Writer, colors bool, fps int) *Terminal {
	return NewTerminal(out, NewText(colors), core.NewFixedStep(fps), 0)
}

func (t *Terminal) due() bool {
	return t.pacer == nil || t.pacer.ShouldStep()
}

func (t *Terminal) write(f func() error) {
	if t.err == nil {
		t.err = f()
	}
}

// OnPhase prints a banner when the watched repetition changes phase.
func (t *Terminal) OnPhase(rep int, phase experiment.Phase) {
	if rep != t.rep && rep >= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(func() error {
		_, err := fmt.Fprintln(t.out, t.au.Bold(fmt.Sprintf("== rep %d: %s ==", t.rep, phase)))
		return err
	})
}

// OnFrame prints the grid if the pacer allows.
func (t *Terminal) OnFrame(rep int, phase experiment.Phase, snap core.Snapshot) {
	if rep != t.rep {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.due() {
		return
	}
	t.frames++
	t.write(func() error {
		if _, err := fmt.Fprintln(t.out, t.au.Faint(fmt.Sprintf("-- %s frame %d --", phase, t.frames))); err != nil {
			return err
		}
		return t.text.Render(t.out, snap)
	})
}

// OnPrediction prints the prediction diff if the pacer allows.
func (t *Terminal) OnPrediction(rep int, truth, predicted core.Snapshot) {
	if rep != t.rep {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.due() {
		return
	}
	t.write(func() error {
		if _, err := fmt.Fprintln(t.out, t.au.Faint("-- prediction --")); err != nil {
			return err
		}
		return t.text.RenderDiff(t.out, truth, predicted)
	})
}

// Frames returns how many frames were drawn.
func (t *Terminal) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Err returns the first write error.
func (t *Terminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
