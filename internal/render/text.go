// Package render draws grid snapshots for people: coloured text for terminals
// and RGBA buffers for the GUI viewer. Renderers never modify a snapshot.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"gridlearn/internal/core"
)

// Glyphs used by the text renderer and understood by Parse.
const (
	AliveGlyph  = '#'
	DeadGlyph   = '.'
	MissedGlyph = 'O'
	FalseGlyph  = 'x'
)

// Text renders snapshots as one line of glyphs per row.
type Text struct {
	au aurora.Aurora
}

// NewText returns a text renderer; colors enables ANSI colours.
func NewText(colors bool) *Text {
	return &Text{au: aurora.NewAurora(colors)}
}

// Render writes snap to w.
func (t *Text) Render(w io.Writer, snap core.Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return err
	}
	var b strings.Builder
	for y := 0; y < snap.H; y++ {
		for _, c := range snap.Cells[y*snap.W : (y+1)*snap.W] {
			if c != 0 {
				b.WriteString(t.au.Green(string(AliveGlyph)).String())
			} else {
				b.WriteString(t.au.Faint(string(DeadGlyph)).String())
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// String renders snap to a string, or the error text if snap is malformed.
func (t *Text) String(snap core.Snapshot) string {
	var b strings.Builder
	if err := t.Render(&b, snap); err != nil {
		return err.Error()
	}
	return b.String()
}

// RenderDiff writes the true grid with mispredicted cells highlighted.
func (t *Text) RenderDiff(w io.Writer, truth, predicted core.Snapshot) error {
	mask, err := MissMask(truth, predicted)
	if err != nil {
		return err
	}
	var b strings.Builder
	misses := 0
	for y := 0; y < truth.H; y++ {
		for x := 0; x < truth.W; x++ {
			i := y*truth.W + x
			switch mask[i] {
			case MissedLive:
				misses++
				b.WriteString(t.au.Red(string(MissedGlyph)).String())
			case FalseLive:
				misses++
				b.WriteString(t.au.Yellow(string(FalseGlyph)).String())
			default:
				if truth.Cells[i] != 0 {
					b.WriteString(t.au.Green(string(AliveGlyph)).String())
				} else {
					b.WriteString(t.au.Faint(string(DeadGlyph)).String())
				}
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d of %d cells mispredicted\n", misses, len(mask))
	_, err = io.WriteString(w, b.String())
	return err
}

// Parse reads an uncoloured rendering back into a snapshot. Missed cells
// parse as alive and false-live cells as dead, i.e. the true grid.
func Parse(s string) (core.Snapshot, error) {
	var snap core.Snapshot
	for n, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			continue
		}
		if snap.W == 0 {
			snap.W = len(line)
		} else if len(line) != snap.W {
			return core.Snapshot{}, fmt.Errorf("line %d has %d cells, want %d", n+1, len(line), snap.W)
		}
		for _, r := range line {
			switch r {
			case AliveGlyph, MissedGlyph:
				snap.Cells = append(snap.Cells, 1)
			case DeadGlyph, FalseGlyph:
				snap.Cells = append(snap.Cells, 0)
			default:
				return core.Snapshot{}, fmt.Errorf("line %d: unexpected glyph %q", n+1, r)
			}
		}
		snap.H++
	}
	if snap.H == 0 {
		return core.Snapshot{}, fmt.Errorf("empty rendering")
	}
	return snap, nil
}

func checkSnapshot(snap core.Snapshot) error {
	if snap.W <= 0 || snap.H <= 0 || len(snap.Cells) != snap.W*snap.H {
		return fmt.Errorf("snapshot %dx%d with %d cells: %w", snap.W, snap.H, len(snap.Cells), core.ErrOutOfRange)
	}
	return nil
}
