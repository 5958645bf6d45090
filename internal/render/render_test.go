package render

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"slices"
	"strings"
	"testing"

	"gridlearn/internal/core"
	"gridlearn/internal/experiment"
	"gridlearn/internal/gridgame"
	"gridlearn/internal/rules"
)

func TestTextRoundTripIsReadOnly(t *testing.T) {
	game := gridgame.New(gridgame.DefaultConfig(), rules.MustParse("life", "B3/S23"), 1)
	game.Reset(7)
	snap := game.Snapshot()
	before := slices.Clone(snap.Cells)

	out := NewText(false).String(snap)
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.W != snap.W || parsed.H != snap.H || !slices.Equal(parsed.Cells, snap.Cells) {
		t.Fatalf("round trip changed the grid")
	}
	if !slices.Equal(snap.Cells, before) || !slices.Equal(game.Snapshot().Cells, before) {
		t.Fatalf("rendering mutated the snapshot")
	}
}

func TestTextLayout(t *testing.T) {
	snap := core.Snapshot{W: 3, H: 2, Cells: []uint8{1, 0, 0, 0, 1, 1}}
	if got := NewText(false).String(snap); got != "#..\n.##\n" {
		t.Fatalf("unexpected rendering %q", got)
	}
	if colored := NewText(true).String(snap); !strings.Contains(colored, "\x1b[") {
		t.Fatalf("expected ANSI colours in %q", colored)
	}
}

func TestRenderRejectsMalformedSnapshot(t *testing.T) {
	err := NewText(false).Render(&bytes.Buffer{}, core.Snapshot{W: 2, H: 2, Cells: []uint8{1}})
	if !errors.Is(err, core.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := Parse("#.\n#\n"); err == nil {
		t.Fatalf("expected ragged rows to fail")
	}
	if _, err := Parse("#?\n"); err == nil {
		t.Fatalf("expected unknown glyph to fail")
	}
}

func TestDiffHighlightsMisses(t *testing.T) {
	truth := core.Snapshot{W: 2, H: 2, Cells: []uint8{1, 0, 1, 0}}
	pred := core.Snapshot{W: 2, H: 2, Cells: []uint8{0, 1, 1, 0}}
	mask, err := MissMask(truth, pred)
	if err != nil {
		t.Fatalf("mask: %v", err)
	}
	if !slices.Equal(mask, []uint8{MissedLive, FalseLive, Match, Match}) {
		t.Fatalf("unexpected mask %v", mask)
	}
	var buf bytes.Buffer
	if err := NewText(false).RenderDiff(&buf, truth, pred); err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Ox\n#.\n2 of 4 cells mispredicted") {
		t.Fatalf("unexpected diff %q", buf.String())
	}
	grid, err := Parse("Ox\n#.\n")
	if err != nil || !slices.Equal(grid.Cells, truth.Cells) {
		t.Fatalf("diff should parse back to the truth, got %v %v", grid.Cells, err)
	}
	if _, err := MissMask(truth, core.Snapshot{W: 1, H: 1, Cells: []uint8{0}}); !errors.Is(err, core.ErrOutOfRange) {
		t.Fatalf("size mismatch: %v", err)
	}
}

func TestFillRGBA(t *testing.T) {
	buf := make([]byte, 8)
	FillBinaryRGBA(buf, []uint8{1, 0}, color.White, color.Black)
	if !slices.Equal(buf, []byte{255, 255, 255, 255, 0, 0, 0, 255}) {
		t.Fatalf("binary fill %v", buf)
	}
	palette := []color.RGBA{{A: 0}, {R: 255, A: 200}}
	FillPaletteRGBA(buf, []uint8{0, 5}, palette)
	if !slices.Equal(buf, []byte{0, 0, 0, 0, 255, 0, 0, 200}) {
		t.Fatalf("palette fill %v", buf)
	}
	FillPaletteRGBA(buf, []uint8{1, 1}, nil)
	if !slices.Equal(buf, make([]byte, 8)) {
		t.Fatalf("empty palette should clear, got %v", buf)
	}
}

type gate bool

func (g gate) ShouldStep() bool { return bool(g) }

func TestTerminalWatchesOneRepetition(t *testing.T) {
	cfg := experiment.DefaultConfig()
	cfg.Width, cfg.Height = 4, 4
	cfg.NReps = 2
	cfg.LearnSteps = 10
	cfg.TestSteps = 5
	cfg.Workers = 2

	var buf bytes.Buffer
	term := NewTerminal(&buf, NewText(false), nil, 1)
	e, err := experiment.New(cfg, experiment.WithObserver(term))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if term.Err() != nil {
		t.Fatalf("write error: %v", term.Err())
	}
	if term.Frames() != 15 {
		t.Fatalf("expected 15 frames of rep 1, got %d", term.Frames())
	}
	out := buf.String()
	if !strings.Contains(out, "== rep 1: learning ==") || !strings.Contains(out, "cells mispredicted") {
		t.Fatalf("missing banners or prediction output:\n%s", out)
	}
}

func TestTerminalDropsFramesWhenPaced(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, NewText(false), gate(false), 0)
	snap := core.Snapshot{W: 1, H: 1, Cells: []uint8{1}}
	for i := 0; i < 10; i++ {
		term.OnFrame(0, experiment.PhaseEvaluating, snap)
	}
	if term.Frames() != 0 || buf.Len() != 0 {
		t.Fatalf("paced terminal drew %d frames", term.Frames())
	}
}
