package core

import (
	"errors"
	"fmt"

	pcore "gridlearn/pkg/core"
)

// ErrOutOfRange reports a cell index or value outside the grid contract.
var ErrOutOfRange = errors.New("out of range")

// DefaultFlipChance is the per-cell probability used when dice rolls are enabled.
const DefaultFlipChance = 0.05

// Rule computes the next value of the cell at (x, y) from the current generation.
type Rule interface {
	CellUpdate(g *Grid, x, y int) uint8
}

// Dice perturbs transitions by flipping each next-generation cell with a
// fixed probability.
type Dice struct {
	Chance float64
	rng    *pcore.RNG
}

// NewDice returns a Dice drawing from its own seeded stream.
func NewDice(chance float64, seed int64) *Dice {
	return &Dice{Chance: chance, rng: pcore.NewRNG(seed)}
}

func (d *Dice) roll() bool { return d.rng.Chance(d.Chance) }

// Grid stores a toroidal 2D grid of binary cells in row-major order.
type Grid struct {
	W, H int
	cur  []uint8
	nxt  []uint8
}

// NewGrid allocates a dead grid with the given dimensions.
func NewGrid(w, h int) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Grid{W: w, H: h, cur: make([]uint8, w*h), nxt: make([]uint8, w*h)}
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.cur) }

// Cells exposes the current generation. Callers must treat it as read-only.
func (g *Grid) Cells() []uint8 { return g.cur }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (g *Grid) Wrap(x, y int) (int, int) {
	x = (x%g.W + g.W) % g.W
	y = (y%g.H + g.H) % g.H
	return x, y
}

// At returns the cell at (x, y) with toroidal wrapping.
func (g *Grid) At(x, y int) uint8 {
	x, y = g.Wrap(x, y)
	return g.cur[y*g.W+x]
}

// Cell returns the value at linear index i.
func (g *Grid) Cell(i int) (uint8, error) {
	if i < 0 || i >= len(g.cur) {
		return 0, fmt.Errorf("cell %d of %dx%d grid: %w", i, g.W, g.H, ErrOutOfRange)
	}
	return g.cur[i], nil
}

// SetCell writes v (0 or 1) at linear index i.
func (g *Grid) SetCell(i int, v uint8) error {
	if i < 0 || i >= len(g.cur) {
		return fmt.Errorf("cell %d of %dx%d grid: %w", i, g.W, g.H, ErrOutOfRange)
	}
	if v > 1 {
		return fmt.Errorf("cell value %d: %w", v, ErrOutOfRange)
	}
	g.cur[i] = v
	return nil
}

// Invert flips the cell at linear index i.
func (g *Grid) Invert(i int) error {
	if i < 0 || i >= len(g.cur) {
		return fmt.Errorf("cell %d of %dx%d grid: %w", i, g.W, g.H, ErrOutOfRange)
	}
	g.cur[i] ^= 1
	return nil
}

// Sum counts live cells.
func (g *Grid) Sum() int {
	total := 0
	for _, c := range g.cur {
		total += int(c)
	}
	return total
}

// Randomize fills the grid with uniformly random cells.
func (g *Grid) Randomize(rng *pcore.RNG) {
	pcore.FillBinary(rng.Source(), g.cur)
}

// Clone returns an independent copy of the current generation.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.W, g.H)
	copy(c.cur, g.cur)
	return c
}

// CopyFrom overwrites g with the cells of other. Dimensions must match.
func (g *Grid) CopyFrom(other *Grid) error {
	if other.W != g.W || other.H != g.H {
		return fmt.Errorf("copy %dx%d into %dx%d: %w", other.W, other.H, g.W, g.H, ErrOutOfRange)
	}
	copy(g.cur, other.cur)
	return nil
}

// Difference counts the cells where g and other disagree.
func (g *Grid) Difference(other *Grid) (int, error) {
	if other.W != g.W || other.H != g.H {
		return 0, fmt.Errorf("compare %dx%d with %dx%d: %w", g.W, g.H, other.W, other.H, ErrOutOfRange)
	}
	diff := 0
	for i, c := range g.cur {
		if c != other.cur[i] {
			diff++
		}
	}
	return diff, nil
}

// Step advances the grid by one generation. Every cell is computed from the
// current generation; a non-nil dice then flips each result independently.
func (g *Grid) Step(rule Rule, dice *Dice) {
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := rule.CellUpdate(g, x, y) & 1
			if dice != nil && dice.roll() {
				v ^= 1
			}
			g.nxt[y*g.W+x] = v
		}
	}
	g.cur, g.nxt = g.nxt, g.cur
}

// Snapshot returns a detached copy of the grid for presentation layers.
func (g *Grid) Snapshot() Snapshot {
	return Snapshot{W: g.W, H: g.H, Cells: append([]uint8(nil), g.cur...)}
}
