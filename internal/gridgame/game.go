// Package gridgame wraps a binary grid with game semantics: cell-flip
// actions, live-cell scoring, fixed-length games and an optional view of the
// true transition model.
package gridgame

import (
	"errors"
	"fmt"

	"gridlearn/internal/core"
	"gridlearn/internal/lut"
	pcore "gridlearn/pkg/core"
)

// ErrModelUnavailable is returned when the true model is queried while hidden.
var ErrModelUnavailable = errors.New("true transition model unavailable")

// PatternRule is a transition rule that can also be evaluated on an encoded
// neighbourhood pattern.
type PatternRule interface {
	core.Rule
	PatternUpdate(pattern uint32, radius int) uint8
}

// Config holds the game parameters.
type Config struct {
	Width  int
	Height int
	// GameLength is the number of ticks per game; <= 0 means never terminal.
	GameLength int
	// RewardFactor scales the live-cell score; negate to reward destroying life.
	RewardFactor float64
	DiceRoll     bool
	FlipChance   float64
	TrueModel    bool
	// Radius is the neighbourhood radius used for pattern probabilities.
	Radius int
}

// DefaultConfig returns the standard game configuration.
func DefaultConfig() Config {
	return Config{
		Width:        30,
		Height:       30,
		GameLength:   1,
		RewardFactor: 1,
		FlipChance:   core.DefaultFlipChance,
		Radius:       1,
	}
}

// Game is a grid world driven by a transition rule.
type Game struct {
	cfg   Config
	rule  PatternRule
	grid  *core.Grid
	dice  *core.Dice
	ticks int
}

// New returns a game with a dead grid. seed drives the dice stream.
func New(cfg Config, rule PatternRule, seed int64) *Game {
	g := &Game{cfg: cfg, rule: rule, grid: core.NewGrid(cfg.Width, cfg.Height)}
	if cfg.DiceRoll {
		g.dice = core.NewDice(cfg.FlipChance, seed)
	}
	return g
}

// Size returns the grid dimensions.
func (g *Game) Size() core.Size { return core.Size{W: g.grid.W, H: g.grid.H} }

// Grid exposes the live grid. Mutating it bypasses scoring.
func (g *Game) Grid() *core.Grid { return g.grid }

// Rule returns the transition rule driving the game.
func (g *Game) Rule() PatternRule { return g.rule }

// Config returns the game parameters.
func (g *Game) Config() Config { return g.cfg }

// Reset randomizes the grid from seed and starts a new game.
func (g *Game) Reset(seed int64) {
	g.grid.Randomize(pcore.NewRNG(seed))
	g.ticks = 0
}

// ResetFrom randomizes the grid from an existing stream and starts a new game.
func (g *Game) ResetFrom(rng *pcore.RNG) {
	g.grid.Randomize(rng)
	g.ticks = 0
}

// Observe returns an independent copy of the current state.
func (g *Game) Observe() *core.Grid { return g.grid.Clone() }

// Snapshot returns a read-only copy for renderers.
func (g *Game) Snapshot() core.Snapshot { return g.grid.Snapshot() }

// NActions is the number of cells plus the do-nothing action.
func (g *Game) NActions() int { return g.grid.Len() + 1 }

// DoNothingAction is the action index that leaves the grid untouched.
func (g *Game) DoNothingAction() int { return g.grid.Len() }

// Ticks returns the number of ticks since the last reset.
func (g *Game) Ticks() int { return g.ticks }

// Score is the number of live cells scaled by the reward factor.
func (g *Game) Score() float64 {
	return g.cfg.RewardFactor * float64(g.grid.Sum())
}

// IsTerminal reports whether the current game has used up its ticks.
func (g *Game) IsTerminal() bool {
	return g.cfg.GameLength > 0 && g.ticks >= g.cfg.GameLength
}

// Apply performs the action's flip without advancing time.
func (g *Game) Apply(action int) error {
	if action == g.DoNothingAction() {
		return nil
	}
	if action < 0 || action > g.DoNothingAction() {
		return fmt.Errorf("action %d of %d: %w", action, g.NActions(), core.ErrOutOfRange)
	}
	return g.grid.Invert(action)
}

// Act applies action, advances one tick and returns the score change.
func (g *Game) Act(action int) (float64, error) {
	before := g.Score()
	if err := g.Apply(action); err != nil {
		return 0, err
	}
	g.grid.Step(g.rule, g.dice)
	g.ticks++
	return g.Score() - before, nil
}

// Copy returns an independent game sharing the rule. The copy has no dice so
// planning on it is deterministic.
func (g *Game) Copy() *Game {
	return g.WithRule(g.rule)
}

// WithRule returns a dice-free copy of the game driven by another rule, e.g. a
// learned forward model.
func (g *Game) WithRule(rule PatternRule) *Game {
	cfg := g.cfg
	cfg.DiceRoll = false
	c := &Game{cfg: cfg, rule: rule, grid: g.grid.Clone(), ticks: g.ticks}
	return c
}

// PatternProbability returns the true probability that a cell whose
// neighbourhood encodes pattern is `next` on the following tick.
func (g *Game) PatternProbability(pattern uint32, next uint8) (float64, error) {
	if !g.cfg.TrueModel {
		return 0, ErrModelUnavailable
	}
	out := g.rule.PatternUpdate(pattern, g.cfg.Radius)
	return g.cellProbability(out, next), nil
}

// TransitionProbability returns the true probability of reaching next from
// state under action.
func (g *Game) TransitionProbability(state *core.Grid, action int, next *core.Grid) (float64, error) {
	if !g.cfg.TrueModel {
		return 0, ErrModelUnavailable
	}
	if state.W != next.W || state.H != next.H {
		return 0, fmt.Errorf("transition %dx%d -> %dx%d: %w", state.W, state.H, next.W, next.H, core.ErrOutOfRange)
	}
	applied := state.Clone()
	if action != applied.Len() {
		if err := applied.Invert(action); err != nil {
			return 0, err
		}
	}
	p := 1.0
	nextCells := next.Cells()
	for y := 0; y < applied.H; y++ {
		for x := 0; x < applied.W; x++ {
			out := g.rule.CellUpdate(applied, x, y)
			p *= g.cellProbability(out, nextCells[applied.Index(x, y)])
			if p == 0 {
				return 0, nil
			}
		}
	}
	return p, nil
}

func (g *Game) cellProbability(ruleOut, next uint8) float64 {
	flip := 0.0
	if g.cfg.DiceRoll {
		flip = g.cfg.FlipChance
	}
	if ruleOut == next {
		return 1 - flip
	}
	return flip
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Radius < 1 || c.Radius > lut.MaxRadius {
		return fmt.Errorf("radius %d outside [1, %d]", c.Radius, lut.MaxRadius)
	}
	if c.FlipChance < 0 || c.FlipChance > 1 {
		return fmt.Errorf("flip chance %v outside [0, 1]", c.FlipChance)
	}
	return nil
}
