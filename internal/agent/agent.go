// Package agent implements the learning agent: a lookup-table forward model
// trained from observed grid transitions, and planners that choose cell-flip
// actions using either that model or the true one.
package agent

import (
	"fmt"

	"gridlearn/internal/core"
	"gridlearn/internal/gridgame"
	"gridlearn/internal/lut"
	pcore "gridlearn/pkg/core"
)

// Transition is one observed step of the game.
type Transition struct {
	Before *core.Grid
	Action int
	Reward float64
	After  *core.Grid
}

// Agent owns a lookup table and acts on games that share its rule.
type Agent struct {
	cfg     Config
	game    *gridgame.Game
	table   *lut.Table
	learner learner
	planner planner
	model   *learnedRule
	rng     *pcore.RNG
}

// New builds an agent for game. The game is referenced for its true model
// only; the agent never steps it.
func New(cfg Config, game *gridgame.Game, seed int64) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TrueModel != game.Config().TrueModel {
		return nil, fmt.Errorf("%w: agent trueModel=%v but game trueModel=%v",
			ErrConfiguration, cfg.TrueModel, game.Config().TrueModel)
	}
	if cfg.Radius != game.Config().Radius {
		return nil, fmt.Errorf("%w: agent radius %d but game radius %d",
			ErrConfiguration, cfg.Radius, game.Config().Radius)
	}
	table, err := lut.New(cfg.LUTSizeLimit, cfg.LUTSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	a := &Agent{
		cfg:     cfg,
		game:    game,
		table:   table,
		learner: newLearner(cfg, game),
		rng:     pcore.NewRNG(seed),
	}
	a.model = &learnedRule{table: table, radius: cfg.Radius, minSamples: max(cfg.LUTSize, 1)}
	a.planner = newPlanner(cfg, a.rng)
	return a, nil
}

// Config returns the agent configuration.
func (a *Agent) Config() Config { return a.cfg }

// Table exposes the lookup table for inspection.
func (a *Agent) Table() *lut.Table { return a.table }

// Model returns the learned forward model as a transition rule.
func (a *Agent) Model() gridgame.PatternRule { return a.model }

// SelectAction chooses an action for game. Planning runs on copies, so
// neither game nor the table changes.
func (a *Agent) SelectAction(game *gridgame.Game) int {
	return a.planner.selectAction(game, a.forwardModel)
}

// forwardModel returns the planning copy of game: the true rule when the
// agent may use it, the learned one otherwise.
func (a *Agent) forwardModel(game *gridgame.Game) *gridgame.Game {
	if a.cfg.TrueModel {
		return game.Copy()
	}
	return game.WithRule(a.model)
}

// Learn folds one transition into the table.
func (a *Agent) Learn(tr Transition) error {
	if tr.Before == nil || tr.After == nil {
		return fmt.Errorf("learn: incomplete transition")
	}
	applied := tr.Before.Clone()
	if tr.Action != applied.Len() {
		if err := applied.Invert(tr.Action); err != nil {
			return fmt.Errorf("learn: %w", err)
		}
	}
	if applied.W != tr.After.W || applied.H != tr.After.H {
		return fmt.Errorf("learn: state %dx%d, next %dx%d: %w",
			applied.W, applied.H, tr.After.W, tr.After.H, core.ErrOutOfRange)
	}

	counts := make(map[uint32]*observation, max(a.table.Hint(), 1))
	next := tr.After.Cells()
	for y := 0; y < applied.H; y++ {
		for x := 0; x < applied.W; x++ {
			p := lut.Pattern(applied, x, y, a.cfg.Radius)
			o, ok := counts[p]
			if !ok {
				o = &observation{pattern: p}
				counts[p] = o
			}
			o.total++
			o.ones += int(next[applied.Index(x, y)])
		}
	}
	return a.learner.observe(a.table, sortedBatch(counts))
}

// Predict returns the grid the learned model expects after one tick of state
// with no action. state is not modified.
func (a *Agent) Predict(state *core.Grid) *core.Grid {
	next := state.Clone()
	next.Step(a.model, nil)
	return next
}

// learnedRule turns table estimates into a deterministic transition rule.
// Patterns without enough observations keep their centre value.
type learnedRule struct {
	table      *lut.Table
	radius     int
	minSamples int
}

func (r *learnedRule) CellUpdate(g *core.Grid, x, y int) uint8 {
	return r.PatternUpdate(lut.Pattern(g, x, y, r.radius), r.radius)
}

func (r *learnedRule) PatternUpdate(pattern uint32, radius int) uint8 {
	e, ok := r.table.Lookup(pattern)
	if !ok || e.Count < r.minSamples {
		return lut.Centre(pattern, radius)
	}
	if e.P > 0.5 {
		return 1
	}
	return 0
}
