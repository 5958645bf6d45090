package agent

import (
	"fmt"
	"slices"

	"gridlearn/internal/gridgame"
	"gridlearn/internal/lut"
)

// observation aggregates the outcomes of one pattern within a single step.
type observation struct {
	pattern uint32
	ones    int
	total   int
}

func (o observation) mean() float64 { return float64(o.ones) / float64(o.total) }

// learner folds a batch of observations into the table.
type learner interface {
	observe(t *lut.Table, batch []observation) error
}

func newLearner(cfg Config, game *gridgame.Game) learner {
	switch cfg.Rule {
	case RuleTrace:
		return &traceLearner{alpha: cfg.Alpha, lambda: cfg.Lambda}
	case RuleModel:
		return &modelLearner{game: game}
	default:
		return oneStepLearner{}
	}
}

type oneStepLearner struct{}

func (oneStepLearner) observe(t *lut.Table, batch []observation) error {
	for _, o := range batch {
		e, _ := t.Lookup(o.pattern)
		n := e.Count + o.total
		e.P = (e.P*float64(e.Count) + float64(o.ones)) / float64(n)
		e.Count = n
		e.Target = o.mean()
		t.Update(o.pattern, e)
	}
	return nil
}

const minTrace = 1e-3

type traceLearner struct {
	alpha  float64
	lambda float64
}

func (l *traceLearner) observe(t *lut.Table, batch []observation) error {
	t.Range(func(_ uint32, e *lut.Estimate) bool {
		e.Trace *= l.lambda
		return true
	})
	for _, o := range batch {
		e, ok := t.Lookup(o.pattern)
		if !ok {
			e.P = o.mean()
		}
		e.Count += o.total
		e.Trace = 1
		e.Target = o.mean()
		t.Update(o.pattern, e)
	}
	t.Range(func(_ uint32, e *lut.Estimate) bool {
		if e.Trace < minTrace {
			return true
		}
		e.P += l.alpha * e.Trace * (e.Target - e.P)
		e.P = min(max(e.P, 0), 1)
		return true
	})
	return nil
}

type modelLearner struct {
	game *gridgame.Game
}

func (l *modelLearner) observe(t *lut.Table, batch []observation) error {
	for _, o := range batch {
		p, err := l.game.PatternProbability(o.pattern, 1)
		if err != nil {
			return fmt.Errorf("model update for pattern %d: %w", o.pattern, err)
		}
		e, _ := t.Lookup(o.pattern)
		e.P = p
		e.Count += o.total
		e.Target = o.mean()
		t.Update(o.pattern, e)
	}
	return nil
}

// sortedBatch orders observations by pattern so table updates, and therefore
// evictions, are reproducible.
func sortedBatch(counts map[uint32]*observation) []observation {
	batch := make([]observation, 0, len(counts))
	for _, o := range counts {
		batch = append(batch, *o)
	}
	slices.SortFunc(batch, func(a, b observation) int {
		switch {
		case a.pattern < b.pattern:
			return -1
		case a.pattern > b.pattern:
			return 1
		}
		return 0
	})
	return batch
}
