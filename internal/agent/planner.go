package agent

import (
	"gridlearn/internal/gridgame"
	pcore "gridlearn/pkg/core"
)

// modelFunc returns a planning copy of a game.
type modelFunc func(*gridgame.Game) *gridgame.Game

type planner interface {
	selectAction(game *gridgame.Game, model modelFunc) int
}

func newPlanner(cfg Config, rng *pcore.RNG) planner {
	switch cfg.Kind {
	case KindDoNothing:
		return doNothingPlanner{}
	case KindGreedy:
		return &greedyPlanner{epsilon: cfg.Epsilon, rng: rng}
	case KindEvo:
		return &evoPlanner{params: cfg.Evo, rng: rng}
	default:
		return &randomPlanner{rng: rng}
	}
}

type randomPlanner struct {
	rng *pcore.RNG
}

func (p *randomPlanner) selectAction(game *gridgame.Game, _ modelFunc) int {
	return p.rng.IntN(game.NActions())
}

type doNothingPlanner struct{}

func (doNothingPlanner) selectAction(game *gridgame.Game, _ modelFunc) int {
	return game.DoNothingAction()
}

type greedyPlanner struct {
	epsilon float64
	rng     *pcore.RNG
}

// selectAction tries every action once on the model; ties go to the lowest
// action index.
func (p *greedyPlanner) selectAction(game *gridgame.Game, model modelFunc) int {
	n := game.NActions()
	if p.rng.Chance(p.epsilon) {
		return p.rng.IntN(n)
	}
	best, bestReward := game.DoNothingAction(), 0.0
	first := true
	for action := 0; action < n; action++ {
		sim := model(game)
		reward, err := sim.Act(action)
		if err != nil {
			continue
		}
		if first || reward > bestReward {
			best, bestReward = action, reward
			first = false
		}
	}
	return best
}

// evoPlanner is a rolling-horizon evolutionary planner: a (1+1) search over
// fixed-length action sequences scored by total reward on the model.
type evoPlanner struct {
	params EvoParams
	rng    *pcore.RNG
	buffer []int
}

func (p *evoPlanner) selectAction(game *gridgame.Game, model modelFunc) int {
	n := game.NActions()
	var solution []int
	if p.params.ShiftBuffer && len(p.buffer) == p.params.SequenceLength {
		solution = p.shiftLeft(p.buffer, n)
	} else {
		solution = p.randomSequence(n)
	}
	for i := 0; i < p.params.NEvals; i++ {
		mut := p.mutate(solution, n)
		if p.evaluate(model(game), mut) >= p.evaluate(model(game), solution) {
			solution = mut
		}
	}
	p.buffer = solution
	return solution[0]
}

func (p *evoPlanner) evaluate(sim *gridgame.Game, seq []int) float64 {
	start := sim.Score()
	for _, action := range seq {
		if _, err := sim.Act(action); err != nil {
			break
		}
	}
	return sim.Score() - start
}

func (p *evoPlanner) randomSequence(n int) []int {
	seq := make([]int, p.params.SequenceLength)
	for i := range seq {
		seq[i] = p.rng.IntN(n)
	}
	return seq
}

func (p *evoPlanner) shiftLeft(seq []int, n int) []int {
	out := make([]int, len(seq))
	copy(out, seq[1:])
	out[len(out)-1] = p.rng.IntN(n)
	return out
}

func (p *evoPlanner) mutate(seq []int, n int) []int {
	out := make([]int, len(seq))
	forced := -1
	if p.params.FlipAtLeastOne {
		forced = p.rng.IntN(len(seq))
	}
	for i, v := range seq {
		if i == forced || p.rng.Chance(p.params.MutationProb) {
			out[i] = p.mutateValue(v, n)
			continue
		}
		out[i] = v
	}
	return out
}

// mutateValue draws a different action uniformly.
func (p *evoPlanner) mutateValue(cur, n int) int {
	if n <= 1 {
		return cur
	}
	rx := p.rng.IntN(n - 1)
	if rx >= cur {
		return rx + 1
	}
	return rx
}
