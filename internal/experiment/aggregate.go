package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stat is a sample mean with its standard error.
type Stat struct {
	N      int
	Mean   float64
	StdErr float64
}

// Summary aggregates one evaluation index across repetitions.
type Summary struct {
	Eval            int
	Reward          Stat
	PredictionError Stat
}

// Aggregate groups records by evaluation index. records must be sorted by
// repetition then evaluation index.
func Aggregate(records []Metrics) []Summary {
	var rewards, errs [][]float64
	for _, m := range records {
		for len(rewards) <= m.Eval {
			rewards = append(rewards, nil)
			errs = append(errs, nil)
		}
		rewards[m.Eval] = append(rewards[m.Eval], m.Reward)
		errs[m.Eval] = append(errs[m.Eval], m.PredictionError)
	}
	out := make([]Summary, 0, len(rewards))
	for i := range rewards {
		if len(rewards[i]) == 0 {
			continue
		}
		out = append(out, Summary{Eval: i, Reward: describe(rewards[i]), PredictionError: describe(errs[i])})
	}
	return out
}

// Overall averages each repetition's samples first, then aggregates those
// per-repetition means.
func (r *Report) Overall() (reward, predictionError Stat) {
	type acc struct {
		reward, err float64
		n           int
	}
	byRep := map[int]*acc{}
	var order []int
	for _, m := range r.Records {
		a, ok := byRep[m.Rep]
		if !ok {
			a = &acc{}
			byRep[m.Rep] = a
			order = append(order, m.Rep)
		}
		a.reward += m.Reward
		a.err += m.PredictionError
		a.n++
	}
	rewards := make([]float64, 0, len(order))
	errs := make([]float64, 0, len(order))
	for _, rep := range order {
		a := byRep[rep]
		rewards = append(rewards, a.reward/float64(a.n))
		errs = append(errs, a.err/float64(a.n))
	}
	return describe(rewards), describe(errs)
}

func describe(xs []float64) Stat {
	s := Stat{N: len(xs)}
	if s.N == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if s.N > 1 {
		s.StdErr = stat.StdDev(xs, nil) / math.Sqrt(float64(s.N))
	}
	return s
}
