package experiment

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"gridlearn/internal/agent"
	"gridlearn/internal/core"
	"gridlearn/internal/gridgame"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 4
	cfg.Height = 4
	cfg.NReps = 2
	cfg.LearnSteps = 10
	cfg.TestSteps = 5
	cfg.GamesPerEval = 1
	cfg.NPredictionTests = 1
	cfg.LUTSizeLimit = 0
	cfg.DiceRoll = false
	cfg.Visual = false
	cfg.Workers = 2
	return cfg
}

func run(t *testing.T, cfg Config, opts ...Option) *Report {
	t.Helper()
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rep
}

func TestEndToEndSmallGrid(t *testing.T) {
	rep := run(t, smallConfig())
	if rep.Requested != 2 || rep.Completed != 2 || len(rep.Failures) != 0 {
		t.Fatalf("requested %d completed %d failures %v", rep.Requested, rep.Completed, rep.Failures)
	}
	if len(rep.Records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(rep.Records))
	}
	for i, m := range rep.Records {
		if m.Rep != i/5 || m.Eval != i%5 {
			t.Fatalf("record %d out of order: %+v", i, m)
		}
		if math.IsNaN(m.Reward) || math.IsInf(m.Reward, 0) {
			t.Fatalf("record %d reward not finite: %v", i, m.Reward)
		}
		if math.IsNaN(m.PredictionError) || m.PredictionError < 0 || m.PredictionError > 1 {
			t.Fatalf("record %d prediction error out of range: %v", i, m.PredictionError)
		}
	}
	if len(rep.Summary) != 5 {
		t.Fatalf("expected 5 summaries, got %d", len(rep.Summary))
	}
	for _, s := range rep.Summary {
		if s.Reward.N != 2 {
			t.Fatalf("summary %d aggregates %d reps", s.Eval, s.Reward.N)
		}
	}
	if rep.RunID == "" {
		t.Fatalf("missing run id")
	}
}

func TestModelRuleWithoutTrueModelFailsBeforeRunning(t *testing.T) {
	cfg := smallConfig()
	cfg.UpdateRule = int(agent.RuleModel)
	cfg.TrueModel = false
	obs := &recorder{}
	_, err := New(cfg, WithObserver(obs))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !errors.Is(err, agent.ErrConfiguration) {
		t.Fatalf("expected wrapped agent.ErrConfiguration, got %v", err)
	}
	if obs.phases() != 0 {
		t.Fatalf("observer saw %d phases before validation failed", obs.phases())
	}

	cfg.TrueModel = true
	if _, err := New(cfg); err != nil {
		t.Fatalf("model rule with true model: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"nReps":        func(c *Config) { c.NReps = 0 },
		"gamesPerEval": func(c *Config) { c.GamesPerEval = 0 },
		"gameLength":   func(c *Config) { c.GameLength = 0 },
		"evalCycles":   func(c *Config) { c.EvalCycles = 0 },
		"rule":         func(c *Config) { c.Rule = "nope" },
		"radius":       func(c *Config) { c.Radius = 3 },
		"agent":        func(c *Config) { c.Agent = 9 },
		"lutSizeLimit": func(c *Config) { c.LUTSizeLimit = -1 },
		"testSteps":    func(c *Config) { c.TestSteps = -1 },
	}
	for name, mutate := range cases {
		cfg := smallConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	cfg := smallConfig()
	cfg.NReps = 4
	cfg.Agent = int(agent.KindGreedy)
	cfg.Workers = 1
	seq := run(t, cfg)
	cfg.Workers = 4
	par := run(t, cfg)
	if !slices.Equal(seq.Records, par.Records) {
		t.Fatalf("parallel records differ from sequential:\n%v\n%v", seq.Records, par.Records)
	}
}

func TestRepetitionIndependentOfOthers(t *testing.T) {
	cfg := smallConfig()
	cfg.NReps = 3
	full := run(t, cfg)

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	alone, err := e.RunRepetition(2)
	if err != nil {
		t.Fatalf("rep 2: %v", err)
	}
	var fromRun []Metrics
	for _, m := range full.Records {
		if m.Rep == 2 {
			fromRun = append(fromRun, m)
		}
	}
	if !slices.Equal(alone, fromRun) {
		t.Fatalf("rep 2 alone %v differs from rep 2 in run %v", alone, fromRun)
	}
	again, _ := e.RunRepetition(2)
	if !slices.Equal(alone, again) {
		t.Fatalf("rep 2 not reproducible")
	}
}

func TestCancelledContextRunsNothing(t *testing.T) {
	e, err := New(smallConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rep == nil || rep.Completed != 0 || len(rep.Records) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
	if e.Phase() != PhaseDone {
		t.Fatalf("expected done phase, got %v", e.Phase())
	}
}

func TestObserverDoesNotChangeResults(t *testing.T) {
	cfg := smallConfig()
	plain := run(t, cfg)
	obs := &recorder{}
	watched := run(t, cfg, WithObserver(obs))
	if !slices.Equal(plain.Records, watched.Records) {
		t.Fatalf("observer changed records")
	}
	// 10 learning + 5 evaluation ticks per repetition.
	if obs.frames() != 2*15 {
		t.Fatalf("expected 30 frames, got %d", obs.frames())
	}
	if obs.phases() == 0 {
		t.Fatalf("observer saw no phases")
	}
	obs.mu.Lock()
	preds := obs.nPred
	obs.mu.Unlock()
	if preds != 10 {
		t.Fatalf("expected 10 prediction callbacks, got %d", preds)
	}
}

func TestGamesPerEvalDropsIncompleteSample(t *testing.T) {
	cfg := smallConfig()
	cfg.NReps = 1
	cfg.GamesPerEval = 2
	rep := run(t, cfg)
	if len(rep.Records) != 2 {
		t.Fatalf("expected 2 samples from 5 single-tick games, got %d", len(rep.Records))
	}
}

func TestEvalCyclesKeepSampleCount(t *testing.T) {
	cfg := smallConfig()
	cfg.NReps = 1
	cfg.EvalCycles = 2
	rep := run(t, cfg)
	if len(rep.Records) != 5 {
		t.Fatalf("expected 5 samples across cycles, got %d", len(rep.Records))
	}
	for i, m := range rep.Records {
		if m.Eval != i {
			t.Fatalf("eval index %d at position %d", m.Eval, i)
		}
	}
}

func TestNoPredictionTestsRecordsZeroError(t *testing.T) {
	cfg := smallConfig()
	cfg.NPredictionTests = 0
	rep := run(t, cfg)
	for _, m := range rep.Records {
		if m.PredictionError != 0 {
			t.Fatalf("expected zero prediction error, got %v", m.PredictionError)
		}
	}
}

func TestShareGivesRemainderToLastPart(t *testing.T) {
	got := []int{share(10, 3, 0), share(10, 3, 1), share(10, 3, 2)}
	if !slices.Equal(got, []int{3, 3, 4}) {
		t.Fatalf("unexpected split %v", got)
	}
}

func TestRewardIsEndOfGameScore(t *testing.T) {
	cfg := smallConfig()
	cfg.Width = 8
	cfg.Height = 8
	cfg.NReps = 1
	cfg.TestSteps = 10
	cfg.Workers = 1
	frames := &frameLog{}
	rep := run(t, cfg, WithObserver(frames))
	evals := frames.phase(PhaseEvaluating)
	if len(rep.Records) != 10 || len(evals) != 10 {
		t.Fatalf("got %d records and %d frames, want 10 each", len(rep.Records), len(evals))
	}
	for i, m := range rep.Records {
		if m.Reward < 0 || m.Reward > float64(cfg.Width*cfg.Height) {
			t.Fatalf("record %d reward %v outside [0, %d]", i, m.Reward, cfg.Width*cfg.Height)
		}
		live := 0
		for _, c := range evals[i].Cells {
			live += int(c)
		}
		if m.Reward != float64(live) {
			t.Fatalf("record %d reward %v, final grid has %d live cells", i, m.Reward, live)
		}
	}

	cfg.RewardFactor = -1
	for i, m := range run(t, cfg).Records {
		if m.Reward > 0 {
			t.Fatalf("record %d reward %v positive with negative factor", i, m.Reward)
		}
	}
}

func TestLearningGameIsNeverReset(t *testing.T) {
	cfg := smallConfig()
	cfg.Width = 8
	cfg.Height = 8
	cfg.NReps = 1
	cfg.LearnSteps = 20
	cfg.Agent = int(agent.KindDoNothing)
	cfg.Workers = 1
	frames := &frameLog{}
	run(t, cfg, WithObserver(frames))
	learn := frames.phase(PhaseLearning)
	if len(learn) != cfg.LearnSteps {
		t.Fatalf("got %d learning frames, want %d", len(learn), cfg.LearnSteps)
	}
	rule, _ := core.LookupRule(cfg.Rule)
	for i := 1; i < len(learn); i++ {
		g := core.NewGrid(cfg.Width, cfg.Height)
		copy(g.Cells(), learn[i-1].Cells)
		g.Step(rule, nil)
		if !slices.Equal(g.Cells(), learn[i].Cells) {
			t.Fatalf("learning frame %d does not follow frame %d", i, i-1)
		}
	}
}

func TestFailedRepetitionAbortsOnlyItself(t *testing.T) {
	cfg := smallConfig()
	cfg.NReps = 3
	clean := run(t, cfg)

	errBroken := errors.New("broken learner")
	orig := newAgent
	t.Cleanup(func() { newAgent = orig })
	newAgent = func(rep int, c agent.Config, g *gridgame.Game, seed int64) (*agent.Agent, error) {
		if rep == 1 {
			return nil, errBroken
		}
		return orig(rep, c, g, seed)
	}
	rep := run(t, cfg)
	if rep.Requested != 3 || rep.Completed != 2 {
		t.Fatalf("requested %d completed %d", rep.Requested, rep.Completed)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].Rep != 1 || !errors.Is(rep.Failures[0].Err, errBroken) {
		t.Fatalf("unexpected failures %v", rep.Failures)
	}
	var want []Metrics
	for _, m := range clean.Records {
		if m.Rep != 1 {
			want = append(want, m)
		}
	}
	if !slices.Equal(rep.Records, want) {
		t.Fatalf("surviving records changed:\n%v\n%v", rep.Records, want)
	}
	for _, s := range rep.Summary {
		if s.Reward.N != 2 {
			t.Fatalf("summary %d aggregates %d reps, want 2", s.Eval, s.Reward.N)
		}
	}
}

// frameLog keeps every frame of a single-worker run in arrival order.
type frameLog struct {
	mu     sync.Mutex
	phases []Phase
	snaps  []core.Snapshot
}

func (f *frameLog) OnPhase(int, Phase) {}

func (f *frameLog) OnFrame(_ int, p Phase, snap core.Snapshot) {
	f.mu.Lock()
	f.phases = append(f.phases, p)
	f.snaps = append(f.snaps, snap)
	f.mu.Unlock()
}

func (f *frameLog) phase(p Phase) []core.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Snapshot
	for i, q := range f.phases {
		if q == p {
			out = append(out, f.snaps[i])
		}
	}
	return out
}

type recorder struct {
	mu     sync.Mutex
	nPhase int
	nFrame int
	nPred  int
}

func (r *recorder) OnPrediction(_ int, truth, predicted core.Snapshot) {
	r.mu.Lock()
	if len(truth.Cells) == len(predicted.Cells) {
		r.nPred++
	}
	r.mu.Unlock()
}

func (r *recorder) OnPhase(int, Phase) {
	r.mu.Lock()
	r.nPhase++
	r.mu.Unlock()
}

func (r *recorder) OnFrame(_ int, _ Phase, snap core.Snapshot) {
	r.mu.Lock()
	r.nFrame++
	r.mu.Unlock()
}

func (r *recorder) phases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nPhase
}

func (r *recorder) frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nFrame
}
