// Package experiment runs independent learn/evaluate repetitions of an agent
// on the grid game and aggregates their metrics.
package experiment

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gridlearn/internal/agent"
	"gridlearn/internal/core"
	"gridlearn/internal/gridgame"
	pcore "gridlearn/pkg/core"
)

// Phase is a step of the experiment state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLearning
	PhaseEvaluating
	PhaseAggregating
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLearning:
		return "learning"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseAggregating:
		return "aggregating"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Observer receives progress from running repetitions. Calls arrive from
// worker goroutines concurrently.
type Observer interface {
	OnPhase(rep int, phase Phase)
	OnFrame(rep int, phase Phase, snap core.Snapshot)
}

// PredictionObserver is implemented by observers that also want each
// prediction test: the true next grid and the learned model's guess.
type PredictionObserver interface {
	OnPrediction(rep int, truth, predicted core.Snapshot)
}

// Metrics is one evaluation sample of one repetition.
type Metrics struct {
	Rep             int
	Eval            int
	Reward          float64
	PredictionError float64
}

// Failure records a repetition that aborted.
type Failure struct {
	Rep int
	Err error
}

// Report is the outcome of Run.
type Report struct {
	RunID     string
	Config    Config
	Requested int
	Completed int
	Failures  []Failure
	Records   []Metrics
	Summary   []Summary
	Elapsed   time.Duration
}

// Option customises an Experiment.
type Option func(*Experiment)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Experiment) { e.observer = o }
}

// Experiment holds a validated configuration and runs it.
type Experiment struct {
	cfg      Config
	runID    string
	logger   *log.Logger
	observer Observer

	mu    sync.Mutex
	phase Phase
}

// New validates cfg and returns an idle experiment.
func New(cfg Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := newRule(cfg.Rule); err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:    cfg,
		runID:  uuid.NewString(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("run", e.runID[:8])
	return e, nil
}

// Config returns the experiment configuration.
func (e *Experiment) Config() Config { return e.cfg }

// RunID identifies this experiment in logs and result headers.
func (e *Experiment) RunID() string { return e.runID }

// Phase returns the most recent phase entered by any repetition.
func (e *Experiment) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Experiment) enter(rep int, p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
	if e.observer != nil {
		e.observer.OnPhase(rep, p)
	}
}

func (e *Experiment) frame(rep int, p Phase, g *gridgame.Game) {
	if e.observer != nil {
		e.observer.OnFrame(rep, p, g.Snapshot())
	}
}

type repResult struct {
	rep     int
	records []Metrics
	err     error
}

// Run executes every repetition on a bounded worker pool and aggregates the
// samples. Cancellation is honoured between repetitions; the partial report
// is returned together with the context error.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	e.logger.Info("experiment starting", "reps", e.cfg.NReps, "workers", workers,
		"updateRule", agent.UpdateRule(e.cfg.UpdateRule), "agent", agent.Kind(e.cfg.Agent),
		"lutSizeLimit", e.cfg.LUTSizeLimit)

	results := make(chan repResult)
	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for rep := 0; rep < e.cfg.NReps; rep++ {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				records, err := e.RunRepetition(rep)
				results <- repResult{rep: rep, records: records, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	report := &Report{RunID: e.runID, Config: e.cfg, Requested: e.cfg.NReps}
	for res := range results {
		if res.err != nil {
			e.logger.Error("repetition failed", "rep", res.rep, "err", res.err)
			report.Failures = append(report.Failures, Failure{Rep: res.rep, Err: res.err})
			continue
		}
		e.logger.Debug("repetition done", "rep", res.rep, "samples", len(res.records))
		report.Completed++
		report.Records = append(report.Records, res.records...)
	}

	e.enter(-1, PhaseAggregating)
	slices.SortFunc(report.Records, func(a, b Metrics) int {
		if c := cmp.Compare(a.Rep, b.Rep); c != 0 {
			return c
		}
		return cmp.Compare(a.Eval, b.Eval)
	})
	slices.SortFunc(report.Failures, func(a, b Failure) int { return cmp.Compare(a.Rep, b.Rep) })
	report.Summary = Aggregate(report.Records)
	report.Elapsed = time.Since(start)
	e.enter(-1, PhaseDone)

	e.logger.Info("experiment finished", "completed", report.Completed, "requested", report.Requested,
		"samples", len(report.Records), "elapsed", report.Elapsed.Round(time.Millisecond))
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("experiment interrupted after %d of %d repetitions: %w",
			report.Completed, report.Requested, err)
	}
	return report, nil
}

// RunRepetition runs repetition rep alone. Its outcome depends only on the
// configuration and rep, never on other repetitions.
func (e *Experiment) RunRepetition(rep int) ([]Metrics, error) {
	rng := pcore.NewRNG(pcore.RepSeed(e.cfg.Seed, rep))
	rule, err := newRule(e.cfg.Rule)
	if err != nil {
		return nil, err
	}
	gcfg := e.cfg.GameConfig()
	// The training game never ends; only evaluation games last GameLength.
	lcfg := gcfg
	lcfg.GameLength = 0
	game := gridgame.New(lcfg, rule, nextSeed(rng))
	eval := gridgame.New(gcfg, rule, nextSeed(rng))
	ag, err := newAgent(rep, e.cfg.AgentConfig(), game, nextSeed(rng))
	if err != nil {
		return nil, fmt.Errorf("rep %d agent: %w", rep, err)
	}
	game.ResetFrom(rng)

	r := &repetition{e: e, rep: rep, rng: rng, rule: rule, game: game, eval: eval, agent: ag}
	cycles := e.cfg.EvalCycles
	for c := 0; c < cycles; c++ {
		e.enter(rep, PhaseLearning)
		if err := r.learn(share(e.cfg.LearnSteps, cycles, c)); err != nil {
			return nil, fmt.Errorf("rep %d learning: %w", rep, err)
		}
		e.enter(rep, PhaseEvaluating)
		if err := r.evaluate(share(e.cfg.TestSteps, cycles, c)); err != nil {
			return nil, fmt.Errorf("rep %d evaluating: %w", rep, err)
		}
	}
	t := ag.Table()
	e.logger.Debug("table", "rep", rep, "entries", t.Len(), "limit", t.Limit(), "evictions", t.Evictions())
	return r.records, nil
}

// newAgent builds the learner for one repetition.
var newAgent = func(rep int, cfg agent.Config, game *gridgame.Game, seed int64) (*agent.Agent, error) {
	return agent.New(cfg, game, seed)
}

// repetition is the single-threaded state of one trial.
type repetition struct {
	e       *Experiment
	rep     int
	rng     *pcore.RNG
	rule    gridgame.PatternRule
	game    *gridgame.Game
	eval    *gridgame.Game
	agent   *agent.Agent
	records []Metrics
}

func (r *repetition) learn(steps int) error {
	for i := 0; i < steps; i++ {
		before := r.game.Observe()
		action := r.agent.SelectAction(r.game)
		reward, err := r.game.Act(action)
		if err != nil {
			return err
		}
		if err := r.agent.Learn(agent.Transition{Before: before, Action: action, Reward: reward, After: r.game.Observe()}); err != nil {
			return err
		}
		r.e.frame(r.rep, PhaseLearning, r.game)
	}
	return nil
}

func (r *repetition) evaluate(steps int) error {
	cfg := r.e.cfg
	games := 0
	total := 0.0
	r.eval.ResetFrom(r.rng)
	for i := 0; i < steps; i++ {
		if _, err := r.eval.Act(r.agent.SelectAction(r.eval)); err != nil {
			return err
		}
		r.e.frame(r.rep, PhaseEvaluating, r.eval)
		if !r.eval.IsTerminal() {
			continue
		}
		total += r.eval.Score()
		games++
		if games == cfg.GamesPerEval {
			predErr, err := r.predictionError()
			if err != nil {
				return err
			}
			r.records = append(r.records, Metrics{
				Rep:             r.rep,
				Eval:            len(r.records),
				Reward:          total / float64(games),
				PredictionError: predErr,
			})
			games = 0
			total = 0
		}
		r.eval.ResetFrom(r.rng)
	}
	return nil
}

// predictionError is the mean fraction of cells the learned model gets wrong
// over freshly sampled grids, measured against the noise-free rule.
func (r *repetition) predictionError() (float64, error) {
	n := r.e.cfg.NPredictionTests
	if n == 0 {
		return 0, nil
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		state := core.NewGrid(r.e.cfg.Width, r.e.cfg.Height)
		state.Randomize(r.rng)
		truth := state.Clone()
		truth.Step(r.rule, nil)
		predicted := r.agent.Predict(state)
		diff, err := predicted.Difference(truth)
		if err != nil {
			return 0, err
		}
		if po, ok := r.e.observer.(PredictionObserver); ok {
			po.OnPrediction(r.rep, truth.Snapshot(), predicted.Snapshot())
		}
		sum += float64(diff) / float64(state.Len())
	}
	return sum / float64(n), nil
}

// share splits total into parts; the remainder goes to the last part.
func share(total, parts, i int) int {
	n := total / parts
	if i == parts-1 {
		n += total % parts
	}
	return n
}

func nextSeed(rng *pcore.RNG) int64 {
	return int64(rng.Source().Uint64() >> 1)
}

func newRule(name string) (gridgame.PatternRule, error) {
	r, ok := core.LookupRule(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown rule %q", ErrConfiguration, name)
	}
	pr, ok := r.(gridgame.PatternRule)
	if !ok {
		return nil, fmt.Errorf("%w: rule %q has no pattern form", ErrConfiguration, name)
	}
	return pr, nil
}
