package experiment

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strconv"

	"gridlearn/internal/agent"
	"gridlearn/internal/core"
	"gridlearn/internal/gridgame"
	_ "gridlearn/internal/rules"
)

// ErrConfiguration reports an invalid experiment configuration.
var ErrConfiguration = errors.New("configuration error")

// Config is the full, immutable description of an experiment run.
type Config struct {
	UpdateRule       int
	Agent            int
	TrueModel        bool
	LearnSteps       int
	TestSteps        int
	GamesPerEval     int
	NPredictionTests int
	Width            int
	Height           int
	Visual           bool
	LUTSizeLimit     int
	DiceRoll         bool
	NReps            int
	LUTSize          int

	Seed         int64
	Rule         string
	Radius       int
	GameLength   int
	EvalCycles   int
	RewardFactor float64
	FlipChance   float64
	Workers      int
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		UpdateRule:       int(agent.RuleOneStep),
		Agent:            int(agent.KindRandom),
		LearnSteps:       3,
		TestSteps:        100,
		GamesPerEval:     1,
		NPredictionTests: 1,
		Width:            30,
		Height:           30,
		Visual:           true,
		NReps:            5,
		LUTSize:          1,

		Seed:         42,
		Rule:         "life",
		Radius:       1,
		GameLength:   1,
		EvalCycles:   1,
		RewardFactor: 1,
		FlipChance:   core.DefaultFlipChance,
		Workers:      runtime.NumCPU(),
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.UpdateRule, "updateRule", c.UpdateRule, "value update rule: 0 one-step, 1 trace, 2 model (needs -trueModel)")
	fs.IntVar(&c.Agent, "agent", c.Agent, "planner: 0 random, 1 do-nothing, 2 greedy, 3 evo")
	fs.BoolVar(&c.TrueModel, "trueModel", c.TrueModel, "let the agent use the true transition model")
	fs.IntVar(&c.LearnSteps, "learnSteps", c.LearnSteps, "learning ticks per repetition")
	fs.IntVar(&c.TestSteps, "testSteps", c.TestSteps, "evaluation ticks per repetition")
	fs.IntVar(&c.GamesPerEval, "gamesPerEval", c.GamesPerEval, "games averaged into one evaluation sample")
	fs.IntVar(&c.NPredictionTests, "nPredictionTests", c.NPredictionTests, "prediction tests per evaluation sample")
	fs.IntVar(&c.Width, "w", c.Width, "grid width")
	fs.IntVar(&c.Height, "h", c.Height, "grid height")
	fs.BoolVar(&c.Visual, "visual", c.Visual, "show the grid while evaluating")
	fs.IntVar(&c.LUTSizeLimit, "lutSizeLimit", c.LUTSizeLimit, "lookup table entry limit (0 = unbounded)")
	fs.BoolVar(&c.DiceRoll, "diceRoll", c.DiceRoll, "randomly flip cells after each transition")
	fs.IntVar(&c.NReps, "nReps", c.NReps, "independent repetitions")
	fs.IntVar(&c.LUTSize, "lutSize", c.LUTSize, "lookup table size hint and minimum samples per trusted entry")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "base seed; each repetition derives its own")
	fs.StringVar(&c.Rule, "rule", c.Rule, "transition rule name")
	fs.IntVar(&c.Radius, "radius", c.Radius, "pattern neighbourhood radius (1 or 2)")
	fs.IntVar(&c.GameLength, "gameLength", c.GameLength, "ticks per game")
	fs.IntVar(&c.EvalCycles, "evalCycles", c.EvalCycles, "learn/evaluate cycles per repetition")
	fs.Float64Var(&c.RewardFactor, "rewardFactor", c.RewardFactor, "score multiplier per live cell")
	fs.Float64Var(&c.FlipChance, "flipChance", c.FlipChance, "per-cell flip probability when diceRoll is set")
	fs.IntVar(&c.Workers, "workers", c.Workers, "repetitions run in parallel")
}

// FromMap overrides fields from key/value pairs using the flag names.
// Unknown keys and unparsable values are reported.
func FromMap(base Config, kv map[string]string) (Config, error) {
	c := base
	for key, value := range kv {
		var err error
		switch key {
		case "updateRule":
			c.UpdateRule, err = strconv.Atoi(value)
		case "agent":
			c.Agent, err = strconv.Atoi(value)
		case "trueModel":
			c.TrueModel, err = strconv.ParseBool(value)
		case "learnSteps":
			c.LearnSteps, err = strconv.Atoi(value)
		case "testSteps":
			c.TestSteps, err = strconv.Atoi(value)
		case "gamesPerEval":
			c.GamesPerEval, err = strconv.Atoi(value)
		case "nPredictionTests":
			c.NPredictionTests, err = strconv.Atoi(value)
		case "w":
			c.Width, err = strconv.Atoi(value)
		case "h":
			c.Height, err = strconv.Atoi(value)
		case "visual":
			c.Visual, err = strconv.ParseBool(value)
		case "lutSizeLimit":
			c.LUTSizeLimit, err = strconv.Atoi(value)
		case "diceRoll":
			c.DiceRoll, err = strconv.ParseBool(value)
		case "nReps":
			c.NReps, err = strconv.Atoi(value)
		case "lutSize":
			c.LUTSize, err = strconv.Atoi(value)
		case "seed":
			c.Seed, err = strconv.ParseInt(value, 10, 64)
		case "rule":
			c.Rule = value
		case "radius":
			c.Radius, err = strconv.Atoi(value)
		case "gameLength":
			c.GameLength, err = strconv.Atoi(value)
		case "evalCycles":
			c.EvalCycles, err = strconv.Atoi(value)
		case "rewardFactor":
			c.RewardFactor, err = strconv.ParseFloat(value, 64)
		case "flipChance":
			c.FlipChance, err = strconv.ParseFloat(value, 64)
		case "workers":
			c.Workers, err = strconv.Atoi(value)
		default:
			return base, fmt.Errorf("%w: unknown parameter %q", ErrConfiguration, key)
		}
		if err != nil {
			return base, fmt.Errorf("%w: parameter %s=%q: %v", ErrConfiguration, key, value, err)
		}
	}
	return c, nil
}

// Validate reports the first invalid setting wrapped in ErrConfiguration.
func (c Config) Validate() error {
	if c.NReps <= 0 {
		return fmt.Errorf("%w: nReps %d must be positive", ErrConfiguration, c.NReps)
	}
	if c.LearnSteps < 0 || c.TestSteps < 0 || c.NPredictionTests < 0 {
		return fmt.Errorf("%w: step counts must not be negative", ErrConfiguration)
	}
	if c.GamesPerEval <= 0 {
		return fmt.Errorf("%w: gamesPerEval %d must be positive", ErrConfiguration, c.GamesPerEval)
	}
	if c.GameLength <= 0 {
		return fmt.Errorf("%w: gameLength %d must be positive", ErrConfiguration, c.GameLength)
	}
	if c.EvalCycles <= 0 {
		return fmt.Errorf("%w: evalCycles %d must be positive", ErrConfiguration, c.EvalCycles)
	}
	if _, ok := core.LookupRule(c.Rule); !ok {
		return fmt.Errorf("%w: unknown rule %q (have %v)", ErrConfiguration, c.Rule, core.RuleNames())
	}
	if err := c.GameConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := c.AgentConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// GameConfig derives the game parameters.
func (c Config) GameConfig() gridgame.Config {
	g := gridgame.DefaultConfig()
	g.Width = c.Width
	g.Height = c.Height
	g.GameLength = c.GameLength
	g.RewardFactor = c.RewardFactor
	g.DiceRoll = c.DiceRoll
	g.FlipChance = c.FlipChance
	g.TrueModel = c.TrueModel
	g.Radius = c.Radius
	return g
}

// AgentConfig derives the agent parameters.
func (c Config) AgentConfig() agent.Config {
	a := agent.DefaultConfig()
	a.Rule = agent.UpdateRule(c.UpdateRule)
	a.Kind = agent.Kind(c.Agent)
	a.TrueModel = c.TrueModel
	a.LUTSizeLimit = c.LUTSizeLimit
	a.LUTSize = c.LUTSize
	a.Radius = c.Radius
	return a
}

// Parameters groups the configuration for display and result headers.
func (c Config) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Agent",
			Params: []core.Parameter{
				core.IntParam("updateRule", "Update rule", c.UpdateRule),
				core.IntParam("agent", "Agent", c.Agent),
				core.BoolParam("trueModel", "True model", c.TrueModel),
				core.IntParam("lutSizeLimit", "LUT size limit", c.LUTSizeLimit),
				core.IntParam("lutSize", "LUT size", c.LUTSize),
				core.IntParam("radius", "Pattern radius", c.Radius),
			},
		},
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", c.Width),
				core.IntParam("h", "Height", c.Height),
				core.StringParam("rule", "Rule", c.Rule),
				core.BoolParam("diceRoll", "Dice roll", c.DiceRoll),
				core.FloatParam("flipChance", "Flip chance", c.FlipChance),
				core.FloatParam("rewardFactor", "Reward factor", c.RewardFactor),
			},
		},
		{
			Name: "Schedule",
			Params: []core.Parameter{
				core.IntParam("learnSteps", "Learn steps", c.LearnSteps),
				core.IntParam("testSteps", "Test steps", c.TestSteps),
				core.IntParam("gamesPerEval", "Games per eval", c.GamesPerEval),
				core.IntParam("gameLength", "Game length", c.GameLength),
				core.IntParam("evalCycles", "Eval cycles", c.EvalCycles),
				core.IntParam("nPredictionTests", "Prediction tests", c.NPredictionTests),
				core.IntParam("nReps", "Repetitions", c.NReps),
				core.Int64Param("seed", "Seed", c.Seed),
			},
		},
	}}
}
