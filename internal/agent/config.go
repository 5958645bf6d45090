package agent

import (
	"errors"
	"fmt"
)

// ErrConfiguration reports an invalid agent setup.
var ErrConfiguration = errors.New("invalid agent configuration")

// UpdateRule selects how observed transitions are folded into the table.
type UpdateRule int

const (
	// RuleOneStep keeps the sample average of outcomes per pattern.
	RuleOneStep UpdateRule = iota
	// RuleTrace spreads each update over recently seen patterns with
	// decaying eligibility traces.
	RuleTrace
	// RuleModel copies exact probabilities from the true model.
	RuleModel
)

var ruleNames = map[UpdateRule]string{
	RuleOneStep: "one-step",
	RuleTrace:   "trace",
	RuleModel:   "model",
}

func (r UpdateRule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("UpdateRule(%d)", int(r))
}

// ModelBased reports whether the rule needs the true transition model.
func (r UpdateRule) ModelBased() bool { return r == RuleModel }

// Kind selects the action planner.
type Kind int

const (
	// KindRandom picks uniformly among all actions.
	KindRandom Kind = iota
	// KindDoNothing never touches the grid.
	KindDoNothing
	// KindGreedy does an epsilon-greedy one-step lookahead.
	KindGreedy
	// KindEvo runs rolling-horizon evolution over action sequences.
	KindEvo
)

var kindNames = map[Kind]string{
	KindRandom:    "random",
	KindDoNothing: "do-nothing",
	KindGreedy:    "greedy",
	KindEvo:       "evo",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// EvoParams tunes the rolling-horizon planner.
type EvoParams struct {
	SequenceLength int
	NEvals         int
	MutationProb   float64
	ShiftBuffer    bool
	FlipAtLeastOne bool
}

// Config describes one agent.
type Config struct {
	Rule      UpdateRule
	Kind      Kind
	TrueModel bool

	// LUTSizeLimit caps the table (0 = unbounded).
	LUTSizeLimit int
	// LUTSize is the table size hint and the number of observations an
	// entry needs before predictions rely on it.
	LUTSize int
	Radius  int

	Epsilon float64
	Alpha   float64
	Lambda  float64

	Evo EvoParams
}

// DefaultConfig returns the standard agent configuration.
func DefaultConfig() Config {
	return Config{
		Rule:    RuleOneStep,
		Kind:    KindRandom,
		LUTSize: 1,
		Radius:  1,
		Epsilon: 0.1,
		Alpha:   0.1,
		Lambda:  0.8,
		Evo: EvoParams{
			SequenceLength: 5,
			NEvals:         20,
			MutationProb:   0.2,
			ShiftBuffer:    true,
			FlipAtLeastOne: true,
		},
	}
}

// Validate rejects combinations that cannot run.
func (c Config) Validate() error {
	if _, ok := ruleNames[c.Rule]; !ok {
		return fmt.Errorf("%w: unknown update rule %d", ErrConfiguration, int(c.Rule))
	}
	if _, ok := kindNames[c.Kind]; !ok {
		return fmt.Errorf("%w: unknown agent %d", ErrConfiguration, int(c.Kind))
	}
	if c.Rule.ModelBased() && !c.TrueModel {
		return fmt.Errorf("%w: update rule %s requires the true model", ErrConfiguration, c.Rule)
	}
	if c.LUTSizeLimit < 0 || c.LUTSize < 0 {
		return fmt.Errorf("%w: negative lookup table size", ErrConfiguration)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("%w: epsilon %v outside [0, 1]", ErrConfiguration, c.Epsilon)
	}
	if c.Alpha <= 0 || c.Alpha > 1 || c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("%w: trace parameters alpha=%v lambda=%v", ErrConfiguration, c.Alpha, c.Lambda)
	}
	if c.Kind == KindEvo && (c.Evo.SequenceLength <= 0 || c.Evo.NEvals < 0) {
		return fmt.Errorf("%w: evo sequence length %d, evals %d", ErrConfiguration, c.Evo.SequenceLength, c.Evo.NEvals)
	}
	return nil
}
