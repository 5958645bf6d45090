package experiment

import (
	"errors"
	"flag"
	"math"
	"testing"
)

func TestFromMapOverrides(t *testing.T) {
	cfg, err := FromMap(DefaultConfig(), map[string]string{
		"lutSizeLimit": "64",
		"trueModel":    "true",
		"rule":         "highlife",
		"flipChance":   "0.1",
		"seed":         "7",
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if cfg.LUTSizeLimit != 64 || !cfg.TrueModel || cfg.Rule != "highlife" || cfg.FlipChance != 0.1 || cfg.Seed != 7 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Width != 30 || cfg.TestSteps != 100 {
		t.Fatalf("untouched fields changed: %+v", cfg)
	}
}

func TestFromMapRejectsUnknownAndMalformed(t *testing.T) {
	base := DefaultConfig()
	if _, err := FromMap(base, map[string]string{"bogus": "1"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("unknown key: %v", err)
	}
	got, err := FromMap(base, map[string]string{"nReps": "many"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("malformed value: %v", err)
	}
	if got != base {
		t.Fatalf("failed override should return base")
	}
}

func TestBindParsesFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse([]string{"-updateRule", "1", "-agent", "3", "-w", "12", "-visual=false", "-nReps", "9"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.UpdateRule != 1 || cfg.Agent != 3 || cfg.Width != 12 || cfg.Visual || cfg.NReps != 9 {
		t.Fatalf("flags not bound: %+v", cfg)
	}
}

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	c := DefaultConfig()
	if c.UpdateRule != 0 || c.Agent != 0 || c.TrueModel || c.LearnSteps != 3 || c.TestSteps != 100 ||
		c.GamesPerEval != 1 || c.NPredictionTests != 1 || c.Width != 30 || c.Height != 30 || !c.Visual ||
		c.LUTSizeLimit != 0 || c.DiceRoll || c.NReps != 5 || c.LUTSize != 1 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestParametersCoverFlags(t *testing.T) {
	params := DefaultConfig().Parameters().Flatten()
	keys := map[string]string{}
	for _, p := range params {
		keys[p.Key] = p.Value
	}
	for _, k := range []string{"updateRule", "agent", "trueModel", "learnSteps", "testSteps", "gamesPerEval",
		"nPredictionTests", "w", "h", "lutSizeLimit", "diceRoll", "nReps", "lutSize", "seed"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("parameter %q missing", k)
		}
	}
	if keys["w"] != "30" {
		t.Fatalf("w rendered as %q", keys["w"])
	}
}

func TestAggregateMeanAndStdErr(t *testing.T) {
	records := []Metrics{
		{Rep: 0, Eval: 0, Reward: 1, PredictionError: 0.5},
		{Rep: 0, Eval: 1, Reward: 4},
		{Rep: 1, Eval: 0, Reward: 3, PredictionError: 0.5},
	}
	sum := Aggregate(records)
	if len(sum) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sum))
	}
	if sum[0].Reward.Mean != 2 || math.Abs(sum[0].Reward.StdErr-1) > 1e-12 {
		t.Fatalf("eval 0 reward %+v", sum[0].Reward)
	}
	if sum[0].PredictionError.StdErr != 0 {
		t.Fatalf("identical samples should have zero stderr: %+v", sum[0].PredictionError)
	}
	if sum[1].Reward.N != 1 || sum[1].Reward.StdErr != 0 {
		t.Fatalf("single sample summary %+v", sum[1].Reward)
	}

	r := &Report{Records: records}
	reward, _ := r.Overall()
	// rep 0 averages 2.5, rep 1 averages 3.
	if reward.N != 2 || math.Abs(reward.Mean-2.75) > 1e-12 {
		t.Fatalf("overall reward %+v", reward)
	}
}
