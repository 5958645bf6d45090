// Package results persists experiment samples as a flat text log and renders
// summary charts.
package results

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gridlearn/internal/experiment"
)

// Columns names the tab-separated fields of a data row.
var Columns = []string{"rep", "eval", "reward", "predictionError"}

// FileName returns the conventional result file name for cfg.
func FileName(cfg experiment.Config) string {
	return fmt.Sprintf("results_updateRule_%d_agent_%d_trueModel_%t_learnSteps_%d_testSteps_%d"+
		"_gamesPerEval_%d_nPredictionTests_%d_w_%d_h_%d_visual_%t_lutSizeLimit_%d_diceRoll_%t"+
		"_nReps_%d_lutSize_%d.txt",
		cfg.UpdateRule, cfg.Agent, cfg.TrueModel, cfg.LearnSteps, cfg.TestSteps,
		cfg.GamesPerEval, cfg.NPredictionTests, cfg.Width, cfg.Height, cfg.Visual, cfg.LUTSizeLimit, cfg.DiceRoll,
		cfg.NReps, cfg.LUTSize)
}

// Writer appends header comments and sample rows to an underlying stream.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Header writes the run id and every parameter as comment lines.
func (w *Writer) Header(runID string, cfg experiment.Config) {
	w.printf("# run %s\n", runID)
	for _, g := range cfg.Parameters().Groups {
		parts := make([]string, 0, len(g.Params))
		for _, p := range g.Params {
			parts = append(parts, p.Key+"="+p.Value)
		}
		w.printf("# %s: %s\n", strings.ToLower(g.Name), strings.Join(parts, " "))
	}
	w.printf("# %s\n", strings.Join(Columns, "\t"))
}

// Record writes one sample row.
func (w *Writer) Record(m experiment.Metrics) {
	w.printf("%d\t%d\t%s\t%s\n", m.Rep, m.Eval, formatFloat(m.Reward), formatFloat(m.PredictionError))
}

// Report writes the header followed by every record in order.
func (w *Writer) Report(r *experiment.Report) error {
	w.Header(r.RunID, r.Config)
	w.printf("# completed %d of %d repetitions\n", r.Completed, r.Requested)
	for _, m := range r.Records {
		w.Record(m)
	}
	return w.Flush()
}

// Flush writes buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Read parses the rows written by Writer, skipping comments and blank lines.
func Read(r io.Reader) ([]experiment.Metrics, error) {
	var out []experiment.Metrics
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != len(Columns) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(Columns), len(fields))
		}
		var m experiment.Metrics
		var err error
		if m.Rep, err = strconv.Atoi(fields[0]); err != nil {
			return nil, fmt.Errorf("line %d rep: %w", line, err)
		}
		if m.Eval, err = strconv.Atoi(fields[1]); err != nil {
			return nil, fmt.Errorf("line %d eval: %w", line, err)
		}
		if m.Reward, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("line %d reward: %w", line, err)
		}
		if m.PredictionError, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return nil, fmt.Errorf("line %d predictionError: %w", line, err)
		}
		out = append(out, m)
	}
	return out, sc.Err()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
