package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"

	"gridlearn/internal/experiment"
	"gridlearn/internal/results"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	param := flag.String("param", "lutSizeLimit", "integer parameter to sweep")
	from := flag.Int("from", 0, "first value")
	to := flag.Int("to", 512, "last value (inclusive)")
	step := flag.Int("step", 32, "value increment")
	workers := flag.Int("workers", runtime.NumCPU(), "configurations run in parallel")
	chart := flag.String("chart", "", "write an HTML chart of the sweep to this path")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	var overrides kvList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "lut-sweep"})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("invalid log level", "level", *level, "err", err)
	}
	logger.SetLevel(lvl)

	kv := map[string]string{}
	for _, o := range overrides {
		parts := strings.SplitN(o, "=", 2)
		if len(parts) != 2 {
			logger.Fatal("override must be key=value", "set", o)
		}
		kv[parts[0]] = parts[1]
	}
	base, err := experiment.FromMap(experiment.DefaultConfig(), kv)
	if err != nil {
		logger.Fatal("invalid override", "err", err)
	}

	values := experiment.IntRange(*from, *to, *step)
	logger.Info("sweeping", "param", *param, "points", len(values), "workers", *workers, "reps", base.NReps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	points, err := experiment.Sweep(ctx, base, *param, values, *workers,
		experiment.WithLogger(logger.WithPrefix("run")))
	if err != nil && points == nil {
		logger.Fatal("sweep failed", "err", err)
	}
	if err != nil {
		logger.Warn("sweep interrupted", "err", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\treps\treward\tstderr\tpredErr\tstderr\n", *param)
	var chartPoints []results.SweepPoint
	for _, p := range points {
		if p.Report == nil {
			continue
		}
		if p.Err != nil {
			logger.Warn("point incomplete", "value", p.Value, "err", p.Err)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n", p.Value, p.Report.Completed,
			p.Reward.Mean, p.Reward.StdErr, p.PredictionError.Mean, p.PredictionError.StdErr)
		chartPoints = append(chartPoints, results.SweepPoint{
			Label:           p.Value,
			Reward:          p.Reward,
			PredictionError: p.PredictionError,
		})
	}
	tw.Flush()
	logger.Info("sweep finished", "elapsed", time.Since(start).Round(time.Millisecond))

	if *chart != "" {
		f, err := os.Create(*chart)
		if err != nil {
			logger.Fatal("creating chart", "err", err)
		}
		if err := results.SweepChart(f, *param, chartPoints); err != nil {
			f.Close()
			logger.Fatal("writing chart", "err", err)
		}
		if err := f.Close(); err != nil {
			logger.Fatal("closing chart", "err", err)
		}
		logger.Info("chart written", "file", *chart)
	}
}
