package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"gridlearn/internal/experiment"
	"gridlearn/internal/results"
)

type viewOptions struct {
	scale    int
	hudWidth int
	fps      int
	color    bool
}

func main() {
	cfg := experiment.DefaultConfig()
	cfg.Bind(flag.CommandLine)
	out := flag.String("out", "", "result file (default: name derived from the parameters)")
	chart := flag.String("chart", "", "write an HTML summary chart to this path")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	var view viewOptions
	flag.IntVar(&view.scale, "scale", 16, "pixels per cell in the GUI viewer")
	flag.IntVar(&view.hudWidth, "hud", 240, "width of the GUI parameter panel")
	flag.IntVar(&view.fps, "fps", 10, "terminal viewer frames per second")
	flag.BoolVar(&view.color, "color", true, "colour terminal output")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "gridlearn"})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("invalid log level", "level", *level, "err", err)
	}
	logger.SetLevel(lvl)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []experiment.Option{experiment.WithLogger(logger)}
	var report *experiment.Report
	if cfg.Visual {
		report, err = runVisual(ctx, cfg, opts, view)
	} else {
		report, err = run(ctx, cfg, opts)
	}
	switch {
	case errors.Is(err, experiment.ErrConfiguration):
		logger.Fatal("invalid configuration", "err", err)
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted, writing partial results", "err", err)
	case err != nil:
		logger.Fatal("experiment failed", "err", err)
	}
	if report == nil || report.Completed == 0 {
		logger.Fatal("no repetition completed")
	}

	name := *out
	if name == "" {
		name = results.FileName(cfg)
	}
	if err := writeResults(name, report); err != nil {
		logger.Fatal("writing results", "file", name, "err", err)
	}
	reward, predErr := report.Overall()
	logger.Info("results written", "file", name, "rows", len(report.Records),
		"reward", reward.Mean, "rewardStdErr", reward.StdErr,
		"predictionError", predErr.Mean, "predictionErrorStdErr", predErr.StdErr)

	if *chart != "" {
		if err := writeChart(*chart, report); err != nil {
			logger.Fatal("writing chart", "file", *chart, "err", err)
		}
		logger.Info("chart written", "file", *chart)
	}
}

func run(ctx context.Context, cfg experiment.Config, opts []experiment.Option) (*experiment.Report, error) {
	e, err := experiment.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

func writeResults(name string, report *experiment.Report) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := results.NewWriter(f).Report(report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeChart(name string, report *experiment.Report) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := results.SummaryChart(f, "gridlearn "+report.RunID[:8], report.Summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
