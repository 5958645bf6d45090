//go:build ebiten

package main

import (
	"context"
	"errors"

	"gridlearn/internal/app"
	"gridlearn/internal/core"
	"gridlearn/internal/experiment"

	"github.com/hajimehoshi/ebiten/v2"
)

// runVisual runs the experiment in the background and shows repetition 0
// in a window. Closing the window cancels repetitions not yet started.
func runVisual(ctx context.Context, cfg experiment.Config, opts []experiment.Option, view viewOptions) (*experiment.Report, error) {
	feed := app.NewFeed(0)
	e, err := experiment.New(cfg, append(opts, experiment.WithObserver(feed))...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		report *experiment.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := e.Run(ctx)
		done <- outcome{r, err}
	}()

	size := core.Size{W: cfg.Width, H: cfg.Height}
	game := app.New(feed, cfg.Parameters(), size, view.scale, view.hudWidth)
	ebiten.SetWindowTitle("gridlearn: " + cfg.Rule)
	ebiten.SetWindowSize(size.W*view.scale+view.hudWidth, size.H*view.scale)
	runErr := ebiten.RunGame(game)

	feed.Close()
	cancel()
	res := <-done
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return res.report, runErr
	}
	return res.report, res.err
}
