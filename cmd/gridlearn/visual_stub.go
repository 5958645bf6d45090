//go:build !ebiten

package main

import (
	"context"
	"os"

	"gridlearn/internal/experiment"
	"gridlearn/internal/render"
)

// runVisual prints repetition 0 to the terminal. Build with the ebiten tag
// for the windowed viewer.
func runVisual(ctx context.Context, cfg experiment.Config, opts []experiment.Option, view viewOptions) (*experiment.Report, error) {
	term := render.NewPacedTerminal(os.Stdout, view.color, view.fps)
	return run(ctx, cfg, append(opts, experiment.WithObserver(term)))
}
