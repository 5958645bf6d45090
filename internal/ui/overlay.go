//go:build ebiten

package ui

import (
	"gridlearn/internal/core"
	"gridlearn/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay highlights the cells the learned model mispredicted in the latest
// prediction test. Key 1 toggles it.
type Overlay struct {
	painter *render.GridPainter
	scale   int
	show    bool
}

// NewOverlay constructs an overlay for a grid of the given size.
func NewOverlay(size core.Size, scale int) *Overlay {
	return &Overlay{painter: render.NewGridPainter(size.W, size.H), scale: scale, show: true}
}

// Update handles the toggle key.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.show = !o.show
	}
}

// Draw paints the miss mask over the grid.
func (o *Overlay) Draw(screen *ebiten.Image, truth, predicted core.Snapshot) {
	if !o.show {
		return
	}
	mask, err := render.MissMask(truth, predicted)
	if err != nil {
		return
	}
	o.painter.BlitPalette(screen, mask, MissPalette, o.scale)
}
