//go:build ebiten

package app

import (
	"image/color"

	"gridlearn/internal/core"
	"gridlearn/internal/render"
	"gridlearn/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game shows a running experiment through its Feed.
type Game struct {
	feed    *Feed
	size    core.Size
	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay

	onColor  color.Color
	offColor color.Color

	scale    int
	hudWidth int
}

// New constructs a viewer for a grid of the given size. params is shown in
// the side panel.
func New(feed *Feed, params core.ParameterSnapshot, size core.Size, scale, hudWidth int) *Game {
	if scale <= 0 {
		scale = 1
	}
	return &Game{
		feed:     feed,
		size:     size,
		painter:  render.NewGridPainter(size.W, size.H),
		hud:      ui.NewHUD(params, size, hudWidth),
		overlay:  ui.NewOverlay(size, scale),
		onColor:  color.White,
		offColor: color.Black,
		scale:    scale,
		hudWidth: hudWidth,
	}
}

// Update handles input. The experiment advances on its own goroutine.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.feed.Close()
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.feed.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.feed.SetPaused(false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.feed.Step()
	}
	g.overlay.Update()
	status, _ := g.feed.Latest()
	g.hud.SetStatus(status.Lines())
	return nil
}

// Draw renders the latest frame, the prediction overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	_, snap := g.feed.Latest()
	g.painter.Blit(screen, snap.Cells, g.onColor, g.offColor, g.scale)
	truth, predicted, ok := g.feed.Prediction()
	if ok {
		g.overlay.Draw(screen, truth, predicted)
	}
	g.hud.Draw(screen, g.size.W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.size.W*g.scale + g.hudWidth, g.size.H * g.scale
}
