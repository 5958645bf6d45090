//go:build ebiten

package ui

import (
	"image/color"

	"gridlearn/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// HUD renders the experiment parameters and status to the right of the grid.
type HUD struct {
	params     core.ParameterSnapshot
	size       core.Size
	width      int
	panel      *ebiten.Image
	lastHeight int
	status     []string
}

// NewHUD constructs a HUD for the provided parameters and panel width.
func NewHUD(params core.ParameterSnapshot, size core.Size, width int) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{params: params, size: size, width: width}
}

// SetStatus replaces the status lines shown above the parameters.
func (h *HUD) SetStatus(lines []string) {
	if h == nil {
		return
	}
	h.status = lines
}

// Draw paints the HUD panel anchored to the right edge of the grid view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	height := h.size.H * scale
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dx() != h.width || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})

	face := basicfont.Face7x13
	y := panelPadding + headerBaseline
	for i, line := range Lines(h.params, h.status) {
		if y > height {
			break
		}
		col := color.RGBA{R: 220, G: 220, B: 230, A: 255}
		if i < len(h.status) {
			col = color.RGBA{R: 200, G: 200, B: 120, A: 255}
		}
		text.Draw(h.panel, line, face, panelPadding, y, col)
		y += lineHeight
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

const (
	panelPadding   = 12
	headerBaseline = 13
	lineHeight     = 16
)
