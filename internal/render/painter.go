//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads cell buffers to a grid-sized image and scales it onto
// the screen.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a w x h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{w: w, h: h, img: ebiten.NewImage(w, h), buf: make([]byte, 4*w*h)}
}

// Blit draws binary cells in on/off colours.
func (p *GridPainter) Blit(screen *ebiten.Image, cells []uint8, on, off color.Color, scale int) {
	if len(cells) != p.w*p.h {
		return
	}
	FillBinaryRGBA(p.buf, cells, on, off)
	p.draw(screen, scale)
}

// BlitPalette draws cell codes through palette, e.g. a MissMask.
func (p *GridPainter) BlitPalette(screen *ebiten.Image, cells []uint8, palette []color.RGBA, scale int) {
	if len(cells) != p.w*p.h {
		return
	}
	FillPaletteRGBA(p.buf, cells, palette)
	p.draw(screen, scale)
}

func (p *GridPainter) draw(screen *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	p.img.ReplacePixels(p.buf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(p.img, op)
}
