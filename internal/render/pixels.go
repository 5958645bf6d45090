package render

import (
	"fmt"
	"image/color"

	"gridlearn/internal/core"
)

// Per-cell codes produced by MissMask.
const (
	Match uint8 = iota
	// MissedLive marks a cell that came alive but was predicted dead.
	MissedLive
	// FalseLive marks a cell predicted alive that stayed dead.
	FalseLive
)

// FillBinaryRGBA converts binary cell data (0/1) into RGBA pixels in buf.
func FillBinaryRGBA(buf []byte, cells []uint8, on, off color.Color) {
	rOn, gOn, bOn, aOn := on.RGBA()
	rOff, gOff, bOff, aOff := off.RGBA()
	for i, c := range cells {
		base := i * 4
		if c != 0 {
			buf[base+0] = uint8(rOn >> 8)
			buf[base+1] = uint8(gOn >> 8)
			buf[base+2] = uint8(bOn >> 8)
			buf[base+3] = uint8(aOn >> 8)
			continue
		}
		buf[base+0] = uint8(rOff >> 8)
		buf[base+1] = uint8(gOff >> 8)
		buf[base+2] = uint8(bOff >> 8)
		buf[base+3] = uint8(aOff >> 8)
	}
}

// FillPaletteRGBA converts cell codes into RGBA pixels using a palette. Codes
// past the end of the palette use its last colour; an empty palette clears
// the buffer to transparent black.
func FillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}
	last := len(palette) - 1
	for i, c := range cells {
		col := palette[min(int(c), last)]
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// MissMask compares a prediction with the true grid cell by cell.
func MissMask(truth, predicted core.Snapshot) ([]uint8, error) {
	if truth.W != predicted.W || truth.H != predicted.H || len(truth.Cells) != len(predicted.Cells) {
		return nil, fmt.Errorf("truth %dx%d, prediction %dx%d: %w",
			truth.W, truth.H, predicted.W, predicted.H, core.ErrOutOfRange)
	}
	mask := make([]uint8, len(truth.Cells))
	for i, c := range truth.Cells {
		switch p := predicted.Cells[i]; {
		case c == p:
		case c != 0:
			mask[i] = MissedLive
		default:
			mask[i] = FalseLive
		}
	}
	return mask, nil
}
