package ui

import (
	"fmt"
	"image/color"

	"gridlearn/internal/core"
	"gridlearn/internal/render"
)

// MissPalette colours render.MissMask codes for the prediction overlay.
var MissPalette = []color.RGBA{
	render.Match:      {},
	render.MissedLive: {R: 230, G: 60, B: 60, A: 200},
	render.FalseLive:  {R: 240, G: 200, B: 40, A: 200},
}

// Lines lays out the HUD text: status lines, then each parameter group.
func Lines(params core.ParameterSnapshot, status []string) []string {
	out := append([]string(nil), status...)
	for _, g := range params.Groups {
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, g.Name)
		for _, p := range g.Params {
			out = append(out, fmt.Sprintf("  %s: %s", p.Label, p.Value))
		}
	}
	return out
}
