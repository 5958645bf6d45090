// Package rules provides Life-like transition rules for binary grids.
package rules

import (
	"fmt"
	"strings"

	"gridlearn/internal/core"
)

// LifeLike is an outer-totalistic rule: the next value depends on the cell's
// own value and the number of live cells among its eight neighbours.
type LifeLike struct {
	name    string
	birth   [9]bool
	survive [9]bool
}

// Parse builds a rule from a rulestring such as "B3/S23".
func Parse(name, rulestring string) (*LifeLike, error) {
	r := &LifeLike{name: name}
	for _, part := range strings.Split(strings.ToUpper(rulestring), "/") {
		if part == "" {
			continue
		}
		var dst *[9]bool
		switch part[0] {
		case 'B':
			dst = &r.birth
		case 'S':
			dst = &r.survive
		default:
			return nil, fmt.Errorf("rulestring %q: unexpected section %q", rulestring, part)
		}
		for _, ch := range part[1:] {
			if ch < '0' || ch > '8' {
				return nil, fmt.Errorf("rulestring %q: bad neighbour count %q", rulestring, ch)
			}
			dst[ch-'0'] = true
		}
	}
	return r, nil
}

// MustParse is Parse for package-level rule tables.
func MustParse(name, rulestring string) *LifeLike {
	r, err := Parse(name, rulestring)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the registered rule name.
func (r *LifeLike) Name() string { return r.name }

// Next returns the next value for a cell given its state and live neighbour count.
func (r *LifeLike) Next(centre uint8, neighbours int) uint8 {
	if neighbours < 0 || neighbours > 8 {
		return 0
	}
	if centre != 0 {
		if r.survive[neighbours] {
			return 1
		}
		return 0
	}
	if r.birth[neighbours] {
		return 1
	}
	return 0
}

// CellUpdate implements core.Rule over the toroidal Moore neighbourhood.
func (r *LifeLike) CellUpdate(g *core.Grid, x, y int) uint8 {
	neighbours := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			neighbours += int(g.At(x+dx, y+dy))
		}
	}
	return r.Next(g.At(x, y), neighbours)
}

// PatternUpdate evaluates the rule on a neighbourhood pattern code of the
// given radius (bit i set means cell i of the row-major window is alive).
// Only the Moore ring around the centre contributes.
func (r *LifeLike) PatternUpdate(pattern uint32, radius int) uint8 {
	side := 2*radius + 1
	centre := radius*side + radius
	neighbours := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			bit := (radius+dy)*side + (radius + dx)
			neighbours += int((pattern >> uint(bit)) & 1)
		}
	}
	return r.Next(uint8((pattern>>uint(centre))&1), neighbours)
}

var registered = map[string]string{
	"life":     "B3/S23",
	"highlife": "B36/S23",
	"seeds":    "B2/S",
	"daynight": "B3678/S34678",
	"cave":     "B5678/S45678",
}

func init() {
	for name, rs := range registered {
		name, rs := name, rs
		core.RegisterRule(name, func() core.Rule { return MustParse(name, rs) })
	}
}
