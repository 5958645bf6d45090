// Package lut implements the bounded lookup table that stands in for a
// function approximator: neighbourhood patterns map to learned estimates.
package lut

import (
	"fmt"
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"gridlearn/internal/core"
)

// MaxRadius bounds the neighbourhood radius so a pattern fits in 32 bits.
const MaxRadius = 2

// Estimate is the learned value for one pattern.
type Estimate struct {
	// P is the estimated probability that the centre cell is alive next tick.
	P float64
	// Count is the number of observations folded into P.
	Count int
	// Trace is the eligibility of the pattern for multi-step updates.
	Trace float64
	// Target is the most recently observed outcome, averaged over the
	// occurrences of the pattern in one update batch.
	Target float64
}

// Table is a lookup table holding at most Limit entries (0 = unbounded).
// When full, inserting a new key evicts the least recently updated one.
// Lookups never change the eviction order.
type Table struct {
	limit     int
	hint      int
	entries   *simplelru.LRU[uint32, *Estimate]
	evictions int
}

// New creates a table. The table itself ignores sizeHint; it is only kept so
// Hint can hand it back to callers that size per-batch scratch maps.
func New(limit, sizeHint int) (*Table, error) {
	if limit < 0 {
		return nil, fmt.Errorf("lut: negative size limit %d", limit)
	}
	if sizeHint < 0 {
		return nil, fmt.Errorf("lut: negative size hint %d", sizeHint)
	}
	capacity := limit
	if capacity == 0 {
		capacity = math.MaxInt
	}
	t := &Table{limit: limit, hint: sizeHint}
	entries, err := simplelru.NewLRU[uint32, *Estimate](capacity, func(uint32, *Estimate) {
		t.evictions++
	})
	if err != nil {
		return nil, fmt.Errorf("lut: %w", err)
	}
	t.entries = entries
	return t, nil
}

// Lookup returns the estimate for key without touching recency.
func (t *Table) Lookup(key uint32) (Estimate, bool) {
	e, ok := t.entries.Peek(key)
	if !ok {
		return Estimate{}, false
	}
	return *e, true
}

// Update stores v under key and marks key as the most recently updated.
func (t *Table) Update(key uint32, v Estimate) {
	if e, ok := t.entries.Get(key); ok {
		*e = v
		return
	}
	e := v
	t.entries.Add(key, &e)
}

// Range visits entries from least to most recently updated. fn may modify
// the estimate in place; recency is left unchanged. Returning false stops.
func (t *Table) Range(fn func(key uint32, e *Estimate) bool) {
	for _, key := range t.entries.Keys() {
		e, ok := t.entries.Peek(key)
		if !ok {
			continue
		}
		if !fn(key, e) {
			return
		}
	}
}

// Keys lists keys from least to most recently updated.
func (t *Table) Keys() []uint32 { return t.entries.Keys() }

// Len reports the number of stored entries.
func (t *Table) Len() int { return t.entries.Len() }

// Limit returns the configured size limit (0 = unbounded).
func (t *Table) Limit() int { return t.limit }

// Hint returns the size hint given at construction.
func (t *Table) Hint() int { return t.hint }

// Evictions counts entries dropped to honour the limit.
func (t *Table) Evictions() int { return t.evictions }

// Pattern encodes the (2r+1)x(2r+1) toroidal window centred on (x, y) as a
// row-major bit code: bit 0 is the top-left cell.
func Pattern(g *core.Grid, x, y, radius int) uint32 {
	var code uint32
	bit := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			code |= uint32(g.At(x+dx, y+dy)) << uint(bit)
			bit++
		}
	}
	return code
}

// PatternCount returns the number of distinct patterns for a radius.
func PatternCount(radius int) int {
	side := 2*radius + 1
	return 1 << uint(side*side)
}

// Centre extracts the centre cell from a pattern code.
func Centre(pattern uint32, radius int) uint8 {
	side := 2*radius + 1
	return uint8((pattern >> uint(radius*side+radius)) & 1)
}
