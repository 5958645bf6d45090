package core

import "sort"

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Snapshot is a read-only view of a grid handed to renderers.
type Snapshot struct {
	W, H  int
	Cells []uint8
}

// Size returns the snapshot dimensions.
func (s Snapshot) Size() Size { return Size{W: s.W, H: s.H} }

// RuleFactory constructs a transition rule.
type RuleFactory func() Rule

var rules = map[string]RuleFactory{}

// RegisterRule adds a transition rule factory under the provided name.
func RegisterRule(name string, f RuleFactory) {
	if name == "" || f == nil {
		return
	}
	rules[name] = f
}

// LookupRule returns a fresh rule registered under name.
func LookupRule(name string) (Rule, bool) {
	f, ok := rules[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// RuleNames lists the registered rule names in sorted order.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
