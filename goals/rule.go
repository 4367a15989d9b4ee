package goals

import (
	"fmt"

	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/spawn"
)

// Rule is a compiled template: a goal shape plus the count expression that
// sizes it for a zone.
type Rule struct {
	Name     string // archetype
	Priority int    // higher = offered to the spawn controller first
	CountSrc string // expr source (preserved for config output)
	program  *vm.Program
	goal     spawn.Goal
}

// Compile turns templates into rules. The expressions themselves are compiled
// by NewEngine / Swap.
func Compile(templates []Template) ([]*Rule, error) {
	out := make([]*Rule, 0, len(templates))
	for _, t := range templates {
		t.Validate()
		if t.Archetype == "" {
			return nil, fmt.Errorf("template with count %q has no archetype", t.Count)
		}
		if t.Count == "" {
			return nil, fmt.Errorf("template %q: empty count", t.Archetype)
		}
		loadout, err := parseLoadout(t.Loadout)
		if err != nil {
			return nil, fmt.Errorf("template %q loadout: %w", t.Archetype, err)
		}
		if len(loadout) == 0 {
			return nil, fmt.Errorf("template %q: empty loadout", t.Archetype)
		}
		additive, err := parseLoadout(t.Additive)
		if err != nil {
			return nil, fmt.Errorf("template %q additive: %w", t.Archetype, err)
		}
		out = append(out, &Rule{
			Name:     t.Archetype,
			Priority: t.Priority,
			CountSrc: t.Count,
			goal: spawn.Goal{
				Archetype:    t.Archetype,
				Loadout:      loadout,
				Additive:     additive,
				MaxAdditions: t.MaxAdditions,
				NodeScaling:  t.NodeScaling,
				Global:       t.Global,
			},
		})
	}
	return out, nil
}

func parseLoadout(names []string) (model.Loadout, error) {
	var out model.Loadout
	for _, n := range names {
		c, ok := model.ParseCapability(n)
		if !ok {
			return nil, fmt.Errorf("unknown capability %q", n)
		}
		out = append(out, c)
	}
	return out, nil
}
