// Package spawn decides which new agents to requisition each tick.
package spawn

import (
	"github.com/nstehr/warren/model"
)

// Goal is a target population for one archetype. Goals are rebuilt every
// tick and carry no identity of their own.
type Goal struct {
	Archetype    string
	Loadout      model.Loadout
	Additive     model.Loadout
	MaxAdditions int
	// NodeScaling adds Count*(nodes-1)*NodeScaling agents per extra resource node.
	NodeScaling float64
	Count       int
	// Global counts the archetype across every zone instead of per zone.
	Global bool
	// Target, when positive, overrides the computed target count.
	Target int
}

// TargetFor returns the population target for a zone with the given node count.
func (g Goal) TargetFor(nodes int) int {
	if g.Target > 0 {
		return g.Target
	}
	extra := float64(g.Count*(nodes-1)) * g.NodeScaling
	return g.Count + max(0, int(extra))
}

// Body builds the loadout affordable with energy: the base loadout plus as
// many additive copies as fit, each costing one unit of overhead on top of
// its own parts, capped at MaxAdditions. It returns the loadout and the
// number of copies added.
func (g Goal) Body(energy int) (model.Loadout, int) {
	body := append(model.Loadout(nil), g.Loadout...)
	addCost := g.Additive.Cost()
	if addCost == 0 || g.MaxAdditions <= 0 {
		return body, 0
	}
	copies := min((energy-g.Loadout.Cost())/(addCost+1), g.MaxAdditions)
	if copies < 0 {
		copies = 0
	}
	for range copies {
		body = append(body, g.Additive...)
	}
	return body, copies
}
