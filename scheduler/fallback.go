package scheduler

import (
	"math"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/tasks"
)

const (
	// rallyRange is how close combat agents settle to their rally point.
	rallyRange = 3
	// haulerRefill is how much a storage relay must hold before a hauler returns.
	haulerRefill = 100
)

// fallback produces standing work for an agent that found no candidate.
func (s *Scheduler) fallback(st *model.WorldState, a *model.Agent) *tasks.TaskList {
	zone := st.Zone(a.Pos.Zone)

	if _, ok := pinned[a.Archetype()]; ok {
		if l := s.dedicatedChain(st, zone, a); l != nil {
			return l
		}
		return travelHome(st, zone, a)
	}

	switch {
	case a.Has(model.Attack):
		return rally(st, zone, a)
	case a.Has(model.Claim):
		return nil
	}

	if zone == nil || !zone.Owned() {
		return travelHome(st, zone, a)
	}
	if !a.Has(model.Work) || !a.Has(model.Carry) {
		return nil
	}

	ctrl := zone.Controller
	if a.Store.Used > 0 {
		return tasks.Single(tasks.Upgrade(ctrl.ID))
	}
	if storage := st.StockedStorage(zone); storage != nil {
		return tasks.Single(tasks.WithdrawThen(storage.ID, tasks.Upgrade(ctrl.ID)))
	}
	if node := s.bestNode(st, zone, a); node != nil {
		return tasks.Single(tasks.HarvestAndDeliver(node.ID))
	}
	return nil
}

// dedicatedChain builds the repeating job for pinned archetypes.
func (s *Scheduler) dedicatedChain(st *model.WorldState, z *model.Zone, a *model.Agent) *tasks.TaskList {
	if z == nil || !z.Owned() {
		return nil
	}
	switch a.Archetype() {
	case model.ArchetypeSourceHarvester:
		var node *model.ResourceNode
		var relay *model.Structure
		for i := range z.Nodes {
			n := &z.Nodes[i]
			r := st.RelayNear(z.Relays.Source, n.Pos, tasks.RelayReach)
			if r == nil || s.harvesterOn(st, n.ID) {
				continue
			}
			if node == nil || a.Pos.Range(n.Pos) < a.Pos.Range(node.Pos) {
				node, relay = n, r
			}
		}
		if node == nil {
			return nil
		}
		return tasks.NewList(true, tasks.Harvest(node.ID), tasks.Transfer(relay.ID))

	case model.ArchetypeUpgrader:
		relay := st.RelayNear(z.Relays.Controller, z.Controller.Pos, tasks.RelayReach)
		if relay == nil {
			return nil
		}
		return tasks.NewList(true,
			tasks.Withdraw(relay.ID),
			tasks.Upgrade(z.Controller.ID),
			tasks.IdleUntil(tasks.Stocked(relay.ID, 1)),
		).WithPrimary(1)

	case model.ArchetypeStorager:
		for _, id := range z.Relays.Storage {
			relay := st.Structure(id)
			if relay == nil {
				continue
			}
			if dst := storageNear(z, relay.Pos); dst != nil {
				return tasks.NewList(true,
					tasks.Withdraw(relay.ID),
					tasks.Transfer(dst.ID),
					tasks.IdleUntil(tasks.Stocked(relay.ID, haulerRefill)),
				)
			}
		}
	}
	return nil
}

// harvesterOn reports whether a source harvester already holds the node.
func (s *Scheduler) harvesterOn(st *model.WorldState, nodeID string) bool {
	for id, l := range s.assignments {
		a := st.Agent(id)
		if a == nil || a.Archetype() != model.ArchetypeSourceHarvester {
			continue
		}
		for _, t := range l.Tasks {
			if t.Kind == tasks.KindHarvest && t.Target == nodeID {
				return true
			}
		}
	}
	return false
}

// bestNode ranks active nodes by crowding and distance. Nodes whose open
// tiles are all taken pay a penalty; nodes a dedicated harvester stands on
// are effectively off limits.
func (s *Scheduler) bestNode(st *model.WorldState, z *model.Zone, a *model.Agent) *model.ResourceNode {
	var best *model.ResourceNode
	bestCost := math.MaxInt
	for i := range z.Nodes {
		n := &z.Nodes[i]
		if !n.Active() {
			continue
		}
		cost := s.occ.At(n.Pos)*10 + a.Pos.Range(n.Pos)
		if st.AgentsNear(n.Pos, 1, "") >= z.Terrain.OpenTilesAround(n.Pos.X, n.Pos.Y) {
			cost += 20
		}
		if st.AgentsNear(n.Pos, 1, model.ArchetypeSourceHarvester) > 0 {
			cost += 1000
		}
		if cost < bestCost {
			best, bestCost = n, cost
		}
	}
	return best
}

// rally keeps combat agents near the defend marker, or near the controller
// when there is none.
func rally(st *model.WorldState, z *model.Zone, a *model.Agent) *tasks.TaskList {
	if d := st.Directive("defend"); d != nil {
		if a.Pos.Range(d.Pos) > rallyRange {
			return tasks.Single(tasks.Travel(d.Pos))
		}
		return nil
	}
	if z == nil || !z.Owned() {
		return travelHome(st, z, a)
	}
	if a.Pos.Range(z.Controller.Pos) > rallyRange {
		return tasks.Single(tasks.Travel(z.Controller.Pos))
	}
	return nil
}

// travelHome sends agents outside our territory to the nearest owned controller.
func travelHome(st *model.WorldState, z *model.Zone, a *model.Agent) *tasks.TaskList {
	if z != nil && z.Owned() {
		return nil
	}
	home := st.NearestOwnedController(a.Pos)
	if home == nil || !a.Has(model.Move) {
		return nil
	}
	return tasks.Single(tasks.Travel(home.Pos))
}
