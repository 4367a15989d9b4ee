package world

import (
	"github.com/nstehr/warren/model"
)

// Snapshot validates actions against a single tick's state and records the
// accepted ones as intents. Requisitions spend zone energy immediately so
// later requests in the same tick see the reduced budget.
type Snapshot struct {
	state   *model.WorldState
	intents []Intent
	names   map[string]bool
}

// NewSnapshot indexes state and wraps it.
func NewSnapshot(state *model.WorldState) *Snapshot {
	state.Index()
	names := make(map[string]bool, len(state.Agents))
	for _, a := range state.Agents {
		names[a.Name] = true
	}
	return &Snapshot{state: state, names: names}
}

func (s *Snapshot) State() *model.WorldState { return s.state }

// Intents returns everything accepted so far, in call order.
func (s *Snapshot) Intents() []Intent { return s.intents }

func (s *Snapshot) record(in Intent) model.Result {
	s.intents = append(s.intents, in)
	return model.OK
}

// actor resolves the agent and checks it has the capability.
func (s *Snapshot) actor(agentID string, c model.Capability) (*model.Agent, model.Result) {
	a := s.state.Agent(agentID)
	if a == nil || a.Spawning {
		return nil, model.ErrBusy
	}
	if !a.Has(c) {
		return nil, model.ErrNoBodyPart
	}
	return a, model.OK
}

func (s *Snapshot) Move(agentID string, to model.Position) model.Result {
	a, res := s.actor(agentID, model.Move)
	if res != model.OK {
		return res
	}
	if a.Fatigue > 0 {
		return model.ErrTired
	}
	// Zones outside the frame are fine; the game does the pathing.
	if to.Zone == "" {
		return model.ErrNoPath
	}
	return s.record(Intent{Action: ActionMove, Agent: agentID, Pos: &to})
}

func (s *Snapshot) Harvest(agentID, nodeID string) model.Result {
	a, res := s.actor(agentID, model.Work)
	if res != model.OK {
		return res
	}
	n := s.state.Node(nodeID)
	switch {
	case n == nil:
		return model.ErrInvalidTarget
	case n.Amount <= 0:
		return model.ErrNotEnough
	case a.Pos.Range(n.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionHarvest, Agent: agentID, Target: nodeID})
}

func (s *Snapshot) Transfer(agentID, targetID string) model.Result {
	a, res := s.actor(agentID, model.Carry)
	if res != model.OK {
		return res
	}
	t := s.state.Structure(targetID)
	switch {
	case t == nil:
		return model.ErrInvalidTarget
	case a.Store.Used == 0:
		return model.ErrNotEnough
	case t.Store.Free() == 0:
		return model.ErrFull
	case a.Pos.Range(t.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionTransfer, Agent: agentID, Target: targetID})
}

func (s *Snapshot) Withdraw(agentID, targetID string) model.Result {
	a, res := s.actor(agentID, model.Carry)
	if res != model.OK {
		return res
	}
	t := s.state.Structure(targetID)
	switch {
	case t == nil:
		return model.ErrInvalidTarget
	case a.Store.Free() == 0:
		return model.ErrFull
	case t.Store.Used == 0:
		return model.ErrNotEnough
	case a.Pos.Range(t.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionWithdraw, Agent: agentID, Target: targetID})
}

func (s *Snapshot) Build(agentID, siteID string) model.Result {
	a, res := s.actor(agentID, model.Work)
	if res != model.OK {
		return res
	}
	site := s.state.Site(siteID)
	switch {
	case site == nil:
		return model.ErrInvalidTarget
	case a.Store.Used == 0:
		return model.ErrNotEnough
	case a.Pos.Range(site.Pos) > WorkRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionBuild, Agent: agentID, Target: siteID})
}

func (s *Snapshot) Repair(agentID, structureID string) model.Result {
	a, res := s.actor(agentID, model.Work)
	if res != model.OK {
		return res
	}
	t := s.state.Structure(structureID)
	switch {
	case t == nil || t.HitsMax == 0:
		return model.ErrInvalidTarget
	case a.Store.Used == 0:
		return model.ErrNotEnough
	case a.Pos.Range(t.Pos) > WorkRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionRepair, Agent: agentID, Target: structureID})
}

func (s *Snapshot) Attack(agentID, hostileID string) model.Result {
	a, res := s.actor(agentID, model.Attack)
	if res != model.OK {
		return res
	}
	h := s.state.Hostile(hostileID)
	switch {
	case h == nil:
		return model.ErrInvalidTarget
	case a.Pos.Range(h.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionAttack, Agent: agentID, Target: hostileID})
}

func (s *Snapshot) Heal(agentID, targetID string) model.Result {
	a, res := s.actor(agentID, model.Heal)
	if res != model.OK {
		return res
	}
	t := s.state.Agent(targetID)
	switch {
	case t == nil:
		return model.ErrInvalidTarget
	case a.Pos.Range(t.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionHeal, Agent: agentID, Target: targetID})
}

func (s *Snapshot) Claim(agentID, controllerID string) model.Result {
	a, res := s.actor(agentID, model.Claim)
	if res != model.OK {
		return res
	}
	c := s.state.Controller(controllerID)
	switch {
	case c == nil || c.Claimed():
		return model.ErrInvalidTarget
	case a.Pos.Range(c.Pos) > TouchRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionClaim, Agent: agentID, Target: controllerID})
}

func (s *Snapshot) Upgrade(agentID, controllerID string) model.Result {
	a, res := s.actor(agentID, model.Work)
	if res != model.OK {
		return res
	}
	c := s.state.Controller(controllerID)
	switch {
	case c == nil:
		return model.ErrInvalidTarget
	case !c.Mine:
		return model.ErrNotOwner
	case a.Store.Used == 0:
		return model.ErrNotEnough
	case a.Pos.Range(c.Pos) > WorkRange:
		return model.ErrNotInRange
	}
	return s.record(Intent{Action: ActionUpgrade, Agent: agentID, Target: controllerID})
}

func (s *Snapshot) RelayTransfer(fromID, toID string) model.Result {
	from, to := s.state.Structure(fromID), s.state.Structure(toID)
	switch {
	case from == nil || to == nil || from.Kind != model.KindRelay || to.Kind != model.KindRelay:
		return model.ErrInvalidTarget
	case !from.Mine:
		return model.ErrNotOwner
	case from.Store.Used == 0:
		return model.ErrNotEnough
	case to.Store.Free() == 0:
		return model.ErrFull
	}
	return s.record(Intent{Action: ActionRelayTransfer, Agent: fromID, Target: toID})
}

func (s *Snapshot) Requisition(sourceID, name string, body model.Loadout) model.Result {
	src := s.state.Structure(sourceID)
	if src == nil || src.Kind != model.KindSpawn || !src.Mine {
		return model.ErrInvalidTarget
	}
	if src.Spawning {
		return model.ErrBusy
	}
	if s.names[name] {
		return model.ErrNameExists
	}
	z := s.state.Zone(src.Pos.Zone)
	cost := body.Cost()
	if z == nil || z.EnergyAvailable < cost {
		return model.ErrNotEnough
	}
	z.EnergyAvailable -= cost
	src.Spawning = true
	s.names[name] = true
	return s.record(Intent{Action: ActionRequisition, Target: sourceID, Name: name, Body: body})
}

func (s *Snapshot) RemoveDirective(name string) {
	s.record(Intent{Action: ActionRemoveDirective, Name: name})
}
