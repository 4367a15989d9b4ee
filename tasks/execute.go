package tasks

import (
	"log/slog"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/world"
)

// Verdict is what a task reports after one step.
type Verdict int

const (
	Continue Verdict = iota
	Complete
	Cancel
	Switch
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	case Cancel:
		return "cancel"
	case Switch:
		return "switch"
	}
	return "unknown"
}

// Outcome is the result of Execute. Next is set only for Switch.
type Outcome struct {
	Verdict Verdict
	Next    *TaskList
}

var (
	keepGoing = Outcome{Verdict: Continue}
	complete  = Outcome{Verdict: Complete}
	cancel    = Outcome{Verdict: Cancel}
)

func switchTo(l *TaskList) Outcome { return Outcome{Verdict: Switch, Next: l} }

// Execute performs exactly one step of the task for agent a.
func (t *Task) Execute(w world.World, a *model.Agent) Outcome {
	if a.TicksToLive > 0 && a.TicksToLive <= ExpiryTicks {
		slog.Debug("task expired", "agent", a.Name, "task", t, "ttl", a.TicksToLive)
		return cancel
	}

	switch t.Kind {
	case KindAttack:
		return t.attack(w, a)
	case KindBuild:
		return t.build(w, a)
	case KindHarvest:
		return t.harvest(w, a)
	case KindHeal:
		return t.heal(w, a)
	case KindRepair:
		return t.repair(w, a)
	case KindTransfer:
		return t.transfer(w, a)
	case KindUpgrade:
		return t.upgrade(w, a)
	case KindTravel:
		return t.travel(w, a)
	case KindClaim:
		return t.claim(w, a)
	case KindWithdraw:
		return t.withdraw(w, a)
	case KindIdle:
		if t.Ticks <= 0 {
			return complete
		}
		t.Ticks--
		return keepGoing
	case KindIdleUntil:
		if t.Until.Holds(w.State(), a) {
			return complete
		}
		return keepGoing
	}
	return cancel
}

// moveTo issues a move and tracks consecutive failures. Tired is transient
// and resets the counter.
func (t *Task) moveTo(w world.World, a *model.Agent, to model.Position) Outcome {
	res := w.Move(a.ID, to)
	if res == model.OK || res == model.ErrTired {
		t.moveFailures = 0
		return keepGoing
	}
	t.moveFailures++
	slog.Debug("move failed", "agent", a.Name, "task", t, "result", res, "failures", t.moveFailures)
	if t.moveFailures >= MaxMoveFailures {
		return cancel
	}
	return keepGoing
}

// act interprets the result of a ranged action: out of range moves closer,
// anything else but success cancels.
func (t *Task) act(w world.World, a *model.Agent, res model.Result, target model.Position) Outcome {
	switch res {
	case model.OK:
		return keepGoing
	case model.ErrNotInRange:
		return t.moveTo(w, a, target)
	case model.ErrTired:
		return keepGoing
	}
	slog.Debug("action rejected", "agent", a.Name, "task", t, "result", res)
	return cancel
}

func (t *Task) attack(w world.World, a *model.Agent) Outcome {
	h := w.State().Hostile(t.Target)
	if h == nil {
		return cancel
	}
	if h.Hits <= 0 {
		return complete
	}
	if a.Pos.Range(h.Pos) <= world.TouchRange {
		return t.act(w, a, w.Attack(a.ID, h.ID), h.Pos)
	}
	return t.moveTo(w, a, h.Pos)
}

func (t *Task) build(w world.World, a *model.Agent) Outcome {
	if a.Store.Used == 0 {
		return complete
	}
	site := w.State().Site(t.Target)
	if site == nil {
		return cancel
	}
	return t.act(w, a, w.Build(a.ID, site.ID), site.Pos)
}

func (t *Task) heal(w world.World, a *model.Agent) Outcome {
	patient := w.State().Agent(t.Target)
	if patient == nil {
		return cancel
	}
	if patient.Hits >= patient.HitsMax {
		return complete
	}
	if a.Pos.Range(patient.Pos) <= world.TouchRange {
		return t.act(w, a, w.Heal(a.ID, patient.ID), patient.Pos)
	}
	return t.moveTo(w, a, patient.Pos)
}

func (t *Task) repair(w world.World, a *model.Agent) Outcome {
	if a.Store.Used == 0 {
		return complete
	}
	s := w.State().Structure(t.Target)
	if s == nil {
		return cancel
	}
	if s.Hits >= s.HitsMax {
		return complete
	}
	return t.act(w, a, w.Repair(a.ID, s.ID), s.Pos)
}

func (t *Task) transfer(w world.World, a *model.Agent) Outcome {
	if a.Store.Used == 0 {
		return complete
	}
	s := w.State().Structure(t.Target)
	if s == nil {
		return cancel
	}
	if a.Pos.Range(s.Pos) <= world.TouchRange {
		return t.act(w, a, w.Transfer(a.ID, s.ID), s.Pos)
	}
	return t.moveTo(w, a, s.Pos)
}

func (t *Task) upgrade(w world.World, a *model.Agent) Outcome {
	if a.Store.Used == 0 {
		return complete
	}
	c := w.State().Controller(t.Target)
	if c == nil {
		return cancel
	}
	return t.act(w, a, w.Upgrade(a.ID, c.ID), c.Pos)
}

func (t *Task) travel(w world.World, a *model.Agent) Outcome {
	if a.Pos.Range(t.Pos) <= world.TouchRange {
		return complete
	}
	return t.moveTo(w, a, t.Pos)
}

func (t *Task) claim(w world.World, a *model.Agent) Outcome {
	z := w.State().Zone(t.Pos.Zone)
	if z != nil && z.Owned() {
		return complete
	}
	if a.Pos.Zone != t.Pos.Zone || z == nil {
		return t.moveTo(w, a, t.Pos)
	}
	c := z.Controller
	if c == nil {
		return cancel
	}
	if a.Pos.Range(c.Pos) <= world.TouchRange {
		return t.act(w, a, w.Claim(a.ID, c.ID), c.Pos)
	}
	return t.moveTo(w, a, c.Pos)
}

func (t *Task) withdraw(w world.World, a *model.Agent) Outcome {
	s := w.State().Structure(t.Target)
	if s == nil {
		return cancel
	}
	if a.Store.Free() == 0 || s.Store.Used == 0 {
		if a.Store.Used == 0 {
			return cancel
		}
		if t.Then != nil {
			return switchTo(Single(t.Then))
		}
		return complete
	}
	if a.Pos.Range(s.Pos) <= world.TouchRange {
		return t.act(w, a, w.Withdraw(a.ID, s.ID), s.Pos)
	}
	return t.moveTo(w, a, s.Pos)
}

func (t *Task) harvest(w world.World, a *model.Agent) Outcome {
	st := w.State()
	node := st.Node(t.Target)
	if node == nil {
		return cancel
	}
	if a.Store.Capacity > 0 && a.Store.Free() < HarvestSlack {
		if !t.Deliver {
			return complete
		}
		return t.deliver(st, a, node)
	}
	// Depleted: unload what we have or give the slot back.
	if !node.Active() {
		if t.Deliver && a.Store.Used > 0 {
			return t.deliver(st, a, node)
		}
		return complete
	}
	if a.Pos.Range(node.Pos) <= world.TouchRange {
		return t.act(w, a, w.Harvest(a.ID, node.ID), node.Pos)
	}
	return t.moveTo(w, a, node.Pos)
}

// deliver picks where a full harvester should unload: a source relay next
// to the node first, then the closest station with room.
func (t *Task) deliver(st *model.WorldState, a *model.Agent, node *model.ResourceNode) Outcome {
	z := st.Zone(node.Pos.Zone)
	if z == nil {
		return complete
	}
	if relay := st.RelayNear(z.Relays.Source, node.Pos, RelayReach); relay != nil {
		if a.Archetype() == model.ArchetypeSourceHarvester {
			return switchTo(NewList(false, Transfer(relay.ID), HarvestAndDeliver(node.ID)))
		}
		return switchTo(Single(Transfer(relay.ID)))
	}

	var best *model.Structure
	for i := range z.Structures {
		s := &z.Structures[i]
		if !s.IsStation() || s.Store.Free() == 0 {
			continue
		}
		if best == nil || a.Pos.Range(s.Pos) < a.Pos.Range(best.Pos) {
			best = s
		}
	}
	if best != nil {
		return switchTo(Single(Transfer(best.ID)))
	}
	return complete
}
