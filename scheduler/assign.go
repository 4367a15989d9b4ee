package scheduler

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/tasks"
)

// pinned archetypes may only take task lists whose primary task is of this kind.
var pinned = map[string]tasks.Kind{
	model.ArchetypeSourceHarvester: tasks.KindHarvest,
	model.ArchetypeUpgrader:        tasks.KindUpgrade,
	model.ArchetypeStorager:        tasks.KindWithdraw,
}

// assign hands work to every agent without a task list and returns how many
// stayed idle. Agents are visited in ID order.
func (s *Scheduler) assign(st *model.WorldState, p *pools) int {
	var waiting []*model.Agent
	for i := range st.Agents {
		a := &st.Agents[i]
		if a.Spawning || s.assignments[a.ID] != nil {
			continue
		}
		waiting = append(waiting, a)
	}
	slices.SortFunc(waiting, func(x, y *model.Agent) int { return cmp.Compare(x.ID, y.ID) })

	idle := 0
	for _, a := range waiting {
		l, source := s.pick(st, p, a)
		if l == nil {
			idle++
			slog.Debug("no work for agent", "agent", a.Name, "zone", a.Pos.Zone)
			continue
		}
		s.set(st, a, l, source)
	}
	return idle
}

// pick walks the pools in priority order: directives, the agent's own zone,
// other zones where its archetype is not already working, then the default.
func (s *Scheduler) pick(st *model.WorldState, p *pools, a *model.Agent) (*tasks.TaskList, string) {
	if l := s.take(st, &p.directives, a); l != nil {
		return l, SourceDirective
	}
	if pool, ok := p.zones[a.Pos.Zone]; ok {
		l := s.take(st, &pool, a)
		p.zones[a.Pos.Zone] = pool
		if l != nil {
			return l, SourceZone
		}
	}
	arch := a.Archetype()
	for _, zone := range p.order {
		if zone == a.Pos.Zone || s.occ.Working(zone, arch) > 0 {
			continue
		}
		pool := p.zones[zone]
		l := s.take(st, &pool, a)
		p.zones[zone] = pool
		if l != nil {
			return l, SourceRemote
		}
	}
	if l := s.fallback(st, a); l != nil {
		return l, SourceFallback
	}
	return nil, ""
}

// eligible checks capabilities, archetype pinning and the cargo requirement
// of the list's first step.
func eligible(a *model.Agent, l *tasks.TaskList) bool {
	if !a.HasAll(l.RequiredCapabilities()) {
		return false
	}
	if kind, ok := pinned[a.Archetype()]; ok && l.Primary().Kind != kind {
		return false
	}
	if l.Current().RequiresCargo() && a.Store.Used == 0 {
		return false
	}
	return true
}

// take finds the best candidate in pool for a and removes it. Among eligible
// candidates it considers the contiguous run sharing the first match's kind,
// then prefers the closest target (or the lowest repair weight).
func (s *Scheduler) take(st *model.WorldState, pool *[]*tasks.TaskList, a *model.Agent) *tasks.TaskList {
	var run []int
	var kind tasks.Kind
	for i, l := range *pool {
		if !eligible(a, l) {
			continue
		}
		k := l.Primary().Kind
		if len(run) == 0 {
			kind = k
		} else if k != kind {
			break
		}
		run = append(run, i)
	}
	if len(run) == 0 {
		return nil
	}

	best := run[0]
	if len(run) > 1 {
		bestScore := math.MaxInt
		for _, i := range run {
			score := s.score(st, (*pool)[i], a, kind)
			if score < bestScore {
				best, bestScore = i, score
			}
		}
	}

	chosen := (*pool)[best]
	*pool = slices.Delete(*pool, best, best+1)
	return chosen
}

func (s *Scheduler) score(st *model.WorldState, l *tasks.TaskList, a *model.Agent, kind tasks.Kind) int {
	primary := l.Primary()
	if kind == tasks.KindRepair {
		return primary.PriorityWeight(st)
	}
	pos, ok := primary.TargetPos(st)
	if !ok {
		return math.MaxInt
	}
	return a.Pos.Range(pos)
}
