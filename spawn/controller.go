package spawn

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nstehr/warren/metrics"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/world"
)

// GoalSource supplies the goals for one zone this tick.
type GoalSource interface {
	GoalsFor(st *model.WorldState, z *model.Zone) []Goal
}

// Goals is a fixed goal list usable as a GoalSource.
type Goals []Goal

func (g Goals) GoalsFor(*model.WorldState, *model.Zone) []Goal { return g }

// Options tunes the controller.
type Options struct {
	// WorkerArchetype is the archetype counted for the worker floor.
	WorkerArchetype string `mapstructure:"worker_archetype" yaml:"worker_archetype"`
	// WorkerFloor: once a zone has this many workers, a source waits for
	// its own store to fill before spending.
	WorkerFloor int `mapstructure:"worker_floor" yaml:"worker_floor"`
}

func DefaultOptions() Options {
	return Options{WorkerArchetype: model.ArchetypeWorker, WorkerFloor: 3}
}

// Controller issues at most one requisition per construction source per tick.
type Controller struct {
	opts    Options
	metrics *metrics.Metrics
}

func NewController(opts Options, m *metrics.Metrics) *Controller {
	return &Controller{opts: opts, metrics: m}
}

// Run evaluates every idle construction source and returns how many
// requisitions the world accepted.
func (c *Controller) Run(w world.World, goals GoalSource) int {
	st := w.State()
	global, byZone := population(st)

	accepted := 0
	for i := range st.Zones {
		z := &st.Zones[i]
		local := byZone[z.Name]
		if local == nil {
			local = make(map[string]int)
			byZone[z.Name] = local
		}

		var zoneGoals []Goal
		for _, src := range sources(z) {
			if src.Spawning {
				continue
			}
			if src.Store.Free() > 0 && local[c.opts.WorkerArchetype] >= c.opts.WorkerFloor {
				continue
			}
			if zoneGoals == nil {
				zoneGoals = goals.GoalsFor(st, z)
			}
			if c.requisition(w, st, z, src, zoneGoals, local, global, accepted) {
				accepted++
			}
		}
	}
	return accepted
}

// requisition tries goals in order and stops at the first affordable one.
// seq counts the requisitions already accepted this tick and keeps names
// unique across sources.
func (c *Controller) requisition(w world.World, st *model.WorldState, z *model.Zone, src *model.Structure,
	goals []Goal, local, global map[string]int, seq int) bool {
	for _, g := range goals {
		current := local[g.Archetype]
		if g.Global {
			current = global[g.Archetype]
		}
		target := g.TargetFor(len(z.Nodes))
		if current >= target {
			continue
		}
		if z.EnergyAvailable < g.Loadout.Cost() {
			continue
		}

		body, added := g.Body(z.EnergyAvailable)
		name := fmt.Sprintf("%s-%d-%d", g.Archetype, st.Tick, seq)
		res := w.Requisition(src.ID, name, body)
		c.metrics.IncRequisition(g.Archetype, res.String())
		if res != model.OK {
			slog.Debug("requisition rejected", "source", src.ID, "name", name, "result", res)
			return false
		}
		local[g.Archetype]++
		global[g.Archetype]++
		slog.Info("requisitioned agent", "source", src.ID, "name", name, "parts", len(body),
			"additions", added, "current", current+1, "target", target)
		return true
	}
	return false
}

// population counts agents by archetype globally and per zone.
func population(st *model.WorldState) (map[string]int, map[string]map[string]int) {
	global := make(map[string]int)
	byZone := make(map[string]map[string]int)
	for _, a := range st.Agents {
		arch := a.Archetype()
		global[arch]++
		m := byZone[a.Pos.Zone]
		if m == nil {
			m = make(map[string]int)
			byZone[a.Pos.Zone] = m
		}
		m[arch]++
	}
	return global, byZone
}

func sources(z *model.Zone) []*model.Structure {
	var out []*model.Structure
	for i := range z.Structures {
		s := &z.Structures[i]
		if s.Kind == model.KindSpawn && s.Mine && !s.Inactive {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *model.Structure) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
