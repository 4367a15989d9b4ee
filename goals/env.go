package goals

import (
	"strings"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/tasks"
)

// Env is the expression environment for a template's count. It is built
// per zone per tick.
type Env struct {
	Tick  int
	Zone  *model.Zone
	state *model.WorldState
}

func NewEnv(st *model.WorldState, z *model.Zone) Env {
	return Env{Tick: st.Tick, Zone: z, state: st}
}

func (e Env) ResourceNodes() int { return len(e.Zone.Nodes) }

func (e Env) Hostiles() int { return len(e.Zone.Hostiles) }

func (e Env) Sites() int { return len(e.Zone.Sites) }

// ClaimDirectives counts "claim:" directives across the whole world.
func (e Env) ClaimDirectives() int {
	n := 0
	for _, d := range e.state.Directives {
		if strings.HasPrefix(d.Name, "claim:") {
			n++
		}
	}
	return n
}

// Population counts agents of an archetype currently in the zone.
func (e Env) Population(archetype string) int {
	n := 0
	for i := range e.state.Agents {
		a := &e.state.Agents[i]
		if a.Pos.Zone == e.Zone.Name && a.Archetype() == archetype {
			n++
		}
	}
	return n
}

func (e Env) GlobalPopulation(archetype string) int {
	n := 0
	for i := range e.state.Agents {
		if e.state.Agents[i].Archetype() == archetype {
			n++
		}
	}
	return n
}

func (e Env) ControllerLevel() int {
	if e.Zone.Controller == nil {
		return 0
	}
	return e.Zone.Controller.Level
}

func (e Env) EnergyCapacity() int { return e.Zone.EnergyCapacity }

func (e Env) Owned() bool { return e.Zone.Owned() }

func (e Env) SourceRelays() int     { return len(e.Zone.Relays.Source) }
func (e Env) StorageRelays() int    { return len(e.Zone.Relays.Storage) }
func (e Env) ControllerRelays() int { return len(e.Zone.Relays.Controller) }

// LinkedNodes counts active resource nodes with a source relay close enough
// for a dedicated harvester to feed.
func (e Env) LinkedNodes() int {
	n := 0
	for i := range e.Zone.Nodes {
		node := &e.Zone.Nodes[i]
		if node.Active() && e.state.RelayNear(e.Zone.Relays.Source, node.Pos, tasks.RelayReach) != nil {
			n++
		}
	}
	return n
}
