// Package occupancy counts how many agents are working each zone and each
// target position, so the scheduler can avoid piling agents onto one job.
package occupancy

import (
	"github.com/nstehr/warren/model"
)

// Tracker holds per-zone counts by archetype and by target position.
// It is rebuilt from scratch every tick and bumped provisionally as new
// assignments are made during the tick.
type Tracker struct {
	byArchetype map[string]map[string]int
	byPos       map[string]map[model.Position]int
	exempt      map[string]bool
}

// New creates a tracker. Agents of exempt archetypes are never counted.
func New(exempt ...string) *Tracker {
	t := &Tracker{exempt: make(map[string]bool, len(exempt))}
	for _, a := range exempt {
		t.exempt[a] = true
	}
	t.Reset()
	return t
}

func (t *Tracker) Reset() {
	t.byArchetype = make(map[string]map[string]int)
	t.byPos = make(map[string]map[model.Position]int)
}

// Exempt reports whether an archetype is excluded from counting.
func (t *Tracker) Exempt(archetype string) bool { return t.exempt[archetype] }

// Record counts one agent of archetype working in zone, optionally at pos.
func (t *Tracker) Record(zone, archetype string, pos model.Position, hasPos bool) {
	if t.exempt[archetype] {
		return
	}
	t.bumpArchetype(zone, archetype, 1)
	if hasPos {
		t.bumpPos(pos)
	}
}

// Claim applies a provisional increment for a fresh assignment: the target
// position gains a worker, and when the target lies in another zone the
// archetype's count moves from the agent's zone to the target zone.
func (t *Tracker) Claim(agentZone, archetype string, target model.Position) {
	if t.exempt[archetype] {
		return
	}
	t.bumpPos(target)
	if target.Zone != agentZone {
		t.bumpArchetype(target.Zone, archetype, 1)
		t.bumpArchetype(agentZone, archetype, -1)
	}
}

// Working returns how many agents of archetype currently work in zone.
func (t *Tracker) Working(zone, archetype string) int {
	return t.byArchetype[zone][archetype]
}

// At returns how many agents target pos.
func (t *Tracker) At(pos model.Position) int {
	return t.byPos[pos.Zone][pos]
}

// Staffed reports whether pos already has at least limit workers.
func (t *Tracker) Staffed(pos model.Position, limit int) bool {
	return t.At(pos) >= limit
}

func (t *Tracker) bumpArchetype(zone, archetype string, delta int) {
	m := t.byArchetype[zone]
	if m == nil {
		m = make(map[string]int)
		t.byArchetype[zone] = m
	}
	m[archetype] = max(0, m[archetype]+delta)
}

func (t *Tracker) bumpPos(pos model.Position) {
	m := t.byPos[pos.Zone]
	if m == nil {
		m = make(map[model.Position]int)
		t.byPos[pos.Zone] = m
	}
	m[pos]++
}
