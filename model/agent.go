package model

import (
	"fmt"
	"strings"
)

// ZoneSpan is the side length of a zone in tiles. Ranges across zones are
// at least this large so nothing in another zone counts as nearby.
const ZoneSpan = 50

type Position struct {
	Zone string `json:"zone"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Range is the Chebyshev distance between two positions.
func (p Position) Range(o Position) int {
	d := max(abs(p.X-o.X), abs(p.Y-o.Y))
	if p.Zone != o.Zone {
		d += ZoneSpan
	}
	return d
}

func (p Position) String() string { return fmt.Sprintf("%s[%d,%d]", p.Zone, p.X, p.Y) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type Store struct {
	Used     int `json:"used"`
	Capacity int `json:"capacity"`
}

func (s Store) Free() int { return max(0, s.Capacity-s.Used) }

// Capability is one unit of an agent's body.
type Capability string

const (
	Move         Capability = "move"
	Carry        Capability = "carry"
	Work         Capability = "work"
	Attack       Capability = "attack"
	RangedAttack Capability = "ranged_attack"
	Heal         Capability = "heal"
	Claim        Capability = "claim"
	Tough        Capability = "tough"
)

var capabilityCost = map[Capability]int{
	Move:         50,
	Carry:        50,
	Work:         100,
	Attack:       80,
	RangedAttack: 150,
	Heal:         250,
	Claim:        600,
	Tough:        10,
}

// Cost is the construction resource needed for one unit of the capability.
func (c Capability) Cost() int { return capabilityCost[c] }

// ParseCapability maps a capability name to its value.
func ParseCapability(s string) (Capability, bool) {
	c := Capability(s)
	_, ok := capabilityCost[c]
	return c, ok
}

// Loadout is an ordered list of capability units.
type Loadout []Capability

func (l Loadout) Cost() int {
	total := 0
	for _, c := range l {
		total += c.Cost()
	}
	return total
}

func (l Loadout) Has(c Capability) bool {
	for _, have := range l {
		if have == c {
			return true
		}
	}
	return false
}

// Well-known archetypes with special handling.
const (
	ArchetypeWorker          = "worker"
	ArchetypeSourceHarvester = "source_harvester"
	ArchetypeUpgrader        = "upgrader"
	ArchetypeStorager        = "storager"
	ArchetypeMelee           = "melee"
	ArchetypeClaimer         = "claimer"
)

// ArchetypeOf derives an archetype from an agent name like "worker-1200-3".
func ArchetypeOf(name string) string {
	arch, _, _ := strings.Cut(name, "-")
	return arch
}

type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Pos         Position `json:"pos"`
	Body        Loadout  `json:"body"`
	Store       Store    `json:"store"`
	TicksToLive int      `json:"ticksToLive"`
	Hits        int      `json:"hits"`
	HitsMax     int      `json:"hitsMax"`
	Fatigue     int      `json:"fatigue"`
	Spawning    bool     `json:"spawning,omitempty"`
}

func (a *Agent) Archetype() string { return ArchetypeOf(a.Name) }

func (a *Agent) Has(c Capability) bool { return a.Body.Has(c) }

// HasAll reports whether every capability in caps is present.
func (a *Agent) HasAll(caps []Capability) bool {
	for _, c := range caps {
		if !a.Body.Has(c) {
			return false
		}
	}
	return true
}
