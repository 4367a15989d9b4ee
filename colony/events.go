package colony

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nstehr/warren/model"
)

// EventKind identifies a notable change between consecutive frames.
type EventKind string

const (
	EventAgentLost         EventKind = "agent_lost"
	EventFirstContact      EventKind = "first_contact"
	EventHostilesCleared   EventKind = "hostiles_cleared"
	EventZoneGained        EventKind = "zone_gained"
	EventZoneLost          EventKind = "zone_lost"
	EventDirectiveResolved EventKind = "directive_resolved"
)

// maxEvents bounds the colony's event history.
const maxEvents = 256

// Event is a change detected by diffing two frames.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

// stateSnapshot captures the diffable fields of a frame.
type stateSnapshot struct {
	agents     map[string]model.Agent
	hostiles   map[string]int // zone → hostile count
	owned      map[string]bool
	directives map[string]bool
}

func takeSnapshot(st *model.WorldState) *stateSnapshot {
	s := &stateSnapshot{
		agents:     make(map[string]model.Agent, len(st.Agents)),
		hostiles:   make(map[string]int),
		owned:      make(map[string]bool),
		directives: make(map[string]bool, len(st.Directives)),
	}
	for _, a := range st.Agents {
		s.agents[a.ID] = a
	}
	for i := range st.Zones {
		z := &st.Zones[i]
		s.hostiles[z.Name] = len(z.Hostiles)
		if z.Owned() {
			s.owned[z.Name] = true
		}
	}
	for _, d := range st.Directives {
		s.directives[d.Name] = true
	}
	return s
}

// detectEvents compares cur against prev. Returns nil if prev is nil (first
// frame). Events are ordered by kind, then by subject, so output is stable.
func detectEvents(st *model.WorldState, prev, cur *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}
	var events []Event
	add := func(kind EventKind, format string, args ...any) {
		events = append(events, Event{Kind: kind, Tick: st.Tick, Detail: fmt.Sprintf(format, args...)})
	}

	for _, id := range sortedKeys(prev.agents) {
		if _, ok := cur.agents[id]; ok {
			continue
		}
		a := prev.agents[id]
		cause := "destroyed"
		if a.TicksToLive > 0 && a.TicksToLive <= 1 {
			cause = "expired"
		}
		add(EventAgentLost, "%s (%s) %s at %s", a.Name, id, cause, a.Pos)
	}

	for _, zone := range sortedKeys(cur.hostiles) {
		if cur.hostiles[zone] > 0 && prev.hostiles[zone] == 0 {
			add(EventFirstContact, "%d hostiles in %s", cur.hostiles[zone], zone)
		}
	}
	for _, zone := range sortedKeys(prev.hostiles) {
		if prev.hostiles[zone] > 0 && cur.hostiles[zone] == 0 {
			add(EventHostilesCleared, "%s is clear", zone)
		}
	}

	for _, zone := range sortedKeys(cur.owned) {
		if !prev.owned[zone] {
			add(EventZoneGained, "controller in %s is ours", zone)
		}
	}
	for _, zone := range sortedKeys(prev.owned) {
		if !cur.owned[zone] {
			add(EventZoneLost, "lost controller in %s", zone)
		}
	}

	for _, name := range sortedKeys(prev.directives) {
		if !cur.directives[name] {
			detail := name
			if target, ok := strings.CutPrefix(name, "claim:"); ok {
				detail = "claim on " + target
			}
			add(EventDirectiveResolved, "%s", detail)
		}
	}
	return events
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
