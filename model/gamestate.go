package model

// WorldState is one tick's view of the colony as reported by the game.
// Call Index after decoding so lookups by ID work.
type WorldState struct {
	Tick       int         `json:"tick"`
	Player     string      `json:"player"`
	Zones      []Zone      `json:"zones"`
	Agents     []Agent     `json:"agents"`
	Directives []Directive `json:"directives"`

	zones       map[string]*Zone
	agents      map[string]*Agent
	structures  map[string]*Structure
	nodes       map[string]*ResourceNode
	sites       map[string]*Site
	hostiles    map[string]*Hostile
	controllers map[string]*Controller
}

// Zone is a region of the map. Relay classification is supplied by the game.
type Zone struct {
	Name            string         `json:"name"`
	Controller      *Controller    `json:"controller,omitempty"`
	Structures      []Structure    `json:"structures"`
	Nodes           []ResourceNode `json:"nodes"`
	Sites           []Site         `json:"sites"`
	Hostiles        []Hostile      `json:"hostiles"`
	Relays          Relays         `json:"relays"`
	EnergyAvailable int            `json:"energyAvailable"`
	EnergyCapacity  int            `json:"energyCapacity"`
	Terrain         *Terrain       `json:"terrain,omitempty"`
}

// Owned reports whether the zone's controller belongs to us.
func (z *Zone) Owned() bool { return z.Controller != nil && z.Controller.Mine }

type Controller struct {
	ID               string   `json:"id"`
	Pos              Position `json:"pos"`
	Mine             bool     `json:"mine"`
	Owner            string   `json:"owner,omitempty"`
	ReservedBy       string   `json:"reservedBy,omitempty"`
	Level            int      `json:"level"`
	TicksToDowngrade int      `json:"ticksToDowngrade"`
}

// Claimed is true when anyone, including us, owns or reserves the controller.
func (c *Controller) Claimed() bool {
	return c.Mine || c.Owner != "" || c.ReservedBy != ""
}

type StructureKind string

const (
	KindSpawn     StructureKind = "spawn"
	KindExtension StructureKind = "extension"
	KindTower     StructureKind = "tower"
	KindStorage   StructureKind = "storage"
	KindRelay     StructureKind = "relay"
	KindContainer StructureKind = "container"
	KindWall      StructureKind = "wall"
	KindRampart   StructureKind = "rampart"
	KindRoad      StructureKind = "road"
)

// Structure is any built object: stations, storage, relays and defences.
type Structure struct {
	ID       string        `json:"id"`
	Kind     StructureKind `json:"kind"`
	Pos      Position      `json:"pos"`
	Store    Store         `json:"store"`
	Hits     int           `json:"hits"`
	HitsMax  int           `json:"hitsMax"`
	Mine     bool          `json:"mine"`
	Inactive bool          `json:"inactive,omitempty"`
	Spawning bool          `json:"spawning,omitempty"`
}

// IsStation reports whether the structure consumes delivered resource.
func (s *Structure) IsStation() bool {
	switch s.Kind {
	case KindSpawn, KindExtension, KindTower:
		return s.Mine && !s.Inactive
	}
	return false
}

type ResourceNode struct {
	ID       string   `json:"id"`
	Pos      Position `json:"pos"`
	Amount   int      `json:"amount"`
	Capacity int      `json:"capacity"`
}

// Active reports whether the node still yields resource this cycle.
func (n *ResourceNode) Active() bool { return n.Amount > 0 }

type Site struct {
	ID       string        `json:"id"`
	Kind     StructureKind `json:"kind"`
	Pos      Position      `json:"pos"`
	Progress int           `json:"progress"`
	Total    int           `json:"total"`
}

type Hostile struct {
	ID      string   `json:"id"`
	Owner   string   `json:"owner"`
	Pos     Position `json:"pos"`
	Hits    int      `json:"hits"`
	HitsMax int      `json:"hitsMax"`
	Body    Loadout  `json:"body"`
}

// Relays holds the game's classification of relay structure IDs in a zone.
type Relays struct {
	Source       []string `json:"source"`
	Storage      []string `json:"storage"`
	Controller   []string `json:"controller"`
	Unclassified []string `json:"unclassified"`
}

// Directive is an operator-placed marker such as "claim:W2N1" or "defend".
type Directive struct {
	Name string   `json:"name"`
	Pos  Position `json:"pos"`
}

// Index builds the ID lookup tables. It must be called again if the
// slices are replaced.
func (s *WorldState) Index() {
	s.zones = make(map[string]*Zone, len(s.Zones))
	s.agents = make(map[string]*Agent, len(s.Agents))
	s.structures = make(map[string]*Structure)
	s.nodes = make(map[string]*ResourceNode)
	s.sites = make(map[string]*Site)
	s.hostiles = make(map[string]*Hostile)
	s.controllers = make(map[string]*Controller)

	for i := range s.Agents {
		s.agents[s.Agents[i].ID] = &s.Agents[i]
	}
	for i := range s.Zones {
		z := &s.Zones[i]
		s.zones[z.Name] = z
		if z.Controller != nil {
			s.controllers[z.Controller.ID] = z.Controller
		}
		for j := range z.Structures {
			s.structures[z.Structures[j].ID] = &z.Structures[j]
		}
		for j := range z.Nodes {
			s.nodes[z.Nodes[j].ID] = &z.Nodes[j]
		}
		for j := range z.Sites {
			s.sites[z.Sites[j].ID] = &z.Sites[j]
		}
		for j := range z.Hostiles {
			s.hostiles[z.Hostiles[j].ID] = &z.Hostiles[j]
		}
	}
}

func (s *WorldState) Zone(name string) *Zone           { return s.zones[name] }
func (s *WorldState) Agent(id string) *Agent           { return s.agents[id] }
func (s *WorldState) Structure(id string) *Structure   { return s.structures[id] }
func (s *WorldState) Node(id string) *ResourceNode     { return s.nodes[id] }
func (s *WorldState) Site(id string) *Site             { return s.sites[id] }
func (s *WorldState) Hostile(id string) *Hostile       { return s.hostiles[id] }
func (s *WorldState) Controller(id string) *Controller { return s.controllers[id] }

// Directive returns the marker with the given name, or nil.
func (s *WorldState) Directive(name string) *Directive {
	for i := range s.Directives {
		if s.Directives[i].Name == name {
			return &s.Directives[i]
		}
	}
	return nil
}

// Locate returns the position of any indexed object.
func (s *WorldState) Locate(id string) (Position, bool) {
	if v := s.structures[id]; v != nil {
		return v.Pos, true
	}
	if v := s.nodes[id]; v != nil {
		return v.Pos, true
	}
	if v := s.sites[id]; v != nil {
		return v.Pos, true
	}
	if v := s.hostiles[id]; v != nil {
		return v.Pos, true
	}
	if v := s.controllers[id]; v != nil {
		return v.Pos, true
	}
	if v := s.agents[id]; v != nil {
		return v.Pos, true
	}
	return Position{}, false
}

// RelayNear returns the closest relay from ids within reach of pos.
func (s *WorldState) RelayNear(ids []string, pos Position, reach int) *Structure {
	var best *Structure
	bestRange := reach + 1
	for _, id := range ids {
		r := s.structures[id]
		if r == nil {
			continue
		}
		if d := pos.Range(r.Pos); d < bestRange {
			best, bestRange = r, d
		}
	}
	return best
}

// StockedStorage returns our storage in the zone when it holds any resource.
func (s *WorldState) StockedStorage(z *Zone) *Structure {
	for i := range z.Structures {
		st := &z.Structures[i]
		if st.Kind == KindStorage && st.Mine && st.Store.Used > 0 {
			return st
		}
	}
	return nil
}

// NearestOwnedController finds the closest controller we own, across zones.
func (s *WorldState) NearestOwnedController(from Position) *Controller {
	var best *Controller
	bestRange := -1
	for i := range s.Zones {
		c := s.Zones[i].Controller
		if c == nil || !c.Mine {
			continue
		}
		if d := from.Range(c.Pos); bestRange < 0 || d < bestRange {
			best, bestRange = c, d
		}
	}
	return best
}

// AgentsNear counts agents within r tiles of pos, optionally limited to an archetype.
func (s *WorldState) AgentsNear(pos Position, r int, archetype string) int {
	n := 0
	for i := range s.Agents {
		a := &s.Agents[i]
		if archetype != "" && a.Archetype() != archetype {
			continue
		}
		if a.Pos.Range(pos) <= r {
			n++
		}
	}
	return n
}
