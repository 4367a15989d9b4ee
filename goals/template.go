package goals

import "github.com/nstehr/warren/model"

// maxParts is the largest loadout the game will construct.
const maxParts = 50

// Template is the declarative form of a spawn goal, as it appears in the
// config file. Count is an expr expression evaluated per zone every tick.
type Template struct {
	Archetype    string   `mapstructure:"archetype" yaml:"archetype" json:"archetype"`
	Priority     int      `mapstructure:"priority" yaml:"priority" json:"priority"`
	Loadout      []string `mapstructure:"loadout" yaml:"loadout" json:"loadout"`
	Additive     []string `mapstructure:"additive" yaml:"additive,omitempty" json:"additive,omitempty"`
	MaxAdditions int      `mapstructure:"max_additions" yaml:"max_additions,omitempty" json:"max_additions,omitempty"`
	NodeScaling  float64  `mapstructure:"node_scaling" yaml:"node_scaling,omitempty" json:"node_scaling,omitempty"`
	Count        string   `mapstructure:"count" yaml:"count" json:"count"`
	Global       bool     `mapstructure:"global" yaml:"global,omitempty" json:"global,omitempty"`
}

// DefaultTemplates returns the stock colony: workers first, then dedicated
// harvesters, defenders, claimers and relay staff.
func DefaultTemplates() []Template {
	return []Template{
		{
			Archetype:    model.ArchetypeWorker,
			Priority:     100,
			Loadout:      []string{"work", "carry", "move", "move"},
			Additive:     []string{"work", "carry", "move"},
			MaxAdditions: 5,
			NodeScaling:  1,
			Count:        "4",
		},
		{
			Archetype:    model.ArchetypeSourceHarvester,
			Priority:     95,
			Loadout:      []string{"work", "work", "carry", "move"},
			Additive:     []string{"work"},
			MaxAdditions: 3,
			Count:        "LinkedNodes()",
		},
		{
			Archetype: model.ArchetypeMelee,
			Priority:  90,
			Loadout:   []string{"move", "attack", "attack"},
			Count:     "Hostiles() > 0 ? 2 : 0",
		},
		{
			Archetype: model.ArchetypeClaimer,
			Priority:  80,
			Loadout:   []string{"claim", "move"},
			Count:     "ClaimDirectives() > 0 ? 1 : 0",
			Global:    true,
		},
		{
			Archetype:    model.ArchetypeUpgrader,
			Priority:     70,
			Loadout:      []string{"work", "carry", "move"},
			Additive:     []string{"work", "work", "carry"},
			MaxAdditions: 4,
			Count:        "ControllerRelays() > 0 ? 1 : 0",
		},
		{
			Archetype: model.ArchetypeStorager,
			Priority:  60,
			Loadout:   []string{"carry", "carry", "move"},
			Count:     "StorageRelays() > 0 && Owned() ? 1 : 0",
		},
	}
}

// Validate clamps numeric fields to what the game can build.
func (t *Template) Validate() {
	t.NodeScaling = clamp(t.NodeScaling, 0, 4)
	room := 0
	if len(t.Additive) > 0 {
		room = max(0, (maxParts-len(t.Loadout))/len(t.Additive))
	}
	t.MaxAdditions = clampInt(t.MaxAdditions, 0, room)
}

// clampInt restricts v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
