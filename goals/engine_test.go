package goals

import (
	"testing"

	"github.com/nstehr/warren/model"
)

func at(x, y int) model.Position { return model.Position{Zone: "W1N1", X: x, Y: y} }

func testState() *model.WorldState {
	st := &model.WorldState{
		Tick: 42,
		Zones: []model.Zone{{
			Name:           "W1N1",
			Controller:     &model.Controller{ID: "ctrl", Mine: true, Level: 4},
			EnergyCapacity: 800,
			Nodes: []model.ResourceNode{
				{ID: "n1", Pos: at(10, 10), Amount: 3000},
				{ID: "n2", Pos: at(40, 40), Amount: 3000},
			},
			Structures: []model.Structure{
				{ID: "relay-src", Kind: model.KindRelay, Pos: at(11, 11), Mine: true},
				{ID: "relay-ctrl", Kind: model.KindRelay, Pos: at(25, 25), Mine: true},
			},
			Relays: model.Relays{Source: []string{"relay-src"}, Controller: []string{"relay-ctrl"}},
		}},
		Agents: []model.Agent{
			{ID: "a", Name: "worker-1-0", Pos: at(5, 5)},
			{ID: "b", Name: "worker-2-0", Pos: model.Position{Zone: "W2N1", X: 1, Y: 1}},
		},
		Directives: []model.Directive{{Name: "claim:W2N1"}, {Name: "defend"}},
	}
	st.Index()
	return st
}

func TestDefaultTemplatesCompile(t *testing.T) {
	engine, err := FromTemplates(DefaultTemplates())
	if err != nil {
		t.Fatalf("FromTemplates(DefaultTemplates()) failed: %v", err)
	}
	rules := engine.Rules()
	if len(rules) != len(DefaultTemplates()) {
		t.Errorf("expected %d rules, got %d", len(DefaultTemplates()), len(rules))
	}
	for i := 1; i < len(rules); i++ {
		if rules[i].Priority > rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				rules[i].Name, rules[i].Priority, rules[i-1].Name, rules[i-1].Priority)
		}
	}
}

func TestGoalsForDefaults(t *testing.T) {
	engine, err := FromTemplates(DefaultTemplates())
	if err != nil {
		t.Fatal(err)
	}
	st := testState()
	goals := engine.GoalsFor(st, &st.Zones[0])

	got := make(map[string]int)
	var order []string
	for _, g := range goals {
		got[g.Archetype] = g.Count
		order = append(order, g.Archetype)
	}
	want := map[string]int{
		model.ArchetypeWorker:          4,
		model.ArchetypeSourceHarvester: 1,
		model.ArchetypeClaimer:         1,
		model.ArchetypeUpgrader:        1,
	}
	if len(got) != len(want) {
		t.Fatalf("goals = %v, want %v", got, want)
	}
	for arch, n := range want {
		if got[arch] != n {
			t.Errorf("%s count = %d, want %d", arch, got[arch], n)
		}
	}
	if order[0] != model.ArchetypeWorker {
		t.Errorf("first goal = %s, want worker", order[0])
	}
	for _, g := range goals {
		if g.Archetype == model.ArchetypeClaimer && !g.Global {
			t.Error("claimer goal should be global")
		}
	}
}

func TestGoalsForExpressions(t *testing.T) {
	st := testState()
	z := &st.Zones[0]
	tests := []struct {
		count string
		want  int
	}{
		{"ResourceNodes() * 2", 4},
		{"Population('worker')", 1},
		{"GlobalPopulation('worker')", 2},
		{"ControllerLevel() >= 4 ? 3 : 1", 3},
		{"EnergyCapacity() > 500 ? 2 : 1", 2},
		{"Tick % 10", 2},
		{"Owned() ? 1 : 0", 1},
		{"Hostiles()", 0},
	}
	for _, tc := range tests {
		t.Run(tc.count, func(t *testing.T) {
			engine, err := FromTemplates([]Template{{Archetype: "probe", Loadout: []string{"move"}, Count: tc.count}})
			if err != nil {
				t.Fatalf("compile %q: %v", tc.count, err)
			}
			goals := engine.GoalsFor(st, z)
			got := 0
			if len(goals) == 1 {
				got = goals[0].Count
			}
			if got != tc.want {
				t.Errorf("count %q = %d, want %d", tc.count, got, tc.want)
			}
		})
	}
}

func TestCompileRejectsBadTemplates(t *testing.T) {
	tests := []struct {
		name string
		tpl  Template
	}{
		{"no archetype", Template{Loadout: []string{"move"}, Count: "1"}},
		{"no count", Template{Archetype: "x", Loadout: []string{"move"}}},
		{"unknown capability", Template{Archetype: "x", Loadout: []string{"laser"}, Count: "1"}},
		{"empty loadout", Template{Archetype: "x", Count: "1"}},
		{"non-int count", Template{Archetype: "x", Loadout: []string{"move"}, Count: "Owned()"}},
		{"unknown function", Template{Archetype: "x", Loadout: []string{"move"}, Count: "Towers()"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromTemplates([]Template{tc.tpl}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSwapKeepsOldRulesOnError(t *testing.T) {
	engine, err := FromTemplates([]Template{{Archetype: "worker", Loadout: []string{"work", "carry", "move"}, Count: "2"}})
	if err != nil {
		t.Fatal(err)
	}
	bad := []*Rule{{Name: "broken", CountSrc: "1 +"}}
	if err := engine.Swap(bad); err == nil {
		t.Fatal("Swap accepted an invalid expression")
	}
	if rules := engine.Rules(); len(rules) != 1 || rules[0].Name != "worker" {
		t.Errorf("rules after failed swap = %v", rules)
	}

	next, err := Compile([]Template{{Archetype: "melee", Loadout: []string{"attack", "move"}, Count: "1"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Swap(next); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	st := testState()
	goals := engine.GoalsFor(st, &st.Zones[0])
	if len(goals) != 1 || goals[0].Archetype != "melee" {
		t.Errorf("goals after swap = %+v", goals)
	}
}
