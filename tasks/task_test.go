package tasks

import (
	"math"
	"testing"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/world"
)

func at(x, y int) model.Position { return model.Position{Zone: "W1N1", X: x, Y: y} }

var workerBody = model.Loadout{model.Work, model.Carry, model.Move}

func baseState(agent model.Agent) *model.WorldState {
	return &model.WorldState{
		Tick: 10,
		Zones: []model.Zone{{
			Name:       "W1N1",
			Controller: &model.Controller{ID: "ctrl", Pos: at(25, 25), Mine: true, Level: 3, TicksToDowngrade: 20000},
			Structures: []model.Structure{
				{ID: "spawn1", Kind: model.KindSpawn, Pos: at(15, 15), Mine: true, Store: model.Store{Used: 100, Capacity: 300}},
				{ID: "store", Kind: model.KindStorage, Pos: at(30, 30), Mine: true, Store: model.Store{Used: 500, Capacity: 10000}},
				{ID: "wall", Kind: model.KindWall, Pos: at(40, 40), Hits: 1000, HitsMax: 10000},
			},
			Nodes:    []model.ResourceNode{{ID: "node1", Pos: at(10, 10), Amount: 3000, Capacity: 3000}},
			Hostiles: []model.Hostile{{ID: "h1", Pos: at(20, 20), Hits: 100, HitsMax: 100}},
		}},
		Agents: []model.Agent{agent},
	}
}

func step(t *testing.T, task *Task, st *model.WorldState) (Outcome, *world.Snapshot) {
	t.Helper()
	w := world.NewSnapshot(st)
	return task.Execute(w, st.Agent(st.Agents[0].ID)), w
}

func TestKindDefaults(t *testing.T) {
	tests := []struct {
		task  *Task
		caps  []model.Capability
		cargo bool
	}{
		{Attack("h"), []model.Capability{model.Attack}, false},
		{Claim(at(25, 25)), []model.Capability{model.Claim}, false},
		{Travel(at(1, 1)), []model.Capability{model.Move}, false},
		{Heal("a"), []model.Capability{model.Heal}, false},
		{Harvest("n"), []model.Capability{model.Carry, model.Work}, false},
		{Withdraw("s"), []model.Capability{model.Carry}, false},
		{Transfer("s"), []model.Capability{model.Carry}, true},
		{Build("s"), []model.Capability{model.Carry, model.Work}, true},
		{Repair("s"), []model.Capability{model.Carry, model.Work}, true},
		{Upgrade("c"), []model.Capability{model.Carry, model.Work}, true},
		{Idle(3), []model.Capability{model.Carry, model.Work}, false},
	}
	for _, tc := range tests {
		t.Run(tc.task.Kind.String(), func(t *testing.T) {
			got := tc.task.RequiredCapabilities()
			if len(got) != len(tc.caps) {
				t.Fatalf("caps = %v, want %v", got, tc.caps)
			}
			for i := range got {
				if got[i] != tc.caps[i] {
					t.Errorf("caps = %v, want %v", got, tc.caps)
				}
			}
			if tc.task.RequiresCargo() != tc.cargo {
				t.Errorf("RequiresCargo = %v, want %v", tc.task.RequiresCargo(), tc.cargo)
			}
		})
	}
}

func TestRepairPriorityWeight(t *testing.T) {
	st := baseState(model.Agent{ID: "a1"})
	st.Index()
	if got := Repair("wall").PriorityWeight(st); got != 100 {
		t.Errorf("repair weight = %d, want 100", got)
	}
	if got := Repair("gone").PriorityWeight(st); got != math.MaxInt {
		t.Errorf("missing target weight = %d, want MaxInt", got)
	}
	if got := Build("x").PriorityWeight(st); got != 0 {
		t.Errorf("build weight = %d, want 0", got)
	}
}

func TestExpiredAgentCancels(t *testing.T) {
	st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
		Store: model.Store{Capacity: 50}, TicksToLive: 3})
	out, w := step(t, Harvest("node1"), st)
	if out.Verdict != Cancel {
		t.Errorf("verdict = %s, want cancel", out.Verdict)
	}
	if len(w.Intents()) != 0 {
		t.Errorf("expired agent issued %d intents", len(w.Intents()))
	}
}

func TestMoveFailuresCancelOnThird(t *testing.T) {
	task := Travel(model.Position{Zone: "E9S9", X: 1, Y: 1})
	agent := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(5, 5), Body: workerBody}

	for i := 1; i <= MaxMoveFailures; i++ {
		out, _ := step(t, task, baseState(agent))
		want := Continue
		if i == MaxMoveFailures {
			want = Cancel
		}
		if out.Verdict != want {
			t.Fatalf("attempt %d: verdict = %s, want %s", i, out.Verdict, want)
		}
	}
}

func TestTiredResetsMoveFailures(t *testing.T) {
	task := Travel(model.Position{Zone: "E9S9", X: 1, Y: 1})
	agent := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(5, 5), Body: workerBody}

	step(t, task, baseState(agent))
	step(t, task, baseState(agent))
	if task.moveFailures != 2 {
		t.Fatalf("moveFailures = %d, want 2", task.moveFailures)
	}

	tired := agent
	tired.Fatigue = 4
	out, _ := step(t, task, baseState(tired))
	if out.Verdict != Continue || task.moveFailures != 0 {
		t.Errorf("tired: verdict=%s failures=%d, want continue/0", out.Verdict, task.moveFailures)
	}
}

func TestHarvestStepping(t *testing.T) {
	t.Run("adjacent harvests", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
			Store: model.Store{Capacity: 50}})
		out, w := step(t, HarvestAndDeliver("node1"), st)
		if out.Verdict != Continue {
			t.Fatalf("verdict = %s", out.Verdict)
		}
		if in := w.Intents(); len(in) != 1 || in[0].Action != world.ActionHarvest {
			t.Errorf("intents = %+v, want one harvest", in)
		}
	})

	t.Run("far moves", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(30, 11), Body: workerBody,
			Store: model.Store{Capacity: 50}})
		_, w := step(t, HarvestAndDeliver("node1"), st)
		if in := w.Intents(); len(in) != 1 || in[0].Action != world.ActionMove {
			t.Errorf("intents = %+v, want one move", in)
		}
	})

	t.Run("full switches to station", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
			Store: model.Store{Used: 45, Capacity: 50}})
		out, _ := step(t, HarvestAndDeliver("node1"), st)
		if out.Verdict != Switch {
			t.Fatalf("verdict = %s, want switch", out.Verdict)
		}
		next := out.Next.Current()
		if next.Kind != KindTransfer || next.Target != "spawn1" {
			t.Errorf("switched to %s, want transfer spawn1", next)
		}
	})

	t.Run("full without deliver completes", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
			Store: model.Store{Used: 50, Capacity: 50}})
		out, _ := step(t, Harvest("node1"), st)
		if out.Verdict != Complete {
			t.Errorf("verdict = %s, want complete", out.Verdict)
		}
	})

	t.Run("source harvester chains back to node", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "source_harvester-1-0", Pos: at(10, 11), Body: workerBody,
			Store: model.Store{Used: 50, Capacity: 50}})
		z := &st.Zones[0]
		z.Structures = append(z.Structures, model.Structure{ID: "relay-src", Kind: model.KindRelay, Mine: true,
			Pos: at(11, 12), Store: model.Store{Capacity: 800}})
		z.Relays.Source = []string{"relay-src"}

		out, _ := step(t, HarvestAndDeliver("node1"), st)
		if out.Verdict != Switch || len(out.Next.Tasks) != 2 {
			t.Fatalf("outcome = %+v, want switch to two-step chain", out)
		}
		if out.Next.Tasks[0].Target != "relay-src" || out.Next.Tasks[1].Kind != KindHarvest {
			t.Errorf("chain = %s", out.Next)
		}
	})

	t.Run("depleted node delivers cargo", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
			Store: model.Store{Used: 20, Capacity: 50}})
		st.Zones[0].Nodes[0].Amount = 0
		out, w := step(t, HarvestAndDeliver("node1"), st)
		if out.Verdict != Switch {
			t.Fatalf("verdict = %s, want switch", out.Verdict)
		}
		if next := out.Next.Current(); next.Kind != KindTransfer || next.Target != "spawn1" {
			t.Errorf("switched to %s, want transfer spawn1", next)
		}
		if in := w.Intents(); len(in) != 0 {
			t.Errorf("intents = %+v, want none", in)
		}
	})

	t.Run("depleted node completes", func(t *testing.T) {
		for _, task := range []*Task{Harvest("node1"), HarvestAndDeliver("node1")} {
			st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(10, 11), Body: workerBody,
				Store: model.Store{Capacity: 50}})
			st.Zones[0].Nodes[0].Amount = 0
			out, w := step(t, task, st)
			if out.Verdict != Complete {
				t.Errorf("%s: verdict = %s, want complete", task, out.Verdict)
			}
			if in := w.Intents(); len(in) != 0 {
				t.Errorf("%s: intents = %+v, want none", task, in)
			}
		}
	})

	t.Run("missing node cancels", func(t *testing.T) {
		st := baseState(model.Agent{ID: "a1", Name: "worker-1-0", Body: workerBody})
		out, _ := step(t, Harvest("nope"), st)
		if out.Verdict != Cancel {
			t.Errorf("verdict = %s, want cancel", out.Verdict)
		}
	})
}

func TestAttackOutcomes(t *testing.T) {
	melee := model.Agent{ID: "m1", Name: "melee-1-0", Pos: at(20, 21), Body: model.Loadout{model.Move, model.Attack}}

	st := baseState(melee)
	out, w := step(t, Attack("h1"), st)
	if out.Verdict != Continue || len(w.Intents()) != 1 || w.Intents()[0].Action != world.ActionAttack {
		t.Fatalf("adjacent attack: verdict=%s intents=%+v", out.Verdict, w.Intents())
	}

	st = baseState(melee)
	st.Zones[0].Hostiles[0].Hits = 0
	if out, _ := step(t, Attack("h1"), st); out.Verdict != Complete {
		t.Errorf("dead hostile: verdict = %s, want complete", out.Verdict)
	}

	st = baseState(melee)
	st.Zones[0].Hostiles = nil
	if out, _ := step(t, Attack("h1"), st); out.Verdict != Cancel {
		t.Errorf("vanished hostile: verdict = %s, want cancel", out.Verdict)
	}
}

func TestWithdrawSwitchesToFollowOn(t *testing.T) {
	loaded := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(30, 31), Body: workerBody,
		Store: model.Store{Used: 50, Capacity: 50}}
	out, _ := step(t, WithdrawThen("store", Upgrade("ctrl")), baseState(loaded))
	if out.Verdict != Switch || out.Next.Current().Kind != KindUpgrade {
		t.Fatalf("outcome = %+v, want switch to upgrade", out)
	}

	if out, _ := step(t, Withdraw("store"), baseState(loaded)); out.Verdict != Complete {
		t.Errorf("withdraw without follow-on: verdict = %s, want complete", out.Verdict)
	}

	empty := loaded
	empty.Store.Used = 0
	st := baseState(empty)
	st.Zones[0].Structures[1].Store.Used = 0
	if out, _ := step(t, Withdraw("store"), st); out.Verdict != Cancel {
		t.Errorf("empty agent and empty target: verdict = %s, want cancel", out.Verdict)
	}

	_, w := step(t, Withdraw("store"), baseState(empty))
	if in := w.Intents(); len(in) != 1 || in[0].Action != world.ActionWithdraw {
		t.Errorf("intents = %+v, want one withdraw", in)
	}
}

func TestCargoGatedTasksComplete(t *testing.T) {
	empty := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(25, 26), Body: workerBody,
		Store: model.Store{Capacity: 50}}
	for _, task := range []*Task{Upgrade("ctrl"), Build("site"), Repair("wall"), Transfer("spawn1")} {
		if out, _ := step(t, task, baseState(empty)); out.Verdict != Complete {
			t.Errorf("%s with empty cargo: verdict = %s, want complete", task, out.Verdict)
		}
	}
}

func TestUpgradeMovesWhenOutOfRange(t *testing.T) {
	loaded := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(5, 5), Body: workerBody,
		Store: model.Store{Used: 50, Capacity: 50}}
	out, w := step(t, Upgrade("ctrl"), baseState(loaded))
	if out.Verdict != Continue {
		t.Fatalf("verdict = %s", out.Verdict)
	}
	if in := w.Intents(); len(in) != 1 || in[0].Action != world.ActionMove {
		t.Errorf("intents = %+v, want a move toward the controller", in)
	}
}

func TestTransferRejectedCancels(t *testing.T) {
	loaded := model.Agent{ID: "a1", Name: "worker-1-0", Pos: at(15, 16), Body: workerBody,
		Store: model.Store{Used: 50, Capacity: 50}}
	st := baseState(loaded)
	st.Zones[0].Structures[0].Store.Used = 300 // spawn full
	if out, _ := step(t, Transfer("spawn1"), st); out.Verdict != Cancel {
		t.Errorf("verdict = %s, want cancel", out.Verdict)
	}
}

func TestClaimCompletesWhenOwned(t *testing.T) {
	claimer := model.Agent{ID: "c1", Name: "claimer-1-0", Pos: at(1, 1), Body: model.Loadout{model.Claim, model.Move}}
	if out, _ := step(t, Claim(at(25, 25)), baseState(claimer)); out.Verdict != Complete {
		t.Errorf("verdict = %s, want complete for owned zone", out.Verdict)
	}

	st := baseState(claimer)
	st.Zones[0].Controller.Mine = false
	out, w := step(t, Claim(at(25, 25)), st)
	if out.Verdict != Continue || w.Intents()[0].Action != world.ActionMove {
		t.Errorf("unowned zone: verdict=%s intents=%+v, want move toward controller", out.Verdict, w.Intents())
	}
}

func TestIdleVariants(t *testing.T) {
	agent := model.Agent{ID: "a1", Name: "upgrader-1-0", Body: workerBody, Store: model.Store{Capacity: 50}}

	idle := Idle(2)
	for i, want := range []Verdict{Continue, Continue, Complete} {
		if out, _ := step(t, idle, baseState(agent)); out.Verdict != want {
			t.Errorf("idle tick %d: verdict = %s, want %s", i, out.Verdict, want)
		}
	}

	wait := IdleUntil(Stocked("store", 1000))
	if out, _ := step(t, wait, baseState(agent)); out.Verdict != Continue {
		t.Errorf("under-stocked: verdict = %s, want continue", out.Verdict)
	}
	st := baseState(agent)
	st.Zones[0].Structures[1].Store.Used = 1200
	if out, _ := step(t, wait, st); out.Verdict != Complete {
		t.Errorf("stocked: verdict = %s, want complete", out.Verdict)
	}
}
