package world

import (
	"testing"

	"github.com/nstehr/warren/model"
)

func pos(x, y int) model.Position { return model.Position{Zone: "W1N1", X: x, Y: y} }

func testState() *model.WorldState {
	return &model.WorldState{
		Tick: 100,
		Zones: []model.Zone{{
			Name:            "W1N1",
			Controller:      &model.Controller{ID: "ctrl", Pos: pos(20, 20), Mine: true, Level: 2},
			EnergyAvailable: 300,
			EnergyCapacity:  300,
			Structures: []model.Structure{
				{ID: "spawn1", Kind: model.KindSpawn, Pos: pos(10, 10), Mine: true, Store: model.Store{Used: 300, Capacity: 300}},
				{ID: "ext1", Kind: model.KindExtension, Pos: pos(6, 6), Mine: true, Store: model.Store{Used: 0, Capacity: 50}},
				{ID: "relay-a", Kind: model.KindRelay, Pos: pos(4, 4), Mine: true, Store: model.Store{Used: 400, Capacity: 800}},
				{ID: "relay-b", Kind: model.KindRelay, Pos: pos(30, 30), Mine: true, Store: model.Store{Used: 800, Capacity: 800}},
			},
			Nodes: []model.ResourceNode{{ID: "node1", Pos: pos(5, 5), Amount: 3000, Capacity: 3000}},
		}},
		Agents: []model.Agent{
			{ID: "a1", Name: "worker-1-0", Pos: pos(5, 6), Body: model.Loadout{model.Work, model.Carry, model.Move}, Store: model.Store{Used: 0, Capacity: 50}},
			{ID: "a2", Name: "worker-2-0", Pos: pos(7, 7), Body: model.Loadout{model.Work, model.Carry, model.Move}, Store: model.Store{Used: 50, Capacity: 50}, Fatigue: 2},
		},
	}
}

func TestSnapshotActionResults(t *testing.T) {
	tests := []struct {
		name string
		act  func(s *Snapshot) model.Result
		want model.Result
	}{
		{"harvest adjacent", func(s *Snapshot) model.Result { return s.Harvest("a1", "node1") }, model.OK},
		{"harvest far", func(s *Snapshot) model.Result { return s.Harvest("a2", "node1") }, model.ErrNotInRange},
		{"harvest missing node", func(s *Snapshot) model.Result { return s.Harvest("a1", "gone") }, model.ErrInvalidTarget},
		{"move tired", func(s *Snapshot) model.Result { return s.Move("a2", pos(1, 1)) }, model.ErrTired},
		{"move unseen zone", func(s *Snapshot) model.Result { return s.Move("a1", model.Position{Zone: "E5S5", X: 25, Y: 25}) }, model.OK},
		{"move without zone", func(s *Snapshot) model.Result { return s.Move("a1", model.Position{X: 25, Y: 25}) }, model.ErrNoPath},
		{"transfer empty cargo", func(s *Snapshot) model.Result { return s.Transfer("a1", "ext1") }, model.ErrNotEnough},
		{"transfer adjacent", func(s *Snapshot) model.Result { return s.Transfer("a2", "ext1") }, model.OK},
		{"transfer to full", func(s *Snapshot) model.Result { return s.Transfer("a2", "spawn1") }, model.ErrFull},
		{"withdraw when full", func(s *Snapshot) model.Result { return s.Withdraw("a2", "relay-a") }, model.ErrFull},
		{"upgrade out of range", func(s *Snapshot) model.Result { return s.Upgrade("a2", "ctrl") }, model.ErrNotInRange},
		{"attack without part", func(s *Snapshot) model.Result { return s.Attack("a1", "h1") }, model.ErrNoBodyPart},
		{"relay to full", func(s *Snapshot) model.Result { return s.RelayTransfer("relay-a", "relay-b") }, model.ErrFull},
		{"relay ok", func(s *Snapshot) model.Result { return s.RelayTransfer("relay-b", "relay-a") }, model.OK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSnapshot(testState())
			if got := tc.act(s); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			recorded := len(s.Intents()) == 1
			if recorded != (tc.want == model.OK) {
				t.Errorf("intents recorded = %v for result %s", recorded, tc.want)
			}
		})
	}
}

func TestSnapshotRequisitionSpendsEnergy(t *testing.T) {
	s := NewSnapshot(testState())
	body := model.Loadout{model.Work, model.Carry, model.Move, model.Move}

	if res := s.Requisition("spawn1", "worker-100-0", body); res != model.OK {
		t.Fatalf("first requisition = %s", res)
	}
	if got := s.State().Zone("W1N1").EnergyAvailable; got != 50 {
		t.Errorf("energy after requisition = %d, want 50", got)
	}
	if res := s.Requisition("spawn1", "worker-100-1", body); res != model.ErrBusy {
		t.Errorf("second requisition on busy source = %s, want busy", res)
	}
}

func TestSnapshotRequisitionNameCollision(t *testing.T) {
	s := NewSnapshot(testState())
	if res := s.Requisition("spawn1", "worker-1-0", model.Loadout{model.Move}); res != model.ErrNameExists {
		t.Errorf("requisition with live name = %s, want name_exists", res)
	}
}
