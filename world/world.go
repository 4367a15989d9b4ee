// Package world is the boundary to the game. The decision core only sees the
// World interface; Snapshot implements it over one decoded tick frame and
// collects the resulting intents to send back.
package world

import "github.com/nstehr/warren/model"

// World is the per-tick state view plus the action primitives agents can use.
type World interface {
	State() *model.WorldState

	Move(agentID string, to model.Position) model.Result
	Harvest(agentID, nodeID string) model.Result
	Transfer(agentID, targetID string) model.Result
	Withdraw(agentID, targetID string) model.Result
	Build(agentID, siteID string) model.Result
	Repair(agentID, structureID string) model.Result
	Attack(agentID, hostileID string) model.Result
	Heal(agentID, targetID string) model.Result
	Claim(agentID, controllerID string) model.Result
	Upgrade(agentID, controllerID string) model.Result

	RelayTransfer(fromID, toID string) model.Result
	Requisition(sourceID, name string, body model.Loadout) model.Result
	RemoveDirective(name string)
}

// Action ranges, in tiles.
const (
	TouchRange = 1
	WorkRange  = 3
)

type Action string

const (
	ActionMove            Action = "move"
	ActionHarvest         Action = "harvest"
	ActionTransfer        Action = "transfer"
	ActionWithdraw        Action = "withdraw"
	ActionBuild           Action = "build"
	ActionRepair          Action = "repair"
	ActionAttack          Action = "attack"
	ActionHeal            Action = "heal"
	ActionClaim           Action = "claim"
	ActionUpgrade         Action = "upgrade"
	ActionRelayTransfer   Action = "relay_transfer"
	ActionRequisition     Action = "requisition"
	ActionRemoveDirective Action = "remove_directive"
)

// Intent is one command for the game to carry out on the next tick.
type Intent struct {
	Action Action          `json:"action"`
	Agent  string          `json:"agent,omitempty"`
	Target string          `json:"target,omitempty"`
	Pos    *model.Position `json:"pos,omitempty"`
	Name   string          `json:"name,omitempty"`
	Body   model.Loadout   `json:"body,omitempty"`
}
