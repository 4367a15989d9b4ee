// Package tasks defines the units of work an agent can be given and the
// chains they are grouped into.
package tasks

import (
	"fmt"
	"math"

	"github.com/nstehr/warren/model"
)

// Kind tags a task variant. It drives candidate grouping and archetype pinning.
type Kind int

const (
	KindAttack Kind = iota
	KindBuild
	KindHarvest
	KindHeal
	KindRepair
	KindTransfer
	KindUpgrade
	KindTravel
	KindClaim
	KindWithdraw
	KindIdle
	KindIdleUntil
)

var kindNames = [...]string{
	KindAttack:    "attack",
	KindBuild:     "build",
	KindHarvest:   "harvest",
	KindHeal:      "heal",
	KindRepair:    "repair",
	KindTransfer:  "transfer",
	KindUpgrade:   "upgrade",
	KindTravel:    "travel",
	KindClaim:     "claim",
	KindWithdraw:  "withdraw",
	KindIdle:      "idle",
	KindIdleUntil: "idle_until",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Tunables shared by every task.
const (
	// MaxMoveFailures cancels a task after this many consecutive non-transient move failures.
	MaxMoveFailures = 3
	// ExpiryTicks cancels any task once the agent has this few ticks left to live.
	ExpiryTicks = 3
	// HarvestSlack treats the agent as full once free capacity drops below it.
	HarvestSlack = 10
	// RelayReach is how close a relay must be to count as serving a node or controller.
	RelayReach = 2
)

// Task is one unit of work. Target references are resolved against the
// world every tick; only the retry counters carry state between ticks.
type Task struct {
	Kind Kind
	// Target is the ID of the object acted on.
	Target string
	// Pos is the destination for Travel and the zone anchor for Claim.
	Pos model.Position
	// Ticks is the remaining countdown for Idle.
	Ticks int
	// Until is the wake condition for IdleUntil.
	Until Condition
	// Deliver makes Harvest switch to a delivery when full instead of completing.
	Deliver bool
	// Then is the follow-on a Withdraw switches to once loaded.
	Then *Task

	moveFailures int
}

// Constructors for the single-target kinds. Target is an object ID; Travel
// and Claim take a position instead.

func Attack(hostileID string) *Task   { return &Task{Kind: KindAttack, Target: hostileID} }
func Build(siteID string) *Task       { return &Task{Kind: KindBuild, Target: siteID} }
func Heal(agentID string) *Task       { return &Task{Kind: KindHeal, Target: agentID} }
func Repair(structureID string) *Task { return &Task{Kind: KindRepair, Target: structureID} }
func Transfer(targetID string) *Task  { return &Task{Kind: KindTransfer, Target: targetID} }
func Upgrade(ctrlID string) *Task     { return &Task{Kind: KindUpgrade, Target: ctrlID} }
func Withdraw(targetID string) *Task  { return &Task{Kind: KindWithdraw, Target: targetID} }
func Travel(to model.Position) *Task  { return &Task{Kind: KindTravel, Pos: to} }
func Claim(anchor model.Position) *Task {
	return &Task{Kind: KindClaim, Pos: anchor}
}

// Harvest gathers from a node and completes once the agent is full.
func Harvest(nodeID string) *Task { return &Task{Kind: KindHarvest, Target: nodeID} }

// HarvestAndDeliver gathers from a node and, once full, switches to
// delivering the load to a nearby relay or station.
func HarvestAndDeliver(nodeID string) *Task {
	return &Task{Kind: KindHarvest, Target: nodeID, Deliver: true}
}

// WithdrawThen loads from a target and then switches to next.
func WithdrawThen(targetID string, next *Task) *Task {
	return &Task{Kind: KindWithdraw, Target: targetID, Then: next}
}

// Idle holds the agent in place for the given number of ticks.
func Idle(ticks int) *Task { return &Task{Kind: KindIdle, Ticks: ticks} }

// IdleUntil holds the agent in place until c is met.
func IdleUntil(c Condition) *Task { return &Task{Kind: KindIdleUntil, Until: c} }

// RequiredCapabilities lists the body parts an agent needs to take the task.
func (t *Task) RequiredCapabilities() []model.Capability {
	switch t.Kind {
	case KindAttack:
		return []model.Capability{model.Attack}
	case KindClaim:
		return []model.Capability{model.Claim}
	case KindTravel:
		return []model.Capability{model.Move}
	case KindHeal:
		return []model.Capability{model.Heal}
	case KindTransfer, KindWithdraw:
		return []model.Capability{model.Carry}
	}
	return []model.Capability{model.Carry, model.Work}
}

// RequiresCargo reports whether the agent must already carry resource to start.
func (t *Task) RequiresCargo() bool {
	switch t.Kind {
	case KindBuild, KindRepair, KindTransfer, KindUpgrade:
		return true
	}
	return false
}

// PriorityWeight ranks same-kind candidates; lower goes first. Repair ranks
// by remaining hits per mille so the most damaged structure wins.
func (t *Task) PriorityWeight(st *model.WorldState) int {
	if t.Kind != KindRepair {
		return 0
	}
	s := st.Structure(t.Target)
	if s == nil || s.HitsMax == 0 {
		return math.MaxInt
	}
	return int(int64(s.Hits) * 1000 / int64(s.HitsMax))
}

// TargetPos resolves where the task happens, if anywhere.
func (t *Task) TargetPos(st *model.WorldState) (model.Position, bool) {
	switch t.Kind {
	case KindTravel, KindClaim:
		return t.Pos, true
	case KindIdle, KindIdleUntil:
		return model.Position{}, false
	}
	return st.Locate(t.Target)
}

func (t *Task) String() string {
	switch t.Kind {
	case KindTravel, KindClaim:
		return fmt.Sprintf("%s %s", t.Kind, t.Pos)
	case KindIdle:
		return fmt.Sprintf("idle %d", t.Ticks)
	case KindIdleUntil:
		return fmt.Sprintf("idle until %s", t.Until)
	case KindWithdraw:
		if t.Then != nil {
			return fmt.Sprintf("withdraw %s then %s", t.Target, t.Then)
		}
	}
	return fmt.Sprintf("%s %s", t.Kind, t.Target)
}
