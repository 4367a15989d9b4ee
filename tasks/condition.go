package tasks

import (
	"fmt"

	"github.com/nstehr/warren/model"
)

type CondKind int

const (
	// CondStocked holds once the target stores at least Amount.
	CondStocked CondKind = iota
	// CondHasRoom holds once the target has at least Amount free.
	CondHasRoom
	// CondCargoEmpty holds once the agent carries nothing.
	CondCargoEmpty
)

// Condition is a declarative wake-up check for IdleUntil.
type Condition struct {
	Kind   CondKind
	Target string
	Amount int
}

func Stocked(targetID string, amount int) Condition {
	return Condition{Kind: CondStocked, Target: targetID, Amount: amount}
}

func HasRoom(targetID string, amount int) Condition {
	return Condition{Kind: CondHasRoom, Target: targetID, Amount: amount}
}

func CargoEmpty() Condition { return Condition{Kind: CondCargoEmpty} }

// Holds evaluates the condition. A vanished target counts as satisfied so
// the chain moves on and the next step can cancel properly.
func (c Condition) Holds(st *model.WorldState, a *model.Agent) bool {
	switch c.Kind {
	case CondCargoEmpty:
		return a.Store.Used == 0
	case CondStocked, CondHasRoom:
		s := st.Structure(c.Target)
		if s == nil {
			return true
		}
		if c.Kind == CondStocked {
			return s.Store.Used >= c.Amount
		}
		return s.Store.Free() >= c.Amount
	}
	return true
}

func (c Condition) String() string {
	switch c.Kind {
	case CondStocked:
		return fmt.Sprintf("%s stocked %d", c.Target, c.Amount)
	case CondHasRoom:
		return fmt.Sprintf("%s has room %d", c.Target, c.Amount)
	case CondCargoEmpty:
		return "cargo empty"
	}
	return "unknown"
}
