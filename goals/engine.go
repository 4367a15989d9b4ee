// Package goals turns declarative spawn templates into per-zone goals.
package goals

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/spawn"
)

// Engine evaluates compiled rules into spawn goals. It satisfies
// spawn.GoalSource.
type Engine struct {
	mu    sync.RWMutex
	rules []*Rule
}

// NewEngine compiles all count expressions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled}, nil
}

// FromTemplates is Compile followed by NewEngine.
func FromTemplates(templates []Template) (*Engine, error) {
	rules, err := Compile(templates)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules)
}

// GoalsFor evaluates every rule for one zone. Rules whose expression fails
// are skipped for this tick.
func (e *Engine) GoalsFor(st *model.WorldState, z *model.Zone) []spawn.Goal {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	env := NewEnv(st, z)
	out := make([]spawn.Goal, 0, len(rules))
	for _, r := range rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("goal count error", "goal", r.Name, "zone", z.Name, "error", err)
			continue
		}
		count, ok := result.(int)
		if !ok || count <= 0 {
			continue
		}
		g := r.goal
		g.Count = count
		out = append(out, g)
	}
	return out
}

// Swap atomically replaces the rule set. Compiles first; if compilation
// fails the old rules remain active.
func (e *Engine) Swap(newRules []*Rule) error {
	compiled, err := compileRules(newRules)
	if err != nil {
		return err
	}
	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	slog.Info("goal rules swapped", "count", len(compiled), "goals", names)
	return nil
}

// Rules returns the active rules in evaluation order.
func (e *Engine) Rules() []*Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Rule(nil), e.rules...)
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.CountSrc, expr.Env(Env{}), expr.AsInt())
		if err != nil {
			return nil, fmt.Errorf("compile goal %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
