// Package scheduler assigns task lists to agents each tick and drives their
// execution. One Scheduler owns the assignment table and occupancy counts
// for a colony; nothing else mutates them.
package scheduler

import (
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/nstehr/warren/metrics"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/occupancy"
	"github.com/nstehr/warren/tasks"
	"github.com/nstehr/warren/world"
)

// ErrPaused is returned by Tick once Pause has been called.
var ErrPaused = errors.New("scheduler paused")

// Options tunes candidate generation.
type Options struct {
	// RepairLimit caps repair candidates per zone per tick.
	RepairLimit int `mapstructure:"repair_limit" yaml:"repair_limit"`
	// DowngradeThreshold triggers an upgrade candidate when the controller
	// is closer than this to downgrading.
	DowngradeThreshold int `mapstructure:"downgrade_threshold" yaml:"downgrade_threshold"`
	// AttackSlots is how many attack candidates each hostile gets.
	AttackSlots int `mapstructure:"attack_slots" yaml:"attack_slots"`
	// Exempt archetypes never count toward occupancy.
	Exempt []string `mapstructure:"exempt" yaml:"exempt"`
	// ClaimAnchor is the in-zone tile a claim directive travels to.
	ClaimAnchorX int `mapstructure:"claim_anchor_x" yaml:"claim_anchor_x"`
	ClaimAnchorY int `mapstructure:"claim_anchor_y" yaml:"claim_anchor_y"`
	// TickBudget is the soft compute budget; overruns are logged, never interrupted.
	TickBudget time.Duration `mapstructure:"tick_budget" yaml:"tick_budget"`
}

func DefaultOptions() Options {
	return Options{
		RepairLimit:        4,
		DowngradeThreshold: 9000,
		AttackSlots:        2,
		Exempt:             []string{model.ArchetypeMelee, "attacker", "healer"},
		ClaimAnchorX:       25,
		ClaimAnchorY:       25,
		TickBudget:         20 * time.Millisecond,
	}
}

// Note is the diagnostic description of one agent's work after a tick.
type Note struct {
	Agent string `json:"agent"`
	Name  string `json:"name"`
	Task  string `json:"task"`
	Chain string `json:"chain"`
}

// Sink receives the per-agent notes at the end of every tick.
type Sink interface {
	Publish(tick int, notes []Note)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(tick int, notes []Note)

func (f SinkFunc) Publish(tick int, notes []Note) { f(tick, notes) }

// Assignment sources, used for logging and metrics.
const (
	SourceDirective = "directive"
	SourceZone      = "zone"
	SourceRemote    = "remote"
	SourceFallback  = "fallback"
	SourceSwitch    = "switch"
)

type Scheduler struct {
	opts        Options
	assignments map[string]*tasks.TaskList
	occ         *occupancy.Tracker
	sink        Sink
	metrics     *metrics.Metrics
	paused      atomic.Bool
}

// New creates a scheduler. m and sink may be nil.
func New(opts Options, m *metrics.Metrics, sink Sink) *Scheduler {
	return &Scheduler{
		opts:        opts,
		assignments: make(map[string]*tasks.TaskList),
		occ:         occupancy.New(opts.Exempt...),
		sink:        sink,
		metrics:     m,
	}
}

// Pause stops all further ticks for the rest of the run.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
	slog.Warn("scheduler paused")
}

func (s *Scheduler) Paused() bool { return s.paused.Load() }

// Assignment returns the task list held by an agent, or nil.
func (s *Scheduler) Assignment(agentID string) *tasks.TaskList { return s.assignments[agentID] }

// Occupancy exposes the tracker for read-only inspection.
func (s *Scheduler) Occupancy() *occupancy.Tracker { return s.occ }

// outcome pairs an agent with the result of its task step.
type outcome struct {
	agentID string
	kind    tasks.Kind
	out     tasks.Outcome
}

// Tick runs one full pass: cleanup, candidates, assignment, relay dispatch,
// execution, reconciliation and occupancy recompute.
func (s *Scheduler) Tick(w world.World) error {
	if s.paused.Load() {
		return ErrPaused
	}
	start := time.Now()
	st := w.State()

	s.cleanup(st)
	pools := s.candidates(w)
	idle := s.assign(st, pools)
	s.dispatchRelays(w)
	results := s.execute(w)
	s.reconcile(st, results)
	s.recompute(st)
	s.publish(st)

	elapsed := time.Since(start)
	s.metrics.ObserveTick(elapsed, s.opts.TickBudget)
	s.metrics.SetLoad(len(s.assignments), idle)
	if s.opts.TickBudget > 0 && elapsed > s.opts.TickBudget {
		slog.Warn("tick over budget", "tick", st.Tick, "elapsed", elapsed, "budget", s.opts.TickBudget)
	}
	return nil
}

// cleanup drops assignments for agents that no longer exist.
func (s *Scheduler) cleanup(st *model.WorldState) {
	for id := range s.assignments {
		if st.Agent(id) == nil {
			slog.Debug("dropping assignment for missing agent", "agent", id)
			delete(s.assignments, id)
		}
	}
}

// set installs a task list for an agent and applies provisional occupancy.
func (s *Scheduler) set(st *model.WorldState, a *model.Agent, l *tasks.TaskList, source string) {
	s.assignments[a.ID] = l
	if pos, ok := l.Current().TargetPos(st); ok {
		s.occ.Claim(a.Pos.Zone, a.Archetype(), pos)
	}
	s.metrics.IncAssignment(source)
	slog.Info("task assigned", "agent", a.Name, "task", l.Current(), "chain", l, "source", source)
}

func (s *Scheduler) sortedAgentIDs() []string {
	ids := make([]string, 0, len(s.assignments))
	for id := range s.assignments {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// execute runs one step for every assigned agent and buffers the results.
func (s *Scheduler) execute(w world.World) []outcome {
	st := w.State()
	ids := s.sortedAgentIDs()
	results := make([]outcome, 0, len(ids))
	for _, id := range ids {
		a := st.Agent(id)
		if a == nil || a.Spawning {
			continue
		}
		task := s.assignments[id].Current()
		out := task.Execute(w, a)
		results = append(results, outcome{agentID: id, kind: task.Kind, out: out})
		s.metrics.IncOutcome(task.Kind.String(), out.Verdict.String())
	}
	return results
}

// reconcile applies buffered outcomes to the assignment table.
func (s *Scheduler) reconcile(st *model.WorldState, results []outcome) {
	for _, r := range results {
		l := s.assignments[r.agentID]
		a := st.Agent(r.agentID)
		switch r.out.Verdict {
		case tasks.Complete, tasks.Cancel:
			slog.Debug("task finished", "agent", a.Name, "kind", r.kind, "verdict", r.out.Verdict)
			if !l.Advance() {
				delete(s.assignments, r.agentID)
			}
		case tasks.Switch:
			if r.out.Next == nil || len(r.out.Next.Tasks) == 0 {
				delete(s.assignments, r.agentID)
				continue
			}
			s.set(st, a, r.out.Next, SourceSwitch)
		}
	}
}

// recompute rebuilds occupancy from the assignment table.
func (s *Scheduler) recompute(st *model.WorldState) {
	s.occ.Reset()
	for id, l := range s.assignments {
		a := st.Agent(id)
		if a == nil {
			continue
		}
		pos, ok := l.Current().TargetPos(st)
		zone := a.Pos.Zone
		if ok {
			zone = pos.Zone
		}
		s.occ.Record(zone, a.Archetype(), pos, ok)
	}
}

func (s *Scheduler) publish(st *model.WorldState) {
	if s.sink == nil {
		return
	}
	notes := make([]Note, 0, len(st.Agents))
	for i := range st.Agents {
		a := &st.Agents[i]
		n := Note{Agent: a.ID, Name: a.Name, Task: "idle"}
		if l := s.assignments[a.ID]; l != nil {
			n.Task = l.Current().String()
			n.Chain = l.String()
		}
		notes = append(notes, n)
	}
	s.sink.Publish(st.Tick, notes)
}
