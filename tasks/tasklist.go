package tasks

import (
	"slices"
	"strings"

	"github.com/nstehr/warren/model"
)

// TaskList is an ordered chain of tasks. A repeating list wraps around
// forever; otherwise it is exhausted when advanced past its last task.
// The primary task is the one used for ranking and pinning, usually the
// step that does the real work after any preparatory withdraw.
type TaskList struct {
	Tasks   []*Task
	Repeat  bool
	cursor  int
	primary int
}

// NewList builds a chain whose primary task is the first one.
func NewList(repeat bool, tasks ...*Task) *TaskList {
	return &TaskList{Tasks: tasks, Repeat: repeat}
}

// Single wraps one task as a non-repeating list.
func Single(t *Task) *TaskList { return NewList(false, t) }

// WithPrimary marks the task at index i as primary. Out-of-range indexes are ignored.
func (l *TaskList) WithPrimary(i int) *TaskList {
	if i >= 0 && i < len(l.Tasks) {
		l.primary = i
	}
	return l
}

// Current returns the task at the cursor. The returned task is mutable so
// its retry counters persist.
func (l *TaskList) Current() *Task { return l.Tasks[l.cursor] }

func (l *TaskList) Primary() *Task { return l.Tasks[l.primary] }

// Cursor is the index of the current task.
func (l *TaskList) Cursor() int { return l.cursor }

// Advance moves to the next task. It returns false when a non-repeating
// list has run out; the list must then be discarded.
func (l *TaskList) Advance() bool {
	l.cursor++
	if l.cursor < len(l.Tasks) {
		return true
	}
	if l.Repeat && len(l.Tasks) > 0 {
		l.cursor = 0
		return true
	}
	l.cursor = len(l.Tasks) - 1
	return false
}

// RequiredCapabilities is the union over every task in the chain.
func (l *TaskList) RequiredCapabilities() []model.Capability {
	var caps []model.Capability
	for _, t := range l.Tasks {
		for _, c := range t.RequiredCapabilities() {
			if !slices.Contains(caps, c) {
				caps = append(caps, c)
			}
		}
	}
	return caps
}

func (l *TaskList) String() string {
	parts := make([]string, len(l.Tasks))
	for i, t := range l.Tasks {
		s := t.String()
		if i == l.cursor {
			s = "*" + s
		}
		parts[i] = s
	}
	out := strings.Join(parts, " -> ")
	if l.Repeat {
		out += " (repeat)"
	}
	return out
}
