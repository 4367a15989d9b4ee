package colony

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nstehr/warren/goals"
)

// Reloader applies new goal templates in the background so a config edit
// never blocks a tick. Only the newest pending set is kept.
type Reloader struct {
	engine *goals.Engine

	mu      sync.Mutex
	pending []goals.Template
	ready   chan struct{}
	applied chan error
}

func NewReloader(engine *goals.Engine) *Reloader {
	return &Reloader{
		engine: engine,
		ready:  make(chan struct{}, 1),
	}
}

// Update queues a template set and wakes the reload goroutine.
func (r *Reloader) Update(templates []goals.Template) {
	r.mu.Lock()
	r.pending = templates
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Start runs the reload loop. It blocks until ctx is cancelled.
func (r *Reloader) Start(ctx context.Context) {
	slog.Info("goal reloader started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("goal reloader stopped")
			return
		case <-r.ready:
			r.apply()
		}
	}
}

func (r *Reloader) apply() {
	r.mu.Lock()
	templates := r.pending
	r.pending = nil
	applied := r.applied
	r.mu.Unlock()
	if templates == nil {
		return
	}

	rules, err := goals.Compile(templates)
	if err == nil {
		err = r.engine.Swap(rules)
	}
	if err != nil {
		slog.Error("goal reload rejected, keeping previous rules", "error", err)
	}
	if applied != nil {
		applied <- err
	}
}

// notify makes every apply report its result on ch.
func (r *Reloader) notify(ch chan error) {
	r.mu.Lock()
	r.applied = ch
	r.mu.Unlock()
}
