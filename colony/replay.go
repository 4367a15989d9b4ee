package colony

import (
	"fmt"
	"io"
	"slices"

	"github.com/nstehr/warren/journal"
	"github.com/nstehr/warren/scheduler"
	"github.com/nstehr/warren/spawn"
	"github.com/nstehr/warren/world"
)

// ReplayStats summarizes a journal re-run.
type ReplayStats struct {
	Ticks     int
	Recorded  int            // intents in the journal
	Produced  int            // intents from the re-run
	ByAction  map[string]int // produced intents by action
	Divergent int            // ticks whose produced intents differ from the recorded ones
	FirstTick int
	LastTick  int
}

// Replay feeds every frame in a journal through a fresh scheduler and
// population controller and compares their output with what was recorded.
func Replay(path string, deps Deps) (ReplayStats, error) {
	r, err := journal.Open(path)
	if err != nil {
		return ReplayStats{}, err
	}
	defer r.Close()

	stats := ReplayStats{ByAction: make(map[string]int)}
	sched := scheduler.New(deps.Scheduler, deps.Metrics, nil)
	spawner := spawn.NewController(deps.Spawn, deps.Metrics)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("replay %s: %w", path, err)
		}
		st, err := rec.World()
		if err != nil {
			return stats, fmt.Errorf("replay %s: %w", path, err)
		}

		w := world.NewSnapshot(st)
		if err := sched.Tick(w); err != nil {
			return stats, fmt.Errorf("replay tick %d: %w", rec.Tick, err)
		}
		spawner.Run(w, deps.Goals)
		got := w.Intents()

		if stats.Ticks == 0 {
			stats.FirstTick = rec.Tick
		}
		stats.LastTick = rec.Tick
		stats.Ticks++
		stats.Recorded += len(rec.Intents)
		stats.Produced += len(got)
		for _, in := range got {
			stats.ByAction[string(in.Action)]++
		}
		if !slices.EqualFunc(got, rec.Intents, sameIntent) {
			stats.Divergent++
		}
	}
}

func sameIntent(a, b world.Intent) bool {
	if a.Action != b.Action || a.Agent != b.Agent || a.Target != b.Target || a.Name != b.Name {
		return false
	}
	if (a.Pos == nil) != (b.Pos == nil) || (a.Pos != nil && *a.Pos != *b.Pos) {
		return false
	}
	return slices.Equal(a.Body, b.Body)
}
