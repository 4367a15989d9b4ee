package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nstehr/warren/colony"
	"github.com/nstehr/warren/goals"
	"github.com/spf13/cobra"
)

func (c *cli) replay(cmd *cobra.Command, path string) error {
	engine, err := goals.FromTemplates(c.cfg.Goals)
	if err != nil {
		return err
	}
	stats, err := colony.Replay(path, colony.Deps{
		Scheduler: c.cfg.Scheduler,
		Spawn:     c.cfg.Spawn,
		Goals:     engine,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ticks      %d (%d..%d)\n", stats.Ticks, stats.FirstTick, stats.LastTick)
	fmt.Fprintf(out, "recorded   %d intents\n", stats.Recorded)
	fmt.Fprintf(out, "replayed   %d intents\n", stats.Produced)
	fmt.Fprintf(out, "divergent  %d ticks\n", stats.Divergent)
	for _, action := range slices.Sorted(maps.Keys(stats.ByAction)) {
		fmt.Fprintf(out, "  %-18s %d\n", action, stats.ByAction[action])
	}
	return nil
}
