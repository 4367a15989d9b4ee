package scheduler

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/tasks"
	"github.com/nstehr/warren/world"
)

const claimPrefix = "claim:"

// pools holds one tick's candidate task lists.
type pools struct {
	directives []*tasks.TaskList
	zones      map[string][]*tasks.TaskList
	order      []string
}

func (s *Scheduler) candidates(w world.World) *pools {
	st := w.State()
	p := &pools{
		directives: s.directiveCandidates(w),
		zones:      make(map[string][]*tasks.TaskList, len(st.Zones)),
	}
	for i := range st.Zones {
		z := &st.Zones[i]
		p.zones[z.Name] = s.zoneCandidates(st, z)
		p.order = append(p.order, z.Name)
	}
	slices.Sort(p.order)
	return p
}

// directiveCandidates turns "claim:<zone>" markers into claim tasks. Markers
// for zones that are already owned or reserved are removed.
func (s *Scheduler) directiveCandidates(w world.World) []*tasks.TaskList {
	st := w.State()
	var out []*tasks.TaskList
	for _, d := range st.Directives {
		zoneName, ok := strings.CutPrefix(d.Name, claimPrefix)
		if !ok {
			continue
		}
		if zoneName == "" {
			slog.Warn("removing malformed claim directive", "directive", d.Name)
			w.RemoveDirective(d.Name)
			continue
		}
		if z := st.Zone(zoneName); z != nil && z.Controller != nil && z.Controller.Claimed() {
			slog.Info("claim directive resolved", "directive", d.Name, "zone", zoneName)
			w.RemoveDirective(d.Name)
			continue
		}
		anchor := model.Position{Zone: zoneName, X: s.opts.ClaimAnchorX, Y: s.opts.ClaimAnchorY}
		out = append(out, tasks.Single(tasks.Claim(anchor)))
	}
	return out
}

// zoneCandidates builds the ordered work list for one zone. Order matters:
// the matcher takes the first capable run, so earlier kinds win.
func (s *Scheduler) zoneCandidates(st *model.WorldState, z *model.Zone) []*tasks.TaskList {
	var out []*tasks.TaskList

	for _, h := range z.Hostiles {
		for range s.opts.AttackSlots {
			out = append(out, tasks.Single(tasks.Attack(h.ID)))
		}
	}

	ctrl := z.Controller
	owned := z.Owned()
	if owned {
		if ctrl.TicksToDowngrade < s.opts.DowngradeThreshold {
			out = append(out, tasks.Single(tasks.Upgrade(ctrl.ID)))
		}
		if ctrl.Level < 2 {
			out = append(out, tasks.Single(tasks.Upgrade(ctrl.ID)))
		}
	}

	storage := st.StockedStorage(z)
	stocked := func(t *tasks.Task) *tasks.TaskList {
		if storage == nil {
			return tasks.Single(t)
		}
		return tasks.NewList(false, tasks.Withdraw(storage.ID), t).WithPrimary(1)
	}

	extensionWork := false
	for _, kind := range []model.StructureKind{model.KindTower, model.KindExtension, model.KindSpawn} {
		for i := range z.Structures {
			str := &z.Structures[i]
			if str.Kind != kind || !str.IsStation() {
				continue
			}
			switch kind {
			case model.KindTower:
				if str.Store.Free() <= str.Store.Capacity/2 {
					continue
				}
			case model.KindExtension:
				if str.Store.Free() == 0 || s.occ.Staffed(str.Pos, 1) {
					continue
				}
				extensionWork = true
			case model.KindSpawn:
				if str.Store.Free() == 0 {
					continue
				}
			}
			out = append(out, stocked(tasks.Transfer(str.ID)))
		}
	}

	if owned && !extensionWork {
		for _, id := range z.Relays.Controller {
			relay := st.Structure(id)
			if relay == nil || relay.Pos.Range(ctrl.Pos) > tasks.RelayReach || s.occ.Staffed(relay.Pos, 1) {
				continue
			}
			if relay.Store.Used*3 > relay.Store.Capacity*2 {
				out = append(out, tasks.NewList(false, tasks.Withdraw(relay.ID), tasks.Upgrade(ctrl.ID)).WithPrimary(1))
			}
		}
	}

	for _, id := range z.Relays.Storage {
		relay := st.Structure(id)
		if relay == nil || relay.Store.Used == 0 || s.occ.Staffed(relay.Pos, 1) {
			continue
		}
		if dst := storageNear(z, relay.Pos); dst != nil {
			out = append(out, tasks.NewList(false, tasks.Withdraw(relay.ID), tasks.Transfer(dst.ID)))
		}
	}

	for _, site := range z.Sites {
		out = append(out, stocked(tasks.Build(site.ID)))
	}

	level := 0
	if ctrl != nil {
		level = ctrl.Level
	}
	repairs := 0
	for i := range z.Structures {
		if repairs >= s.opts.RepairLimit {
			break
		}
		str := &z.Structures[i]
		if !needsRepair(str, level) || s.occ.Staffed(str.Pos, 1) {
			continue
		}
		out = append(out, stocked(tasks.Repair(str.ID)))
		repairs++
	}

	return out
}

// storageNear finds our storage within relay reach with more than half its capacity free.
func storageNear(z *model.Zone, pos model.Position) *model.Structure {
	for i := range z.Structures {
		s := &z.Structures[i]
		if s.Kind == model.KindStorage && s.Mine && s.Pos.Range(pos) <= tasks.RelayReach &&
			s.Store.Free() > s.Store.Capacity/2 {
			return s
		}
	}
	return nil
}

// needsRepair reports whether a structure is below half health and worth
// fixing. Walls wait for controller level 3 and are held at 25k hits,
// ramparts at 100k.
func needsRepair(s *model.Structure, level int) bool {
	if s.HitsMax == 0 || s.Hits >= s.HitsMax/2 {
		return false
	}
	switch s.Kind {
	case model.KindWall:
		return level >= 3 && s.Hits <= 25000
	case model.KindRampart:
		return s.Mine && s.Hits <= 100000
	case model.KindRoad, model.KindContainer:
		return true
	}
	return s.Mine
}
