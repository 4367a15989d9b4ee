package scheduler

import (
	"log/slog"

	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/world"
)

// relayHeadroom is the free space a receiving relay needs before we send to it.
const relayHeadroom = 50

// dispatchRelays pushes resource from source relays to storage relays, or to
// controller relays when no storage relay has room.
func (s *Scheduler) dispatchRelays(w world.World) {
	st := w.State()
	for i := range st.Zones {
		z := &st.Zones[i]
		for _, id := range z.Relays.Source {
			src := st.Structure(id)
			if src == nil || src.Store.Used == 0 {
				continue
			}
			dst := firstWithRoom(st, z.Relays.Storage)
			if dst == nil {
				dst = firstWithRoom(st, z.Relays.Controller)
			}
			if dst == nil {
				continue
			}
			if res := w.RelayTransfer(src.ID, dst.ID); res != model.OK {
				slog.Debug("relay transfer rejected", "from", src.ID, "to", dst.ID, "result", res)
			}
		}
	}
}

func firstWithRoom(st *model.WorldState, ids []string) *model.Structure {
	for _, id := range ids {
		if r := st.Structure(id); r != nil && r.Store.Free() > relayHeadroom {
			return r
		}
	}
	return nil
}
