// Package colony runs one game session: it answers each world_state frame
// with the scheduler's and population controller's intents.
package colony

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nstehr/warren/ipc"
	"github.com/nstehr/warren/journal"
	"github.com/nstehr/warren/metrics"
	"github.com/nstehr/warren/model"
	"github.com/nstehr/warren/observer"
	"github.com/nstehr/warren/scheduler"
	"github.com/nstehr/warren/spawn"
	"github.com/nstehr/warren/world"
)

// Sender delivers a message to the game. *ipc.Connection satisfies it.
type Sender interface {
	Send(msgType string, data any) error
}

// Deps are shared across sessions; only Goals needs to be non-nil.
type Deps struct {
	Scheduler  scheduler.Options
	Spawn      spawn.Options
	Goals      spawn.GoalSource
	Metrics    *metrics.Metrics
	Hub        *observer.Hub
	JournalDir string // empty disables the journal
}

// Colony owns the decision-making for a single player session.
type Colony struct {
	Conn    Sender
	Player  string
	Session string

	deps    Deps
	sched   *scheduler.Scheduler
	spawner *spawn.Controller
	journal *journal.Writer
	events  []Event
	prev    *stateSnapshot
	notes   []scheduler.Note
}

func New(conn Sender, deps Deps) *Colony {
	c := &Colony{
		Conn:    conn,
		Session: uuid.NewString(),
		deps:    deps,
		spawner: spawn.NewController(deps.Spawn, deps.Metrics),
	}
	c.sched = scheduler.New(deps.Scheduler, deps.Metrics, c)
	return c
}

// Publish implements scheduler.Sink: notes ride along with the intents and
// go to the observer hub.
func (c *Colony) Publish(tick int, notes []scheduler.Note) {
	c.notes = notes
	if c.deps.Hub != nil && c.Player != "" {
		c.deps.Hub.Publish(observer.Frame{Player: c.Player, Tick: tick, Agents: notes})
	}
}

// HandleHello completes the handshake so the game knows the bridge is ready.
func (c *Colony) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}
	if hello.Player == "" {
		return nil, errors.New("hello without player")
	}
	if hello.Protocol != ipc.ProtocolVersion {
		slog.Warn("protocol version mismatch", "player", hello.Player, "got", hello.Protocol, "want", ipc.ProtocolVersion)
	}

	c.Player = hello.Player
	if c.deps.JournalDir != "" && c.journal == nil {
		c.journal = journal.NewWriter(filepath.Join(c.deps.JournalDir, c.Player), c.Session)
	}
	slog.Info("player identified", "player", c.Player, "session", c.Session)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Session: c.Session})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleWorldState runs one tick and sends the resulting intents before the ack.
func (c *Colony) HandleWorldState(env ipc.Envelope) (*ipc.Envelope, error) {
	if c.Player == "" {
		return nil, errors.New("world_state before hello")
	}
	st, err := ipc.DecodeWorldState(env.Data)
	if err != nil {
		return nil, err
	}

	slog.Debug("world state received",
		"player", c.Player,
		"tick", st.Tick,
		"zones", len(st.Zones),
		"agents", len(st.Agents),
		"directives", len(st.Directives),
	)
	c.observe(st)

	intents, err := c.step(st)
	if err != nil {
		return nil, err
	}

	if c.journal != nil {
		rec := journal.Record{Session: c.Session, Tick: st.Tick, State: env.Data, Intents: intents}
		if err := c.journal.Write(rec); err != nil {
			slog.Error("journal write failed", "path", c.journal.Path(), "error", err)
		}
	}

	msg := ipc.IntentsMessage{Tick: st.Tick, Intents: intents, Notes: c.notes}
	if err := c.Conn.Send(ipc.TypeIntents, msg); err != nil {
		return nil, fmt.Errorf("send intents: %w", err)
	}

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Tick: st.Tick})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// step runs the scheduler and then the population controller against one
// frame and returns the intents they produced.
func (c *Colony) step(st *model.WorldState) ([]world.Intent, error) {
	w := world.NewSnapshot(st)
	c.notes = nil
	if err := c.sched.Tick(w); err != nil {
		if errors.Is(err, scheduler.ErrPaused) {
			return nil, nil
		}
		return nil, fmt.Errorf("tick %d: %w", st.Tick, err)
	}
	if n := c.spawner.Run(w, c.deps.Goals); n > 0 {
		slog.Debug("requisitions accepted", "tick", st.Tick, "count", n)
	}
	return w.Intents(), nil
}

// observe diffs the frame against the previous one and logs what changed.
func (c *Colony) observe(st *model.WorldState) {
	cur := takeSnapshot(st)
	for _, ev := range detectEvents(st, c.prev, cur) {
		slog.Info("colony event", "player", c.Player, "kind", ev.Kind, "tick", ev.Tick, "detail", ev.Detail)
		c.deps.Metrics.IncEvent(string(ev.Kind))
		c.events = append(c.events, ev)
		if len(c.events) > maxEvents {
			c.events = c.events[len(c.events)-maxEvents:]
		}
	}
	c.prev = cur
}

// Events returns the most recent colony events, oldest first.
func (c *Colony) Events() []Event {
	return append([]Event(nil), c.events...)
}

// Pause stops the scheduler; later frames are acknowledged with no intents.
func (c *Colony) Pause() { c.sched.Pause() }

// Close flushes the journal and clears the observer entry.
func (c *Colony) Close() error {
	if c.deps.Hub != nil && c.Player != "" {
		c.deps.Hub.Forget(c.Player)
	}
	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}
