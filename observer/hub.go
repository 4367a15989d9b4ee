// Package observer streams per-agent task notes to websocket clients and
// serves the latest table over HTTP.
package observer

import (
	"cmp"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nstehr/warren/scheduler"
)

// Frame is one tick of notes for one player.
type Frame struct {
	Player string           `json:"player"`
	Tick   int              `json:"tick"`
	Agents []scheduler.Note `json:"agents"`
}

// Hub fans frames out to subscribers. Slow subscribers drop frames rather
// than stall the tick.
type Hub struct {
	mu     sync.RWMutex
	latest map[string]Frame
	subs   map[uint64]chan []byte

	nextID   atomic.Uint64
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		latest: make(map[string]Frame),
		subs:   make(map[uint64]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Sink returns a scheduler.Sink that publishes under the given player.
func (h *Hub) Sink(player string) scheduler.Sink {
	return scheduler.SinkFunc(func(tick int, notes []scheduler.Note) {
		h.Publish(Frame{Player: player, Tick: tick, Agents: notes})
	})
}

func (h *Hub) Publish(f Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		slog.Error("observer marshal failed", "player", f.Player, "error", err)
		return
	}

	h.mu.Lock()
	h.latest[f.Player] = f
	subs := make([]chan []byte, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- b:
		default:
		}
	}
}

// Frames returns the latest frame per player, sorted by player.
func (h *Hub) Frames() []Frame {
	h.mu.RLock()
	out := make([]Frame, 0, len(h.latest))
	for _, f := range h.latest {
		out = append(out, f)
	}
	h.mu.RUnlock()
	slices.SortFunc(out, func(a, b Frame) int { return cmp.Compare(a.Player, b.Player) })
	return out
}

// Forget drops a player's frame once its session ends.
func (h *Hub) Forget(player string) {
	h.mu.Lock()
	delete(h.latest, player)
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (uint64, chan []byte) {
	id := h.nextID.Add(1)
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Handler serves GET /agents and the /ws stream.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/agents", h.AgentsHandler())
	mux.HandleFunc("/ws", h.WSHandler())
	return mux
}

// AgentsHandler returns the latest frames as JSON. ?player= narrows to one.
func (h *Hub) AgentsHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		frames := h.Frames()
		if p := r.URL.Query().Get("player"); p != "" {
			frames = slices.DeleteFunc(frames, func(f Frame) bool { return f.Player != p })
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(frames)
	}
}

// WSHandler upgrades the request and streams every published frame. The
// latest frames are sent first so a new client has something to draw.
func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := h.subscribe()
		defer h.unsubscribe(id)
		slog.Debug("observer connected", "id", id, "remote", r.RemoteAddr)

		for _, f := range h.Frames() {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}

		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reads only detect the client going away.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		close(done)

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		slog.Debug("observer disconnected", "id", id)
	}
}
