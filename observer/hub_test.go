package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nstehr/warren/scheduler"
	"github.com/stretchr/testify/require"
)

func notes(agent, task string) []scheduler.Note {
	return []scheduler.Note{{Agent: agent, Name: "worker-1-0", Task: task, Chain: task}}
}

func TestAgentsEndpoint(t *testing.T) {
	hub := NewHub()
	hub.Sink("p2").Publish(3, notes("b", "Upgrade(ctrl)"))
	hub.Sink("p1").Publish(4, notes("a", "Harvest(n1)"))

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/agents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frames []Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frames))
	require.Len(t, frames, 2)
	require.Equal(t, "p1", frames[0].Player)
	require.Equal(t, "Harvest(n1)", frames[0].Agents[0].Task)

	resp2, err := http.Get(srv.URL + "/agents?player=p2")
	require.NoError(t, err)
	defer resp2.Body.Close()
	frames = nil
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&frames))
	require.Len(t, frames, 1)
	require.Equal(t, 3, frames[0].Tick)

	post, err := http.Post(srv.URL+"/agents", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestForget(t *testing.T) {
	hub := NewHub()
	hub.Sink("p1").Publish(1, nil)
	hub.Forget("p1")
	require.Empty(t, hub.Frames())
}

func TestWebsocketStream(t *testing.T) {
	hub := NewHub()
	hub.Sink("p1").Publish(1, notes("a", "Harvest(n1)"))

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first Frame
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, 1, first.Tick)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Sink("p1").Publish(2, notes("a", "Transfer(spawn)"))

	var next Frame
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, 2, next.Tick)
	require.Equal(t, "Transfer(spawn)", next.Agents[0].Task)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
