package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"duelforge.gg/internal/protocol"
)

func testServer() *Server {
	return NewServer(Meta{
		EncounterID: "enc-1",
		Seed:        42,
		Agents: []protocol.AgentBrief{
			{ID: "anna", Name: "Anna", PlanID: "humanoid"},
			{ID: "bruno", Name: "Bruno", PlanID: "humanoid", AI: true},
		},
	}, nil)
}

func TestBootstrap(t *testing.T) {
	s := testServer()
	s.Publish(3, "abc", nil)

	ts := httptest.NewServer(s.BootstrapHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var boot protocol.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if boot.EncounterID != "enc-1" || boot.Tick != 3 || boot.Seed != 42 {
		t.Fatalf("bootstrap mismatch: %+v", boot)
	}
	if len(boot.Agents) != 2 || boot.Agents[1].AI != true {
		t.Fatalf("agents mismatch: %+v", boot.Agents)
	}
}

func dialWS(t *testing.T, ts *httptest.Server, backlog int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	sub := protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
		Backlog:         backlog,
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return conn
}

func readTick(t *testing.T, conn *websocket.Conn) protocol.TickMsg {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.TickMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	return msg
}

func TestLiveTickStream(t *testing.T) {
	s := testServer()
	ts := httptest.NewServer(s.WSHandler())
	defer ts.Close()

	conn := dialWS(t, ts, 0)
	defer conn.Close()

	// The subscribe handshake races with Publish; give the reader loop a
	// beat to register.
	time.Sleep(50 * time.Millisecond)
	s.Publish(1, "d1", []protocol.Event{{"type": protocol.EvPlayScheduled}})

	msg := readTick(t, conn)
	if msg.Type != protocol.TypeTick || msg.Tick != 1 || msg.Digest != "d1" {
		t.Fatalf("tick frame mismatch: %+v", msg)
	}
	if len(msg.Events) != 1 {
		t.Fatalf("events not forwarded: %+v", msg.Events)
	}
}

func TestBacklogReplay(t *testing.T) {
	s := testServer()
	for i := uint64(1); i <= 5; i++ {
		s.Publish(i, "d", nil)
	}

	ts := httptest.NewServer(s.WSHandler())
	defer ts.Close()

	conn := dialWS(t, ts, 3)
	defer conn.Close()

	for want := uint64(3); want <= 5; want++ {
		if msg := readTick(t, conn); msg.Tick != want {
			t.Fatalf("backlog tick = %d, want %d", msg.Tick, want)
		}
	}
}

func TestRejectsBadSubscribe(t *testing.T) {
	s := testServer()
	ts := httptest.NewServer(s.WSHandler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(map[string]string{"type": "HELLO"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after bad handshake")
	}
}
