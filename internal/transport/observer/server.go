package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"duelforge.gg/internal/protocol"
)

// Meta is the static encounter description served on bootstrap.
type Meta struct {
	EncounterID string
	Seed        int64
	Agents      []protocol.AgentBrief
	Digests     protocol.Digests
}

// Server fans resolved ticks out to read-only websocket observers.
// Publish is called by the encounter runner after each tick; observers
// can never write back into the simulation.
type Server struct {
	meta Meta
	log  *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]chan []byte
	tick    uint64
	backlog [][]byte // most recent frames, oldest first
}

const maxBacklog = 256

func NewServer(meta Meta, logger *log.Logger) *Server {
	return &Server{
		meta: meta,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Publish encodes one resolved tick and hands it to every subscriber.
// Slow subscribers drop frames rather than stall the caller.
func (s *Server) Publish(tick uint64, digest string, events []protocol.Event) {
	msg := protocol.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Digest:          digest,
		Events:          events,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = tick
	s.backlog = append(s.backlog, b)
	if len(s.backlog) > maxBacklog {
		s.backlog = s.backlog[len(s.backlog)-maxBacklog:]
	}
	for id, ch := range s.subs {
		select {
		case ch <- b:
		default:
			if s.log != nil {
				s.log.Printf("observer %d lagging; frame dropped tick=%d", id, tick)
			}
		}
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		s.mu.Lock()
		tick := s.tick
		s.mu.Unlock()

		resp := protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			EncounterID:     s.meta.EncounterID,
			Tick:            tick,
			Seed:            s.meta.Seed,
			Agents:          s.meta.Agents,
			CatalogDigests:  s.meta.Digests,
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}
		normalizeSubscribe(&sub)

		id, out, replay := s.subscribe(sub.Backlog)
		defer s.unsubscribe(id)

		// Catch-up frames, then live.
		for _, b := range replay {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}

		writeErr := make(chan error, 1)
		go func() {
			for b := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
			writeErr <- nil
		}()

		// Reader loop: tolerate re-SUBSCRIBEs, drop everything else.
		readErr := make(chan error, 1)
		go func() {
			for {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				if _, _, err := conn.ReadMessage(); err != nil {
					readErr <- err
					return
				}
			}
		}()

		select {
		case <-writeErr:
		case <-readErr:
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	}
}

func (s *Server) subscribe(backlog int) (uint64, chan []byte, [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	ch := make(chan []byte, 64)
	s.subs[id] = ch

	var replay [][]byte
	if backlog > 0 {
		from := len(s.backlog) - backlog
		if from < 0 {
			from = 0
		}
		replay = append(replay, s.backlog[from:]...)
	}
	return id, ch, replay
}

func (s *Server) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func normalizeSubscribe(sub *protocol.SubscribeMsg) {
	if sub.Backlog < 0 {
		sub.Backlog = 0
	}
	if sub.Backlog > maxBacklog {
		sub.Backlog = maxBacklog
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
