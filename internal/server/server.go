package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"example.com/rocklegends/internal/auth"
	"example.com/rocklegends/internal/backend"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

// ClientConn is one connected game client.
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once

	mu   sync.Mutex
	subs map[string]bool
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.ws.Close()
	})
}

func (c *ClientConn) subscribed(collection string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[collection]
}

// enqueue drops the message when the client cannot keep up; the next
// snapshot on reconnect catches it up.
func (c *ClientConn) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

type Server struct {
	log      *slog.Logger
	world    *World
	verifier auth.Verifier

	mu      sync.Mutex
	clients map[*ClientConn]struct{}

	// optional write-through sink for durable rows
	archive func(Event)
}

func NewServer(world *World, verifier auth.Verifier, log *slog.Logger) *Server {
	return &Server{
		log:      log,
		world:    world,
		verifier: verifier,
		clients:  make(map[*ClientConn]struct{}),
	}
}

// SetArchive installs the sink that receives every event after broadcast.
func (s *Server) SetArchive(fn func(Event)) {
	s.archive = fn
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
}

// handleWS is the game socket. Auth: ?token=... or an Authorization bearer
// header.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	identity := claims.Wallet

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
		subs: make(map[string]bool),
	}

	s.mu.Lock()
	s.clients[cc] = struct{}{}
	s.mu.Unlock()

	s.log.Info("client connected", "identity", identity)

	// writer loop
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-cc.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ticker.C:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	// reader loop
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env backend.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError(cc, "bad_json", "invalid json")
			continue
		}

		switch env.Type {
		case backend.MsgSubscribe:
			var p backend.SubscribePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				s.sendError(cc, "bad_input", "invalid payload")
				continue
			}
			s.handleSubscribe(cc, p.Collections)

		case backend.MsgInvoke:
			var p backend.InvokePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				s.sendError(cc, "bad_input", "invalid payload")
				continue
			}
			s.handleInvoke(cc, identity, p)

		default:
			s.sendError(cc, "unknown_type", "unknown message type")
		}
	}

	// disconnect
	s.mu.Lock()
	delete(s.clients, cc)
	s.mu.Unlock()
	cc.Close()
	s.log.Info("client disconnected", "identity", identity)
}

// handleSubscribe replies with one snapshot per collection and a ready mark.
func (s *Server) handleSubscribe(cc *ClientConn, collections []string) {
	cc.mu.Lock()
	for _, col := range collections {
		cc.subs[col] = true
	}
	cc.mu.Unlock()

	for _, col := range collections {
		cc.enqueue(marshalEnvelope(backend.Envelope{
			Type: backend.MsgSnapshot,
			Payload: backend.MustJSON(backend.SnapshotPayload{
				Collection: col,
				Rows:       s.world.Snapshot(col),
			}),
		}))
	}
	cc.enqueue(marshalEnvelope(backend.Envelope{Type: backend.MsgReady}))
}

// handleInvoke runs the reducer, broadcasts its events, then acknowledges.
// The caller's events are queued before the acknowledgment so its local cache
// is current by the time the invoke returns.
func (s *Server) handleInvoke(cc *ClientConn, identity string, p backend.InvokePayload) {
	events, err := s.world.Apply(identity, p.Reducer, p.Args)

	result := backend.InvokeResultPayload{CallID: p.CallID}
	if err != nil {
		result.Error = err.Error()
		s.log.Warn("reducer rejected", "reducer", p.Reducer, "identity", identity, "err", err)
	} else {
		s.broadcast(events)
		if s.archive != nil {
			for _, ev := range events {
				s.archive(ev)
			}
		}
	}

	cc.enqueue(marshalEnvelope(backend.Envelope{
		Type:    backend.MsgInvokeResult,
		Payload: backend.MustJSON(result),
	}))
}

func (s *Server) broadcast(events []Event) {
	s.mu.Lock()
	clients := make([]*ClientConn, 0, len(s.clients))
	for cc := range s.clients {
		clients = append(clients, cc)
	}
	s.mu.Unlock()

	for _, ev := range events {
		msg := marshalEnvelope(backend.Envelope{
			Type: ev.Type,
			Payload: backend.MustJSON(backend.EventPayload{
				Collection: ev.Collection,
				Key:        ev.Key,
				Row:        ev.Row,
			}),
		})
		for _, cc := range clients {
			if cc.subscribed(ev.Collection) {
				cc.enqueue(msg)
			}
		}
	}
}

func (s *Server) sendError(cc *ClientConn, code, message string) {
	cc.enqueue(marshalEnvelope(backend.Envelope{
		Type:    backend.MsgError,
		Payload: backend.MustJSON(backend.ErrorPayload{Code: code, Message: message}),
	}))
}

func marshalEnvelope(env backend.Envelope) []byte {
	b, _ := json.Marshal(env)
	return b
}
