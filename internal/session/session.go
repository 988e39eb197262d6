// Package session owns the client's single backend connection. The first
// caller triggers the dial; everyone who asks while it is in flight waits for
// the same outcome, and the result is memoized for the life of the process.
// When the backend cannot be reached the session hands out the local
// simulation instead. Callers get a working connection either way and never
// see a dial error.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/wire"
)

// Dialer opens the live connection. Swapped in tests.
type Dialer func(ctx context.Context) (backend.Conn, error)

type Config struct {
	// BackendURL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	BackendURL string

	// ConnectTimeout bounds the dial plus the initial snapshot handshake.
	ConnectTimeout time.Duration

	// Collections to subscribe on connect. Defaults to every game
	// collection.
	Collections []string
}

type Session struct {
	log  *slog.Logger
	dial Dialer

	once      sync.Once
	conn      backend.Conn
	simulated bool
}

func New(cfg Config, log *slog.Logger) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	collections := cfg.Collections
	if len(collections) == 0 {
		collections = wire.Collections
	}
	return &Session{
		log: log,
		dial: func(ctx context.Context) (backend.Conn, error) {
			ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
			return backend.Dial(ctx, cfg.BackendURL, collections, log)
		},
	}
}

// NewWithDialer builds a session around a custom dialer.
func NewWithDialer(dial Dialer, log *slog.Logger) *Session {
	return &Session{log: log, dial: dial}
}

// Conn returns the backend connection, dialing on first use. Concurrent
// callers during the dial share the one attempt. The returned connection is
// never nil: an unreachable backend yields the simulation.
func (s *Session) Conn(ctx context.Context) backend.Conn {
	s.once.Do(func() {
		conn, err := s.dial(ctx)
		if err != nil {
			s.log.Warn("backend unreachable, running local simulation", "err", err)
			s.conn = backend.NewSim(s.log)
			s.simulated = true
			return
		}
		s.log.Info("connected to backend")
		s.conn = conn
	})
	return s.conn
}

// Simulated reports whether the session fell back to the local simulation.
// Only meaningful after the first Conn call.
func (s *Session) Simulated() bool {
	return s.simulated
}

func (s *Session) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
