package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// SimConn is the local simulation variant of Conn. It holds no server state:
// queries are empty, subscriptions register but never fire, invocations
// succeed without effect. The client core computes all outcomes locally when
// it runs on this connection.
type SimConn struct {
	log *slog.Logger

	mu       sync.Mutex
	handlers map[string][]handlerPair
	invoked  []string
}

func NewSim(log *slog.Logger) *SimConn {
	return &SimConn{
		log:      log,
		handlers: make(map[string][]handlerPair),
	}
}

func (c *SimConn) Query(collection string) []json.RawMessage {
	return nil
}

func (c *SimConn) Subscribe(collection string, onInsert, onUpdate RowHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[collection] = append(c.handlers[collection], handlerPair{onInsert: onInsert, onUpdate: onUpdate})
}

func (c *SimConn) Invoke(ctx context.Context, reducer string, args any) error {
	c.mu.Lock()
	c.invoked = append(c.invoked, reducer)
	c.mu.Unlock()
	c.log.Debug("simulated reducer call", "reducer", reducer)
	return nil
}

// Invoked returns the reducers called so far, in order.
func (c *SimConn) Invoked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invoked...)
}

func (c *SimConn) Close() error {
	return nil
}
