// Package backend defines the contract the client core consumes from the
// real-time service: a connection that supports synchronous snapshot queries,
// push subscriptions and reducer invocations. Two variants implement it: the
// live websocket connection and the in-memory local simulation. Callers never
// branch on which variant they hold.
package backend

import (
	"context"
	"encoding/json"
)

// RowHandler receives one raw row from a snapshot or a push event.
type RowHandler func(row json.RawMessage)

// Conn is a connection to the game backend.
type Conn interface {
	// Query returns the current snapshot of a collection from the
	// connection's local row cache. It never blocks.
	Query(collection string) []json.RawMessage

	// Subscribe registers push callbacks for a collection. Events are
	// delivered in backend order, one at a time.
	Subscribe(collection string, onInsert, onUpdate RowHandler)

	// Invoke calls a named reducer on the backend and waits for its
	// acknowledgment. A rejected reducer surfaces as *InvokeError.
	Invoke(ctx context.Context, reducer string, args any) error

	Close() error
}

// InvokeError is a reducer rejection from a reachable backend.
type InvokeError struct {
	Reducer string
	Message string
}

func (e *InvokeError) Error() string {
	return "reducer " + e.Reducer + " rejected: " + e.Message
}
