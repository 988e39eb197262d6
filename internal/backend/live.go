package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// liveConn is the websocket-backed Conn. It keeps a local row cache per
// subscribed collection, fed by the initial snapshot and by push events, so
// Query is a synchronous read.
type liveConn struct {
	ws  *websocket.Conn
	log *slog.Logger

	mu       sync.Mutex
	cache    map[string]*collectionCache
	handlers map[string][]handlerPair
	pending  map[uint64]chan string
	nextCall uint64

	writeMu sync.Mutex

	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type handlerPair struct {
	onInsert RowHandler
	onUpdate RowHandler
}

type collectionCache struct {
	rows  map[string]json.RawMessage
	order []string // keys in first-seen order
}

func newCollectionCache() *collectionCache {
	return &collectionCache{rows: make(map[string]json.RawMessage)}
}

func (c *collectionCache) upsert(key string, row json.RawMessage) (inserted bool) {
	if _, ok := c.rows[key]; !ok {
		c.order = append(c.order, key)
		inserted = true
	}
	c.rows[key] = row
	return inserted
}

// Dial establishes the live connection, subscribes to the given collections
// and waits for the server's initial snapshots. The ctx deadline bounds the
// whole handshake; a dead server fails here, it never hangs.
func Dial(ctx context.Context, url string, collections []string, log *slog.Logger) (Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &liveConn{
		ws:       ws,
		log:      log,
		cache:    make(map[string]*collectionCache),
		handlers: make(map[string][]handlerPair),
		pending:  make(map[uint64]chan string),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := c.write(Envelope{
		Type:    MsgSubscribe,
		Payload: MustJSON(SubscribePayload{Collections: collections}),
	}); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	go c.readLoop()

	select {
	case <-c.ready:
		return c, nil
	case <-c.done:
		return nil, fmt.Errorf("connection closed during handshake")
	case <-ctx.Done():
		_ = c.Close()
		return nil, fmt.Errorf("waiting for initial snapshot: %w", ctx.Err())
	}
}

func (c *liveConn) Query(collection string) []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	cc, ok := c.cache[collection]
	if !ok {
		return nil
	}
	rows := make([]json.RawMessage, 0, len(cc.order))
	for _, key := range cc.order {
		rows = append(rows, cc.rows[key])
	}
	return rows
}

func (c *liveConn) Subscribe(collection string, onInsert, onUpdate RowHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[collection] = append(c.handlers[collection], handlerPair{onInsert: onInsert, onUpdate: onUpdate})
}

func (c *liveConn) Invoke(ctx context.Context, reducer string, args any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	c.mu.Lock()
	c.nextCall++
	callID := c.nextCall
	result := make(chan string, 1)
	c.pending[callID] = result
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, callID)
		c.mu.Unlock()
	}()

	if err := c.write(Envelope{
		Type:    MsgInvoke,
		Payload: MustJSON(InvokePayload{CallID: callID, Reducer: reducer, Args: argsJSON}),
	}); err != nil {
		return fmt.Errorf("invoke %s: %w", reducer, err)
	}

	select {
	case msg := <-result:
		if msg != "" {
			return &InvokeError{Reducer: reducer, Message: msg}
		}
		return nil
	case <-c.done:
		return fmt.Errorf("invoke %s: connection closed", reducer)
	case <-ctx.Done():
		return fmt.Errorf("invoke %s: %w", reducer, ctx.Err())
	}
}

func (c *liveConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

func (c *liveConn) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(env)
}

func (c *liveConn) readLoop() {
	defer c.failPending()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("backend connection lost", "err", err)
				_ = c.Close()
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("bad envelope from backend", "err", err)
			continue
		}
		c.handle(env)
	}
}

func (c *liveConn) handle(env Envelope) {
	switch env.Type {
	case MsgSnapshot:
		var p SnapshotPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.mu.Lock()
		cc, ok := c.cache[p.Collection]
		if !ok {
			cc = newCollectionCache()
			c.cache[p.Collection] = cc
		}
		for _, row := range p.Rows {
			cc.upsert(row.Key, row.Data)
		}
		c.mu.Unlock()

	case MsgReady:
		select {
		case <-c.ready:
		default:
			close(c.ready)
		}

	case MsgInsert, MsgUpdate:
		var p EventPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.mu.Lock()
		cc, ok := c.cache[p.Collection]
		if !ok {
			cc = newCollectionCache()
			c.cache[p.Collection] = cc
		}
		cc.upsert(p.Key, p.Row)
		handlers := append([]handlerPair(nil), c.handlers[p.Collection]...)
		c.mu.Unlock()

		// Dispatch outside the lock, in delivery order.
		for _, h := range handlers {
			if env.Type == MsgInsert {
				if h.onInsert != nil {
					h.onInsert(p.Row)
				}
			} else if h.onUpdate != nil {
				h.onUpdate(p.Row)
			}
		}

	case MsgInvokeResult:
		var p InvokeResultPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.mu.Lock()
		result, ok := c.pending[p.CallID]
		c.mu.Unlock()
		if ok {
			result <- p.Error
		}

	case MsgError:
		var p ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.log.Warn("backend error", "code", p.Code, "message", p.Message)
	}
}

// failPending unblocks invokes that will never get an answer.
func (c *liveConn) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		select {
		case ch <- "connection closed":
		default:
		}
		delete(c.pending, id)
	}
}
