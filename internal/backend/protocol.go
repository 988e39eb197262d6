package backend

import "encoding/json"

// Wire protocol between client and server: one websocket, envelopes of the
// form {"type":"...","payload":{...}}. The client subscribes once; the server
// answers with a snapshot per collection followed by "ready", then streams
// insert/update events in commit order. Reducer invocations are correlated
// by call id.

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client -> server.
const (
	MsgSubscribe = "subscribe"
	MsgInvoke    = "invoke"
)

// Server -> client.
const (
	MsgSnapshot     = "snapshot"
	MsgReady        = "ready"
	MsgInsert       = "insert"
	MsgUpdate       = "update"
	MsgInvokeResult = "invoke_result"
	MsgError        = "error"
)

type SubscribePayload struct {
	Collections []string `json:"collections"`
}

type InvokePayload struct {
	CallID  uint64          `json:"callId"`
	Reducer string          `json:"reducer"`
	Args    json.RawMessage `json:"args"`
}

// Row carries one entity row together with the identity key the server
// upserts it under.
type Row struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

type SnapshotPayload struct {
	Collection string `json:"collection"`
	Rows       []Row  `json:"rows"`
}

type EventPayload struct {
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Row        json.RawMessage `json:"row"`
}

type InvokeResultPayload struct {
	CallID uint64 `json:"callId"`
	Error  string `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func MustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
