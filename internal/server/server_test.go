package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/rocklegends/internal/auth"
	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/wire"
)

var testSecret = []byte("test-secret")

func startTestServer(t *testing.T) (*World, string) {
	t.Helper()
	world := NewWorld(testLog)
	srv := NewServer(world, auth.HSVerifier{Secret: testSecret}, testLog)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return world, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialAs(t *testing.T, url, wallet string) backend.Conn {
	t.Helper()
	token, err := auth.Sign(testSecret, wallet, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := backend.Dial(ctx, url+"?token="+token, wire.Collections, testLog)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWS_RejectsBadToken(t *testing.T) {
	_, url := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := backend.Dial(ctx, url+"?token=garbage", wire.Collections, testLog); err == nil {
		t.Fatalf("dial with a bad token succeeded")
	}
	if _, err := backend.Dial(ctx, url, wire.Collections, testLog); err == nil {
		t.Fatalf("dial with no token succeeded")
	}
}

func TestWS_SubscribeDeliversSnapshotAndReady(t *testing.T) {
	world, url := startTestServer(t)
	if _, err := world.Apply("0xother", wire.ReducerCreateCharacter,
		backend.MustJSON(wire.CreateCharacterArgs{Username: "Early"})); err != nil {
		t.Fatalf("seed: %v", err)
	}

	conn := dialAs(t, url, "0xace")

	if got := len(conn.Query(wire.CollectionPlayers)); got != 1 {
		t.Fatalf("player snapshot rows = %d, want 1", got)
	}
	if got := len(conn.Query(wire.CollectionTournaments)); got != 1 {
		t.Fatalf("tournament snapshot rows = %d, want 1 (weekly seed)", got)
	}
}

func TestWS_InvokeAppliesBeforeAck(t *testing.T) {
	_, url := startTestServer(t)
	conn := dialAs(t, url, "0xace")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, wire.ReducerCreateCharacter, wire.CreateCharacterArgs{Username: "Ace"}); err != nil {
		t.Fatalf("create_character: %v", err)
	}

	// The insert event precedes the ack on the wire, so the local cache
	// already has the row.
	rows := conn.Query(wire.CollectionPlayers)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	var row wire.PlayerRow
	if err := json.Unmarshal(rows[0], &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row.Identity != "0xace" || row.Username != "Ace" {
		t.Fatalf("row = %+v", row)
	}
}

func TestWS_RejectionSurfacesAsInvokeError(t *testing.T) {
	_, url := startTestServer(t)
	conn := dialAs(t, url, "0xace")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Invoke(ctx, wire.ReducerCreateCharacter, wire.CreateCharacterArgs{Username: "Ace"}); err != nil {
		t.Fatalf("create_character: %v", err)
	}

	err := conn.Invoke(ctx, wire.ReducerCreateBand, wire.CreateBandArgs{Name: ""})
	var invokeErr *backend.InvokeError
	if !errors.As(err, &invokeErr) {
		t.Fatalf("want *InvokeError, got %v", err)
	}
}

func TestWS_BroadcastReachesOtherClients(t *testing.T) {
	_, url := startTestServer(t)
	ace := dialAs(t, url, "0xace")
	bob := dialAs(t, url, "0xbob")

	inserts := make(chan json.RawMessage, 8)
	bob.Subscribe(wire.CollectionBands, func(row json.RawMessage) { inserts <- row }, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := ace.Invoke(ctx, wire.ReducerCreateCharacter, wire.CreateCharacterArgs{Username: "Ace"}); err != nil {
		t.Fatalf("create_character: %v", err)
	}
	if err := ace.Invoke(ctx, wire.ReducerCreateBand, wire.CreateBandArgs{Name: "The Amps"}); err != nil {
		t.Fatalf("create_band: %v", err)
	}

	select {
	case raw := <-inserts:
		var row wire.BandRow
		if err := json.Unmarshal(raw, &row); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if row.Name != "The Amps" {
			t.Fatalf("row = %+v", row)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("band insert never reached the second client")
	}
}
