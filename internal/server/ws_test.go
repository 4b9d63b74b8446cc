package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, f *testFixture) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, req wsRequest) {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHandleWS_Read(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	send(t, conn, wsRequest{Op: opRead, Scope: "greeting"})

	msg := receive(t, conn)
	if msg.Type != msgValue || msg.Scope != "greeting" || msg.Value != "Yada" {
		t.Errorf("got %+v, want value greeting=Yada", msg)
	}
}

func TestHandleWS_SubscribeThenWrite(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	send(t, conn, wsRequest{Op: opSubscribe, Scope: "greeting"})
	if msg := receive(t, conn); msg.Value != "Yada" {
		t.Fatalf("subscribe reply = %+v, want current value Yada", msg)
	}

	send(t, conn, wsRequest{Op: opWrite, Scope: "greeting", Value: "Duba"})
	if msg := receive(t, conn); msg.Type != msgValue || msg.Value != "Duba" {
		t.Errorf("update = %+v, want Duba", msg)
	}

	// writes from other clients reach this one too
	f.shared.Write(f.key(t, "greeting"), "Zaza")
	if msg := receive(t, conn); msg.Value != "Zaza" {
		t.Errorf("update = %+v, want Zaza", msg)
	}
}

func TestHandleWS_SubscribeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	send(t, conn, wsRequest{Op: opSubscribe, Scope: "greeting"})
	receive(t, conn)
	send(t, conn, wsRequest{Op: opSubscribe, Scope: "greeting"})
	receive(t, conn)

	if n := f.subscribers(t, "greeting"); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}
}

func TestHandleWS_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	send(t, conn, wsRequest{Op: opSubscribe, Scope: "greeting"})
	receive(t, conn)
	send(t, conn, wsRequest{Op: opUnsubscribe, Scope: "greeting"})
	send(t, conn, wsRequest{Op: opWrite, Scope: "greeting", Value: "Duba"})
	send(t, conn, wsRequest{Op: opRead, Scope: "counter"})

	// no update for greeting arrives before the read reply
	msg := receive(t, conn)
	if msg.Scope != "counter" {
		t.Errorf("got %+v, want read reply for counter", msg)
	}
	if n := f.subscribers(t, "greeting"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestHandleWS_Errors(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr string
	}{
		{"invalid JSON", `{"op":`, "invalid request"},
		{"unknown scope", `{"op":"read","scope":"missing"}`, "unknown scope"},
		{"unknown op", `{"op":"delete","scope":"greeting"}`, "unknown op"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			conn := dialWS(t, f)

			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.frame)); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}

			msg := receive(t, conn)
			if msg.Type != msgError {
				t.Fatalf("type = %q, want %q", msg.Type, msgError)
			}
			if !strings.Contains(msg.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", msg.Error, tt.wantErr)
			}

			// the connection survives a bad request
			send(t, conn, wsRequest{Op: opRead, Scope: "greeting"})
			if msg := receive(t, conn); msg.Value != "Yada" {
				t.Errorf("read after error = %+v, want Yada", msg)
			}
		})
	}
}

func TestHandleWS_DisconnectUnsubscribes(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	send(t, conn, wsRequest{Op: opSubscribe, Scope: "greeting"})
	send(t, conn, wsRequest{Op: opSubscribe, Scope: "counter"})
	receive(t, conn)
	receive(t, conn)

	conn.Close()

	waitFor(t, func() bool {
		return f.subscribers(t, "greeting") == 0 && f.subscribers(t, "counter") == 0
	})
}
