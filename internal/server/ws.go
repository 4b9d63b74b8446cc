package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/store"
)

// WebSocket request operations.
const (
	opRead        = "read"
	opWrite       = "write"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
)

// WebSocket message types pushed to clients.
const (
	msgValue = "value"
	msgError = "error"
)

// wsRequest is a client request on the WebSocket.
type wsRequest struct {
	Op    string `json:"op"`
	Scope string `json:"scope"`
	Value any    `json:"value"`
}

// wsMessage is pushed to the client. Value is set for "value" messages,
// Error for "error" messages.
type wsMessage struct {
	Type  string `json:"type"`
	Scope string `json:"scope,omitempty"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// wsSubscription is one scope a WebSocket client listens to.
type wsSubscription struct {
	scope    *scopestate.Scope[any]
	observer *store.Observer
}

// wsClient holds per-connection state. Only the handler goroutine touches it.
type wsClient struct {
	id      string
	updates chan update
	subs    map[string]wsSubscription
}

// handleWS serves the WebSocket protocol.
//
// Requests are JSON objects {"op", "scope", "value"}:
//   - read: replies with the current value
//   - write: stores value; subscribers, including this client, get the update
//   - subscribe: replies with the current value, then pushes every write
//   - unsubscribe: stops pushes for the scope
//
// Failed requests get an "error" message; the connection stays open.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &wsClient{
		id:      uuid.NewString(),
		updates: make(chan update, updateBuffer),
		subs:    make(map[string]wsSubscription),
	}
	defer func() {
		for _, sub := range client.subs {
			s.unsubscribe(sub.scope, sub.observer)
		}
	}()

	s.logger.Debug("websocket client connected", "client_id", client.id)
	defer s.logger.Debug("websocket client disconnected", "client_id", client.id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the reader goroutine only reads; every write happens below
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case data := <-frames:
			if msg, ok := s.handleWSFrame(ctx, client, data); ok {
				if err := s.writeWS(conn, msg); err != nil {
					return
				}
			}

		case u := <-client.updates:
			if err := s.writeWS(conn, wsMessage{Type: msgValue, Scope: u.Scope, Value: u.Value}); err != nil {
				return
			}

		case err := <-readErr:
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "client_id", client.id, "error", err)
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// handleWSFrame applies one client request. It returns the reply, if any.
func (s *Server) handleWSFrame(ctx context.Context, client *wsClient, data []byte) (wsMessage, bool) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsError("", fmt.Errorf("invalid request: %w", err)), true
	}

	scope, ok := s.lookup(req.Scope)
	if !ok {
		return wsError(req.Scope, fmt.Errorf("unknown scope %q", req.Scope)), true
	}

	switch req.Op {
	case opRead:
		u := s.read(req.Scope, scope)
		return wsMessage{Type: msgValue, Scope: u.Scope, Value: u.Value}, true

	case opWrite:
		s.write(ctx, req.Scope, scope, req.Value, "websocket")
		return wsMessage{}, false

	case opSubscribe:
		if _, exists := client.subs[req.Scope]; !exists {
			observer := s.subscribe(req.Scope, scope, client.updates)
			client.subs[req.Scope] = wsSubscription{scope: scope, observer: observer}
		}
		u := s.read(req.Scope, scope)
		return wsMessage{Type: msgValue, Scope: u.Scope, Value: u.Value}, true

	case opUnsubscribe:
		if sub, exists := client.subs[req.Scope]; exists {
			s.unsubscribe(sub.scope, sub.observer)
			delete(client.subs, req.Scope)
		}
		return wsMessage{}, false

	default:
		return wsError(req.Scope, fmt.Errorf("unknown op %q", req.Op)), true
	}
}

func wsError(scope string, err error) wsMessage {
	return wsMessage{Type: msgError, Scope: scope, Error: err.Error()}
}

// writeWS writes msg with a deadline.
func (s *Server) writeWS(conn *websocket.Conn, msg wsMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
