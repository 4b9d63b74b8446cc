package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/store"
)

// maxBodyBytes caps PUT request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "ok\n"); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}

// handleList returns every catalog scope with its current value, in catalog
// order.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := s.catalog.Names()
	updates := make([]update, 0, len(names))
	for _, name := range names {
		scope, _ := s.lookup(name)
		updates = append(updates, s.read(name, scope))
	}
	s.writeJSON(w, http.StatusOK, updates)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	scope, ok := s.lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown scope %q", name), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.read(name, scope))
}

// handlePut replaces a scope's value with the JSON request body and notifies
// its observers.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	scope, ok := s.lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown scope %q", name), http.StatusNotFound)
		return
	}

	var value any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&value); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return
	}

	s.write(r.Context(), name, scope, value, "http")
	s.writeJSON(w, http.StatusOK, s.read(name, scope))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// resolveScopes maps the requested names to catalog scopes. No names means
// every scope in the catalog.
func (s *Server) resolveScopes(names []string) (map[string]*scopestate.Scope[any], error) {
	if len(names) == 0 {
		names = s.catalog.Names()
	}

	scopes := make(map[string]*scopestate.Scope[any], len(names))
	for _, name := range names {
		scope, ok := s.lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scope %q", name)
		}
		scopes[name] = scope
	}
	return scopes, nil
}

// handleSSE streams scope values via Server-Sent Events.
//
// The current value of every requested scope is sent first, then one event
// per notification. Writes carry a deadline so a slow or disconnected client
// cannot block the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	scopes, err := s.resolveScopes(r.URL.Query()["scope"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	rc := http.NewResponseController(w)

	// not every ResponseWriter supports deadlines
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	updates := make(chan update, updateBuffer)
	observers := make(map[*store.Observer]*scopestate.Scope[any], len(scopes))
	for name, scope := range scopes {
		observers[s.subscribe(name, scope, updates)] = scope
	}
	defer func() {
		for observer, scope := range observers {
			s.unsubscribe(scope, observer)
		}
	}()

	for _, name := range s.catalog.Names() {
		scope, ok := scopes[name]
		if !ok {
			continue
		}
		data, err := json.Marshal(s.read(name, scope))
		if err != nil {
			s.logger.Warn("failed to encode scope value", "scope", name, "error", err)
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case u := <-updates:
			data, err := json.Marshal(u)
			if err != nil {
				s.logger.Warn("failed to encode scope value", "scope", u.Scope, "error", err)
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and, via BaseContext, on shutdown
			return
		}
	}
}
