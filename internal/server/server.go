package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/store"
)

const tracerName = "github.com/jpalmerr/scopestate/internal/server"

// Server serves a shared store over HTTP.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	shared  *store.Shared
	catalog *scopestate.Catalog

	port            int
	logger          *slog.Logger
	gatherer        prometheus.Gatherer
	tracer          trace.Tracer
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	upgrader        websocket.Upgrader

	mu      sync.Mutex
	addr    net.Addr
	stopped chan struct{}
}

// New creates a [Server] over shared, addressing records through catalog.
//
// The server is not started until [Server.Start] is called; [Server.Handler]
// can be mounted elsewhere instead.
func New(shared *store.Shared, catalog *scopestate.Catalog, opts ...Option) *Server {
	s := &Server{
		shared:          shared,
		catalog:         catalog,
		port:            defaultPort,
		logger:          slog.Default(),
		tracer:          otel.Tracer(tracerName),
		writeTimeout:    defaultWriteTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scopes", s.handleList)
		r.Get("/scopes/{name}", s.handleGet)
		r.Put("/scopes/{name}", s.handlePut)
		r.Get("/sse", s.handleSSE)
		r.Get("/ws", s.handleWS)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it shuts down gracefully within the configured
// shutdown timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	httpServer := &http.Server{
		Handler: s.Handler(),
		// request contexts end with ctx so long-lived SSE and WebSocket
		// handlers return on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	stopped := make(chan struct{})

	s.mu.Lock()
	s.addr = ln.Addr()
	s.stopped = stopped
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
			return
		}
		s.logger.Info("http server stopped")
	}()

	return nil
}

// Addr returns the listening address, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Done returns a channel that is closed once the server has shut down, or
// nil before [Server.Start].
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// recoverer turns handler panics into 500 responses. The panic and stack are
// logged under a correlation id that is also returned to the client.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			correlationID := uuid.NewString()
			s.logger.Error("handler panic",
				"correlation_id", correlationID,
				"method", r.Method,
				"path", r.URL.Path,
				"invariant_violation", store.IsInvariantViolation(rec),
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(debug.Stack()),
			)

			http.Error(w, fmt.Sprintf("internal error (correlation_id: %s)", correlationID), http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// update is the wire form of one scope value.
type update struct {
	Scope string `json:"scope"`
	Value any    `json:"value"`
}

// lookup resolves a catalog name and makes sure its record exists.
func (s *Server) lookup(name string) (*scopestate.Scope[any], bool) {
	scope, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, false
	}
	s.shared.Ensure(scope.Key(), scope.InitialValue())
	return scope, true
}

// read returns the current value of a resolved scope.
func (s *Server) read(name string, scope *scopestate.Scope[any]) update {
	return update{Scope: name, Value: s.shared.Read(scope.Key())}
}

// write stores value and notifies observers inside a span.
func (s *Server) write(ctx context.Context, name string, scope *scopestate.Scope[any], value any, transport string) {
	_, span := s.tracer.Start(ctx, "scopestate.write",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("scopestate.scope", name),
			attribute.String("scopestate.transport", transport),
		),
	)
	defer span.End()

	s.shared.Write(scope.Key(), value)

	span.SetAttributes(attribute.Int("scopestate.subscribers", s.subscriberCount(scope)))
	span.SetStatus(codes.Ok, "")

	s.logger.Debug("scope written", "scope", name, "transport", transport)
}

func (s *Server) subscriberCount(scope *scopestate.Scope[any]) int {
	var n int
	s.shared.With(func(st *store.Store) {
		n = st.SubscriberCount(scope.Key())
	})
	return n
}

// subscribe registers an observer that pushes every value written to scope
// onto ch. Sends never block: when ch is full the update is dropped.
func (s *Server) subscribe(name string, scope *scopestate.Scope[any], ch chan<- update) *store.Observer {
	key := scope.Key()

	var observer *store.Observer
	s.shared.With(func(st *store.Store) {
		// observers run inside Write, which already holds the shared lock,
		// so reading st directly is safe here
		observer = store.NewObserver(func() {
			select {
			case ch <- update{Scope: name, Value: st.Read(key)}:
			default:
				s.logger.Warn("client buffer full, dropping update", "scope", name)
			}
		})
		st.Subscribe(key, observer)
	})
	return observer
}

func (s *Server) unsubscribe(scope *scopestate.Scope[any], observer *store.Observer) {
	s.shared.With(func(st *store.Store) {
		st.Unsubscribe(scope.Key(), observer)
	})
}
