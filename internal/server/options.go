package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort            = 8080
	defaultWriteTimeout    = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	// updateBuffer is the per-client capacity for pending value updates.
	// Updates beyond it are dropped for that client.
	updateBuffer = 64
)

// Option configures a [Server].
type Option func(*Server)

// WithPort sets the TCP port used by [Server.Start]. Port 0 picks a free port.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithLogger sets the logger for server events. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer serves the gatherer's metrics at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTracer sets the tracer used for write spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithWriteTimeout bounds a single SSE or WebSocket write so that slow or
// disconnected clients cannot block a handler forever.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown once the start context is
// cancelled.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}
