package scopestate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// discardLogger returns a logger that discards all output for clean test output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestContext returns a context carrying a fresh store.
func newTestContext(t *testing.T) context.Context {
	t.Helper()
	st, err := New(WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return WithStore(context.Background(), st)
}

func TestStoreFrom(t *testing.T) {
	st, err := New(WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := StoreFrom(WithStore(context.Background(), st))
	if err != nil {
		t.Fatalf("StoreFrom() error = %v", err)
	}
	if got != st {
		t.Error("StoreFrom() returned a different store")
	}
}

func TestStoreFrom_Missing(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"background", context.Background()},
		{"nil store", WithStore(context.Background(), nil)},
		{"nil context", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StoreFrom(tt.ctx)
			if !errors.Is(err, ErrStoreMissing) {
				t.Errorf("StoreFrom() error = %v, want ErrStoreMissing", err)
			}
		})
	}
}

func TestWithStore_SeparateInstances(t *testing.T) {
	scope := NewScope(0)

	ctxA := newTestContext(t)
	ctxB := newTestContext(t)

	if err := Initialize(ctxA, scope, 5); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	w, err := NewWriter(ctxB, scope)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if got := w.Current(); got != 0 {
		t.Errorf("Current() in second store = %d, want 0 (stores are independent)", got)
	}
}
