package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/internal/server"
	"github.com/jpalmerr/scopestate/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	reg := prometheus.NewRegistry()
	st, err := scopestate.New(scopestate.WithLogger(logger), scopestate.WithMetrics(reg))
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	ctx := scopestate.WithStore(context.Background(), st)

	// two components share one scope: one reads and reacts, one only writes
	catalog := scopestate.NewCatalog()
	greeting, err := catalog.Add("greeting", "Yada")
	if err != nil {
		logger.Error("failed to add scope", "error", err)
		os.Exit(1)
	}

	var view *scopestate.Binding[any]
	view, err = scopestate.Bind(ctx, greeting, func() {
		fmt.Printf("  view sees %v\n", view.Get())
	})
	if err != nil {
		logger.Error("failed to bind", "error", err)
		os.Exit(1)
	}

	button, err := scopestate.NewWriter(ctx, greeting)
	if err != nil {
		logger.Error("failed to create writer", "error", err)
		os.Exit(1)
	}

	fmt.Printf("  initial value %v\n", view.Get())
	button.Set("Duba")
	button.Set("Zaza")
	view.Close()

	// status is updated by a background producer, so from here on every
	// access goes through the shared wrapper
	if _, err := catalog.Add("status", "ok"); err != nil {
		logger.Error("failed to add scope", "error", err)
		os.Exit(1)
	}
	shared := store.NewShared(st)

	srv := server.New(shared, catalog,
		server.WithPort(8080),
		server.WithLogger(logger),
		server.WithGatherer(reg),
	)

	fmt.Println()
	fmt.Println("  scopestate demo")
	fmt.Println()
	fmt.Println("  curl localhost:8080/api/scopes")
	fmt.Println("  curl -N localhost:8080/api/sse?scope=status")
	fmt.Println("  curl -X PUT -d '\"Yada\"' localhost:8080/api/scopes/greeting")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(runCtx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	status, _ := catalog.Lookup("status")
	go runProducer(runCtx, shared, status, logger)

	<-runCtx.Done()
	<-srv.Done()
}
