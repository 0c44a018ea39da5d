package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"banshee/internal/app"
	"banshee/internal/logging"
	"banshee/internal/preflight"
	"banshee/internal/transaction"
)

// errTransactionsFailed is returned when at least one transaction failed.
var errTransactionsFailed = errors.New("one or more transactions failed")

// requirePreflight refuses to start work when a required check fails.
func requirePreflight(ctx context.Context, a *app.App) error {
	results := preflight.RunAll(ctx, a.Config())
	if failed, ok := preflight.FirstBlocking(results); ok {
		return fmt.Errorf("preflight %s failed: %s (run `banshee doctor` for details)", failed.Name, failed.Detail)
	}
	return nil
}

// runTransactions registers txs, renders progress to out until the manager
// is idle, and shuts the app down. An interrupt cancels all work and waits for
// it to wind down before returning context.Canceled.
func runTransactions(parent context.Context, a *app.App, out io.Writer, txs ...transaction.Transaction) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := a.Manager()
	events, unsubscribe := manager.Watch()
	view := newProgressView(out, manager, shouldColorize(out))
	viewDone := make(chan struct{})
	viewCtx, stopView := context.WithCancel(context.Background())
	go func() {
		defer close(viewDone)
		view.run(viewCtx, events)
	}()
	finishView := func() {
		stopView()
		<-viewDone
		unsubscribe()
	}

	registerAll(a.Logger(), manager, txs)

	interrupted := false
	if err := manager.WaitIdle(ctx); err != nil {
		interrupted = true
		fmt.Fprintln(out, "\nInterrupted; cancelling transactions...")
		manager.CancelAll()
	}

	shutdownErr := a.Shutdown(context.Background())
	finishView()

	var failed int
	for _, tx := range txs {
		if tx.Outcome().State == transaction.StateFailed {
			failed++
		}
	}
	view.summary(txs)

	switch {
	case shutdownErr != nil:
		return shutdownErr
	case interrupted:
		return context.Canceled
	case failed > 0:
		return errTransactionsFailed
	default:
		return nil
	}
}

type registrar interface {
	Register(tx transaction.Transaction) bool
}

// registerAll hands txs to reg. A refused transaction is cancelled so it
// reaches a terminal state and releases whatever it holds.
func registerAll(logger *slog.Logger, reg registrar, txs []transaction.Transaction) {
	for _, tx := range txs {
		if reg.Register(tx) {
			continue
		}
		logger.Warn("transaction refused by manager",
			logging.String("name", tx.Name()),
			logging.String("category", tx.Category().String()),
		)
		tx.Cancel()
	}
}
