// Graceful shutdown orchestration for the streampush process.

package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHandler manages graceful shutdown on SIGINT or SIGTERM.
type ShutdownHandler struct {
	server *Server
	ctx    context.Context
	cancel context.CancelFunc
}

// NewShutdownHandler creates a handler that listens for termination signals.
// The provided context is used as the parent for shutdown operations.
func NewShutdownHandler(server *Server, ctx context.Context) *ShutdownHandler {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ShutdownHandler{
		server: server,
		ctx:    shutdownCtx,
		cancel: cancel,
	}
}

// Wait blocks until a termination signal is received or stop is closed,
// then initiates shutdown. This method should be called from the main
// goroutine.
func (h *ShutdownHandler) Wait(stop <-chan struct{}) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-stop:
	}

	// Cancel context so the media pipeline stops before the sockets close.
	h.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.server.Shutdown(shutdownCtx)
}

// Context returns the shutdown context that is cancelled when shutdown begins.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}
