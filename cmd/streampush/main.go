// Main entrypoint for streampush. Loads configuration, connects the
// publisher to the ingest server, and replays the configured input file
// until interrupted.

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/arkavo-org/streampush/internal/config"
	"github.com/arkavo-org/streampush/internal/core/bus"
	"github.com/arkavo-org/streampush/internal/metrics"
	"github.com/arkavo-org/streampush/internal/publisher"
	"github.com/arkavo-org/streampush/internal/server"
	"github.com/arkavo-org/streampush/internal/svc/filesource"
)

// connectTimeout bounds one connection attempt end to end.
const connectTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "configs/streampush.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	m := metrics.New()
	pub := publisher.New(publisher.Options{Metrics: m})

	strategy, err := cfg.Queue.Strategy()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	ring := bus.NewRingBuffer(uint32(cfg.Queue.Capacity), strategy)

	ctx := context.Background()
	srv := server.New(cfg, pub, func() bool {
		return pub.State() == publisher.StatePublishing
	})
	shutdownHandler := server.NewShutdownHandler(srv, ctx)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	connectCtx, cancel := context.WithTimeout(shutdownHandler.Context(), connectTimeout)
	err = pub.Connect(connectCtx, cfg.Destination, cfg.StreamKey)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	// Media pipeline: the file source fills the ring, the pump drains it
	// into the publisher. Both stop when the shutdown context is cancelled
	// or the session dies.
	pipelineDone := make(chan struct{})
	pipeCtx, cancelPipe := context.WithCancel(shutdownHandler.Context())
	defer cancelPipe()

	go func() {
		src := filesource.New(cfg.Input, ring)
		if err := src.Run(pipeCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Input stopped: %v", err)
		}
		// Finite input: let the pump drain what is queued, then stop it.
		for ring.Len() > 0 && pipeCtx.Err() == nil {
			time.Sleep(10 * time.Millisecond)
		}
		cancelPipe()
	}()

	go func() {
		defer close(pipelineDone)
		pump := publisher.NewPump(ring, pub, m)
		if err := pump.Run(pipeCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Pipeline stopped: %v", err)
		}
	}()

	if err := shutdownHandler.Wait(pipelineDone); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	if err := pub.Disconnect(); err != nil {
		log.Printf("Disconnect error: %v", err)
		os.Exit(1)
	}
	log.Println("Shut down cleanly")
}
