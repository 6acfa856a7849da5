//
// Copyright (C) 2026 Agent Studio Authors.  All rights reserved.
//
// agent-studio-go is licensed under the Apache License Version 2.0.
//
//

// Command studio-server runs the agent studio HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentstudio/studio-go/log"
	"github.com/agentstudio/studio-go/server"
	"github.com/agentstudio/studio-go/telemetry/trace"
)

var (
	addr          = flag.String("addr", envOr("STUDIO_ADDR", ":8080"), "listen address")
	workspacesDir = flag.String("workspaces", os.Getenv("STUDIO_WORKSPACES_DIR"), "directory for run workspaces")
	enableTrace   = flag.Bool("trace", os.Getenv("STUDIO_TRACE") == "1", "export OTLP traces")
	traceProto    = flag.String("trace-protocol", envOr("STUDIO_TRACE_PROTOCOL", trace.ProtocolGRPC), "OTLP transport, grpc or http")
)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	flag.Parse()

	if *enableTrace {
		clean, err := trace.Start(context.Background(), trace.WithProtocol(*traceProto))
		if err != nil {
			log.Fatalf("failed to start tracing: %v", err)
		}
		defer func() {
			if err := clean(); err != nil {
				log.Warnf("failed to shut down tracing: %v", err)
			}
		}()
	}

	var managerOpts []server.ManagerOption
	if *workspacesDir != "" {
		managerOpts = append(managerOpts, server.WithWorkspacesDir(*workspacesDir))
	}
	manager, err := server.NewManager(managerOpts...)
	if err != nil {
		log.Fatalf("failed to create run manager: %v", err)
	}
	defer manager.Close()

	srv := server.New(manager, server.WithAddr(*addr))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown error: %v", err)
		}
	}
}
