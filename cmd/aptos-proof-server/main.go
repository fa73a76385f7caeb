// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Command aptos-proof-server runs a reference proof server: it accepts
// framed requests over TCP and answers them with the in-process Groth16
// oracle. A production deployment would back this binary with whatever
// proving infrastructure operates the real remote collaborator (spec.md
// §1); this one exists so the client can be run end to end without one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samuelburnham/zk-light-clients/internal/logging"
	"github.com/samuelburnham/zk-light-clients/internal/oracle/localgroth16"
	"github.com/samuelburnham/zk-light-clients/internal/proofserver"
)

func main() {
	var (
		listenAddr = flag.String("listen", envOr("PROOF_SERVER_LISTEN", "0.0.0.0:6666"), "Address to accept proof-server connections on")
		logLevel   = flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level: debug, info, error, or none")
	)
	flag.Parse()

	log := logging.New(*logLevel)
	oc := localgroth16.New()
	srv := proofserver.New(oc, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	if err := srv.ListenAndServe(ctx, *listenAddr); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "aptos-proof-server: %v\n", err)
		os.Exit(1)
	}
	log.Info("aptos-proof-server stopped")
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
