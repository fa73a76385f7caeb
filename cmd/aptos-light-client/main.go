// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Command aptos-light-client runs the proof orchestration pipeline: it
// polls an Aptos full node, requests epoch-change and inclusion proofs
// from a remote proof server (or an in-process reference oracle), and
// verifies them against an evolving trusted state.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samuelburnham/zk-light-clients/internal/aptosclient"
	"github.com/samuelburnham/zk-light-clients/internal/config"
	"github.com/samuelburnham/zk-light-clients/internal/logging"
	"github.com/samuelburnham/zk-light-clients/internal/metrics"
	"github.com/samuelburnham/zk-light-clients/internal/oracle"
	"github.com/samuelburnham/zk-light-clients/internal/oracle/localgroth16"
	"github.com/samuelburnham/zk-light-clients/internal/oracle/rpcoracle"
	"github.com/samuelburnham/zk-light-clients/internal/pipeline"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to an optional YAML config file")
		proofAddr   = flag.String("proof-server-address", "", "Proof server host:port (overrides config/env)")
		nodeURL     = flag.String("aptos-node-url", "", "Aptos full node base URL (overrides config/env)")
		account     = flag.String("account", "", "32-byte hex account address to track (overrides config/env)")
		metricsAddr = flag.String("metrics-addr", "", "Address to serve /metrics on (overrides config/env)")
		localOracle = flag.Bool("local-oracle", false, "Use the in-process reference Groth16 oracle instead of a remote proof server")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aptos-light-client: %v\n", err)
		os.Exit(1)
	}
	if *proofAddr != "" {
		cfg.ProofServerAddress = *proofAddr
	}
	if *nodeURL != "" {
		cfg.AptosNodeURL = *nodeURL
	}
	if *account != "" {
		cfg.AccountHex = *account
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *localOracle {
		cfg.LocalOracle = true
	}

	log := logging.New(cfg.LogLevel)
	log.Info("starting aptos-light-client",
		"proof_server", cfg.ProofServerAddress,
		"aptos_node", cfg.AptosNodeURL,
		"local_oracle", cfg.LocalOracle,
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		go serveMetrics(log, cfg.MetricsAddr)
	}

	fetcher := aptosclient.New(cfg.AptosNodeURL)

	var oc oracle.ProofOracle
	if cfg.LocalOracle {
		oc = localgroth16.New()
	} else {
		oc = rpcoracle.New(cfg.ProofServerAddress)
	}

	p := pipeline.New(fetcher, oc, cfg.AccountAddress, cfg.PollInterval, cfg.QueueCapacity, log, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Init(ctx); err != nil {
		log.Error("pipeline initialization failed", "err", err)
		os.Exit(1)
	}
	log.Info("pipeline initialized, entering run loop")

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("received shutdown signal", "signal", sig.String())
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil {
			log.Error("pipeline run loop exited with a fatal error", "err", err)
			os.Exit(1)
		}
	}

	log.Info("aptos-light-client stopped")
}

func serveMetrics(log interface {
	Error(msg string, keyvals ...interface{})
}, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server stopped", "err", err)
	}
}
