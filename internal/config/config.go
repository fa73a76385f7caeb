// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package config loads the light client's runtime configuration from an
// optional YAML file layered under environment variables, following the
// env-first, struct-of-settings style the rest of this codebase's
// lineage uses for its services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"
)

// Config holds everything the light-client binary needs at startup. The
// proof-server binary does not use it.
type Config struct {
	// ProofServerAddress is the host:port the oracle dials for each
	// Prove/Verify request.
	ProofServerAddress string `yaml:"proof_server_address"`

	// AptosNodeURL is the base URL of the Aptos full node REST API
	// polled for ledger info, epoch-change proofs and inclusion
	// witnesses.
	AptosNodeURL string `yaml:"aptos_node_url"`

	// AccountAddress is the 32-byte account this client tracks
	// inclusion proofs for.
	AccountAddress [32]byte `yaml:"-"`
	AccountHex     string   `yaml:"account_address"`

	// PollInterval is how often the polling loop checks the Aptos node
	// for a new epoch.
	PollInterval time.Duration `yaml:"poll_interval"`

	// LogLevel is passed to logging.New.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// LocalOracle selects the in-process reference Groth16 oracle
	// instead of dialing ProofServerAddress. Useful for running the
	// client against nothing but an Aptos node.
	LocalOracle bool `yaml:"local_oracle"`

	// QueueCapacity bounds the pipeline's task queue (spec.md §4.3).
	QueueCapacity int `yaml:"queue_capacity"`
}

const (
	defaultPollInterval  = 10 * time.Second
	defaultQueueCapacity = 100
)

// Load builds a Config from an optional YAML file at path (skipped if
// path is empty or the file does not exist; any other read or parse
// error is returned) and then environment variables, which always take
// precedence over the file.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ProofServerAddress: "127.0.0.1:6666",
		PollInterval:       defaultPollInterval,
		LogLevel:           "info",
		QueueCapacity:      defaultQueueCapacity,
	}

	if path != "" {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg.ProofServerAddress = getEnv("PROOF_SERVER_ADDRESS", cfg.ProofServerAddress)
	cfg.AptosNodeURL = getEnv("APTOS_NODE_URL", cfg.AptosNodeURL)
	cfg.AccountHex = getEnv("APTOS_ACCOUNT_ADDRESS", cfg.AccountHex)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", cfg.PollInterval)
	cfg.QueueCapacity = getEnvInt("QUEUE_CAPACITY", cfg.QueueCapacity)
	cfg.LocalOracle = getEnvBool("LOCAL_ORACLE", cfg.LocalOracle)

	if cfg.AccountHex == "" {
		return nil, fmt.Errorf("config: APTOS_ACCOUNT_ADDRESS (or account_address) is required")
	}
	addrBytes, err := hexutil.Decode(ensure0x(cfg.AccountHex))
	if err != nil {
		return nil, fmt.Errorf("config: invalid account address %q: %w", cfg.AccountHex, err)
	}
	if len(addrBytes) != 32 {
		return nil, fmt.Errorf("config: account address must be 32 bytes, got %d", len(addrBytes))
	}
	copy(cfg.AccountAddress[:], addrBytes)

	if cfg.AptosNodeURL == "" {
		return nil, fmt.Errorf("config: APTOS_NODE_URL is required")
	}

	return cfg, nil
}

func ensure0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s
	}
	return "0x" + s
}

func loadYAMLFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if iv, err := strconv.Atoi(v); err == nil {
			return iv
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if bv, err := strconv.ParseBool(v); err == nil {
			return bv
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if dv, err := time.ParseDuration(v); err == nil {
			return dv
		}
	}
	return defaultValue
}
