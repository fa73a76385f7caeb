// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package aptosclient fetches ledger data from an Aptos full node's REST
// API: the latest ledger info, epoch-change proofs and account inclusion
// witnesses. Responses are requested and decoded as the shared canonical
// byte encoding (spec.md §1) rather than JSON, matching how the core
// treats Aptos ledger data as an opaque external collaborator.
package aptosclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/samuelburnham/zk-light-clients/internal/ledgerinfo"
)

// FetcherError wraps a failure talking to a specific Aptos node
// endpoint.
type FetcherError struct {
	Endpoint string
	Source   error
}

func (e *FetcherError) Error() string {
	return fmt.Sprintf("aptosclient: %s: %v", e.Endpoint, e.Source)
}

func (e *FetcherError) Unwrap() error {
	return e.Source
}

// Client fetches ledger data over HTTP from a single Aptos node.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client talking to baseURL (e.g. "https://fullnode.example.com").
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// NewWithHTTPClient is like New but lets callers inject a custom
// *http.Client, primarily for tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &FetcherError{Endpoint: path, Source: err}
	}
	req.Header.Set("Accept", "application/x-bcs")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetcherError{Endpoint: path, Source: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetcherError{Endpoint: path, Source: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetcherError{Endpoint: path, Source: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}
	return body, nil
}

// FetchLedgerInfo fetches the Aptos node's current ledger info.
func (c *Client) FetchLedgerInfo(ctx context.Context) (ledgerinfo.LedgerInfoWithSignatures, error) {
	body, err := c.get(ctx, "/v1/ledger_info")
	if err != nil {
		return ledgerinfo.LedgerInfoWithSignatures{}, err
	}
	li, err := ledgerinfo.UnmarshalLedgerInfoWithSignatures(body)
	if err != nil {
		return ledgerinfo.LedgerInfoWithSignatures{}, &FetcherError{Endpoint: "/v1/ledger_info", Source: err}
	}
	return li, nil
}

// FetchEpochChangeProof fetches the ordered list of reconfiguration
// ledger infos starting at fromEpoch, proving the committee transition
// up to the node's latest known epoch.
func (c *Client) FetchEpochChangeProof(ctx context.Context, fromEpoch uint64) (ledgerinfo.EpochChangeProof, error) {
	path := fmt.Sprintf("/v1/epoch_change_proof?epoch_number=%d", fromEpoch)
	body, err := c.get(ctx, path)
	if err != nil {
		return ledgerinfo.EpochChangeProof{}, err
	}
	proof, err := ledgerinfo.UnmarshalEpochChangeProof(body)
	if err != nil {
		return ledgerinfo.EpochChangeProof{}, &FetcherError{Endpoint: path, Source: err}
	}
	return proof, nil
}

// FetchInclusionWitness fetches the sparse Merkle inclusion witness for
// the account at addr, rooted at the node's latest ledger info.
func (c *Client) FetchInclusionWitness(ctx context.Context, addr [32]byte) (ledgerinfo.InclusionWitness, error) {
	path := fmt.Sprintf("/v1/account_inclusion/%x", addr)
	body, err := c.get(ctx, path)
	if err != nil {
		return ledgerinfo.InclusionWitness{}, err
	}
	w, err := ledgerinfo.UnmarshalInclusionWitness(body)
	if err != nil {
		return ledgerinfo.InclusionWitness{}, &FetcherError{Endpoint: path, Source: err}
	}
	return w, nil
}
