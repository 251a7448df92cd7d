// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package coordinator wraps the etcd v3 client used by the membership
// registry (C3) and leader election (C7): ephemeral leases, watches, and
// distributed election all share one client and one session abstraction.
package coordinator

import (
	"context"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

const (
	// ExecutorsPrefix is the parent key under which ephemeral executor
	// records live, keyed by executor_id.
	ExecutorsPrefix = "/scheduler/executors/"
	// LeaderKey is the ephemeral node carrying the current leader's node id.
	LeaderKey = "/scheduler/leader"
	// LocksPrefix is the parent key for ephemeral cooperative lock nodes.
	LocksPrefix = "/scheduler/locks/"
)

// Client wraps an etcd client and the session used to create ephemeral
// keys. Losing the session (on a missed keepalive) invalidates every
// ephemeral node this process owns — registry entries, the leader node, and
// any held locks all vanish together. mu guards session, which RenewSession
// swaps out after a loss while Session/Done/PutEphemeral keep running
// concurrently from the registry and election goroutines.
type Client struct {
	etcd       *clientv3.Client
	mu         sync.RWMutex
	session    *concurrency.Session
	sessionTTL int
}

// Config carries etcd connection parameters.
type Config struct {
	Endpoints   []string
	DialTimeout time.Duration
	SessionTTL  int // seconds
}

// New dials etcd and establishes the process-wide session used for every
// ephemeral key this process creates.
//
// Parameters:
//   - cfg: endpoints, dial timeout, and session TTL.
//
// Returns:
//   - *Client: ready-to-use coordination client.
//   - error: dial or session-creation failure.
func New(cfg Config) (*Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, err
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30
	}

	session, err := concurrency.NewSession(cli, concurrency.WithTTL(ttl))
	if err != nil {
		cli.Close()
		return nil, err
	}

	return &Client{etcd: cli, session: session, sessionTTL: ttl}, nil
}

// Etcd returns the underlying etcd client for lower-level calls (watches,
// direct Get/Put/Delete) that don't need lease semantics.
func (c *Client) Etcd() *clientv3.Client {
	return c.etcd
}

// Session returns the current session. It keeps working for as long as the
// keepalive loop holds the lease; once that loop fails for good the session
// is gone permanently and callers must go through RenewSession to obtain a
// replacement.
func (c *Client) Session() *concurrency.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Done returns a channel closed when the session is lost (missed keepalive
// or explicit close) — the signal leader election and the registry use to
// treat every ephemeral node this process owns as gone.
func (c *Client) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Done()
}

// PutEphemeral writes key=value as a lease-bound node tied to the process
// session; it disappears automatically on session loss.
func (c *Client) PutEphemeral(ctx context.Context, key, value string) error {
	c.mu.RLock()
	lease := c.session.Lease()
	c.mu.RUnlock()

	_, err := c.etcd.Put(ctx, key, value, clientv3.WithLease(lease))
	return err
}

// RenewSession replaces a lost session with a freshly established one bound
// to the same TTL. A session that has fired Done() can never recover on its
// own — this is the only way back. Callers holding constructs built on the
// old session (concurrency.Election, concurrency.Mutex) must rebuild them
// against the new session afterward; the old session's ephemeral keys are
// already gone.
func (c *Client) RenewSession(ctx context.Context) error {
	session, err := concurrency.NewSession(c.etcd, concurrency.WithTTL(c.sessionTTL))
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.session
	c.session = session
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	return nil
}

// Delete removes key unconditionally.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.etcd.Delete(ctx, key)
	return err
}

// Get fetches one key's value.
//
// Returns:
//   - string: the value.
//   - bool: false when the key does not exist.
//   - error: etcd RPC failure.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := c.etcd.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

// List fetches every key under prefix.
//
// Returns:
//   - map[string]string: key (with prefix trimmed by the caller) to value.
//   - error: etcd RPC failure.
func (c *Client) List(ctx context.Context, prefix string) (map[string]string, error) {
	resp, err := c.etcd.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		out[string(kv.Key)] = string(kv.Value)
	}
	return out, nil
}

// Close releases the session and closes the underlying etcd client.
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		return err
	}
	return c.etcd.Close()
}
