// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package election implements leader election over the ephemeral
// /scheduler/leader node: a single active scheduler process, with
// failover when the holder's session is lost.
package election

import (
	"context"
	"time"

	"github.com/seakee/dockmon/app/pkg/coordinator"
	"github.com/sk-pkg/logger"
	"go.etcd.io/etcd/client/v3/concurrency"
	"go.uber.org/zap"
)

const maxRejoinBackoff = 30 * time.Second

// Election drives exactly one campaign loop per process, invoking onLeader
// when this node becomes leader and onFollower when it loses leadership
// (session expired — every ephemeral node this process owns is already
// gone by the time onFollower fires).
type Election struct {
	coord    *coordinator.Client
	election *concurrency.Election
	nodeID   string
	logger   *logger.Manager
}

// New creates an Election bound to the process-wide coordination session.
func New(coord *coordinator.Client, nodeID string, log *logger.Manager) *Election {
	return &Election{
		coord:    coord,
		election: concurrency.NewElection(coord.Session(), coordinator.LeaderKey),
		nodeID:   nodeID,
		logger:   log,
	}
}

// Run campaigns for leadership and blocks until ctx is cancelled. It calls
// onLeader once per successful campaign and onFollower once that term ends,
// then re-campaigns — exactly one loop per process, as required.
//
// Parameters:
//   - ctx: cancelling ctx ends the loop and resigns any held leadership.
//   - onLeader: invoked (non-blocking call site expected) when this node
//     becomes leader; the scheduling engine starts ticking here.
//   - onFollower: invoked when this node stops being leader; the scheduling
//     engine stops dispatching here (the result reconciler keeps running
//     independently — see the scheduling engine's own wiring).
func (e *Election) Run(ctx context.Context, onLeader func(), onFollower func()) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := e.election.Campaign(ctx, e.nodeID); err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn(ctx, "leader campaign failed, retrying", zap.Error(err))
			continue
		}

		e.logger.Info(ctx, "became leader", zap.String("node_id", e.nodeID))
		onLeader()

		select {
		case <-ctx.Done():
			_ = e.election.Resign(context.Background())
			onFollower()
			return
		case <-e.coord.Done():
			e.logger.Warn(ctx, "coordination session lost, stepping down", zap.String("node_id", e.nodeID))
			onFollower()
			if !e.rejoin(ctx) {
				return
			}
		}
	}
}

// rejoin re-establishes the coordination session after loss and rebuilds
// the election handle against it, retrying with backoff until it succeeds
// or ctx is cancelled. A lost session can never recover on its own, so this
// is the only way a standby gets back into the campaign.
//
// Returns false if ctx was cancelled before a session could be re-established.
func (e *Election) rejoin(ctx context.Context) bool {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return false
		}

		if err := e.coord.RenewSession(ctx); err != nil {
			e.logger.Warn(ctx, "session renewal failed, retrying", zap.Error(err))

			select {
			case <-ctx.Done():
				return false
			case <-time.After(backoff):
			}

			if backoff < maxRejoinBackoff {
				backoff *= 2
				if backoff > maxRejoinBackoff {
					backoff = maxRejoinBackoff
				}
			}
			continue
		}

		e.election = concurrency.NewElection(e.coord.Session(), coordinator.LeaderKey)
		e.logger.Info(ctx, "coordination session re-established", zap.String("node_id", e.nodeID))
		return true
	}
}

// Leader reports whether a leader is currently recorded and who holds it.
//
// Returns:
//   - string: the current leader's node id, or "" if none.
//   - error: etcd RPC failure.
func (e *Election) Leader(ctx context.Context) (string, error) {
	resp, err := e.election.Leader(ctx)
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}
