// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package heartbeat implements the executor's periodic liveness signal: a
// store write plus a broker envelope, every executor.heartbeat_interval
// seconds.
package heartbeat

import (
	"context"
	"time"

	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/seakee/dockmon/app/pkg/registry"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

const retryBackoff = 5 * time.Second

// Producer is the subset of broker.Client the heartbeat needs to publish
// liveness envelopes; a narrow interface so tests can substitute a fake
// without a live broker connection, same as app/executor/runner.
type Producer interface {
	Produce(ctx context.Context, topic, key string, envelope broker.Envelope) bool
}

// Heartbeat periodically writes liveness to the store, the broker, and the
// coordination service's ephemeral roster.
type Heartbeat struct {
	executorID string
	host       string
	port       int
	maxLoad    int
	interval   time.Duration
	repo       jobrepo.Repo
	broker     Producer
	registry   *registry.Registry // nil disables the etcd mirror
	logger     *logger.Manager
}

// New creates a Heartbeat for one executor process. reg may be nil, in
// which case liveness is reported to the store and broker only.
func New(executorID, host string, port, maxLoad int, interval time.Duration, repo jobrepo.Repo, brk Producer, reg *registry.Registry, log *logger.Manager) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeat{
		executorID: executorID,
		host:       host,
		port:       port,
		maxLoad:    maxLoad,
		interval:   interval,
		repo:       repo,
		broker:     brk,
		registry:   reg,
		logger:     log,
	}
}

// Run blocks, writing liveness every interval until ctx is cancelled. On
// orderly shutdown (ctx cancelled) it marks the executor offline and
// returns; the caller is responsible for stopping the broker consumer
// alongside it.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-ticker.C:
			h.beat(ctx)
		}
	}
}

func (h *Heartbeat) beat(ctx context.Context) {
	now := time.Now()

	if err := h.repo.UpdateExecutorHeartbeat(ctx, h.executorID, now); err != nil {
		h.logger.Warn(ctx, "heartbeat store write failed, retrying shortly", zap.String("executor_id", h.executorID), zap.Error(err))
		time.Sleep(retryBackoff)
		return
	}

	if h.registry != nil {
		load, err := h.repo.GetExecutorInfo(ctx, h.executorID)
		current := 0
		if err == nil && load != nil {
			current = load.CurrentLoad
		}

		if err := h.registry.Register(ctx, registry.ExecutorInfo{
			ExecutorID:    h.executorID,
			Host:          h.host,
			Port:          h.port,
			Online:        true,
			CurrentLoad:   current,
			MaxLoad:       h.maxLoad,
			LastHeartbeat: now,
		}); err != nil {
			h.logger.Warn(ctx, "heartbeat registry mirror failed", zap.String("executor_id", h.executorID), zap.Error(err))
		}
	}

	ok := h.broker.Produce(ctx, broker.TopicExecutorHeartbeat, h.executorID, broker.Envelope{
		Type:    broker.ExecutorHeartbeat,
		Payload: h.executorID,
	})
	if !ok {
		h.logger.Warn(ctx, "heartbeat produce failed, retrying shortly", zap.String("executor_id", h.executorID))
		time.Sleep(retryBackoff)
	}
}

// shutdown marks the executor offline in the store and the coordination
// service's ephemeral roster on orderly exit.
func (h *Heartbeat) shutdown() {
	ctx := context.Background()
	if err := h.repo.UpdateExecutorStatus(ctx, h.executorID, false); err != nil {
		h.logger.Warn(ctx, "failed to mark executor offline on shutdown", zap.String("executor_id", h.executorID), zap.Error(err))
	}

	if h.registry != nil {
		if err := h.registry.UpdateStatus(ctx, h.executorID, false); err != nil {
			h.logger.Warn(ctx, "failed to mark executor offline in registry on shutdown", zap.String("executor_id", h.executorID), zap.Error(err))
		}
	}
}
