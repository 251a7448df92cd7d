// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package registry mirrors the executor fleet in the coordination service —
// ephemeral records for instant failure detection — and reconciles it into
// the durable store so the placement policy can run purely off the store.
package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/seakee/dockmon/app/pkg/coordinator"
	"github.com/sk-pkg/logger"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// ExecutorInfo is the serialized shape of one ephemeral roster record.
type ExecutorInfo struct {
	ExecutorID    string    `json:"executor_id"`
	Host          string    `json:"host"`
	Port          int       `json:"port"`
	Online        bool      `json:"online"`
	CurrentLoad   int       `json:"current_load"`
	MaxLoad       int       `json:"max_load"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Registry reads and writes ephemeral executor records under
// coordinator.ExecutorsPrefix.
type Registry struct {
	coord  *coordinator.Client
	logger *logger.Manager
}

// New creates a Registry over an established coordination client.
func New(coord *coordinator.Client, log *logger.Manager) *Registry {
	return &Registry{coord: coord, logger: log}
}

// Register writes info as an ephemeral node keyed by executor_id. Fails if
// the process session is not established.
func (r *Registry) Register(ctx context.Context, info ExecutorInfo) error {
	body, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.coord.PutEphemeral(ctx, coordinator.ExecutorsPrefix+info.ExecutorID, string(body))
}

// Unregister deletes the ephemeral node for executorID.
func (r *Registry) Unregister(ctx context.Context, executorID string) error {
	return r.coord.Delete(ctx, coordinator.ExecutorsPrefix+executorID)
}

// UpdateStatus reads, flips Online, and rewrites the ephemeral record.
func (r *Registry) UpdateStatus(ctx context.Context, executorID string, online bool) error {
	return r.mutate(ctx, executorID, func(info *ExecutorInfo) {
		info.Online = online
	})
}

// UpdateLoad reads, rewrites CurrentLoad, and rewrites the ephemeral record.
func (r *Registry) UpdateLoad(ctx context.Context, executorID string, load int) error {
	return r.mutate(ctx, executorID, func(info *ExecutorInfo) {
		info.CurrentLoad = load
	})
}

// IncrementLoad mirrors a store-side load increment into the ephemeral
// record, keeping the coordination service's copy of current_load in step
// with the store's (the store remains authoritative — see the scheduling
// engine's dispatch and result-reconciler steps).
func (r *Registry) IncrementLoad(ctx context.Context, executorID string) error {
	return r.mutate(ctx, executorID, func(info *ExecutorInfo) {
		info.CurrentLoad++
	})
}

// DecrementLoad mirrors a store-side load decrement into the ephemeral
// record, floored at zero.
func (r *Registry) DecrementLoad(ctx context.Context, executorID string) error {
	return r.mutate(ctx, executorID, func(info *ExecutorInfo) {
		if info.CurrentLoad > 0 {
			info.CurrentLoad--
		}
	})
}

// mutate implements the read-modify-write pattern shared by UpdateStatus
// and UpdateLoad.
func (r *Registry) mutate(ctx context.Context, executorID string, apply func(*ExecutorInfo)) error {
	raw, found, err := r.coord.Get(ctx, coordinator.ExecutorsPrefix+executorID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var info ExecutorInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		r.logger.Warn(ctx, "malformed executor record, skipping mutate", zap.String("executor_id", executorID), zap.Error(err))
		return err
	}

	apply(&info)
	return r.Register(ctx, info)
}

// GetExecutors lists every child under the executors prefix, skipping
// malformed entries with a warning rather than failing the whole list.
func (r *Registry) GetExecutors(ctx context.Context) ([]ExecutorInfo, error) {
	raw, err := r.coord.List(ctx, coordinator.ExecutorsPrefix)
	if err != nil {
		return nil, err
	}

	executors := make([]ExecutorInfo, 0, len(raw))
	for key, value := range raw {
		var info ExecutorInfo
		if err := json.Unmarshal([]byte(value), &info); err != nil {
			r.logger.Warn(ctx, "malformed executor record, skipping", zap.String("key", key), zap.Error(err))
			continue
		}
		executors = append(executors, info)
	}

	return executors, nil
}

// Watch installs a watch over the executors prefix; on every change event it
// re-lists the set and invokes callback with the fresh roster. callback must
// be idempotent — a burst of events may coalesce into one invocation or
// fire one per event depending on etcd's batching.
//
// Watch blocks until ctx is cancelled or the underlying watch channel
// closes (session loss); run it in its own goroutine.
func (r *Registry) Watch(ctx context.Context, callback func([]ExecutorInfo)) {
	watchCh := r.coord.Etcd().Watch(ctx, coordinator.ExecutorsPrefix, clientv3.WithPrefix())

	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-watchCh:
			if !ok {
				return
			}
			if resp.Err() != nil {
				r.logger.Warn(ctx, "executor watch error", zap.Error(resp.Err()))
				continue
			}

			executors, err := r.GetExecutors(ctx)
			if err != nil {
				r.logger.Warn(ctx, "failed to re-list executors after watch event", zap.Error(err))
				continue
			}
			callback(executors)
		}
	}
}
