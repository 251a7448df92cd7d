// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/registry"
	"go.uber.org/zap"
)

// RunMembershipReconciler watches the coordination service's ephemeral
// executor roster and reconciles every change into the durable store, so
// placement can keep reading purely off the store while still benefiting
// from etcd's near-instant failure detection (a crashed executor's session
// expires and its ephemeral record vanishes well before the DB-side
// heartbeat-staleness sweep would catch it). Runs independently of
// leadership, same as the result reconciler: a follower still wants an
// up-to-date roster for when it takes over.
func (e *Engine) RunMembershipReconciler(ctx context.Context) {
	if e.registry == nil {
		return
	}

	e.registry.Watch(ctx, func(executors []registry.ExecutorInfo) {
		e.reconcileMembership(ctx, executors)
	})
}

// reconcileMembership upserts the etcd-observed roster into the store.
func (e *Engine) reconcileMembership(ctx context.Context, executors []registry.ExecutorInfo) {
	for _, info := range executors {
		existing, err := e.repo.GetExecutorInfo(ctx, info.ExecutorID)
		if err != nil || existing == nil {
			status := jobmodel.ExecutorOffline
			if info.Online {
				status = jobmodel.ExecutorOnline
			}
			if _, err := e.repo.RegisterExecutor(ctx, &jobmodel.Executor{
				ExecutorID:    info.ExecutorID,
				Host:          info.Host,
				Port:          info.Port,
				Status:        status,
				CurrentLoad:   info.CurrentLoad,
				MaxLoad:       info.MaxLoad,
				LastHeartbeat: info.LastHeartbeat,
			}); err != nil {
				e.logger.Warn(ctx, "membership reconcile: registerExecutor failed", zap.String("executor_id", info.ExecutorID), zap.Error(err))
			}
			continue
		}

		if existing.Status == jobmodel.ExecutorOnline && !info.Online {
			if err := e.repo.UpdateExecutorStatus(ctx, info.ExecutorID, false); err != nil {
				e.logger.Warn(ctx, "membership reconcile: updateExecutorStatus failed", zap.String("executor_id", info.ExecutorID), zap.Error(err))
			}
		}

		if err := e.repo.UpdateExecutorHeartbeat(ctx, info.ExecutorID, info.LastHeartbeat); err != nil {
			e.logger.Warn(ctx, "membership reconcile: updateExecutorHeartbeat failed", zap.String("executor_id", info.ExecutorID), zap.Error(err))
		}
	}
}
