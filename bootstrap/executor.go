// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"time"

	"github.com/seakee/dockmon/app/executor/heartbeat"
	"github.com/seakee/dockmon/app/executor/intake"
	"github.com/seakee/dockmon/app/executor/runner"
	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/registry"
	"go.uber.org/zap"
)

const runnerQueueSize = 32

// startExecutor builds and runs the worker-tier subsystems: an initial
// roster registration (store + etcd), the runner, the broker intake
// consumer, and the heartbeat loop. No HTTP server is started on this
// role — the admin surface only ever runs on the scheduler tier.
//
// Parameters:
//   - ctx: trace-aware context for startup logs.
//
// Returns:
//   - None.
func (a *App) startExecutor(ctx context.Context) {
	nodeID := a.Config.System.NodeID
	host := a.Config.Executor.Host
	port := a.Config.Executor.Port
	maxLoad := a.Config.Executor.DefaultMaxLoad

	if _, err := a.Repo.RegisterExecutor(ctx, &jobmodel.Executor{
		ExecutorID: nodeID,
		Host:       host,
		Port:       port,
		Status:     jobmodel.ExecutorOnline,
		MaxLoad:    maxLoad,
	}); err != nil {
		a.Logger.Warn(ctx, "initial executor store registration failed", zap.String("executor_id", nodeID), zap.Error(err))
	}

	reg := registry.New(a.Coordinator, a.Logger)
	if err := reg.Register(ctx, registry.ExecutorInfo{
		ExecutorID:    nodeID,
		Host:          host,
		Port:          port,
		Online:        true,
		MaxLoad:       maxLoad,
		LastHeartbeat: time.Now(),
	}); err != nil {
		a.Logger.Warn(ctx, "initial executor registry registration failed", zap.String("executor_id", nodeID), zap.Error(err))
	}

	r := runner.New(nodeID, a.Config.Executor.ScratchDir, runnerQueueSize, a.Broker, a.Logger)
	in := intake.New(a.Broker, r, a.Logger)
	interval := time.Duration(a.Config.Executor.HeartbeatIntervalSeconds) * time.Second
	hb := heartbeat.New(nodeID, host, port, maxLoad, interval, a.Repo, a.Broker, reg, a.Logger)

	go r.Run(ctx)
	go func() {
		if err := in.Run(ctx); err != nil {
			a.Logger.Error(ctx, "intake consumer stopped", zap.Error(err))
		}
	}()
	go hb.Run(ctx)

	a.Logger.Info(ctx, "Executor role started", zap.String("node_id", nodeID))
}
