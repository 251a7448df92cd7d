// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"time"

	jobpkg "github.com/seakee/dockmon/app/job"
	"github.com/seakee/dockmon/app/pkg/election"
	"github.com/seakee/dockmon/app/pkg/placement"
	"github.com/seakee/dockmon/app/pkg/registry"
	"github.com/seakee/dockmon/app/pkg/schedule"
	"github.com/seakee/dockmon/app/scheduler"
	"go.uber.org/zap"
)

// buildEngine constructs the scheduling engine and stores it on a. Called
// synchronously from Start before the HTTP server and the rest of the
// scheduler subsystems are launched as goroutines, so the admin surface
// never observes a.Engine as nil.
//
// Returns:
//   - None.
func (a *App) buildEngine() {
	reg := registry.New(a.Coordinator, a.Logger)
	policy := placement.New(placement.Strategy(a.Config.Scheduler.ExecutorSelectionStrategy))

	a.Engine = scheduler.New(a.Repo, reg, policy, a.Broker, a.Stats, a.Logger, scheduler.Config{
		CheckInterval: time.Duration(a.Config.Scheduler.CheckIntervalSeconds) * time.Second,
		PullBatchSize: a.Config.Scheduler.PullBatchSize,
	})
}

// startScheduler runs every control-plane subsystem built by buildEngine:
// leader election over etcd, the scheduling engine's tick loop, the
// result/membership reconcilers, and the reaper/cleanup background sweeps.
//
// Parameters:
//   - ctx: trace-aware context; cancellation is not currently wired to a
//     shutdown signal, matching the rest of this process's lifecycle.
//
// Returns:
//   - None.
func (a *App) startScheduler(ctx context.Context) {
	engine := a.Engine
	el := election.New(a.Coordinator, a.Config.System.NodeID, a.Logger)

	go engine.Run(ctx)
	go func() {
		if err := engine.RunResultReconciler(ctx); err != nil {
			a.Logger.Error(ctx, "result reconciler stopped", zap.Error(err))
		}
	}()
	go engine.RunMembershipReconciler(ctx)
	go el.Run(ctx, func() { engine.SetLeader(true) }, func() { engine.SetLeader(false) })

	a.startSweeps(ctx)

	a.Logger.Info(ctx, "Scheduler role started")
}

// startSweeps registers and starts the reaper/cleanup background jobs
// through the generalized app/pkg/schedule ticker, the same idiom the
// teacher uses for its own background jobs — these sweeps run on every
// scheduler replica, but app/pkg/schedule's own Redis lock ensures only
// one replica actually executes a given sweep at a time.
func (a *App) startSweeps(ctx context.Context) {
	s := schedule.New(a.Logger, a.Redis["dockmon"], a.TraceID)

	jobpkg.Register(a.Logger, a.Repo, s, jobpkg.Config{
		ReaperEnabled:            a.Config.Scheduler.ReaperEnabled,
		CheckIntervalSeconds:     a.Config.Scheduler.CheckIntervalSeconds,
		ReaperGraceSeconds:       a.Config.Scheduler.ReaperGraceSeconds,
		BrokerGraceSeconds:       a.Config.Scheduler.BrokerGraceSeconds,
		HeartbeatIntervalSeconds: a.Config.Executor.HeartbeatIntervalSeconds,
		CleanupRetentionDays:     a.Config.Scheduler.CleanupRetentionDays,
	})

	s.Start()

	a.Logger.Info(ctx, "Background sweeps started")
}
