// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package reaper implements the lost-execution sweep: a schedule-compatible
// job handler that finds executions whose executor went silent without ever
// reporting a terminal result and reaps them so the job can be retried. The
// same pass doubles as the executor membership watchdog, flipping any
// roster row whose heartbeat has gone quiet to OFFLINE.
package reaper

import (
	"context"
	"fmt"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/schedule"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

type handler struct {
	done  chan struct{}
	error chan error

	logger             *logger.Manager
	repo               jobrepo.Repo
	graceSeconds       int
	brokerGraceSeconds int
	heartbeatInterval  int
}

// New creates a schedule-compatible handler for the lost-execution reaper.
//
// Parameters:
//   - logger: logger manager for reap notices.
//   - repo: store adapter consulted for stale executions, jobs, and executors.
//   - graceSeconds: lower bound for the job part of the staleness
//     threshold, which is max(graceSeconds, job timeout); it is the whole
//     job part for jobs with no timeout configured.
//   - brokerGraceSeconds: extra slack for broker/consumer-group rebalance
//     delay, added on top of the job-specific threshold.
//   - heartbeatInterval: the executor tier's heartbeat cadence in seconds;
//     an executor silent for more than 3x this is marked offline.
//
// Returns:
//   - schedule.HandlerFunc: initialized reaper job handler.
func New(logger *logger.Manager, repo jobrepo.Repo, graceSeconds, brokerGraceSeconds, heartbeatInterval int) schedule.HandlerFunc {
	return &handler{
		done:               make(chan struct{}),
		error:              make(chan error),
		logger:             logger,
		repo:               repo,
		graceSeconds:       graceSeconds,
		brokerGraceSeconds: brokerGraceSeconds,
		heartbeatInterval:  heartbeatInterval,
	}
}

// Exec scans for WAITING/RUNNING executions older than the sweep's floor
// cutoff, then re-checks each against its own job's timeout before reaping
// it as TIMEOUT and releasing the executor's load slot.
//
// Parameters:
//   - ctx: trace-aware context for logs.
//
// Returns:
//   - None.
//
// Behavior:
//   - Emits one done signal after the sweep completes.
func (h *handler) Exec(ctx context.Context) {
	floor := time.Duration(h.graceSeconds+h.brokerGraceSeconds) * time.Second
	candidates, err := h.repo.GetStaleExecutions(ctx, time.Now().Add(-floor))
	if err != nil {
		h.error <- fmt.Errorf("getStaleExecutions failed: %w", err)
		h.done <- struct{}{}
		return
	}

	reaped := 0
	for _, execution := range candidates {
		if h.reapIfStale(ctx, execution) {
			reaped++
		}
	}

	if reaped > 0 {
		h.logger.Info(ctx, "reaped lost executions", zap.Int("count", reaped))
	}

	h.sweepStaleExecutors(ctx)

	h.done <- struct{}{}
}

// sweepStaleExecutors flips roster rows whose heartbeat has gone quiet for
// more than 3x the configured heartbeat interval to OFFLINE, so placement
// stops routing new work to them.
func (h *handler) sweepStaleExecutors(ctx context.Context) {
	interval := h.heartbeatInterval
	if interval <= 0 {
		interval = 30
	}

	cutoff := time.Now().Add(-3 * time.Duration(interval) * time.Second)
	changed, err := h.repo.MarkStaleExecutorsOffline(ctx, cutoff)
	if err != nil {
		h.error <- fmt.Errorf("markStaleExecutorsOffline failed: %w", err)
		return
	}

	if changed > 0 {
		h.logger.Warn(ctx, "marked stale executors offline", zap.Int64("count", changed))
	}
}

// reapIfStale marks one execution TIMEOUT when it exceeds the threshold
// derived from its own job's configured timeout, and releases the
// executor's load slot it was holding.
func (h *handler) reapIfStale(ctx context.Context, execution jobmodel.Execution) bool {
	job, err := h.repo.GetJob(ctx, execution.JobID)
	if err != nil {
		h.error <- fmt.Errorf("getJob failed for stale execution %d: %w", execution.ID, err)
		return false
	}

	threshold := h.graceSeconds
	if job.TimeoutSeconds > threshold {
		threshold = job.TimeoutSeconds
	}
	threshold += h.brokerGraceSeconds

	deadline := execution.TriggerTime.Add(time.Duration(threshold) * time.Second)
	if time.Now().Before(deadline) {
		return false
	}

	if err := h.repo.UpdateExecutionResult(ctx, execution.ID, jobmodel.StatusTimeout, "", "reaped: executor presumed lost"); err != nil {
		h.error <- fmt.Errorf("updateExecutionResult failed for execution %d: %w", execution.ID, err)
		return false
	}

	if execution.ExecutorID != "" {
		if err := h.repo.DecrementExecutorLoad(ctx, execution.ExecutorID); err != nil {
			h.error <- fmt.Errorf("decrementExecutorLoad failed for executor %s: %w", execution.ExecutorID, err)
		}
	}

	h.logger.Warn(ctx, "reaped lost execution",
		zap.Uint("execution_id", execution.ID),
		zap.String("job_id", execution.JobID),
		zap.String("executor_id", execution.ExecutorID),
	)

	return true
}

// Error exposes the asynchronous error channel of the job handler.
//
// Returns:
//   - <-chan error: read-only channel carrying sweep errors.
func (h *handler) Error() <-chan error {
	return h.error
}

// Done exposes the completion channel of the job handler.
//
// Returns:
//   - <-chan struct{}: read-only channel signaling sweep completion.
func (h *handler) Done() <-chan struct{} {
	return h.done
}
