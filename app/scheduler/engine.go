// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/seakee/dockmon/app/pkg/cron"
	"github.com/seakee/dockmon/app/pkg/placement"
	"github.com/seakee/dockmon/app/pkg/queue"
	"github.com/seakee/dockmon/app/pkg/registry"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/seakee/dockmon/app/stats"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// dispatchLockTTL bounds how long a dispatch mutual-exclusion row can
// outlive a crashed holder before a later caller is free to reclaim it.
const dispatchLockTTL = 5 * time.Second

// Producer is the subset of broker.Client the engine needs to publish
// dispatch envelopes; a narrow interface so tests can substitute a fake
// without a live broker connection, same as app/executor/runner.
type Producer interface {
	Produce(ctx context.Context, topic, key string, envelope broker.Envelope) bool
}

// Engine is the leader-only tick loop: pull pending jobs, stage them,
// evaluate triggers, pick an executor, and dispatch. It never runs unless
// SetLeader(true) has been called by the election loop (C7); losing
// leadership stops ticking but does not stop the result reconciler, which
// runs independently so in-flight executions are not stranded.
type Engine struct {
	repo      jobrepo.Repo
	queue     *queue.Queue
	placement *placement.Policy
	registry  *registry.Registry
	broker    Producer
	stats     *stats.Accumulator
	logger    *logger.Manager
	cfg       Config

	leader atomic.Bool
	stopCh chan struct{}
}

// New creates an Engine with the given collaborators.
func New(
	repo jobrepo.Repo,
	reg *registry.Registry,
	pol *placement.Policy,
	brk Producer,
	acc *stats.Accumulator,
	log *logger.Manager,
	cfg Config,
) *Engine {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}
	if cfg.PullBatchSize <= 0 {
		cfg.PullBatchSize = 10
	}

	return &Engine{
		repo:      repo,
		queue:     queue.New(),
		placement: pol,
		registry:  reg,
		broker:    brk,
		stats:     acc,
		logger:    log,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
	}
}

// SetLeader is called by the election loop on becoming/losing leadership.
func (e *Engine) SetLeader(leader bool) {
	e.leader.Store(leader)
}

// IsLeader reports the engine's current leadership flag.
func (e *Engine) IsLeader() bool {
	return e.leader.Load()
}

// Run launches the tick loop. Blocks until ctx is cancelled; call it in its
// own goroutine.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.CheckInterval)
	defer ticker.Stop()

	var cycle int64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.leader.Load() {
				continue
			}
			cycle++
			e.tick(ctx, cycle)
		}
	}
}

// tick runs one scheduling cycle: pull pending jobs into the dispatch
// queue, then drain it non-blocking, gating each popped job through
// shouldExecute before dispatch.
func (e *Engine) tick(ctx context.Context, cycle int64) {
	pending, err := e.repo.GetPendingJobs(ctx, e.cfg.PullBatchSize)
	if err != nil {
		e.logger.Warn(ctx, "getPendingJobs failed, deferring to next tick", zap.Int64("cycle", cycle), zap.Error(err))
		return
	}

	for _, j := range pending {
		e.queue.Push(queue.Job{JobID: j.JobID, Priority: j.Priority})
	}

	for {
		staged, ok := e.queue.Pop()
		if !ok {
			break
		}

		full, err := e.repo.GetJob(ctx, staged.JobID)
		if err != nil || full == nil {
			e.logger.Warn(ctx, "staged job vanished before dispatch", zap.String("job_id", staged.JobID), zap.Error(err))
			continue
		}

		if !e.shouldExecute(ctx, full) {
			continue
		}

		e.dispatch(ctx, full)
	}
}

// shouldExecute implements the per-job time gate. ONCE jobs always pass
// (the pending-set gate already prevents re-dispatch of a running
// one-shot). PERIODIC jobs must match their cron expression at the current
// minute and have their previous run complete.
func (e *Engine) shouldExecute(ctx context.Context, job *jobmodel.Info) bool {
	if job.Type != jobmodel.TypePeriodic {
		return true
	}

	expr, err := cron.Parse(job.CronExpression)
	if err != nil {
		e.logger.Warn(ctx, "invalid cron expression, skipping job", zap.String("job_id", job.JobID), zap.Error(err))
		return false
	}

	now := time.Now()
	if !expr.Matches(now) {
		return false
	}

	latest, err := e.repo.GetLatestExecution(ctx, job.JobID)
	if err != nil {
		// gorm.ErrRecordNotFound: no previous run, first firing is fine.
		return true
	}
	if latest == nil || latest.EndTime == nil {
		return latest == nil
	}

	nextAfterEnd := expr.NextAfter(*latest.EndTime)
	if !latest.EndTime.Before(nextAfterEnd) {
		return false
	}

	return true
}

// DispatchNow dispatches one job immediately, bypassing both the cron gate
// and the leadership check — an explicit operator action via the admin
// surface's execute endpoint, not part of the regular tick loop.
func (e *Engine) DispatchNow(ctx context.Context, jobID string) error {
	job, err := e.repo.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	e.dispatch(ctx, job)
	return nil
}

// dispatch selects a live executor, records the execution row, mirrors the
// load increment, and publishes a JOB_SUBMIT envelope. Guarded by a
// cluster-wide store lock keyed on the job ID: DispatchNow bypasses the
// leadership check, so an operator's manual trigger on one replica can race
// the leader's own tick-driven dispatch of that same job on another
// replica. Leader election already rules out two ticks dispatching
// concurrently, but it says nothing about an out-of-band manual trigger,
// hence the separate lock here rather than reusing the election path.
func (e *Engine) dispatch(ctx context.Context, job *jobmodel.Info) {
	lockName := "dispatch:" + job.JobID
	lockOwner := uuid.NewString()

	acquired, lockErr := e.repo.AcquireLock(ctx, lockName, lockOwner, dispatchLockTTL)
	if lockErr != nil {
		e.logger.Warn(ctx, "dispatch lock acquire failed, deferring to next tick", zap.String("job_id", job.JobID), zap.Error(lockErr))
		return
	}
	if !acquired {
		e.logger.Info(ctx, "dispatch already in flight for job, skipping", zap.String("job_id", job.JobID))
		return
	}
	defer func() {
		if relErr := e.repo.ReleaseLock(ctx, lockName, lockOwner); relErr != nil {
			e.logger.Warn(ctx, "dispatch lock release failed", zap.String("job_id", job.JobID), zap.Error(relErr))
		}
	}()

	live, err := e.liveExecutors(ctx)
	if err != nil {
		e.logger.Warn(ctx, "failed to read live executor set, deferring dispatch", zap.String("job_id", job.JobID), zap.Error(err))
		return
	}

	choice, ok := e.placement.Select(live)
	if !ok {
		e.logger.Warn(ctx, "no live executor available, deferring dispatch", zap.String("job_id", job.JobID))
		return
	}

	executionID, err := e.repo.SaveExecution(ctx, job.JobID, choice.ExecutorID)
	if err != nil {
		e.logger.Warn(ctx, "saveExecution failed, deferring dispatch", zap.String("job_id", job.JobID), zap.Error(err))
		return
	}

	if err := e.repo.IncrementExecutorLoad(ctx, choice.ExecutorID); err != nil {
		e.logger.Warn(ctx, "incrementExecutorLoad failed", zap.String("executor_id", choice.ExecutorID), zap.Error(err))
	}
	if e.registry != nil {
		if err := e.registry.IncrementLoad(ctx, choice.ExecutorID); err != nil {
			e.logger.Warn(ctx, "registry load mirror failed", zap.String("executor_id", choice.ExecutorID), zap.Error(err))
		}
	}

	payload := SubmitPayload{
		JobID:                job.JobID,
		Name:                 job.Name,
		Command:              job.Command,
		Type:                 job.Type,
		TimeoutSeconds:       job.TimeoutSeconds,
		RetryCount:           job.RetryCount,
		RetryIntervalSeconds: job.RetryIntervalSeconds,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn(ctx, "job-submit payload marshal failed", zap.String("job_id", job.JobID), zap.Error(err))
		return
	}

	ok = e.broker.Produce(ctx, broker.TopicJobSubmit, job.JobID, broker.Envelope{
		Type:    broker.JobSubmit,
		Payload: string(body),
	})
	if !ok {
		e.logger.Warn(ctx, "job-submit produce failed", zap.String("job_id", job.JobID))
		return
	}

	e.stats.RecordDispatch()
	e.logger.Info(ctx, "dispatched job",
		zap.String("job_id", job.JobID),
		zap.String("executor_id", choice.ExecutorID),
		zap.Uint("execution_id", executionID),
	)
}

// liveExecutors reads the online roster with load, mapping it onto the
// placement package's Executor shape.
func (e *Engine) liveExecutors(ctx context.Context) ([]placement.Executor, error) {
	rows, err := e.repo.GetOnlineExecutorsWithLoad(ctx)
	if err != nil {
		return nil, err
	}

	live := make([]placement.Executor, 0, len(rows))
	for _, row := range rows {
		live = append(live, placement.Executor{
			ExecutorID:  row.ExecutorID,
			Address:     row.Host,
			CurrentLoad: row.CurrentLoad,
			MaxLoad:     row.MaxLoad,
		})
	}
	return live, nil
}
