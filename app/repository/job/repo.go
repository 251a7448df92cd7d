// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job implements the typed store adapter over the relational
// database: jobs, executions, the executor roster, locks, and kv-config.
// No I/O failure ever escapes as a panic or exception — every operation
// logs its reason and returns a zero value / false / error, leaving the
// caller to retry at the next tick.
package job

import (
	"context"
	"errors"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	// Repo is the typed store adapter consumed by the scheduling engine,
	// the membership reconciler, and the HTTP admin surface.
	Repo interface {
		SaveJob(ctx context.Context, job *jobmodel.Info) (uint, error)
		UpdateJob(ctx context.Context, jobID string, fields map[string]interface{}) error
		DeleteJob(ctx context.Context, jobID string) error
		GetJob(ctx context.Context, jobID string) (*jobmodel.Info, error)
		GetAllJobs(ctx context.Context, limit, offset int) ([]jobmodel.Info, error)
		GetJobsByType(ctx context.Context, jobType string, limit, offset int) ([]jobmodel.Info, error)
		GetPendingJobs(ctx context.Context, limit int) ([]jobmodel.Info, error)
		GetJobCount(ctx context.Context) (int64, error)

		SaveExecution(ctx context.Context, jobID, executorID string) (uint, error)
		UpdateExecutionResult(ctx context.Context, executionID uint, status, output, errText string) error
		UpdateExecutionTimes(ctx context.Context, executionID uint, start, end *time.Time) error
		GetJobExecutions(ctx context.Context, jobID string, limit, offset int) ([]jobmodel.Execution, error)
		GetExecutionsByExecutor(ctx context.Context, executorID string, limit, offset int) ([]jobmodel.Execution, error)
		GetExecution(ctx context.Context, executionID uint) (*jobmodel.Execution, error)
		GetLatestExecution(ctx context.Context, jobID string) (*jobmodel.Execution, error)
		GetRecentExecutions(ctx context.Context, limit int) ([]jobmodel.Execution, error)
		GetExecutionCount(ctx context.Context) (int64, error)
		CleanupExpiredExecutions(ctx context.Context, days int) (int64, error)
		GetStaleExecutions(ctx context.Context, olderThan time.Time) ([]jobmodel.Execution, error)

		RegisterExecutor(ctx context.Context, executor *jobmodel.Executor) (uint, error)
		UpdateExecutorStatus(ctx context.Context, executorID string, online bool) error
		UpdateExecutorHeartbeat(ctx context.Context, executorID string, at time.Time) error
		GetOnlineExecutors(ctx context.Context) ([]jobmodel.Executor, error)
		GetOnlineExecutorsWithLoad(ctx context.Context) ([]jobmodel.Executor, error)
		IncrementExecutorLoad(ctx context.Context, executorID string) error
		DecrementExecutorLoad(ctx context.Context, executorID string) error
		UpdateExecutorMaxLoad(ctx context.Context, executorID string, maxLoad int) error
		IncrementExecutorTaskCount(ctx context.Context, executorID string) error
		GetExecutorInfo(ctx context.Context, executorID string) (*jobmodel.Executor, error)
		MarkStaleExecutorsOffline(ctx context.Context, olderThan time.Time) (int64, error)

		AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
		ReleaseLock(ctx context.Context, name, owner string) error
		RefreshLock(ctx context.Context, name, owner string, ttl time.Duration) error

		GetConfigValue(ctx context.Context, key string) (string, error)
		SetConfigValue(ctx context.Context, key, value, description string) error
	}

	// repo is a GORM-backed Repo implementation.
	repo struct {
		db     *gorm.DB
		logger *logger.Manager
		stats  StatsRecorder
	}
)

// New creates a Repo backed by GORM. stats may be nil, in which case query
// accounting is discarded.
//
// Parameters:
//   - db: GORM database client.
//   - log: structured logger manager.
//   - stats: query accounting recorder; pass nil to disable.
//
// Returns:
//   - Repo: initialized store adapter.
func New(db *gorm.DB, log *logger.Manager, stats StatsRecorder) Repo {
	if stats == nil {
		stats = noopStats{}
	}
	return &repo{db: db, logger: log, stats: stats}
}

// timed runs fn, recording its elapsed time and failure outcome against the
// stats accumulator, and logging a warning when fn reports failure.
func (r *repo) timed(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Milliseconds()

	r.stats.RecordQuery(op, elapsed, err != nil)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Warn(ctx, "store operation failed", zap.String("op", op), zap.Error(err))
	}

	return err
}
