// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"context"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
)

// SaveExecution inserts a WAITING execution row for jobID, optionally
// assigned to executorID (empty until dispatch), returning the
// store-assigned execution_id.
func (r *repo) SaveExecution(ctx context.Context, jobID, executorID string) (id uint, err error) {
	err = r.timed(ctx, "SaveExecution", func() error {
		execution := &jobmodel.Execution{
			JobID:      jobID,
			ExecutorID: executorID,
			Status:     jobmodel.StatusWaiting,
		}
		var innerErr error
		id, innerErr = execution.Create(r.db)
		return innerErr
	})
	return
}

// UpdateExecutionResult stamps end_time=now and writes status/output/error.
// Terminal write; calling it twice for the same id with the same values is
// idempotent.
func (r *repo) UpdateExecutionResult(ctx context.Context, executionID uint, status, output, errText string) error {
	return r.timed(ctx, "UpdateExecutionResult", func() error {
		now := time.Now()
		execution := &jobmodel.Execution{}
		execution.ID = executionID

		return execution.Updates(r.db, map[string]interface{}{
			"status":   status,
			"output":   output,
			"error":    errText,
			"end_time": now,
		})
	})
}

// UpdateExecutionTimes stamps start_time and/or end_time explicitly; either
// pointer may be nil to leave that field untouched.
func (r *repo) UpdateExecutionTimes(ctx context.Context, executionID uint, start, end *time.Time) error {
	return r.timed(ctx, "UpdateExecutionTimes", func() error {
		fields := map[string]interface{}{}
		if start != nil {
			fields["start_time"] = *start
		}
		if end != nil {
			fields["end_time"] = *end
		}
		if len(fields) == 0 {
			return nil
		}

		execution := &jobmodel.Execution{}
		execution.ID = executionID
		return execution.Updates(r.db, fields)
	})
}

// GetJobExecutions pages over execution history for one job, newest first.
func (r *repo) GetJobExecutions(ctx context.Context, jobID string, limit, offset int) (executions []jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetJobExecutions", func() error {
		return r.db.Where("job_id = ?", jobID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&executions).Error
	})
	return
}

// GetExecution fetches one execution row by execution_id.
func (r *repo) GetExecution(ctx context.Context, executionID uint) (execution *jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetExecution", func() error {
		e := &jobmodel.Execution{}
		innerErr := r.db.Where("id = ?", executionID).First(&e).Error
		if innerErr != nil {
			return innerErr
		}
		execution = e
		return nil
	})
	return
}

// GetLatestExecution returns the most recent execution row for jobID,
// consulted by the scheduling engine's periodic-trigger gate and by the
// result reconciler's orphan check.
func (r *repo) GetLatestExecution(ctx context.Context, jobID string) (execution *jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetLatestExecution", func() error {
		e := &jobmodel.Execution{}
		innerErr := r.db.Where("job_id = ?", jobID).Order("created_at DESC").First(&e).Error
		if innerErr != nil {
			return innerErr
		}
		execution = e
		return nil
	})
	return
}

// GetExecutionsByExecutor pages over execution history for one executor,
// newest first, consulted by the executor roster admin surface's tasks
// endpoint.
func (r *repo) GetExecutionsByExecutor(ctx context.Context, executorID string, limit, offset int) (executions []jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetExecutionsByExecutor", func() error {
		return r.db.Where("executor_id = ?", executorID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&executions).Error
	})
	return
}

// GetRecentExecutions returns the most recent executions across all jobs,
// used by the admin stats surface.
func (r *repo) GetRecentExecutions(ctx context.Context, limit int) (executions []jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetRecentExecutions", func() error {
		return r.db.Order("created_at DESC").Limit(limit).Find(&executions).Error
	})
	return
}

// GetExecutionCount returns the total number of execution rows.
func (r *repo) GetExecutionCount(ctx context.Context) (count int64, err error) {
	err = r.timed(ctx, "GetExecutionCount", func() error {
		return r.db.Model(&jobmodel.Execution{}).Count(&count).Error
	})
	return
}

// GetStaleExecutions returns WAITING or RUNNING executions triggered before
// olderThan, consulted by the lost-execution reaper sweep to find runs whose
// executor went silent without ever reporting a terminal result.
func (r *repo) GetStaleExecutions(ctx context.Context, olderThan time.Time) (executions []jobmodel.Execution, err error) {
	err = r.timed(ctx, "GetStaleExecutions", func() error {
		return r.db.
			Where("status IN ? AND trigger_time < ?", []string{jobmodel.StatusWaiting, jobmodel.StatusRunning}, olderThan).
			Find(&executions).Error
	})
	return
}

// CleanupExpiredExecutions deletes execution rows whose trigger_time is
// older than days, returning the number removed.
func (r *repo) CleanupExpiredExecutions(ctx context.Context, days int) (removed int64, err error) {
	err = r.timed(ctx, "CleanupExpiredExecutions", func() error {
		cutoff := time.Now().AddDate(0, 0, -days)
		tx := r.db.Unscoped().Where("trigger_time < ?", cutoff).Delete(&jobmodel.Execution{})
		if tx.Error != nil {
			return tx.Error
		}
		removed = tx.RowsAffected
		return nil
	})
	return
}
