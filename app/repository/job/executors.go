// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"context"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"gorm.io/gorm"
)

// RegisterExecutor inserts (or reactivates, via Updates by the caller) a
// roster row for a newly-seen executor.
func (r *repo) RegisterExecutor(ctx context.Context, executor *jobmodel.Executor) (id uint, err error) {
	err = r.timed(ctx, "RegisterExecutor", func() error {
		if executor.Status == "" {
			executor.Status = jobmodel.ExecutorOnline
		}
		if executor.LastHeartbeat.IsZero() {
			executor.LastHeartbeat = time.Now()
		}
		var innerErr error
		id, innerErr = executor.Create(r.db)
		return innerErr
	})
	return
}

// UpdateExecutorStatus flips the roster row's online/offline status.
func (r *repo) UpdateExecutorStatus(ctx context.Context, executorID string, online bool) error {
	return r.timed(ctx, "UpdateExecutorStatus", func() error {
		status := jobmodel.ExecutorOffline
		if online {
			status = jobmodel.ExecutorOnline
		}
		e := &jobmodel.Executor{ExecutorID: executorID}
		return e.Updates(r.db, map[string]interface{}{"status": status})
	})
}

// UpdateExecutorHeartbeat stamps last_heartbeat for the roster row.
func (r *repo) UpdateExecutorHeartbeat(ctx context.Context, executorID string, at time.Time) error {
	return r.timed(ctx, "UpdateExecutorHeartbeat", func() error {
		e := &jobmodel.Executor{ExecutorID: executorID}
		return e.Updates(r.db, map[string]interface{}{"last_heartbeat": at})
	})
}

// GetOnlineExecutors lists every roster row whose status is ONLINE.
func (r *repo) GetOnlineExecutors(ctx context.Context) (executors []jobmodel.Executor, err error) {
	err = r.timed(ctx, "GetOnlineExecutors", func() error {
		return r.db.Where("status = ?", jobmodel.ExecutorOnline).Find(&executors).Error
	})
	return
}

// GetOnlineExecutorsWithLoad lists online executors ordered by ascending
// load ratio, the order the LEAST_LOAD placement policy consumes directly.
func (r *repo) GetOnlineExecutorsWithLoad(ctx context.Context) (executors []jobmodel.Executor, err error) {
	err = r.timed(ctx, "GetOnlineExecutorsWithLoad", func() error {
		return r.db.Where("status = ?", jobmodel.ExecutorOnline).
			Order("(current_load * 1.0 / max_load) ASC").
			Find(&executors).Error
	})
	return
}

// IncrementExecutorLoad bumps current_load by one.
func (r *repo) IncrementExecutorLoad(ctx context.Context, executorID string) error {
	return r.timed(ctx, "IncrementExecutorLoad", func() error {
		return r.db.Model(&jobmodel.Executor{}).
			Where("executor_id = ?", executorID).
			UpdateColumn("current_load", gorm.Expr("current_load + 1")).Error
	})
}

// DecrementExecutorLoad reduces current_load by one, floored at zero.
func (r *repo) DecrementExecutorLoad(ctx context.Context, executorID string) error {
	return r.timed(ctx, "DecrementExecutorLoad", func() error {
		return r.db.Model(&jobmodel.Executor{}).
			Where("executor_id = ? AND current_load > 0", executorID).
			UpdateColumn("current_load", gorm.Expr("current_load - 1")).Error
	})
}

// UpdateExecutorMaxLoad rewrites the capacity ceiling for one executor.
func (r *repo) UpdateExecutorMaxLoad(ctx context.Context, executorID string, maxLoad int) error {
	return r.timed(ctx, "UpdateExecutorMaxLoad", func() error {
		e := &jobmodel.Executor{ExecutorID: executorID}
		return e.Updates(r.db, map[string]interface{}{"max_load": maxLoad})
	})
}

// IncrementExecutorTaskCount bumps the monotonic total_tasks_executed counter.
func (r *repo) IncrementExecutorTaskCount(ctx context.Context, executorID string) error {
	return r.timed(ctx, "IncrementExecutorTaskCount", func() error {
		return r.db.Model(&jobmodel.Executor{}).
			Where("executor_id = ?", executorID).
			UpdateColumn("total_tasks_executed", gorm.Expr("total_tasks_executed + 1")).Error
	})
}

// MarkStaleExecutorsOffline flips every ONLINE roster row whose
// last_heartbeat is older than olderThan to OFFLINE, returning the number
// changed. Consulted by the lost-execution reaper sweep, which doubles as
// the membership watchdog — an executor that stops heartbeating is both a
// lost-execution risk and a stale roster entry.
func (r *repo) MarkStaleExecutorsOffline(ctx context.Context, olderThan time.Time) (changed int64, err error) {
	err = r.timed(ctx, "MarkStaleExecutorsOffline", func() error {
		tx := r.db.Model(&jobmodel.Executor{}).
			Where("status = ? AND last_heartbeat < ?", jobmodel.ExecutorOnline, olderThan).
			UpdateColumn("status", jobmodel.ExecutorOffline)
		if tx.Error != nil {
			return tx.Error
		}
		changed = tx.RowsAffected
		return nil
	})
	return
}

// GetExecutorInfo fetches one roster row by executor_id.
func (r *repo) GetExecutorInfo(ctx context.Context, executorID string) (executor *jobmodel.Executor, err error) {
	err = r.timed(ctx, "GetExecutorInfo", func() error {
		var innerErr error
		executor, innerErr = (&jobmodel.Executor{ExecutorID: executorID}).First(r.db)
		return innerErr
	})
	return
}
