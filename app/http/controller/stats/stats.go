// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package stats

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/pkg/e"
)

// JobsRepData narrows a full snapshot to job-oriented counters.
type JobsRepData struct {
	JobsDispatched      int64 `json:"jobs_dispatched"`
	ExecutionsSucceeded int64 `json:"executions_succeeded"`
	ExecutionsFailed    int64 `json:"executions_failed"`
	ExecutionsTimedOut  int64 `json:"executions_timed_out"`
	TotalJobs           int64 `json:"total_jobs"`
	TotalExecutions     int64 `json:"total_executions"`
}

// SystemRepData narrows a full snapshot to store-health counters.
type SystemRepData struct {
	QueryCount     int64 `json:"query_count"`
	QueryFailures  int64 `json:"query_failures"`
	QueryElapsedMs int64 `json:"query_elapsed_ms"`
}

// Snapshot returns the full statistics snapshot.
//
// Example:
//
//	router.GET("/api/stats", statsHandler.Snapshot())
func (h *handler) Snapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.i18n.JSON(c, e.SUCCESS, h.acc.Snapshot(), nil)
	}
}

// Jobs narrows the snapshot to job/execution counters, joined with live
// totals from the store.
//
// Example:
//
//	router.GET("/api/stats/jobs", statsHandler.Jobs())
func (h *handler) Jobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := h.acc.Snapshot()
		ctx := h.ctx(c)

		totalJobs, err := h.repo.GetJobCount(ctx)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		totalExecutions, err := h.repo.GetExecutionCount(ctx)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, JobsRepData{
			JobsDispatched:      snap.JobsDispatched,
			ExecutionsSucceeded: snap.ExecutionsSucceeded,
			ExecutionsFailed:    snap.ExecutionsFailed,
			ExecutionsTimedOut:  snap.ExecutionsTimedOut,
			TotalJobs:           totalJobs,
			TotalExecutions:     totalExecutions,
		}, nil)
	}
}

// Executors narrows the snapshot to the per-executor task breakdown.
//
// Example:
//
//	router.GET("/api/stats/executors", statsHandler.Executors())
func (h *handler) Executors() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := h.acc.Snapshot()
		h.i18n.JSON(c, e.SUCCESS, snap.ExecutorStats, nil)
	}
}

// System narrows the snapshot to store-health counters.
//
// Example:
//
//	router.GET("/api/stats/system", statsHandler.System())
func (h *handler) System() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := h.acc.Snapshot()
		h.i18n.JSON(c, e.SUCCESS, SystemRepData{
			QueryCount:     snap.QueryCount,
			QueryFailures:  snap.QueryFailures,
			QueryElapsedMs: snap.QueryElapsedMs,
		}, nil)
	}
}

// Reset zeroes every counter and starts a new accounting window.
//
// Example:
//
//	router.GET("/api/stats/reset", statsHandler.Reset())
func (h *handler) Reset() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.acc.Reset()
		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
}
