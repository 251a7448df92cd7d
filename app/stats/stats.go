// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package stats implements the statistics accumulator: a plain, explicit
// Runtime-carried value rather than a process-wide singleton, so tests get
// deterministic isolation (see the design note on singletons).
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time read of the accumulator.
type Snapshot struct {
	QueryCount       int64            `json:"query_count"`
	QueryFailures    int64            `json:"query_failures"`
	QueryElapsedMs   int64            `json:"query_elapsed_ms"`
	JobsDispatched   int64            `json:"jobs_dispatched"`
	ExecutionsSucceeded int64         `json:"executions_succeeded"`
	ExecutionsFailed    int64         `json:"executions_failed"`
	ExecutionsTimedOut  int64         `json:"executions_timed_out"`
	ExecutorStats       map[string]ExecutorStat `json:"executor_stats"`
	SinceReset          time.Time     `json:"since_reset"`
}

// ExecutorStat tracks per-executor completed task counters.
type ExecutorStat struct {
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
}

// Accumulator is a mutex/atomic-guarded counter set, safe for concurrent
// use across the scheduling engine, the store adapter, and the HTTP admin
// surface.
type Accumulator struct {
	queryCount     int64
	queryFailures  int64
	queryElapsedMs int64
	jobsDispatched int64
	execSucceeded  int64
	execFailed     int64
	execTimedOut   int64

	mu            sync.Mutex
	executorStats map[string]ExecutorStat
	sinceReset    time.Time
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{
		executorStats: make(map[string]ExecutorStat),
		sinceReset:    time.Now(),
	}
}

// RecordQuery implements the StatsRecorder of app/repository/job, called once per
// store operation.
func (a *Accumulator) RecordQuery(op string, elapsedMs int64, failed bool) {
	atomic.AddInt64(&a.queryCount, 1)
	atomic.AddInt64(&a.queryElapsedMs, elapsedMs)
	if failed {
		atomic.AddInt64(&a.queryFailures, 1)
	}
}

// RecordDispatch counts one job handed to placement and published.
func (a *Accumulator) RecordDispatch() {
	atomic.AddInt64(&a.jobsDispatched, 1)
}

// RecordTerminal counts one execution reaching a terminal status and
// updates the per-executor breakdown.
func (a *Accumulator) RecordTerminal(executorID, status string) {
	switch status {
	case "SUCCESS":
		atomic.AddInt64(&a.execSucceeded, 1)
	case "TIMEOUT":
		atomic.AddInt64(&a.execTimedOut, 1)
	default:
		atomic.AddInt64(&a.execFailed, 1)
	}

	if executorID == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stat := a.executorStats[executorID]
	if status == "SUCCESS" {
		stat.TasksCompleted++
	} else {
		stat.TasksFailed++
	}
	a.executorStats[executorID] = stat
}

// Snapshot returns a consistent point-in-time read of every counter.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	executors := make(map[string]ExecutorStat, len(a.executorStats))
	for k, v := range a.executorStats {
		executors[k] = v
	}
	since := a.sinceReset
	a.mu.Unlock()

	return Snapshot{
		QueryCount:          atomic.LoadInt64(&a.queryCount),
		QueryFailures:       atomic.LoadInt64(&a.queryFailures),
		QueryElapsedMs:      atomic.LoadInt64(&a.queryElapsedMs),
		JobsDispatched:      atomic.LoadInt64(&a.jobsDispatched),
		ExecutionsSucceeded: atomic.LoadInt64(&a.execSucceeded),
		ExecutionsFailed:    atomic.LoadInt64(&a.execFailed),
		ExecutionsTimedOut:  atomic.LoadInt64(&a.execTimedOut),
		ExecutorStats:       executors,
		SinceReset:          since,
	}
}

// Reset zeroes every counter and records the new window start.
func (a *Accumulator) Reset() {
	atomic.StoreInt64(&a.queryCount, 0)
	atomic.StoreInt64(&a.queryFailures, 0)
	atomic.StoreInt64(&a.queryElapsedMs, 0)
	atomic.StoreInt64(&a.jobsDispatched, 0)
	atomic.StoreInt64(&a.execSucceeded, 0)
	atomic.StoreInt64(&a.execFailed, 0)
	atomic.StoreInt64(&a.execTimedOut, 0)

	a.mu.Lock()
	a.executorStats = make(map[string]ExecutorStat)
	a.sinceReset = time.Now()
	a.mu.Unlock()
}
