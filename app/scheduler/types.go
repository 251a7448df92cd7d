// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package scheduler implements the leader-only scheduling engine: the tick
// loop, the periodic/one-shot trigger gate, dispatch, and the job-result
// reconciler. It generalizes the teacher's app/pkg/schedule ticker idiom,
// but the engine's own trigger is the cron evaluator rather than
// AddJob/cron-string registration.
package scheduler

import "time"

// SubmitPayload is the JSON shape published on job-submit: the job template
// serialized for the executor to run.
type SubmitPayload struct {
	JobID                string `json:"job_id"`
	Name                 string `json:"name"`
	Command              string `json:"command"`
	Type                 string `json:"type"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	RetryCount           int    `json:"retry_count"`
	RetryIntervalSeconds int    `json:"retry_interval_seconds"`
}

// ResultPayload is the JSON shape consumed from job-result.
type ResultPayload struct {
	JobID       string     `json:"job_id"`
	ExecutionID uint       `json:"execution_id"`
	ExecutorID  string      `json:"executor_id"`
	Status      string     `json:"status"`
	Output      string     `json:"output"`
	Error       string     `json:"error"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// Config carries the engine's tuning knobs, all with spec-mandated
// defaults applied by app.Config.
type Config struct {
	CheckInterval time.Duration
	PullBatchSize int
}
