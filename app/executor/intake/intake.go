// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package intake implements the executor's consumer for job-submit and
// job-cancel: decode, enqueue, and maintain the cancellation set consulted
// by the runner.
package intake

import (
	"context"
	"encoding/json"

	"github.com/seakee/dockmon/app/executor/runner"
	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// Intake subscribes to job-submit and job-cancel in consumer group
// executor-<executor_id> and feeds the runner.
type Intake struct {
	broker *broker.Client
	runner *runner.Runner
	logger *logger.Manager
}

// New creates an Intake bound to a runner.
func New(brk *broker.Client, r *runner.Runner, log *logger.Manager) *Intake {
	return &Intake{broker: brk, runner: r, logger: log}
}

// Run blocks consuming job-submit and job-cancel until ctx is cancelled.
func (in *Intake) Run(ctx context.Context) error {
	return in.broker.Consume(ctx, []string{broker.TopicJobSubmit, broker.TopicJobCancel}, in.handle)
}

func (in *Intake) handle(ctx context.Context, key string, envelope broker.Envelope) {
	switch envelope.Type {
	case broker.JobSubmit:
		in.handleSubmit(ctx, envelope.Payload)
	case broker.JobCancel:
		in.handleCancel(envelope.Payload)
	}
}

func (in *Intake) handleSubmit(ctx context.Context, payload string) {
	var submitted struct {
		JobID                string `json:"job_id"`
		Command              string `json:"command"`
		TimeoutSeconds       int    `json:"timeout_seconds"`
		RetryCount           int    `json:"retry_count"`
		RetryIntervalSeconds int    `json:"retry_interval_seconds"`
	}

	if err := json.Unmarshal([]byte(payload), &submitted); err != nil {
		in.logger.Warn(ctx, "malformed job-submit payload, skipping", zap.Error(err))
		return
	}

	in.runner.Submit(runner.Job{
		JobID:                submitted.JobID,
		Command:              submitted.Command,
		TimeoutSeconds:       submitted.TimeoutSeconds,
		RetryCount:           submitted.RetryCount,
		RetryIntervalSeconds: submitted.RetryIntervalSeconds,
	})
}

// handleCancel marks jobID cancelled. The payload for JOB_CANCEL is the
// job_id itself, not a JSON envelope (per the wire contract).
func (in *Intake) handleCancel(payload string) {
	in.runner.Cancel(payload)
}
