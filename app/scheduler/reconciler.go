// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/seakee/dockmon/app/pkg/broker"
	"go.uber.org/zap"
)

// RunResultReconciler consumes job-result and applies it to the store. It
// runs independently of leadership — even a follower keeps draining
// results so in-flight executions are never stranded when leadership
// changes mid-flight (see the election package's doc comment).
func (e *Engine) RunResultReconciler(ctx context.Context) error {
	consumer, ok := e.broker.(interface {
		Consume(ctx context.Context, topics []string, handler broker.Handler) error
	})
	if !ok {
		return errors.New("result reconciler: broker does not support consuming")
	}

	return consumer.Consume(ctx, []string{broker.TopicJobResult}, func(ctx context.Context, key string, envelope broker.Envelope) {
		if envelope.Type != broker.JobResult {
			return
		}

		var result ResultPayload
		if err := json.Unmarshal([]byte(envelope.Payload), &result); err != nil {
			e.logger.Warn(ctx, "malformed job-result payload, dropping", zap.String("key", key), zap.Error(err))
			return
		}

		e.reconcileResult(ctx, result)
	})
}

// reconcileResult applies one decoded result to the execution row and the
// executor load/task counters.
func (e *Engine) reconcileResult(ctx context.Context, result ResultPayload) {
	latest, err := e.repo.GetLatestExecution(ctx, result.JobID)
	if err != nil || latest == nil || latest.ID == 0 {
		e.logger.Warn(ctx, "orphan result: no execution row for job, dropping", zap.String("job_id", result.JobID))
		return
	}

	if err := e.repo.UpdateExecutionResult(ctx, latest.ID, result.Status, result.Output, result.Error); err != nil {
		e.logger.Warn(ctx, "updateExecutionResult failed", zap.Uint("execution_id", latest.ID), zap.Error(err))
		return
	}

	if result.StartTime != nil {
		if err := e.repo.UpdateExecutionTimes(ctx, latest.ID, result.StartTime, nil); err != nil {
			e.logger.Warn(ctx, "updateExecutionTimes failed", zap.Uint("execution_id", latest.ID), zap.Error(err))
		}
	}

	executorID := latest.ExecutorID
	if executorID == "" {
		executorID = result.ExecutorID
	}

	if executorID != "" {
		if err := e.repo.DecrementExecutorLoad(ctx, executorID); err != nil {
			e.logger.Warn(ctx, "decrementExecutorLoad failed", zap.String("executor_id", executorID), zap.Error(err))
		}
		if err := e.repo.IncrementExecutorTaskCount(ctx, executorID); err != nil {
			e.logger.Warn(ctx, "incrementExecutorTaskCount failed", zap.String("executor_id", executorID), zap.Error(err))
		}
		if e.registry != nil {
			if err := e.registry.DecrementLoad(ctx, executorID); err != nil {
				e.logger.Warn(ctx, "registry load mirror failed", zap.String("executor_id", executorID), zap.Error(err))
			}
		}
	}

	e.stats.RecordTerminal(executorID, result.Status)
}
