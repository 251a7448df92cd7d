// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package cleanup implements the execution-retention sweep: a
// schedule-compatible job handler that deletes execution history rows past
// the configured retention window.
package cleanup

import (
	"context"
	"fmt"

	"github.com/seakee/dockmon/app/pkg/schedule"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

type handler struct {
	done  chan struct{}
	error chan error

	logger        *logger.Manager
	repo          jobrepo.Repo
	retentionDays int
}

// New creates a schedule-compatible handler for the execution-retention
// sweep.
//
// Parameters:
//   - logger: logger manager for cleanup notices.
//   - repo: store adapter whose CleanupExpiredExecutions performs the delete.
//   - retentionDays: executions with trigger_time older than this are
//     removed.
//
// Returns:
//   - schedule.HandlerFunc: initialized cleanup job handler.
func New(logger *logger.Manager, repo jobrepo.Repo, retentionDays int) schedule.HandlerFunc {
	return &handler{
		done:          make(chan struct{}),
		error:         make(chan error),
		logger:        logger,
		repo:          repo,
		retentionDays: retentionDays,
	}
}

// Exec deletes execution rows older than the configured retention window.
//
// Parameters:
//   - ctx: trace-aware context for logs.
//
// Returns:
//   - None.
//
// Behavior:
//   - Emits one done signal after the delete completes.
func (h *handler) Exec(ctx context.Context) {
	removed, err := h.repo.CleanupExpiredExecutions(ctx, h.retentionDays)
	if err != nil {
		h.error <- fmt.Errorf("cleanupExpiredExecutions failed: %w", err)
		h.done <- struct{}{}
		return
	}

	if removed > 0 {
		h.logger.Info(ctx, "cleaned up expired executions", zap.Int64("removed", removed))
	}

	h.done <- struct{}{}
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
