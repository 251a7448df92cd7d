// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job provides HTTP handlers for the job admin surface: list,
// submit, fetch, update, cancel+delete, one-shot re-run, and execution
// history.
package job

import (
	"context"

	"github.com/gin-gonic/gin"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type (
	// Handler defines HTTP handlers for the job admin surface.
	Handler interface {
		i()
		ctx(c *gin.Context) context.Context
		List() gin.HandlerFunc
		Submit() gin.HandlerFunc
		Get() gin.HandlerFunc
		Update() gin.HandlerFunc
		CancelAndDelete() gin.HandlerFunc
		Execute() gin.HandlerFunc
		Executions() gin.HandlerFunc
	}

	handler struct {
		logger     *logger.Manager
		i18n       *i18n.Manager
		repo       jobrepo.Repo
		dispatcher Dispatcher
	}

	// Dispatcher is the subset of the scheduling engine the admin surface
	// needs to trigger an immediate one-shot re-run of a job template.
	Dispatcher interface {
		DispatchNow(ctx context.Context, jobID string) error
	}
)

func (h handler) i() {}

// ctx builds a context carrying the trace ID from the Gin context.
func (h handler) ctx(c *gin.Context) context.Context {
	traceID, _ := c.Get("trace_id")

	id, _ := traceID.(string)

	return context.WithValue(context.Background(), logger.TraceIDKey, id)
}

// New creates a job admin handler. dispatcher may be nil, in which case
// Execute() always reports a server error.
func New(logger *logger.Manager, i18n *i18n.Manager, repo jobrepo.Repo, dispatcher Dispatcher) Handler {
	return &handler{logger: logger, i18n: i18n, repo: repo, dispatcher: dispatcher}
}
