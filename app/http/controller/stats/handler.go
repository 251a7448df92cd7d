// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package stats provides HTTP handlers for the statistics admin surface:
// a full snapshot plus narrower job/executor/system views, and a reset.
package stats

import (
	"context"

	"github.com/gin-gonic/gin"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	statspkg "github.com/seakee/dockmon/app/stats"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type (
	// Handler defines HTTP handlers for the statistics admin surface.
	Handler interface {
		i()
		ctx(c *gin.Context) context.Context
		Snapshot() gin.HandlerFunc
		Jobs() gin.HandlerFunc
		Executors() gin.HandlerFunc
		System() gin.HandlerFunc
		Reset() gin.HandlerFunc
	}

	handler struct {
		logger *logger.Manager
		i18n   *i18n.Manager
		repo   jobrepo.Repo
		acc    *statspkg.Accumulator
	}
)

func (h handler) i() {}

func (h handler) ctx(c *gin.Context) context.Context {
	traceID, _ := c.Get("trace_id")

	id, _ := traceID.(string)

	return context.WithValue(context.Background(), logger.TraceIDKey, id)
}

// New creates a statistics admin handler.
func New(logger *logger.Manager, i18n *i18n.Manager, repo jobrepo.Repo, acc *statspkg.Accumulator) Handler {
	return &handler{logger: logger, i18n: i18n, repo: repo, acc: acc}
}
