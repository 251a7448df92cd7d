// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package executor provides HTTP handlers for the executor roster admin
// surface: list, single-node fetch, task history, load ceiling, and
// enable/disable.
package executor

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type (
	// Handler defines HTTP handlers for the executor roster admin surface.
	Handler interface {
		i()
		ctx(c *gin.Context) context.Context
		List() gin.HandlerFunc
		Get() gin.HandlerFunc
		Tasks() gin.HandlerFunc
		UpdateLoad() gin.HandlerFunc
		UpdateStatus() gin.HandlerFunc
	}

	handler struct {
		logger *logger.Manager
		i18n   *i18n.Manager
		repo   jobrepo.Repo
	}

	// UpdateLoadReqParams changes an executor's capacity ceiling.
	UpdateLoadReqParams struct {
		MaxLoad int `json:"max_load" binding:"required,min=1"`
	}

	// UpdateStatusReqParams enables or disables an executor.
	UpdateStatusReqParams struct {
		Online bool `json:"online"`
	}
)

func (h handler) i() {}

func (h handler) ctx(c *gin.Context) context.Context {
	traceID, _ := c.Get("trace_id")

	id, _ := traceID.(string)

	return context.WithValue(context.Background(), logger.TraceIDKey, id)
}

// New creates an executor roster admin handler.
func New(logger *logger.Manager, i18n *i18n.Manager, repo jobrepo.Repo) Handler {
	return &handler{logger: logger, i18n: i18n, repo: repo}
}

// pageParams reads limit/offset query parameters with sane defaults.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = 20
	offset = 0

	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}

	return
}
