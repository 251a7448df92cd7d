// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package executor

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/pkg/e"
	"gorm.io/gorm"
)

// List returns the executor roster rows whose status is ONLINE; rows with
// any other status are not included.
//
// Example:
//
//	router.GET("/api/executors", executorHandler.List())
func (h *handler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		executors, err := h.repo.GetOnlineExecutors(h.ctx(c))
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, executors, nil)
	}
}

// Get fetches one roster row by executor_id.
//
// Example:
//
//	router.GET("/api/executors/:id", executorHandler.Get())
func (h *handler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		executorID := c.Param("id")

		executor, err := h.repo.GetExecutorInfo(h.ctx(c), executorID)
		if err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.ExecutorNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, executor, nil)
	}
}

// Tasks returns the execution history assigned to one executor.
//
// Example:
//
//	router.GET("/api/executors/:id/tasks", executorHandler.Tasks())
func (h *handler) Tasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		executorID := c.Param("id")
		limit, offset := pageParams(c)

		executions, err := h.repo.GetExecutionsByExecutor(h.ctx(c), executorID, limit, offset)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, executions, nil)
	}
}

// UpdateLoad changes an executor's max_load ceiling.
//
// Example:
//
//	router.PUT("/api/executors/:id/load", executorHandler.UpdateLoad())
func (h *handler) UpdateLoad() gin.HandlerFunc {
	return func(c *gin.Context) {
		executorID := c.Param("id")

		var params UpdateLoadReqParams
		if err := c.ShouldBindJSON(&params); err != nil {
			h.i18n.JSON(c, e.InvalidParams, nil, err)
			return
		}

		if err := h.repo.UpdateExecutorMaxLoad(h.ctx(c), executorID, params.MaxLoad); err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.ExecutorNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
}

// UpdateStatus enables or disables an executor without waiting for its
// heartbeat to expire — an operator override on top of the regular
// heartbeat-driven status.
//
// Example:
//
//	router.PUT("/api/executors/:id/status", executorHandler.UpdateStatus())
func (h *handler) UpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		executorID := c.Param("id")

		var params UpdateStatusReqParams
		if err := c.ShouldBindJSON(&params); err != nil {
			h.i18n.JSON(c, e.InvalidParams, nil, err)
			return
		}

		if err := h.repo.UpdateExecutorStatus(h.ctx(c), executorID, params.Online); err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.ExecutorNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
}
