// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/e"
	"gorm.io/gorm"
)

type (
	// SubmitReqParams is the request payload for creating a job template.
	SubmitReqParams struct {
		JobID                string `json:"job_id" binding:"required"`
		Name                 string `json:"name" binding:"required"`
		Command              string `json:"command" binding:"required"`
		Type                 string `json:"type" binding:"required,oneof=ONCE PERIODIC"`
		Priority             int    `json:"priority"`
		CronExpression       string `json:"cron_expression"`
		TimeoutSeconds       int    `json:"timeout_seconds"`
		RetryCount           int    `json:"retry_count"`
		RetryIntervalSeconds int    `json:"retry_interval_seconds"`
	}

	// UpdateReqParams is the request payload for updating mutable job fields.
	UpdateReqParams struct {
		Name                 *string `json:"name"`
		Command              *string `json:"command"`
		Priority             *int    `json:"priority"`
		CronExpression       *string `json:"cron_expression"`
		TimeoutSeconds       *int    `json:"timeout_seconds"`
		RetryCount           *int    `json:"retry_count"`
		RetryIntervalSeconds *int    `json:"retry_interval_seconds"`
	}

	// ListRepData is the response payload for a page of job templates.
	ListRepData struct {
		Jobs  []jobmodel.Info `json:"jobs"`
		Total int64           `json:"total"`
	}
)

// List returns a page of job templates.
//
// Example:
//
//	router.GET("/api/jobs", jobHandler.List())
func (h *handler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := h.ctx(c)

		limit, offset := pageParams(c)

		jobs, err := h.repo.GetAllJobs(ctx, limit, offset)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		total, err := h.repo.GetJobCount(ctx)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, ListRepData{Jobs: jobs, Total: total}, nil)
	}
}

// Submit creates a new job template.
//
// Example:
//
//	router.POST("/api/jobs", jobHandler.Submit())
func (h *handler) Submit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var params SubmitReqParams

		if err := c.ShouldBindJSON(&params); err != nil {
			h.i18n.JSON(c, e.InvalidParams, nil, err)
			return
		}

		ctx := h.ctx(c)

		info := &jobmodel.Info{
			JobID:                params.JobID,
			Name:                 params.Name,
			Command:              params.Command,
			Type:                 params.Type,
			Priority:             params.Priority,
			CronExpression:       params.CronExpression,
			TimeoutSeconds:       params.TimeoutSeconds,
			RetryCount:           params.RetryCount,
			RetryIntervalSeconds: params.RetryIntervalSeconds,
		}

		if _, err := h.repo.SaveJob(ctx, info); err != nil {
			h.i18n.JSON(c, e.JobAlreadyExists, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, info, nil)
	}
}

// Get fetches one job template by job_id.
//
// Example:
//
//	router.GET("/api/jobs/:id", jobHandler.Get())
func (h *handler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		job, err := h.repo.GetJob(h.ctx(c), jobID)
		if err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.JobNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, job, nil)
	}
}

// Update rewrites mutable fields of a job template.
//
// Example:
//
//	router.PUT("/api/jobs/:id", jobHandler.Update())
func (h *handler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		var params UpdateReqParams
		if err := c.ShouldBindJSON(&params); err != nil {
			h.i18n.JSON(c, e.InvalidParams, nil, err)
			return
		}

		fields := map[string]interface{}{}
		if params.Name != nil {
			fields["name"] = *params.Name
		}
		if params.Command != nil {
			fields["command"] = *params.Command
		}
		if params.Priority != nil {
			fields["priority"] = *params.Priority
		}
		if params.CronExpression != nil {
			fields["cron_expression"] = *params.CronExpression
		}
		if params.TimeoutSeconds != nil {
			fields["timeout_seconds"] = *params.TimeoutSeconds
		}
		if params.RetryCount != nil {
			fields["retry_count"] = *params.RetryCount
		}
		if params.RetryIntervalSeconds != nil {
			fields["retry_interval_seconds"] = *params.RetryIntervalSeconds
		}

		if err := h.repo.UpdateJob(h.ctx(c), jobID, fields); err != nil {
			h.i18n.JSON(c, e.JobNotFound, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
}

// CancelAndDelete deletes a job template. It publishes no job-cancel
// envelope, so executions of the job that are already in flight are not
// cancelled by this call.
//
// Example:
//
//	router.DELETE("/api/jobs/:id", jobHandler.CancelAndDelete())
func (h *handler) CancelAndDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")

		if err := h.repo.DeleteJob(h.ctx(c), jobID); err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.JobNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
}

// Executions returns the execution history for one job template.
//
// Example:
//
//	router.GET("/api/jobs/:id/executions", jobHandler.Executions())
func (h *handler) Executions() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		limit, offset := pageParams(c)

		executions, err := h.repo.GetJobExecutions(h.ctx(c), jobID, limit, offset)
		if err != nil {
			h.i18n.JSON(c, e.ERROR, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, executions, nil)
	}
}

// Execute triggers an immediate one-shot re-run of a job template,
// regardless of its cron expression or the node's current leadership state.
//
// Example:
//
//	router.POST("/api/jobs/:id/execute", jobHandler.Execute())
func (h *handler) Execute() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.dispatcher == nil {
			h.i18n.JSON(c, e.ERROR, nil, errors.New("dispatcher not available on this node"))
			return
		}

		jobID := c.Param("id")

		if err := h.dispatcher.DispatchNow(h.ctx(c), jobID); err != nil {
			errCode := e.ERROR
			if errors.Is(err, gorm.ErrRecordNotFound) {
				errCode = e.JobNotFound
			}
			h.i18n.JSON(c, errCode, nil, err)
			return
		}

		h.i18n.JSON(c, e.SUCCESS, nil, nil)
	}
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
