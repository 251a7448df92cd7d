// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/http/controller/job"
)

// jobGroup registers the job admin surface. Mutating operations require a
// valid app JWT; GET endpoints are open to any caller behind the rate
// limiter.
func jobGroup(api *gin.RouterGroup, core *Core) {
	h := job.New(core.Logger, core.I18n, core.Repo, core.Dispatcher)

	api.GET("", h.List())
	api.GET("/:id", h.Get())
	api.GET("/:id/executions", h.Executions())

	auth := api.Group("")
	auth.Use(core.Middleware.CheckAppAuth())
	{
		auth.POST("", h.Submit())
		auth.PUT("/:id", h.Update())
		auth.DELETE("/:id", h.CancelAndDelete())
		auth.POST("/:id/execute", h.Execute())
	}
}
