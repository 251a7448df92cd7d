// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/http/controller/executor"
)

// executorGroup registers the executor roster admin surface. Load/status
// mutations require a valid app JWT; GET endpoints are open to any caller
// behind the rate limiter.
func executorGroup(api *gin.RouterGroup, core *Core) {
	h := executor.New(core.Logger, core.I18n, core.Repo)

	api.GET("", h.List())
	api.GET("/:id", h.Get())
	api.GET("/:id/tasks", h.Tasks())

	auth := api.Group("")
	auth.Use(core.Middleware.CheckAppAuth())
	{
		auth.PUT("/:id/load", h.UpdateLoad())
		auth.PUT("/:id/status", h.UpdateStatus())
	}
}
