// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/dockmon/app/http/controller/stats"
)

// statsGroup registers the statistics admin surface. Reset requires a valid
// app JWT; the rest are read-only snapshots.
func statsGroup(api *gin.RouterGroup, core *Core) {
	h := stats.New(core.Logger, core.I18n, core.Repo, core.Stats)

	api.GET("", h.Snapshot())
	api.GET("/jobs", h.Jobs())
	api.GET("/executors", h.Executors())
	api.GET("/system", h.System())

	auth := api.Group("")
	auth.Use(core.Middleware.CheckAppAuth())
	auth.GET("/reset", h.Reset())
}
