// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package router wires HTTP route groups and registers controller handlers.
package router

import (
	"github.com/gin-gonic/gin"
	jobctrl "github.com/seakee/dockmon/app/http/controller/job"
	"github.com/seakee/dockmon/app/http/middleware"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/seakee/dockmon/app/stats"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
	"github.com/sk-pkg/redis"
	"gorm.io/gorm"
)

// Core bundles the shared dependencies every controller group needs.
type Core struct {
	Logger     *logger.Manager
	Redis      map[string]*redis.Manager
	I18n       *i18n.Manager
	MysqlDB    map[string]*gorm.DB
	Middleware middleware.Middleware
	Repo       jobrepo.Repo
	Stats      *stats.Accumulator
	Dispatcher jobctrl.Dispatcher
}

// New registers the admin API surface under /api and the internal
// health-check/auth group under /dockmon/internal.
//
// Parameters:
//   - mux: gin engine that receives route registrations.
//   - core: shared dependency container for handlers.
//
// Returns:
//   - *gin.Engine: the same engine after route registration.
//
// Example:
//
//	router.New(mux, core)
func New(mux *gin.Engine, core *Core) *gin.Engine {
	internal(mux.Group("dockmon/internal"), core)

	api := mux.Group("api")
	api.Use(core.Middleware.RateLimit())

	jobGroup(api.Group("jobs"), core)
	executorGroup(api.Group("executors"), core)
	statsGroup(api.Group("stats"), core)

	return mux
}

// internal registers routes intended for internal service calls, including
// the server-app auth endpoints that issue the tokens /api write operations
// require.
func internal(api *gin.RouterGroup, core *Core) {
	api.GET("ping", func(c *gin.Context) {
		core.I18n.JSON(c, 0, nil, nil)
	})

	serviceGroup := api.Group("service")
	authGroup(serviceGroup.Group("server/auth"), core)
}
