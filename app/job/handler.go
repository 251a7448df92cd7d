// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job registers scheduled background jobs.
package job

import (
	"github.com/seakee/dockmon/app/job/cleanup"
	"github.com/seakee/dockmon/app/job/reaper"
	"github.com/seakee/dockmon/app/pkg/schedule"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
)

// Config controls the cadence and thresholds of the registered sweeps.
type Config struct {
	ReaperEnabled            bool
	CheckIntervalSeconds     int
	ReaperGraceSeconds       int
	BrokerGraceSeconds       int
	HeartbeatIntervalSeconds int
	CleanupRetentionDays     int
}

// Register adds the scheduler node's background sweeps into s: the
// lost-execution reaper (opt-in) and the execution-retention cleanup. Both
// run under app/pkg/schedule's own Redis lock, so only one scheduler
// replica performs a given sweep even when several are up for HA.
//
// Parameters:
//   - logger: logger manager for sweep notices.
//   - repo: store adapter consulted and mutated by both sweeps.
//   - s: scheduler instance that receives registered jobs.
//   - cfg: cadence and threshold configuration.
//
// Returns:
//   - None.
func Register(logger *logger.Manager, repo jobrepo.Repo, s *schedule.Schedule, cfg Config) {
	interval := cfg.CheckIntervalSeconds
	if interval <= 0 {
		interval = 5
	}

	if cfg.ReaperEnabled {
		r := reaper.New(logger, repo, cfg.ReaperGraceSeconds, cfg.BrokerGraceSeconds, cfg.HeartbeatIntervalSeconds)
		s.AddJob("LostExecutionReaper", r).PerSeconds(interval).WithoutOverlapping().OnOneServer()
	}

	retentionDays := cfg.CleanupRetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	c := cleanup.New(logger, repo, retentionDays)
	s.AddJob("ExecutionCleanup", c).PerHour(6).WithoutOverlapping().OnOneServer()
}
