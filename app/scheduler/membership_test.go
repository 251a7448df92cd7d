// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"testing"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/registry"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
)

type fakeMembershipRepo struct {
	jobrepo.Repo

	executors map[string]*jobmodel.Executor

	registered       []*jobmodel.Executor
	statusUpdates    map[string]bool
	heartbeatUpdates map[string]time.Time
}

func (f *fakeMembershipRepo) GetExecutorInfo(_ context.Context, executorID string) (*jobmodel.Executor, error) {
	ex, ok := f.executors[executorID]
	if !ok {
		return nil, nil
	}
	return ex, nil
}

func (f *fakeMembershipRepo) RegisterExecutor(_ context.Context, executor *jobmodel.Executor) (uint, error) {
	f.registered = append(f.registered, executor)
	return 1, nil
}

func (f *fakeMembershipRepo) UpdateExecutorStatus(_ context.Context, executorID string, online bool) error {
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[string]bool)
	}
	f.statusUpdates[executorID] = online
	return nil
}

func (f *fakeMembershipRepo) UpdateExecutorHeartbeat(_ context.Context, executorID string, at time.Time) error {
	if f.heartbeatUpdates == nil {
		f.heartbeatUpdates = make(map[string]time.Time)
	}
	f.heartbeatUpdates[executorID] = at
	return nil
}

func testLogger(t *testing.T) *logger.Manager {
	t.Helper()
	log, err := logger.New(logger.WithDriver("console"), logger.WithLevel("error"))
	if err != nil {
		t.Fatalf("logger.New() error: %v", err)
	}
	return log
}

func TestReconcileMembershipRegistersUnknownExecutor(t *testing.T) {
	repo := &fakeMembershipRepo{executors: map[string]*jobmodel.Executor{}}
	e := &Engine{repo: repo, logger: testLogger(t)}

	e.reconcileMembership(context.Background(), []registry.ExecutorInfo{
		{ExecutorID: "exec-new", Host: "10.0.0.1", Port: 9000, Online: true, MaxLoad: 4},
	})

	if len(repo.registered) != 1 || repo.registered[0].ExecutorID != "exec-new" {
		t.Fatalf("expected exec-new to be registered, got %+v", repo.registered)
	}
}

func TestReconcileMembershipFlipsOnlineToOffline(t *testing.T) {
	repo := &fakeMembershipRepo{
		executors: map[string]*jobmodel.Executor{
			"exec-1": {ExecutorID: "exec-1", Status: jobmodel.ExecutorOnline},
		},
	}
	e := &Engine{repo: repo, logger: testLogger(t)}

	e.reconcileMembership(context.Background(), []registry.ExecutorInfo{
		{ExecutorID: "exec-1", Online: false, LastHeartbeat: time.Now()},
	})

	if online, ok := repo.statusUpdates["exec-1"]; !ok || online {
		t.Fatalf("expected exec-1 flipped offline, got updates=%v", repo.statusUpdates)
	}
}

func TestReconcileMembershipAlwaysRefreshesHeartbeat(t *testing.T) {
	now := time.Now()
	repo := &fakeMembershipRepo{
		executors: map[string]*jobmodel.Executor{
			"exec-1": {ExecutorID: "exec-1", Status: jobmodel.ExecutorOnline},
		},
	}
	e := &Engine{repo: repo, logger: testLogger(t)}

	e.reconcileMembership(context.Background(), []registry.ExecutorInfo{
		{ExecutorID: "exec-1", Online: true, LastHeartbeat: now},
	})

	if got := repo.heartbeatUpdates["exec-1"]; !got.Equal(now) {
		t.Fatalf("expected heartbeat refreshed to %v, got %v", now, got)
	}
	if _, flipped := repo.statusUpdates["exec-1"]; flipped {
		t.Fatalf("expected no status flip for an executor still online")
	}
}
