// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/seakee/dockmon/app/pkg/placement"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/seakee/dockmon/app/stats"
)

type fakeEngineRepo struct {
	jobrepo.Repo

	mu sync.Mutex

	onlineExecutors []jobmodel.Executor
	saveExecutionID uint
	savedExecutor   string
	incrementedFor  string

	locks map[string]string // lock name -> owner

	latestExecution *jobmodel.Execution
	latestErr       error
}

func (f *fakeEngineRepo) GetOnlineExecutorsWithLoad(_ context.Context) ([]jobmodel.Executor, error) {
	return f.onlineExecutors, nil
}

func (f *fakeEngineRepo) SaveExecution(_ context.Context, _, executorID string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedExecutor = executorID
	f.saveExecutionID++
	return f.saveExecutionID, nil
}

func (f *fakeEngineRepo) IncrementExecutorLoad(_ context.Context, executorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementedFor = executorID
	return nil
}

func (f *fakeEngineRepo) GetLatestExecution(_ context.Context, _ string) (*jobmodel.Execution, error) {
	return f.latestExecution, f.latestErr
}

func (f *fakeEngineRepo) AcquireLock(_ context.Context, name, owner string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks == nil {
		f.locks = make(map[string]string)
	}
	if _, held := f.locks[name]; held {
		return false, nil
	}
	f.locks[name] = owner
	return true, nil
}

func (f *fakeEngineRepo) ReleaseLock(_ context.Context, name, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[name] == owner {
		delete(f.locks, name)
	}
	return nil
}

type fakeProducer struct {
	mu   sync.Mutex
	sent int
}

func (f *fakeProducer) Produce(_ context.Context, _, _ string, _ broker.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return true
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func TestDispatchPublishesAndRecordsStats(t *testing.T) {
	repo := &fakeEngineRepo{
		onlineExecutors: []jobmodel.Executor{{ExecutorID: "exec-1", MaxLoad: 4}},
	}
	producer := &fakeProducer{}
	acc := stats.New()

	e := New(repo, nil, placement.New(placement.Random), producer, acc, testLogger(t), Config{})
	e.dispatch(context.Background(), &jobmodel.Info{JobID: "job-1", Name: "demo"})

	if producer.count() != 1 {
		t.Fatalf("expected one dispatch envelope published, got %d", producer.count())
	}
	if repo.savedExecutor != "exec-1" {
		t.Fatalf("expected execution saved against exec-1, got %q", repo.savedExecutor)
	}
	if repo.incrementedFor != "exec-1" {
		t.Fatalf("expected load incremented for exec-1, got %q", repo.incrementedFor)
	}
	if acc.Snapshot().JobsDispatched != 1 {
		t.Fatalf("expected dispatched counter at 1, got %d", acc.Snapshot().JobsDispatched)
	}
}

// TestDispatchSkipsWhenLockHeld matches the literal scenario DESIGN.md
// documents: a manual DispatchNow racing the leader's own tick-driven
// dispatch of the same job must not double-submit.
func TestDispatchSkipsWhenLockHeld(t *testing.T) {
	repo := &fakeEngineRepo{
		onlineExecutors: []jobmodel.Executor{{ExecutorID: "exec-1", MaxLoad: 4}},
		locks:           map[string]string{"dispatch:job-1": "already-held"},
	}
	producer := &fakeProducer{}

	e := New(repo, nil, placement.New(placement.Random), producer, stats.New(), testLogger(t), Config{})
	e.dispatch(context.Background(), &jobmodel.Info{JobID: "job-1", Name: "demo"})

	if producer.count() != 0 {
		t.Fatalf("expected dispatch to be skipped while the lock is held, but it published")
	}
}

func TestShouldExecuteOnceAlwaysTrue(t *testing.T) {
	e := New(&fakeEngineRepo{}, nil, placement.New(placement.Random), &fakeProducer{}, stats.New(), testLogger(t), Config{})

	if !e.shouldExecute(context.Background(), &jobmodel.Info{JobID: "job-1", Type: jobmodel.TypeOnce}) {
		t.Fatalf("expected a ONCE job to always be eligible")
	}
}

func TestShouldExecutePeriodicRequiresCronMatch(t *testing.T) {
	repo := &fakeEngineRepo{}
	e := New(repo, nil, placement.New(placement.Random), &fakeProducer{}, stats.New(), testLogger(t), Config{})

	job := &jobmodel.Info{JobID: "job-1", Type: jobmodel.TypePeriodic, CronExpression: "0 0 1 1 *"}
	if e.shouldExecute(context.Background(), job) {
		t.Fatalf("expected a cron expression that never matches now to be ineligible")
	}
}

