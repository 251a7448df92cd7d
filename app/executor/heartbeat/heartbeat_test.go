// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	"github.com/seakee/dockmon/app/pkg/broker"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
)

type fakeRepo struct {
	jobrepo.Repo

	mu            sync.Mutex
	heartbeats    map[string]time.Time
	statusUpdates map[string]bool
	executorInfo  *jobmodel.Executor
}

func (f *fakeRepo) UpdateExecutorHeartbeat(_ context.Context, executorID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.heartbeats == nil {
		f.heartbeats = make(map[string]time.Time)
	}
	f.heartbeats[executorID] = at
	return nil
}

func (f *fakeRepo) UpdateExecutorStatus(_ context.Context, executorID string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusUpdates == nil {
		f.statusUpdates = make(map[string]bool)
	}
	f.statusUpdates[executorID] = online
	return nil
}

func (f *fakeRepo) GetExecutorInfo(_ context.Context, _ string) (*jobmodel.Executor, error) {
	return f.executorInfo, nil
}

type fakeProducer struct {
	mu    sync.Mutex
	count int
}

func (f *fakeProducer) Produce(_ context.Context, _, _ string, _ broker.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return true
}

func (f *fakeProducer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func testLogger(t *testing.T) *logger.Manager {
	t.Helper()
	log, err := logger.New(logger.WithDriver("console"), logger.WithLevel("error"))
	if err != nil {
		t.Fatalf("logger.New() error: %v", err)
	}
	return log
}

func TestBeatWritesStoreAndBrokerWithoutRegistry(t *testing.T) {
	repo := &fakeRepo{}
	producer := &fakeProducer{}

	h := New("exec-1", "10.0.0.1", 9000, 4, time.Second, repo, producer, nil, testLogger(t))
	h.beat(context.Background())

	if _, ok := repo.heartbeats["exec-1"]; !ok {
		t.Fatalf("expected store heartbeat write for exec-1")
	}
	if producer.calls() != 1 {
		t.Fatalf("expected one broker publish, got %d", producer.calls())
	}
}

func TestShutdownMarksOfflineInStoreWithoutRegistry(t *testing.T) {
	repo := &fakeRepo{}
	producer := &fakeProducer{}

	h := New("exec-1", "10.0.0.1", 9000, 4, time.Second, repo, producer, nil, testLogger(t))
	h.shutdown()

	if online, ok := repo.statusUpdates["exec-1"]; !ok || online {
		t.Fatalf("expected exec-1 marked offline on shutdown, got %v", repo.statusUpdates)
	}
}
