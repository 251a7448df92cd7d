// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	jobmodel "github.com/seakee/dockmon/app/model/job"
	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
)

// fakeRepo implements jobrepo.Repo, overriding only what the reaper touches.
type fakeRepo struct {
	jobrepo.Repo

	staleExecutions []jobmodel.Execution
	staleErr        error

	jobs map[string]*jobmodel.Info

	updatedStatus     string
	updatedExecution  uint
	decrementedFor    string
	markOfflineResult int64
	markOfflineErr    error
}

func (f *fakeRepo) GetStaleExecutions(_ context.Context, _ time.Time) ([]jobmodel.Execution, error) {
	return f.staleExecutions, f.staleErr
}

func (f *fakeRepo) GetJob(_ context.Context, jobID string) (*jobmodel.Info, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func (f *fakeRepo) UpdateExecutionResult(_ context.Context, executionID uint, status, _, _ string) error {
	f.updatedExecution = executionID
	f.updatedStatus = status
	return nil
}

func (f *fakeRepo) DecrementExecutorLoad(_ context.Context, executorID string) error {
	f.decrementedFor = executorID
	return nil
}

func (f *fakeRepo) MarkStaleExecutorsOffline(_ context.Context, _ time.Time) (int64, error) {
	return f.markOfflineResult, f.markOfflineErr
}

func testLogger(t *testing.T) *logger.Manager {
	t.Helper()
	log, err := logger.New(logger.WithDriver("console"), logger.WithLevel("error"))
	if err != nil {
		t.Fatalf("logger.New() error: %v", err)
	}
	return log
}

// drain runs h.Exec in a goroutine and drains Error()/Done() the same way
// app/pkg/schedule's job runner does, returning the errors observed.
func drain(h interface {
	Exec(ctx context.Context)
	Error() <-chan error
	Done() <-chan struct{}
}) []error {
	var errs []error
	doneCh := make(chan struct{})

	go func() {
	Exit:
		for {
			select {
			case err := <-h.Error():
				if err != nil {
					errs = append(errs, err)
				}
			case <-h.Done():
				break Exit
			}
		}
		close(doneCh)
	}()

	h.Exec(context.Background())
	<-doneCh
	return errs
}

func TestReapStaleExecutionPastThreshold(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &fakeRepo{
		staleExecutions: []jobmodel.Execution{
			{ID: 7, JobID: "job-1", ExecutorID: "exec-1", TriggerTime: past},
		},
		jobs: map[string]*jobmodel.Info{
			"job-1": {JobID: "job-1", TimeoutSeconds: 30},
		},
	}

	h := New(testLogger(t), repo, 5, 5, 30)
	errs := drain(h)

	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if repo.updatedExecution != 7 || repo.updatedStatus != jobmodel.StatusTimeout {
		t.Fatalf("expected execution 7 marked TIMEOUT, got id=%d status=%s", repo.updatedExecution, repo.updatedStatus)
	}
	if repo.decrementedFor != "exec-1" {
		t.Fatalf("expected executor load decremented for exec-1, got %q", repo.decrementedFor)
	}
}

func TestSkipsExecutionStillWithinThreshold(t *testing.T) {
	recent := time.Now().Add(-2 * time.Second)
	repo := &fakeRepo{
		staleExecutions: []jobmodel.Execution{
			{ID: 9, JobID: "job-2", ExecutorID: "exec-2", TriggerTime: recent},
		},
		jobs: map[string]*jobmodel.Info{
			"job-2": {JobID: "job-2", TimeoutSeconds: 300},
		},
	}

	h := New(testLogger(t), repo, 5, 5, 30)
	drain(h)

	if repo.updatedExecution != 0 {
		t.Fatalf("expected no reap, got execution %d marked %s", repo.updatedExecution, repo.updatedStatus)
	}
}

func TestSweepStaleExecutorsError(t *testing.T) {
	repo := &fakeRepo{markOfflineErr: errors.New("db unavailable")}

	h := New(testLogger(t), repo, 5, 5, 30)
	errs := drain(h)

	if len(errs) != 1 {
		t.Fatalf("expected one error from the executor sweep, got %v", errs)
	}
}
