// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package cleanup

import (
	"context"
	"errors"
	"testing"

	jobrepo "github.com/seakee/dockmon/app/repository/job"
	"github.com/sk-pkg/logger"
)

type fakeRepo struct {
	jobrepo.Repo

	removed int64
	err     error

	calledDays int
}

func (f *fakeRepo) CleanupExpiredExecutions(_ context.Context, days int) (int64, error) {
	f.calledDays = days
	return f.removed, f.err
}

func testLogger(t *testing.T) *logger.Manager {
	t.Helper()
	log, err := logger.New(logger.WithDriver("console"), logger.WithLevel("error"))
	if err != nil {
		t.Fatalf("logger.New() error: %v", err)
	}
	return log
}

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

func TestCleanupRemovesExpiredExecutions(t *testing.T) {
	repo := &fakeRepo{removed: 12}

	h := New(testLogger(t), repo, 30)
	errs := drain(h)

	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if repo.calledDays != 30 {
		t.Fatalf("expected retentionDays=30 threaded through, got %d", repo.calledDays)
	}
}

func TestCleanupPropagatesStoreError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db unavailable")}

	h := New(testLogger(t), repo, 30)
	errs := drain(h)

	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}
