// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/sk-pkg/logger"
)

type fakeProducer struct {
	mu      sync.Mutex
	results []broker.Envelope
}

func (f *fakeProducer) Produce(_ context.Context, _, _ string, envelope broker.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, envelope)
	return true
}

func (f *fakeProducer) last() broker.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return broker.Envelope{}
	}
	return f.results[len(f.results)-1]
}

func testLogger(t *testing.T) *logger.Manager {
	t.Helper()
	log, err := logger.New(logger.WithDriver("console"), logger.WithLevel("error"))
	if err != nil {
		t.Fatalf("logger.New() error: %v", err)
	}
	return log
}

func TestRunOneShotSuccess(t *testing.T) {
	fp := &fakeProducer{}
	r := New("executor-1", t.TempDir(), 4, fp, testLogger(t))

	r.runOne(context.Background(), Job{JobID: "job-1", Command: "echo hello", TimeoutSeconds: 5})

	env := fp.last()
	if env.Type != broker.JobResult {
		t.Fatalf("expected a JOB_RESULT envelope, got %q", env.Type)
	}
	if !strings.Contains(env.Payload, "hello") {
		t.Fatalf("expected output to contain 'hello', got %q", env.Payload)
	}
	if !strings.Contains(env.Payload, `"status":"SUCCESS"`) {
		t.Fatalf("expected SUCCESS status, got %q", env.Payload)
	}
}

func TestRunOneFailureExitCode(t *testing.T) {
	fp := &fakeProducer{}
	r := New("executor-1", t.TempDir(), 4, fp, testLogger(t))

	r.runOne(context.Background(), Job{JobID: "job-2", Command: "exit 3", TimeoutSeconds: 5})

	env := fp.last()
	if !strings.Contains(env.Payload, `"status":"FAILED"`) {
		t.Fatalf("expected FAILED status, got %q", env.Payload)
	}
	if !strings.Contains(env.Payload, "exited with status 3") {
		t.Fatalf("expected exit-code message, got %q", env.Payload)
	}
}

// TestCancellationBeforeDequeue matches the literal scenario: a job marked
// cancelled before the runner starts it never spawns a subprocess and
// reports a terminal FAILED result mentioning cancellation.
func TestCancellationBeforeDequeue(t *testing.T) {
	fp := &fakeProducer{}
	r := New("executor-1", t.TempDir(), 4, fp, testLogger(t))

	r.Cancel("job-3")
	r.runOne(context.Background(), Job{JobID: "job-3", Command: "echo should-not-run", TimeoutSeconds: 5})

	env := fp.last()
	if !strings.Contains(env.Payload, `"status":"FAILED"`) {
		t.Fatalf("expected FAILED status, got %q", env.Payload)
	}
	if !strings.Contains(env.Payload, "cancelled") {
		t.Fatalf("expected a cancellation error message, got %q", env.Payload)
	}
	if strings.Contains(env.Payload, "should-not-run") {
		t.Fatalf("expected no subprocess output, got %q", env.Payload)
	}
}

func TestCancellationDuringExecution(t *testing.T) {
	fp := &fakeProducer{}
	r := New("executor-1", t.TempDir(), 4, fp, testLogger(t))

	go func() {
		time.Sleep(100 * time.Millisecond)
		r.Cancel("job-4")
	}()

	r.runOne(context.Background(), Job{JobID: "job-4", Command: "sleep 5", TimeoutSeconds: 10})

	env := fp.last()
	if !strings.Contains(env.Payload, "cancelled during execution") {
		t.Fatalf("expected mid-execution cancellation message, got %q", env.Payload)
	}
}
