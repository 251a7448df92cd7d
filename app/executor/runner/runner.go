// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package runner implements the executor's worker loop: subprocess launch
// with timeout and cooperative cancellation, capturing combined
// stdout+stderr and publishing a JOB_RESULT envelope.
//
// Security posture: the runner executes arbitrary shell text; it is
// designed for deployment only where that is acceptable (see the module's
// top-level design notes).
package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seakee/dockmon/app/pkg/broker"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

const (
	readBufferBytes = 128
	pollInterval    = 200 * time.Millisecond
)

// Job is one submitted unit of work, mirroring scheduler.SubmitPayload.
type Job struct {
	JobID                string
	Command              string
	TimeoutSeconds       int
	RetryCount           int
	RetryIntervalSeconds int
}

// Result mirrors scheduler.ResultPayload without its execution_id (the
// scheduler resolves the execution from the job's latest row) — kept as an
// independent type so
// the executor package has no compile-time dependency on the scheduler
// package.
type Result struct {
	JobID      string     `json:"job_id"`
	ExecutorID string     `json:"executor_id"`
	Status     string     `json:"status"`
	Output     string     `json:"output"`
	Error      string     `json:"error"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// Runner drains a FIFO job queue and runs each as a subprocess. One worker
// loop is sufficient in the common case; parallel workers are allowed but
// must share the same cancellation set, which this type already guarantees
// since cancelSet is owned by the Runner, not by a single loop invocation.
type Runner struct {
	executorID string
	scratchDir string
	broker     Producer
	logger     *logger.Manager

	queueCh  chan Job
	cancelMu sync.Mutex
	cancel   map[string]struct{}
}

// Producer is the subset of broker.Client the runner needs to publish
// results; a narrow interface so tests can substitute a fake without a
// live broker connection.
type Producer interface {
	Produce(ctx context.Context, topic, key string, envelope broker.Envelope) bool
}

// New creates a Runner. scratchDir must exist and be writable; queueSize
// bounds how many submitted jobs can be buffered before Submit blocks.
func New(executorID, scratchDir string, queueSize int, brk Producer, log *logger.Manager) *Runner {
	return &Runner{
		executorID: executorID,
		scratchDir: scratchDir,
		broker:     brk,
		logger:     log,
		queueCh:    make(chan Job, queueSize),
		cancel:     make(map[string]struct{}),
	}
}

// Submit enqueues a job for execution, waking the runner loop.
func (r *Runner) Submit(job Job) {
	r.queueCh <- job
}

// Cancel adds jobID to the cancellation set, consulted both at queue-admit
// time and at every read boundary during execution.
func (r *Runner) Cancel(jobID string) {
	r.cancelMu.Lock()
	r.cancel[jobID] = struct{}{}
	r.cancelMu.Unlock()
}

// isCancelled reports whether jobID has been marked for cancellation.
func (r *Runner) isCancelled(jobID string) bool {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	_, ok := r.cancel[jobID]
	return ok
}

// clearCancel removes jobID from the cancellation set once its terminal
// result has been published, bounding the set's size.
func (r *Runner) clearCancel(jobID string) {
	r.cancelMu.Lock()
	delete(r.cancel, jobID)
	r.cancelMu.Unlock()
}

// Run blocks on the job queue with a 1s timeout (to also detect shutdown),
// executing one job at a time. Call in its own goroutine; cancel ctx to
// stop.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-r.queueCh:
			r.runOne(ctx, job)
		case <-time.After(time.Second):
		}
	}
}

// runOne executes a single job end-to-end and publishes its result.
func (r *Runner) runOne(ctx context.Context, job Job) {
	defer r.clearCancel(job.JobID)

	if r.isCancelled(job.JobID) {
		r.publishCancelled(ctx, job.JobID, "task cancelled")
		return
	}

	start := time.Now()
	timeout := time.Duration(job.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	scriptPath, err := r.writeScript(job)
	if err != nil {
		r.publishResult(ctx, job.JobID, "FAILED", "", fmt.Sprintf("failed to write script: %v", err), start, time.Now())
		return
	}
	defer os.Remove(scriptPath) // best-effort cleanup.

	cmd := exec.CommandContext(ctx, "/bin/sh", scriptPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.publishResult(ctx, job.JobID, "FAILED", "", fmt.Sprintf("failed to open pipe: %v", err), start, time.Now())
		return
	}
	cmd.Stderr = cmd.Stdout // combined stdout+stderr.

	if err := cmd.Start(); err != nil {
		r.publishResult(ctx, job.JobID, "FAILED", "", fmt.Sprintf("failed to start command: %v", err), start, time.Now())
		return
	}

	output, killedReason := r.streamOutput(job.JobID, stdout, cmd, start, timeout)

	waitErr := cmd.Wait()

	if killedReason != "" {
		r.publishResult(ctx, job.JobID, "FAILED", output, killedReason, start, time.Now())
		return
	}

	if waitErr != nil {
		exitCode := -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		r.publishResult(ctx, job.JobID, "FAILED", output, fmt.Sprintf("Command exited with status %d", exitCode), start, time.Now())
		return
	}

	r.publishResult(ctx, job.JobID, "SUCCESS", output, "", start, time.Now())
}

// streamOutput reads the pipe in bounded chunks, checking the timeout and
// cancellation predicates after each read (and at a bounded cadence
// regardless, via the select's timer branch).
func (r *Runner) streamOutput(jobID string, pipe io.Reader, cmd *exec.Cmd, start time.Time, timeout time.Duration) (string, string) {
	reader := bufio.NewReaderSize(pipe, readBufferBytes)
	var output []byte
	buf := make([]byte, readBufferBytes)

	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				lines <- chunk
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case chunk := <-lines:
			output = append(output, chunk...)
		case <-readErr:
			return string(output), r.checkKill(jobID, cmd, start, timeout, true)
		case <-time.After(pollInterval):
		}

		if reason := r.checkKill(jobID, cmd, start, timeout, false); reason != "" {
			return string(output), reason
		}
	}
}

// checkKill evaluates the timeout and cancellation predicates, killing the
// subprocess and returning a non-empty reason when either fires. When
// atEOF is true the pipe is already closed (process exiting); no kill is
// needed, but the predicates still determine the reported reason.
func (r *Runner) checkKill(jobID string, cmd *exec.Cmd, start time.Time, timeout time.Duration, atEOF bool) string {
	if time.Since(start) >= timeout {
		if !atEOF && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return "execution timeout"
	}
	if r.isCancelled(jobID) {
		if !atEOF && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return "job cancelled during execution"
	}
	return ""
}

// writeScript writes job.Command to a uniquely-named executable script
// under the scratch directory.
func (r *Runner) writeScript(job Job) (string, error) {
	name := fmt.Sprintf("dockmon-%s-%s.sh", job.JobID, uuid.NewString())
	path := filepath.Join(r.scratchDir, name)

	if err := os.WriteFile(path, []byte(job.Command), 0o700); err != nil {
		return "", err
	}
	return path, nil
}

// publishCancelled publishes a synthetic terminal result for a job that
// was cancelled before the runner ever spawned a subprocess.
func (r *Runner) publishCancelled(ctx context.Context, jobID, reason string) {
	now := time.Now()
	r.publishResult(ctx, jobID, "FAILED", "", reason, now, now)
}

// publishResult stamps start/end and publishes JOB_RESULT to job-result.
func (r *Runner) publishResult(ctx context.Context, jobID, status, output, errText string, start, end time.Time) {
	result := Result{
		JobID:      jobID,
		ExecutorID: r.executorID,
		Status:     status,
		Output:     output,
		Error:      errText,
		StartTime:  &start,
		EndTime:    &end,
	}

	body, err := json.Marshal(result)
	if err != nil {
		r.logger.Error(ctx, "job-result payload marshal failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	ok := r.broker.Produce(ctx, broker.TopicJobResult, jobID, broker.Envelope{
		Type:    broker.JobResult,
		Payload: string(body),
	})
	if !ok {
		r.logger.Error(ctx, "job-result produce failed", zap.String("job_id", jobID))
	}
}
