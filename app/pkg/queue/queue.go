// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package queue implements the scheduling engine's in-memory dispatch
// staging buffer: a priority queue pulled from the store each tick and
// drained before the next. The queue itself has no capacity limit; the
// engine pushes at most one pull batch per tick.
package queue

import "sync"

// Job is the subset of a job template the dispatch queue needs to order and
// identify entries; the scheduling engine fills it from the store adapter.
type Job struct {
	JobID    string
	Priority int
}

type entry struct {
	job Job
	seq uint64
}

// Queue is a thread-safe, priority-ordered staging buffer. Pop order is
// priority DESC; equal priorities pop in insertion order.
type Queue struct {
	mu      sync.Mutex
	entries []entry
	seq     uint64
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Push inserts job, maintaining priority-DESC / insertion-order sort.
//
// Parameters:
//   - job: the job to stage for dispatch.
func (q *Queue) Push(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	e := entry{job: job, seq: q.seq}

	// Insertion sort keeps the buffer ordered without a full re-sort per
	// push; ties preserve insertion order because seq is monotonic.
	i := len(q.entries)
	q.entries = append(q.entries, e)
	for i > 0 && q.entries[i-1].job.Priority < e.job.Priority {
		q.entries[i] = q.entries[i-1]
		i--
	}
	q.entries[i] = e
}

// Pop removes and returns the highest-priority entry.
//
// Returns:
//   - Job: the popped job.
//   - bool: false when the queue is empty.
func (q *Queue) Pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Job{}, false
	}

	e := q.entries[0]
	q.entries = q.entries[1:]
	return e.job, true
}

// Remove deletes the first staged entry matching jobID.
//
// Returns:
//   - bool: true when an entry was found and removed.
func (q *Queue) Remove(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.job.JobID == jobID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of staged entries.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}
