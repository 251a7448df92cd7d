// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package queue

import "testing"

func TestPushPopPriorityOrder(t *testing.T) {
	q := New()
	q.Push(Job{JobID: "low", Priority: 1})
	q.Push(Job{JobID: "high", Priority: 10})
	q.Push(Job{JobID: "mid", Priority: 5})

	want := []string{"high", "mid", "low"}
	for _, id := range want {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("expected a job, queue empty")
		}
		if got.JobID != id {
			t.Fatalf("Pop() = %q, want %q", got.JobID, id)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestEqualPriorityPopsInInsertionOrder(t *testing.T) {
	q := New()
	q.Push(Job{JobID: "a", Priority: 5})
	q.Push(Job{JobID: "b", Priority: 5})
	q.Push(Job{JobID: "c", Priority: 5})

	for _, id := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		if !ok || got.JobID != id {
			t.Fatalf("Pop() = %+v, ok=%v, want %q", got, ok, id)
		}
	}
}

func TestRemove(t *testing.T) {
	q := New()
	q.Push(Job{JobID: "a", Priority: 1})
	q.Push(Job{JobID: "b", Priority: 2})

	if !q.Remove("a") {
		t.Fatalf("expected Remove to find job a")
	}
	if q.Remove("a") {
		t.Fatalf("expected second Remove to fail")
	}
	if q.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", q.Size())
	}
}

func TestSize(t *testing.T) {
	q := New()
	if q.Size() != 0 {
		t.Fatalf("expected empty queue to have size 0")
	}
	q.Push(Job{JobID: "a", Priority: 1})
	q.Push(Job{JobID: "b", Priority: 1})
	if q.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", q.Size())
	}
}
