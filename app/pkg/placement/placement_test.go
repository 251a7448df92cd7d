// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package placement

import "testing"

// TestRoundRobinAcrossThreeExecutors matches the literal scenario: with live
// set [e1,e2,e3] in that order, six successive selections return
// e1,e2,e3,e1,e2,e3.
func TestRoundRobinAcrossThreeExecutors(t *testing.T) {
	live := []Executor{
		{ExecutorID: "e1"}, {ExecutorID: "e2"}, {ExecutorID: "e3"},
	}
	p := New(RoundRobin)

	want := []string{"e1", "e2", "e3", "e1", "e2", "e3"}
	for i, id := range want {
		got, ok := p.Select(live)
		if !ok {
			t.Fatalf("iteration %d: expected a selection", i)
		}
		if got.ExecutorID != id {
			t.Fatalf("iteration %d: Select() = %q, want %q", i, got.ExecutorID, id)
		}
	}
}

// TestLeastLoadSelection matches the literal scenario from the spec.
func TestLeastLoadSelection(t *testing.T) {
	p := New(LeastLoad)

	live := []Executor{
		{ExecutorID: "e1", CurrentLoad: 5, MaxLoad: 10},
		{ExecutorID: "e2", CurrentLoad: 2, MaxLoad: 10},
		{ExecutorID: "e3", CurrentLoad: 8, MaxLoad: 10},
	}
	got, ok := p.Select(live)
	if !ok || got.ExecutorID != "e2" {
		t.Fatalf("Select() = %+v, ok=%v, want e2", got, ok)
	}

	live[1].CurrentLoad = 10 // e2 now saturated
	got, ok = p.Select(live)
	if !ok || got.ExecutorID != "e1" {
		t.Fatalf("Select() = %+v, ok=%v, want e1", got, ok)
	}

	for i := range live {
		live[i].CurrentLoad = live[i].MaxLoad
	}
	if _, ok = p.Select(live); ok {
		t.Fatalf("expected no selection when every executor is saturated")
	}
}

func TestSelectEmptyLiveSet(t *testing.T) {
	p := New(Random)
	if _, ok := p.Select(nil); ok {
		t.Fatalf("expected no selection for an empty live set")
	}
}

func TestSetStrategy(t *testing.T) {
	p := New(Random)
	p.SetStrategy(LeastLoad)
	if p.Strategy() != LeastLoad {
		t.Fatalf("Strategy() = %q, want LEAST_LOAD", p.Strategy())
	}
}
