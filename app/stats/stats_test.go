// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package stats

import "testing"

func TestRecordTerminalBreaksDownByExecutor(t *testing.T) {
	a := New()
	a.RecordTerminal("e1", "SUCCESS")
	a.RecordTerminal("e1", "FAILED")
	a.RecordTerminal("e2", "TIMEOUT")

	snap := a.Snapshot()
	if snap.ExecutionsSucceeded != 1 || snap.ExecutionsFailed != 1 || snap.ExecutionsTimedOut != 1 {
		t.Fatalf("unexpected terminal counts: %+v", snap)
	}
	if snap.ExecutorStats["e1"].TasksCompleted != 1 || snap.ExecutorStats["e1"].TasksFailed != 1 {
		t.Fatalf("unexpected e1 stats: %+v", snap.ExecutorStats["e1"])
	}
}

func TestResetZeroesCounters(t *testing.T) {
	a := New()
	a.RecordDispatch()
	a.RecordTerminal("e1", "SUCCESS")
	a.Reset()

	snap := a.Snapshot()
	if snap.JobsDispatched != 0 || snap.ExecutionsSucceeded != 0 || len(snap.ExecutorStats) != 0 {
		t.Fatalf("expected zeroed snapshot after reset, got %+v", snap)
	}
}

func TestRecordQueryTracksFailures(t *testing.T) {
	a := New()
	a.RecordQuery("GetJob", 10, false)
	a.RecordQuery("SaveJob", 5, true)

	snap := a.Snapshot()
	if snap.QueryCount != 2 || snap.QueryFailures != 1 || snap.QueryElapsedMs != 15 {
		t.Fatalf("unexpected query stats: %+v", snap)
	}
}
