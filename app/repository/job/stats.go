// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

// StatsRecorder receives per-operation query accounting from the repo so the
// statistics accumulator (app/stats) stays decoupled from persistence.
type StatsRecorder interface {
	RecordQuery(op string, elapsedMs int64, failed bool)
}

// noopStats discards accounting calls; used when no recorder is configured.
type noopStats struct{}

func (noopStats) RecordQuery(string, int64, bool) {}
