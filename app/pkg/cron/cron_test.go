// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package cron

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, expr string) *Expression {
	t.Helper()
	e, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", expr, err)
	}
	return e
}

// TestStepExpression validates the literal scenario from the spec: a
// */15 step expression matches on the quarter-hour and reports the next
// matching minute.
func TestStepExpression(t *testing.T) {
	e := mustParse(t, "*/15 * * * *")

	if !e.Matches(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected match at 00:00")
	}
	if e.Matches(time.Date(2023, 1, 1, 0, 5, 0, 0, time.UTC)) {
		t.Fatalf("expected no match at 00:05")
	}

	next := e.NextAfter(time.Date(2023, 1, 1, 0, 0, 30, 0, time.UTC))
	want := time.Date(2023, 1, 1, 0, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("NextAfter() = %v, want %v", next, want)
	}
}

// TestWeekdayRange validates OR semantics do not apply when day-of-month is
// wildcard: only the day-of-week restriction governs.
func TestWeekdayRange(t *testing.T) {
	e := mustParse(t, "0 12 * * 1-5")

	if !e.Matches(time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)) { // Monday
		t.Fatalf("expected match on Monday")
	}
	if e.Matches(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)) { // Sunday
		t.Fatalf("expected no match on Sunday")
	}
}

// TestDomDowOrSemantics validates that when both day-of-month and
// day-of-week are restricted, a match on either is sufficient.
func TestDomDowOrSemantics(t *testing.T) {
	e := mustParse(t, "0 0 1 * 1")

	// January 1 2023 is a Sunday: day-of-month matches, day-of-week does not.
	if !e.Matches(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected day-of-month match to satisfy OR semantics")
	}
	// January 2 2023 is a Monday: day-of-week matches, day-of-month does not.
	if !e.Matches(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected day-of-week match to satisfy OR semantics")
	}
	// January 3 2023 is a Tuesday, day 3: neither matches.
	if e.Matches(time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected no match when neither day field matches")
	}
}

// TestNextAfterInvariant checks the testable property from spec.md §8:
// matches(nextAfter(t)) is always true and nextAfter(t) > t.
func TestNextAfterInvariant(t *testing.T) {
	e := mustParse(t, "23 4 * * *")
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)

	next := e.NextAfter(start)
	if !next.After(start) {
		t.Fatalf("NextAfter() must return a time after start, got %v", next)
	}
	if !e.Matches(next) {
		t.Fatalf("NextAfter() must return a matching minute, got %v", next)
	}
}

// TestNextAfterNoMatchWithinHorizon validates the documented no-op fallback
// for an expression that can never match (February 30th).
func TestNextAfterNoMatchWithinHorizon(t *testing.T) {
	e := mustParse(t, "0 0 30 2 *")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	next := e.NextAfter(start)
	if !next.Equal(start) {
		t.Fatalf("expected no-op fallback to original time, got %v", next)
	}
}

// TestParseInvalid validates the field-count and range-bound validation.
func TestParseInvalid(t *testing.T) {
	cases := []string{
		"* * * *",          // only 4 fields
		"60 * * * *",       // minute out of range
		"* 24 * * *",       // hour out of range
		"* * 0 * *",        // day-of-month out of range
		"* * * 13 *",       // month out of range
		"* * * * 8",        // day-of-week out of range
	}

	for _, expr := range cases {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", expr)
		}
	}
}

// TestStepRangeStartsAtBase validates that "a-b/n" steps start at a.
func TestStepRangeStartsAtBase(t *testing.T) {
	e := mustParse(t, "10-20/5 * * * *")

	for _, minute := range []int{10, 15, 20} {
		if !e.Matches(time.Date(2023, 1, 1, 0, minute, 0, 0, time.UTC)) {
			t.Errorf("expected minute %d to match", minute)
		}
	}
	if e.Matches(time.Date(2023, 1, 1, 0, 12, 0, 0, time.UTC)) {
		t.Errorf("expected minute 12 not to match")
	}
}
