// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package cron implements the scheduler's 5-field cron evaluator: parsing,
// per-minute matching, and bounded next-fire search. Day-of-month and
// day-of-week use classic OR semantics when either field is restricted.
package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldBounds describes the inclusive [min, max] range for one cron field.
type fieldBounds struct {
	min, max int
}

var (
	minuteBounds = fieldBounds{0, 59}
	hourBounds   = fieldBounds{0, 23}
	domBounds    = fieldBounds{1, 31}
	monthBounds  = fieldBounds{1, 12}
	// Day-of-week accepts 0-7 during parsing; 7 is folded into 0 (Sunday).
	dowBounds = fieldBounds{0, 7}

	searchHorizon = 365 * 24 * time.Hour
)

// Expression is a parsed 5-field cron expression ready for matching.
type Expression struct {
	minutes  map[int]struct{}
	hours    map[int]struct{}
	daysOfM  map[int]struct{}
	months   map[int]struct{}
	daysOfW  map[int]struct{}
	domWild  bool
	dowWild  bool
	raw      string
}

// InvalidCronError reports a malformed cron expression.
type InvalidCronError struct {
	Expression string
	Reason     string
}

func (e *InvalidCronError) Error() string {
	return fmt.Sprintf("invalid cron expression %q: %s", e.Expression, e.Reason)
}

// Parse parses a 5-field cron expression ("minute hour dom month dow").
//
// Parameters:
//   - expression: whitespace-separated 5-field cron string.
//
// Returns:
//   - *Expression: parsed field sets ready for Matches/NextAfter.
//   - error: *InvalidCronError when the expression does not have exactly
//     five fields, or any field cannot be reduced to a non-empty integer set
//     within its bounds.
//
// Example:
//
//	expr, err := cron.Parse("*/15 * * * *")
func Parse(expression string) (*Expression, error) {
	fields := strings.Fields(expression)
	if len(fields) != 5 {
		return nil, &InvalidCronError{Expression: expression, Reason: "expected 5 whitespace-separated fields"}
	}

	minutes, err := parseField(fields[0], minuteBounds)
	if err != nil {
		return nil, &InvalidCronError{Expression: expression, Reason: "minute field: " + err.Error()}
	}
	hours, err := parseField(fields[1], hourBounds)
	if err != nil {
		return nil, &InvalidCronError{Expression: expression, Reason: "hour field: " + err.Error()}
	}
	doms, err := parseField(fields[2], domBounds)
	if err != nil {
		return nil, &InvalidCronError{Expression: expression, Reason: "day-of-month field: " + err.Error()}
	}
	months, err := parseField(fields[3], monthBounds)
	if err != nil {
		return nil, &InvalidCronError{Expression: expression, Reason: "month field: " + err.Error()}
	}
	dows, err := parseField(fields[4], dowBounds)
	if err != nil {
		return nil, &InvalidCronError{Expression: expression, Reason: "day-of-week field: " + err.Error()}
	}

	// Fold the grammar's accepted "7" (Sunday) onto "0".
	if _, ok := dows[7]; ok {
		delete(dows, 7)
		dows[0] = struct{}{}
	}

	if len(minutes) == 0 || len(hours) == 0 || len(doms) == 0 || len(months) == 0 || len(dows) == 0 {
		return nil, &InvalidCronError{Expression: expression, Reason: "a field reduced to an empty set"}
	}

	return &Expression{
		minutes: minutes,
		hours:   hours,
		daysOfM: doms,
		months:  months,
		daysOfW: dows,
		domWild: fields[2] == "*",
		dowWild: fields[4] == "*",
		raw:     expression,
	}, nil
}

// String returns the original expression text.
func (e *Expression) String() string {
	return e.raw
}

// Matches reports whether t's civil minute satisfies the expression.
//
// Parameters:
//   - t: the instant to test, evaluated in its own local time zone.
//
// Returns:
//   - bool: true when minute/hour/month all match and day-of-month OR
//     day-of-week matches (classic cron OR semantics; both wildcard means
//     every day matches). Seconds are ignored.
func (e *Expression) Matches(t time.Time) bool {
	if _, ok := e.minutes[t.Minute()]; !ok {
		return false
	}
	if _, ok := e.hours[t.Hour()]; !ok {
		return false
	}
	if _, ok := e.months[int(t.Month())]; !ok {
		return false
	}

	domMatch := false
	if _, ok := e.daysOfM[t.Day()]; ok {
		domMatch = true
	}

	dow := int(t.Weekday()) // time.Sunday == 0, matching our folded convention.
	dowMatch := false
	if _, ok := e.daysOfW[dow]; ok {
		dowMatch = true
	}

	switch {
	case e.domWild && e.dowWild:
		return true
	case e.domWild:
		return dowMatch
	case e.dowWild:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

// NextAfter returns the smallest civil minute strictly after t that matches
// the expression.
//
// Parameters:
//   - t: the instant to search strictly after.
//
// Returns:
//   - time.Time: the next matching minute, truncated to the minute boundary.
//     If no match is found within a one-year horizon, returns t unchanged
//     (documented no-op — "never again within horizon").
func (e *Expression) NextAfter(t time.Time) time.Time {
	next := t.Truncate(time.Minute).Add(time.Minute)
	deadline := t.Add(searchHorizon)

	for next.Before(deadline) {
		if e.Matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}

	return t
}

// parseField reduces one cron field into a concrete integer set, supporting
// "*", a literal, "a,b,c" lists, "a-b" ranges, "*/n" and "a-b/n" steps.
func parseField(field string, bounds fieldBounds) (map[int]struct{}, error) {
	values := make(map[int]struct{})

	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty list item")
		}

		if part == "*" {
			for i := bounds.min; i <= bounds.max; i++ {
				values[i] = struct{}{}
			}
			continue
		}

		if idx := strings.IndexByte(part, '/'); idx >= 0 {
			base := part[:idx]
			step, err := strconv.Atoi(part[idx+1:])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("invalid step in %q", part)
			}

			start, end := bounds.min, bounds.max
			if base != "*" {
				start, end, err = parseRange(base, bounds)
				if err != nil {
					return nil, err
				}
			}
			for i := start; i <= end; i += step {
				values[i] = struct{}{}
			}
			continue
		}

		if strings.Contains(part, "-") {
			start, end, err := parseRange(part, bounds)
			if err != nil {
				return nil, err
			}
			for i := start; i <= end; i++ {
				values[i] = struct{}{}
			}
			continue
		}

		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid literal %q", part)
		}
		if v < bounds.min || v > bounds.max {
			return nil, fmt.Errorf("value %d out of range [%d,%d]", v, bounds.min, bounds.max)
		}
		values[v] = struct{}{}
	}

	return values, nil
}

// parseRange parses "a-b" into start/end, validated against bounds.
func parseRange(part string, bounds fieldBounds) (int, int, error) {
	idx := strings.IndexByte(part, '-')
	if idx < 0 {
		return 0, 0, fmt.Errorf("invalid range %q", part)
	}

	start, err := strconv.Atoi(part[:idx])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start in %q", part)
	}
	end, err := strconv.Atoi(part[idx+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end in %q", part)
	}
	if start < bounds.min || end > bounds.max || start > end {
		return 0, 0, fmt.Errorf("range %q outside bounds [%d,%d]", part, bounds.min, bounds.max)
	}

	return start, end, nil
}
