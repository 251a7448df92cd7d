// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package placement implements the three executor-selection strategies as a
// closed enum plus a single selection function, not a vtable — the set of
// strategies is fixed and small, so dynamic dispatch buys nothing.
package placement

import (
	"math/rand"
	"sync"
)

// Strategy identifies an executor-selection policy.
type Strategy string

const (
	Random      Strategy = "RANDOM"
	RoundRobin  Strategy = "ROUND_ROBIN"
	LeastLoad   Strategy = "LEAST_LOAD"
)

// Executor is the subset of roster fields a placement decision needs.
type Executor struct {
	ExecutorID  string
	Address     string
	CurrentLoad int
	MaxLoad     int
}

// Choice is a selected executor's routing identity.
type Choice struct {
	ExecutorID string
	Address    string
}

// Policy selects one executor from a live set under a process-wide
// strategy. The active strategy can change at runtime; a sync.Mutex guards
// the round-robin cursor shared across ticks.
type Policy struct {
	mu       sync.Mutex
	strategy Strategy
	cursor   int
}

// New creates a Policy with the given initial strategy.
func New(strategy Strategy) *Policy {
	return &Policy{strategy: strategy}
}

// SetStrategy changes the active strategy at runtime.
func (p *Policy) SetStrategy(s Strategy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategy = s
}

// Strategy returns the currently active strategy.
func (p *Policy) Strategy() Strategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strategy
}

// Select chooses one executor from the live set per the active strategy.
//
// Parameters:
//   - live: the current live executor set, in a caller-determined
//     deterministic order (round-robin advances an index over this order).
//
// Returns:
//   - Choice: the selected executor's id/address.
//   - bool: false when the live set is empty or, for LEAST_LOAD, every live
//     executor is at or over capacity.
func (p *Policy) Select(live []Executor) (Choice, bool) {
	if len(live) == 0 {
		return Choice{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.strategy {
	case RoundRobin:
		idx := p.cursor % len(live)
		p.cursor++
		e := live[idx]
		return Choice{ExecutorID: e.ExecutorID, Address: e.Address}, true

	case LeastLoad:
		best := -1
		var bestRatio float64
		for i, e := range live {
			if e.CurrentLoad >= e.MaxLoad {
				continue
			}
			ratio := float64(e.CurrentLoad) / float64(e.MaxLoad)
			if best == -1 || ratio < bestRatio {
				best = i
				bestRatio = ratio
			}
		}
		if best == -1 {
			return Choice{}, false
		}
		e := live[best]
		return Choice{ExecutorID: e.ExecutorID, Address: e.Address}, true

	default: // Random
		e := live[rand.Intn(len(live))]
		return Choice{ExecutorID: e.ExecutorID, Address: e.Address}, true
	}
}
