// Package genjob models the lifecycle of generated artifacts (summaries and
// quizzes) as an explicit state machine instead of ad-hoc status writes.
package genjob

import (
	"fmt"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

var transitions = map[string][]string{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusReady, StatusFailed, StatusPending},
	StatusReady:      {StatusPending},
	StatusFailed:     {StatusPending},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the target status.
func Transition(from, to string) (string, error) {
	if !CanTransition(from, to) {
		return "", fmt.Errorf("illegal status transition %s -> %s", from, to)
	}
	return to, nil
}

// IsTerminal reports whether the status needs no further worker action.
// Ready and failed artifacts stay put until an explicit regeneration resets
// them to pending.
func IsTerminal(status string) bool {
	return status == StatusReady || status == StatusFailed
}

// IsRunnable reports whether a worker may claim the artifact.
func IsRunnable(status string) bool {
	return status == StatusPending
}

// SettleFailure picks the status for a processing artifact whose generation
// failed. Attempts is the post-claim counter, so a row fails for good only
// once the attempt cap is spent; otherwise it goes back to pending for
// another claim.
func SettleFailure(attempts, maxAttempts int) string {
	if attempts >= maxAttempts {
		return StatusFailed
	}
	return StatusPending
}
