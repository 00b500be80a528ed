// Package cadence admits at most one steady-state action per interval.
package cadence

import "time"

// State holds the single "last action" epoch shared by every trade kind.
// The zero value means no action has been executed yet.
type State struct {
	LastActionAt time.Time `json:"last_action_at"`
}

// IsDue reports whether frequency has elapsed since the last action.
func IsDue(s State, frequency time.Duration, now time.Time) bool {
	if s.LastActionAt.IsZero() {
		return true
	}
	return now.Sub(s.LastActionAt) >= frequency
}

// NextDue returns the earliest instant at which IsDue becomes true.
func NextDue(s State, frequency time.Duration) time.Time {
	if s.LastActionAt.IsZero() {
		return time.Time{}
	}
	return s.LastActionAt.Add(frequency)
}

// NotifyExecuted restarts the interval at now. It does not check that a
// trade actually happened.
func (s *State) NotifyExecuted(now time.Time) {
	s.LastActionAt = now
}
