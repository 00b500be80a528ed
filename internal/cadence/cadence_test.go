package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const week = 7 * 24 * time.Hour

func TestIsDue_FreshStateIsEligible(t *testing.T) {
	assert.True(t, IsDue(State{}, week, time.Unix(1, 0)))
	assert.True(t, NextDue(State{}, week).IsZero())
}

func TestIsDue_AfterNotify(t *testing.T) {
	now := time.Date(2025, 10, 9, 0, 0, 0, 0, time.UTC)
	var s State
	s.NotifyExecuted(now)

	assert.False(t, IsDue(s, week, now))
	assert.False(t, IsDue(s, week, now.Add(week-time.Second)))
	assert.True(t, IsDue(s, week, now.Add(week)))
	assert.True(t, IsDue(s, week, now.Add(2*week)))
	assert.Equal(t, now.Add(week), NextDue(s, week))
}

func TestIsDue_ClockBeforeEpoch(t *testing.T) {
	now := time.Date(2025, 10, 9, 0, 0, 0, 0, time.UTC)
	s := State{LastActionAt: now}
	assert.False(t, IsDue(s, time.Second, now.Add(-time.Hour)))
}

func TestNotifyExecuted_Idempotent(t *testing.T) {
	now := time.Date(2025, 10, 9, 12, 0, 0, 0, time.UTC)
	var s State
	s.NotifyExecuted(now)
	s.NotifyExecuted(now)
	assert.Equal(t, now, s.LastActionAt)
}
