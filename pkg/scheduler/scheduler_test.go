package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunStandardCron(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := nextRun("*/5 * * * *", now)
	require.NoError(t, err)
	assert.True(t, next.After(now))
	assert.Equal(t, 5, next.Minute())
}

func TestNextRunSixFieldCron(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := nextRun("*/30 * * * * *", now)
	require.NoError(t, err)
	assert.True(t, next.After(now))
}

func TestNextRunInvalidSchedule(t *testing.T) {
	_, err := nextRun("not a schedule", time.Now())
	assert.Error(t, err)
}

func TestSchedulerPollIntervalWithinJitterBounds(t *testing.T) {
	s := &Scheduler{cfg: Config{PollInterval: 10 * time.Second, PollJitter: 2 * time.Second}}
	for i := 0; i < 20; i++ {
		d := s.pollInterval()
		assert.True(t, d >= 8*time.Second && d <= 12*time.Second, "got %v", d)
	}
}
