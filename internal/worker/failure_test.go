package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureTrackerHaltsAtThreshold(t *testing.T) {
	tr := NewFailureTracker(3)

	count, halted := tr.RecordFailure()
	assert.Equal(t, 1, count)
	assert.False(t, halted)

	count, halted = tr.RecordFailure()
	assert.Equal(t, 2, count)
	assert.False(t, halted)

	count, halted = tr.RecordFailure()
	assert.Equal(t, 3, count)
	assert.True(t, halted)
	assert.True(t, tr.Halted())
}

func TestFailureTrackerSuccessClearsStreak(t *testing.T) {
	tr := NewFailureTracker(3)

	tr.RecordFailure()
	tr.RecordFailure()
	tr.RecordSuccess()

	assert.Zero(t, tr.Count(), "counter measures consecutive failures")
	assert.False(t, tr.Halted())
}

func TestFailureTrackerSuccessDoesNotCloseOpenBreaker(t *testing.T) {
	tr := NewFailureTracker(2)
	tr.RecordFailure()
	tr.RecordFailure()
	assert.True(t, tr.Halted())

	tr.RecordSuccess()
	assert.True(t, tr.Halted(), "only an explicit reset resumes")
	assert.Equal(t, 2, tr.Count())
}

func TestFailureTrackerReset(t *testing.T) {
	tr := NewFailureTracker(2)
	tr.RecordFailure()
	tr.RecordFailure()
	assert.True(t, tr.Halted())

	tr.Reset()
	assert.False(t, tr.Halted())
	assert.Zero(t, tr.Count())
}

func TestFailureTrackerSync(t *testing.T) {
	tr := NewFailureTracker(5)

	tr.Sync(5)
	assert.True(t, tr.Halted(), "persisted streak at threshold opens the breaker")

	// An external reset zeroed the persisted count.
	tr.Sync(0)
	assert.False(t, tr.Halted())
	assert.Zero(t, tr.Count())
}

func TestFailureTrackerDefaultThreshold(t *testing.T) {
	tr := NewFailureTracker(0)
	for i := 0; i < 4; i++ {
		_, halted := tr.RecordFailure()
		assert.False(t, halted)
	}
	_, halted := tr.RecordFailure()
	assert.True(t, halted)
}
