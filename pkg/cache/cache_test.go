package cache

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTimedLockWindow(t *testing.T) {
	c := openTestCache(t)

	ok, err := c.TimedLock("spot_prices", 30*time.Minute)
	assert.NilError(t, err)
	assert.Equal(t, ok, true)

	ok, err = c.TimedLock("spot_prices", 30*time.Minute)
	assert.NilError(t, err)
	assert.Equal(t, ok, false)
}

func TestTimedLockReacquiresAfterDelta(t *testing.T) {
	c := openTestCache(t)

	ok, err := c.TimedLock("sqs_status", time.Millisecond)
	assert.NilError(t, err)
	assert.Equal(t, ok, true)

	time.Sleep(5 * time.Millisecond)

	ok, err = c.TimedLock("sqs_status", time.Millisecond)
	assert.NilError(t, err)
	assert.Equal(t, ok, true)
}

func TestJobTerminalInvariant(t *testing.T) {
	c := openTestCache(t)
	now := time.Now().UTC().Truncate(time.Second)

	job := &Job{JobID: "j1", JobName: "hd-rule-j1", Status: StatusRunning, InstanceID: "i-1", StartTime: &now}
	assert.NilError(t, c.UpsertJob(job))

	assert.NilError(t, c.SetJobStatus("j1", StatusSuccess))

	got, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, got.Status, StatusSuccess)
	assert.Assert(t, got.EndTime != nil)
}

func TestJobRefusesTransitionOutOfTerminal(t *testing.T) {
	c := openTestCache(t)
	now := time.Now().UTC().Truncate(time.Second)

	job := &Job{JobID: "j2", Status: StatusRunning, StartTime: &now}
	assert.NilError(t, c.UpsertJob(job))
	assert.NilError(t, c.SetJobStatus("j2", StatusFailed))

	firstEnd, err := c.GetJob("j2")
	assert.NilError(t, err)

	// A late SUCCESS message must be a no-op (§8 scenario 4).
	assert.NilError(t, c.SetJobStatus("j2", StatusSuccess))

	after, err := c.GetJob("j2")
	assert.NilError(t, err)
	assert.Equal(t, after.Status, StatusFailed)
	assert.Equal(t, *after.EndTime, *firstEnd.EndTime)
}

func TestBackoffIncrementsNeverDecrements(t *testing.T) {
	c := openTestCache(t)
	assert.NilError(t, c.UpsertSpotQuotes([]SpotQuote{{Shape: "s1", AZ: "a", Price: 0.02}}))

	assert.NilError(t, c.Backoff("s1", "a"))
	assert.NilError(t, c.Backoff("s1", "a"))

	quotes, err := c.ListSpotQuotes()
	assert.NilError(t, err)
	assert.Equal(t, len(quotes), 1)
	assert.Equal(t, quotes[0].Backoff, 2)
}

func TestUpsertSpotQuotesResetsBackoff(t *testing.T) {
	c := openTestCache(t)
	assert.NilError(t, c.UpsertSpotQuotes([]SpotQuote{{Shape: "s1", AZ: "a", Price: 0.02}}))
	assert.NilError(t, c.Backoff("s1", "a"))

	assert.NilError(t, c.UpsertSpotQuotes([]SpotQuote{{Shape: "s1", AZ: "a", Price: 0.03}}))

	quotes, err := c.ListSpotQuotes()
	assert.NilError(t, err)
	assert.Equal(t, quotes[0].Backoff, 0)
	assert.Equal(t, quotes[0].Price, 0.03)
}

func TestDeleteTerminalJobs(t *testing.T) {
	c := openTestCache(t)
	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&Job{JobID: "done", Status: StatusSuccess, StartTime: &now, EndTime: &now}))
	assert.NilError(t, c.UpsertJob(&Job{JobID: "live", Status: StatusRunning, StartTime: &now}))

	assert.NilError(t, c.DeleteTerminalJobs())

	remaining, err := c.ListJobs()
	assert.NilError(t, err)
	assert.Equal(t, len(remaining), 1)
	assert.Equal(t, remaining[0].JobID, "live")
}
