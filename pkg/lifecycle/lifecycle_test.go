package lifecycle

import (
	"context"
	"testing"
	"time"

	"gotest.tools/assert"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/priceoracle"
)

func TestGetJobStatusReportsPendingAsRunning(t *testing.T) {
	c, err := cache.Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusPending, StartTime: &now}))

	tr := New(c, nil, nil, nil, "")
	status, err := tr.GetJobStatus("j1")
	assert.NilError(t, err)
	assert.Equal(t, status, "running")
}

func TestGetJobStatusNoneForUnknown(t *testing.T) {
	c, err := cache.Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	tr := New(c, nil, nil, nil, "")
	status, err := tr.GetJobStatus("missing")
	assert.NilError(t, err)
	assert.Equal(t, status, "none")
}

func TestGetJobStatusLowercasesTerminalStatus(t *testing.T) {
	c, err := cache.Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j2", Status: cache.StatusSuccess, StartTime: &now, EndTime: &now}))

	tr := New(c, nil, nil, nil, "")
	status, err := tr.GetJobStatus("j2")
	assert.NilError(t, err)
	assert.Equal(t, status, "success")
}

// fakeQueueInstanceClient replaces *cloudapi.Clients in the
// reconciliation tests below — it never touches a real AWS SDK client.
type fakeQueueInstanceClient struct {
	messages     []cloudapi.QueueMessage
	deleted      []cloudapi.QueueMessage
	observations []cloudapi.InstanceObservation
}

func (f *fakeQueueInstanceClient) ReceiveTerminalMessages(ctx context.Context, queueURL string) ([]cloudapi.QueueMessage, error) {
	return f.messages, nil
}

func (f *fakeQueueInstanceClient) DeleteMessage(ctx context.Context, queueURL string, msg cloudapi.QueueMessage) error {
	f.deleted = append(f.deleted, msg)
	return nil
}

func (f *fakeQueueInstanceClient) DescribeInstanceStates(ctx context.Context, ids []string) ([]cloudapi.InstanceObservation, error) {
	return f.observations, nil
}

type launchCall struct{ jobid, script string }

type fakeRelauncher struct {
	calls []launchCall
}

func (f *fakeRelauncher) Launch(ctx context.Context, jobid, script string) error {
	f.calls = append(f.calls, launchCall{jobid, script})
	return nil
}

func newTestTracker(t *testing.T, clients queueInstanceClient, l relauncher) (*Tracker, *cache.Cache) {
	t.Helper()
	c, err := cache.Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	tr := &Tracker{
		cache:    c,
		clients:  clients,
		prices:   priceoracle.New(c, nil),
		launcher: l,
		queueURL: "queue-url",
	}
	return tr, c
}

func TestCheckQueueAppliesTerminalStatusAndDeletesMessage(t *testing.T) {
	fc := &fakeQueueInstanceClient{messages: []cloudapi.QueueMessage{{JobID: "j1", Status: "SUCCESS"}}}
	tr, c := newTestTracker(t, fc, nil)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusRunning, StartTime: &now}))

	assert.NilError(t, tr.CheckQueue(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusSuccess)
	assert.Equal(t, len(fc.deleted), 1)
}

func TestCheckQueueLeavesUnknownJobidForAnotherScheduler(t *testing.T) {
	fc := &fakeQueueInstanceClient{messages: []cloudapi.QueueMessage{{JobID: "not-mine", Status: "SUCCESS"}}}
	tr, _ := newTestTracker(t, fc, nil)

	assert.NilError(t, tr.CheckQueue(context.Background(), time.Minute))

	assert.Equal(t, len(fc.deleted), 0)
}

func TestCheckInstancesNormalShutdownLeavesJobRunning(t *testing.T) {
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", StateReasonCode: reasonInstanceInitiatedShutdown},
		},
	}
	tr, c := newTestTracker(t, fc, nil)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusRunning, InstanceID: "i-1", StartTime: &now}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusRunning)
}

func TestCheckInstancesUserInitiatedShutdownMarksJobFailed(t *testing.T) {
	// An instance a user shut down outside the scheduler (`kill` marks
	// the job FAILED itself) reports Client.UserInitiatedShutdown; the
	// next reconciliation pass must still land the job in a terminal
	// state even though no queue message arrives.
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", StateReasonCode: reasonUserInitiatedShutdown},
		},
	}
	tr, c := newTestTracker(t, fc, nil)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusRunning, InstanceID: "i-1", StartTime: &now}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusFailed)
}

func TestCheckInstancesUnrecognizedReasonMarksJobFailed(t *testing.T) {
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", StateReasonCode: "Server.InternalError"},
		},
	}
	tr, c := newTestTracker(t, fc, nil)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusRunning, InstanceID: "i-1", StartTime: &now}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusFailed)
}

func TestCheckInstancesCapacityShortageRetriesJob(t *testing.T) {
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", Shape: "m5.large", AZ: "us-east-1a", StateReasonCode: reasonInsufficientCapacity},
		},
	}
	fl := &fakeRelauncher{}
	tr, c := newTestTracker(t, fc, fl)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertSpotQuotes([]cache.SpotQuote{{Shape: "m5.large", AZ: "us-east-1a", Price: 0.05}}))
	assert.NilError(t, c.UpsertJob(&cache.Job{
		JobID: "j1", Status: cache.StatusRunning, InstanceID: "i-1",
		OrigJobscript: "# properties = {}", StartTime: &now,
	}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusPending)

	quotes, err := c.ListSpotQuotes()
	assert.NilError(t, err)
	assert.Equal(t, quotes[0].Backoff, 1)

	assert.Equal(t, len(fl.calls), 1)
	assert.Equal(t, fl.calls[0].jobid, "j1")
	assert.Equal(t, fl.calls[0].script, "# properties = {}")
}

func TestCheckInstancesSpotTerminationRetriesJob(t *testing.T) {
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", Shape: "m5.large", AZ: "us-east-1a", StateReasonCode: reasonSpotInstanceTermination},
		},
	}
	fl := &fakeRelauncher{}
	tr, c := newTestTracker(t, fc, fl)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{
		JobID: "j1", Status: cache.StatusRunning, InstanceID: "i-1",
		OrigJobscript: "# properties = {}", StartTime: &now,
	}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	assert.Equal(t, len(fl.calls), 1)
}

func TestCheckInstancesSkipsNonRunningJobs(t *testing.T) {
	fc := &fakeQueueInstanceClient{
		observations: []cloudapi.InstanceObservation{
			{InstanceID: "i-1", StateReasonCode: reasonUserInitiatedShutdown},
		},
	}
	tr, c := newTestTracker(t, fc, nil)

	now := time.Now().UTC()
	assert.NilError(t, c.UpsertJob(&cache.Job{JobID: "j1", Status: cache.StatusSuccess, InstanceID: "i-1", StartTime: &now, EndTime: &now}))

	assert.NilError(t, tr.CheckInstances(context.Background(), time.Minute))

	job, err := c.GetJob("j1")
	assert.NilError(t, err)
	assert.Equal(t, job.Status, cache.StatusSuccess)
}
