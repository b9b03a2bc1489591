// Package lifecycle implements the Lifecycle Tracker (C6): reconciles
// job state from queue messages and instance descriptions, and
// triggers capacity/preemption retries.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/rvalieris/hyperdrive/pkg/cache"
	"github.com/rvalieris/hyperdrive/pkg/cloudapi"
	"github.com/rvalieris/hyperdrive/pkg/launcher"
	"github.com/rvalieris/hyperdrive/pkg/logger"
	"github.com/rvalieris/hyperdrive/pkg/priceoracle"
)

// StateReason codes the cloud reports on instance termination (§4.6).
const (
	reasonInstanceInitiatedShutdown  = "Client.InstanceInitiatedShutdown"
	reasonInsufficientCapacity       = "Server.InsufficientInstanceCapacity"
	reasonSpotInstanceTermination    = "Server.SpotInstanceTermination"
	reasonUserInitiatedShutdown      = "Client.UserInitiatedShutdown"
)

// queueInstanceClient is the subset of *cloudapi.Clients the
// reconciliation state machine depends on, narrowed to an interface so
// CheckQueue/CheckInstances can run against a fake instead of real AWS
// SDK clients. *cloudapi.Clients satisfies it unchanged.
type queueInstanceClient interface {
	ReceiveTerminalMessages(ctx context.Context, queueURL string) ([]cloudapi.QueueMessage, error)
	DeleteMessage(ctx context.Context, queueURL string, msg cloudapi.QueueMessage) error
	DescribeInstanceStates(ctx context.Context, ids []string) ([]cloudapi.InstanceObservation, error)
}

// relauncher is *launcher.Launcher's Launch method, narrowed the same
// way so a capacity/preemption retry can be observed without driving a
// real spot-instance request.
type relauncher interface {
	Launch(ctx context.Context, jobid, script string) error
}

// Tracker is the Lifecycle Tracker component.
type Tracker struct {
	cache    *cache.Cache
	clients  queueInstanceClient
	prices   *priceoracle.PriceOracle
	launcher relauncher
	queueURL string
}

func New(c *cache.Cache, clients *cloudapi.Clients, prices *priceoracle.PriceOracle, l *launcher.Launcher, queueURL string) *Tracker {
	return &Tracker{cache: c, clients: clients, prices: prices, launcher: l, queueURL: queueURL}
}

// CheckQueue drains up to 10 terminal-status messages, guarded by
// timedLock("sqs_status", delta) (§4.6).
func (t *Tracker) CheckQueue(ctx context.Context, delta time.Duration) error {
	acquired, err := t.cache.TimedLock("sqs_status", delta)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	messages, err := t.clients.ReceiveTerminalMessages(ctx, t.queueURL)
	if err != nil {
		return err
	}
	for _, m := range messages {
		job, err := t.cache.GetJob(m.JobID)
		if err != nil {
			return err
		}
		if job == nil {
			// Unknown jobid: leave it for a scheduler with a
			// different cache that does know it (§8 scenario 5).
			continue
		}
		if err := t.cache.SetJobStatus(m.JobID, cache.Status(m.Status)); err != nil {
			return err
		}
		if err := t.clients.DeleteMessage(ctx, t.queueURL, m); err != nil {
			return err
		}
	}
	return nil
}

// CheckInstances describes every RUNNING job's instance and reconciles
// state from StateReason.Code, guarded by
// timedLock("instance_status", delta) (§4.6).
func (t *Tracker) CheckInstances(ctx context.Context, delta time.Duration) error {
	acquired, err := t.cache.TimedLock("instance_status", delta)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	ids, err := t.cache.ListRunningInstanceIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	observations, err := t.clients.DescribeInstanceStates(ctx, ids)
	if err != nil {
		return err
	}

	byInstance := map[string]cloudapi.InstanceObservation{}
	for _, o := range observations {
		byInstance[o.InstanceID] = o
	}

	jobs, err := t.cache.ListJobs()
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.Status != cache.StatusRunning {
			continue
		}
		obs, seen := byInstance[job.InstanceID]
		if !seen {
			continue
		}
		if err := t.reconcileOne(ctx, job, obs); err != nil {
			// One failed observation must not abort the batch (§7).
			logger.Errorf("reconciling job %s: %v", job.JobID, err)
		}
	}
	return nil
}

func (t *Tracker) reconcileOne(ctx context.Context, job cache.Job, obs cloudapi.InstanceObservation) error {
	switch obs.StateReasonCode {
	case reasonInstanceInitiatedShutdown:
		// Normal job end; rely on the queue message.
		return nil
	case reasonInsufficientCapacity, reasonSpotInstanceTermination:
		return t.retry(ctx, job, obs)
	case reasonUserInitiatedShutdown:
		return t.cache.SetJobStatus(job.JobID, cache.StatusFailed)
	case "":
		return nil
	default:
		logger.Warnf("job %s instance %s terminated with unrecognized reason %q", job.JobID, job.InstanceID, obs.StateReasonCode)
		return t.cache.SetJobStatus(job.JobID, cache.StatusFailed)
	}
}

// retry marks the job PENDING, backs off the (shape,zone) it was
// launched on, and re-invokes the Launcher with the original
// job-script (§4.6, §8 scenario 2).
func (t *Tracker) retry(ctx context.Context, job cache.Job, obs cloudapi.InstanceObservation) error {
	if err := t.cache.SetJobStatus(job.JobID, cache.StatusPending); err != nil {
		return err
	}
	if obs.Shape != "" && obs.AZ != "" {
		if err := t.prices.Backoff(obs.Shape, obs.AZ); err != nil {
			return err
		}
	}
	logger.Infof("job %s hit retriable capacity/preemption failure, relaunching", job.JobID)
	return t.launcher.Launch(ctx, job.JobID, job.OrigJobscript)
}

// GetJobStatus returns the authoritative local view of a job, a
// lowercase status string, or "none" if unknown. PENDING is reported
// as "running" so the workflow engine keeps waiting (§4.6).
func (t *Tracker) GetJobStatus(jobid string) (string, error) {
	job, err := t.cache.GetJob(jobid)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "none", nil
	}
	if job.Status == cache.StatusPending {
		return "running", nil
	}
	return strings.ToLower(string(job.Status)), nil
}
