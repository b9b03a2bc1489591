package cache

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertJob inserts or replaces a jobs row, keyed by jobid — grounded
// on the source's sqlite "insert or replace" submit/relaunch writes.
func (c *Cache) UpsertJob(job *Job) error {
	return c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "jobid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"jobname", "status", "instance_id", "orig_jobscript", "start_time", "end_time",
		}),
	}).Create(job).Error
}

// GetJob returns the job row, or (nil, nil) if unknown.
func (c *Cache) GetJob(jobid string) (*Job, error) {
	var job Job
	err := c.db.Where("jobid = ?", jobid).First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns every job row ordered by start_time ascending, for
// the `status` subcommand's table (§4.8).
func (c *Cache) ListJobs() ([]Job, error) {
	var jobs []Job
	err := c.db.Order("start_time asc").Find(&jobs).Error
	return jobs, err
}

// ListRunningInstanceIDs returns the instance ids of every RUNNING
// job, for checkInstances (§4.6).
func (c *Cache) ListRunningInstanceIDs() ([]string, error) {
	var ids []string
	err := c.db.Model(&Job{}).Where("status = ?", StatusRunning).
		Pluck("instance_id", &ids).Error
	return ids, err
}

// SetJobStatus transitions a job's status. If status is terminal and
// end_time is nil, end_time is set to now (second precision, UTC).
// A job already in a terminal status is left untouched — "no
// transition out of terminal" (§4.6, §8 scenario 4).
func (c *Cache) SetJobStatus(jobid string, status Status) error {
	job, err := c.GetJob(jobid)
	if err != nil || job == nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}
	updates := map[string]interface{}{"status": status}
	if status.Terminal() {
		now := time.Now().UTC().Truncate(time.Second)
		updates["end_time"] = &now
	}
	return c.db.Model(&Job{}).Where("jobid = ?", jobid).Updates(updates).Error
}

// DeleteTerminalJobs implements `clean-cache` (§4.8).
func (c *Cache) DeleteTerminalJobs() error {
	return c.db.Where("status IN ?", []Status{StatusSuccess, StatusFailed}).Delete(&Job{}).Error
}
