// Package cache implements the Catalog Cache (C1): a file-backed
// relational store shared by every scheduler invocation.
package cache

import "time"

// Status is a Job's lifecycle status (§3).
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Job is the `jobs` table row (§4.1). Resource requirements are not
// persisted separately — they are re-derived from OrigJobscript by
// pkg/jobscript whenever a relaunch needs them, exactly as the source
// re-parses the job script rather than caching parsed fields.
type Job struct {
	JobID         string     `gorm:"column:jobid;primaryKey"`
	JobName       string     `gorm:"column:jobname"`
	Status        Status     `gorm:"column:status"`
	InstanceID    string     `gorm:"column:instance_id"`
	OrigJobscript string     `gorm:"column:orig_jobscript"`
	StartTime     *time.Time `gorm:"column:start_time"`
	EndTime       *time.Time `gorm:"column:end_time"`
}

func (Job) TableName() string { return "jobs" }

// InstanceShape is the `instance_types` table row (§4.1/§4.2).
type InstanceShape struct {
	Shape     string `gorm:"column:shape;primaryKey"`
	CPUs      int    `gorm:"column:cpus"`
	MemMB     int    `gorm:"column:mem_mb"`
	StorageGB int    `gorm:"column:storage_gb"`
}

func (InstanceShape) TableName() string { return "instance_types" }

// ITFeature is one (shape,key)->value row of the `it_features` table.
type ITFeature struct {
	Shape string  `gorm:"column:shape;primaryKey"`
	Key   string  `gorm:"column:key;primaryKey"`
	Value float64 `gorm:"column:value"`
}

func (ITFeature) TableName() string { return "it_features" }

// SpotQuote is a `spot_prices` table row, keyed by (shape, az).
type SpotQuote struct {
	Shape   string  `gorm:"column:shape;primaryKey"`
	AZ      string  `gorm:"column:az;primaryKey"`
	Price   float64 `gorm:"column:price"`
	Backoff int     `gorm:"column:backoff"`
}

func (SpotQuote) TableName() string { return "spot_prices" }

// TimedLock is a `timed_locks` table row: a named cooperative lock
// with the instant it was last (re)acquired.
type TimedLock struct {
	Key     string    `gorm:"column:key;primaryKey"`
	Instant time.Time `gorm:"column:instant"`
}

func (TimedLock) TableName() string { return "timed_locks" }
