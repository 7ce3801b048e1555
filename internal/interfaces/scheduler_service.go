package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string
	Enabled   bool
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based background jobs, in particular the
// stuck-ingestion supervisor sweep.
type SchedulerService interface {
	// Start the scheduler
	Start() error

	// Stop the scheduler
	Stop() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// RegisterJob registers a new job with the scheduler
	RegisterJob(name string, schedule string, handler func() error) error

	// TriggerJobNow manually runs a registered job
	TriggerJobNow(name string) error

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)
}
