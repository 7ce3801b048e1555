package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/interfaces"
)

// jobEntry tracks a registered job and its last outcome
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService over robfig/cron. Schedules use the
// six-field form with seconds. One job runs at a time.
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	mu       sync.Mutex
	globalMu sync.Mutex
	jobs     map[string]*jobEntry
	running  bool
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Start begins executing registered jobs on their schedules
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler; running jobs finish their current execution
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RegisterJob registers a job under a unique name with a cron schedule
func (s *Service) RegisterJob(name string, schedule string, handler func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// TriggerJobNow manually runs a registered job in the background
func (s *Service) TriggerJobNow(name string) error {
	s.mu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	if entry.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.mu.Unlock()

	s.logger.Info().Str("job_name", name).Msg("Manually triggering job")
	go s.executeJob(name)
	return nil
}

// GetJobStatus returns the status of a registered job
func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	var nextRun *time.Time
	if s.running {
		for _, cronEntry := range s.cron.Entries() {
			if cronEntry.ID == entry.cronID {
				next := cronEntry.Next
				nextRun = &next
				break
			}
		}
	}

	return &interfaces.JobStatus{
		Name:      entry.name,
		Enabled:   true,
		Schedule:  entry.schedule,
		LastRun:   entry.lastRun,
		NextRun:   nextRun,
		IsRunning: entry.isRunning,
		LastError: entry.lastError,
	}, nil
}

// executeJob wraps a job run with the global mutex, panic recovery, and
// status tracking.
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.mu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.mu.Unlock()
		}
	}()

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.mu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.mu.Unlock()

	start := time.Now()
	err := handler()
	finished := time.Now()

	s.mu.Lock()
	entry.isRunning = false
	entry.lastRun = &finished
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job execution failed")
	} else {
		s.logger.Debug().
			Str("job_name", name).
			Dur("duration", time.Since(start)).
			Msg("Job execution completed")
	}
}
