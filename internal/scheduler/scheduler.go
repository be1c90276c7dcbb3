package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/health"
)

// Job names
const (
	JobPurgeRecoveryTokens = "purge_recovery_tokens"
	JobPurgeSessions       = "purge_sessions"
	JobExpireUnpaidOrders  = "expire_unpaid_orders"
)

const jobTimeout = 5 * time.Minute

// JobFunc runs one execution of a job and reports how many records it touched
type JobFunc func(ctx context.Context) (int64, error)

type job struct {
	name     string
	schedule string
	run      JobFunc
	entryID  cron.EntryID
}

// JobStats describes the last executions of a job
type JobStats struct {
	Name         string     `json:"name"`
	Schedule     string     `json:"schedule"`
	Runs         int64      `json:"runs"`
	Failures     int64      `json:"failures"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastAffected int64      `json:"lastAffected"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
}

// Scheduler runs the maintenance jobs on cron schedules
type Scheduler struct {
	enabled bool
	logger  *logrus.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	jobs    []*job
	stats   map[string]*JobStats
	running bool
}

// New creates a scheduler; a disabled scheduler accepts jobs but never starts cron
func New(enabled bool, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		enabled: enabled,
		logger:  logger,
		stats:   make(map[string]*JobStats),
	}
}

// Register adds a job; must be called before Start
func (s *Scheduler) Register(name, schedule string, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, &job{name: name, schedule: schedule, run: fn})
	s.stats[name] = &JobStats{Name: name, Schedule: schedule}
}

// normalizeSchedule turns a 5-field expression into the 6-field form WithSeconds expects
func normalizeSchedule(schedule string) string {
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}

// Start schedules every registered job
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if !s.enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	s.cron = cron.New(cron.WithSeconds())
	for _, j := range s.jobs {
		name := j.name
		id, err := s.cron.AddFunc(normalizeSchedule(j.schedule), func() { s.runJob(name) })
		if err != nil {
			s.logger.WithError(err).WithField("job", name).Error("Failed to schedule job")
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		j.entryID = id
	}

	s.cron.Start()
	s.running = true

	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running || s.cron == nil {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow triggers an immediate execution of a job in the background
func (s *Scheduler) RunNow(name string) error {
	if s.find(name) == nil {
		return fmt.Errorf("unknown job: %s", name)
	}
	go s.runJob(name)
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetStats returns scheduler statistics
func (s *Scheduler) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobStats, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := *s.stats[j.name]
		if s.cron != nil && s.running {
			if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		jobs = append(jobs, st)
	}

	return map[string]interface{}{
		"enabled": s.enabled,
		"running": s.running,
		"jobs":    jobs,
	}
}

func (s *Scheduler) find(name string) *job {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.name == name {
			return j
		}
	}
	return nil
}

func (s *Scheduler) runJob(name string) {
	j := s.find(name)
	if j == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	affected, err := j.run(ctx)
	duration := time.Since(start)

	s.mu.Lock()
	st := s.stats[name]
	st.Runs++
	st.LastRun = &start
	st.LastDuration = duration.String()
	st.LastAffected = affected
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	health.RecordJobRun(name, err == nil)

	fields := logrus.Fields{
		"job":      name,
		"affected": affected,
		"duration": duration.String(),
	}
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Scheduled job failed")
		return
	}
	if affected > 0 {
		s.logger.WithFields(fields).Info("Scheduled job completed")
	} else {
		s.logger.WithFields(fields).Debug("Scheduled job completed")
	}
}
