package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
)

// Manager owns the scheduled maintenance jobs. Every run writes its
// outcome to cron_job_logs.
type Manager struct {
	cron *cron.Cron
	db   *gorm.DB
	jobs *Jobs
}

func NewManager(db *gorm.DB, jobs *Jobs) *Manager {
	return &Manager{
		cron: cron.New(cron.WithSeconds()),
		db:   db,
		jobs: jobs,
	}
}

// Start registers all jobs and starts the scheduler.
func (m *Manager) Start() error {
	// hourly, on the hour
	if _, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.run("purge_expired_blacklist", m.jobs.PurgeExpiredBlacklist)
	}); err != nil {
		return fmt.Errorf("failed to schedule blacklist purge: %w", err)
	}

	// daily at 02:00
	if _, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.run("cleanup_old_notifications", m.jobs.CleanupOldNotifications)
	}); err != nil {
		return fmt.Errorf("failed to schedule notification cleanup: %w", err)
	}

	// daily at 06:00
	if _, err := m.cron.AddFunc("0 0 6 * * *", func() {
		m.run("attendance_snapshot", m.jobs.AttendanceSnapshot)
	}); err != nil {
		return fmt.Errorf("failed to schedule attendance snapshot: %w", err)
	}

	m.cron.Start()
	log.Println("Cron manager started with 3 jobs")
	return nil
}

// Stop waits for running jobs to finish.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron manager stopped")
}

// run executes one job and records its lifecycle in cron_job_logs.
func (m *Manager) run(name string, job func() (string, error)) {
	entry := &model.CronJobLog{
		JobName:   name,
		Status:    "running",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Printf("cron: failed to log start of %s: %v", name, err)
	}

	message, err := job()
	now := time.Now()
	entry.CompletedAt = &now

	if err != nil {
		entry.Status = "failed"
		entry.ErrorMsg = err.Error()
		log.Printf("cron: job %s failed: %v", name, err)
	} else {
		entry.Status = "completed"
		entry.Message = message
	}

	if entry.ID != 0 {
		if err := m.db.Save(entry).Error; err != nil {
			log.Printf("cron: failed to log completion of %s: %v", name, err)
		}
	}
}
