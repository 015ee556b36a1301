package jobs

import (
	"context"
	"fmt"
	"time"

	"dormitory/services"
	"dormitory/services/logger"

	"github.com/robfig/cron/v3"
)

// archiveTimeout bounds one run of the archive job.
const archiveTimeout = 10 * time.Minute

// Archiver archives the bookings of the academic year before the current one.
type Archiver interface {
	ArchivePreviousYear(ctx context.Context, actor services.Actor) (*services.ArchiveResult, error)
}

// InitCronJobs registers the scheduled jobs and starts the scheduler. An
// empty archiveSchedule leaves the archive job off.
func InitCronJobs(c *cron.Cron, archiver Archiver, archiveSchedule string, log logger.Logger) error {
	if archiveSchedule != "" {
		if _, err := c.AddFunc(archiveSchedule, ArchiveJob(archiver, log)); err != nil {
			return fmt.Errorf("schedule archive job %q: %w", archiveSchedule, err)
		}
		log.Info("Archive job scheduled at %q", archiveSchedule)
	}

	c.Start()
	log.Info("Cron jobs initialized successfully")
	return nil
}

// ArchiveJob returns the function the scheduler runs for the yearly archive.
func ArchiveJob(archiver Archiver, log logger.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		log.Info("Running archive job at %v", time.Now())
		result, err := archiver.ArchivePreviousYear(ctx, services.SystemActor)
		if err != nil {
			log.Error("Archive job failed: %v", err)
			return
		}
		log.Info("Archive job finished: %d booking(s) of %s archived, %d bed(s) released",
			result.Archived, result.AcademicYear, result.Released)
	}
}
