package job

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredAttachmentCleaner purges temporary uploads that were never confirmed
type ExpiredAttachmentCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (deleted int, failed int, err error)
}

// CleanupJob handles cleanup of expired temporary attachments
type CleanupJob struct {
	cleaner ExpiredAttachmentCleaner
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewCleanupJob creates a new CleanupJob instance
func NewCleanupJob(cleaner ExpiredAttachmentCleaner, logger *zap.Logger) *CleanupJob {
	return &CleanupJob{
		cleaner: cleaner,
		logger:  logger,
		timeout: 5 * time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Name implements Job
func (j *CleanupJob) Name() string {
	return "attachment_cleanup"
}

// Run deletes expired temporary attachments from storage and the database.
// Attachments whose object could not be removed stay and are retried next run.
func (j *CleanupJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	deleted, failed, err := j.cleaner.CleanupExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("Attachment cleanup failed",
			zap.Int("deleted", deleted),
			zap.Int("failed", failed),
			zap.Error(err),
		)
		return
	}

	if deleted == 0 && failed == 0 {
		j.logger.Debug("No expired temporary attachments found")
		return
	}

	j.logger.Info("Attachment cleanup completed",
		zap.Int("deleted", deleted),
		zap.Int("failed", failed),
	)
}
