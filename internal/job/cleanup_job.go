package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-board-api/internal/client"
	"task-board-api/internal/domain"
	"task-board-api/internal/repository"
)

// LedgerRetentionDays is how long due-date firing rows are kept
const LedgerRetentionDays = 7

// CleanupResult summarizes one cleanup run
type CleanupResult struct {
	Expired      int
	Deleted      int
	Failed       int
	LedgerPruned int64
}

// CleanupJob removes expired TEMP attachments from S3 and the database and prunes
// the due-date firing ledger
type CleanupJob struct {
	attachmentRepo repository.AttachmentRepository
	firingRepo     repository.DueDateFiringRepository
	s3Client       client.S3ClientInterface
	logger         *zap.Logger
	now            func() time.Time
}

// NewCleanupJob creates a new CleanupJob instance. firingRepo may be nil.
func NewCleanupJob(
	attachmentRepo repository.AttachmentRepository,
	firingRepo repository.DueDateFiringRepository,
	s3Client client.S3ClientInterface,
	logger *zap.Logger,
) *CleanupJob {
	return &CleanupJob{
		attachmentRepo: attachmentRepo,
		firingRepo:     firingRepo,
		s3Client:       s3Client,
		logger:         logger,
		now:            time.Now,
	}
}

// Run implements cron.Job
func (j *CleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	j.RunAt(ctx, j.now())
}

// RunAt performs the cleanup as of now
func (j *CleanupJob) RunAt(ctx context.Context, now time.Time) *CleanupResult {
	result := &CleanupResult{}

	j.logger.Info("Starting cleanup job for expired temporary attachments")

	expiredAttachments, err := j.attachmentRepo.FindExpiredTempAttachments(ctx, now)
	if err != nil {
		j.logger.Error("Failed to find expired temporary attachments", zap.Error(err))
	} else {
		result.Expired = len(expiredAttachments)
		j.deleteAttachments(ctx, expiredAttachments, result)
	}

	if j.firingRepo != nil {
		cutoff := domain.DayKey(now.AddDate(0, 0, -LedgerRetentionDays))
		pruned, err := j.firingRepo.DeleteBefore(ctx, cutoff)
		if err != nil {
			j.logger.Error("Failed to prune due date firing ledger", zap.String("cutoff", cutoff), zap.Error(err))
		} else {
			result.LedgerPruned = pruned
		}
	}

	j.logger.Info("Cleanup job completed",
		zap.Int("total_expired", result.Expired),
		zap.Int("success", result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Int64("ledger_pruned", result.LedgerPruned),
	)
	return result
}

func (j *CleanupJob) deleteAttachments(ctx context.Context, attachments []*domain.TaskAttachment, result *CleanupResult) {
	if len(attachments) == 0 {
		return
	}

	// Delete files from S3 and collect IDs for batch deletion
	var deletedIDs []uuid.UUID
	for _, attachment := range attachments {
		if attachment.FileKey == "" {
			j.logger.Warn("Attachment without file key, removing row only",
				zap.String("attachment_id", attachment.ID.String()),
			)
			deletedIDs = append(deletedIDs, attachment.ID)
			continue
		}

		if err := j.s3Client.DeleteFile(ctx, attachment.FileKey); err != nil {
			j.logger.Error("Failed to delete file from S3",
				zap.String("attachment_id", attachment.ID.String()),
				zap.String("file_key", attachment.FileKey),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		deletedIDs = append(deletedIDs, attachment.ID)

		j.logger.Debug("Deleted file from S3",
			zap.String("attachment_id", attachment.ID.String()),
			zap.String("file_key", attachment.FileKey),
		)
	}

	if len(deletedIDs) == 0 {
		return
	}
	if err := j.attachmentRepo.DeleteBatch(ctx, deletedIDs); err != nil {
		j.logger.Error("Failed to delete attachments from database",
			zap.Int("count", len(deletedIDs)),
			zap.Error(err),
		)
		result.Failed += len(deletedIDs)
		return
	}
	result.Deleted = len(deletedIDs)
}
