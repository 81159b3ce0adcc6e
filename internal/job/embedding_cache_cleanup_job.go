package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/repo"
)

// EmbeddingCacheCleanupJob purges persisted embeddings older than the
// configured age. Refresh runs rewrite the entries they still need, so
// anything old enough to hit the cutoff belongs to schema objects that
// no longer exist.
type EmbeddingCacheCleanupJob struct {
	repo       *repo.EmbeddingCacheRepo
	maxAgeDays int
}

func NewEmbeddingCacheCleanupJob(repo *repo.EmbeddingCacheRepo, maxAgeDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	maxAgeDays := j.maxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	purged, err := j.repo.DeleteBefore(ctx, cutoff.Unix())
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("embedding cache cleanup finished",
		zap.Int64("purged", purged),
		zap.Time("cutoff", cutoff),
	)
	return nil
}
