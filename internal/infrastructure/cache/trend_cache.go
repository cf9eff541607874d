package cache

import (
	"context"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// topicRanker is the read side of the leaderboard.
type topicRanker interface {
	GetTopTopics(ctx context.Context, userID domain.UserID, limit int64) ([]string, error)
}

// TrendRepositoryWithCache wraps a TrendRepository and adds Redis caching.
// uses redis for the hot path (ListLatest) and falls back to postgres on errors.
type TrendRepositoryWithCache struct {
	repo   domain.TrendRepository
	ranker topicRanker
	logger *logging.Logger
}

// NewTrendRepositoryWithCache creates a cached trend repository.
// if redis is nil, all calls go directly to the underlying repository.
func NewTrendRepositoryWithCache(
	repo domain.TrendRepository,
	redis *RedisClient,
	logger *logging.Logger,
) *TrendRepositoryWithCache {
	r := &TrendRepositoryWithCache{
		repo:   repo,
		logger: logger.WithComponent("trend_cache"),
	}
	if redis != nil {
		r.ranker = redis
	}
	return r
}

// SaveAll delegates directly to the underlying repository.
// redis sync is handled by the use case, not here.
func (r *TrendRepositoryWithCache) SaveAll(ctx context.Context, records []domain.TrendRecord) error {
	return r.repo.SaveAll(ctx, records)
}

// MarkPass delegates directly to the underlying repository.
func (r *TrendRepositoryWithCache) MarkPass(ctx context.Context, userID domain.UserID, detectedAt time.Time) error {
	return r.repo.MarkPass(ctx, userID, detectedAt)
}

// FindLatestByTopics delegates directly to the underlying repository.
func (r *TrendRepositoryWithCache) FindLatestByTopics(ctx context.Context, userID domain.UserID, topics []string) ([]domain.TrendRecord, error) {
	return r.repo.FindLatestByTopics(ctx, userID, topics)
}

// PreviousScores delegates directly to the underlying repository.
// spike detection needs the persisted value, never the cached one.
func (r *TrendRepositoryWithCache) PreviousScores(ctx context.Context, userID domain.UserID, topics []string) (map[string]float64, error) {
	return r.repo.PreviousScores(ctx, userID, topics)
}

// ListLatest returns the user's latest trends ordered by momentum.
// tries the redis ranking first, falls back to postgres on error.
func (r *TrendRepositoryWithCache) ListLatest(ctx context.Context, userID domain.UserID, limit int) ([]domain.TrendRecord, error) {
	if r.ranker == nil {
		return r.repo.ListLatest(ctx, userID, limit)
	}

	topics, err := r.ranker.GetTopTopics(ctx, userID, int64(limit))
	if err != nil {
		r.logger.Debug("leaderboard cache miss, falling back to postgres",
			"user_id", userID.String(),
			"limit", limit,
			"reason", err.Error(),
		)
		return r.repo.ListLatest(ctx, userID, limit)
	}

	// FindLatestByTopics preserves the order from redis (momentum descending)
	records, err := r.repo.FindLatestByTopics(ctx, userID, topics)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		// ranking points at topics postgres no longer has
		r.logger.Warn("stale leaderboard cache, falling back to postgres",
			"user_id", userID.String(),
		)
		return r.repo.ListLatest(ctx, userID, limit)
	}

	r.logger.Debug("leaderboard cache hit",
		"user_id", userID.String(),
		"limit", limit,
		"cached_count", len(records),
	)
	return records, nil
}
