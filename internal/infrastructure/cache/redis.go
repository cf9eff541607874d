package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const (
	// leaderboardPrefix prefixes the per-user sorted set of trend scores.
	leaderboardPrefix = "creatorpulse:trends:"

	// leaderboardTTL expires rankings of users that stopped detecting.
	leaderboardTTL = 24 * time.Hour

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second
)

var (
	ErrRedisNotConnected = errors.New("redis not connected")
	ErrRedisEmpty        = errors.New("redis leaderboard is empty")
)

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with creatorpulse-specific operations.
// holds one trend leaderboard per user.
type RedisClient struct {
	client *redis.Client
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 50
	opts.MinIdleConns = 5

	return newRedisClient(redis.NewClient(opts), logger), nil
}

func newRedisClient(client *redis.Client, logger *logging.Logger) *RedisClient {
	return &RedisClient{
		client: client,
		logger: logger.WithComponent("redis"),
	}
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Info("redis connected")
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Client returns the underlying redis client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// LeaderboardKey returns the sorted set key of a user.
func LeaderboardKey(userID domain.UserID) string {
	return leaderboardPrefix + userID.String()
}

// UpdateTrendScores replaces the user's leaderboard with the scores of the
// latest detection pass. topics from older passes are dropped.
func (r *RedisClient) UpdateTrendScores(ctx context.Context, userID domain.UserID, analyses []domain.TrendAnalysis) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	key := LeaderboardKey(userID)
	members := make([]redis.Z, 0, len(analyses))
	for _, a := range analyses {
		members = append(members, redis.Z{
			Score:  a.MomentumScore.Value(),
			Member: a.Topic,
		})
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, key, members...)
			pipe.Expire(ctx, key, leaderboardTTL)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to update leaderboard",
			"user_id", userID.String(),
			"topics", len(members),
			"error", err.Error(),
		)
		return fmt.Errorf("updating leaderboard: %w", err)
	}

	r.logger.Debug("leaderboard updated",
		"user_id", userID.String(),
		"topics", len(members),
	)
	return nil
}

// GetTopTopics returns the user's top topics ordered by momentum (descending).
// returns topics only, details come from postgres.
func (r *RedisClient) GetTopTopics(ctx context.Context, userID domain.UserID, limit int64) ([]string, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	// ZREVRANGE returns members ordered by score (high to low)
	topics, err := r.client.ZRevRange(ctx, LeaderboardKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	if len(topics) == 0 {
		return nil, ErrRedisEmpty
	}

	return topics, nil
}

// GetTopTopicsWithScores returns the top topics with their momentum.
// used by the score command to print the ranking.
func (r *RedisClient) GetTopTopicsWithScores(ctx context.Context, userID domain.UserID, limit int64) ([]redis.Z, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	results, err := r.client.ZRevRangeWithScores(ctx, LeaderboardKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrangewithscores failed: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrRedisEmpty
	}

	return results, nil
}

// HealthCheck verifies Redis is responding.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	return r.client.Ping(ctx).Err()
}
