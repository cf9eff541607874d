package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// TrendRepository implements domain.TrendRepository using Postgres.
// every detection pass appends rows, the latest row per topic is current.
type TrendRepository struct {
	pool *pgxpool.Pool
}

// NewTrendRepository creates a new TrendRepository.
func NewTrendRepository(pool *pgxpool.Pool) *TrendRepository {
	return &TrendRepository{pool: pool}
}

var trendCopyColumns = []string{
	"user_id", "topic", "summary", "momentum_score", "engagement_rate", "velocity_score",
	"reach_multiplier", "mentions_count", "sentiment", "trending_duration", "source_ids",
	"model_version", "detected_at",
}

const trendColumns = `user_id, topic, summary, momentum_score, engagement_rate, velocity_score,
	reach_multiplier, mentions_count, sentiment, trending_duration, source_ids::text[],
	model_version, detected_at`

// passTime matches the microsecond precision postgres stores, so the
// timestamps of a pass written by COPY and by MarkPass compare equal.
func passTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// SaveAll persists a batch of records with COPY.
func (r *TrendRepository) SaveAll(ctx context.Context, records []domain.TrendRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		a := rec.Analysis
		sourceIDs := make([]string, 0, len(a.SourceIDs))
		for _, id := range a.SourceIDs {
			sourceIDs = append(sourceIDs, id.String())
		}

		rows[i] = []any{
			rec.UserID.UUID(),
			a.Topic,
			a.Summary,
			a.MomentumScore.Value(),
			a.Metrics.EngagementRate.Value(),
			a.Metrics.VelocityScore.Value(),
			a.Metrics.ReachMultiplier.Value(),
			a.Metrics.MentionsCount,
			a.Metrics.Sentiment.Value(),
			a.Metrics.TrendingDuration,
			sourceIDs,
			a.ModelVersion,
			passTime(rec.DetectedAt),
		}
	}

	_, err := GetQuerier(ctx, r.pool).CopyFrom(
		ctx,
		pgx.Identifier{"creatorpulse", "trends"},
		trendCopyColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("batch inserting trends: %w", err)
	}
	return nil
}

// MarkPass upserts the user's current detection pass.
func (r *TrendRepository) MarkPass(ctx context.Context, userID domain.UserID, detectedAt time.Time) error {
	const query = `
		INSERT INTO creatorpulse.trend_passes (user_id, detected_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET detected_at = EXCLUDED.detected_at
	`

	if _, err := GetQuerier(ctx, r.pool).Exec(ctx, query, userID.UUID(), passTime(detectedAt)); err != nil {
		return fmt.Errorf("marking trend pass: %w", err)
	}
	return nil
}

// ListLatest returns the records of the user's current pass ordered by
// momentum descending, ties broken by topic. users without a marked pass
// get their newest detected_at.
func (r *TrendRepository) ListLatest(ctx context.Context, userID domain.UserID, limit int) ([]domain.TrendRecord, error) {
	const query = `
		SELECT ` + trendColumns + `
		FROM creatorpulse.trends
		WHERE user_id = $1 AND detected_at = COALESCE(
			(SELECT detected_at FROM creatorpulse.trend_passes WHERE user_id = $1),
			(SELECT max(detected_at) FROM creatorpulse.trends WHERE user_id = $1)
		)
		ORDER BY momentum_score DESC, topic
		LIMIT $2
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying trends: %w", err)
	}
	defer rows.Close()

	return scanTrends(rows)
}

// FindLatestByTopics returns the latest record of each topic, in the given topic order.
func (r *TrendRepository) FindLatestByTopics(ctx context.Context, userID domain.UserID, topics []string) ([]domain.TrendRecord, error) {
	if len(topics) == 0 {
		return []domain.TrendRecord{}, nil
	}

	const query = `
		SELECT DISTINCT ON (topic) ` + trendColumns + `
		FROM creatorpulse.trends
		WHERE user_id = $1 AND topic = ANY($2)
		ORDER BY topic, detected_at DESC
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), topics)
	if err != nil {
		return nil, fmt.Errorf("querying trends by topic: %w", err)
	}
	defer rows.Close()

	found, err := scanTrends(rows)
	if err != nil {
		return nil, err
	}

	// restore the caller's order, postgres returns topics alphabetically
	byTopic := make(map[string]domain.TrendRecord, len(found))
	for _, rec := range found {
		byTopic[rec.Analysis.Topic] = rec
	}

	ordered := make([]domain.TrendRecord, 0, len(found))
	for _, t := range topics {
		if rec, ok := byTopic[t]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// PreviousScores returns the latest known momentum for each topic.
func (r *TrendRepository) PreviousScores(ctx context.Context, userID domain.UserID, topics []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(topics))
	if len(topics) == 0 {
		return scores, nil
	}

	const query = `
		SELECT DISTINCT ON (topic) topic, momentum_score
		FROM creatorpulse.trends
		WHERE user_id = $1 AND topic = ANY($2)
		ORDER BY topic, detected_at DESC
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), topics)
	if err != nil {
		return nil, fmt.Errorf("querying previous scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			topic string
			score float64
		)
		if err := rows.Scan(&topic, &score); err != nil {
			return nil, fmt.Errorf("scanning previous score: %w", err)
		}
		scores[topic] = score
	}

	return scores, rows.Err()
}

func scanTrends(rows pgx.Rows) ([]domain.TrendRecord, error) {
	records := make([]domain.TrendRecord, 0)

	for rows.Next() {
		var (
			userID           string
			topic            string
			summary          string
			momentum         float64
			engagement       float64
			velocity         float64
			reach            float64
			mentions         int
			sentiment        float64
			trendingDuration int
			sourceIDs        []string
			modelVersion     string
			detectedAt       time.Time
		)

		err := rows.Scan(
			&userID, &topic, &summary, &momentum, &engagement, &velocity,
			&reach, &mentions, &sentiment, &trendingDuration, &sourceIDs,
			&modelVersion, &detectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trend: %w", err)
		}

		owner, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}

		ids := make([]domain.SourceID, 0, len(sourceIDs))
		for _, raw := range sourceIDs {
			id, err := domain.ParseSourceID(raw)
			if err != nil {
				return nil, fmt.Errorf("corrupted source id in database: %w", err)
			}
			ids = append(ids, id)
		}

		records = append(records, domain.TrendRecord{
			UserID: owner,
			Analysis: domain.TrendAnalysis{
				Topic:         topic,
				Summary:       summary,
				MomentumScore: domain.NewScore(momentum),
				Metrics: domain.TrendMetrics{
					EngagementRate:   domain.NewScore(engagement),
					VelocityScore:    domain.NewScore(velocity),
					ReachMultiplier:  domain.NewScore(reach),
					MentionsCount:    mentions,
					Sentiment:        domain.NewScore(sentiment),
					TrendingDuration: trendingDuration,
				},
				SourceIDs:    ids,
				ModelVersion: modelVersion,
			},
			DetectedAt: detectedAt,
		})
	}

	return records, rows.Err()
}
