package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// StyleSampleRepository implements domain.StyleSampleRepository using
// Postgres with the pgvector extension.
// vectors travel as their text form ('[0.1,0.2]') cast to vector, so no
// extra codec has to be registered on the pool.
type StyleSampleRepository struct {
	pool *pgxpool.Pool
}

// NewStyleSampleRepository creates a new StyleSampleRepository.
func NewStyleSampleRepository(pool *pgxpool.Pool) *StyleSampleRepository {
	return &StyleSampleRepository{pool: pool}
}

const styleSampleColumns = `id, user_id, content, embedding::text, created_at`

// SaveAll persists samples in one transaction.
func (r *StyleSampleRepository) SaveAll(ctx context.Context, samples []*domain.StyleSample) error {
	if len(samples) == 0 {
		return nil
	}

	const query = `
		INSERT INTO creatorpulse.style_samples (id, user_id, content, embedding, created_at)
		VALUES ($1, $2, $3, $4::vector, $5)
	`

	return inTx(ctx, r.pool, func(q Querier) error {
		for _, s := range samples {
			if len(s.Embedding()) == 0 {
				return fmt.Errorf("%w: style sample %s has no embedding", domain.ErrInvalidInput, s.ID().String())
			}
			_, err := q.Exec(ctx, query,
				s.ID().UUID(),
				s.UserID().UUID(),
				s.Content(),
				formatVector(s.Embedding()),
				s.CreatedAt(),
			)
			if err != nil {
				return fmt.Errorf("saving style sample: %w", err)
			}
		}
		return nil
	})
}

// ListByUser returns samples newest first.
func (r *StyleSampleRepository) ListByUser(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.StyleSample, error) {
	const query = `
		SELECT ` + styleSampleColumns + `
		FROM creatorpulse.style_samples
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying style samples: %w", err)
	}
	defer rows.Close()

	return scanStyleSamples(rows)
}

// CountByUser returns how many samples a user has.
func (r *StyleSampleRepository) CountByUser(ctx context.Context, userID domain.UserID) (int, error) {
	const query = `SELECT COUNT(*) FROM creatorpulse.style_samples WHERE user_id = $1`

	var count int
	if err := GetQuerier(ctx, r.pool).QueryRow(ctx, query, userID.UUID()).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting style samples: %w", err)
	}
	return count, nil
}

// FindSimilar returns the samples closest to the embedding by cosine distance.
func (r *StyleSampleRepository) FindSimilar(ctx context.Context, userID domain.UserID, embedding []float32, limit int) ([]*domain.StyleSample, error) {
	if len(embedding) == 0 || limit <= 0 {
		return []*domain.StyleSample{}, nil
	}

	// <=> is the pgvector cosine distance operator
	const query = `
		SELECT ` + styleSampleColumns + `
		FROM creatorpulse.style_samples
		WHERE user_id = $1
		ORDER BY embedding <=> $2::vector
		LIMIT $3
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), formatVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("querying similar style samples: %w", err)
	}
	defer rows.Close()

	return scanStyleSamples(rows)
}

// Delete removes a sample of the user.
func (r *StyleSampleRepository) Delete(ctx context.Context, userID domain.UserID, id domain.StyleSampleID) error {
	const query = `DELETE FROM creatorpulse.style_samples WHERE id = $1 AND user_id = $2`

	result, err := GetQuerier(ctx, r.pool).Exec(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return fmt.Errorf("deleting style sample: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanStyleSamples(rows pgx.Rows) ([]*domain.StyleSample, error) {
	samples := make([]*domain.StyleSample, 0)

	for rows.Next() {
		var (
			id        string
			userID    string
			content   string
			rawVector string
			createdAt time.Time
		)

		if err := rows.Scan(&id, &userID, &content, &rawVector, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning style sample: %w", err)
		}

		sampleID, err := domain.ParseStyleSampleID(id)
		if err != nil {
			return nil, fmt.Errorf("corrupted style sample id in database: %w", err)
		}
		owner, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}
		embedding, err := parseVector(rawVector)
		if err != nil {
			return nil, fmt.Errorf("corrupted embedding in database: %w", err)
		}

		samples = append(samples, domain.ReconstructStyleSample(sampleID, owner, content, embedding, createdAt))
	}

	return samples, rows.Err()
}

// formatVector renders a vector in pgvector text form.
func formatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector reads the pgvector text form.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", s)
	}

	body := s[1 : len(s)-1]
	if body == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
