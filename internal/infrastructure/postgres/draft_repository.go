package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// DraftRepository implements domain.DraftRepository using Postgres.
type DraftRepository struct {
	pool *pgxpool.Pool
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(pool *pgxpool.Pool) *DraftRepository {
	return &DraftRepository{pool: pool}
}

const draftColumns = `id, user_id, platform, topic, content, hashtags, image_url, status, created_at, updated_at`

// SaveAll persists drafts (insert or update).
// joins the context transaction when there is one.
func (r *DraftRepository) SaveAll(ctx context.Context, drafts []*domain.Draft) error {
	if len(drafts) == 0 {
		return nil
	}

	const query = `
		INSERT INTO creatorpulse.drafts (` + draftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			hashtags = EXCLUDED.hashtags,
			image_url = EXCLUDED.image_url,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	return inTx(ctx, r.pool, func(q Querier) error {
		for _, d := range drafts {
			_, err := q.Exec(ctx, query,
				d.ID().UUID(),
				d.UserID().UUID(),
				d.Platform().String(),
				d.Topic(),
				d.Content(),
				d.Hashtags(),
				d.ImageURL(),
				string(d.Status()),
				d.CreatedAt(),
				d.UpdatedAt(),
			)
			if err != nil {
				return fmt.Errorf("saving draft %s: %w", d.ID().String(), err)
			}
		}
		return nil
	})
}

// FindByID retrieves a draft of the user.
func (r *DraftRepository) FindByID(ctx context.Context, userID domain.UserID, id domain.DraftID) (*domain.Draft, error) {
	const query = `
		SELECT ` + draftColumns + `
		FROM creatorpulse.drafts
		WHERE id = $1 AND user_id = $2
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying draft: %w", err)
	}
	defer rows.Close()

	drafts, err := scanDrafts(rows)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, domain.ErrNotFound
	}
	return drafts[0], nil
}

// ListByUser returns drafts newest first, optionally filtered by status.
// an empty status lists every draft.
func (r *DraftRepository) ListByUser(ctx context.Context, userID domain.UserID, status domain.DraftStatus, limit, offset int) ([]*domain.Draft, error) {
	const query = `
		SELECT ` + draftColumns + `
		FROM creatorpulse.drafts
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID(), string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	return scanDrafts(rows)
}

// Delete removes a draft of the user.
func (r *DraftRepository) Delete(ctx context.Context, userID domain.UserID, id domain.DraftID) error {
	const query = `DELETE FROM creatorpulse.drafts WHERE id = $1 AND user_id = $2`

	result, err := GetQuerier(ctx, r.pool).Exec(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDrafts(rows pgx.Rows) ([]*domain.Draft, error) {
	drafts := make([]*domain.Draft, 0)

	for rows.Next() {
		var (
			id        string
			userID    string
			platform  string
			topic     string
			content   string
			hashtags  []string
			imageURL  string
			status    string
			createdAt time.Time
			updatedAt time.Time
		)

		err := rows.Scan(&id, &userID, &platform, &topic, &content, &hashtags, &imageURL, &status, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}

		draftID, err := domain.ParseDraftID(id)
		if err != nil {
			return nil, fmt.Errorf("corrupted draft id in database: %w", err)
		}
		owner, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}
		parsedPlatform, err := domain.ParsePlatform(platform)
		if err != nil {
			return nil, fmt.Errorf("corrupted platform in database: %w", err)
		}
		parsedStatus, err := domain.ParseDraftStatus(status)
		if err != nil {
			return nil, fmt.Errorf("corrupted draft status in database: %w", err)
		}

		drafts = append(drafts, domain.ReconstructDraft(
			draftID, owner, parsedPlatform, topic, content, hashtags,
			imageURL, parsedStatus, createdAt, updatedAt,
		))
	}

	return drafts, rows.Err()
}
