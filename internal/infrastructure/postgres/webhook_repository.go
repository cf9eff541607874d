package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// WebhookSubscriptionRepository implements domain.WebhookSubscriptionRepository using Postgres.
type WebhookSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookSubscriptionRepository creates a new WebhookSubscriptionRepository.
func NewWebhookSubscriptionRepository(pool *pgxpool.Pool) *WebhookSubscriptionRepository {
	return &WebhookSubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, user_id, target_url, secret, is_active, created_at, updated_at`

// Save persists a webhook subscription (insert or update).
// a second subscription to the same url is ErrAlreadyExists.
func (r *WebhookSubscriptionRepository) Save(ctx context.Context, sub *domain.WebhookSubscription) error {
	const query = `
		INSERT INTO creatorpulse.webhook_subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			secret = EXCLUDED.secret,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := GetQuerier(ctx, r.pool).Exec(ctx, query,
		sub.ID().UUID(),
		sub.UserID().UUID(),
		sub.TargetURL(),
		sub.Secret(),
		sub.IsActive(),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("saving webhook subscription: %w", err)
	}
	return nil
}

// FindActiveByUser retrieves the active subscriptions of a user.
func (r *WebhookSubscriptionRepository) FindActiveByUser(ctx context.Context, userID domain.UserID) ([]*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM creatorpulse.webhook_subscriptions
		WHERE user_id = $1 AND is_active = true
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying active subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// FindByUser retrieves all subscriptions for a user.
func (r *WebhookSubscriptionRepository) FindByUser(ctx context.Context, userID domain.UserID) ([]*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM creatorpulse.webhook_subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, userID.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// Delete removes a subscription owned by the user.
func (r *WebhookSubscriptionRepository) Delete(ctx context.Context, userID domain.UserID, id domain.WebhookSubscriptionID) error {
	const query = `DELETE FROM creatorpulse.webhook_subscriptions WHERE id = $1 AND user_id = $2`

	result, err := GetQuerier(ctx, r.pool).Exec(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// scanSubscriptions scans multiple rows into subscription slice.
func scanSubscriptions(rows pgx.Rows) ([]*domain.WebhookSubscription, error) {
	subs := make([]*domain.WebhookSubscription, 0)

	for rows.Next() {
		var (
			id        string
			userID    string
			targetURL string
			secret    string
			isActive  bool
			createdAt time.Time
			updatedAt time.Time
		)

		if err := rows.Scan(&id, &userID, &targetURL, &secret, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}

		subID, err := domain.ParseWebhookSubscriptionID(id)
		if err != nil {
			return nil, fmt.Errorf("corrupted subscription id in database: %w", err)
		}
		owner, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}

		subs = append(subs, domain.ReconstructWebhookSubscription(
			subID, owner, targetURL, secret, isActive, createdAt, updatedAt,
		))
	}

	return subs, rows.Err()
}
