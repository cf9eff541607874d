package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// SourceRepository implements domain.SourceRepository using Postgres.
type SourceRepository struct {
	pool *pgxpool.Pool
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

const sourceColumns = `id, user_id, source_type, handle, display_name, is_active, created_at, updated_at`

// Save persists a source (insert or update).
func (r *SourceRepository) Save(ctx context.Context, source *domain.Source) error {
	const query = `
		INSERT INTO creatorpulse.sources (` + sourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := GetQuerier(ctx, r.pool).Exec(ctx, query,
		source.ID().UUID(),
		source.UserID().UUID(),
		source.Type().String(),
		source.Handle(),
		source.DisplayName(),
		source.IsActive(),
		source.CreatedAt(),
		source.UpdatedAt(),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// FindByID retrieves a source owned by the given user.
func (r *SourceRepository) FindByID(ctx context.Context, userID domain.UserID, id domain.SourceID) (*domain.Source, error) {
	const query = `
		SELECT ` + sourceColumns + `
		FROM creatorpulse.sources
		WHERE id = $1 AND user_id = $2
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying source: %w", err)
	}
	defer rows.Close()

	sources, err := scanSources(rows)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, domain.ErrNotFound
	}
	return sources[0], nil
}

// ListByUser returns all sources of a user, newest first.
func (r *SourceRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.Source, error) {
	const query = `
		SELECT ` + sourceColumns + `
		FROM creatorpulse.sources
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, userID.UUID())
}

// ListActiveByUser returns the active sources of a user.
func (r *SourceRepository) ListActiveByUser(ctx context.Context, userID domain.UserID) ([]*domain.Source, error) {
	const query = `
		SELECT ` + sourceColumns + `
		FROM creatorpulse.sources
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at
	`

	return r.list(ctx, query, userID.UUID())
}

// ListUsersWithActiveSources returns every user owning at least one active source.
func (r *SourceRepository) ListUsersWithActiveSources(ctx context.Context, limit int) ([]domain.UserID, error) {
	const query = `
		SELECT DISTINCT user_id
		FROM creatorpulse.sources
		WHERE is_active = true
		ORDER BY user_id
		LIMIT $1
	`

	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying users with sources: %w", err)
	}
	defer rows.Close()

	var users []domain.UserID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		id, err := domain.ParseUserID(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}
		users = append(users, id)
	}

	return users, rows.Err()
}

// Delete removes a source owned by the given user.
func (r *SourceRepository) Delete(ctx context.Context, userID domain.UserID, id domain.SourceID) error {
	const query = `DELETE FROM creatorpulse.sources WHERE id = $1 AND user_id = $2`

	result, err := GetQuerier(ctx, r.pool).Exec(ctx, query, id.UUID(), userID.UUID())
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SourceRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Source, error) {
	rows, err := GetQuerier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

func scanSources(rows pgx.Rows) ([]*domain.Source, error) {
	sources := make([]*domain.Source, 0)

	for rows.Next() {
		var (
			id          string
			userID      string
			sourceType  string
			handle      string
			displayName string
			isActive    bool
			createdAt   time.Time
			updatedAt   time.Time
		)

		if err := rows.Scan(&id, &userID, &sourceType, &handle, &displayName, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}

		// database stores trusted data, a parse failure means corruption
		sourceID, err := domain.ParseSourceID(id)
		if err != nil {
			return nil, fmt.Errorf("corrupted source id in database: %w", err)
		}
		ownerID, err := domain.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("corrupted user id in database: %w", err)
		}
		parsedType, err := domain.ParseSourceType(sourceType)
		if err != nil {
			return nil, fmt.Errorf("corrupted source type in database: %w", err)
		}

		sources = append(sources, domain.ReconstructSource(
			sourceID, ownerID, parsedType, handle, displayName, isActive, createdAt, updatedAt,
		))
	}

	return sources, rows.Err()
}

// ProfileRepository implements domain.ProfileRepository using Postgres.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// FindByUser returns the profile of a user or ErrNotFound.
func (r *ProfileRepository) FindByUser(ctx context.Context, userID domain.UserID) (*domain.CreatorProfile, error) {
	const query = `
		SELECT display_name, niche, tone, target_platforms, created_at, updated_at
		FROM creatorpulse.creator_profiles
		WHERE user_id = $1
	`

	var (
		displayName string
		niche       string
		tone        string
		platforms   []string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := GetQuerier(ctx, r.pool).QueryRow(ctx, query, userID.UUID()).Scan(
		&displayName, &niche, &tone, &platforms, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}

	parsed := make([]domain.Platform, 0, len(platforms))
	for _, p := range platforms {
		platform, err := domain.ParsePlatform(p)
		if err != nil {
			return nil, fmt.Errorf("corrupted platform in database: %w", err)
		}
		parsed = append(parsed, platform)
	}

	return domain.ReconstructCreatorProfile(
		userID, displayName, niche, tone, parsed, createdAt, updatedAt,
	), nil
}

// Save persists a profile (insert or update).
func (r *ProfileRepository) Save(ctx context.Context, profile *domain.CreatorProfile) error {
	const query = `
		INSERT INTO creatorpulse.creator_profiles (user_id, display_name, niche, tone, target_platforms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			niche = EXCLUDED.niche,
			tone = EXCLUDED.tone,
			target_platforms = EXCLUDED.target_platforms,
			updated_at = EXCLUDED.updated_at
	`

	platforms := make([]string, 0, len(profile.TargetPlatforms()))
	for _, p := range profile.TargetPlatforms() {
		platforms = append(platforms, p.String())
	}

	_, err := GetQuerier(ctx, r.pool).Exec(ctx, query,
		profile.UserID().UUID(),
		profile.DisplayName(),
		profile.Niche(),
		profile.Tone(),
		platforms,
		profile.CreatedAt(),
		profile.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
