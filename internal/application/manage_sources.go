package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// SourceOutput is the application view of a source.
type SourceOutput struct {
	ID          string
	Type        string
	Handle      string
	DisplayName string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func toSourceOutput(s *domain.Source) SourceOutput {
	return SourceOutput{
		ID:          s.ID().String(),
		Type:        s.Type().String(),
		Handle:      s.Handle(),
		DisplayName: s.DisplayName(),
		IsActive:    s.IsActive(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
}

// CreateSourceInput contains the data needed to register a source.
type CreateSourceInput struct {
	// UserID comes from the validated token, never from the body
	UserID      string
	Type        string
	Handle      string
	DisplayName string
}

// SourceCache holds fetched items per source between detection passes.
type SourceCache interface {
	Invalidate(sourceID domain.SourceID)
}

// ManageSourcesUseCase handles CRUD over a user's sources.
type ManageSourcesUseCase struct {
	sourceRepo domain.SourceRepository
	cache      SourceCache
	logger     *logging.Logger
}

// NewManageSourcesUseCase creates a new ManageSourcesUseCase.
func NewManageSourcesUseCase(sourceRepo domain.SourceRepository, logger *logging.Logger) *ManageSourcesUseCase {
	return &ManageSourcesUseCase{
		sourceRepo: sourceRepo,
		logger:     logger.WithComponent("manage_sources"),
	}
}

// WithCache sets the fetch cache to invalidate when a source is removed or toggled.
func (uc *ManageSourcesUseCase) WithCache(c SourceCache) *ManageSourcesUseCase {
	uc.cache = c
	return uc
}

func (uc *ManageSourcesUseCase) invalidate(sourceID domain.SourceID) {
	if uc.cache != nil {
		uc.cache.Invalidate(sourceID)
	}
}

// Create registers a new source for the user.
// returns domain.ErrAlreadyExists when the same type+handle is already registered.
func (uc *ManageSourcesUseCase) Create(ctx context.Context, input CreateSourceInput) (*SourceOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	sourceType, err := domain.ParseSourceType(input.Type)
	if err != nil {
		uc.logger.Info("create source rejected: invalid type",
			"user_id", userID.String(),
			"type", input.Type,
		)
		return nil, err
	}

	source, err := domain.NewSource(userID, sourceType, input.Handle, input.DisplayName)
	if err != nil {
		uc.logger.Info("create source rejected: invalid handle",
			"user_id", userID.String(),
			"type", sourceType.String(),
			"reason", err.Error(),
		)
		return nil, err
	}

	if err := uc.sourceRepo.Save(ctx, source); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			uc.logger.Info("create source rejected: duplicate",
				"user_id", userID.String(),
				"type", sourceType.String(),
				"handle", source.Handle(),
			)
			return nil, err
		}
		uc.logger.Error("create source failed: save error",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving source: %w", err)
	}

	uc.logger.Info("source created",
		"user_id", userID.String(),
		"source_id", source.ID().String(),
		"type", sourceType.String(),
		"outcome", "created",
	)

	out := toSourceOutput(source)
	return &out, nil
}

// List returns every source of the user, newest first.
func (uc *ManageSourcesUseCase) List(ctx context.Context, rawUserID string) ([]SourceOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	sources, err := uc.sourceRepo.ListByUser(ctx, userID)
	if err != nil {
		uc.logger.Error("list sources failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	out := make([]SourceOutput, 0, len(sources))
	for _, s := range sources {
		out = append(out, toSourceOutput(s))
	}
	return out, nil
}

// Delete removes a source owned by the user.
// a source owned by someone else is reported as not found.
func (uc *ManageSourcesUseCase) Delete(ctx context.Context, rawUserID, rawSourceID string) error {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	sourceID, err := domain.ParseSourceID(rawSourceID)
	if err != nil {
		return err
	}

	if err := uc.sourceRepo.Delete(ctx, userID, sourceID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		uc.logger.Error("delete source failed",
			"user_id", userID.String(),
			"source_id", sourceID.String(),
			"error", err.Error(),
		)
		return fmt.Errorf("deleting source: %w", err)
	}
	uc.invalidate(sourceID)

	uc.logger.Info("source deleted",
		"user_id", userID.String(),
		"source_id", sourceID.String(),
	)
	return nil
}

// SetActive toggles whether a source takes part in trend detection.
func (uc *ManageSourcesUseCase) SetActive(ctx context.Context, rawUserID, rawSourceID string, active bool) (*SourceOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	sourceID, err := domain.ParseSourceID(rawSourceID)
	if err != nil {
		return nil, err
	}

	source, err := uc.sourceRepo.FindByID(ctx, userID, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading source: %w", err)
	}

	source.SetActive(active)
	if err := uc.sourceRepo.Save(ctx, source); err != nil {
		uc.logger.Error("toggle source failed",
			"user_id", userID.String(),
			"source_id", sourceID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving source: %w", err)
	}
	uc.invalidate(sourceID)

	uc.logger.Info("source toggled",
		"user_id", userID.String(),
		"source_id", sourceID.String(),
		"active", active,
	)

	out := toSourceOutput(source)
	return &out, nil
}
