package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ProfileOutput is the application view of a creator profile.
type ProfileOutput struct {
	UserID          string
	DisplayName     string
	Niche           string
	Tone            string
	TargetPlatforms []string
	UpdatedAt       time.Time
}

func toProfileOutput(p *domain.CreatorProfile) ProfileOutput {
	platforms := make([]string, 0, len(p.TargetPlatforms()))
	for _, pl := range p.TargetPlatforms() {
		platforms = append(platforms, pl.String())
	}
	return ProfileOutput{
		UserID:          p.UserID().String(),
		DisplayName:     p.DisplayName(),
		Niche:           p.Niche(),
		Tone:            p.Tone(),
		TargetPlatforms: platforms,
		UpdatedAt:       p.UpdatedAt(),
	}
}

// UpdateProfileInput contains the editable profile fields.
type UpdateProfileInput struct {
	UserID          string
	DisplayName     string
	Niche           string
	Tone            string
	TargetPlatforms []string
}

// ProfileUseCase reads and updates creator preferences.
type ProfileUseCase struct {
	profileRepo domain.ProfileRepository
	logger      *logging.Logger
}

// NewProfileUseCase creates a new ProfileUseCase.
func NewProfileUseCase(profileRepo domain.ProfileRepository, logger *logging.Logger) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		logger:      logger.WithComponent("profile"),
	}
}

// Get returns the profile, or defaults when the user never saved one.
func (uc *ProfileUseCase) Get(ctx context.Context, rawUserID string) (*ProfileOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	profile, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := toProfileOutput(profile)
	return &out, nil
}

// Update replaces the profile fields, creating the profile if needed.
func (uc *ProfileUseCase) Update(ctx context.Context, input UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	platforms := make([]domain.Platform, 0, len(input.TargetPlatforms))
	for _, raw := range input.TargetPlatforms {
		p, err := domain.ParsePlatform(raw)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}

	profile, err := uc.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := profile.Update(input.DisplayName, input.Niche, input.Tone, platforms); err != nil {
		return nil, err
	}

	if err := uc.profileRepo.Save(ctx, profile); err != nil {
		uc.logger.Error("profile save failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	uc.logger.Info("profile updated",
		"user_id", userID.String(),
	)

	out := toProfileOutput(profile)
	return &out, nil
}

func (uc *ProfileUseCase) load(ctx context.Context, userID domain.UserID) (*domain.CreatorProfile, error) {
	profile, err := uc.profileRepo.FindByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewCreatorProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return profile, nil
}
