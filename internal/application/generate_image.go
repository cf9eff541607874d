package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const maxImagePromptLength = 1000

// ErrImagesUnavailable is returned when no image generator is configured.
var ErrImagesUnavailable = errors.New("image generation not configured")

// ImageGenerator creates an image for a prompt and returns its url.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// GenerateImageUseCase produces images for prompts and drafts.
type GenerateImageUseCase struct {
	draftRepo domain.DraftRepository
	images    ImageGenerator
	logger    *logging.Logger
}

// NewGenerateImageUseCase creates a new GenerateImageUseCase.
// images may be nil when the integration is disabled.
func NewGenerateImageUseCase(draftRepo domain.DraftRepository, images ImageGenerator, logger *logging.Logger) *GenerateImageUseCase {
	return &GenerateImageUseCase{
		draftRepo: draftRepo,
		images:    images,
		logger:    logger.WithComponent("generate_image"),
	}
}

// ForPrompt generates an image for a free-form prompt.
func (uc *GenerateImageUseCase) ForPrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", domain.ErrInvalidInput)
	}
	if len([]rune(prompt)) > maxImagePromptLength {
		return "", fmt.Errorf("%w: prompt exceeds %d characters", domain.ErrInvalidInput, maxImagePromptLength)
	}
	if uc.images == nil {
		return "", ErrImagesUnavailable
	}

	url, err := uc.images.GenerateImage(ctx, prompt)
	if err != nil {
		uc.logger.Error("image generation failed",
			"error", err.Error(),
		)
		return "", fmt.Errorf("generating image: %w", err)
	}
	return url, nil
}

// ForDraft builds a prompt from the draft, generates the image and
// stores its url on the draft.
func (uc *GenerateImageUseCase) ForDraft(ctx context.Context, rawUserID, rawDraftID string) (*DraftOutput, error) {
	userID, draftID, err := parseOwnerAndDraft(rawUserID, rawDraftID)
	if err != nil {
		return nil, err
	}

	draft, err := uc.draftRepo.FindByID(ctx, userID, draftID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}

	url, err := uc.ForPrompt(ctx, DraftImagePrompt(draft))
	if err != nil {
		return nil, err
	}

	if err := draft.AttachImage(url); err != nil {
		return nil, err
	}
	if err := uc.draftRepo.SaveAll(ctx, []*domain.Draft{draft}); err != nil {
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	uc.logger.Info("draft image generated",
		"user_id", userID.String(),
		"draft_id", draftID.String(),
	)

	out := toDraftOutput(draft)
	return &out, nil
}

// DraftImagePrompt describes a social image matching the draft.
func DraftImagePrompt(d *domain.Draft) string {
	content := d.Content()
	if r := []rune(content); len(r) > 400 {
		content = string(r[:400])
	}
	return fmt.Sprintf(
		"A clean, eye-catching %s post illustration about %q. No text in the image. Context: %s",
		d.Platform(), d.Topic(), content,
	)
}
