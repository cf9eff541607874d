package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// ListDraftsInput filters and pages a user's drafts.
type ListDraftsInput struct {
	UserID string
	// Status is optional: "generated" or "saved"
	Status string
	Limit  int
	Offset int
}

// ManageDraftsUseCase handles review operations over drafts.
// every operation is owner scoped.
type ManageDraftsUseCase struct {
	draftRepo domain.DraftRepository
	logger    *logging.Logger
}

// NewManageDraftsUseCase creates a new ManageDraftsUseCase.
func NewManageDraftsUseCase(draftRepo domain.DraftRepository, logger *logging.Logger) *ManageDraftsUseCase {
	return &ManageDraftsUseCase{
		draftRepo: draftRepo,
		logger:    logger.WithComponent("manage_drafts"),
	}
}

func parseOwnerAndDraft(rawUserID, rawDraftID string) (domain.UserID, domain.DraftID, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return domain.UserID{}, domain.DraftID{}, err
	}
	draftID, err := domain.ParseDraftID(rawDraftID)
	if err != nil {
		return domain.UserID{}, domain.DraftID{}, err
	}
	return userID, draftID, nil
}

// List returns the user's drafts, newest first.
func (uc *ManageDraftsUseCase) List(ctx context.Context, input ListDraftsInput) ([]DraftOutput, error) {
	userID, err := domain.ParseUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	var status domain.DraftStatus
	if input.Status != "" {
		status, err = domain.ParseDraftStatus(input.Status)
		if err != nil {
			return nil, err
		}
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := max(input.Offset, 0)

	drafts, err := uc.draftRepo.ListByUser(ctx, userID, status, limit, offset)
	if err != nil {
		uc.logger.Error("list drafts failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing drafts: %w", err)
	}

	out := make([]DraftOutput, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, toDraftOutput(d))
	}
	return out, nil
}

// Get returns one draft of the user.
func (uc *ManageDraftsUseCase) Get(ctx context.Context, rawUserID, rawDraftID string) (*DraftOutput, error) {
	userID, draftID, err := parseOwnerAndDraft(rawUserID, rawDraftID)
	if err != nil {
		return nil, err
	}

	draft, err := uc.find(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}

	out := toDraftOutput(draft)
	return &out, nil
}

// Update replaces the draft content.
func (uc *ManageDraftsUseCase) Update(ctx context.Context, rawUserID, rawDraftID, content string) (*DraftOutput, error) {
	return uc.mutate(ctx, rawUserID, rawDraftID, "draft edited", func(d *domain.Draft) error {
		return d.Edit(content)
	})
}

// Save marks the draft as saved.
func (uc *ManageDraftsUseCase) Save(ctx context.Context, rawUserID, rawDraftID string) (*DraftOutput, error) {
	return uc.mutate(ctx, rawUserID, rawDraftID, "draft saved", func(d *domain.Draft) error {
		d.MarkSaved()
		return nil
	})
}

// Delete removes the draft.
func (uc *ManageDraftsUseCase) Delete(ctx context.Context, rawUserID, rawDraftID string) error {
	userID, draftID, err := parseOwnerAndDraft(rawUserID, rawDraftID)
	if err != nil {
		return err
	}

	if err := uc.draftRepo.Delete(ctx, userID, draftID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		uc.logger.Error("delete draft failed",
			"user_id", userID.String(),
			"draft_id", draftID.String(),
			"error", err.Error(),
		)
		return fmt.Errorf("deleting draft: %w", err)
	}

	uc.logger.Info("draft deleted",
		"user_id", userID.String(),
		"draft_id", draftID.String(),
	)
	return nil
}

func (uc *ManageDraftsUseCase) find(ctx context.Context, userID domain.UserID, draftID domain.DraftID) (*domain.Draft, error) {
	draft, err := uc.draftRepo.FindByID(ctx, userID, draftID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	// repositories scope by owner already, this guards custom implementations
	if !draft.IsOwnedBy(userID) {
		return nil, domain.ErrNotFound
	}
	return draft, nil
}

func (uc *ManageDraftsUseCase) mutate(
	ctx context.Context,
	rawUserID, rawDraftID, event string,
	fn func(d *domain.Draft) error,
) (*DraftOutput, error) {
	userID, draftID, err := parseOwnerAndDraft(rawUserID, rawDraftID)
	if err != nil {
		return nil, err
	}

	draft, err := uc.find(ctx, userID, draftID)
	if err != nil {
		return nil, err
	}

	if err := fn(draft); err != nil {
		return nil, err
	}

	if err := uc.draftRepo.SaveAll(ctx, []*domain.Draft{draft}); err != nil {
		uc.logger.Error("draft update failed",
			"user_id", userID.String(),
			"draft_id", draftID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving draft: %w", err)
	}

	uc.logger.Info(event,
		"user_id", userID.String(),
		"draft_id", draftID.String(),
		"status", string(draft.Status()),
	)

	out := toDraftOutput(draft)
	return &out, nil
}
