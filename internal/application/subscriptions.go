package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// SubscriptionOutput is the application view of a webhook subscription.
// the secret is never echoed back.
type SubscriptionOutput struct {
	ID        string
	TargetURL string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toSubscriptionOutput(s *domain.WebhookSubscription) SubscriptionOutput {
	return SubscriptionOutput{
		ID:        s.ID().String(),
		TargetURL: s.TargetURL(),
		IsActive:  s.IsActive(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

// SubscriptionsUseCase manages trend spike webhooks.
type SubscriptionsUseCase struct {
	repo   domain.WebhookSubscriptionRepository
	logger *logging.Logger
}

// NewSubscriptionsUseCase creates a new SubscriptionsUseCase.
func NewSubscriptionsUseCase(repo domain.WebhookSubscriptionRepository, logger *logging.Logger) *SubscriptionsUseCase {
	return &SubscriptionsUseCase{
		repo:   repo,
		logger: logger.WithComponent("subscriptions"),
	}
}

// Create registers a webhook. the same target url twice is a conflict.
func (uc *SubscriptionsUseCase) Create(ctx context.Context, rawUserID, targetURL, secret string) (*SubscriptionOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	sub, err := domain.NewWebhookSubscription(userID, targetURL, secret)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Save(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		uc.logger.Error("subscription save failed",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("saving subscription: %w", err)
	}

	uc.logger.Info("subscription created",
		"user_id", userID.String(),
		"subscription_id", sub.ID().String(),
	)

	out := toSubscriptionOutput(sub)
	return &out, nil
}

// List returns all subscriptions of the user.
func (uc *SubscriptionsUseCase) List(ctx context.Context, rawUserID string) ([]SubscriptionOutput, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}

	subs, err := uc.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	out := make([]SubscriptionOutput, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubscriptionOutput(s))
	}
	return out, nil
}

// Delete removes one of the user's subscriptions.
func (uc *SubscriptionsUseCase) Delete(ctx context.Context, rawUserID, rawID string) error {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return err
	}
	id, err := domain.ParseWebhookSubscriptionID(rawID)
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting subscription: %w", err)
	}

	uc.logger.Info("subscription deleted",
		"user_id", userID.String(),
		"subscription_id", id.String(),
	)
	return nil
}
