package domain

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWebhookURLInvalid  = fmt.Errorf("%w: target url must be an absolute http(s) url", ErrInvalidInput)
	ErrWebhookSecretShort = fmt.Errorf("%w: secret must be at least %d characters", ErrInvalidInput, MinWebhookSecretLength)
)

// MinWebhookSecretLength is the shortest accepted signing secret.
const MinWebhookSecretLength = 16

// WebhookSubscription represents a user's subscription to trend spike notifications.
type WebhookSubscription struct {
	id        WebhookSubscriptionID
	userID    UserID
	targetURL string
	secret    string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

// WebhookSubscriptionID uniquely identifies a webhook subscription.
type WebhookSubscriptionID struct {
	value uuid.UUID
}

// NewWebhookSubscriptionID creates a new random subscription id.
func NewWebhookSubscriptionID() WebhookSubscriptionID {
	return WebhookSubscriptionID{value: uuid.New()}
}

// ParseWebhookSubscriptionID parses a string into a WebhookSubscriptionID.
func ParseWebhookSubscriptionID(s string) (WebhookSubscriptionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return WebhookSubscriptionID{}, fmt.Errorf("%w: invalid subscription id: %v", ErrInvalidInput, err)
	}
	return WebhookSubscriptionID{value: id}, nil
}

// String returns the string representation.
func (id WebhookSubscriptionID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id WebhookSubscriptionID) UUID() uuid.UUID {
	return id.value
}

// NewWebhookSubscription creates a new active webhook subscription.
func NewWebhookSubscription(userID UserID, targetURL, secret string) (*WebhookSubscription, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("%w: subscription must belong to a user", ErrInvalidInput)
	}

	u, err := url.Parse(targetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrWebhookURLInvalid
	}
	if len(secret) < MinWebhookSecretLength {
		return nil, ErrWebhookSecretShort
	}

	now := time.Now().UTC()
	return &WebhookSubscription{
		id:        NewWebhookSubscriptionID(),
		userID:    userID,
		targetURL: u.String(),
		secret:    secret,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWebhookSubscription rebuilds a subscription from persistence.
// bypasses validation for trusted data from database.
func ReconstructWebhookSubscription(
	id WebhookSubscriptionID,
	userID UserID,
	targetURL string,
	secret string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) *WebhookSubscription {
	return &WebhookSubscription{
		id:        id,
		userID:    userID,
		targetURL: targetURL,
		secret:    secret,
		isActive:  isActive,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Getters

func (s *WebhookSubscription) ID() WebhookSubscriptionID { return s.id }
func (s *WebhookSubscription) UserID() UserID            { return s.userID }
func (s *WebhookSubscription) TargetURL() string         { return s.targetURL }
func (s *WebhookSubscription) Secret() string            { return s.secret }
func (s *WebhookSubscription) IsActive() bool            { return s.isActive }
func (s *WebhookSubscription) CreatedAt() time.Time      { return s.createdAt }
func (s *WebhookSubscription) UpdatedAt() time.Time      { return s.updatedAt }

// Deactivate disables the subscription without deleting it.
func (s *WebhookSubscription) Deactivate() {
	s.isActive = false
	s.updatedAt = time.Now().UTC()
}

// Activate enables a previously deactivated subscription.
func (s *WebhookSubscription) Activate() {
	s.isActive = true
	s.updatedAt = time.Now().UTC()
}

// WebhookSubscriptionRepository defines persistence for webhook subscriptions.
type WebhookSubscriptionRepository interface {
	// Save persists a webhook subscription (insert or update).
	Save(ctx context.Context, sub *WebhookSubscription) error

	// FindActiveByUser retrieves the active subscriptions of a user.
	FindActiveByUser(ctx context.Context, userID UserID) ([]*WebhookSubscription, error)

	// FindByUser retrieves all subscriptions for a user.
	FindByUser(ctx context.Context, userID UserID) ([]*WebhookSubscription, error)

	// Delete removes a subscription owned by the user.
	Delete(ctx context.Context, userID UserID, id WebhookSubscriptionID) error
}

// TrendSpike represents a significant momentum change of a topic.
type TrendSpike struct {
	UserID        UserID
	Topic         string
	Summary       string
	OldMomentum   float64
	NewMomentum   float64
	PercentChange float64
	Timestamp     time.Time
}

// NotificationService defines the interface for sending trend notifications.
// implementations handle the actual delivery mechanism (webhooks, etc).
type NotificationService interface {
	// NotifyTrendSpike sends notifications when momentum crosses a threshold.
	// returns the number of notifications sent.
	NotifyTrendSpike(ctx context.Context, spike TrendSpike) (int, error)
}

// SpikeThresholds defines when a spike is considered significant.
type SpikeThresholds struct {
	// AbsoluteThreshold is the minimum momentum value to trigger (e.g., > 10.0).
	AbsoluteThreshold float64

	// GrowthPercentage is the minimum growth rate to trigger (e.g., 0.20 = 20%).
	GrowthPercentage float64
}

// DefaultSpikeThresholds returns sensible defaults.
func DefaultSpikeThresholds() SpikeThresholds {
	return SpikeThresholds{
		AbsoluteThreshold: 10.0,
		GrowthPercentage:  0.20, // 20% growth
	}
}

// IsSpike determines if the momentum change constitutes a spike.
// a topic seen for the first time has oldMomentum 0.
func (t SpikeThresholds) IsSpike(oldMomentum, newMomentum float64) bool {
	// must exceed absolute threshold
	if newMomentum <= t.AbsoluteThreshold {
		return false
	}

	// must be growing (not shrinking)
	if newMomentum <= oldMomentum {
		return false
	}

	if oldMomentum <= 0 {
		return true
	}

	growth := (newMomentum - oldMomentum) / oldMomentum
	return growth >= t.GrowthPercentage
}

// PercentChange returns the relative change, 0 when there is no baseline.
func PercentChange(oldMomentum, newMomentum float64) float64 {
	if oldMomentum <= 0 {
		return 0
	}
	return (newMomentum - oldMomentum) / oldMomentum
}
